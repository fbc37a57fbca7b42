// Package dashboardhttp exposes chart rendering and kline ingest over HTTP.
package dashboardhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers chart endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/", h.handleIndex)
	r.Route("/charts", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{symbol}", h.handleChart)
		r.Get("/{symbol}/page", h.handlePage)
		r.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Post("/render", h.handleRender)
			gr.Post("/klines", h.handleIngest)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
