package dashboardhttp

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tickchart/tickchart/internal/chart"
	"github.com/tickchart/tickchart/internal/dashboard"
	"github.com/tickchart/tickchart/internal/market"
	"github.com/tickchart/tickchart/internal/market/store"
	"github.com/tickchart/tickchart/internal/platform/httpx"
	"github.com/tickchart/tickchart/internal/ta"
	"github.com/tickchart/tickchart/internal/view"
)

var symbolRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9._-]{0,31}$`)

const (
	requestTimeout   = 5 * time.Second
	defaultTimeframe = "1h"
	defaultLength    = 14
	maxLength        = 500
	maxBodyBytes     = 4 << 20
)

// ChartService is the dashboard contract used by the handler.
type ChartService interface {
	RenderSVG(ctx context.Context, req dashboard.ChartRequest) ([]byte, error)
	RenderPNG(ctx context.Context, req dashboard.ChartRequest) ([]byte, error)
	Inline(ctx context.Context, req dashboard.ChartRequest) (template.HTML, error)
	RenderPoints(points []chart.Point, format string) ([]byte, error)
	Ingest(ctx context.Context, symbol string, tf market.Timeframe, klines []market.Kline) (int, error)
	Series(ctx context.Context) ([]store.Series, error)
}

// Handler serves chart endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ChartService
	templates *view.Engine
	validator *validator.Validate
}

// NewHandler constructs the chart HTTP handler.
func NewHandler(logger *slog.Logger, service ChartService, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		validator: validator.New(),
	}
}

type renderRequest struct {
	Points []chart.Point `json:"points" validate:"required,max=10000"`
}

type ingestRequest struct {
	Symbol    string           `json:"symbol" validate:"required,max=32"`
	Timeframe market.Timeframe `json:"timeframe"`
	Klines    []market.Kline   `json:"klines" validate:"required,min=1,max=10000"`
}

type ingestResponse struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Stored    int    `json:"stored"`
}

type seriesResponse struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Href      string `json:"href"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	series, err := h.service.Series(ctx)
	if err != nil {
		h.handleServiceError(w, "list series", err)
		return
	}
	out := make([]seriesResponse, 0, len(series))
	for _, s := range series {
		out = append(out, seriesResponse{
			Symbol:    s.Symbol,
			Timeframe: s.Timeframe.String(),
			Href:      fmt.Sprintf("/charts/%s?tf=%s", s.Symbol, s.Timeframe),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	series, err := h.service.Series(ctx)
	if err != nil {
		h.handleServiceError(w, "list series", err)
		return
	}
	data := view.TemplateData{
		Title:       "Charts",
		CurrentPath: r.URL.Path,
	}
	if len(series) > 0 {
		data.Data = series
	}
	if err := h.templates.Render(w, "pages/index.html", data); err != nil {
		h.logger.Error("render index", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	req, err := parseChartRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if r.URL.Query().Get("format") == dashboard.FormatPNG {
		body, err := h.service.RenderPNG(ctx, req)
		if err != nil {
			h.handleServiceError(w, "render png", err)
			return
		}
		httpx.Blob(w, http.StatusOK, "image/png", body)
		return
	}

	body, err := h.service.RenderSVG(ctx, req)
	if err != nil {
		h.handleServiceError(w, "render svg", err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	httpx.Blob(w, http.StatusOK, "image/svg+xml", body)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	req, err := parseChartRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	inline, err := h.service.Inline(ctx, req)
	if err != nil {
		h.handleServiceError(w, "render page", err)
		return
	}

	data := view.TemplateData{
		Title:       req.Title(),
		CurrentPath: r.URL.Path,
		Data: map[string]any{
			"Chart":      inline,
			"Symbol":     req.Symbol,
			"Timeframe":  req.Timeframe.String(),
			"Indicator":  req.Indicator,
			"Length":     req.Length,
			"Indicators": ta.Names(),
			"Timeframes": market.TimeframeNames(),
		},
	}
	if err := h.templates.Render(w, "pages/chart.html", data); err != nil {
		h.logger.Error("render chart page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body renderRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(body); err != nil {
		h.handleValidationFailure(w, err)
		return
	}

	format := dashboard.FormatSVG
	contentType := "image/svg+xml"
	if r.URL.Query().Get("format") == dashboard.FormatPNG {
		format = dashboard.FormatPNG
		contentType = "image/png"
	}

	out, err := h.service.RenderPoints(body.Points, format)
	if err != nil {
		h.handleServiceError(w, "render points", err)
		return
	}
	httpx.Blob(w, http.StatusOK, contentType, out)
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body ingestRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(body); err != nil {
		h.handleValidationFailure(w, err)
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(body.Symbol))
	if !symbolRegex.MatchString(symbol) {
		httpx.RespondError(w, validationError{field: "symbol"})
		return
	}
	if body.Timeframe == 0 {
		httpx.RespondError(w, validationError{field: "timeframe"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	n, err := h.service.Ingest(ctx, symbol, body.Timeframe, body.Klines)
	if err != nil {
		h.handleServiceError(w, "ingest klines", err)
		return
	}
	h.logger.Info("klines ingested",
		slog.String("symbol", symbol),
		slog.String("timeframe", body.Timeframe.String()),
		slog.Int("count", n))
	httpx.JSON(w, http.StatusAccepted, ingestResponse{
		Symbol:    symbol,
		Timeframe: body.Timeframe.String(),
		Stored:    n,
	})
}

func parseChartRequest(r *http.Request) (dashboard.ChartRequest, error) {
	q := r.URL.Query()

	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if !symbolRegex.MatchString(symbol) {
		return dashboard.ChartRequest{}, validationError{field: "symbol"}
	}

	tfName := strings.TrimSpace(q.Get("tf"))
	if tfName == "" {
		tfName = defaultTimeframe
	}
	tf, err := market.ParseTimeframe(tfName)
	if err != nil {
		return dashboard.ChartRequest{}, validationError{field: "tf"}
	}

	from, err := parseTime(q.Get("from"))
	if err != nil {
		return dashboard.ChartRequest{}, validationError{field: "from"}
	}
	to, err := parseTime(q.Get("to"))
	if err != nil {
		return dashboard.ChartRequest{}, validationError{field: "to"}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return dashboard.ChartRequest{}, validationError{field: "to"}
	}

	req := dashboard.ChartRequest{Symbol: symbol, Timeframe: tf, From: from, To: to}

	indicator := strings.ToLower(strings.TrimSpace(q.Get("indicator")))
	if indicator == "" {
		return req, nil
	}
	if !ta.Known(indicator) {
		return dashboard.ChartRequest{}, validationError{field: "indicator"}
	}
	length := defaultLength
	if raw := strings.TrimSpace(q.Get("length")); raw != "" {
		length, err = strconv.Atoi(raw)
		if err != nil || length <= 0 || length > maxLength {
			return dashboard.ChartRequest{}, validationError{field: "length"}
		}
	}
	req.Indicator = indicator
	req.Length = length
	return req, nil
}

// parseTime accepts unix seconds or RFC3339.
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

func (v validationError) Unwrap() error {
	return httpx.ErrValidation
}

func (h *Handler) handleValidationFailure(w http.ResponseWriter, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		httpx.RespondError(w, validationError{field: strings.ToLower(fieldErrs[0].Field())})
		return
	}
	httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
}

func (h *Handler) handleServiceError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
