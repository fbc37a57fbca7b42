package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// sharedCallTimeout bounds a shared call once it no longer follows the
// caller that started it.
const sharedCallTimeout = 30 * time.Second

// singleflightDo runs fn once per key. fn is detached from the first caller's
// cancellation so that callers joining the same key still get a result when
// that caller gives up.
func singleflightDo(ctx context.Context, group *singleflight.Group, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	resultChan := group.DoChan(key, func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		return fn(sharedCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
