package dashboard

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"
)

func TestSingleflightSurvivesFirstCallerCancel(t *testing.T) {
	var group singleflight.Group
	started := make(chan struct{})
	release := make(chan struct{})
	fnCtx := make(chan context.Context, 2)
	var once sync.Once

	fn := func(ctx context.Context) (interface{}, error) {
		fnCtx <- ctx
		once.Do(func() { close(started) })
		select {
		case <-release:
			return "svg", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err, _ := singleflightDo(firstCtx, &group, "chart", fn)
		firstErr <- err
	}()
	<-started

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	shared := <-fnCtx
	assert.NoError(t, shared.Err())

	close(release)
	val, err, _ := singleflightDo(context.Background(), &group, "chart", fn)
	require.NoError(t, err)
	assert.Equal(t, "svg", val)
}

func TestSingleflightCallerCancelReturnsEarly(t *testing.T) {
	var group singleflight.Group
	block := make(chan struct{})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err, _ := singleflightDo(ctx, &group, "chart", func(context.Context) (interface{}, error) {
		<-block
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
