package marketdata

import (
	"context"
	"sync"

	"StockScope/internal/domain/models"
)

// fetchGroup coalesces concurrent fetches for the same key into a single
// upstream call. The executing goroutine is detached from any one caller's
// context: a cancelled waiter leaves, the fetch finishes and fills the cache.
type fetchGroup struct {
	mu    sync.Mutex
	calls map[string]*fetchCall
}

type fetchCall struct {
	done chan struct{}
	res  *models.FetchResult
	err  error
}

func newFetchGroup() *fetchGroup {
	return &fetchGroup{calls: make(map[string]*fetchCall)}
}

// Do runs fn once per key across concurrent callers. All waiters receive the
// same result; a waiter whose ctx ends first gets ctx.Err() instead.
func (g *fetchGroup) Do(ctx context.Context, key string, fn func() (*models.FetchResult, error)) (*models.FetchResult, error) {
	g.mu.Lock()
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		return c.wait(ctx)
	}

	c := &fetchCall{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	go func() {
		c.res, c.err = fn()
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()

	return c.wait(ctx)
}

func (c *fetchCall) wait(ctx context.Context) (*models.FetchResult, error) {
	select {
	case <-c.done:
		return c.res, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
