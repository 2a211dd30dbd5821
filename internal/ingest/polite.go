package ingest

import (
	"context"
	"sync"
	"time"
)

// politeGate serializes network fetches and waits between them. The first
// fetch goes immediately; each later one waits the full delay first, so no
// delay follows the last network fetch or touches file reads.
type politeGate struct {
	mu    sync.Mutex
	delay time.Duration
	used  bool
	sleep func(context.Context, time.Duration) error
}

func (g *politeGate) do(ctx context.Context, fetch func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.used && g.delay > 0 {
		if err := g.sleep(ctx, g.delay); err != nil {
			return err
		}
	}
	g.used = true
	return fetch()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
