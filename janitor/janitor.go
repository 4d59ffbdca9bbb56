// Package janitor periodically sweeps expired entries out of caches.
package janitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flashbots/pdf-gateway/logutils"
)

type Sweeper interface {
	Name() string
	Sweep(now time.Time) int
}

type Janitor struct {
	period   time.Duration
	sweepers []Sweeper
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
	mx     sync.Mutex
}

func New(period time.Duration, sweepers ...Sweeper) *Janitor {
	return &Janitor{
		period:   period,
		sweepers: sweepers,
		now:      time.Now,
	}
}

// Start launches the sweep loop. The loop stops when ctx is done or Stop
// is called. Starting a running janitor is a no-op.
func (j *Janitor) Start(ctx context.Context) {
	j.mx.Lock()
	defer j.mx.Unlock()

	if j.cancel != nil {
		return
	}

	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})

	go j.loop(ctx, j.done)
}

// Stop ends the sweep loop and waits for it to exit. It is safe to call
// more than once, and on a janitor that was never started.
func (j *Janitor) Stop() {
	j.mx.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mx.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Tick sweeps every cache once with the same notion of now.
func (j *Janitor) Tick(ctx context.Context, now time.Time) map[string]int {
	l := logutils.LoggerFromContext(ctx)

	removed := make(map[string]int, len(j.sweepers))
	for _, s := range j.sweepers {
		removed[s.Name()] += s.Sweep(now)
	}

	fields := make([]zap.Field, 0, len(removed))
	for name, count := range removed {
		fields = append(fields, zap.Int(name, count))
	}
	l.Debug("Swept expired cache entries", fields...)

	return removed
}

func (j *Janitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Tick(ctx, j.now())
		}
	}
}
