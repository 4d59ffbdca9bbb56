package futurecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ttl = 5 * time.Minute

type fakeClock struct {
	mx  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func TestGetOrCreate_CoalescesConcurrentCallers(t *testing.T) {
	c := New[string]("test", ttl)

	var calls int32
	release := make(chan struct{})
	factory := func() *Future[string] {
		atomic.AddInt32(&calls, 1)
		return Go(context.Background(), func(context.Context) (string, error) {
			<-release
			return "value", nil
		})
	}

	const callers = 32
	futures := make([]*Future[string], callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			futures[i] = c.GetOrCreate("a", factory)
		}(i)
	}
	wg.Wait()
	close(release)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, f := range futures {
		assert.Same(t, futures[0], f)
		v, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
}

func TestGetOrCreate_IndependentKeys(t *testing.T) {
	c := New[string]("test", ttl)

	var calls int32
	factory := func(v string) func() *Future[string] {
		return func() *Future[string] {
			atomic.AddInt32(&calls, 1)
			return Resolved(v)
		}
	}

	a := c.GetOrCreate("a", factory("A"))
	b := c.GetOrCreate("b", factory("B"))

	assert.NotSame(t, a, b)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, c.Len())
}

func TestSweep_ExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := New("test", ttl, WithClock[string](clock.Now))

	var calls int32
	factory := func() *Future[string] {
		atomic.AddInt32(&calls, 1)
		return Resolved("value")
	}

	first := c.GetOrCreate("a", factory)
	assert.Equal(t, 0, c.Sweep(clock.Advance(ttl)), "entry expiring exactly now is kept")
	assert.Equal(t, 1, c.Sweep(clock.Advance(time.Millisecond)))
	assert.Equal(t, 0, c.Len())

	second := c.GetOrCreate("a", factory)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrCreate_NoEvictionOnAccess(t *testing.T) {
	clock := newFakeClock()
	c := New("test", ttl, WithClock[string](clock.Now))

	var calls int32
	factory := func() *Future[string] {
		atomic.AddInt32(&calls, 1)
		return Resolved("value")
	}

	first := c.GetOrCreate("a", factory)

	// past the expiry but before any sweep
	clock.Advance(ttl + time.Minute)
	second := c.GetOrCreate("a", factory)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetOrCreate_ExpiryIsNotRefreshedByReads(t *testing.T) {
	clock := newFakeClock()
	c := New("test", ttl, WithClock[string](clock.Now))

	c.GetOrCreate("a", func() *Future[string] { return Resolved("value") })

	clock.Advance(ttl - time.Second)
	c.GetOrCreate("a", func() *Future[string] { return Resolved("other") })

	assert.Equal(t, 1, c.Sweep(clock.Advance(2*time.Second)))
}

func TestGetOrCreate_StickyFailure(t *testing.T) {
	c := New[string]("test", ttl)

	boom := errors.New("boom")
	var calls int32
	factory := func() *Future[string] {
		atomic.AddInt32(&calls, 1)
		return Go(context.Background(), func(context.Context) (string, error) {
			return "", boom
		})
	}

	_, err := c.GetOrCreate("a", factory).Wait(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = c.GetOrCreate("a", factory).Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSweep_OnEvict(t *testing.T) {
	clock := newFakeClock()

	evicted := map[string]bool{}
	c := New("test", ttl,
		WithClock[int](clock.Now),
		WithOnEvict(func(key string, _ *Future[int]) {
			evicted[key] = true
		}),
	)

	c.GetOrCreate("old", func() *Future[int] { return Resolved(1) })
	clock.Advance(time.Minute)
	c.GetOrCreate("new", func() *Future[int] { return Resolved(2) })

	assert.Equal(t, 1, c.Sweep(clock.Now().Add(ttl-time.Second)))
	assert.Equal(t, map[string]bool{"old": true}, evicted)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 0, c.Sweep(clock.Now().Add(-time.Hour)), "sweep is idempotent")
}

func TestSweep_RemovesPendingEntries(t *testing.T) {
	clock := newFakeClock()
	c := New("test", ttl, WithClock[string](clock.Now))

	release := make(chan struct{})
	defer close(release)

	c.GetOrCreate("a", func() *Future[string] {
		return Go(context.Background(), func(context.Context) (string, error) {
			<-release
			return "late", nil
		})
	})

	assert.Equal(t, 1, c.Sweep(clock.Advance(ttl+time.Second)))
	assert.Equal(t, 0, c.Len())
}

func TestName(t *testing.T) {
	assert.Equal(t, "responses", New[int]("responses", ttl).Name())
}

func TestGetOrCreate_PanickingFactory(t *testing.T) {
	c := New[string]("test", ttl)

	f := c.GetOrCreate("a", func() *Future[string] {
		panic("boom")
	})
	_, err := f.Wait(context.Background())
	require.ErrorIs(t, err, ErrPanicked)
	assert.Contains(t, err.Error(), "boom")

	var calls int32
	again := c.GetOrCreate("a", func() *Future[string] {
		atomic.AddInt32(&calls, 1)
		return Resolved("a")
	})
	assert.Same(t, f, again, "the failure is cached like any other")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	done := make(chan *Future[string], 1)
	go func() {
		done <- c.GetOrCreate("b", func() *Future[string] {
			return Resolved("b")
		})
	}()
	select {
	case f := <-done:
		v, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "b", v)
	case <-time.After(time.Second):
		t.Fatal("cache stayed locked after a factory panic")
	}
	assert.Equal(t, 2, c.Len())
}
