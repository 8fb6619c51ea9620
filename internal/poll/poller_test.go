package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lantern/internal/apperr"
	"lantern/internal/haven"
	"lantern/internal/state"
)

type fakeFetcher struct {
	mu       sync.Mutex
	queue    haven.QueueStatus
	stats    haven.LibraryStats
	queueErr *apperr.Error
	calls    atomic.Int32
}

func (f *fakeFetcher) FetchQueueStatus(ctx context.Context) (*haven.QueueStatus, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queueErr != nil {
		return nil, f.queueErr
	}
	q := f.queue
	return &q, nil
}

func (f *fakeFetcher) FetchStats(ctx context.Context) (*haven.LibraryStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stats
	return &s, nil
}

func (f *fakeFetcher) setErr(e *apperr.Error) {
	f.mu.Lock()
	f.queueErr = e
	f.mu.Unlock()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPoller_InitialRefreshPopulatesStore(t *testing.T) {
	fetcher := &fakeFetcher{stats: haven.LibraryStats{Videos: 4}}
	store := &state.Store{}
	p := New(fetcher, store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go p.Run(ctx)

	waitFor(t, "store population", func() bool { return store.Snapshot().HasData })
	if got := store.Snapshot().Stats.Videos; got != 4 {
		t.Fatalf("Stats.Videos = %d, want 4", got)
	}
}

func TestPoller_FocusEdgeTriggersImmediateRefetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &state.Store{}
	p := New(fetcher, store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	p.SetFocused(false)
	go p.Run(ctx)

	// Parked: no fetches happen while unfocused.
	time.Sleep(50 * time.Millisecond)
	if got := fetcher.calls.Load(); got != 0 {
		t.Fatalf("calls = %d while unfocused, want 0", got)
	}

	p.SetFocused(true)
	waitFor(t, "refetch on focus", func() bool { return fetcher.calls.Load() >= 1 })
}

func TestPoller_AuthErrorStopsUntilRefresh(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.setErr(&apperr.Error{Code: apperr.CodeUnauthenticated, HTTPStatus: 401, Message: "denied"})
	store := &state.Store{}
	p := New(fetcher, store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go p.Run(ctx)

	waitFor(t, "first failed poll", func() bool { return fetcher.calls.Load() >= 1 })
	settled := fetcher.calls.Load()
	time.Sleep(100 * time.Millisecond)
	if got := fetcher.calls.Load(); got != settled {
		t.Fatalf("calls = %d after auth failure, want stopped at %d", got, settled)
	}

	fetcher.setErr(nil)
	p.Refresh()
	waitFor(t, "refetch after manual refresh", func() bool { return fetcher.calls.Load() > settled })
	waitFor(t, "recovery", func() bool { return store.Snapshot().LastErr == nil })
}
