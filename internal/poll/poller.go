package poll

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"lantern/internal/apperr"
	"lantern/internal/haven"
	"lantern/internal/state"
)

// Poller drives the queue/stats refresh loop for the monitor, applying the
// Policy after every round. It is the runtime half of this package; Policy
// stays pure.
type Poller struct {
	client haven.QueueFetcher
	store  *state.Store
	policy *Policy
	logger *log.Logger

	mu         sync.Mutex
	foreground bool
	focused    bool
	failures   int
	terminal   bool

	wake chan struct{}
}

// New builds a Poller. The app starts foregrounded and focused.
func New(client haven.QueueFetcher, store *state.Store, policy *Policy, logger *log.Logger) *Poller {
	if policy == nil {
		policy = NewPolicy()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Poller{
		client:     client,
		store:      store,
		policy:     policy,
		logger:     logger.With("component", "poll"),
		foreground: true,
		focused:    true,
		wake:       make(chan struct{}, 1),
	}
}

// Run polls until the context is cancelled. An immediate refresh happens
// first so the store is populated before any timer fires.
func (p *Poller) Run(ctx context.Context) {
	for {
		decision := p.round(ctx)

		var timer *time.Timer
		var timerC <-chan time.Time
		if decision.Schedule {
			timer = time.NewTimer(decision.After)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-p.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// round runs one refresh (when eligible) and returns the next decision.
func (p *Poller) round(ctx context.Context) Decision {
	qs := p.queryState()
	if !qs.Eligible() {
		return Decision{}
	}
	if p.isTerminal() {
		return Decision{Terminal: true}
	}

	qs = p.refresh(ctx, qs)
	decision := p.policy.Next(qs)
	if decision.Terminal {
		p.setTerminal(true)
		p.logger.Debug("polling stopped", "failures", qs.Failures)
	}
	return decision
}

func (p *Poller) refresh(ctx context.Context, qs QueryState) QueryState {
	queue, err := p.client.FetchQueueStatus(ctx)
	if err == nil {
		var stats *haven.LibraryStats
		stats, err = p.client.FetchStats(ctx)
		if err == nil {
			p.store.Update(stats, queue, nil)
			p.resetFailures()
			qs.LastErr = nil
			qs.Failures = 0
			qs.Active = queue.Active
			qs.Queued = queue.Queued
			return qs
		}
	}

	ae := asAppErr(err)
	p.store.Update(nil, nil, ae)
	qs.LastErr = ae
	qs.Failures = p.bumpFailures()
	p.logger.Debug("poll failed", "code", ae.Code, "failures", qs.Failures)
	return qs
}

// SetForeground records app lifecycle state. A false→true edge refetches
// immediately and resets the failure budget.
func (p *Poller) SetForeground(fg bool) {
	p.setEligibility(&p.foreground, fg)
}

// SetFocused records whether the owning screen has focus.
func (p *Poller) SetFocused(focused bool) {
	p.setEligibility(&p.focused, focused)
}

// Refresh forces an immediate poll round.
func (p *Poller) Refresh() {
	p.mu.Lock()
	p.terminal = false
	p.failures = 0
	p.mu.Unlock()
	p.wakeUp()
}

func (p *Poller) setEligibility(field *bool, value bool) {
	p.mu.Lock()
	was := *field
	*field = value
	if value && !was {
		// Resuming resets the failure escalation and terminal latch.
		p.failures = 0
		p.terminal = false
	}
	p.mu.Unlock()
	if value && !was {
		p.wakeUp()
	}
}

func (p *Poller) wakeUp() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Poller) queryState() QueryState {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := p.store.Snapshot()
	return QueryState{
		Foreground: p.foreground,
		Focused:    p.focused,
		LastErr:    snap.LastErr,
		Active:     snap.Queue.Active,
		Queued:     snap.Queue.Queued,
		Failures:   p.failures,
	}
}

func (p *Poller) bumpFailures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
	return p.failures
}

func (p *Poller) resetFailures() {
	p.mu.Lock()
	p.failures = 0
	p.mu.Unlock()
}

func (p *Poller) isTerminal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminal
}

func (p *Poller) setTerminal(v bool) {
	p.mu.Lock()
	p.terminal = v
	p.mu.Unlock()
}

func asAppErr(err error) *apperr.Error {
	if ae, ok := apperr.As(err); ok {
		return ae
	}
	return &apperr.Error{Code: apperr.CodeUnknown, Message: err.Error()}
}
