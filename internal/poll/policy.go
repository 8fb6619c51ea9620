package poll

import (
	"math/rand/v2"
	"time"

	"lantern/internal/apperr"
)

// QueryState is everything the policy looks at when deciding the next poll.
type QueryState struct {
	Foreground bool
	Focused    bool
	LastErr    *apperr.Error
	Active     int
	Queued     int
	// Failures counts consecutive failed polls. The owner resets it when
	// eligibility or payload state changes.
	Failures int
}

// Eligible reports whether the owning screen may poll at all.
func (s QueryState) Eligible() bool {
	return s.Foreground && s.Focused
}

// Decision is the policy's verdict for one scheduling round.
type Decision struct {
	// Schedule is true when a refetch should run After from now.
	Schedule bool
	After    time.Duration
	// Terminal means polling stops until the owner resets state: the
	// session died or the failure budget is spent.
	Terminal bool
}

const (
	defaultActiveInterval    = 3 * time.Second
	defaultQueuedInterval    = 8 * time.Second
	defaultIdleInterval      = 30 * time.Second
	defaultRateLimitInterval = 60 * time.Second

	minInterval    = time.Second
	jitterFraction = 0.2
	maxFailures    = 5
)

// failureSteps is the escalation table for consecutive failures. Fixed steps
// keep the worst case bounded, unlike exponential growth.
var failureSteps = []time.Duration{
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
	60 * time.Second,
}

// Policy decides poll cadence from error class, payload occupancy, and
// screen eligibility.
type Policy struct {
	ActiveInterval    time.Duration
	QueuedInterval    time.Duration
	IdleInterval      time.Duration
	RateLimitInterval time.Duration
}

// NewPolicy returns a Policy with the default cadence.
func NewPolicy() *Policy {
	return &Policy{
		ActiveInterval:    defaultActiveInterval,
		QueuedInterval:    defaultQueuedInterval,
		IdleInterval:      defaultIdleInterval,
		RateLimitInterval: defaultRateLimitInterval,
	}
}

// Next computes the scheduling decision for the given query state.
func (p *Policy) Next(s QueryState) Decision {
	if !s.Eligible() {
		return Decision{}
	}

	if err := s.LastErr; err != nil {
		switch err.Code {
		case apperr.CodeUnauthenticated, apperr.CodeForbidden:
			// The session controller owns recovery; polling would only
			// hammer a dead session.
			return Decision{Terminal: true}
		case apperr.CodeRateLimit:
			interval := p.RateLimitInterval
			if err.RetryAfter != nil && *err.RetryAfter > 0 {
				interval = *err.RetryAfter
			}
			return p.schedule(interval)
		}
		// The fifth failure still schedules the final 60s step; only
		// failures beyond the budget stop polling.
		if s.Failures > maxFailures {
			return Decision{Terminal: true}
		}
		step := failureSteps[len(failureSteps)-1]
		if s.Failures > 0 && s.Failures <= len(failureSteps) {
			step = failureSteps[s.Failures-1]
		}
		return p.schedule(step)
	}

	switch {
	case s.Active > 0:
		return p.schedule(p.ActiveInterval)
	case s.Queued > 0:
		return p.schedule(p.QueuedInterval)
	default:
		return p.schedule(p.IdleInterval)
	}
}

func (p *Policy) schedule(base time.Duration) Decision {
	return Decision{Schedule: true, After: Jitter(base)}
}

// Jitter spreads an interval uniformly within ±20%, floored at one second,
// so a fleet of clients never bursts against the server in lockstep.
func Jitter(base time.Duration) time.Duration {
	if base < 0 {
		base = 0
	}
	factor := 1 - jitterFraction + 2*jitterFraction*rand.Float64()
	jittered := time.Duration(float64(base) * factor)
	if jittered < minInterval {
		return minInterval
	}
	return jittered
}
