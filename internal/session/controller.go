package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"lantern/internal/apperr"
	"lantern/internal/haven"
)

// RoleCache is the single-key persistence used for the cached role hint.
// Failures are reported so tests can assert the attempt, but the controller
// never lets them abort anything.
type RoleCache interface {
	Get() (string, error)
	Set(role string) error
	Delete() error
}

// State is a point-in-time view of the session.
type State struct {
	// Role is haven.RoleAdmin, haven.RoleVisitor, or "" when no
	// authentication is in effect.
	Role            string
	HasValidSession bool
	LoginRequired   bool
	Loading         bool
	Err             *apperr.Error
	// WaitTime drives the login throttle countdown when a login was
	// rejected with RATE_LIMIT.
	WaitTime *time.Duration
}

// Controller owns session lifecycle: the startup identity probe, logins,
// logout, and the reaction to transport-level session invalidation.
type Controller struct {
	api    haven.AuthAPI
	cache  RoleCache
	logger *log.Logger

	mu       sync.RWMutex
	state    State
	onChange func(State)
}

// NewController builds a Controller. The state starts in the loading phase
// until Bootstrap resolves it.
func NewController(api haven.AuthAPI, cache RoleCache, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{
		api:    api,
		cache:  cache,
		logger: logger.With("component", "session"),
		state:  State{Loading: true},
	}
}

// OnChange registers the observer notified after every state transition.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// State returns a copy of the current session state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) setState(next State) {
	c.mu.Lock()
	c.state = next
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(next)
	}
}

// Bootstrap reconciles locally cached identity with server-probed identity.
//
// The probes deliberately avoid forcing a login wall on connectivity
// failures: a server that cannot be reached is a data-screen problem, not a
// credentials problem, so the app stays browsable and individual screens
// show the error.
func (c *Controller) Bootstrap(ctx context.Context) {
	c.setState(State{Loading: true})

	hint := c.cachedRole()

	loginRequired := false
	sessionValid := false
	role := ""
	var surfaced *apperr.Error

	cfg, err := c.api.FetchAuthConfig(ctx)
	if err != nil {
		// The config probe itself failed. Probe the session resource
		// directly: if it answers, the session is already valid and the
		// config error is discarded.
		info, probeErr := c.api.FetchSession(ctx)
		switch {
		case probeErr == nil:
			loginRequired = true
			sessionValid = true
			role = probedRole(info, hint)
		case apperr.IsAuth(probeErr):
			loginRequired = true
		default:
			surfaced = asAppErr(probeErr)
		}
	} else {
		loginRequired = cfg.LoginRequired
		if loginRequired {
			info, probeErr := c.api.FetchSession(ctx)
			switch {
			case probeErr == nil:
				sessionValid = true
				role = probedRole(info, hint)
			case apperr.IsAuth(probeErr):
				// Session genuinely invalid: login wall.
			default:
				// Connectivity problem: don't wall the app off behind a
				// login it cannot verify.
				loginRequired = false
				surfaced = asAppErr(probeErr)
			}
		}
	}

	// Open-access deployments never carry a role, and a stale cached role
	// must not leak into them. An unconfirmed session clears it too.
	if !loginRequired || !sessionValid {
		role = ""
	}

	c.persistRole(role)
	c.setState(State{
		Role:            role,
		HasValidSession: sessionValid,
		LoginRequired:   loginRequired,
		Err:             surfaced,
	})
}

// LoginAsAdmin verifies the admin password and, on success, promotes the
// session.
func (c *Controller) LoginAsAdmin(ctx context.Context, password string) error {
	return c.login(haven.RoleAdmin, func() (*haven.VerifyOK, error) {
		return c.api.VerifyAdminPassword(ctx, password)
	})
}

// LoginAsVisitor verifies the visitor password.
func (c *Controller) LoginAsVisitor(ctx context.Context, password string) error {
	return c.login(haven.RoleVisitor, func() (*haven.VerifyOK, error) {
		return c.api.VerifyVisitorPassword(ctx, password)
	})
}

// LoginWithPasskey submits an encoded passkey assertion.
func (c *Controller) LoginWithPasskey(ctx context.Context, assertion any) error {
	return c.login(haven.RoleAdmin, func() (*haven.VerifyOK, error) {
		return c.api.VerifyPasskey(ctx, assertion)
	})
}

func (c *Controller) login(fallbackRole string, verify func() (*haven.VerifyOK, error)) error {
	// Clear prior error and throttle countdown before attempting.
	st := c.State()
	st.Err = nil
	st.WaitTime = nil
	c.setState(st)

	ok, err := verify()
	if err != nil {
		ae := coerceLoginError(err)
		st = c.State()
		st.Err = ae
		st.WaitTime = ae.WaitTime
		c.setState(st)
		return ae
	}

	role := ok.Role
	if role == "" {
		role = fallbackRole
	}
	c.persistRole(role)
	c.setState(State{
		Role:            role,
		HasValidSession: true,
		LoginRequired:   true,
	})
	return nil
}

// coerceLoginError maps verification failures onto the two codes the login
// flow distinguishes: RATE_LIMIT keeps its identity for the countdown,
// everything else reads as bad credentials.
func coerceLoginError(err error) *apperr.Error {
	ae := asAppErr(err)
	if ae.Code == apperr.CodeRateLimit {
		return ae
	}
	coerced := *ae
	coerced.Code = apperr.CodeUnauthenticated
	return &coerced
}

// Logout clears local identity unconditionally; the remote call is
// best-effort.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.api.Logout(ctx); err != nil {
		c.logger.Warn("remote logout failed", "err", err)
	}
	c.persistRole("")
	st := c.State()
	st.Role = ""
	st.HasValidSession = false
	st.Err = nil
	st.WaitTime = nil
	c.setState(st)
}

// HandleUnauthorized is wired to the transport's invalidation observer. It
// drops the session without re-running the startup probe.
func (c *Controller) HandleUnauthorized() {
	st := c.State()
	st.Role = ""
	st.HasValidSession = false
	c.setState(st)
}

func (c *Controller) cachedRole() string {
	if c.cache == nil {
		return ""
	}
	hint, err := c.cache.Get()
	if err != nil {
		c.logger.Warn("role cache read failed", "err", err)
		return ""
	}
	return hint
}

func (c *Controller) persistRole(role string) {
	if c.cache == nil {
		return
	}
	var err error
	if role == "" {
		err = c.cache.Delete()
	} else {
		err = c.cache.Set(role)
	}
	if err != nil {
		c.logger.Warn("role cache write failed", "role", role, "err", err)
	}
}

func probedRole(info *haven.SessionInfo, hint string) string {
	if info != nil {
		if role := info.ResolvedRole(); role != "" {
			return role
		}
	}
	return hint
}

func asAppErr(err error) *apperr.Error {
	if ae, ok := apperr.As(err); ok {
		return ae
	}
	return &apperr.Error{Code: apperr.CodeUnknown, Message: err.Error()}
}
