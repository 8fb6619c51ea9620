// Package app wires Lantern's pieces together: config, transport, session,
// poller, and the terminal UI.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"lantern/internal/config"
	"lantern/internal/haven"
	"lantern/internal/poll"
	"lantern/internal/prefs"
	"lantern/internal/session"
	"lantern/internal/state"
	"lantern/internal/ui"
)

// Options collects the command-line overrides handed to Run and Status.
type Options struct {
	ConfigPath  string
	PrefsPath   string
	ServerURL   string
	PollSeconds int
	Logger      *log.Logger
}

type runtime struct {
	resolver *config.Resolver
	client   *haven.Client
	session  *session.Controller
	store    *state.Store
	policy   *poll.Policy
	poller   *poll.Poller
}

func build(opts Options) (*runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}
	if opts.PollSeconds > 0 {
		cfg.PollSeconds = opts.PollSeconds
	}

	resolver := config.NewResolver(cfg.ServerURL)
	client, err := haven.NewClient(resolver, logger)
	if err != nil {
		return nil, err
	}

	roles := prefs.NewRoleStore(opts.PrefsPath)
	sess := session.NewController(client, roles, logger)
	client.OnUnauthorized(sess.HandleUnauthorized)

	store := &state.Store{}
	policy := poll.NewPolicy()
	if cfg.PollSeconds > 0 {
		policy.IdleInterval = time.Duration(cfg.PollSeconds) * time.Second
	}
	poller := poll.New(client, store, policy, logger)

	return &runtime{
		resolver: resolver,
		client:   client,
		session:  sess,
		store:    store,
		policy:   policy,
		poller:   poller,
	}, nil
}

// Run starts the interactive monitor and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := build(opts)
	if err != nil {
		return err
	}

	rt.session.Bootstrap(ctx)
	go rt.poller.Run(ctx)

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     rt.store,
		Session:   rt.session,
		Poller:    rt.poller,
		ServerURL: rt.resolver.ServerURL(),
	})
}

// Status performs one round of probes and prints a plain-text summary to w.
func Status(ctx context.Context, opts Options, w io.Writer) error {
	rt, err := build(opts)
	if err != nil {
		return err
	}

	rt.session.Bootstrap(ctx)
	sess := rt.session.State()

	fmt.Fprintf(w, "server: %s\n", rt.resolver.ServerURL())
	switch {
	case sess.Err != nil:
		fmt.Fprintf(w, "session: %s (%s)\n", sess.Err.Code, sess.Err.Message)
	case !sess.LoginRequired:
		fmt.Fprintln(w, "session: open access")
	case sess.HasValidSession:
		fmt.Fprintf(w, "session: signed in as %s\n", sess.Role)
	default:
		fmt.Fprintln(w, "session: login required")
	}

	queue, err := rt.client.FetchQueueStatus(ctx)
	if err != nil {
		return fmt.Errorf("fetch queue status: %w", err)
	}
	stats, err := rt.client.FetchStats(ctx)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}

	fmt.Fprintf(w, "library: %d videos, %.1f hours, %d watched today\n",
		stats.Videos, stats.TotalHours, stats.WatchedToday)
	fmt.Fprintf(w, "queue: %d active, %d queued\n", queue.Active, queue.Queued)
	for _, task := range queue.Tasks {
		fmt.Fprintf(w, "  %s %s %.0f%%\n", task.Kind, task.State, task.Progress)
	}
	return nil
}
