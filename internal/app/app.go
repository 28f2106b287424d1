package app

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/bowltrack/internal/bowl"
	"github.com/appetiteclub/bowltrack/internal/store"
	"github.com/appetiteclub/bowltrack/pkg"
)

const (
	AppName    = "bowltrack"
	AppVersion = "0.1.0"
)

// App wires the registry, its store and the event publisher.
type App struct {
	config    *apt.Config
	logger    apt.Logger
	store     store.Store
	publisher events.Publisher
	stream    *pkg.NATSStream
	closers   []func() error

	Registry   *bowl.Registry
	Operator   *bowl.Operator
	Reconciler *bowl.Reconciler
}

type Option func(*App)

// WithStore overrides the store selected by store.kind.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithPublisher overrides the NATS publisher.
func WithPublisher(p events.Publisher) Option {
	return func(a *App) { a.publisher = p }
}

func New(config *apt.Config, logger apt.Logger, opts ...Option) *App {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	a := &App{
		config: config,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize starts the store, restores the registry and connects to NATS
// when nats.enabled is set.
func (a *App) Initialize(ctx context.Context) error {
	if a.store == nil {
		s, err := store.New(a.config, a.logger)
		if err != nil {
			return err
		}
		a.store = s
	}

	if err := a.store.Start(ctx); err != nil {
		return fmt.Errorf("cannot start store: %w", err)
	}
	a.closers = append(a.closers, func() error { return a.store.Stop(context.Background()) })

	snap, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("cannot load bowls: %w", err)
	}

	registry, err := bowl.RestoreRegistry(snap, a.logger)
	if err != nil {
		return fmt.Errorf("cannot restore bowls: %w", err)
	}
	a.Registry = registry

	if a.publisher == nil {
		if err := a.initPublisher(ctx); err != nil {
			return err
		}
	}

	a.Operator = bowl.NewOperator(a.Registry, a.publisher, a.logger)
	a.Reconciler = bowl.NewReconciler(a.Registry, a.publisher, a.logger)

	a.logger.Info("bowls loaded", "bowls", registry.Count(), "last_saved", snap.LastSaved.Format(time.RFC3339))
	return nil
}

func (a *App) initPublisher(ctx context.Context) error {
	enabled := a.config.GetStringOrDef("nats.enabled", "false")
	if enabled != "true" {
		return nil
	}

	natsURL := a.config.GetStringOrDef("nats.url", pkg.DefaultNATSURL)

	streamEnabled, _ := a.config.GetString("nats.stream.enabled")
	if streamEnabled == "true" {
		stream, err := pkg.NewNATSStream(ctx, pkg.DefaultBowlStreamConfig(natsURL))
		if err != nil {
			return fmt.Errorf("cannot open NATS stream: %w", err)
		}
		a.stream = stream
		a.publisher = stream
		a.closers = append(a.closers, stream.Close)
		a.logger.Info("NATS stream initialized for persistent events")
		return nil
	}

	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		return fmt.Errorf("cannot connect to NATS: %w", err)
	}
	a.publisher = publisher
	a.closers = append(a.closers, publisher.Close)
	return nil
}

// Stream returns the JetStream connection, or nil when streaming is off.
func (a *App) Stream() *pkg.NATSStream {
	return a.stream
}

// Save persists the current registry.
func (a *App) Save(ctx context.Context) error {
	if err := a.store.Save(ctx, a.Registry.Snapshot()); err != nil {
		return fmt.Errorf("cannot save bowls: %w", err)
	}
	return nil
}

// Shutdown releases connections in reverse order of acquisition.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Errorf("Shutdown error: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	a.closers = nil
	return firstErr
}
