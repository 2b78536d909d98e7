// Package app is a thin shell around a root tinyioc.Context:
// it registers logger and config, runs plugins around Context start and stop
// and stops on SIGINT/SIGTERM.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/andriiyaremenko/tinyioc"
	"github.com/andriiyaremenko/tinyioc/config"
	"github.com/andriiyaremenko/tinyioc/discovery"
	"github.com/andriiyaremenko/tinyioc/lifecycle"
)

const (
	// Config key of the root Context name.
	ContextNameKey     = "app.context.name"
	DefaultContextName = "BaseContext"

	// Names of preinstantiated definitions registered by New.
	LoggerName = "logger"
	ConfigName = "config"

	defaultShutdownTimeout = 10 * time.Second
)

type options struct {
	logger          *slog.Logger
	config          *config.Provider
	shutdownTimeout time.Duration
}

type Option func(*options)

var (
	// Without WithLogger logger is built from config by NewLogger and writes to stderr.
	WithLogger = func(l *slog.Logger) Option {
		return func(o *options) { o.logger = l }
	}

	// Without WithConfig an empty config.Provider reading environment is used.
	WithConfig = func(p *config.Provider) Option {
		return func(o *options) { o.config = p }
	}

	// Limits Stop in Run after a signal was received.
	WithShutdownTimeout = func(d time.Duration) Option {
		return func(o *options) { o.shutdownTimeout = d }
	}
)

type App struct {
	context         *tinyioc.Context
	config          *config.Provider
	logger          *slog.Logger
	shutdownTimeout time.Duration

	plugins       []Plugin
	pluginContext sync.Map
	mu            sync.RWMutex
}

func New(opts ...Option) (*App, error) {
	o := options{shutdownTimeout: defaultShutdownTimeout}

	for _, opt := range opts {
		opt(&o)
	}

	if o.config == nil {
		p, err := config.New()
		if err != nil {
			return nil, err
		}

		o.config = p
	}

	if o.logger == nil {
		o.logger = NewLogger(o.config, os.Stderr)
	}

	c := tinyioc.New(
		o.config.String(ContextNameKey, DefaultContextName),
		tinyioc.WithLogger(o.logger),
		tinyioc.WithConfig(o.config),
	)

	if err := c.RegisterSingletons(
		tinyioc.PreinstantiatedSingleton(o.logger, LoggerName),
		tinyioc.PreinstantiatedSingleton(o.config, ConfigName),
	); err != nil {
		return nil, err
	}

	return &App{
		context:         c,
		config:          o.config,
		logger:          o.logger,
		shutdownTimeout: o.shutdownTimeout,
	}, nil
}

// Use registers plugins. Hooks run in registration order.
// Plugins should be registered before Start.
func (a *App) Use(plugins ...Plugin) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.context.Status() != lifecycle.NotStarted {
		names := make([]string, 0, len(plugins))
		for _, p := range plugins {
			names = append(names, p.Name())
		}

		return fmt.Errorf("cannot register plugin(s) %s: %w", strings.Join(names, ", "), ErrAppStarted)
	}

	for _, p := range plugins {
		if !hasHooks(p) {
			return fmt.Errorf("cannot register plugin %s: %w", p.Name(), ErrPluginWithoutHooks)
		}
	}

	a.plugins = append(a.plugins, plugins...)

	return nil
}

func (a *App) RegisteredPluginNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.plugins))
	for _, p := range a.plugins {
		names = append(names, p.Name())
	}

	return names
}

func (a *App) HasRegisteredPlugin(name string) bool {
	return slices.Contains(a.RegisteredPluginNames(), name)
}

// AddModules registers definitions of catalog modules matching patterns.
func (a *App) AddModules(catalog *discovery.Catalog, patterns ...string) error {
	return catalog.RegisterMatching(a.context, patterns...)
}

// Start runs WillStart hooks, starts Context, then runs DidStart hooks.
// The first failing step stops Start.
func (a *App) Start(ctx context.Context) error {
	if err := a.runHooks(ctx, willStart); err != nil {
		return err
	}

	if err := a.context.Start(ctx); err != nil {
		a.logger.Error("failed to start app", "context", a.context.Name(), "error", err)
		return err
	}

	if err := a.runHooks(ctx, didStart); err != nil {
		return err
	}

	a.logger.Info("app started", "context", a.context.Name(), "plugins", a.RegisteredPluginNames())

	return nil
}

// Stop runs WillStop hooks, stops Context, then runs DidStop hooks.
// Every step runs even if previous one failed, errors are joined.
func (a *App) Stop(ctx context.Context) error {
	a.logger.Info("shutting down app", "context", a.context.Name())

	errs := []error{a.runHooks(ctx, willStop)}

	if err := a.context.Stop(ctx); err != nil {
		a.logger.Error("failed to stop context", "context", a.context.Name(), "error", err)
		errs = append(errs, err)
	}

	errs = append(errs, a.runHooks(ctx, didStop))

	return errors.Join(errs...)
}

// Run starts App and blocks until ctx is done or SIGINT/SIGTERM is received, then stops it.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	stop()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
	defer cancel()

	return a.Stop(stopCtx)
}

func (a *App) Context() *tinyioc.Context {
	return a.context
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) Config() *config.Provider {
	return a.config
}

func (a *App) GetConfig(key string, defaultValue any) any {
	return a.config.Get(key, defaultValue)
}

func (a *App) HasConfig(key string) bool {
	return a.config.Has(key)
}

// PluginContext is a store shared by plugins of App.
func (a *App) PluginContext() *sync.Map {
	return &a.pluginContext
}

func (a *App) runHooks(ctx context.Context, h hook) error {
	a.mu.RLock()
	plugins := slices.Clone(a.plugins)
	a.mu.RUnlock()

	var errs []error

	for _, p := range plugins {
		fn := h.of(p)
		if fn == nil {
			continue
		}

		if err := fn(ctx, a); err != nil {
			a.logger.Error("plugin hook failed", "plugin", p.Name(), "hook", string(h), "error", err)

			err = fmt.Errorf("plugin %s %s: %w", p.Name(), h, err)
			if h == willStart || h == didStart {
				return err
			}

			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
