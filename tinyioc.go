package tinyioc

// This package provides a registry of named object definitions,
// resolves their dependency graph and starts/stops them in order.
// `Context` is the registry, `ObjectDefinition` is the recipe for one object.

import (
	"context"
	"log/slog"
	"reflect"
	"sync/atomic"
)

var (
	errorInterface   = reflect.TypeOf((*error)(nil)).Elem()
	contextInterface = reflect.TypeOf((*context.Context)(nil)).Elem()

	defaultLogger atomic.Pointer[slog.Logger]
)

// Sets logger used by every Context created without `WithLogger`.
// Should be called before any Context is created.
func SetDefaultLogger(l *slog.Logger) {
	defaultLogger.Store(l)
}

func logger() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}

	return slog.Default()
}

// ConfigProvider is a layered key/value configuration source.
// config.Provider implements it.
type ConfigProvider interface {
	Get(key string, defaultValue any) any
	Has(key string) bool
}

type noConfig struct{}

func (noConfig) Get(_ string, defaultValue any) any { return defaultValue }
func (noConfig) Has(string) bool                    { return false }

type ContextConfiguration struct {
	Parent *Context
	Logger *slog.Logger
	Config ConfigProvider
}

type ContextOption func(*ContextConfiguration)

var (
	// Parent is used for fallback lookups and is started before and stopped after the child.
	WithParent = func(parent *Context) ContextOption {
		return func(conf *ContextConfiguration) { conf.Parent = parent }
	}

	WithLogger = func(l *slog.Logger) ContextOption {
		return func(conf *ContextConfiguration) { conf.Logger = l }
	}

	// Config provider backs `Config` wiring and Context.GetConfig.
	WithConfig = func(provider ConfigProvider) ContextOption {
		return func(conf *ContextConfiguration) { conf.Config = provider }
	}
)

// Starter is implemented by objects with a start method picked up by StartStopMethodsInspector.
type Starter interface {
	Start(ctx context.Context) error
}

// Stopper is implemented by objects with a stop method picked up by StartStopMethodsInspector.
type Stopper interface {
	Stop(ctx context.Context) error
}

// TypeNameOf returns name used by `Type` wiring and by-type lookups for T.
func TypeNameOf[T any]() string {
	return typeName(reflect.TypeOf((*T)(nil)).Elem())
}

// Returns instance of definition `name` converted to T.
func Get[T any](ctx context.Context, c *Context, name string) (T, error) {
	var zero T

	instance, err := c.GetObjectByName(ctx, name)
	if err != nil {
		return zero, err
	}

	return cast[T](instance, name)
}

// Returns instance of the only autowire candidate producing T.
func GetByType[T any](ctx context.Context, c *Context) (T, error) {
	var zero T

	name := TypeNameOf[T]()
	instance, err := c.GetObjectByType(ctx, name)
	if err != nil {
		return zero, err
	}

	return cast[T](instance, name)
}

func cast[T any](instance any, name string) (T, error) {
	var zero T

	if instance == nil {
		return zero, nil
	}

	v, err := coerce(instance, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, newResolutionError(err, name)
	}

	return v.Interface().(T), nil
}
