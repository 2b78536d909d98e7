package app

import (
	"context"
	"errors"
)

var (
	ErrPluginWithoutHooks = errors.New("plugin should implement at least one of WillStart, DidStart, WillStop, DidStop")
	ErrAppStarted         = errors.New("the app has already started, register all plugins before calling Start")
)

// Plugin extends App around its Context start and stop.
// A plugin implements at least one of WillStarter, DidStarter, WillStopper, DidStopper.
type Plugin interface {
	Name() string
}

// Called before Context starts, definitions can still be registered.
type WillStarter interface {
	WillStart(ctx context.Context, app *App) error
}

// Called after Context started.
type DidStarter interface {
	DidStart(ctx context.Context, app *App) error
}

// Called before Context stops.
type WillStopper interface {
	WillStop(ctx context.Context, app *App) error
}

// Called after Context stopped.
type DidStopper interface {
	DidStop(ctx context.Context, app *App) error
}

type hook string

const (
	willStart hook = "willStart"
	didStart  hook = "didStart"
	willStop  hook = "willStop"
	didStop   hook = "didStop"
)

func hasHooks(p Plugin) bool {
	switch p.(type) {
	case WillStarter, DidStarter, WillStopper, DidStopper:
		return true
	default:
		return false
	}
}

// returns nil if p does not implement h
func (h hook) of(p Plugin) func(context.Context, *App) error {
	switch h {
	case willStart:
		if s, ok := p.(WillStarter); ok {
			return s.WillStart
		}
	case didStart:
		if s, ok := p.(DidStarter); ok {
			return s.DidStart
		}
	case willStop:
		if s, ok := p.(WillStopper); ok {
			return s.WillStop
		}
	case didStop:
		if s, ok := p.(DidStopper); ok {
			return s.DidStop
		}
	}

	return nil
}
