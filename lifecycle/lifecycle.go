// Package lifecycle provides the start/stop state machine shared by
// tinyioc.Context and every tinyioc.ObjectDefinition.
//
// The flow for a healthy object is:
//
//	NotStarted → Starting → Started → Stopping → Stopped
//
// A failed start ends in Error. Stopped and Error objects may be started again.
package lifecycle

import (
	"context"
	"sync"
)

// State is the lifecycle state of a managed object.
type State int

const (
	NotStarted State = iota
	Starting
	Started
	Stopping
	Stopped
	Error
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NOT_STARTED"
	case Starting:
		return "STARTING"
	case Started:
		return "STARTED"
	case Stopping:
		return "STOPPING"
	case Stopped:
		return "STOPPED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Hooks are invoked by Lifecycle on Start and Stop transitions.
type Hooks interface {
	DoStart(ctx context.Context) error
	DoStop(ctx context.Context) error
}

// HookFuncs adapts plain functions to Hooks. Nil functions are no-ops.
type HookFuncs struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (h HookFuncs) DoStart(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}

	return h.OnStart(ctx)
}

func (h HookFuncs) DoStop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}

	return h.OnStop(ctx)
}

type call struct {
	done chan struct{}
	err  error
}

func newCall() *call {
	return &call{done: make(chan struct{})}
}

func (c *call) wait() error {
	<-c.done
	return c.err
}

// Lifecycle is a finite-state machine with one-shot state listeners.
// It is safe for concurrent use.
type Lifecycle struct {
	hooks     Hooks
	listeners map[State][]func()
	starting  *call
	stopping  *call
	name      string
	mu        sync.Mutex
	state     State
}

// New returns a Lifecycle in NotStarted state.
func New(name string, hooks Hooks) *Lifecycle {
	if hooks == nil {
		hooks = HookFuncs{}
	}

	return &Lifecycle{
		name:      name,
		hooks:     hooks,
		listeners: make(map[State][]func()),
	}
}

func (l *Lifecycle) Name() string {
	return l.name
}

// State returns current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

// AssertState returns *StateError if current state is not expected.
func (l *Lifecycle) AssertState(expected State) error {
	if state := l.State(); state != expected {
		return newStateError(l.name, expected, state)
	}

	return nil
}

// OnStateOnce registers fn to be called the next time state is reached.
// fn is called once and then discarded.
func (l *Lifecycle) OnStateOnce(state State, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.listeners[state] = append(l.listeners[state], fn)
}

// Start moves the lifecycle through Starting to Started, calling Hooks.DoStart.
// A Start issued while another one is in flight returns that call's result.
// Start on a Started lifecycle returns nil without calling DoStart.
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()

	switch l.state {
	case Started:
		l.mu.Unlock()
		return nil
	case Starting:
		c := l.starting
		l.mu.Unlock()

		return c.wait()
	case NotStarted, Stopped, Error:
	default:
		state := l.state
		l.mu.Unlock()

		return newStateError(l.name, NotStarted, state)
	}

	c := newCall()
	l.starting = c
	l.state = Starting
	fns := l.takeListeners(Starting)
	l.mu.Unlock()

	fire(fns)

	err := l.hooks.DoStart(ctx)

	next := Started
	if err != nil {
		next = Error
	}

	l.mu.Lock()
	l.state = next
	l.starting = nil
	fns = l.takeListeners(next)
	l.mu.Unlock()

	c.err = err
	fire(fns)
	close(c.done)

	return err
}

// Stop moves the lifecycle through Stopping to Stopped, calling Hooks.DoStop.
// Stop issued while starting waits for the start to finish first and is a
// no-op if that start failed.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()

	for l.state == Starting {
		c := l.starting
		l.mu.Unlock()

		if err := c.wait(); err != nil {
			return nil
		}

		l.mu.Lock()
	}

	switch l.state {
	case Started:
	case Stopping:
		c := l.stopping
		l.mu.Unlock()

		return c.wait()
	default:
		state := l.state
		l.mu.Unlock()

		return newStateError(l.name, Started, state)
	}

	c := newCall()
	l.stopping = c
	l.state = Stopping
	fns := l.takeListeners(Stopping)
	l.mu.Unlock()

	fire(fns)

	err := l.hooks.DoStop(ctx)

	l.mu.Lock()
	l.state = Stopped
	l.stopping = nil
	fns = l.takeListeners(Stopped)
	l.mu.Unlock()

	c.err = err
	fire(fns)
	close(c.done)

	return err
}

// must hold l.mu
func (l *Lifecycle) takeListeners(state State) []func() {
	fns := l.listeners[state]
	delete(l.listeners, state)

	return fns
}

func fire(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
