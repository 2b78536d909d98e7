package tinyioc

import (
	"context"
	"slices"
	"sync"
)

// slot holds one run of a definition: allocated right after construction,
// wired after properties are assigned, started after the start method returns.
type slot struct {
	value    any
	err      error
	startErr error
	deferred []deferred
	wired    chan struct{}
	started  chan struct{}

	mu        sync.Mutex
	allocated bool
	isWired   bool
}

func newSlot() *slot {
	return &slot{
		wired:   make(chan struct{}),
		started: make(chan struct{}),
	}
}

// deferred is a call waiting for the slot value, done is closed once it ran or never will.
type deferred struct {
	fn   func(any)
	done chan struct{}
}

func (s *slot) allocate(value any) {
	s.mu.Lock()
	s.value = value
	s.allocated = true
	calls := s.deferred
	s.deferred = nil
	s.mu.Unlock()

	for _, call := range calls {
		call.fn(value)
		close(call.done)
	}
}

// whenAllocated calls fn with the value once it is allocated, or right away if it already is.
// Returned channel is closed after fn returned, or when the slot is wired without a value
// and fn will never be called.
func (s *slot) whenAllocated(fn func(any)) <-chan struct{} {
	done := make(chan struct{})

	s.mu.Lock()
	switch {
	case s.allocated:
		value := s.value
		s.mu.Unlock()

		fn(value)
	case s.isWired:
		s.mu.Unlock()
	default:
		s.deferred = append(s.deferred, deferred{fn: fn, done: done})
		s.mu.Unlock()

		return done
	}

	close(done)

	return done
}

func (s *slot) load() (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value, s.allocated
}

// wire marks the slot wired, err is reported to every waiting dependent.
func (s *slot) wire(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isWired {
		return
	}

	s.err = err
	s.isWired = true
	close(s.wired)

	for _, call := range s.deferred {
		close(call.done)
	}

	s.deferred = nil
}

func (s *slot) finish(err error) {
	s.startErr = err
	close(s.started)
}

// waitWired returns value as soon as it is safe to hand out to dependents.
func (s *slot) waitWired() (any, error) {
	<-s.wired

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value, s.err
}

// waitStarted returns value after the start method returned.
func (s *slot) waitStarted() (any, error) {
	value, err := s.waitWired()
	if err != nil {
		return nil, err
	}

	<-s.started

	return value, s.startErr
}

type chainKey struct{}

// chain is the stack of definitions being resolved by one resolution, newest first.
type chain struct {
	def  *ObjectDefinition
	next *chain
}

func chainFrom(ctx context.Context) *chain {
	c, _ := ctx.Value(chainKey{}).(*chain)
	return c
}

func withChain(ctx context.Context, d *ObjectDefinition) context.Context {
	return context.WithValue(ctx, chainKey{}, &chain{def: d, next: chainFrom(ctx)})
}

// start methods resolve their own dependencies as fresh resolutions
func withoutChain(ctx context.Context) context.Context {
	if chainFrom(ctx) == nil {
		return ctx
	}

	return context.WithValue(ctx, chainKey{}, (*chain)(nil))
}

func (c *chain) contains(d *ObjectDefinition) bool {
	for ; c != nil; c = c.next {
		if c.def == d {
			return true
		}
	}

	return false
}

// cycle returns names from the first occurrence of d to the newest entry, closed by d.
func (c *chain) cycle(d *ObjectDefinition) []string {
	var names []string
	for ; c != nil; c = c.next {
		names = append(names, c.def.name)
		if c.def == d {
			break
		}
	}

	slices.Reverse(names)

	return append(names, d.name)
}
