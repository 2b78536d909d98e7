package tinyioc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/andriiyaremenko/tinyioc/lifecycle"
)

// Context is a registry of object definitions and the lifecycle owner of their instances.
// Definitions are registered while Context is NotStarted,
// non-lazy ones are resolved on Start and everything that started is stopped on Stop.
type Context struct {
	lc         *lifecycle.Lifecycle
	parent     *Context
	logger     *slog.Logger
	config     ConfigProvider
	resolution *sync.Mutex

	definitions map[string]*ObjectDefinition
	started     map[string]*ObjectDefinition
	groups      groupIndex
	inspectors  []Inspector
	order       []string

	name      string
	mu        sync.RWMutex
	inspected bool
}

// Returns new NotStarted Context.
// Without WithLogger and WithConfig the parent's logger and config are used, if any.
func New(name string, opts ...ContextOption) *Context {
	var conf ContextConfiguration

	for _, opt := range opts {
		opt(&conf)
	}

	c := &Context{
		name:        name,
		parent:      conf.Parent,
		logger:      conf.Logger,
		config:      conf.Config,
		definitions: make(map[string]*ObjectDefinition),
		started:     make(map[string]*ObjectDefinition),
		groups:      make(groupIndex),
	}

	if c.parent != nil {
		c.resolution = c.parent.resolution

		if c.logger == nil {
			c.logger = c.parent.logger
		}

		if c.config == nil {
			c.config = c.parent.config
		}
	} else {
		c.resolution = new(sync.Mutex)
	}

	if c.logger == nil {
		c.logger = logger()
	}

	if c.config == nil {
		c.config = noConfig{}
	}

	c.lc = lifecycle.New(name, lifecycle.HookFuncs{OnStart: c.doStart, OnStop: c.doStop})

	return c
}

func (c *Context) Name() string {
	return c.name
}

func (c *Context) Parent() *Context {
	return c.parent
}

func (c *Context) Logger() *slog.Logger {
	return c.logger
}

func (c *Context) Status() lifecycle.State {
	return c.lc.State()
}

// Starts parent, runs inspectors and resolves every non-lazy definition.
// On failure whatever started is stopped and the first error is returned.
func (c *Context) Start(ctx context.Context) error {
	return c.lc.Start(ctx)
}

// Stops every started definition, then parent.
func (c *Context) Stop(ctx context.Context) error {
	return c.lc.Stop(ctx)
}

// RegisterDefinition adds def to Context.
// Name should be unique within Context (unless overwrite is set) and its ancestors.
func (c *Context) RegisterDefinition(def *ObjectDefinition, overwrite ...bool) error {
	if def == nil {
		return newRegistrationError(ErrNotADefinition, "<nil>")
	}

	if err := c.lc.AssertState(lifecycle.NotStarted); err != nil {
		return newRegistrationError(err, def.name)
	}

	if err := def.validate(); err != nil {
		return newRegistrationError(err, def.name)
	}

	if c.parent != nil {
		if _, err := c.parent.GetDefinitionByName(def.name); err == nil {
			return newRegistrationError(ErrDefinedInAncestor, def.name)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.definitions[def.name]
	if ok && old != def && !isSet(overwrite) {
		return newRegistrationError(ErrDuplicateDefinition, def.name)
	}

	if err := def.adopt(c); err != nil {
		return newRegistrationError(err, def.name)
	}

	if ok && old != def {
		old.disown(c)
	}

	c.store(def)

	return nil
}

// RegisterSingletons registers every input, stopping at the first error.
func (c *Context) RegisterSingletons(singletons ...Singleton) error {
	for _, s := range singletons {
		if s == nil {
			return newRegistrationError(ErrNotADefinition, "<nil>")
		}

		if err := c.RegisterDefinition(s.singleton()); err != nil {
			return err
		}
	}

	return nil
}

// Clone returns independent NotStarted Context with the same parent,
// copies of every definition, group membership and inspectors.
func (c *Context) Clone(name string) (*Context, error) {
	if err := c.lc.AssertState(lifecycle.NotStarted); err != nil {
		return nil, err
	}

	opts := []ContextOption{WithLogger(c.logger), WithConfig(c.config)}
	if c.parent != nil {
		opts = append(opts, WithParent(c.parent))
	}

	clone := New(name, opts...)

	c.mu.RLock()
	defer c.mu.RUnlock()

	clone.mu.Lock()
	defer clone.mu.Unlock()

	for _, n := range c.order {
		def := c.definitions[n].Copy()
		def.owner = clone

		clone.store(def)
	}

	clone.groups = c.groups.copy()
	clone.inspectors = slices.Clone(c.inspectors)

	return clone, nil
}

// ImportContext registers copies of every definition of other.
// Both contexts should be NotStarted.
func (c *Context) ImportContext(other *Context, overwrite ...bool) error {
	if err := c.lc.AssertState(lifecycle.NotStarted); err != nil {
		return newRegistrationError(err, other.name)
	}

	if err := other.lc.AssertState(lifecycle.NotStarted); err != nil {
		return newRegistrationError(err, other.name)
	}

	for _, def := range other.localDefinitions() {
		if err := c.RegisterDefinition(def.Copy(), overwrite...); err != nil {
			return err
		}
	}

	return nil
}

func (c *Context) AddObjectDefinitionInspector(inspector Inspector) error {
	if inspector == nil {
		return newRegistrationError(ErrNilInspector, "inspector")
	}

	if err := c.lc.AssertState(lifecycle.NotStarted); err != nil {
		return newRegistrationError(err, fmt.Sprintf("%T", inspector))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inspectors = append(c.inspectors, inspector)

	return nil
}

// AddObjectNameToGroup appends name to group. Duplicates are kept.
func (c *Context) AddObjectNameToGroup(group, name string) error {
	if err := c.lc.AssertState(lifecycle.NotStarted); err != nil {
		return newRegistrationError(err, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.groups.add(group, name)

	return nil
}

// Names of local definitions in registration order.
func (c *Context) DefinitionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.order)
}

// Looks up local definitions, then parent.
func (c *Context) GetDefinitionByName(name string) (*ObjectDefinition, error) {
	c.mu.RLock()
	def, ok := c.definitions[name]
	c.mu.RUnlock()

	if ok {
		return def, nil
	}

	if c.parent != nil {
		return c.parent.GetDefinitionByName(name)
	}

	return nil, newResolutionError(ErrDefinitionNotFound, name)
}

// GetDefinitionsByType returns autowire candidates producing typeName, parent ones first.
// Local definitions replace parent ones with the same name.
// No match is an error unless failOnMissing is false.
func (c *Context) GetDefinitionsByType(typeName string, failOnMissing ...bool) ([]*ObjectDefinition, error) {
	var result []*ObjectDefinition
	index := make(map[string]int)

	if c.parent != nil {
		defs, _ := c.parent.GetDefinitionsByType(typeName, false)
		for _, def := range defs {
			index[def.name] = len(result)
			result = append(result, def)
		}
	}

	c.mu.RLock()
	for _, name := range c.order {
		def := c.definitions[name]
		if !def.autowire || def.TypeName() != typeName {
			continue
		}

		if i, ok := index[name]; ok {
			result[i] = def
			continue
		}

		index[name] = len(result)
		result = append(result, def)
	}
	c.mu.RUnlock()

	if len(result) == 0 && (len(failOnMissing) == 0 || failOnMissing[0]) {
		return nil, newResolutionError(ErrTypeNotFound, typeName)
	}

	return result, nil
}

// GetDefinitionByType returns the only autowire candidate producing typeName.
func (c *Context) GetDefinitionByType(typeName string) (*ObjectDefinition, error) {
	defs, err := c.GetDefinitionsByType(typeName)
	if err != nil {
		return nil, err
	}

	if len(defs) > 1 {
		names := make([]string, 0, len(defs))
		for _, def := range defs {
			names = append(names, def.name)
		}

		return nil, newResolutionError(fmt.Errorf("%w: %v", ErrAmbiguousType, names), typeName)
	}

	return defs[0], nil
}

// GetDefinitionsByGroup returns local definitions of group in group order.
// Unknown group is empty.
func (c *Context) GetDefinitionsByGroup(group string) ([]*ObjectDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := c.groups.members(group)
	defs := make([]*ObjectDefinition, 0, len(names))

	for _, name := range names {
		def, ok := c.definitions[name]
		if !ok {
			return nil, newResolutionError(fmt.Errorf("%w: member of group %s", ErrDefinitionNotFound, group), name)
		}

		defs = append(defs, def)
	}

	return defs, nil
}

func (c *Context) GetObjectByName(ctx context.Context, name string) (any, error) {
	def, err := c.GetDefinitionByName(name)
	if err != nil {
		return nil, err
	}

	return def.GetInstance(ctx)
}

func (c *Context) GetObjectByType(ctx context.Context, typeName string) (any, error) {
	def, err := c.GetDefinitionByType(typeName)
	if err != nil {
		return nil, err
	}

	return def.GetInstance(ctx)
}

func (c *Context) GetObjectsByType(ctx context.Context, typeName string) ([]any, error) {
	defs, err := c.GetDefinitionsByType(typeName)
	if err != nil {
		return nil, err
	}

	objects := make([]any, 0, len(defs))
	for _, def := range defs {
		object, err := def.GetInstance(ctx)
		if err != nil {
			return nil, err
		}

		objects = append(objects, object)
	}

	return objects, nil
}

func (c *Context) GetConfig(key string, defaultValue any) any {
	return c.config.Get(key, defaultValue)
}

func (c *Context) HasConfig(key string) bool {
	return c.config.Has(key)
}

func (c *Context) doStart(ctx context.Context) error {
	var startedParent bool

	if c.parent != nil {
		startedParent = c.parent.Status() != lifecycle.Started

		if err := c.parent.Start(ctx); err != nil {
			c.logger.Error("failed to start parent context", "context", c.name, "parent", c.parent.name, "error", err)
			return err
		}
	}

	c.inspect()

	p := pool.New().WithErrors().WithFirstError()
	for _, def := range c.localDefinitions() {
		if def.lazy {
			continue
		}

		p.Go(func() error { return def.Start(ctx) })
	}

	err := p.Wait()
	if err == nil {
		err = c.awaitPending()
	}

	if err != nil {
		c.logger.Error("failed to start context", "context", c.name, "error", err)

		// dependencies still in their start method reach Started before rollback
		_ = c.awaitPending()

		if stopErr := c.stopStarted(ctx); stopErr != nil {
			c.logger.Error("failed to stop definitions after failed start", "context", c.name, "error", stopErr)
		}

		if startedParent {
			if stopErr := c.parent.Stop(ctx); stopErr != nil {
				c.logger.Error("failed to stop parent context after failed start", "context", c.name, "error", stopErr)
			}
		}

		return err
	}

	c.logger.Debug("context started", "context", c.name)

	return nil
}

func (c *Context) doStop(ctx context.Context) error {
	err := c.stopStarted(ctx)

	if c.parent != nil {
		if state := c.parent.Status(); state == lifecycle.Started || state == lifecycle.Starting {
			err = errors.Join(err, c.parent.Stop(ctx))
		}
	}

	if err != nil {
		c.logger.Error("failed to stop context", "context", c.name, "error", err)
		return err
	}

	c.logger.Debug("context stopped", "context", c.name)

	return nil
}

func (c *Context) stopStarted(ctx context.Context) error {
	c.mu.RLock()
	defs := slices.Collect(maps.Values(c.started))
	c.mu.RUnlock()

	p := pool.New().WithErrors()
	for _, def := range defs {
		p.Go(func() error { return def.Stop(ctx) })
	}

	return p.Wait()
}

// awaitPending waits for start methods of local definitions resolved as dependencies.
func (c *Context) awaitPending() error {
	var err error

	for _, def := range c.localDefinitions() {
		if s := def.currentSlot(); s != nil {
			if _, startErr := s.waitStarted(); startErr != nil {
				err = errors.Join(err, startErr)
			}
		}
	}

	return err
}

// inspect runs every inspector over every definition once per Context.
func (c *Context) inspect() {
	c.mu.Lock()
	if c.inspected {
		c.mu.Unlock()
		return
	}

	c.inspected = true
	inspectors := slices.Clone(c.inspectors)
	c.mu.Unlock()

	for _, inspector := range inspectors {
		for _, def := range c.localDefinitions() {
			if !inspector.InterestedIn(def) {
				continue
			}

			replacement := inspector.DoInspect(def)
			if replacement == nil || replacement == def {
				continue
			}

			c.replace(def, replacement)
		}
	}
}

func (c *Context) replace(def, replacement *ObjectDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := replacement.adopt(c); err != nil {
		c.logger.Error("inspector returned unusable definition", "context", c.name, "definition", def.name, "error", err)
		return
	}

	def.disown(c)

	delete(c.definitions, def.name)
	replacement.name = def.name
	c.store(replacement)
}

func (c *Context) localDefinitions() []*ObjectDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]*ObjectDefinition, 0, len(c.order))
	for _, name := range c.order {
		defs = append(defs, c.definitions[name])
	}

	return defs
}

// must hold c.mu
func (c *Context) store(def *ObjectDefinition) {
	if _, ok := c.definitions[def.name]; !ok && !slices.Contains(c.order, def.name) {
		c.order = append(c.order, def.name)
	}

	c.definitions[def.name] = def
	c.track(def)
}

// track keeps started mirroring definitions currently in Started state.
func (c *Context) track(def *ObjectDefinition) {
	var onStarted, onStopped func()

	onStarted = func() {
		if c.setStarted(def, true) {
			def.lc.OnStateOnce(lifecycle.Started, onStarted)
		}
	}

	onStopped = func() {
		if c.setStarted(def, false) {
			def.lc.OnStateOnce(lifecycle.Stopped, onStopped)
		}
	}

	def.lc.OnStateOnce(lifecycle.Started, onStarted)
	def.lc.OnStateOnce(lifecycle.Stopped, onStopped)
}

// reports whether def is still registered
func (c *Context) setStarted(def *ObjectDefinition, started bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	registered := c.definitions[def.name] == def

	switch {
	case started && registered:
		c.started[def.name] = def
	case !started && c.started[def.name] == def:
		delete(c.started, def.name)
	}

	return registered
}

func (d *ObjectDefinition) adopt(c *Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.owner != nil && d.owner != c {
		return ErrDefinitionOwned
	}

	d.owner = c

	return nil
}

func (d *ObjectDefinition) disown(c *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.owner == c {
		d.owner = nil
	}
}

func isSet(flag []bool) bool {
	return len(flag) > 0 && flag[0]
}
