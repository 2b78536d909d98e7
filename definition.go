package tinyioc

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/andriiyaremenko/tinyioc/lifecycle"
)

type property struct {
	name   string
	wiring Wiring
}

// ObjectDefinition is a recipe to construct, wire, start and stop one named object.
// Builder methods are not safe for concurrent use and should be called before the definition is registered.
type ObjectDefinition struct {
	lc    *lifecycle.Lifecycle
	owner *Context
	err   error

	constructor reflect.Value
	produced    reflect.Type
	instance    any

	args  []Wiring
	props []property

	name        string
	startMethod string
	stopMethod  string

	mu   sync.Mutex
	slot *slot

	preinstantiated bool
	lazy            bool
	autowire        bool
}

// NewSingleton returns lazy definition built by constructor.
// Constructor should be of form func([context.Context,] T1, ...) [T|(T, error)].
// Default name is the name of T without package and pointer.
func NewSingleton(constructor any, name ...string) *ObjectDefinition {
	d := &ObjectDefinition{lazy: true, autowire: true}

	produced, err := constructorProduces(reflect.TypeOf(constructor))
	switch {
	case err != nil:
		d.err = newBadConstructorError(err, constructor)
		d.name = fmt.Sprintf("%T", constructor)
	default:
		d.constructor = reflect.ValueOf(constructor)
		d.produced = produced
		d.name = defaultName(produced)
	}

	if len(name) > 0 && name[0] != "" {
		d.name = name[0]
	}

	return d.init()
}

// PreinstantiatedSingleton returns definition holding already built instance.
// Properties and start/stop methods are applied to instance as to any constructed object.
// Copies of the definition (Copy, Context.Clone, Context.ImportContext) hold the same instance,
// so every context holding a copy wires, starts and stops that one object.
func PreinstantiatedSingleton(instance any, name ...string) *ObjectDefinition {
	d := &ObjectDefinition{
		lazy:            true,
		autowire:        true,
		preinstantiated: true,
		instance:        instance,
		produced:        reflect.TypeOf(instance),
	}

	switch {
	case len(name) > 0 && name[0] != "":
		d.name = name[0]
	case d.produced != nil:
		d.name = defaultName(d.produced)
	default:
		d.err = fmt.Errorf("%w: nil instance without a name", ErrNotADefinition)
	}

	return d.init()
}

func (d *ObjectDefinition) init() *ObjectDefinition {
	d.lc = lifecycle.New(d.name, lifecycle.HookFuncs{OnStart: d.doStart, OnStop: d.doStop})

	return d
}

// Copy returns structurally identical definition that is not registered anywhere and holds no instance.
// Copy of a preinstantiated definition shares its instance.
func (d *ObjectDefinition) Copy() *ObjectDefinition {
	cp := &ObjectDefinition{
		err:             d.err,
		constructor:     d.constructor,
		produced:        d.produced,
		instance:        d.instance,
		args:            slices.Clone(d.args),
		props:           slices.Clone(d.props),
		name:            d.name,
		startMethod:     d.startMethod,
		stopMethod:      d.stopMethod,
		preinstantiated: d.preinstantiated,
		lazy:            d.lazy,
		autowire:        d.autowire,
	}

	return cp.init()
}

// Appends constructor argument.
func (d *ObjectDefinition) ConstructorParam(w Wiring) *ObjectDefinition {
	if w.kind == definitionGroupWiring {
		d.latch(ErrDefinitionGroupArgument)
		return d
	}

	d.args = append(d.args, w)
	return d
}

func (d *ObjectDefinition) ConstructorParamByValue(v any) *ObjectDefinition {
	return d.ConstructorParam(Value(v))
}

func (d *ObjectDefinition) ConstructorParamByRef(name string) *ObjectDefinition {
	return d.ConstructorParam(Ref(name))
}

func (d *ObjectDefinition) ConstructorParamByType(typeName string) *ObjectDefinition {
	return d.ConstructorParam(Type(typeName))
}

func (d *ObjectDefinition) ConstructorParamByGroup(group string) *ObjectDefinition {
	return d.ConstructorParam(Group(group))
}

func (d *ObjectDefinition) ConstructorParamByConfig(key string, defaultValue ...any) *ObjectDefinition {
	return d.ConstructorParam(Config(key, defaultValue...))
}

// Sets property wiring. Setting the same property twice replaces the wiring in place.
func (d *ObjectDefinition) SetProperty(name string, w Wiring) *ObjectDefinition {
	for i := range d.props {
		if d.props[i].name == name {
			d.props[i].wiring = w
			return d
		}
	}

	d.props = append(d.props, property{name: name, wiring: w})
	return d
}

func (d *ObjectDefinition) SetPropertyByValue(name string, v any) *ObjectDefinition {
	return d.SetProperty(name, Value(v))
}

func (d *ObjectDefinition) SetPropertyByRef(name, ref string) *ObjectDefinition {
	return d.SetProperty(name, Ref(ref))
}

func (d *ObjectDefinition) SetPropertyByType(name, typeName string) *ObjectDefinition {
	return d.SetProperty(name, Type(typeName))
}

func (d *ObjectDefinition) SetPropertyByGroup(name, group string) *ObjectDefinition {
	return d.SetProperty(name, Group(group))
}

func (d *ObjectDefinition) SetPropertyByDefinitionGroup(name, group string) *ObjectDefinition {
	return d.SetProperty(name, DefinitionGroup(group))
}

func (d *ObjectDefinition) SetPropertyByConfig(name, key string, defaultValue ...any) *ObjectDefinition {
	return d.SetProperty(name, Config(key, defaultValue...))
}

// Lazy definitions are resolved on first access, others during Context start.
func (d *ObjectDefinition) WithLazyLoading(lazy bool) *ObjectDefinition {
	d.lazy = lazy
	return d
}

func (d *ObjectDefinition) WithAutowireCandidate(candidate bool) *ObjectDefinition {
	d.autowire = candidate
	return d
}

// Method called after properties are wired.
func (d *ObjectDefinition) StartFunction(method string) *ObjectDefinition {
	d.startMethod = method
	return d
}

// Method called when definition stops.
func (d *ObjectDefinition) StopFunction(method string) *ObjectDefinition {
	d.stopMethod = method
	return d
}

func (d *ObjectDefinition) Name() string {
	return d.name
}

// Type of produced instance. Nil for preinstantiated nil.
func (d *ObjectDefinition) ProducedType() reflect.Type {
	return d.produced
}

// Name used for by-type lookups, see TypeNameOf.
func (d *ObjectDefinition) TypeName() string {
	if d.produced == nil {
		return ""
	}

	return typeName(d.produced)
}

func (d *ObjectDefinition) IsLazy() bool {
	return d.lazy
}

func (d *ObjectDefinition) IsAutowireCandidate() bool {
	return d.autowire
}

func (d *ObjectDefinition) StartMethod() string {
	return d.startMethod
}

func (d *ObjectDefinition) StopMethod() string {
	return d.stopMethod
}

func (d *ObjectDefinition) Status() lifecycle.State {
	return d.lc.State()
}

// Owning Context or nil.
func (d *ObjectDefinition) Context() *Context {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.owner
}

func (d *ObjectDefinition) String() string {
	return fmt.Sprintf("ObjectDefinition(%s)", d.name)
}

func (d *ObjectDefinition) latch(err error) {
	if d.err == nil {
		d.err = err
	}
}

// validate reports builder errors and constructor argument count mismatch
func (d *ObjectDefinition) validate() error {
	if d.err != nil {
		return d.err
	}

	if d.preinstantiated {
		return nil
	}

	t := d.constructor.Type()
	want := t.NumIn()
	if want > 0 && t.In(0) == contextInterface {
		want--
	}

	if want != len(d.args) {
		return fmt.Errorf("%w: %s expects %d, got %d", ErrArgumentCount, t, want, len(d.args))
	}

	return nil
}

// Singleton is either *ObjectDefinition or Class.
type Singleton interface {
	singleton() *ObjectDefinition
}

func (d *ObjectDefinition) singleton() *ObjectDefinition {
	return d
}

// Class is a bare constructor registered as a default singleton definition.
type Class struct {
	constructor any
}

// Constructor wraps fn to be registered with Context.RegisterSingletons.
func Constructor(fn any) Class {
	return Class{constructor: fn}
}

func (c Class) singleton() *ObjectDefinition {
	return NewSingleton(c.constructor)
}

func constructorProduces(t reflect.Type) (reflect.Type, error) {
	if t == nil || t.Kind() != reflect.Func {
		return nil, ErrNotAConstructor
	}

	if t.IsVariadic() {
		return nil, ErrVariadicConstructor
	}

	for i := 1; i < t.NumIn(); i++ {
		if t.In(i) == contextInterface {
			return nil, ErrNotAConstructor
		}
	}

	switch t.NumOut() {
	case 1:
		if t.Out(0) == errorInterface {
			return nil, ErrUnexpectedConstructorOut
		}
	case 2:
		if t.Out(0) == errorInterface || t.Out(1) != errorInterface {
			return nil, ErrUnexpectedConstructorOut
		}
	default:
		return nil, ErrUnexpectedConstructorOut
	}

	return t.Out(0), nil
}

func defaultName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if name := t.Name(); name != "" {
		return name
	}

	return t.String()
}

func typeName(t reflect.Type) string {
	return t.String()
}
