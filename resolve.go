package tinyioc

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/go-viper/mapstructure/v2"
)

// GetInstance returns instance of the definition, resolving it on first call.
// Concurrent callers share one resolution and the constructor runs once per run of the definition.
// A failed resolution is forgotten so the next call starts from scratch.
//
// Called from a constructor with the constructor's context.Context, it returns as soon as
// the dependency is constructed and wired, otherwise it also waits for the start method.
func (d *ObjectDefinition) GetInstance(ctx context.Context) (any, error) {
	c := chainFrom(ctx)
	if c.contains(d) {
		if s := d.currentSlot(); s != nil {
			if value, ok := s.load(); ok {
				return value, nil
			}
		}

		return nil, newCircularDependencyError(c.cycle(d))
	}

	owner := d.Context()
	if owner == nil {
		return nil, newResolutionError(ErrUnregisteredDefinition, d.name)
	}

	if c != nil {
		return d.acquire(ctx).waitWired()
	}

	owner.resolution.Lock()
	s := d.acquire(ctx)
	_, err := s.waitWired()
	owner.resolution.Unlock()

	if err != nil {
		return nil, err
	}

	return s.waitStarted()
}

// Start resolves the instance and waits for its start method.
func (d *ObjectDefinition) Start(ctx context.Context) error {
	_, err := d.GetInstance(withoutChain(ctx))
	return err
}

// Stop calls stop method and forgets the instance: next start builds a fresh one.
func (d *ObjectDefinition) Stop(ctx context.Context) error {
	return d.lc.Stop(ctx)
}

func (d *ObjectDefinition) currentSlot() *slot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.slot
}

func (d *ObjectDefinition) acquire(ctx context.Context) *slot {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.slot != nil {
		return d.slot
	}

	s := newSlot()
	d.slot = s

	go d.run(withChain(ctx, d), s)

	return s
}

func (d *ObjectDefinition) release(s *slot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.slot == s {
		d.slot = nil
	}
}

func (d *ObjectDefinition) run(ctx context.Context, s *slot) {
	err := d.lc.Start(ctx)
	if err != nil {
		d.release(s)
	}

	s.wire(err)
	s.finish(err)
}

func (d *ObjectDefinition) doStart(ctx context.Context) error {
	s := d.currentSlot()
	owner := d.Context()

	instance, err := d.instantiate(ctx, owner)
	if err != nil {
		return err
	}

	s.allocate(instance)

	var pending []func() error
	for _, p := range d.props {
		wait, err := d.wireProperty(ctx, owner, instance, p)
		if err != nil {
			return err
		}

		if wait != nil {
			pending = append(pending, wait)
		}
	}

	s.wire(nil)

	// start method sees properties pointing up the resolution chain assigned
	for _, wait := range pending {
		if err := wait(); err != nil {
			return err
		}
	}

	return d.invoke(withoutChain(ctx), instance, d.startMethod, "start")
}

func (d *ObjectDefinition) doStop(ctx context.Context) error {
	s := d.currentSlot()
	if s == nil {
		return nil
	}

	defer d.release(s)

	instance, _ := s.load()

	return d.invoke(ctx, instance, d.stopMethod, "stop")
}

func (d *ObjectDefinition) instantiate(ctx context.Context, owner *Context) (any, error) {
	if err := d.validate(); err != nil {
		return nil, newResolutionError(err, d.name)
	}

	if d.preinstantiated {
		return d.instance, nil
	}

	t := d.constructor.Type()
	in := make([]reflect.Value, 0, t.NumIn())

	if t.NumIn() > 0 && t.In(0) == contextInterface {
		in = append(in, reflect.ValueOf(ctx))
	}

	for i, w := range d.args {
		v, err := d.resolve(ctx, owner, w)
		if err != nil {
			return nil, err
		}

		arg, err := coerce(v, t.In(len(in)))
		if err != nil {
			return nil, newResolutionError(fmt.Errorf("constructor argument %d %s: %w", i, w, err), d.name)
		}

		in = append(in, arg)
	}

	return d.construct(in)
}

func (d *ObjectDefinition) construct(in []reflect.Value) (instance any, err error) {
	defer func() {
		if rp := recover(); rp != nil {
			err = newInstantiationError(fmt.Errorf("recovered from panic: %v", rp), d.name, "construction")
		}
	}()

	out := d.constructor.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, newInstantiationError(out[1].Interface().(error), d.name, "construction")
	}

	return out[0].Interface(), nil
}

func (d *ObjectDefinition) resolve(ctx context.Context, owner *Context, w Wiring) (any, error) {
	switch w.kind {
	case refWiring, typeWiring:
		dep, err := d.lookup(owner, w)
		if err != nil {
			return nil, err
		}

		return dep.GetInstance(ctx)
	case groupWiring:
		deps, err := owner.GetDefinitionsByGroup(w.key)
		if err != nil {
			return nil, err
		}

		values := make([]any, 0, len(deps))
		for _, dep := range deps {
			v, err := dep.GetInstance(ctx)
			if err != nil {
				return nil, err
			}

			values = append(values, v)
		}

		return values, nil
	case definitionGroupWiring:
		return owner.GetDefinitionsByGroup(w.key)
	case configWiring:
		if owner.HasConfig(w.key) {
			return owner.GetConfig(w.key, w.value), nil
		}

		if w.hasDefault {
			return w.value, nil
		}

		return nil, newResolutionError(fmt.Errorf("%w: %s", ErrConfigKeyNotFound, w.key), d.name)
	default:
		return w.value, nil
	}
}

func (d *ObjectDefinition) lookup(owner *Context, w Wiring) (*ObjectDefinition, error) {
	if w.kind == refWiring {
		return owner.GetDefinitionByName(w.key)
	}

	return owner.GetDefinitionByType(w.key)
}

// wireProperty assigns property p of instance.
// When p refers to a definition still being constructed up the resolution chain,
// assignment happens once that instance is allocated and the returned func waits for it.
func (d *ObjectDefinition) wireProperty(ctx context.Context, owner *Context, instance any, p property) (func() error, error) {
	if !p.wiring.isReference() {
		v, err := d.resolve(ctx, owner, p.wiring)
		if err != nil {
			return nil, err
		}

		return nil, d.assign(instance, p.name, v)
	}

	dep, err := d.lookup(owner, p.wiring)
	if err != nil {
		return nil, err
	}

	c := chainFrom(ctx)
	if !c.contains(dep) {
		v, err := dep.GetInstance(ctx)
		if err != nil {
			return nil, err
		}

		return nil, d.assign(instance, p.name, v)
	}

	s := dep.currentSlot()
	if s == nil {
		return nil, newCircularDependencyError(c.cycle(dep))
	}

	st, err := propertySetter(instance, p.name)
	if err != nil {
		return nil, newResolutionError(err, d.name)
	}

	if dep.produced != nil && !dep.produced.AssignableTo(st.typ) {
		return nil, newResolutionError(
			fmt.Errorf("%w: property %s %s from %s", ErrNotAssignable, p.name, st.typ, dep.produced),
			d.name,
		)
	}

	var (
		assigned  bool
		assignErr error
	)

	done := s.whenAllocated(func(v any) {
		assigned = true
		assignErr = d.assign(instance, p.name, v)
	})

	return func() error {
		<-done

		if !assigned {
			_, err := s.waitWired()
			if err == nil {
				err = fmt.Errorf("%s was not constructed", dep.name)
			}

			return newResolutionError(fmt.Errorf("property %s: %w", p.name, err), d.name)
		}

		return assignErr
	}, nil
}

func (d *ObjectDefinition) assign(instance any, name string, v any) (err error) {
	defer func() {
		if rp := recover(); rp != nil {
			err = newInstantiationError(fmt.Errorf("recovered from panic: %v", rp), d.name, "property "+name)
		}
	}()

	st, err := propertySetter(instance, name)
	if err != nil {
		return newResolutionError(err, d.name)
	}

	value, err := coerce(v, st.typ)
	if err != nil {
		return newResolutionError(fmt.Errorf("property %s: %w", name, err), d.name)
	}

	if err := st.set(value); err != nil {
		return newInstantiationError(err, d.name, "property "+name)
	}

	return nil
}

func (d *ObjectDefinition) invoke(ctx context.Context, instance any, method, phase string) (err error) {
	if method == "" {
		return nil
	}

	defer func() {
		if rp := recover(); rp != nil {
			err = newInstantiationError(fmt.Errorf("recovered from panic: %v", rp), d.name, phase)
		}
	}()

	rv := reflect.ValueOf(instance)
	if !rv.IsValid() {
		return newInstantiationError(fmt.Errorf("%w: %s on nil instance", ErrMethodNotFound, method), d.name, phase)
	}

	m := rv.MethodByName(exportedName(method))
	if !m.IsValid() {
		return newInstantiationError(fmt.Errorf("%w: %s.%s", ErrMethodNotFound, rv.Type(), method), d.name, phase)
	}

	mt := m.Type()
	in := make([]reflect.Value, 0, 1)

	switch {
	case mt.NumIn() == 0:
	case mt.NumIn() == 1 && mt.In(0) == contextInterface:
		in = append(in, reflect.ValueOf(ctx))
	default:
		return newInstantiationError(fmt.Errorf("%w: %s", ErrMethodSignature, mt), d.name, phase)
	}

	if mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorInterface) {
		return newInstantiationError(fmt.Errorf("%w: %s", ErrMethodSignature, mt), d.name, phase)
	}

	out := m.Call(in)
	if len(out) == 1 && !out[0].IsNil() {
		return newInstantiationError(out[0].Interface().(error), d.name, phase)
	}

	return nil
}

type setter struct {
	typ reflect.Type
	set func(reflect.Value) error
}

// propertySetter prefers Set<Name> method over exported struct field <Name>.
func propertySetter(instance any, name string) (setter, error) {
	rv := reflect.ValueOf(instance)
	if !rv.IsValid() {
		return setter{}, fmt.Errorf("%w: property %s on nil instance", ErrNotAssignable, name)
	}

	exported := exportedName(name)

	if m := rv.MethodByName("Set" + exported); m.IsValid() {
		mt := m.Type()
		if mt.NumIn() == 1 && (mt.NumOut() == 0 || (mt.NumOut() == 1 && mt.Out(0) == errorInterface)) {
			return setter{
				typ: mt.In(0),
				set: func(v reflect.Value) error {
					out := m.Call([]reflect.Value{v})
					if len(out) == 1 && !out[0].IsNil() {
						return out[0].Interface().(error)
					}

					return nil
				},
			}, nil
		}
	}

	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return setter{}, fmt.Errorf("%w: property %s on nil instance", ErrNotAssignable, name)
		}

		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(exported); f.IsValid() && f.CanSet() {
			return setter{
				typ: f.Type(),
				set: func(v reflect.Value) error {
					f.Set(v)
					return nil
				},
			}, nil
		}
	}

	return setter{}, fmt.Errorf("%w: %T has no settable property %s", ErrNotAssignable, instance, name)
}

// coerce converts v to t: assignable values as is, slices element by element,
// other convertible values by conversion and anything else through weakly typed decoding.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	vt := rv.Type()

	switch {
	case vt.AssignableTo(t):
		return rv, nil
	case vt.Kind() == reflect.Slice && t.Kind() == reflect.Slice:
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := range rv.Len() {
			elem, err := coerce(rv.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}

			out.Index(i).Set(elem)
		}

		return out, nil
	case isNumber(vt.Kind()) && isNumber(t.Kind()):
		out, ok := convertNumber(rv, t)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows or truncates as %s", ErrNotAssignable, v, t)
		}

		return out, nil
	case vt.Kind() != reflect.Slice && vt.ConvertibleTo(t) && !(isInteger(vt.Kind()) && t.Kind() == reflect.String):
		return rv.Convert(t), nil
	}

	out := reflect.New(t)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out.Interface(),
	})
	if err != nil {
		return reflect.Value{}, err
	}

	if err := decoder.Decode(v); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %T to %s: %v", ErrNotAssignable, v, t, err)
	}

	return out.Elem(), nil
}

func isInteger(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Uintptr
}

func isNumber(k reflect.Kind) bool {
	return isInteger(k) || k == reflect.Float32 || k == reflect.Float64
}

// convertNumber converts rv to t, ok is false when the value does not survive the conversion.
func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if rv.CanFloat() && (math.IsNaN(rv.Float()) || math.IsInf(rv.Float(), 0)) {
		return rv.Convert(t), t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
	}

	out := rv.Convert(t)
	if out.CanFloat() {
		return out, !math.IsInf(out.Float(), 0)
	}

	return out, isNegative(rv) == isNegative(out) && out.Convert(rv.Type()).Equal(rv)
}

func isNegative(v reflect.Value) bool {
	switch {
	case v.CanInt():
		return v.Int() < 0
	case v.CanFloat():
		return v.Float() < 0
	}

	return false
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return name
	}

	return string(unicode.ToUpper(r)) + name[size:]
}
