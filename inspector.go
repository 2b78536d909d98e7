package tinyioc

import "reflect"

var (
	starterInterface = reflect.TypeOf((*Starter)(nil)).Elem()
	stopperInterface = reflect.TypeOf((*Stopper)(nil)).Elem()
)

// Inspector may replace registered definitions once, right before Context starts resolving them.
type Inspector interface {
	InterestedIn(def *ObjectDefinition) bool
	// Returned definition replaces def under the same name, nil keeps def.
	DoInspect(def *ObjectDefinition) *ObjectDefinition
}

// InspectorFuncs adapts functions to Inspector. Nil Interested means interested in every definition.
type InspectorFuncs struct {
	Interested func(def *ObjectDefinition) bool
	Inspect    func(def *ObjectDefinition) *ObjectDefinition
}

func (f InspectorFuncs) InterestedIn(def *ObjectDefinition) bool {
	if f.Interested == nil {
		return true
	}

	return f.Interested(def)
}

func (f InspectorFuncs) DoInspect(def *ObjectDefinition) *ObjectDefinition {
	if f.Inspect == nil {
		return nil
	}

	return f.Inspect(def)
}

// StartStopMethodsInspector sets start and stop methods on definitions
// whose produced type implements Starter or Stopper and has none configured.
type StartStopMethodsInspector struct{}

var _ Inspector = StartStopMethodsInspector{}

func (StartStopMethodsInspector) InterestedIn(def *ObjectDefinition) bool {
	t := def.ProducedType()
	if t == nil {
		return false
	}

	return (def.StartMethod() == "" && t.Implements(starterInterface)) ||
		(def.StopMethod() == "" && t.Implements(stopperInterface))
}

func (StartStopMethodsInspector) DoInspect(def *ObjectDefinition) *ObjectDefinition {
	t := def.ProducedType()

	if def.StartMethod() == "" && t.Implements(starterInterface) {
		def.StartFunction("Start")
	}

	if def.StopMethod() == "" && t.Implements(stopperInterface) {
		def.StopFunction("Stop")
	}

	return nil
}
