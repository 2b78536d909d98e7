package tinyioc

import "fmt"

type wiringKind int

const (
	valueWiring wiringKind = iota
	refWiring
	typeWiring
	groupWiring
	configWiring
	definitionGroupWiring
)

// Wiring tells how a constructor argument or a property gets its value.
// The zero Wiring is Value(nil).
type Wiring struct {
	value      any
	key        string
	kind       wiringKind
	hasDefault bool
}

// Value wires literal v.
func Value(v any) Wiring {
	return Wiring{kind: valueWiring, value: v}
}

// Ref wires instance of definition `name`.
func Ref(name string) Wiring {
	return Wiring{kind: refWiring, key: name}
}

// Type wires instance of the only autowire candidate producing `typeName`.
// Use TypeNameOf to get typeName of a Go type.
func Type(typeName string) Wiring {
	return Wiring{kind: typeWiring, key: typeName}
}

// Group wires instances of every member of `group`, in group order.
func Group(group string) Wiring {
	return Wiring{kind: groupWiring, key: group}
}

// Config wires value of config `key`.
// Without defaultValue a missing key fails resolution with ErrConfigKeyNotFound.
func Config(key string, defaultValue ...any) Wiring {
	w := Wiring{kind: configWiring, key: key}
	if len(defaultValue) > 0 {
		w.value = defaultValue[0]
		w.hasDefault = true
	}

	return w
}

// DefinitionGroup wires definitions (not instances) of every member of `group`.
// Only valid for properties.
func DefinitionGroup(group string) Wiring {
	return Wiring{kind: definitionGroupWiring, key: group}
}

func (w Wiring) String() string {
	switch w.kind {
	case refWiring:
		return fmt.Sprintf("Ref(%s)", w.key)
	case typeWiring:
		return fmt.Sprintf("Type(%s)", w.key)
	case groupWiring:
		return fmt.Sprintf("Group(%s)", w.key)
	case configWiring:
		return fmt.Sprintf("Config(%s)", w.key)
	case definitionGroupWiring:
		return fmt.Sprintf("DefinitionGroup(%s)", w.key)
	default:
		return fmt.Sprintf("Value(%v)", w.value)
	}
}

// refers to another definition and can take part in a cycle
func (w Wiring) isReference() bool {
	return w.kind == refWiring || w.kind == typeWiring
}
