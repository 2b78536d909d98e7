package tinyioc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andriiyaremenko/tinyioc/lifecycle"
)

const constructorTemplate = "func([context.Context,] T1, ...) [T|(T, error)]"

var (
	ErrNotADefinition      = errors.New("input is not a valid object definition")
	ErrDuplicateDefinition = errors.New("definition with this name is already registered")
	ErrDefinedInAncestor   = errors.New("definition with this name is already registered in parent context")
	ErrDefinitionOwned     = errors.New("definition is already registered in another context")
	ErrNilInspector        = errors.New("got nil inspector")

	ErrNotAConstructor          = errors.New("only " + constructorTemplate + " can be used as a constructor")
	ErrVariadicConstructor      = errors.New("variadic constructor is not supported")
	ErrDefinitionGroupArgument  = errors.New("definition group can only be used for properties")
	ErrDefinitionNotFound       = errors.New("definition not found")
	ErrTypeNotFound             = errors.New("no autowire candidate found for type")
	ErrAmbiguousType            = errors.New("more than one autowire candidate found for type")
	ErrConfigKeyNotFound        = errors.New("config key not found")
	ErrUnregisteredDefinition   = errors.New("definition is not registered in any context")
	ErrArgumentCount            = errors.New("constructor argument count mismatch")
	ErrNotAssignable            = errors.New("value is not assignable")
	ErrMethodNotFound           = errors.New("method not found")
	ErrMethodSignature          = errors.New("only func(), func() error, func(context.Context) and func(context.Context) error can be used as start/stop method")
	ErrUnexpectedConstructorOut = errors.New("constructor should return T or (T, error)")
)

// LifecycleStateError is returned when an operation is attempted from a state that does not allow it.
type LifecycleStateError = lifecycle.StateError

func newRegistrationError(cause error, name string) error {
	return &RegistrationError{cause: cause, Name: name}
}

type RegistrationError struct {
	cause error
	Name  string
}

func (err *RegistrationError) Error() string {
	return fmt.Sprintf("cannot register %q: %s", err.Name, err.cause)
}

func (err *RegistrationError) Unwrap() error {
	return err.cause
}

func newResolutionError(cause error, name string) error {
	return &ResolutionError{cause: cause, Name: name}
}

type ResolutionError struct {
	cause error
	Name  string
}

func (err *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %s", err.Name, err.cause)
}

func (err *ResolutionError) Unwrap() error {
	return err.cause
}

func newCircularDependencyError(chain []string) error {
	return &CircularDependencyError{Chain: chain}
}

// CircularDependencyError is returned when definitions depend on each other through constructor arguments.
// Chain starts and ends with the same definition name.
type CircularDependencyError struct {
	Chain []string
}

func (err *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(err.Chain, " -> "))
}

func newInstantiationError(cause error, name, phase string) error {
	return &InstantiationError{cause: cause, Name: name, Phase: phase}
}

// InstantiationError wraps an error returned (or a panic raised) by a constructor,
// a property setter or a start/stop method.
type InstantiationError struct {
	cause error
	Name  string
	Phase string
}

func (err *InstantiationError) Error() string {
	return fmt.Sprintf("%s of %q failed: %s", err.Phase, err.Name, err.cause)
}

func (err *InstantiationError) Unwrap() error {
	return err.cause
}

func newBadConstructorError(cause error, constructor any) error {
	return &BadConstructorError{cause: cause, Constructor: fmt.Sprintf("%T", constructor)}
}

type BadConstructorError struct {
	cause       error
	Constructor string
}

func (err *BadConstructorError) Error() string {
	return fmt.Sprintf("bad constructor %s: %s", err.Constructor, err.cause)
}

func (err *BadConstructorError) Unwrap() error {
	return err.cause
}
