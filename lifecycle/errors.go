package lifecycle

import "fmt"

func newStateError(name string, expected, actual State) error {
	return &StateError{Name: name, Expected: expected, Actual: actual}
}

// StateError is returned when an operation is attempted from a state
// that does not allow it.
type StateError struct {
	Name     string
	Expected State
	Actual   State
}

func (err *StateError) Error() string {
	return fmt.Sprintf(
		"operation requires state to be %s but %s is %s",
		err.Expected,
		err.Name,
		err.Actual,
	)
}
