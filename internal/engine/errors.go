package engine

import "fmt"

// PersistenceError reports a failed durable write. The in-memory mutation it
// followed is kept; losing durability is preferred over losing the user's
// just-entered data from the visible state.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
