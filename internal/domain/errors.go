package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// NotAuthenticatedError is returned when a mutation is attempted with no
// current actor.
type NotAuthenticatedError struct{}

func (e NotAuthenticatedError) Error() string {
	return "not authenticated"
}

func (e NotAuthenticatedError) Is(target error) bool {
	_, ok := target.(NotAuthenticatedError)
	if ok {
		return true
	}
	_, ok = target.(*NotAuthenticatedError)
	return ok
}

// ErrNotAuthenticated is the sentinel error for missing identity.
var ErrNotAuthenticated = NotAuthenticatedError{}

// NotAuthorizedError is returned when the actor is not the record's owner.
type NotAuthorizedError struct {
	Actor    string
	Resource string
}

func (e NotAuthorizedError) Error() string {
	if e.Resource == "" {
		return "not authorized"
	}
	return fmt.Sprintf("actor %s is not authorized for %s", e.Actor, e.Resource)
}

func (e NotAuthorizedError) Is(target error) bool {
	_, ok := target.(NotAuthorizedError)
	if ok {
		return true
	}
	_, ok = target.(*NotAuthorizedError)
	return ok
}

// ErrNotAuthorized is the sentinel error for ownership violations.
var ErrNotAuthorized = NotAuthorizedError{}

// CycleError is returned when a reparent would make a record its own
// ancestor.
type CycleError struct {
	Record string
	Parent string
}

func (e CycleError) Error() string {
	if e.Record == "" {
		return "lineage cycle"
	}
	return fmt.Sprintf("reparenting %s under %s would create a lineage cycle", e.Record, e.Parent)
}

func (e CycleError) Is(target error) bool {
	_, ok := target.(CycleError)
	if ok {
		return true
	}
	_, ok = target.(*CycleError)
	return ok
}

// ErrCycle is the sentinel error for rejected reparents.
var ErrCycle = CycleError{}

// PersistenceError wraps a failed save of the collection snapshot. The
// in-memory state is retained when it occurs; callers surface it as a
// warning, not a rollback.
type PersistenceError struct {
	Cause error
}

func (e PersistenceError) Error() string {
	if e.Cause == nil {
		return "persistence failure"
	}
	return fmt.Sprintf("persistence failure: %v", e.Cause)
}

func (e PersistenceError) Unwrap() error {
	return e.Cause
}

func (e PersistenceError) Is(target error) bool {
	_, ok := target.(PersistenceError)
	if ok {
		return true
	}
	_, ok = target.(*PersistenceError)
	return ok
}

// ErrPersistence is the sentinel error for failed snapshot saves.
var ErrPersistence = PersistenceError{}
