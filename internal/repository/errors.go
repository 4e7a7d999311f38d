package repository

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindLoadFailed   Kind = "LOAD_FAILED"
	KindUpdateFailed Kind = "UPDATE_FAILED"
	KindDeleteFailed Kind = "DELETE_FAILED"
	KindClearFailed  Kind = "CLEAR_FAILED"
)

// PersistenceError is returned by every ItemRepository method. Match on the
// kind with errors.Is(err, ErrUpdateFailed) and friends.
type PersistenceError struct {
	Kind Kind
	Op   string
	Err  error
}

var (
	ErrLoadFailed   = &PersistenceError{Kind: KindLoadFailed}
	ErrUpdateFailed = &PersistenceError{Kind: KindUpdateFailed}
	ErrDeleteFailed = &PersistenceError{Kind: KindDeleteFailed}
	ErrClearFailed  = &PersistenceError{Kind: KindClearFailed}
)

func newPersistenceError(kind Kind, op string, err error) *PersistenceError {
	return &PersistenceError{
		Kind: kind,
		Op:   op,
		Err:  errors.WithStack(err),
	}
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Message()
	}
	return fmt.Sprintf("%s (%s): %v", e.Message(), e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	t, ok := target.(*PersistenceError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Err == nil || t.Err == e.Err)
}

// Message is the user-facing description of the failure.
func (e *PersistenceError) Message() string {
	switch e.Kind {
	case KindLoadFailed:
		return "Failed to load images"
	case KindUpdateFailed:
		return "Failed to save images"
	case KindDeleteFailed:
		return "Failed to delete image"
	case KindClearFailed:
		return "Failed to clear all images"
	default:
		return "An unexpected error occurred"
	}
}
