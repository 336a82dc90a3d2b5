package storygraph

import (
	"errors"
	"fmt"
)

// Rule violations. Helpers return them before touching anything, so the
// input value is always left as it was.
var (
	ErrLastScene         = errors.New("cannot delete the last scene")
	ErrDecisionLimit     = errors.New("a scene can have at most 3 decisions")
	ErrEmptyDecisionText = errors.New("decision text must not be empty")
	ErrIndexOutOfRange   = errors.New("scene index out of range")
	ErrMissingSceneID    = errors.New("scene id must not be empty")
	ErrDuplicateSceneID  = errors.New("scene ids must be unique within a story")
	ErrNotFound          = errors.New("not found")
)

// NotFoundError names the kind and id of a failed lookup. It matches
// ErrNotFound with errors.Is.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
