package state

import "context"

type readOnly[T any] struct {
	Store[T]
}

// ReadOnly wraps store so Save always fails with ErrReadOnly. Legacy sources
// are read through it during migration.
func ReadOnly[T any](store Store[T]) Store[T] {
	if store == nil {
		return nil
	}
	return readOnly[T]{Store: store}
}

func (readOnly[T]) Save(_ context.Context, ref Ref, _ T, _ Meta) (Meta, error) {
	return Meta{}, &WriteError{Op: "save", Path: ref.Path, Err: ErrReadOnly}
}
