package directory

import (
	"errors"
	"strings"

	"github.com/surrealdb/surrealdir/pkg/graph"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrStoreFailure     = errors.New("store failure")
	ErrPartialFailure   = errors.New("partial failure")
)

// Error carries the operation and record an error kind applies to.
type Error struct {
	Kind error
	Op   string
	ID   graph.ID
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(string(e.ID))
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notFound(op string, id graph.ID) error {
	return &Error{Kind: ErrNotFound, Op: op, ID: id}
}

func invalid(op string, id graph.ID, msg string) error {
	return &Error{Kind: ErrInvalidOperation, Op: op, ID: id, Err: errors.New(msg)}
}

func validation(op string, id graph.ID, err error) error {
	return &Error{Kind: ErrValidation, Op: op, ID: id, Err: err}
}

// storeFailure classifies an error returned by the store. A sequential
// multi-step mutation that stopped after committing a step is a partial
// failure.
func storeFailure(op string, id graph.ID, err error) error {
	var partial *graph.PartialError
	if errors.As(err, &partial) {
		return &Error{Kind: ErrPartialFailure, Op: op, ID: id, Err: err}
	}
	return &Error{Kind: ErrStoreFailure, Op: op, ID: id, Err: err}
}
