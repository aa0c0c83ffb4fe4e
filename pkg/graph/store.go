package graph

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownStatement = errors.New("unknown statement")
	ErrClosed           = errors.New("store is closed")
)

// Statement is a named declarative query. Text is the store-native form;
// stores that interpret statements natively dispatch on Name.
type Statement struct {
	Name string
	Text string
}

// Params are the values bound to a statement.
type Params map[string]any

// With returns a copy of p with the given key set.
func (p Params) With(key string, value any) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[key] = value
	return out
}

// Step is a statement inside a transaction. When Bind is set the rows it
// produces are visible to later steps as the parameter Bind.
type Step struct {
	Statement
	Bind string
}

// Store executes statements against the graph.
type Store interface {
	Execute(ctx context.Context, stmt Statement, params Params) ([]Row, error)
	Close(ctx context.Context) error
}

// Transactor is implemented by stores that can apply several steps
// atomically. The result holds one row set per step.
type Transactor interface {
	Transaction(ctx context.Context, steps []Step, params Params) ([][]Row, error)
}

// StoreError is returned by stores when a statement fails.
type StoreError struct {
	Statement string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("graph store: %s: %v", e.Statement, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// PartialError reports a step sequence that failed after some steps had
// already been applied outside of a transaction.
type PartialError struct {
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("step %s failed after %v were applied: %v", e.Failed, e.Applied, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// RunSteps executes steps atomically when s is a Transactor, otherwise
// one at a time, binding results into the parameters of later steps.
func RunSteps(ctx context.Context, s Store, steps []Step, params Params) ([][]Row, error) {
	if tx, ok := s.(Transactor); ok {
		return tx.Transaction(ctx, steps, params)
	}

	results := make([][]Row, 0, len(steps))
	applied := make([]string, 0, len(steps))
	for _, step := range steps {
		rows, err := s.Execute(ctx, step.Statement, params)
		if err != nil {
			if len(applied) == 0 {
				return nil, err
			}
			return nil, &PartialError{Applied: applied, Failed: step.Name, Err: err}
		}
		results = append(results, rows)
		applied = append(applied, step.Name)
		if step.Bind != "" {
			params = params.With(step.Bind, rows)
		}
	}
	return results, nil
}
