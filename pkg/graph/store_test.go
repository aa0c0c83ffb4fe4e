package graph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdir/pkg/graph"
)

type handler func(ctx context.Context, params graph.Params) ([]graph.Row, error)

type fakeStore struct {
	handlers map[string]handler
	calls    []string
}

func (f *fakeStore) Execute(ctx context.Context, stmt graph.Statement, params graph.Params) ([]graph.Row, error) {
	f.calls = append(f.calls, stmt.Name)
	h, ok := f.handlers[stmt.Name]
	if !ok {
		return nil, &graph.StoreError{Statement: stmt.Name, Err: graph.ErrUnknownStatement}
	}
	return h(ctx, params)
}

func (f *fakeStore) Close(context.Context) error { return nil }

type fakeTxStore struct {
	fakeStore
	transactions int
}

func (f *fakeTxStore) Transaction(ctx context.Context, steps []graph.Step, params graph.Params) ([][]graph.Row, error) {
	f.transactions++
	return nil, nil
}

func TestRunStepsBindsResults(t *testing.T) {
	store := &fakeStore{handlers: map[string]handler{
		"first": func(_ context.Context, _ graph.Params) ([]graph.Row, error) {
			return []graph.Row{{"n": 1}, {"n": 2}}, nil
		},
		"second": func(_ context.Context, params graph.Params) ([]graph.Row, error) {
			return []graph.Row{{"seen": len(params.Rows("firsts"))}}, nil
		},
	}}

	results, err := graph.RunSteps(context.Background(), store, []graph.Step{
		{Statement: graph.Statement{Name: "first"}, Bind: "firsts"},
		{Statement: graph.Statement{Name: "second"}},
	}, graph.Params{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[1][0].Int("seen"))
}

func TestRunStepsReportsPartialFailure(t *testing.T) {
	boom := errors.New("boom")
	store := &fakeStore{handlers: map[string]handler{
		"first": func(context.Context, graph.Params) ([]graph.Row, error) { return nil, nil },
		"second": func(context.Context, graph.Params) ([]graph.Row, error) {
			return nil, boom
		},
	}}

	_, err := graph.RunSteps(context.Background(), store, []graph.Step{
		{Statement: graph.Statement{Name: "first"}},
		{Statement: graph.Statement{Name: "second"}},
	}, nil)

	var partial *graph.PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"first"}, partial.Applied)
	assert.Equal(t, "second", partial.Failed)
	assert.ErrorIs(t, err, boom)
}

func TestRunStepsFirstFailureIsNotPartial(t *testing.T) {
	store := &fakeStore{handlers: map[string]handler{}}
	_, err := graph.RunSteps(context.Background(), store, []graph.Step{
		{Statement: graph.Statement{Name: "missing"}},
	}, nil)

	var partial *graph.PartialError
	assert.False(t, errors.As(err, &partial))
	assert.ErrorIs(t, err, graph.ErrUnknownStatement)
}

func TestRunStepsPrefersTransactions(t *testing.T) {
	store := &fakeTxStore{}
	_, err := graph.RunSteps(context.Background(), store, []graph.Step{
		{Statement: graph.Statement{Name: "first"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, store.transactions)
	assert.Empty(t, store.calls)
}

func TestInstrumentTimeout(t *testing.T) {
	store := &fakeStore{handlers: map[string]handler{
		"slow": func(ctx context.Context, _ graph.Params) ([]graph.Row, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}}
	wrapped := graph.Instrument(store, graph.Options{Timeout: 10 * time.Millisecond})

	_, err := wrapped.Execute(context.Background(), graph.Statement{Name: "slow"}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInstrumentPreservesTransactor(t *testing.T) {
	_, ok := graph.Instrument(&fakeStore{}, graph.Options{}).(graph.Transactor)
	assert.False(t, ok)

	_, ok = graph.Instrument(&fakeTxStore{}, graph.Options{}).(graph.Transactor)
	assert.True(t, ok)
}
