package graph

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/surrealdb/surrealdir/pkg/logger"
)

const transactionLabel = "transaction"

var (
	statementTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surrealdir_statement_total",
		Help: "Graph statements executed by statement name and outcome",
	}, []string{"statement", "outcome"})

	statementDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "surrealdir_statement_duration_seconds",
		Help:    "Graph statement round trip duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"statement"})
)

// Options configure Instrument.
type Options struct {
	// Timeout bounds every round trip. Zero disables it.
	Timeout time.Duration
	// Logger receives a debug line per round trip and an error line per
	// failure. Nil disables logging.
	Logger logger.Logger
}

type instrumented struct {
	next Store
	opts Options
}

type instrumentedTx struct {
	*instrumented
	tx Transactor
}

// Instrument wraps s. The result implements Transactor iff s does.
func Instrument(s Store, opts Options) Store {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	in := &instrumented{next: s, opts: opts}
	if tx, ok := s.(Transactor); ok {
		return &instrumentedTx{instrumented: in, tx: tx}
	}
	return in
}

func (s *instrumented) Execute(ctx context.Context, stmt Statement, params Params) ([]Row, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	rows, err := s.next.Execute(ctx, stmt, params)
	s.observe(stmt.Name, start, len(rows), err)
	return rows, err
}

func (s *instrumented) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}

func (s *instrumentedTx) Transaction(ctx context.Context, steps []Step, params Params) ([][]Row, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	results, err := s.tx.Transaction(ctx, steps, params)
	s.observe(transactionLabel, start, len(results), err)
	if err == nil {
		for _, step := range steps {
			statementTotal.WithLabelValues(step.Name, "ok").Inc()
		}
	}
	return results, err
}

func (s *instrumented) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

func (s *instrumented) observe(name string, start time.Time, n int, err error) {
	elapsed := time.Since(start)
	statementDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	outcome := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
	case err != nil:
		outcome = "error"
	}
	statementTotal.WithLabelValues(name, outcome).Inc()

	if err != nil {
		s.opts.Logger.Error("graph statement failed", "statement", name, "elapsed", elapsed, "error", err)
		return
	}
	s.opts.Logger.Debug("graph statement", "statement", name, "rows", n, "elapsed", elapsed)
}
