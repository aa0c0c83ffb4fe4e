// Package surrealstore runs the dirql statement catalogue on SurrealDB.
//
// Every Execute runs inside BEGIN/COMMIT so a statement whose text holds
// several queries either applies fully or not at all. Transaction renders
// the steps as blocks bound to variables and returns all their values
// from a single RETURN.
package surrealstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/surrealdb/surrealdir/pkg/directory/dirql"
	"github.com/surrealdb/surrealdir/pkg/graph"
	"github.com/surrealdb/surrealdir/pkg/logger"
)

// ErrQuery is wrapped by errors reported by SurrealDB for a statement.
var ErrQuery = errors.New("surrealdb query failed")

type Config struct {
	// Endpoint is a ws(s):// or http(s):// URL.
	Endpoint  string
	Namespace string
	Database  string
	Username  string
	Password  string
	Logger    logger.Logger
}

type Store struct {
	db  *surrealdb.DB
	log logger.Logger
}

// Open connects, signs in when credentials are set and selects the
// namespace and database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	var db *surrealdb.DB
	switch u.Scheme {
	case "ws", "wss":
		conf := connection.NewConfig(u)
		codec := surrealcbor.New()
		conf.Marshaler = codec
		conf.Unmarshaler = codec
		db, err = surrealdb.FromConnection(ctx, gorillaws.New(conf))
	case "http", "https":
		db, err = surrealdb.FromEndpointURLString(ctx, cfg.Endpoint)
	default:
		return nil, fmt.Errorf("invalid connection URL scheme: %s", u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, &surrealdb.Auth{Username: cfg.Username, Password: cfg.Password}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to sign in: %w", err)
		}
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}
	return New(db, cfg.Logger), nil
}

// New wraps an established connection.
func New(db *surrealdb.DB, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, log: log}
}

// DB exposes the underlying connection.
func (s *Store) DB() *surrealdb.DB { return s.db }

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

// Migrate defines the tables, indexes and functions of the directory.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Execute(ctx, dirql.Schema, nil)
	return err
}

func (s *Store) Execute(ctx context.Context, stmt graph.Statement, params graph.Params) ([]graph.Row, error) {
	text := "BEGIN TRANSACTION;\n" + strings.TrimSpace(stmt.Text) + "\nCOMMIT TRANSACTION;"
	value, err := s.query(ctx, stmt.Name, text, params)
	if err != nil {
		return nil, err
	}
	return rows(value), nil
}

func (s *Store) Transaction(ctx context.Context, steps []graph.Step, params graph.Params) ([][]graph.Row, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	value, err := s.query(ctx, "transaction", RenderTransaction(steps), params)
	if err != nil {
		return nil, err
	}
	values, ok := value.([]any)
	if !ok || len(values) != len(steps) {
		return nil, &graph.StoreError{Statement: "transaction", Err: fmt.Errorf("%w: expected %d step results, got %T", ErrQuery, len(steps), value)}
	}
	out := make([][]graph.Row, len(steps))
	for i, v := range values {
		out[i] = rows(v)
	}
	return out, nil
}

// RenderTransaction binds each step's value to $s<i> and, when the step
// has a Bind name, to that name as well.
func RenderTransaction(steps []graph.Step) string {
	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION;\n")
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = fmt.Sprintf("$s%d", i)
		fmt.Fprintf(&b, "LET %s = {\n%s\n};\n", names[i], strings.TrimSpace(step.Text))
		if step.Bind != "" {
			fmt.Fprintf(&b, "LET $%s = %s;\n", step.Bind, names[i])
		}
	}
	fmt.Fprintf(&b, "RETURN [%s];\nCOMMIT TRANSACTION;", strings.Join(names, ", "))
	return b.String()
}

// query runs text and returns the value of its last statement.
func (s *Store) query(ctx context.Context, name, text string, params graph.Params) (any, error) {
	results, err := surrealdb.Query[any](ctx, s.db, text, encodeParams(params))
	if err != nil {
		return nil, &graph.StoreError{Statement: name, Err: fmt.Errorf("%w: %w", ErrQuery, err)}
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	for _, r := range *results {
		if r.Status != "OK" {
			return nil, &graph.StoreError{Statement: name, Err: fmt.Errorf("%w: status %s: %v", ErrQuery, r.Status, r.Result)}
		}
	}
	last := (*results)[len(*results)-1]
	s.log.Debug("surrealdb query", "statement", name, "results", len(*results), "time", last.Time)
	return normalise(last.Result), nil
}
