// Package testenv provides helpers shared by the package tests: a seeded
// in-memory directory, a SurrealDB store for integration tests and a
// deterministic log handler.
package testenv

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/surrealdb/surrealdir/pkg/graph"
	"github.com/surrealdb/surrealdir/pkg/logger"
	"github.com/surrealdb/surrealdir/pkg/store/surrealstore"
)

const (
	// EnvURL names the SurrealDB endpoint for integration tests. Tests
	// that need SurrealDB are skipped when it is unset.
	EnvURL = "SURREALDB_URL"

	EnvUser     = "SURREALDB_USER"
	EnvPassword = "SURREALDB_PASS"
)

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// SurrealStore connects to the SurrealDB named by SURREALDB_URL, selects a
// database unique to the test, defines the schema and removes the
// database when the test ends.
func SurrealStore(t testing.TB) *surrealstore.Store {
	t.Helper()
	endpoint := os.Getenv(EnvURL)
	if endpoint == "" {
		t.Skipf("%s not set", EnvURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database := fmt.Sprintf("%s_%d", sanitise(t.Name()), time.Now().UnixNano())
	s, err := surrealstore.Open(ctx, surrealstore.Config{
		Endpoint:  endpoint,
		Namespace: "surrealdir_test",
		Database:  database,
		Username:  getEnvOrDefault(EnvUser, "root"),
		Password:  getEnvOrDefault(EnvPassword, "root"),
		Logger:    logger.Nop(),
	})
	if err != nil {
		t.Fatalf("failed to connect to SurrealDB: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to define schema: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.Execute(ctx, removeDatabase(database), nil); err != nil {
			t.Logf("failed to remove database %s: %v", database, err)
		}
		_ = s.Close(ctx)
	})
	return s
}

func sanitise(name string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
}

func removeDatabase(name string) graph.Statement {
	return graph.Statement{Name: "remove_database", Text: fmt.Sprintf("REMOVE DATABASE IF EXISTS `%s`;", name)}
}
