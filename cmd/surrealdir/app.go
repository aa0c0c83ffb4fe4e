package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/surrealdb/surrealdir/pkg/config"
	"github.com/surrealdb/surrealdir/pkg/directory"
	"github.com/surrealdb/surrealdir/pkg/graph"
	"github.com/surrealdb/surrealdir/pkg/logger"
	"github.com/surrealdb/surrealdir/pkg/store/memstore"
	"github.com/surrealdb/surrealdir/pkg/store/surrealstore"
)

// app holds what the commands share once the root command has run its
// setup.
type app struct {
	configPath string
	backend    string
	endpoint   string
	logLevel   string

	cfg  config.Config
	log  logger.Logger
	logs *logger.LogData
	mem  *memstore.Store
	dir  *directory.Directory
}

func (a *app) setup(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	if a.endpoint != "" {
		cfg.SurrealDB.Endpoint = a.endpoint
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	build := logger.NewBuilder().Level(cfg.Log.Level).FromBuffer(stderr)
	if cfg.Log.Path != "" {
		build = build.FromPath(cfg.Log.Path)
	}
	if a.logs, err = build.Make(); err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	a.log = a.logs.Sugar()

	store, err := a.open(ctx)
	if err != nil {
		return err
	}
	a.dir = directory.New(
		graph.Instrument(store, graph.Options{Timeout: cfg.Timeout, Logger: a.log}),
		directory.WithLogger(a.log),
		directory.WithBatchConcurrency(cfg.BatchConcurrency),
	)
	return nil
}

func (a *app) open(ctx context.Context) (graph.Store, error) {
	switch a.cfg.Backend {
	case config.BackendSurreal:
		db := a.cfg.SurrealDB
		return surrealstore.Open(ctx, surrealstore.Config{
			Endpoint:  db.Endpoint,
			Namespace: db.Namespace,
			Database:  db.Database,
			Username:  db.Username,
			Password:  db.Password,
			Logger:    a.log,
		})
	default:
		a.mem = memstore.New(memstore.WithLogger(a.log))
		mem := a.cfg.Memory
		if mem.Snapshot != "" {
			err := a.mem.LoadFile(mem.Snapshot)
			if err == nil {
				a.log.Debug("snapshot loaded", "path", mem.Snapshot)
				return a.mem, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
		if mem.Fixture != "" {
			if err := a.mem.SeedFile(mem.Fixture); err != nil {
				return nil, err
			}
			a.log.Debug("fixture seeded", "path", mem.Fixture)
		}
		return a.mem, nil
	}
}

// close persists the in-memory snapshot and releases the store and log.
func (a *app) close() {
	if a.dir != nil {
		if a.mem != nil && a.cfg.Memory.Snapshot != "" {
			if err := a.mem.SaveFile(a.cfg.Memory.Snapshot); err != nil {
				a.log.Error("failed to save snapshot", "path", a.cfg.Memory.Snapshot, "error", err)
			}
		}
		if err := a.dir.Close(context.Background()); err != nil {
			a.log.Warn("failed to close store", "error", err)
		}
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	a.dir, a.mem, a.logs = nil, nil, nil
}

// area resolves id, defaulting to the root.
func (a *app) area(ctx context.Context, id string) (*directory.AreaHandle, error) {
	if id == "" {
		id = directory.RootID
	}
	return a.dir.Area(ctx, id)
}
