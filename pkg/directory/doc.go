// Package directory is the organisational directory engine: a tree of
// areas, the collections of contacts they own and the succession chains
// linking those collections.
//
// A Directory wraps a graph.Store and resolves ids to handles:
//
//	dir := directory.New(store, directory.WithLogger(log))
//	root, err := dir.Root(ctx)
//	housing, err := root.Descend(ctx, "Student Support", "Housing")
//	paths, err := root.Search(ctx, "hous")
//
// Every operation issues statements from the dirql catalogue. Split,
// merge and reparent run as one store transaction when the store
// implements graph.Transactor; otherwise a failure after the first step
// is reported as ErrPartialFailure.
//
// Errors are *Error values whose kind is matched with errors.Is against
// ErrNotFound, ErrValidation, ErrInvalidOperation, ErrStoreFailure and
// ErrPartialFailure.
package directory
