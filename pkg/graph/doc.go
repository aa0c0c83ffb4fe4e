// Package graph defines the contract between the directory engines and the
// graph store that persists them.
//
// # Statements
//
// Engines never build ad-hoc queries against a concrete database. Every
// round trip is a named [Statement] from the directory/dirql catalogue plus
// bound [Params]. A store answers with [Row] values keyed by the variable
// names the statement declares. Node values are returned as [Node], record
// references as [ID].
//
// # Transactions
//
// Stores that implement [Transactor] execute a list of [Step] values as one
// atomic unit. A step with a Bind name makes its rows available to later
// steps as a parameter of that name. [RunSteps] falls back to sequential
// execution for stores without transactions and reports a [PartialError]
// when a later step fails after an earlier one was applied.
//
// # Instrumentation
//
// [Instrument] wraps any store with per-round-trip timeouts, debug logging
// and Prometheus metrics.
package graph
