// Package sync implements the reconciliation engine that keeps the target
// directory service's groups and memberships converged with the source
// directory. It correlates the two snapshots, computes the minimal set of
// create/update/delete and add-member/remove-member operations, and applies
// them fail-soft with per-entity error accounting and a dry-run mode whose
// statistics are numerically identical to a live run.
//
// The engine is single-threaded and stateless across passes: snapshots are
// taken once per pass and treated as immutable, and the only mutable state
// is the Stats accumulator owned by the Syncer for the duration of one call.
package sync
