// Package store defines persistence-facing contracts for materialized
// object snapshots, plus a Recorder hook that persists every value a
// resolver materializes.
//
// Responsibilities:
//   - Store loads/saves a single snapshot for a single Ref and lists
//     the refs recorded for a scope.
//   - Recorder bridges resolver lifecycle events into Store saves; the
//     engine itself stays persistence-agnostic.
//   - Meta carries storage-owned provenance (snapshot id, etag,
//     timestamps) used for audits and optimistic concurrency.
//
// Deterministic keys:
//
//	Ref.Identifier() is "scope/name". Both parts are required.
package store
