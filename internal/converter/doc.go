// Package converter turns a user-authored hosting configuration into the
// wire-format serving configuration, resolving function and Cloud Run
// references against the deploy's backend snapshots. Unresolvable references
// are dropped from the output rather than failing the deploy.
package converter
