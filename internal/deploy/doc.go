// Package deploy defines the value objects describing a single deploy
// operation: the project context and the per-target want/have backend
// snapshots that hosting rewrites are resolved against.
package deploy
