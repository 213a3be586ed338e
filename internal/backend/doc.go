// Package backend models snapshots of deployed compute endpoints. A deploy
// operation works with up to three snapshots per function: the state the
// deploy will produce, the state currently live for the deploy target, and
// the previously recorded state of the whole project.
package backend
