package resolver

import (
	"sort"

	"github.com/himanshu810e/firebase-tools/internal/backend"
	"github.com/himanshu810e/firebase-tools/internal/deploy"
)

// DefaultRegion is the canonical region used when a rule does not request
// one explicitly. Deploy behavior depends on this tie-break, keep it stable.
const DefaultRegion = "us-central1"

// Source identifies which backend snapshot an endpoint was resolved from.
type Source int

const (
	SourceNone Source = iota
	SourceWant
	SourceHave
	SourceExisting
)

func (s Source) String() string {
	switch s {
	case SourceWant:
		return "want"
	case SourceHave:
		return "have"
	case SourceExisting:
		return "existing"
	default:
		return "none"
	}
}

// Resolver locates compute endpoints for rewrite references. Snapshots are
// searched in decreasing priority: the state this deploy will produce, the
// state currently live for the deploy targets, then the previously recorded
// project backend.
type Resolver struct {
	targets  []string
	lookup   deploy.Lookup
	existing *backend.Backend
}

// New creates a resolver over the given deploy state. The context's existing
// backend is only consulted when it was actually loaded.
func New(dctx deploy.Context, lookup deploy.Lookup) *Resolver {
	// Deterministic target iteration regardless of map order.
	targets := make([]string, 0, len(lookup))
	for target := range lookup {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	r := &Resolver{
		targets: targets,
		lookup:  lookup,
	}
	if dctx.ExistingLoaded {
		r.existing = dctx.Existing
	}

	return r
}

// FunctionEndpoint resolves a function reference to a concrete endpoint.
// When region is empty and several endpoints share the id, the one in
// DefaultRegion wins, else the first in snapshot order. The returned Source
// is SourceNone when no snapshot holds a matching endpoint.
func (r *Resolver) FunctionEndpoint(id, region string) (backend.Endpoint, Source) {
	if ep, ok := pickEndpoint(r.wantNamed(id), region); ok {
		return ep, SourceWant
	}
	if ep, ok := pickEndpoint(r.haveNamed(id), region); ok {
		return ep, SourceHave
	}
	if ep, ok := pickEndpoint(r.existing.Named(id), region); ok {
		return ep, SourceExisting
	}

	return backend.Endpoint{}, SourceNone
}

// RunServicePending reports whether a v2 endpoint backing the given Cloud
// Run service is part of the state this deploy will produce.
func (r *Resolver) RunServicePending(serviceID, region string) bool {
	for _, ep := range r.wantNamed(serviceID) {
		if ep.Platform == backend.PlatformGCFv2 && ep.Region == region {
			return true
		}
	}

	return false
}

func (r *Resolver) wantNamed(id string) []backend.Endpoint {
	var candidates []backend.Endpoint
	for _, target := range r.targets {
		if want := r.lookup[target].Want; !want.Empty() {
			candidates = append(candidates, want.Named(id)...)
		}
	}
	return candidates
}

func (r *Resolver) haveNamed(id string) []backend.Endpoint {
	var candidates []backend.Endpoint
	for _, target := range r.targets {
		if have := r.lookup[target].Have; !have.Empty() {
			candidates = append(candidates, have.Named(id)...)
		}
	}
	return candidates
}

// pickEndpoint applies the region tie-break: an explicitly requested region
// must match exactly; otherwise DefaultRegion is preferred, falling back to
// the first candidate.
func pickEndpoint(candidates []backend.Endpoint, region string) (backend.Endpoint, bool) {
	if len(candidates) == 0 {
		return backend.Endpoint{}, false
	}

	if region != "" {
		for _, ep := range candidates {
			if ep.Region == region {
				return ep, true
			}
		}
		return backend.Endpoint{}, false
	}

	for _, ep := range candidates {
		if ep.Region == DefaultRegion {
			return ep, true
		}
	}

	return candidates[0], true
}
