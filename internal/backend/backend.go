package backend

// Platform identifies the compute generation an endpoint runs on.
type Platform string

const (
	// PlatformGCFv1 is the first-generation functions runtime. Rewrites to
	// these endpoints are served as direct function references.
	PlatformGCFv1 Platform = "gcfv1"
	// PlatformGCFv2 is the container-based second generation. Rewrites to
	// these endpoints are served as Cloud Run service references.
	PlatformGCFv2 Platform = "gcfv2"
)

// TriggerKind identifies how an endpoint is invoked.
type TriggerKind string

const (
	TriggerHTTPS     TriggerKind = "https"
	TriggerCallable  TriggerKind = "callable"
	TriggerEvent     TriggerKind = "event"
	TriggerScheduled TriggerKind = "scheduled"
	TriggerTaskQueue TriggerKind = "taskQueue"
	TriggerBlocking  TriggerKind = "blocking"
)

// Endpoint is a single deployed (or to-be-deployed) compute endpoint.
type Endpoint struct {
	ID       string      `json:"id"`
	Region   string      `json:"region"`
	Platform Platform    `json:"platform"`
	Trigger  TriggerKind `json:"trigger"`
}

// Backend is a snapshot of a set of compute endpoints. Snapshots are
// assembled once per deploy operation and treated as immutable afterwards.
type Backend struct {
	Endpoints []Endpoint `json:"endpoints"`
}

// New creates a backend snapshot from the given endpoints.
func New(endpoints ...Endpoint) *Backend {
	return &Backend{Endpoints: endpoints}
}

// Named returns every endpoint with the given id, preserving snapshot order.
// A nil backend has no endpoints.
func (b *Backend) Named(id string) []Endpoint {
	if b == nil {
		return nil
	}

	var matches []Endpoint
	for _, e := range b.Endpoints {
		if e.ID == id {
			matches = append(matches, e)
		}
	}

	return matches
}

// Empty reports whether the snapshot holds no endpoints.
func (b *Backend) Empty() bool {
	return b == nil || len(b.Endpoints) == 0
}
