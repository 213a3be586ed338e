package deploy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/himanshu810e/firebase-tools/internal/backend"
)

// Context carries per-project deploy state shared by every target.
type Context struct {
	ProjectID string `json:"projectId"`
	// Existing is the previously recorded backend of the whole project.
	// It is only consulted when ExistingLoaded is true.
	Existing       *backend.Backend `json:"existingBackend,omitempty"`
	ExistingLoaded bool             `json:"existingBackendLoaded"`
}

// TargetBackends pairs the backend state a deploy target will produce with
// the state currently live for that target.
type TargetBackends struct {
	Want *backend.Backend `json:"wantBackend,omitempty"`
	Have *backend.Backend `json:"haveBackend,omitempty"`
}

// Lookup maps deploy-target names to their backend snapshots. Callers
// assemble it once per deploy operation and must not mutate it afterwards.
type Lookup map[string]TargetBackends

type snapshotFile struct {
	ProjectID string                    `json:"projectId"`
	Existing  *backend.Backend          `json:"existingBackend,omitempty"`
	Targets   map[string]TargetBackends `json:"targets"`
}

// LoadSnapshot reads a deploy snapshot descriptor produced by the functions
// deploy pipeline. The existing backend is optional; when absent the context
// reports it as not loaded.
func LoadSnapshot(path string) (Context, Lookup, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Context{}, nil, fmt.Errorf("reading deploy snapshot: %w", err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Context{}, nil, fmt.Errorf("parsing deploy snapshot: %w", err)
	}

	dctx := Context{
		ProjectID:      snap.ProjectID,
		Existing:       snap.Existing,
		ExistingLoaded: snap.Existing != nil,
	}

	lookup := Lookup{}
	for target, backends := range snap.Targets {
		lookup[target] = backends
	}

	return dctx, lookup, nil
}
