package render

import "context"

// Render job states as written by the rendering pipeline. Any value outside
// this set is treated as still in progress.
const (
	StatusRendering = "rendering"
	StatusDone      = "done"
	StatusError     = "error"
)

// State mirrors the record the rendering pipeline maintains per job. This
// service only ever reads it; creation, mutation and expiry are owned by the
// pipeline.
type State struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	OutputURL  string  `json:"outputUrl"`
	StorageURL string  `json:"storageUrl"`
	OutputSize int64   `json:"outputSize"`
	Error      string  `json:"error"`
}

// Store looks up render state by job id. The boolean reports whether the job
// exists; errors are reserved for store-level failures.
type Store interface {
	Get(ctx context.Context, id string) (State, bool, error)
}

// ResolveOutput picks the URL reported for a finished job. The pipeline first
// publishes an ephemeral output URL and later replaces it with a durable
// object-store URL; the durable one wins whenever present. The boolean is true
// only for the object-store URL, so clients know whether the link outlives the
// job record.
func ResolveOutput(state State) (string, bool) {
	if state.StorageURL != "" {
		return state.StorageURL, true
	}
	return state.OutputURL, false
}
