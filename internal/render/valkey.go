package render

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// stateKey is the keyspace convention shared with the rendering pipeline.
func stateKey(id string) string {
	return "render:" + id
}

// ValkeyStore reads render state from the Valkey instance the rendering
// pipeline publishes into. Entries carry a TTL set by the pipeline, so an
// expired job simply reads as absent.
type ValkeyStore struct {
	client valkey.Client
}

// NewValkeyStore connects to the render-state Valkey instance.
func NewValkeyStore(addr string) (*ValkeyStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("connect render state store: %w", err)
	}
	return &ValkeyStore{client: client}, nil
}

// Get fetches and decodes the state record for a job id.
func (s *ValkeyStore) Get(ctx context.Context, id string) (State, bool, error) {
	raw, err := s.client.Do(ctx, s.client.B().Get().Key(stateKey(id)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("read render state %s: %w", id, err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, false, fmt.Errorf("decode render state %s: %w", id, err)
	}

	return state, true, nil
}

// Close releases the underlying connection.
func (s *ValkeyStore) Close() {
	s.client.Close()
}

var _ Store = (*ValkeyStore)(nil)
