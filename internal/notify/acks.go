package notify

import (
	"context"
	"sort"
	"sync"
)

// AckStore persists the set of acknowledged notification ids.
type AckStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
}

// AckState holds which notifications the operator has dismissed. It is loaded
// once at start and flushed to its store on every change.
type AckState struct {
	mu    sync.Mutex
	store AckStore
	ids   map[string]bool
}

func LoadAckState(ctx context.Context, store AckStore) (*AckState, error) {
	a := &AckState{store: store, ids: map[string]bool{}}
	if store == nil {
		return a, nil
	}
	ids, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		a.ids[id] = true
	}
	return a, nil
}

func (a *AckState) Acked(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ids[id]
}

// Ack marks id acknowledged and flushes. Acking twice is a no-op.
func (a *AckState) Ack(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ids[id] {
		return nil
	}
	a.ids[id] = true
	if a.store == nil {
		return nil
	}
	if err := a.store.Save(ctx, a.sortedLocked()); err != nil {
		delete(a.ids, id)
		return err
	}
	return nil
}

func (a *AckState) IDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sortedLocked()
}

func (a *AckState) sortedLocked() []string {
	out := make([]string, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MemoryAckStore keeps acknowledgements for the life of the process.
type MemoryAckStore struct {
	mu  sync.Mutex
	ids []string
}

func (m *MemoryAckStore) Load(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ids...), nil
}

func (m *MemoryAckStore) Save(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append([]string(nil), ids...)
	return nil
}
