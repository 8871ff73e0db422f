package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/namansh70747/greenops-planner/internal/apperrors"
)

// PoolStats are connection pool counters of a database-backed store.
type PoolStats struct {
	TotalConns    int32 `json:"totalConns"`
	IdleConns     int32 `json:"idleConns"`
	AcquiredConns int32 `json:"acquiredConns"`
	MaxConns      int32 `json:"maxConns"`
}

// PoolReporter is implemented by stores that hold a connection pool.
type PoolReporter interface {
	PoolStats() PoolStats
}

// EventStore is the append-only deployment event log.
type EventStore interface {
	// Append records one event. It is atomic: on error nothing is stored.
	Append(ctx context.Context, event *DeploymentEvent) error
	// Import bulk-loads events, typically from an exported log.
	Import(ctx context.Context, events []*DeploymentEvent) (int64, error)
	// Get returns one event or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*DeploymentEvent, error)
	// List returns every event ascending by timestamp, then id.
	List(ctx context.Context) ([]*DeploymentEvent, error)
	Health(ctx context.Context) error
	Close()
}

// MemoryStore keeps events in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	events []*DeploymentEvent
	byID   map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]struct{})}
}

func (m *MemoryStore) Append(_ context.Context, event *DeploymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(event); err != nil {
		return err
	}
	m.appendLocked(event)
	return nil
}

func (m *MemoryStore) Import(_ context.Context, events []*DeploymentEvent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validateBatch(events); err != nil {
		return 0, err
	}
	for _, e := range events {
		if err := m.check(e); err != nil {
			return 0, err
		}
	}
	for _, e := range events {
		m.appendLocked(e)
	}
	return int64(len(events)), nil
}

func (m *MemoryStore) check(event *DeploymentEvent) error {
	if event == nil || event.ID == "" {
		return missingID()
	}
	if _, dup := m.byID[event.ID]; dup {
		return duplicateID(event.ID)
	}
	return nil
}

func missingID() error {
	return apperrors.Validation("deployment event requires an id")
}

func duplicateID(id string) error {
	return apperrors.Newf(apperrors.TypeStorage, "duplicate deployment event id %s", id)
}

// validateBatch rejects events without an id and ids repeated within the batch.
// Both stores run it before writing anything.
func validateBatch(events []*DeploymentEvent) error {
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.ID == "" {
			return missingID()
		}
		if _, dup := seen[e.ID]; dup {
			return duplicateID(e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) appendLocked(event *DeploymentEvent) {
	stored := *event
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	event.CreatedAt = stored.CreatedAt
	m.events = append(m.events, &stored)
	m.byID[stored.ID] = struct{}{}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*DeploymentEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.events {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("deployment", id)
}

func (m *MemoryStore) List(_ context.Context) ([]*DeploymentEvent, error) {
	m.mu.RLock()
	out := make([]*DeploymentEvent, len(m.events))
	for i, e := range m.events {
		cp := *e
		out[i] = &cp
	}
	m.mu.RUnlock()

	SortEvents(out)
	return out, nil
}

func (m *MemoryStore) Health(context.Context) error { return nil }

func (m *MemoryStore) Close() {}

// SortEvents orders events ascending by timestamp, ties broken by id.
func SortEvents(events []*DeploymentEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].ID < events[j].ID
	})
}
