package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Operation names accepted by MemoryClient.SetError.
const (
	OpList      = "list"
	OpGet       = "get"
	OpAdd       = "add"
	OpUpdate    = "update"
	OpIncrement = "increment"
	OpDelete    = "delete"
)

// MemoryClient is an in-memory implementation of the Client interface used
// for unit testing engine logic without a running document store. Records
// are deep-copied on the way in and out, and List preserves insertion order.
type MemoryClient struct {
	mu          sync.Mutex
	collections map[string]map[string]RawRecord
	order       map[string][]string
	errs        map[string]error
	ping        error
}

// NewMemoryClient instantiates an empty in-memory store.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		collections: make(map[string]map[string]RawRecord),
		order:       make(map[string][]string),
		errs:        make(map[string]error),
	}
}

// Seed inserts a record under an explicit id, bypassing error injection.
func (m *MemoryClient) Seed(collection, id string, record RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(collection, id, record)
}

// SetError configures the error returned by the named operation; passing nil
// clears it.
func (m *MemoryClient) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// SetPingError forces Ping to return the supplied error.
func (m *MemoryClient) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ping = err
}

// Count returns the number of records in a collection.
func (m *MemoryClient) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

func (m *MemoryClient) List(_ context.Context, collection string) ([]RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpList]; err != nil {
		return nil, err
	}
	records := m.collections[collection]
	out := make([]RawRecord, 0, len(records))
	for _, id := range m.order[collection] {
		rec, ok := records[id]
		if !ok {
			continue
		}
		out = append(out, m.withID(id, rec))
	}
	return out, nil
}

func (m *MemoryClient) Get(_ context.Context, collection, id string) (RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpGet]; err != nil {
		return nil, err
	}
	rec, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.withID(id, rec), nil
}

func (m *MemoryClient) Add(_ context.Context, collection string, fields RawRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpAdd]; err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.insertLocked(collection, id, fields)
	return id, nil
}

func (m *MemoryClient) Update(_ context.Context, collection, id string, fields RawRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpUpdate]; err != nil {
		return err
	}
	rec, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields.Clone() {
		rec[k] = v
	}
	return nil
}

func (m *MemoryClient) Increment(_ context.Context, collection, id string, deltas map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpIncrement]; err != nil {
		return err
	}
	rec, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for field, delta := range deltas {
		current := 0.0
		switch v := rec[field].(type) {
		case float64:
			current = v
		case int:
			current = float64(v)
		case int64:
			current = float64(v)
		}
		rec[field] = current + delta
	}
	return nil
}

func (m *MemoryClient) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpDelete]; err != nil {
		return err
	}
	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	return nil
}

func (m *MemoryClient) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ping
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

func (m *MemoryClient) insertLocked(collection, id string, record RawRecord) {
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]RawRecord)
	}
	if _, exists := m.collections[collection][id]; !exists {
		m.order[collection] = append(m.order[collection], id)
	}
	m.collections[collection][id] = record.Clone()
}

func (m *MemoryClient) withID(id string, rec RawRecord) RawRecord {
	out := rec.Clone()
	if out == nil {
		out = RawRecord{}
	}
	out[IDField] = id
	return out
}
