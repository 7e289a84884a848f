package store

import (
	"context"
	"errors"
)

// Collection names consumed by the reconciliation engine.
const (
	CollectionUsers         = "user_profiles"
	CollectionInvestments   = "investments"
	CollectionRequests      = "investment_requests"
	CollectionPlotOwnership = "plot_ownership"
	CollectionPlots         = "plots"
)

// IDField is the key under which every record returned by List/Get carries
// its document id.
const IDField = "id"

// RawRecord is a stored document as-is: an unordered mapping with no shape
// guarantees. Readers must treat it as immutable.
type RawRecord map[string]any

// Client is the minimal contract required to interact with the underlying
// document store.
type Client interface {
	List(ctx context.Context, collection string) ([]RawRecord, error)
	Get(ctx context.Context, collection, id string) (RawRecord, error)
	Add(ctx context.Context, collection string, fields RawRecord) (string, error)
	Update(ctx context.Context, collection, id string, fields RawRecord) error
	// Increment applies numeric deltas to the named fields in a single store
	// operation, treating absent fields as zero.
	Increment(ctx context.Context, collection, id string, deltas map[string]float64) error
	Delete(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options configures a store client implementation.
type Options struct {
	URI            string
	Database       string
	MaxConnections int
}

// ErrNotFound indicates the referenced document id is absent.
var ErrNotFound = errors.New("document not found")

// ErrMissingURI indicates the store URI is not provided.
var ErrMissingURI = errors.New("store URI is required")

// Clone returns a deep copy of the record; nested maps and slices are copied.
func (r RawRecord) Clone() RawRecord {
	if r == nil {
		return nil
	}
	return cloneValue(map[string]any(r)).(map[string]any)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		dst := make(map[string]any, len(val))
		for k, item := range val {
			dst[k] = cloneValue(item)
		}
		return dst
	case []any:
		dst := make([]any, len(val))
		for i, item := range val {
			dst[i] = cloneValue(item)
		}
		return dst
	default:
		return v
	}
}
