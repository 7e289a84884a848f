package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryClientAddAndGet(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()

	id, err := client.Add(ctx, CollectionUsers, RawRecord{"email": "a@x.com"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a generated id")
	}

	rec, err := client.Get(ctx, CollectionUsers, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec["email"] != "a@x.com" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec[IDField] != id {
		t.Fatalf("expected id field injected, got %+v", rec)
	}
}

func TestMemoryClientGetNotFound(t *testing.T) {
	client := NewMemoryClient()
	if _, err := client.Get(context.Background(), CollectionUsers, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryClientListPreservesInsertionOrder(t *testing.T) {
	client := NewMemoryClient()
	client.Seed(CollectionUsers, "u1", RawRecord{"n": 1.0})
	client.Seed(CollectionUsers, "u2", RawRecord{"n": 2.0})
	client.Seed(CollectionUsers, "u3", RawRecord{"n": 3.0})

	records, err := client.List(context.Background(), CollectionUsers)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, wantID := range []string{"u1", "u2", "u3"} {
		if records[i][IDField] != wantID {
			t.Fatalf("position %d: expected %s, got %v", i, wantID, records[i][IDField])
		}
	}
}

func TestMemoryClientUpdateMergesFields(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()
	client.Seed(CollectionUsers, "u1", RawRecord{"email": "a@x.com", "phone": "123"})

	if err := client.Update(ctx, CollectionUsers, "u1", RawRecord{"phone": "456"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rec, _ := client.Get(ctx, CollectionUsers, "u1")
	if rec["email"] != "a@x.com" || rec["phone"] != "456" {
		t.Fatalf("expected merged fields, got %+v", rec)
	}

	if err := client.Update(ctx, CollectionUsers, "missing", RawRecord{"x": 1.0}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestMemoryClientIncrement(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()
	client.Seed(CollectionPlots, "p1", RawRecord{"available_sqm": 100.0, "total_owners": int64(2)})

	err := client.Increment(ctx, CollectionPlots, "p1", map[string]float64{
		"available_sqm": -30,
		"total_owners":  1,
		"total_revenue": 500,
	})
	if err != nil {
		t.Fatalf("increment: %v", err)
	}

	rec, _ := client.Get(ctx, CollectionPlots, "p1")
	if rec["available_sqm"] != 70.0 {
		t.Fatalf("expected 70 available, got %v", rec["available_sqm"])
	}
	if rec["total_owners"] != 3.0 {
		t.Fatalf("expected 3 owners, got %v", rec["total_owners"])
	}
	if rec["total_revenue"] != 500.0 {
		t.Fatalf("expected absent field seeded from 0, got %v", rec["total_revenue"])
	}
}

func TestMemoryClientDelete(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()
	client.Seed(CollectionUsers, "u1", RawRecord{"email": "a@x.com"})

	if err := client.Delete(ctx, CollectionUsers, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := client.Delete(ctx, CollectionUsers, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	records, _ := client.List(ctx, CollectionUsers)
	if len(records) != 0 {
		t.Fatalf("expected empty collection, got %d", len(records))
	}
}

func TestMemoryClientErrorInjection(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()
	boom := errors.New("boom")

	client.SetError(OpList, boom)
	if _, err := client.List(ctx, CollectionUsers); !errors.Is(err, boom) {
		t.Fatalf("expected injected list error, got %v", err)
	}

	client.SetError(OpList, nil)
	if _, err := client.List(ctx, CollectionUsers); err != nil {
		t.Fatalf("expected cleared error, got %v", err)
	}

	client.SetPingError(boom)
	if err := client.Ping(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected injected ping error, got %v", err)
	}
}

func TestMemoryClientDeepCopies(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()

	seed := RawRecord{"email": "a@x.com"}
	client.Seed(CollectionUsers, "u1", seed)
	seed["email"] = "mutated@x.com"

	rec, _ := client.Get(ctx, CollectionUsers, "u1")
	if rec["email"] != "a@x.com" {
		t.Fatalf("seed mutation leaked into the store: %+v", rec)
	}

	rec["email"] = "mutated-read@x.com"
	again, _ := client.Get(ctx, CollectionUsers, "u1")
	if again["email"] != "a@x.com" {
		t.Fatalf("read mutation leaked into the store: %+v", again)
	}
}
