package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

func TestRecordManualInvestment(t *testing.T) {
	cache := newStubCache()
	r, client := newTestReconciler(cache)
	now := time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC)
	r.WithClock(func() time.Time { return now })

	client.Seed(store.CollectionUsers, "u1", store.RawRecord{"email": "a@x.com"})
	client.Seed(store.CollectionPlots, "p1", store.RawRecord{
		"price_per_sqm": 10000.0,
		"available_sqm": 1000.0,
		"total_owners":  2.0,
	})

	ctx := context.Background()
	result, err := r.RecordManualInvestment(ctx, ManualInvestmentInput{
		UserID:        "u1",
		PlotID:        "p1",
		AreaUnits:     50,
		AmountPaid:    500000,
		PaymentMethod: "bank_transfer",
	}, "ops@subx")
	if err != nil {
		t.Fatalf("expected entry to succeed, got %v", err)
	}

	if result.Investment.Source != domain.SourceManualAdminEntry {
		t.Fatalf("expected manual source, got %v", result.Investment.Source)
	}
	if result.Investment.PricePerUnit != 10000 {
		t.Fatalf("expected plot price fallback 10000, got %v", result.Investment.PricePerUnit)
	}
	if result.Ownership.InvestmentID != result.Investment.ID {
		t.Fatalf("expected ownership linked to the ledger entry, got %q vs %q",
			result.Ownership.InvestmentID, result.Investment.ID)
	}
	if !result.Investment.CreatedAt.Equal(now) {
		t.Fatalf("expected clock time %v, got %v", now, result.Investment.CreatedAt)
	}

	plot, _ := client.Get(ctx, store.CollectionPlots, "p1")
	if plot["available_sqm"] != 950.0 || plot["total_owners"] != 3.0 || plot["total_revenue"] != 500000.0 {
		t.Fatalf("unexpected plot counters: %+v", plot)
	}

	if len(cache.invalidated) != 1 || cache.invalidated[0] != "u1" {
		t.Fatalf("expected u1 portfolio invalidated, got %v", cache.invalidated)
	}
}

func TestRecordManualInvestmentResolvesUserByEmail(t *testing.T) {
	r, client := newTestReconciler(nil)
	client.Seed(store.CollectionUsers, "u9", store.RawRecord{"email": "Jane@X.com"})
	client.Seed(store.CollectionPlots, "p1", store.RawRecord{"price_per_sqm": 100.0})

	result, err := r.RecordManualInvestment(context.Background(), ManualInvestmentInput{
		UserEmail:  " jane@x.com ",
		PlotID:     "p1",
		AreaUnits:  10,
		AmountPaid: 1000,
	}, "ops@subx")
	if err != nil {
		t.Fatalf("expected email resolution to succeed, got %v", err)
	}
	if result.Investment.UserID != "u9" {
		t.Fatalf("expected the entry bound to u9, got %q", result.Investment.UserID)
	}
}

func TestRecordManualInvestmentValidation(t *testing.T) {
	r, client := newTestReconciler(nil)
	client.Seed(store.CollectionUsers, "u1", store.RawRecord{"email": "a@x.com"})
	ctx := context.Background()

	cases := []struct {
		name  string
		input ManualInvestmentInput
	}{
		{"missing plot", ManualInvestmentInput{UserID: "u1", AreaUnits: 1, AmountPaid: 1}},
		{"zero amount", ManualInvestmentInput{UserID: "u1", PlotID: "p1", AreaUnits: 1}},
		{"negative area", ManualInvestmentInput{UserID: "u1", PlotID: "p1", AreaUnits: -1, AmountPaid: 1}},
	}
	for _, tc := range cases {
		var vErr *ValidationError
		if _, err := r.RecordManualInvestment(ctx, tc.input, "ops"); !errors.As(err, &vErr) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	var nfErr *NotFoundError
	input := ManualInvestmentInput{UserID: "ghost", PlotID: "p1", AreaUnits: 1, AmountPaid: 1}
	if _, err := r.RecordManualInvestment(ctx, input, "ops"); !errors.As(err, &nfErr) {
		t.Errorf("expected not-found for unknown user, got %v", err)
	}

	input = ManualInvestmentInput{UserID: "u1", PlotID: "ghost-plot", AreaUnits: 1, AmountPaid: 1}
	if _, err := r.RecordManualInvestment(ctx, input, "ops"); !errors.As(err, &nfErr) {
		t.Errorf("expected not-found for unknown plot, got %v", err)
	}

	if client.Count(store.CollectionInvestments) != 0 {
		t.Fatalf("validation failures must not write, got %d investments", client.Count(store.CollectionInvestments))
	}
}
