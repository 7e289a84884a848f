package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

func TestNormalizeInvestmentAreaSynonyms(t *testing.T) {
	base := store.RawRecord{
		"id":          "i1",
		"user_id":     "u1",
		"user_email":  "Jane@Example.com",
		"plot_id":     "p1",
		"amount_paid": 3000000.0,
	}

	synonyms := []string{"sqm_purchased", "sqm", "SQM", "Sqm", "sqmPurchased", "sqm_bought", "purchased_sqm", "area"}
	for _, key := range synonyms {
		raw := base.Clone()
		raw[key] = 300.0

		inv := NormalizeInvestment(raw)
		if inv.AreaUnits != 300 {
			t.Errorf("key %q: expected area 300, got %v", key, inv.AreaUnits)
		}
		if inv.AmountPaid != 3000000 {
			t.Errorf("key %q: expected amount 3000000, got %v", key, inv.AmountPaid)
		}
	}
}

func TestNormalizeInvestmentTokenFallback(t *testing.T) {
	inv := NormalizeInvestment(store.RawRecord{
		"id":            "i1",
		"total_sqm_bag": 42.0, // no ranked synonym, key contains "sqm"
	})
	if inv.AreaUnits != 42 {
		t.Fatalf("expected token fallback to resolve area 42, got %v", inv.AreaUnits)
	}
}

func TestNormalizeUserEmailIsLoweredAndTrimmed(t *testing.T) {
	user := NormalizeUser(store.RawRecord{
		"id":        "u1",
		"userEmail": "  Jane.Doe@Example.COM ",
	})
	if user.Email != "jane.doe@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
}

func TestNormalizeUserPhoneTokenScan(t *testing.T) {
	cases := map[string]string{
		"contact_number": "0801",
		"mobile_no":      "0802",
		"telNumber":      "0803",
	}
	for key, want := range cases {
		user := NormalizeUser(store.RawRecord{"id": "u1", key: want})
		if user.Phone != want {
			t.Errorf("key %q: expected phone %q, got %q", key, want, user.Phone)
		}
	}
}

func TestNormalizeEmptyRecordNeverFails(t *testing.T) {
	user := NormalizeUser(store.RawRecord{})
	if user.Status != domain.UserStatusUnknown {
		t.Fatalf("expected unknown status for empty record, got %v", user.Status)
	}
	if user.Email != "" || user.CreatedAt != (time.Time{}) {
		t.Fatalf("expected zero values for empty record, got %+v", user)
	}

	inv := NormalizeInvestment(nil)
	if inv.AmountPaid != 0 || inv.AreaUnits != 0 {
		t.Fatalf("expected zero numeric defaults, got %+v", inv)
	}

	own := NormalizeOwnership(store.RawRecord{})
	if own.InvestmentID != "" {
		t.Fatalf("expected empty investment id, got %q", own.InvestmentID)
	}
}

func TestNormalizeUserStatusThreeValued(t *testing.T) {
	cases := []struct {
		name string
		raw  store.RawRecord
		want domain.UserStatus
	}{
		{"explicit active", store.RawRecord{"status": "active"}, domain.UserStatusActive},
		{"explicit inactive", store.RawRecord{"status": "inactive"}, domain.UserStatusInactive},
		{"disabled maps to inactive", store.RawRecord{"status": "disabled"}, domain.UserStatusInactive},
		{"banned maps to inactive", store.RawRecord{"status": "banned"}, domain.UserStatusInactive},
		{"blocked maps to inactive", store.RawRecord{"status": "blocked"}, domain.UserStatusInactive},
		{"bool true when no string status", store.RawRecord{"isActive": true}, domain.UserStatusActive},
		{"bool false when no string status", store.RawRecord{"is_active": false}, domain.UserStatusInactive},
		{"string status beats bool", store.RawRecord{"status": "active", "isActive": false}, domain.UserStatusActive},
		{"nothing present", store.RawRecord{"email": "a@x.com"}, domain.UserStatusUnknown},
		{"unrecognised string", store.RawRecord{"status": "whatever"}, domain.UserStatusUnknown},
	}

	for _, tc := range cases {
		if got := NormalizeUser(tc.raw).Status; got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCoerceNumberMalformedInputs(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{"300", 300},
		{" 300.5 ", 300.5},
		{"not a number", 0},
		{nil, 0},
		{true, 0},
		{int64(7), 7},
		{int32(7), 7},
		{float32(2.5), 2.5},
		{json.Number("12.5"), 12.5},
		{json.Number("bogus"), 0},
	}
	for _, tc := range cases {
		if got := coerceNumber(tc.in); got != tc.want {
			t.Errorf("coerceNumber(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestCoerceTimeLayouts(t *testing.T) {
	want := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

	if got := coerceTime("2024-04-20"); !got.Equal(want) {
		t.Fatalf("date-only layout: expected %v, got %v", want, got)
	}
	if got := coerceTime("2024-04-20T00:00:00Z"); !got.Equal(want) {
		t.Fatalf("RFC3339: expected %v, got %v", want, got)
	}
	if got := coerceTime(float64(want.Unix())); !got.Equal(want) {
		t.Fatalf("epoch seconds: expected %v, got %v", want, got)
	}
	if got := coerceTime(float64(want.UnixMilli())); !got.Equal(want) {
		t.Fatalf("epoch millis: expected %v, got %v", want, got)
	}
	if got := coerceTime("garbage"); !got.IsZero() {
		t.Fatalf("expected zero time for garbage, got %v", got)
	}
}

func TestNormalizeInvestmentStatusAndSource(t *testing.T) {
	inv := NormalizeInvestment(store.RawRecord{
		"id":     "r1",
		"status": "Approved",
		"source": "manual_admin_entry",
	})
	if inv.Status != domain.InvestmentStatusApproved {
		t.Fatalf("expected approved, got %v", inv.Status)
	}
	if inv.Source != domain.SourceManualAdminEntry {
		t.Fatalf("expected manual admin source, got %v", inv.Source)
	}

	inv = NormalizeInvestment(store.RawRecord{"id": "r2", "status": "weird"})
	if inv.Status != domain.InvestmentStatusOther {
		t.Fatalf("expected other for unrecognised status, got %v", inv.Status)
	}
	if inv.Source != domain.SourceOrganicPurchase {
		t.Fatalf("expected organic default source, got %v", inv.Source)
	}
}

func TestNormalizeRequestLinkedInvestment(t *testing.T) {
	req := NormalizeInvestment(store.RawRecord{
		"id":            "r1",
		"investment_id": "i9",
		"status":        "approved",
	})
	if req.LinkedInvestmentID != "i9" {
		t.Fatalf("expected linked investment i9, got %q", req.LinkedInvestmentID)
	}
}
