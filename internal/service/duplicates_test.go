package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

func TestDetectDuplicatesGroupsByNormalizedEmail(t *testing.T) {
	users := []domain.User{
		{ID: "u1", Email: "A@X.com "},
		{ID: "u2", Email: "a@x.com"},
		{ID: "u3", Email: "a@x.com"},
		{ID: "u4", Email: "distinct@x.com"},
	}

	groups := DetectDuplicates(users)

	if len(groups) != 1 {
		t.Fatalf("expected exactly one duplicate group, got %d", len(groups))
	}
	g := groups[0]
	if g.NormalizedEmail != "a@x.com" {
		t.Fatalf("expected group key a@x.com, got %q", g.NormalizedEmail)
	}
	if len(g.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(g.Members))
	}
	if g.Members[0].ID != "u1" || g.Members[1].ID != "u2" || g.Members[2].ID != "u3" {
		t.Fatalf("expected first-seen member order, got %+v", g.Members)
	}
}

func TestDetectDuplicatesSkipsBlankEmails(t *testing.T) {
	users := []domain.User{
		{ID: "u1"},
		{ID: "u2"},
		{ID: "u3", Email: "a@x.com"},
	}
	if groups := DetectDuplicates(users); len(groups) != 0 {
		t.Fatalf("blank emails must never group, got %+v", groups)
	}
}

func TestMergeUsersFieldPrecedence(t *testing.T) {
	earlier := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	primary := domain.User{
		ID:        "u1",
		Email:     "a@x.com",
		Phone:     "",
		CreatedAt: later,
		Status:    domain.UserStatusUnknown,
		LastLogin: earlier,
	}
	secondary := domain.User{
		ID:        "u2",
		Email:     "a@x.com",
		Phone:     "123",
		CreatedAt: earlier,
		Status:    domain.UserStatusActive,
		LastLogin: later,
	}

	merged := MergeUsers(primary, secondary)

	if merged.Phone != "123" {
		t.Fatalf("expected secondary phone to fill the gap, got %q", merged.Phone)
	}
	if !merged.CreatedAt.Equal(earlier) {
		t.Fatalf("expected earliest creation time, got %v", merged.CreatedAt)
	}
	if !merged.LastLogin.Equal(later) {
		t.Fatalf("expected latest login time, got %v", merged.LastLogin)
	}
	if merged.Status != domain.UserStatusActive {
		t.Fatalf("expected secondary status when primary is unknown, got %v", merged.Status)
	}
}

func TestMergeUsersPrimaryWinsWhenSet(t *testing.T) {
	primary := domain.User{DisplayName: "Jane", Status: domain.UserStatusInactive}
	secondary := domain.User{DisplayName: "J. Doe", Status: domain.UserStatusActive}

	merged := MergeUsers(primary, secondary)
	if merged.DisplayName != "Jane" {
		t.Fatalf("expected primary display name to win, got %q", merged.DisplayName)
	}
	if merged.Status != domain.UserStatusInactive {
		t.Fatalf("expected primary status to win, got %v", merged.Status)
	}
}

func TestMergeUpdatesPrimaryAndDeletesSecondary(t *testing.T) {
	cache := newStubCache()
	r, client := newTestReconciler(cache)
	now := time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)
	r.WithClock(func() time.Time { return now })

	client.Seed(store.CollectionUsers, "u1", store.RawRecord{"email": "a@x.com"})
	client.Seed(store.CollectionUsers, "u2", store.RawRecord{"email": "A@X.com", "phone": "123"})

	ctx := context.Background()
	merged, err := r.Merge(ctx, "u1", "u2", "ops@subx")
	if err != nil {
		t.Fatalf("expected merge to succeed, got %v", err)
	}
	if merged.Phone != "123" {
		t.Fatalf("expected merged phone from secondary, got %q", merged.Phone)
	}

	if client.Count(store.CollectionUsers) != 1 {
		t.Fatalf("expected the secondary to be deleted, %d users remain", client.Count(store.CollectionUsers))
	}

	primaryRaw, err := client.Get(ctx, store.CollectionUsers, "u1")
	if err != nil {
		t.Fatalf("expected primary to survive, got %v", err)
	}
	if primaryRaw["merged_from"] != "u2" {
		t.Fatalf("expected merged_from marker, got %v", primaryRaw["merged_from"])
	}
	if primaryRaw["merged_by"] != "ops@subx" {
		t.Fatalf("expected operator recorded, got %v", primaryRaw["merged_by"])
	}

	if len(cache.invalidated) != 2 {
		t.Fatalf("expected both portfolios invalidated, got %v", cache.invalidated)
	}
}

func TestMergeDeleteFailureReportsPhase(t *testing.T) {
	cache := newStubCache()
	r, client := newTestReconciler(cache)
	client.Seed(store.CollectionUsers, "u1", store.RawRecord{"email": "a@x.com"})
	client.Seed(store.CollectionUsers, "u2", store.RawRecord{"email": "a@x.com"})
	client.SetError(store.OpDelete, errors.New("write conflict"))

	_, err := r.Merge(context.Background(), "u1", "u2", "ops@subx")

	var stateErr *MergeStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected MergeStateError, got %v", err)
	}
	if stateErr.Phase != MergePhaseDeleteSecondary {
		t.Fatalf("expected delete phase, got %q", stateErr.Phase)
	}
	if !stateErr.PrimaryUpdated() {
		t.Fatalf("expected the error to report the primary as already updated")
	}

	// phase one completed: the primary carries the merged fields
	primaryRaw, getErr := client.Get(context.Background(), store.CollectionUsers, "u1")
	if getErr != nil {
		t.Fatalf("expected primary readable, got %v", getErr)
	}
	if primaryRaw["merged_from"] != "u2" {
		t.Fatalf("expected intermediate merged_from marker, got %v", primaryRaw["merged_from"])
	}

	// the updated primary must not keep serving its pre-merge aggregate
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "u1" {
		t.Fatalf("expected the primary portfolio invalidated despite the delete failure, got %v", cache.invalidated)
	}
}

func TestMergeUpdateFailureReportsPhase(t *testing.T) {
	r, client := newTestReconciler(nil)
	client.Seed(store.CollectionUsers, "u1", store.RawRecord{"email": "a@x.com"})
	client.Seed(store.CollectionUsers, "u2", store.RawRecord{"email": "a@x.com"})
	client.SetError(store.OpUpdate, errors.New("write conflict"))

	_, err := r.Merge(context.Background(), "u1", "u2", "ops@subx")

	var stateErr *MergeStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected MergeStateError, got %v", err)
	}
	if stateErr.Phase != MergePhaseUpdatePrimary {
		t.Fatalf("expected update phase, got %q", stateErr.Phase)
	}
	if stateErr.PrimaryUpdated() {
		t.Fatalf("nothing was written, primary must not be reported as updated")
	}
	if client.Count(store.CollectionUsers) != 2 {
		t.Fatalf("expected both users untouched, got %d", client.Count(store.CollectionUsers))
	}
}

func TestMergeValidation(t *testing.T) {
	r, _ := newTestReconciler(nil)
	ctx := context.Background()

	var vErr *ValidationError
	if _, err := r.Merge(ctx, "", "u2", "ops"); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for missing primary, got %v", err)
	}
	if _, err := r.Merge(ctx, "u1", "u1", "ops"); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for self-merge, got %v", err)
	}

	var nfErr *NotFoundError
	if _, err := r.Merge(ctx, "u1", "u2", "ops"); !errors.As(err, &nfErr) {
		t.Fatalf("expected not-found for unseeded users, got %v", err)
	}
}

func TestDeleteDuplicate(t *testing.T) {
	r, client := newTestReconciler(nil)
	client.Seed(store.CollectionUsers, "u1", store.RawRecord{"email": "a@x.com"})

	if err := r.DeleteDuplicate(context.Background(), "u1", "ops@subx"); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if client.Count(store.CollectionUsers) != 0 {
		t.Fatalf("expected no users left, got %d", client.Count(store.CollectionUsers))
	}

	var nfErr *NotFoundError
	if err := r.DeleteDuplicate(context.Background(), "u1", "ops@subx"); !errors.As(err, &nfErr) {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
}
