package service

import (
	"context"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

// DetectDuplicates groups users by normalized email and returns only groups
// with more than one member, in first-seen order of the input. Users without
// an email never group together. Pure; nothing is persisted.
func DetectDuplicates(users []domain.User) []domain.DuplicateGroup {
	index := make(map[string]int)
	var groups []domain.DuplicateGroup

	for _, u := range users {
		email := NormalizeEmail(u.Email)
		if email == "" {
			continue
		}
		i, seen := index[email]
		if !seen {
			index[email] = len(groups)
			groups = append(groups, domain.DuplicateGroup{NormalizedEmail: email})
			i = len(groups) - 1
		}
		groups[i].Members = append(groups[i].Members, u)
	}

	duplicates := make([]domain.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Members) > 1 {
			duplicates = append(duplicates, g)
		}
	}
	return duplicates
}

// MergeUsers resolves two user records into one. For every optional field
// the first non-empty value wins with the primary preferred. CreatedAt takes
// the earlier timestamp so tenure-based eligibility survives the merge, and
// LastLogin the later. Financial totals are never summed here; they are
// recomputed from the aggregator against the merged identity, since adding
// stored totals would double-count transactions recorded on both accounts.
func MergeUsers(primary, secondary domain.User) domain.User {
	merged := primary

	merged.DisplayName = firstNonEmpty(primary.DisplayName, secondary.DisplayName)
	merged.Phone = firstNonEmpty(primary.Phone, secondary.Phone)
	merged.Address = firstNonEmpty(primary.Address, secondary.Address)
	merged.Occupation = firstNonEmpty(primary.Occupation, secondary.Occupation)
	merged.BankName = firstNonEmpty(primary.BankName, secondary.BankName)
	merged.BankAccount = firstNonEmpty(primary.BankAccount, secondary.BankAccount)

	if merged.Status == domain.UserStatusUnknown {
		merged.Status = secondary.Status
	}

	if merged.CreatedAt.IsZero() || (!secondary.CreatedAt.IsZero() && secondary.CreatedAt.Before(merged.CreatedAt)) {
		merged.CreatedAt = secondary.CreatedAt
	}
	if secondary.LastLogin.After(merged.LastLogin) {
		merged.LastLogin = secondary.LastLogin
	}

	return merged
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Merge applies a duplicate merge as a destructive two-phase operation:
// update the primary with the merged fields, then hard-delete the secondary.
// A failure in the second phase returns a MergeStateError whose phase tells
// the operator that only the delete should be retried.
func (r *Reconciler) Merge(ctx context.Context, primaryID, secondaryID, operator string) (domain.User, error) {
	if primaryID == "" || secondaryID == "" {
		return domain.User{}, &ValidationError{Field: "userId", Reason: "primary and secondary ids are required"}
	}
	if primaryID == secondaryID {
		return domain.User{}, &ValidationError{Field: "userId", Reason: "cannot merge a user into itself"}
	}

	primaryRaw, err := r.store.Get(ctx, store.CollectionUsers, primaryID)
	if err != nil {
		if IsNotFound(err) {
			return domain.User{}, &NotFoundError{Collection: store.CollectionUsers, ID: primaryID}
		}
		return domain.User{}, err
	}
	secondaryRaw, err := r.store.Get(ctx, store.CollectionUsers, secondaryID)
	if err != nil {
		if IsNotFound(err) {
			return domain.User{}, &NotFoundError{Collection: store.CollectionUsers, ID: secondaryID}
		}
		return domain.User{}, err
	}

	primary := NormalizeUser(primaryRaw)
	secondary := NormalizeUser(secondaryRaw)
	merged := MergeUsers(primary, secondary)
	merged.ID = primaryID

	fields := userUpdateFields(merged)
	// merged_from marks the intermediate state until the secondary is gone,
	// so a crash between the two phases is detectable and resumable.
	fields["merged_from"] = secondaryID
	fields["merged_by"] = operator
	fields["merged_at"] = r.nowFn().UTC()

	if err := r.store.Update(ctx, store.CollectionUsers, primaryID, fields); err != nil {
		return domain.User{}, &MergeStateError{
			Phase:       MergePhaseUpdatePrimary,
			PrimaryID:   primaryID,
			SecondaryID: secondaryID,
			Err:         err,
		}
	}
	// The primary already changed; drop its cached aggregate now so the
	// half-applied state after a delete failure never serves stale totals.
	r.invalidatePortfolio(ctx, primaryID)

	if err := r.store.Delete(ctx, store.CollectionUsers, secondaryID); err != nil {
		return merged, &MergeStateError{
			Phase:       MergePhaseDeleteSecondary,
			PrimaryID:   primaryID,
			SecondaryID: secondaryID,
			Err:         err,
		}
	}

	r.invalidatePortfolio(ctx, secondaryID)

	r.logger.Info("merged duplicate user",
		"primaryId", primaryID,
		"secondaryId", secondaryID,
		"email", merged.Email,
		"operator", operator,
	)
	return merged, nil
}

// DeleteDuplicate hard-deletes a user record. Used when an operator has
// determined the record carries no value, independent of any merge.
func (r *Reconciler) DeleteDuplicate(ctx context.Context, userID, operator string) error {
	if userID == "" {
		return &ValidationError{Field: "userId", Reason: "user id is required"}
	}
	if err := r.store.Delete(ctx, store.CollectionUsers, userID); err != nil {
		if IsNotFound(err) {
			return &NotFoundError{Collection: store.CollectionUsers, ID: userID}
		}
		return err
	}
	r.invalidatePortfolio(ctx, userID)
	r.logger.Info("deleted duplicate user", "userId", userID, "operator", operator)
	return nil
}

// userUpdateFields writes the canonical user shape back under the platform's
// current field names. Synonym keys on the stored record are left untouched.
func userUpdateFields(u domain.User) store.RawRecord {
	fields := store.RawRecord{
		"email":        u.Email,
		"display_name": u.DisplayName,
		"phone":        u.Phone,
		"address":      u.Address,
		"occupation":   u.Occupation,
		"bank_name":    u.BankName,
		"bank_account": u.BankAccount,
		"status":       string(u.Status),
	}
	if !u.CreatedAt.IsZero() {
		fields["created_at"] = u.CreatedAt
	}
	if !u.LastLogin.IsZero() {
		fields["last_login"] = u.LastLogin
	}
	return fields
}
