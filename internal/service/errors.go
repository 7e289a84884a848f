package service

import (
	"errors"
	"fmt"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

// ValidationError rejects an operation before any write is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates a referenced document is absent from the store.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s not found", e.Collection, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return store.ErrNotFound
}

// MergePhase identifies how far a two-phase merge progressed before failing.
type MergePhase string

const (
	// MergePhaseUpdatePrimary means the primary was not modified; the whole
	// merge may be retried.
	MergePhaseUpdatePrimary MergePhase = "update_primary"
	// MergePhaseDeleteSecondary means the primary already holds the merged
	// fields; only the delete of the secondary should be retried.
	MergePhaseDeleteSecondary MergePhase = "delete_secondary"
)

// MergeStateError reports a failed merge together with the phase reached, so
// operators can tell a clean failure from a half-applied one.
type MergeStateError struct {
	Phase       MergePhase
	PrimaryID   string
	SecondaryID string
	Err         error
}

func (e *MergeStateError) Error() string {
	if e.Phase == MergePhaseDeleteSecondary {
		return fmt.Sprintf("merge %s <- %s: primary updated but secondary delete failed, retry the delete: %v",
			e.PrimaryID, e.SecondaryID, e.Err)
	}
	return fmt.Sprintf("merge %s <- %s: primary update failed, no changes applied: %v",
		e.PrimaryID, e.SecondaryID, e.Err)
}

func (e *MergeStateError) Unwrap() error {
	return e.Err
}

// PrimaryUpdated reports whether the primary record already carries the
// merged fields, meaning manual reconciliation must not retry the update.
func (e *MergeStateError) PrimaryUpdated() bool {
	return e.Phase == MergePhaseDeleteSecondary
}

// IsNotFound reports whether err stems from an absent document.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
