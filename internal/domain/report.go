package domain

import "fmt"

// MigrationReport summarises one backfill run. Failed > 0 means a partial
// batch failure: records that were created stay created.
type MigrationReport struct {
	TotalInvestments  int      `json:"totalInvestments"`
	ExistingOwnership int      `json:"existingOwnership"`
	Created           int      `json:"created"`
	Failed            int      `json:"failed"`
	Errors            []string `json:"errors"`
}

// Success reports whether every missing ownership record was backfilled.
func (r MigrationReport) Success() bool {
	return r.Failed == 0
}

// DisplayErrors returns at most max error strings, appending a remainder
// count so one noisy record cannot hide a systemic failure.
func (r MigrationReport) DisplayErrors(max int) []string {
	if max <= 0 || len(r.Errors) <= max {
		return r.Errors
	}
	capped := make([]string, 0, max+1)
	capped = append(capped, r.Errors[:max]...)
	capped = append(capped, fmt.Sprintf("... and %d more errors", len(r.Errors)-max))
	return capped
}

// MigrationStatus is the read-only projection of the ownership set
// difference, used to decide whether a migration run is needed.
type MigrationStatus struct {
	TotalInvestments int      `json:"totalInvestments"`
	TotalOwnership   int      `json:"totalOwnership"`
	MissingOwnership int      `json:"missingOwnership"`
	SampleMissing    []string `json:"sampleMissing"`
}
