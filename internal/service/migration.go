package service

import (
	"context"
	"fmt"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

const migrationSampleCap = 10

// RunMigration backfills one plot_ownership record for every investment that
// lacks one. The run is a best-effort batch: per-investment failures are
// recorded and processing continues. Because the already-owned set is
// recomputed from the store on every run, re-invoking after a partial run
// only creates records still missing, so the operation is idempotent.
//
// Cancellation stops issuing new writes; records already created stay.
func (r *Reconciler) RunMigration(ctx context.Context, operator string) (domain.MigrationReport, error) {
	var report domain.MigrationReport

	// Two bulk reads up front rather than interleaved lookups, so the run
	// works against one consistent view of both collections. Failures here
	// abort the run; everything later is per-item.
	investments, err := r.store.List(ctx, store.CollectionInvestments)
	if err != nil {
		return report, fmt.Errorf("list investments: %w", err)
	}
	ownership, err := r.store.List(ctx, store.CollectionPlotOwnership)
	if err != nil {
		return report, fmt.Errorf("list plot ownership: %w", err)
	}

	report.TotalInvestments = len(investments)
	owned := ownedInvestmentIDs(ownership)

	// Lazily loaded, memoized user list for email-based resolution of
	// investments that never stored a user id.
	var users []domain.User
	var usersErr error
	usersLoaded := false
	loadUsers := func() ([]domain.User, error) {
		if !usersLoaded {
			users, usersErr = r.ListUsers(ctx)
			usersLoaded = true
		}
		return users, usersErr
	}

	for _, raw := range investments {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		inv := NormalizeInvestment(raw)
		if inv.ID == "" {
			report.Failed++
			report.Errors = append(report.Errors, "investment record without id skipped")
			continue
		}
		if _, exists := owned[inv.ID]; exists {
			report.ExistingOwnership++
			continue
		}

		userID := inv.UserID
		if userID == "" {
			profiles, err := loadUsers()
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, fmt.Sprintf("investment %s: resolve user by email: %v", inv.ID, err))
				continue
			}
			if match, ok := findUserByEmail(profiles, inv.UserEmail); ok {
				userID = match.ID
			}
		}
		if userID == "" {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("investment %s: no user id and no profile matches email %q", inv.ID, inv.UserEmail))
			continue
		}
		if inv.PlotID == "" {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("investment %s: missing plot id", inv.ID))
			continue
		}

		// The investment's own fields win; the plot record only fills gaps.
		price := inv.PricePerUnit
		if price == 0 {
			plotRaw, err := r.store.Get(ctx, store.CollectionPlots, inv.PlotID)
			if err != nil && !IsNotFound(err) {
				report.Failed++
				report.Errors = append(report.Errors, fmt.Sprintf("investment %s: load plot %s: %v", inv.ID, inv.PlotID, err))
				continue
			}
			if plotRaw != nil {
				price = resolveNumber(plotRaw, pricePerUnitField)
			}
		}

		createdAt := inv.CreatedAt
		if createdAt.IsZero() {
			createdAt = r.nowFn().UTC()
		}

		fields := store.RawRecord{
			"user_id":       userID,
			"plot_id":       inv.PlotID,
			"investment_id": inv.ID,
			"sqm_owned":     inv.AreaUnits,
			"amount_paid":   inv.AmountPaid,
			"price_per_sqm": price,
			"created_at":    createdAt,
			"source":        string(domain.SourceMigration),
			"created_by":    operator,
		}
		if _, err := r.store.Add(ctx, store.CollectionPlotOwnership, fields); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("investment %s: write ownership: %v", inv.ID, err))
			continue
		}

		owned[inv.ID] = struct{}{}
		report.Created++
		r.invalidatePortfolio(ctx, userID)
	}

	r.logger.Info("ownership migration finished",
		"total", report.TotalInvestments,
		"existing", report.ExistingOwnership,
		"created", report.Created,
		"failed", report.Failed,
		"operator", operator,
	)
	return report, nil
}

// CheckMigrationStatus projects the same set difference as RunMigration
// without writing anything, so operators can decide whether a run is needed.
func (r *Reconciler) CheckMigrationStatus(ctx context.Context) (domain.MigrationStatus, error) {
	var status domain.MigrationStatus

	investments, err := r.store.List(ctx, store.CollectionInvestments)
	if err != nil {
		return status, fmt.Errorf("list investments: %w", err)
	}
	ownership, err := r.store.List(ctx, store.CollectionPlotOwnership)
	if err != nil {
		return status, fmt.Errorf("list plot ownership: %w", err)
	}

	status.TotalInvestments = len(investments)
	status.TotalOwnership = len(ownership)

	owned := ownedInvestmentIDs(ownership)
	for _, raw := range investments {
		inv := NormalizeInvestment(raw)
		if inv.ID == "" {
			continue
		}
		if _, exists := owned[inv.ID]; exists {
			continue
		}
		status.MissingOwnership++
		if len(status.SampleMissing) < migrationSampleCap {
			status.SampleMissing = append(status.SampleMissing, inv.ID)
		}
	}
	return status, nil
}

// ownedInvestmentIDs indexes the ownership collection by the investment each
// record was derived from.
func ownedInvestmentIDs(ownership []store.RawRecord) map[string]struct{} {
	owned := make(map[string]struct{}, len(ownership))
	for _, raw := range ownership {
		own := NormalizeOwnership(raw)
		if own.InvestmentID != "" {
			owned[own.InvestmentID] = struct{}{}
		}
	}
	return owned
}
