package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

// fingerprint is the heuristic duplicate key across investment sources:
// normalized email plus amount plus area. Two distinct real transactions
// with identical amount and area collide; the source system relies on this
// behaviour, so it is documented rather than replaced with a stronger key.
func fingerprint(inv domain.Investment, fallbackEmail string) string {
	email := inv.UserEmail
	if email == "" {
		email = NormalizeEmail(fallbackEmail)
	}
	return strings.Join([]string{
		email,
		strconv.FormatFloat(inv.AmountPaid, 'f', -1, 64),
		strconv.FormatFloat(inv.AreaUnits, 'f', -1, 64),
	}, "|")
}

// includeRequest is the single inclusion predicate over investment_requests
// records. Totals and history share it by construction; history only widens
// the accepted statuses with Pending, because history is informational while
// totals are a balance computation.
func includeRequest(req domain.Investment, forHistory bool, ledger map[string]struct{}, fallbackEmail string) bool {
	switch req.Status {
	case domain.InvestmentStatusApproved, domain.InvestmentStatusCompleted:
	case domain.InvestmentStatusPending:
		if !forHistory {
			return false
		}
	default:
		return false
	}
	if req.LinkedInvestmentID != "" {
		return false
	}
	if req.Source == domain.SourceManualAdminEntry {
		return false
	}
	if _, promoted := ledger[fingerprint(req, fallbackEmail)]; promoted {
		return false
	}
	return true
}

// safeAdd folds a value into a running sum, treating non-finite input as 0
// so one malformed record cannot poison the aggregate.
func safeAdd(sum, v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sum
	}
	return sum + v
}

// BuildPortfolio computes the de-duplicated aggregate for one user from the
// full investments and investment_requests collections. Pure: no store
// access, no errors.
func (r *Reconciler) BuildPortfolio(userID, userEmail string, investments, requests []store.RawRecord) domain.Portfolio {
	portfolio := domain.Portfolio{UserID: userID}

	ledger := make(map[string]struct{})
	owned := make([]domain.Investment, 0, len(investments))
	for _, raw := range investments {
		if !MatchesUser(raw, userID, userEmail) {
			continue
		}
		inv := NormalizeInvestment(raw)
		ledger[fingerprint(inv, userEmail)] = struct{}{}
		owned = append(owned, inv)
	}

	for _, inv := range owned {
		portfolio.TotalAmount = safeAdd(portfolio.TotalAmount, inv.AmountPaid)
		portfolio.TotalArea = safeAdd(portfolio.TotalArea, inv.AreaUnits)
	}
	history := append([]domain.Investment(nil), owned...)

	for _, raw := range requests {
		if !MatchesUser(raw, userID, userEmail) {
			continue
		}
		req := NormalizeInvestment(raw)
		if includeRequest(req, false, ledger, userEmail) {
			portfolio.TotalAmount = safeAdd(portfolio.TotalAmount, req.AmountPaid)
			portfolio.TotalArea = safeAdd(portfolio.TotalArea, req.AreaUnits)
		}
		if includeRequest(req, true, ledger, userEmail) {
			history = append(history, req)
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	portfolio.History = history
	return portfolio
}

// Portfolio returns the cached aggregate for a user, recomputing from the
// store on a miss. Store read failures propagate; cache failures never do.
func (r *Reconciler) Portfolio(ctx context.Context, userID, userEmail string) (domain.Portfolio, error) {
	if cached, ok := r.cacheGet(ctx, userID); ok {
		return cached, nil
	}
	return r.refreshPortfolio(ctx, userID, userEmail)
}

// refreshPortfolio recomputes the aggregate and repopulates the cache.
func (r *Reconciler) refreshPortfolio(ctx context.Context, userID, userEmail string) (domain.Portfolio, error) {
	investments, err := r.store.List(ctx, store.CollectionInvestments)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("list investments: %w", err)
	}
	requests, err := r.store.List(ctx, store.CollectionRequests)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("list investment requests: %w", err)
	}

	portfolio := r.BuildPortfolio(userID, userEmail, investments, requests)
	r.cacheSet(ctx, userID, portfolio)
	return portfolio, nil
}
