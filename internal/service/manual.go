package service

import (
	"context"
	"fmt"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

// ManualInvestmentInput is the payload for an operator-recorded purchase.
// Either UserID or UserEmail must resolve to an existing profile.
type ManualInvestmentInput struct {
	UserID        string
	UserEmail     string
	PlotID        string
	ProjectID     string
	AreaUnits     float64
	AmountPaid    float64
	PricePerUnit  float64
	PaymentMethod string
}

// ManualInvestmentResult pairs the ledger entry with the ownership record
// written alongside it.
type ManualInvestmentResult struct {
	Investment domain.Investment `json:"investment"`
	Ownership  domain.Ownership  `json:"ownership"`
}

// RecordManualInvestment writes an admin-entered investment together with
// its ownership row and adjusts the plot counters. Validation happens before
// any write; the plot counter update uses the store's increment semantics so
// concurrent entries do not trample each other's totals.
func (r *Reconciler) RecordManualInvestment(ctx context.Context, input ManualInvestmentInput, operator string) (ManualInvestmentResult, error) {
	var result ManualInvestmentResult

	if input.PlotID == "" {
		return result, &ValidationError{Field: "plotId", Reason: "plot selection is required"}
	}
	if input.AmountPaid <= 0 {
		return result, &ValidationError{Field: "amountPaid", Reason: "amount must be positive"}
	}
	if input.AreaUnits <= 0 {
		return result, &ValidationError{Field: "areaUnits", Reason: "area must be positive"}
	}

	user, err := r.resolveUser(ctx, input.UserID, input.UserEmail)
	if err != nil {
		return result, err
	}

	plotRaw, err := r.store.Get(ctx, store.CollectionPlots, input.PlotID)
	if err != nil {
		if IsNotFound(err) {
			return result, &NotFoundError{Collection: store.CollectionPlots, ID: input.PlotID}
		}
		return result, err
	}

	price := input.PricePerUnit
	if price == 0 {
		price = resolveNumber(plotRaw, pricePerUnitField)
	}

	now := r.nowFn().UTC()
	investmentFields := store.RawRecord{
		"user_id":        user.ID,
		"user_email":     user.Email,
		"plot_id":        input.PlotID,
		"project_id":     input.ProjectID,
		"sqm_purchased":  input.AreaUnits,
		"amount_paid":    input.AmountPaid,
		"price_per_sqm":  price,
		"status":         string(domain.InvestmentStatusActive),
		"payment_method": input.PaymentMethod,
		"source":         string(domain.SourceManualAdminEntry),
		"created_at":     now,
		"created_by":     operator,
	}
	investmentID, err := r.store.Add(ctx, store.CollectionInvestments, investmentFields)
	if err != nil {
		return result, fmt.Errorf("write investment: %w", err)
	}

	ownershipFields := store.RawRecord{
		"user_id":       user.ID,
		"plot_id":       input.PlotID,
		"investment_id": investmentID,
		"sqm_owned":     input.AreaUnits,
		"amount_paid":   input.AmountPaid,
		"price_per_sqm": price,
		"created_at":    now,
		"source":        string(domain.SourceManualAdminEntry),
		"created_by":    operator,
	}
	ownershipID, err := r.store.Add(ctx, store.CollectionPlotOwnership, ownershipFields)
	if err != nil {
		return result, fmt.Errorf("write ownership for investment %s: %w", investmentID, err)
	}

	if err := r.store.Increment(ctx, store.CollectionPlots, input.PlotID, map[string]float64{
		"available_sqm": -input.AreaUnits,
		"total_owners":  1,
		"total_revenue": input.AmountPaid,
	}); err != nil {
		return result, fmt.Errorf("update plot counters for %s: %w", input.PlotID, err)
	}

	r.invalidatePortfolio(ctx, user.ID)
	r.logger.Info("recorded manual investment",
		"investmentId", investmentID,
		"userId", user.ID,
		"plotId", input.PlotID,
		"amount", input.AmountPaid,
		"operator", operator,
	)

	result.Investment = domain.Investment{
		ID:            investmentID,
		UserID:        user.ID,
		UserEmail:     user.Email,
		PlotID:        input.PlotID,
		ProjectID:     input.ProjectID,
		AreaUnits:     input.AreaUnits,
		AmountPaid:    input.AmountPaid,
		PricePerUnit:  price,
		Status:        domain.InvestmentStatusActive,
		PaymentMethod: input.PaymentMethod,
		Source:        domain.SourceManualAdminEntry,
		CreatedAt:     now,
	}
	result.Ownership = domain.Ownership{
		ID:           ownershipID,
		UserID:       user.ID,
		PlotID:       input.PlotID,
		InvestmentID: investmentID,
		AreaOwned:    input.AreaUnits,
		AmountPaid:   input.AmountPaid,
		PricePerUnit: price,
		CreatedAt:    now,
		Source:       domain.SourceManualAdminEntry,
	}
	return result, nil
}

// resolveUser finds the target profile by id first, then by normalized email.
func (r *Reconciler) resolveUser(ctx context.Context, userID, userEmail string) (domain.User, error) {
	if userID != "" {
		raw, err := r.store.Get(ctx, store.CollectionUsers, userID)
		if err != nil {
			if IsNotFound(err) {
				return domain.User{}, &NotFoundError{Collection: store.CollectionUsers, ID: userID}
			}
			return domain.User{}, err
		}
		user := NormalizeUser(raw)
		user.ID = userID
		return user, nil
	}

	users, err := r.ListUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if user, ok := findUserByEmail(users, userEmail); ok {
		return user, nil
	}
	return domain.User{}, &NotFoundError{Collection: store.CollectionUsers, ID: NormalizeEmail(userEmail)}
}
