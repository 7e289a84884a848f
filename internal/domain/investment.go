package domain

import "time"

// InvestmentStatus is the canonical lifecycle state of an investment event.
type InvestmentStatus string

const (
	InvestmentStatusPending   InvestmentStatus = "pending"
	InvestmentStatusApproved  InvestmentStatus = "approved"
	InvestmentStatusCompleted InvestmentStatus = "completed"
	InvestmentStatusActive    InvestmentStatus = "active"
	InvestmentStatusOther     InvestmentStatus = "other"
)

// InvestmentSource records which code path produced the record.
type InvestmentSource string

const (
	SourceOrganicPurchase  InvestmentSource = "organic_purchase"
	SourceManualAdminEntry InvestmentSource = "manual_admin_entry"
	SourceMigration        InvestmentSource = "migration"
)

// Investment is the canonical shape shared by the investments ledger and the
// investment_requests collection. LinkedInvestmentID back-references the
// ledger entry a request was promoted to, when that promotion was recorded.
type Investment struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"userId"`
	UserEmail          string           `json:"userEmail"`
	PlotID             string           `json:"plotId"`
	ProjectID          string           `json:"projectId"`
	AreaUnits          float64          `json:"areaUnits"`
	AmountPaid         float64          `json:"amountPaid"`
	PricePerUnit       float64          `json:"pricePerUnit"`
	Status             InvestmentStatus `json:"status"`
	PaymentMethod      string           `json:"paymentMethod"`
	Source             InvestmentSource `json:"source"`
	CreatedAt          time.Time        `json:"createdAt"`
	LinkedInvestmentID string           `json:"linkedInvestmentId,omitempty"`
}

// Ownership is the derived record of a user's confirmed stake in a plot.
// The migration guarantee is at most one Ownership per InvestmentID.
type Ownership struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	PlotID       string           `json:"plotId"`
	InvestmentID string           `json:"investmentId"`
	AreaOwned    float64          `json:"areaOwned"`
	AmountPaid   float64          `json:"amountPaid"`
	PricePerUnit float64          `json:"pricePerUnit"`
	CreatedAt    time.Time        `json:"createdAt"`
	Source       InvestmentSource `json:"source"`
}

// Portfolio is the de-duplicated aggregate view of a user's investments.
// History is informational and includes pending requests; the totals do not.
type Portfolio struct {
	UserID      string       `json:"userId"`
	TotalAmount float64      `json:"totalAmount"`
	TotalArea   float64      `json:"totalArea"`
	History     []Investment `json:"history"`
}
