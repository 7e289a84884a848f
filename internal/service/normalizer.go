package service

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

// fieldSpec declares how one canonical field is resolved from a raw record:
// ranked exact-key synonyms first, then a case-insensitive substring scan of
// all raw keys against the concept tokens. Adding a newly observed raw key
// is a table addition, not a logic change.
type fieldSpec struct {
	synonyms []string
	tokens   []string
}

var (
	emailField = fieldSpec{
		synonyms: []string{"email", "user_email", "userEmail", "Email", "e_mail", "mail"},
		tokens:   []string{"email", "mail"},
	}
	displayNameField = fieldSpec{
		synonyms: []string{"display_name", "displayName", "full_name", "fullName", "name", "Name"},
		tokens:   []string{"name"},
	}
	phoneField = fieldSpec{
		synonyms: []string{"phone", "phone_number", "phoneNumber", "Phone", "mobile"},
		tokens:   []string{"phone", "mobile", "contact", "tel"},
	}
	addressField = fieldSpec{
		synonyms: []string{"address", "Address", "home_address", "residential_address"},
		tokens:   []string{"address"},
	}
	occupationField = fieldSpec{
		synonyms: []string{"occupation", "Occupation", "profession", "job"},
		tokens:   []string{"occupation", "profession", "job"},
	}
	bankNameField = fieldSpec{
		synonyms: []string{"bank_name", "bankName", "bank"},
		tokens:   []string{"bank_name", "bankname"},
	}
	bankAccountField = fieldSpec{
		synonyms: []string{"bank_account", "bankAccount", "account_number", "accountNumber", "acct_no"},
		tokens:   []string{"account", "acct"},
	}
	userStatusField = fieldSpec{
		synonyms: []string{"status", "Status", "account_status", "accountStatus"},
	}
	createdAtField = fieldSpec{
		synonyms: []string{"created_at", "createdAt", "CreatedAt", "signup_date", "registered_at", "date_joined", "timestamp"},
		tokens:   []string{"created", "joined", "signup", "registered"},
	}
	lastLoginField = fieldSpec{
		synonyms: []string{"last_login", "lastLogin", "last_seen", "lastSeen"},
		tokens:   []string{"login", "seen"},
	}

	userIDField = fieldSpec{
		synonyms: []string{"user_id", "userId", "userID", "uid", "investor_id", "investorId"},
	}
	plotIDField = fieldSpec{
		synonyms: []string{"plot_id", "plotId", "plotID", "plot"},
	}
	projectIDField = fieldSpec{
		synonyms: []string{"project_id", "projectId", "projectID", "project"},
	}
	areaField = fieldSpec{
		synonyms: []string{"sqm_purchased", "sqm", "SQM", "Sqm", "sqmPurchased", "sqm_bought", "purchased_sqm", "area"},
		tokens:   []string{"sqm", "area", "units"},
	}
	amountField = fieldSpec{
		synonyms: []string{"amount_paid", "amountPaid", "amount", "total_amount", "totalAmount", "price_paid", "paid"},
		tokens:   []string{"amount", "paid"},
	}
	pricePerUnitField = fieldSpec{
		synonyms: []string{"price_per_sqm", "pricePerSqm", "price_per_unit", "pricePerUnit", "unit_price", "unitPrice"},
		tokens:   []string{"per_sqm", "persqm", "unit_price", "unitprice"},
	}
	investmentStatusField = fieldSpec{
		synonyms: []string{"status", "Status", "state"},
		tokens:   []string{"status"},
	}
	paymentMethodField = fieldSpec{
		synonyms: []string{"payment_method", "paymentMethod", "payment_type", "paymentType"},
		tokens:   []string{"payment", "method"},
	}
	sourceField = fieldSpec{
		synonyms: []string{"source", "Source", "origin", "entry_source"},
		tokens:   []string{"source", "origin"},
	}
	linkedInvestmentField = fieldSpec{
		synonyms: []string{"linked_investment_id", "linkedInvestmentId", "promoted_investment_id", "investment_id", "investmentId"},
	}
	investmentCreatedAtField = fieldSpec{
		synonyms: []string{"created_at", "createdAt", "purchase_date", "purchaseDate", "date", "timestamp"},
		tokens:   []string{"created", "date"},
	}

	ownershipInvestmentIDField = fieldSpec{
		synonyms: []string{"investment_id", "investmentId", "investmentID", "source_investment_id"},
	}
	areaOwnedField = fieldSpec{
		synonyms: []string{"sqm_owned", "sqmOwned", "area_owned", "areaOwned", "sqm_purchased", "sqm", "area"},
		tokens:   []string{"sqm", "area", "owned"},
	}

	isActiveSynonyms = []string{"isActive", "is_active", "active"}
)

// NormalizeEmail lowercases and trims the provided email. This is the only
// form ever used for identity comparison.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// NormalizeUser maps a raw user_profiles record to the canonical user shape.
// It never fails: missing fields degrade to zero values and Unknown status.
func NormalizeUser(raw store.RawRecord) domain.User {
	return domain.User{
		ID:          resolveString(raw, fieldSpec{synonyms: []string{store.IDField, "user_id", "userId", "uid"}}),
		Email:       NormalizeEmail(resolveString(raw, emailField)),
		DisplayName: resolveString(raw, displayNameField),
		Phone:       resolveString(raw, phoneField),
		Address:     resolveString(raw, addressField),
		Occupation:  resolveString(raw, occupationField),
		BankName:    resolveString(raw, bankNameField),
		BankAccount: resolveString(raw, bankAccountField),
		Status:      normalizeUserStatus(raw),
		CreatedAt:   resolveTime(raw, createdAtField),
		LastLogin:   resolveTime(raw, lastLoginField),
	}
}

// NormalizeInvestment maps a raw investments or investment_requests record
// to the canonical investment shape.
func NormalizeInvestment(raw store.RawRecord) domain.Investment {
	return domain.Investment{
		ID:                 resolveString(raw, fieldSpec{synonyms: []string{store.IDField}}),
		UserID:             resolveString(raw, userIDField),
		UserEmail:          NormalizeEmail(resolveString(raw, emailField)),
		PlotID:             resolveString(raw, plotIDField),
		ProjectID:          resolveString(raw, projectIDField),
		AreaUnits:          resolveNumber(raw, areaField),
		AmountPaid:         resolveNumber(raw, amountField),
		PricePerUnit:       resolveNumber(raw, pricePerUnitField),
		Status:             normalizeInvestmentStatus(resolveString(raw, investmentStatusField)),
		PaymentMethod:      resolveString(raw, paymentMethodField),
		Source:             normalizeSource(resolveString(raw, sourceField)),
		CreatedAt:          resolveTime(raw, investmentCreatedAtField),
		LinkedInvestmentID: resolveString(raw, linkedInvestmentField),
	}
}

// NormalizeOwnership maps a raw plot_ownership record to the canonical
// ownership shape.
func NormalizeOwnership(raw store.RawRecord) domain.Ownership {
	return domain.Ownership{
		ID:           resolveString(raw, fieldSpec{synonyms: []string{store.IDField}}),
		UserID:       resolveString(raw, userIDField),
		PlotID:       resolveString(raw, plotIDField),
		InvestmentID: resolveString(raw, ownershipInvestmentIDField),
		AreaOwned:    resolveNumber(raw, areaOwnedField),
		AmountPaid:   resolveNumber(raw, amountField),
		PricePerUnit: resolveNumber(raw, pricePerUnitField),
		CreatedAt:    resolveTime(raw, investmentCreatedAtField),
		Source:       normalizeSource(resolveString(raw, sourceField)),
	}
}

// resolveRaw applies the field resolution policy: ranked synonyms in order,
// then the token fallback scan over sorted keys for determinism.
func resolveRaw(raw store.RawRecord, spec fieldSpec) any {
	for _, key := range spec.synonyms {
		if v, ok := raw[key]; ok && !isEmptyValue(v) {
			return v
		}
	}
	if len(spec.tokens) == 0 {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lower := strings.ToLower(k)
		for _, token := range spec.tokens {
			if strings.Contains(lower, token) {
				if v := raw[k]; !isEmptyValue(v) {
					return v
				}
				break
			}
		}
	}
	return nil
}

func resolveString(raw store.RawRecord, spec fieldSpec) string {
	return coerceString(resolveRaw(raw, spec))
}

func resolveNumber(raw store.RawRecord, spec fieldSpec) float64 {
	return coerceNumber(resolveRaw(raw, spec))
}

func resolveTime(raw store.RawRecord, spec fieldSpec) time.Time {
	return coerceTime(resolveRaw(raw, spec))
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}

// coerceString stringifies scalar values; nested structures resolve to "".
func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// coerceNumber parses a numeric value, treating absent, malformed and
// non-finite inputs as 0 rather than failing.
func coerceNumber(v any) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// coerceTime accepts time.Time values, common string layouts and epoch
// numbers (seconds or milliseconds). Unparseable input yields the zero time.
func coerceTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val.UTC()
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(val)); err == nil {
				return t.UTC()
			}
		}
		return time.Time{}
	case float64, int, int32, int64:
		return epochToTime(coerceNumber(val))
	default:
		return time.Time{}
	}
}

func epochToTime(epoch float64) time.Time {
	if epoch <= 0 {
		return time.Time{}
	}
	// values past the year ~33658 in seconds are epoch milliseconds
	if epoch > 1e12 {
		return time.UnixMilli(int64(epoch)).UTC()
	}
	return time.Unix(int64(epoch), 0).UTC()
}

// normalizeUserStatus implements the three-valued status rule: an explicit
// string status wins, a boolean isActive field is authoritative only when no
// string status exists, and everything else is Unknown.
func normalizeUserStatus(raw store.RawRecord) domain.UserStatus {
	status := strings.ToLower(resolveString(raw, userStatusField))
	switch status {
	case "active":
		return domain.UserStatusActive
	case "inactive", "disabled", "banned", "blocked":
		return domain.UserStatusInactive
	}
	if status == "" {
		for _, key := range isActiveSynonyms {
			if v, ok := raw[key]; ok {
				if active, isBool := v.(bool); isBool {
					if active {
						return domain.UserStatusActive
					}
					return domain.UserStatusInactive
				}
			}
		}
	}
	return domain.UserStatusUnknown
}

func normalizeInvestmentStatus(status string) domain.InvestmentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending":
		return domain.InvestmentStatusPending
	case "approved":
		return domain.InvestmentStatusApproved
	case "completed", "complete", "success", "successful":
		return domain.InvestmentStatusCompleted
	case "active":
		return domain.InvestmentStatusActive
	default:
		return domain.InvestmentStatusOther
	}
}

func normalizeSource(source string) domain.InvestmentSource {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "manual_admin_entry", "manual", "admin", "admin_entry":
		return domain.SourceManualAdminEntry
	case "migration", "migrated", "backfill":
		return domain.SourceMigration
	default:
		return domain.SourceOrganicPurchase
	}
}
