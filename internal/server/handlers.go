package server

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/service"
)

const operatorHeader = "X-Operator"

// APIHandlers exposes HTTP handlers for the admin REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.Reconciler
	warmer  *service.PortfolioWarmer
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.Reconciler) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
		warmer:  service.NewPortfolioWarmer(svc, 4),
	}
}

type statusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

type mergeRequest struct {
	PrimaryID   string `json:"primaryId"`
	SecondaryID string `json:"secondaryId"`
}

type manualInvestmentRequest struct {
	UserID        string  `json:"userId"`
	UserEmail     string  `json:"userEmail"`
	PlotID        string  `json:"plotId"`
	ProjectID     string  `json:"projectId"`
	AreaUnits     float64 `json:"areaUnits"`
	AmountPaid    float64 `json:"amountPaid"`
	PricePerUnit  float64 `json:"pricePerUnit"`
	PaymentMethod string  `json:"paymentMethod"`
}

type migrationReportResponse struct {
	TotalInvestments  int      `json:"totalInvestments"`
	ExistingOwnership int      `json:"existingOwnership"`
	Created           int      `json:"created"`
	Failed            int      `json:"failed"`
	Success           bool     `json:"success"`
	Errors            []string `json:"errors"`
}

const displayedErrorCap = 20

func (h *APIHandlers) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users for duplicate detection", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}

	groups := service.DetectDuplicates(users)
	respondJSON(w, http.StatusOK, map[string]any{
		"totalUsers": len(users),
		"groups":     groups,
	})
}

func (h *APIHandlers) handleMerge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	operator, ok := requireOperator(w, r)
	if !ok {
		return
	}

	var payload mergeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	merged, err := h.service.Merge(r.Context(), payload.PrimaryID, payload.SecondaryID, operator)
	if err != nil {
		h.writeServiceError(w, err, "merge failed",
			"primaryId", payload.PrimaryID, "secondaryId", payload.SecondaryID)
		return
	}

	respondJSON(w, http.StatusOK, merged)
}

func (h *APIHandlers) handleUser(w http.ResponseWriter, r *http.Request) {
	userID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		operator, ok := requireOperator(w, r)
		if !ok {
			return
		}
		if err := h.service.DeleteDuplicate(r.Context(), userID, operator); err != nil {
			h.writeServiceError(w, err, "delete failed", "userId", userID)
			return
		}
		respondJSON(w, http.StatusOK, statusResponse{Status: "deleted", ID: userID})
	case http.MethodGet:
		user, err := h.service.GetUser(r.Context(), userID)
		if err != nil {
			h.writeServiceError(w, err, "user lookup failed", "userId", userID)
			return
		}
		respondJSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}

func (h *APIHandlers) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/portfolio/"), "/")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "user lookup failed", "userId", userID)
		return
	}

	portfolio, err := h.service.Portfolio(r.Context(), user.ID, user.Email)
	if err != nil {
		h.writeServiceError(w, err, "portfolio aggregation failed", "userId", userID)
		return
	}

	respondJSON(w, http.StatusOK, portfolio)
}

func (h *APIHandlers) handleWarmPortfolios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	warmed, err := h.warmer.WarmAll(r.Context())
	if err != nil {
		var taskErr *service.TaskError
		if errors.As(err, &taskErr) {
			respondJSON(w, http.StatusOK, map[string]any{
				"warmed": warmed,
				"failed": len(taskErr.Errors),
			})
			return
		}
		h.writeServiceError(w, err, "portfolio warm failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"warmed": warmed, "failed": 0})
}

func (h *APIHandlers) handleInvestments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	operator, ok := requireOperator(w, r)
	if !ok {
		return
	}

	var payload manualInvestmentRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.RecordManualInvestment(r.Context(), service.ManualInvestmentInput{
		UserID:        payload.UserID,
		UserEmail:     payload.UserEmail,
		PlotID:        payload.PlotID,
		ProjectID:     payload.ProjectID,
		AreaUnits:     payload.AreaUnits,
		AmountPaid:    payload.AmountPaid,
		PricePerUnit:  payload.PricePerUnit,
		PaymentMethod: payload.PaymentMethod,
	}, operator)
	if err != nil {
		h.writeServiceError(w, err, "manual investment failed", "plotId", payload.PlotID)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (h *APIHandlers) handleRunMigration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	operator, ok := requireOperator(w, r)
	if !ok {
		return
	}

	report, err := h.service.RunMigration(r.Context(), operator)
	if err != nil {
		h.writeServiceError(w, err, "migration failed")
		return
	}

	respondJSON(w, http.StatusOK, migrationReportResponse{
		TotalInvestments:  report.TotalInvestments,
		ExistingOwnership: report.ExistingOwnership,
		Created:           report.Created,
		Failed:            report.Failed,
		Success:           report.Success(),
		Errors:            report.DisplayErrors(displayedErrorCap),
	})
}

func (h *APIHandlers) handleMigrationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	status, err := h.service.CheckMigrationStatus(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "migration status check failed")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

func (h *APIHandlers) handleExportUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "user export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"id", "email", "display_name", "phone", "status", "created_at", "last_login"})
	for _, u := range users {
		_ = writer.Write([]string{
			u.ID,
			u.Email,
			u.DisplayName,
			u.Phone,
			string(u.Status),
			formatTime(u.CreatedAt),
			formatTime(u.LastLogin),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		// headers are already sent; the truncated response cannot be repaired
		h.logger.Error("user export write failed", "error", err)
	}
}

// writeServiceError translates engine error types onto HTTP status codes.
func (h *APIHandlers) writeServiceError(w http.ResponseWriter, err error, msg string, args ...any) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}
	var notFoundErr *service.NotFoundError
	if errors.As(err, &notFoundErr) {
		writeError(w, http.StatusNotFound, notFoundErr.Error())
		return
	}
	var mergeErr *service.MergeStateError
	if errors.As(err, &mergeErr) {
		h.logger.Error(msg, append(args, "error", err, "phase", mergeErr.Phase)...)
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":          mergeErr.Error(),
			"phase":          string(mergeErr.Phase),
			"primaryUpdated": mergeErr.PrimaryUpdated(),
		})
		return
	}

	h.logger.Error(msg, append(args, "error", err)...)
	writeError(w, http.StatusInternalServerError, msg)
}

func requireOperator(w http.ResponseWriter, r *http.Request) (string, bool) {
	operator := strings.TrimSpace(r.Header.Get(operatorHeader))
	if operator == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s header is required", operatorHeader))
		return "", false
	}
	return operator, true
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
