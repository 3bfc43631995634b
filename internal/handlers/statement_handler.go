package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mobank/backend/internal/middleware"
	"github.com/mobank/backend/internal/models"
	"github.com/mobank/backend/internal/services"
)

// StatementHandler serves statement and audit queries. Ranges are inclusive
// calendar days supplied as from/to query parameters.
type StatementHandler struct {
	statements *services.StatementService
}

func NewStatementHandler(statements *services.StatementService) *StatementHandler {
	return &StatementHandler{statements: statements}
}

// OwnStatement returns the actor's statement for a date range
// @Summary Get own account statement
// @Tags statements
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD), inclusive"
// @Success 200 {object} services.Statement
// @Failure 400 {object} services.ErrorResponse
// @Router /statements/me [get]
func (h *StatementHandler) OwnStatement(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	statement, err := h.statements.AccountStatement(r.Context(), actor.AccountNumber, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statement)
}

// AccountStatement returns a customer's statement for teller screens
// @Summary Get a customer account statement
// @Tags statements
// @Produce json
// @Param accountNumber path int true "Account number"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD), inclusive"
// @Success 200 {object} services.Statement
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /statements/{accountNumber} [get]
func (h *StatementHandler) AccountStatement(w http.ResponseWriter, r *http.Request) {
	accountNumber, ok := parseAccountNumber(w, chi.URLParam(r, "accountNumber"))
	if !ok {
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	statement, err := h.statements.AccountStatement(r.Context(), accountNumber, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statement)
}

// OperatorStatement returns the postings a teller initiated in a range.
// Staff may only audit themselves; administrators may audit anyone.
// @Summary Get a staff activity audit
// @Tags statements
// @Produce json
// @Param accountNumber path int true "Operator account number"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD), inclusive"
// @Success 200 {object} services.OperatorStatement
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /statements/operator/{accountNumber} [get]
func (h *StatementHandler) OperatorStatement(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	operatorAccount, ok := parseAccountNumber(w, chi.URLParam(r, "accountNumber"))
	if !ok {
		return
	}

	if actor.Role != models.RoleAdmin && operatorAccount != actor.AccountNumber {
		services.SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	statement, err := h.statements.OperatorStatement(r.Context(), operatorAccount, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statement)
}

func parseDateRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	from, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("from"), time.Local)
	if err != nil {
		services.SendErrorResponse(w, "Invalid from date", http.StatusBadRequest, nil)
		return from, to, false
	}

	to, err = time.ParseInLocation("2006-01-02", r.URL.Query().Get("to"), time.Local)
	if err != nil {
		services.SendErrorResponse(w, "Invalid to date", http.StatusBadRequest, nil)
		return from, to, false
	}

	if from.After(to) {
		services.SendErrorResponse(w, "From date can not exceed to date", http.StatusBadRequest, nil)
		return from, to, false
	}

	return from, to, true
}
