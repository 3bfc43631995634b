package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mobank/backend/internal/middleware"
	"github.com/mobank/backend/internal/services"
	"github.com/shopspring/decimal"
)

// LedgerHandler serves the money-movement endpoints. Authorization beyond
// route-level role gating (self-service rules, funds checks) lives in the
// ledger itself.
type LedgerHandler struct {
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewLedgerHandler(ledger *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type AssistedOperationRequest struct {
	AccountNumber int64           `json:"account_number" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	SenderAccount   int64           `json:"sender_account" validate:"required"`
	ReceiverAccount int64           `json:"receiver_account" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
}

type BalanceResponse struct {
	AvailableBalance decimal.Decimal `json:"available_balance"`
}

// SelfWithdraw debits the actor's own account
// @Summary Withdraw from own account
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body WithdrawRequest true "Withdrawal amount"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /ledger/withdraw [post]
func (h *LedgerHandler) SelfWithdraw(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req WithdrawRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	newBalance, err := h.ledger.SelfWithdraw(r.Context(), actor, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BalanceResponse{AvailableBalance: newBalance})
}

// AssistedDeposit credits a customer account on the actor's authority
// @Summary Deposit into a customer account
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body AssistedOperationRequest true "Target account and amount"
// @Success 200 {object} BalanceResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /ledger/deposit [post]
func (h *LedgerHandler) AssistedDeposit(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req AssistedOperationRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if !services.IsValidAccountNumber(req.AccountNumber) {
		services.SendErrorResponse(w, "Invalid Account Number", http.StatusBadRequest, nil)
		return
	}

	newBalance, err := h.ledger.AssistedDeposit(r.Context(), actor, req.AccountNumber, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BalanceResponse{AvailableBalance: newBalance})
}

// AssistedWithdraw debits a customer account on the actor's authority
// @Summary Withdraw from a customer account
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body AssistedOperationRequest true "Target account and amount"
// @Success 200 {object} BalanceResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /ledger/assisted-withdraw [post]
func (h *LedgerHandler) AssistedWithdraw(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req AssistedOperationRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if !services.IsValidAccountNumber(req.AccountNumber) {
		services.SendErrorResponse(w, "Invalid Account Number", http.StatusBadRequest, nil)
		return
	}

	newBalance, err := h.ledger.AssistedWithdraw(r.Context(), actor, req.AccountNumber, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BalanceResponse{AvailableBalance: newBalance})
}

// Transfer moves funds between two customer accounts
// @Summary Transfer between customer accounts
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Sender, receiver and amount"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /ledger/transfer [post]
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req TransferRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if !services.IsValidAccountNumber(req.SenderAccount) || !services.IsValidAccountNumber(req.ReceiverAccount) {
		services.SendErrorResponse(w, "Both Account Number should be valid", http.StatusBadRequest, nil)
		return
	}

	newBalance, err := h.ledger.Transfer(r.Context(), actor, req.SenderAccount, req.ReceiverAccount, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BalanceResponse{AvailableBalance: newBalance})
}
