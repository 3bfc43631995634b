package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mobank/backend/internal/middleware"
	"github.com/mobank/backend/internal/models"
	"github.com/mobank/backend/internal/services"
	"github.com/shopspring/decimal"
)

// AccountHandler serves account detail, opening and KYC update endpoints.
type AccountHandler struct {
	accounts  *services.AccountStore
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewAccountHandler(accounts *services.AccountStore, ledger *services.LedgerService) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// OpenAccountRequest carries the profile for a new customer account. When
// Password is empty a random initial password is generated and returned
// once in the response.
type OpenAccountRequest struct {
	Category       string          `json:"category" validate:"required,oneof=Current Savings"`
	FullName       string          `json:"full_name" validate:"required,min=2"`
	Email          string          `json:"email" validate:"required,email"`
	Mobile         string          `json:"mobile" validate:"required"`
	Gender         string          `json:"gender" validate:"required,oneof=Male Female Other"`
	DateOfBirth    string          `json:"date_of_birth" validate:"required"`
	Password       string          `json:"password" validate:"omitempty,min=6"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// UpdateKYCRequest is a full-record profile update, including role when an
// administrator promotes a customer to staff.
type UpdateKYCRequest struct {
	Category    string `json:"category" validate:"required,oneof=Current Savings"`
	FullName    string `json:"full_name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Mobile      string `json:"mobile" validate:"required"`
	Gender      string `json:"gender" validate:"required,oneof=Male Female Other"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	Role        string `json:"role" validate:"required,oneof=Admin Customer Staff"`
	Password    string `json:"password" validate:"required,min=6"`
}

// GetOwnAccount returns the authenticated actor's account details
// @Summary Get own account
// @Tags accounts
// @Produce json
// @Success 200 {object} models.Account
// @Failure 401 {object} services.ErrorResponse
// @Router /accounts/me [get]
func (h *AccountHandler) GetOwnAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	account, err := h.accounts.Get(r.Context(), actor.AccountNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// GetAccount returns a holder's details for teller screens
// @Summary Get account by number
// @Tags accounts
// @Produce json
// @Param accountNumber path int true "Account number"
// @Success 200 {object} models.Account
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{accountNumber} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountNumber, ok := parseAccountNumber(w, chi.URLParam(r, "accountNumber"))
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), accountNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// OpenAccount creates a customer account with an opening balance
// @Summary Open a new customer account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body OpenAccountRequest true "New account data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req OpenAccountRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if !services.IsValidMobile(req.Mobile) {
		services.SendErrorResponse(w, "Please provide a valid mobile number", http.StatusBadRequest, nil)
		return
	}

	dateOfBirth, err := time.ParseInLocation("2006-01-02", req.DateOfBirth, time.Local)
	if err != nil {
		services.SendErrorResponse(w, "Invalid date of birth", http.StatusBadRequest, nil)
		return
	}

	password := req.Password
	generated := false
	if password == "" {
		password = services.GeneratePassword()
		generated = true
	}

	credentialHash, err := services.HashPassword(password)
	if err != nil {
		log.Printf("[ACCOUNT] Password hashing failed: %v", err)
		services.SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	accountNumber, err := h.ledger.OpenAccount(r.Context(), actor, models.NewAccountData{
		Category:       req.Category,
		FullName:       req.FullName,
		Email:          req.Email,
		Mobile:         req.Mobile,
		Gender:         req.Gender,
		DateOfBirth:    dateOfBirth,
		CredentialHash: credentialHash,
		Role:           models.RoleCustomer,
	}, req.OpeningBalance)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := map[string]any{"account_number": accountNumber}
	if generated {
		response["password"] = password
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// UpdateKYC performs a full profile update of an account
// @Summary Update account KYC details
// @Tags accounts
// @Accept json
// @Produce json
// @Param accountNumber path int true "Account number"
// @Param request body UpdateKYCRequest true "Updated profile"
// @Success 200 {object} map[string]string
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /accounts/{accountNumber} [put]
func (h *AccountHandler) UpdateKYC(w http.ResponseWriter, r *http.Request) {
	accountNumber, ok := parseAccountNumber(w, chi.URLParam(r, "accountNumber"))
	if !ok {
		return
	}

	var req UpdateKYCRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if !services.IsValidMobile(req.Mobile) {
		services.SendErrorResponse(w, "Please provide a valid mobile number", http.StatusBadRequest, nil)
		return
	}

	dateOfBirth, err := time.ParseInLocation("2006-01-02", req.DateOfBirth, time.Local)
	if err != nil {
		services.SendErrorResponse(w, "Invalid date of birth", http.StatusBadRequest, nil)
		return
	}

	credentialHash, err := services.HashPassword(req.Password)
	if err != nil {
		log.Printf("[ACCOUNT] Password hashing failed: %v", err)
		services.SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	err = h.accounts.UpdateProfile(r.Context(), accountNumber, models.ProfileUpdate{
		Category:       req.Category,
		FullName:       req.FullName,
		Email:          req.Email,
		Mobile:         req.Mobile,
		Gender:         req.Gender,
		DateOfBirth:    dateOfBirth,
		CredentialHash: credentialHash,
		Role:           req.Role,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Customer Details Updated"})
}

// decodeRequest applies the shared request decoding rules: 1 MB body cap,
// unknown fields rejected, exactly one JSON object.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	return true
}

func parseAccountNumber(w http.ResponseWriter, raw string) (int64, bool) {
	accountNumber, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || !services.IsValidAccountNumber(accountNumber) {
		services.SendErrorResponse(w, "Invalid Account Number", http.StatusBadRequest, nil)
		return 0, false
	}
	return accountNumber, true
}
