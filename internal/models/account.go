package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account roles. The role governs which ledger operations an actor may
// perform and which API routes it can reach.
const (
	RoleAdmin    = "Admin"
	RoleCustomer = "Customer"
	RoleStaff    = "Staff"
)

// Account categories.
const (
	CategoryCurrent = "Current"
	CategorySavings = "Savings"
)

// Genders.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Account is one row of the accounts table. Balance is only ever written
// through a ledger posting; CredentialHash is an argon2id digest in
// "salt$hash" base64 form.
type Account struct {
	AccountNumber  int64           `json:"account_number" db:"account_number"`
	Category       string          `json:"category" db:"category"`
	FullName       string          `json:"full_name" db:"full_name"`
	Email          string          `json:"email" db:"email"`
	Mobile         string          `json:"mobile" db:"mobile"`
	Gender         string          `json:"gender" db:"gender"`
	DateOfBirth    time.Time       `json:"date_of_birth" db:"date_of_birth"`
	CredentialHash string          `json:"-" db:"credential_hash"`
	Role           string          `json:"role" db:"role"`
	Balance        decimal.Decimal `json:"balance" db:"balance"`
}

// Actor identifies the authenticated account performing an operation. It is
// resolved from the request token and passed explicitly into every ledger
// call; there is no ambient session state.
type Actor struct {
	AccountNumber int64  `json:"account_number"`
	Role          string `json:"role"`
}

// IsTeller reports whether the actor may perform assisted operations on
// other customers' accounts.
func (a Actor) IsTeller() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}

// NewAccountData carries the profile fields for account creation. The
// credential arrives already hashed; opening balance is posted separately by
// the ledger.
type NewAccountData struct {
	Category       string
	FullName       string
	Email          string
	Mobile         string
	Gender         string
	DateOfBirth    time.Time
	CredentialHash string
	Role           string
}

// ProfileUpdate is a full-record KYC update of the mutable profile fields.
type ProfileUpdate struct {
	Category       string
	FullName       string
	Email          string
	Mobile         string
	Gender         string
	DateOfBirth    time.Time
	CredentialHash string
	Role           string
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleCustomer || role == RoleStaff
}

func ValidCategory(category string) bool {
	return category == CategoryCurrent || category == CategorySavings
}

func ValidGender(gender string) bool {
	return gender == GenderMale || gender == GenderFemale || gender == GenderOther
}
