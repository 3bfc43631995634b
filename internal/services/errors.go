package services

import "errors"

// Domain errors surfaced by the ledger and stores. Handlers translate these
// into HTTP status codes; anything not listed here is wrapped as
// ErrStorageFailure and aborts the operation without partial effect.
var (
	// ErrUnauthorized means the actor's role does not permit the operation.
	ErrUnauthorized = errors.New("operation not permitted for this role")

	// ErrSelfServiceNotAllowed means a teller tried an assisted operation
	// against their own account.
	ErrSelfServiceNotAllowed = errors.New("transaction not allowed for self")

	// ErrSameAccount means sender and receiver of a transfer are identical.
	ErrSameAccount = errors.New("cannot transfer to same account")

	// ErrAccountNotFound means the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds means the debit would take the balance negative.
	// A debit of exactly the full balance succeeds.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrInvalidAmount means the amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrDuplicateContact means the email or mobile is already registered.
	ErrDuplicateContact = errors.New("email or mobile already exists")

	// ErrStorageFailure wraps unclassified storage-layer failures.
	ErrStorageFailure = errors.New("storage failure")
)
