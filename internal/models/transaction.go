package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Posting directions.
const (
	DirectionCredit = "CREDIT"
	DirectionDebit  = "DEBIT"
)

// TransactionRecord is one immutable ledger entry. For every record,
// BalanceAfter = BalanceBefore + Amount on a credit and
// BalanceBefore - Amount on a debit, with Amount > 0.
//
// The two legs of a transfer share one TransferID and one Timestamp so they
// can be correlated without parsing descriptions.
type TransactionRecord struct {
	TransactionID   int64           `json:"transaction_id" db:"transaction_id"`
	AccountNumber   int64           `json:"account_number" db:"account_number"`
	Timestamp       time.Time       `json:"timestamp" db:"timestamp"`
	Direction       string          `json:"direction" db:"direction"`
	BalanceBefore   decimal.Decimal `json:"balance_before" db:"balance_before"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after" db:"balance_after"`
	Description     string          `json:"description" db:"description"`
	OperatorAccount int64           `json:"operator_account" db:"operator_account"`
	TransferID      *uuid.UUID      `json:"transfer_id,omitempty" db:"transfer_id"`
}
