package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mobank/backend/internal/models"
)

// TransactionLog is the append-only store of ledger entries. There are no
// update or delete paths; the log is the historical record the stored
// balances must always reconcile against.
type TransactionLog struct {
	db *sql.DB
}

func NewTransactionLog(db *sql.DB) *TransactionLog {
	return &TransactionLog{db: db}
}

// Append stores one entry inside the caller's transaction and returns the
// assigned transaction id.
func (l *TransactionLog) Append(tx *sql.Tx, record models.TransactionRecord) (int64, error) {
	var transactionID int64
	err := tx.QueryRow(`
		INSERT INTO transactions
		(account_number, timestamp, direction, balance_before, amount, balance_after,
		 description, operator_account, transfer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING transaction_id`,
		record.AccountNumber, record.Timestamp, record.Direction,
		record.BalanceBefore, record.Amount, record.BalanceAfter,
		record.Description, record.OperatorAccount, record.TransferID).Scan(&transactionID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return transactionID, nil
}

// QueryByAccount returns the account's entries between the start of the
// `from` day and the end of the `to` day inclusive, oldest first. An empty
// range yields an empty slice, not an error.
func (l *TransactionLog) QueryByAccount(ctx context.Context, accountNumber int64, from, to time.Time) ([]models.TransactionRecord, error) {
	return l.query(ctx, "account_number", accountNumber, from, to)
}

// QueryByOperator is QueryByAccount filtered on the operator column
// instead, used for staff activity audits.
func (l *TransactionLog) QueryByOperator(ctx context.Context, operatorAccount int64, from, to time.Time) ([]models.TransactionRecord, error) {
	return l.query(ctx, "operator_account", operatorAccount, from, to)
}

func (l *TransactionLog) query(ctx context.Context, column string, accountNumber int64, from, to time.Time) ([]models.TransactionRecord, error) {
	rows, err := l.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT transaction_id, account_number, timestamp, direction,
		       balance_before, amount, balance_after, description,
		       operator_account, transfer_id
		FROM transactions
		WHERE %s = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC, transaction_id ASC`, column),
		accountNumber, startOfDay(from), startOfDay(to).AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer rows.Close()

	records := []models.TransactionRecord{}
	for rows.Next() {
		var record models.TransactionRecord
		err := rows.Scan(
			&record.TransactionID, &record.AccountNumber, &record.Timestamp,
			&record.Direction, &record.BalanceBefore, &record.Amount,
			&record.BalanceAfter, &record.Description,
			&record.OperatorAccount, &record.TransferID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	return records, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
