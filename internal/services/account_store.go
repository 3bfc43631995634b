package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/mobank/backend/internal/models"
	"github.com/shopspring/decimal"
)

// AccountStore is the durable storage and lookup layer for account records.
// It never adjusts balances on its own; setBalance is only called by the
// ledger inside the same database transaction as the matching log append.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

// Create inserts a new account inside the caller's transaction and returns
// the assigned account number.
func (s *AccountStore) Create(tx *sql.Tx, data models.NewAccountData) (int64, error) {
	var accountNumber int64
	err := tx.QueryRow(`
		INSERT INTO accounts
		(category, full_name, email, mobile, gender, date_of_birth, credential_hash, role, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
		RETURNING account_number`,
		data.Category, data.FullName, data.Email, data.Mobile, data.Gender,
		data.DateOfBirth, data.CredentialHash, data.Role).Scan(&accountNumber)
	if err != nil {
		return 0, classifyContactConflict(err)
	}
	return accountNumber, nil
}

// Get fetches a single account by number.
func (s *AccountStore) Get(ctx context.Context, accountNumber int64) (*models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		SELECT account_number, category, full_name, email, mobile, gender,
		       date_of_birth, credential_hash, role, balance
		FROM accounts
		WHERE account_number = $1`, accountNumber))
}

// GetByContact fetches an account by email or mobile, used at login time.
func (s *AccountStore) GetByContact(ctx context.Context, contact string) (*models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		SELECT account_number, category, full_name, email, mobile, gender,
		       date_of_birth, credential_hash, role, balance
		FROM accounts
		WHERE email = $1 OR mobile = $1
		LIMIT 1`, contact))
}

// UpdateProfile performs a full-record update of the mutable profile fields,
// including the credential hash and role.
func (s *AccountStore) UpdateProfile(ctx context.Context, accountNumber int64, upd models.ProfileUpdate) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET category = $1, full_name = $2, email = $3, mobile = $4,
		    gender = $5, date_of_birth = $6, credential_hash = $7, role = $8
		WHERE account_number = $9`,
		upd.Category, upd.FullName, upd.Email, upd.Mobile, upd.Gender,
		upd.DateOfBirth, upd.CredentialHash, upd.Role, accountNumber)
	if err != nil {
		return classifyContactConflict(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	log.Printf("[ACCOUNT] Profile updated for account %d", accountNumber)
	return nil
}

// lockForUpdate reads an account row under FOR UPDATE so the balance
// read-modify-write is serialized per account for the life of the
// transaction.
func (s *AccountStore) lockForUpdate(tx *sql.Tx, accountNumber int64) (*models.Account, error) {
	return s.scanAccount(tx.QueryRow(`
		SELECT account_number, category, full_name, email, mobile, gender,
		       date_of_birth, credential_hash, role, balance
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE`, accountNumber))
}

// setBalance writes the stored balance. It carries no invariant enforcement
// of its own; the ledger pairs every call with a TransactionLog append in
// the same transaction.
func (s *AccountStore) setBalance(tx *sql.Tx, accountNumber int64, newBalance decimal.Decimal) error {
	result, err := tx.Exec(`
		UPDATE accounts SET balance = $1 WHERE account_number = $2`,
		newBalance, accountNumber)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *AccountStore) scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.AccountNumber, &account.Category, &account.FullName,
		&account.Email, &account.Mobile, &account.Gender,
		&account.DateOfBirth, &account.CredentialHash, &account.Role,
		&account.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return &account, nil
}

// classifyContactConflict maps Postgres unique violations on the contact
// columns to ErrDuplicateContact.
func classifyContactConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateContact
	}
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}
