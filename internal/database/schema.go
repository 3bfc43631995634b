package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
	account_number  BIGINT GENERATED BY DEFAULT AS IDENTITY (START WITH 100001) PRIMARY KEY,
	category        VARCHAR(16) NOT NULL,
	full_name       VARCHAR(128) NOT NULL,
	email           VARCHAR(128) NOT NULL UNIQUE,
	mobile          VARCHAR(16) NOT NULL UNIQUE,
	gender          VARCHAR(8) NOT NULL,
	date_of_birth   DATE NOT NULL,
	credential_hash TEXT NOT NULL,
	role            VARCHAR(16) NOT NULL DEFAULT 'Customer',
	balance         NUMERIC(14,2) NOT NULL DEFAULT 0
)`

const createTransactionsTable = `
CREATE TABLE IF NOT EXISTS transactions (
	transaction_id   BIGINT GENERATED BY DEFAULT AS IDENTITY (START WITH 30000001) PRIMARY KEY,
	account_number   BIGINT NOT NULL REFERENCES accounts(account_number),
	timestamp        TIMESTAMPTZ NOT NULL,
	direction        VARCHAR(8) NOT NULL,
	balance_before   NUMERIC(14,2) NOT NULL,
	amount           NUMERIC(14,2) NOT NULL,
	balance_after    NUMERIC(14,2) NOT NULL,
	description      VARCHAR(128) NOT NULL,
	operator_account BIGINT NOT NULL REFERENCES accounts(account_number),
	transfer_id      UUID
)`

const createTransactionIndexes = `
CREATE INDEX IF NOT EXISTS idx_transactions_account_ts ON transactions (account_number, timestamp);
CREATE INDEX IF NOT EXISTS idx_transactions_operator_ts ON transactions (operator_account, timestamp)`

// InitSchema creates the tables and seeds the bootstrap administrator.
func InitSchema(db *sql.DB, adminCredentialHash string) error {
	for _, stmt := range []string{createAccountsTable, createTransactionsTable, createTransactionIndexes} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return seedAdmin(db, adminCredentialHash)
}

// seedAdmin creates the first administrator account so the bank can be
// operated from a fresh database. Runs once; later starts are no-ops.
func seedAdmin(db *sql.DB, credentialHash string) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return fmt.Errorf("error checking seed state: %w", err)
	}
	if count > 0 {
		return nil
	}

	viper.SetDefault("seed.admin_email", "admin@mobank.xy")
	viper.SetDefault("seed.admin_mobile", "9999999999")

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error seeding admin: %w", err)
	}
	defer tx.Rollback()

	var accountNumber int64
	err = tx.QueryRow(
		`INSERT INTO accounts (category, full_name, email, mobile, gender, date_of_birth, credential_hash, role, balance)
		 VALUES ('Current', 'Administrator', $1, $2, 'Male', '1970-01-01', $3, 'Admin', 100000)
		 RETURNING account_number`,
		viper.GetString("seed.admin_email"), viper.GetString("seed.admin_mobile"), credentialHash,
	).Scan(&accountNumber)
	if err != nil {
		return fmt.Errorf("error seeding admin: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO transactions (account_number, timestamp, direction, balance_before, amount, balance_after, description, operator_account)
		 VALUES ($1, NOW(), 'CREDIT', 0, 100000, 100000, 'Account opening balance', $1)`,
		accountNumber,
	)
	if err != nil {
		return fmt.Errorf("error seeding admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error seeding admin: %w", err)
	}

	log.Printf("[SEED] Created administrator account %d", accountNumber)
	return nil
}
