package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mobank/backend/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerService is the only component that mutates balances. Every balance
// write is paired with a TransactionLog append inside one database
// transaction, so either both are persisted or neither is. Rows are locked
// with FOR UPDATE to serialize concurrent operations per account; transfers
// lock both accounts in ascending account-number order to avoid deadlocks
// between opposing transfers.
type LedgerService struct {
	db       *sql.DB
	accounts *AccountStore
	txLog    *TransactionLog
}

func NewLedgerService(db *sql.DB, accounts *AccountStore, txLog *TransactionLog) *LedgerService {
	return &LedgerService{db: db, accounts: accounts, txLog: txLog}
}

// OpenAccount creates a customer account and posts its opening credit.
// Admin only. Returns the assigned account number.
func (s *LedgerService) OpenAccount(ctx context.Context, actor models.Actor, profile models.NewAccountData, openingBalance decimal.Decimal) (int64, error) {
	if actor.Role != models.RoleAdmin {
		return 0, ErrUnauthorized
	}
	if !openingBalance.IsPositive() {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	accountNumber, err := s.accounts.Create(tx, profile)
	if err != nil {
		return 0, err
	}

	_, err = s.txLog.Append(tx, models.TransactionRecord{
		AccountNumber:   accountNumber,
		Timestamp:       time.Now(),
		Direction:       models.DirectionCredit,
		BalanceBefore:   decimal.Zero,
		Amount:          openingBalance,
		BalanceAfter:    openingBalance,
		Description:     "Account opening balance",
		OperatorAccount: actor.AccountNumber,
	})
	if err != nil {
		return 0, err
	}

	if err := s.accounts.setBalance(tx, accountNumber, openingBalance); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("[LEDGER] Account %d opened by %d with opening balance %s",
		accountNumber, actor.AccountNumber, openingBalance)
	return accountNumber, nil
}

// SelfWithdraw debits the actor's own account. A withdrawal of exactly the
// full balance succeeds and drains the account to zero. Returns the new
// balance.
func (s *LedgerService) SelfWithdraw(ctx context.Context, actor models.Actor, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	account, err := s.accounts.lockForUpdate(tx, actor.AccountNumber)
	if err != nil {
		return decimal.Zero, err
	}
	if account.Balance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientFunds
	}

	newBalance, err := s.post(tx, account, models.DirectionDebit, amount,
		"Withdrawal from ATM", actor.AccountNumber, time.Now(), nil)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("[LEDGER] Self-withdrawal of %s from account %d, new balance %s",
		amount, actor.AccountNumber, newBalance)
	return newBalance, nil
}

// AssistedDeposit credits a customer account on behalf of a teller. Tellers
// cannot deposit into their own account through this path. Returns the
// target's new balance.
func (s *LedgerService) AssistedDeposit(ctx context.Context, actor models.Actor, targetAccount int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !actor.IsTeller() {
		return decimal.Zero, ErrUnauthorized
	}
	if targetAccount == actor.AccountNumber {
		return decimal.Zero, ErrSelfServiceNotAllowed
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	account, err := s.accounts.lockForUpdate(tx, targetAccount)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance, err := s.post(tx, account, models.DirectionCredit, amount,
		"Deposit at Bank", actor.AccountNumber, time.Now(), nil)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("[LEDGER] Deposit of %s into account %d by operator %d",
		amount, targetAccount, actor.AccountNumber)
	return newBalance, nil
}

// AssistedWithdraw debits a customer account on behalf of a teller, with
// the same authorization and self-service rules as AssistedDeposit plus a
// funds check. Returns the target's new balance.
func (s *LedgerService) AssistedWithdraw(ctx context.Context, actor models.Actor, targetAccount int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !actor.IsTeller() {
		return decimal.Zero, ErrUnauthorized
	}
	if targetAccount == actor.AccountNumber {
		return decimal.Zero, ErrSelfServiceNotAllowed
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	account, err := s.accounts.lockForUpdate(tx, targetAccount)
	if err != nil {
		return decimal.Zero, err
	}
	if account.Balance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientFunds
	}

	newBalance, err := s.post(tx, account, models.DirectionDebit, amount,
		"Withdrawal at Bank", actor.AccountNumber, time.Now(), nil)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("[LEDGER] Withdrawal of %s from account %d by operator %d",
		amount, targetAccount, actor.AccountNumber)
	return newBalance, nil
}

// Transfer moves funds between two customer accounts as one atomic unit:
// a debit leg on the sender and a credit leg on the receiver sharing one
// timestamp and one transfer id. Returns the sender's new balance.
func (s *LedgerService) Transfer(ctx context.Context, actor models.Actor, senderAccount, receiverAccount int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !actor.IsTeller() {
		return decimal.Zero, ErrUnauthorized
	}
	if senderAccount == actor.AccountNumber {
		return decimal.Zero, ErrSelfServiceNotAllowed
	}
	if senderAccount == receiverAccount {
		return decimal.Zero, ErrSameAccount
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer tx.Rollback()

	// Lock both rows in ascending account-number order so two opposing
	// transfers on the same pair cannot deadlock.
	firstLock, secondLock := senderAccount, receiverAccount
	if senderAccount > receiverAccount {
		firstLock, secondLock = receiverAccount, senderAccount
	}

	first, err := s.accounts.lockForUpdate(tx, firstLock)
	if err != nil {
		return decimal.Zero, err
	}
	second, err := s.accounts.lockForUpdate(tx, secondLock)
	if err != nil {
		return decimal.Zero, err
	}

	sender, receiver := first, second
	if first.AccountNumber != senderAccount {
		sender, receiver = second, first
	}

	if sender.Balance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientFunds
	}

	timestamp := time.Now()
	transferID := uuid.New()

	senderBalance, err := s.post(tx, sender, models.DirectionDebit, amount,
		fmt.Sprintf("Transferred to %d", receiverAccount),
		actor.AccountNumber, timestamp, &transferID)
	if err != nil {
		return decimal.Zero, err
	}

	_, err = s.post(tx, receiver, models.DirectionCredit, amount,
		fmt.Sprintf("Transferred from %d", senderAccount),
		actor.AccountNumber, timestamp, &transferID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("[LEDGER] Transfer %s of %s from account %d to %d by operator %d",
		transferID, amount, senderAccount, receiverAccount, actor.AccountNumber)
	return senderBalance, nil
}

// post appends one ledger entry and writes the matching balance within the
// caller's transaction. The account row must already be locked.
func (s *LedgerService) post(tx *sql.Tx, account *models.Account, direction string, amount decimal.Decimal, description string, operatorAccount int64, timestamp time.Time, transferID *uuid.UUID) (decimal.Decimal, error) {
	newBalance := account.Balance.Add(amount)
	if direction == models.DirectionDebit {
		newBalance = account.Balance.Sub(amount)
	}

	_, err := s.txLog.Append(tx, models.TransactionRecord{
		AccountNumber:   account.AccountNumber,
		Timestamp:       timestamp,
		Direction:       direction,
		BalanceBefore:   account.Balance,
		Amount:          amount,
		BalanceAfter:    newBalance,
		Description:     description,
		OperatorAccount: operatorAccount,
		TransferID:      transferID,
	})
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.accounts.setBalance(tx, account.AccountNumber, newBalance); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}
