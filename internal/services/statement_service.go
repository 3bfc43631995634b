package services

import (
	"context"
	"log"
	"time"

	"github.com/mobank/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Statement is an account statement over an inclusive calendar-day range:
// the account header plus its ledger entries and credit/debit totals. The
// presentation layer renders it; this service only assembles the data.
type Statement struct {
	Account     *models.Account            `json:"account"`
	FromDate    string                     `json:"from_date"`
	ToDate      string                     `json:"to_date"`
	Entries     []models.TransactionRecord `json:"entries"`
	CreditTotal decimal.Decimal            `json:"credit_total"`
	DebitTotal  decimal.Decimal            `json:"debit_total"`
}

// OperatorStatement is the staff-activity audit view: every posting a
// teller initiated in the range, with the total volume handled and the
// floating amount (credits minus debits) they moved.
type OperatorStatement struct {
	Operator       *models.Account            `json:"operator"`
	FromDate       string                     `json:"from_date"`
	ToDate         string                     `json:"to_date"`
	Entries        []models.TransactionRecord `json:"entries"`
	CreditTotal    decimal.Decimal            `json:"credit_total"`
	DebitTotal     decimal.Decimal            `json:"debit_total"`
	TotalVolume    decimal.Decimal            `json:"total_volume"`
	FloatingAmount decimal.Decimal            `json:"floating_amount"`
}

type StatementService struct {
	accounts *AccountStore
	txLog    *TransactionLog
}

func NewStatementService(accounts *AccountStore, txLog *TransactionLog) *StatementService {
	return &StatementService{accounts: accounts, txLog: txLog}
}

// AccountStatement assembles the statement for one account. A range with no
// postings yields a statement with an empty entry list, not an error.
func (s *StatementService) AccountStatement(ctx context.Context, accountNumber int64, from, to time.Time) (*Statement, error) {
	account, err := s.accounts.Get(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	entries, err := s.txLog.QueryByAccount(ctx, accountNumber, from, to)
	if err != nil {
		return nil, err
	}

	creditTotal, debitTotal := totals(entries)
	log.Printf("[STATEMENT] Account %d: %d entries between %s and %s",
		accountNumber, len(entries), from.Format("2006-01-02"), to.Format("2006-01-02"))

	return &Statement{
		Account:     account,
		FromDate:    from.Format("2006-01-02"),
		ToDate:      to.Format("2006-01-02"),
		Entries:     entries,
		CreditTotal: creditTotal,
		DebitTotal:  debitTotal,
	}, nil
}

// OperatorStatement assembles the audit view of one teller's activity.
func (s *StatementService) OperatorStatement(ctx context.Context, operatorAccount int64, from, to time.Time) (*OperatorStatement, error) {
	operator, err := s.accounts.Get(ctx, operatorAccount)
	if err != nil {
		return nil, err
	}

	entries, err := s.txLog.QueryByOperator(ctx, operatorAccount, from, to)
	if err != nil {
		return nil, err
	}

	creditTotal, debitTotal := totals(entries)
	log.Printf("[STATEMENT] Operator %d: %d postings between %s and %s",
		operatorAccount, len(entries), from.Format("2006-01-02"), to.Format("2006-01-02"))

	return &OperatorStatement{
		Operator:       operator,
		FromDate:       from.Format("2006-01-02"),
		ToDate:         to.Format("2006-01-02"),
		Entries:        entries,
		CreditTotal:    creditTotal,
		DebitTotal:     debitTotal,
		TotalVolume:    creditTotal.Add(debitTotal),
		FloatingAmount: creditTotal.Sub(debitTotal),
	}, nil
}

func totals(entries []models.TransactionRecord) (creditTotal, debitTotal decimal.Decimal) {
	creditTotal, debitTotal = decimal.Zero, decimal.Zero
	for _, entry := range entries {
		if entry.Direction == models.DirectionCredit {
			creditTotal = creditTotal.Add(entry.Amount)
		} else {
			debitTotal = debitTotal.Add(entry.Amount)
		}
	}
	return creditTotal, debitTotal
}
