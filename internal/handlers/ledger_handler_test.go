package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mobank/backend/internal/middleware"
	"github.com/mobank/backend/internal/models"
	"github.com/mobank/backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newLedgerHandlerFixture(t *testing.T) (*LedgerHandler, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	accounts := services.NewAccountStore(db)
	txLog := services.NewTransactionLog(db)
	ledger := services.NewLedgerService(db, accounts, txLog)
	return NewLedgerHandler(ledger), mock, func() { db.Close() }
}

func authenticatedRequest(method, target string, body []byte, actor models.Actor) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBuffer(body))
	return r.WithContext(middleware.ContextWithActor(r.Context(), actor))
}

func lockedAccountRows(accountNumber int64, balance string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"account_number", "category", "full_name", "email", "mobile", "gender",
		"date_of_birth", "credential_hash", "role", "balance",
	}).AddRow(accountNumber, models.CategorySavings, "Test Holder",
		"holder@example.com", "9876543210", models.GenderFemale,
		time.Date(1990, 5, 14, 0, 0, 0, 0, time.Local), "salt$hash", models.RoleCustomer, balance)
}

func TestLedgerHandler_SelfWithdraw(t *testing.T) {
	handler, mock, closeDB := newLedgerHandlerFixture(t)
	defer closeDB()

	actor := models.Actor{AccountNumber: 100105, Role: models.RoleCustomer}

	t.Run("successful withdrawal returns new balance", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs(actor.AccountNumber).
			WillReturnRows(lockedAccountRows(actor.AccountNumber, "500"))
		mock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(30000001))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(WithdrawRequest{Amount: decimal.NewFromInt(100)})
		r := authenticatedRequest("POST", "/api/v1/ledger/withdraw", body, actor)
		w := httptest.NewRecorder()

		handler.SelfWithdraw(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response BalanceResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.True(t, response.AvailableBalance.Equal(decimal.NewFromInt(400)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance maps to conflict", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs(actor.AccountNumber).
			WillReturnRows(lockedAccountRows(actor.AccountNumber, "50"))
		mock.ExpectRollback()

		body, _ := json.Marshal(WithdrawRequest{Amount: decimal.NewFromInt(100)})
		r := authenticatedRequest("POST", "/api/v1/ledger/withdraw", body, actor)
		w := httptest.NewRecorder()

		handler.SelfWithdraw(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("zero amount maps to bad request", func(t *testing.T) {
		body, _ := json.Marshal(WithdrawRequest{Amount: decimal.Zero})
		r := authenticatedRequest("POST", "/api/v1/ledger/withdraw", body, actor)
		w := httptest.NewRecorder()

		handler.SelfWithdraw(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated request", func(t *testing.T) {
		body, _ := json.Marshal(WithdrawRequest{Amount: decimal.NewFromInt(100)})
		r := httptest.NewRequest("POST", "/api/v1/ledger/withdraw", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.SelfWithdraw(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLedgerHandler_AssistedDeposit(t *testing.T) {
	handler, mock, closeDB := newLedgerHandlerFixture(t)
	defer closeDB()

	teller := models.Actor{AccountNumber: 100002, Role: models.RoleStaff}

	t.Run("successful deposit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs(int64(100105)).
			WillReturnRows(lockedAccountRows(100105, "200"))
		mock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(30000002))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(AssistedOperationRequest{AccountNumber: 100105, Amount: decimal.NewFromInt(300)})
		r := authenticatedRequest("POST", "/api/v1/ledger/deposit", body, teller)
		w := httptest.NewRecorder()

		handler.AssistedDeposit(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response BalanceResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.True(t, response.AvailableBalance.Equal(decimal.NewFromInt(500)))
	})

	t.Run("short account number rejected", func(t *testing.T) {
		body, _ := json.Marshal(AssistedOperationRequest{AccountNumber: 12345, Amount: decimal.NewFromInt(300)})
		r := authenticatedRequest("POST", "/api/v1/ledger/deposit", body, teller)
		w := httptest.NewRecorder()

		handler.AssistedDeposit(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("teller targeting own account is forbidden", func(t *testing.T) {
		body, _ := json.Marshal(AssistedOperationRequest{AccountNumber: teller.AccountNumber, Amount: decimal.NewFromInt(300)})
		r := authenticatedRequest("POST", "/api/v1/ledger/deposit", body, teller)
		w := httptest.NewRecorder()

		handler.AssistedDeposit(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestLedgerHandler_Transfer(t *testing.T) {
	handler, mock, closeDB := newLedgerHandlerFixture(t)
	defer closeDB()

	teller := models.Actor{AccountNumber: 100002, Role: models.RoleAdmin}

	t.Run("successful transfer returns sender balance", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs(int64(100105)).
			WillReturnRows(lockedAccountRows(100105, "1000"))
		mock.ExpectQuery("FOR UPDATE").
			WithArgs(int64(100203)).
			WillReturnRows(lockedAccountRows(100203, "0"))
		mock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(30000003))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(30000004))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(TransferRequest{SenderAccount: 100105, ReceiverAccount: 100203, Amount: decimal.NewFromInt(250)})
		r := authenticatedRequest("POST", "/api/v1/ledger/transfer", body, teller)
		w := httptest.NewRecorder()

		handler.Transfer(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response BalanceResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.True(t, response.AvailableBalance.Equal(decimal.NewFromInt(750)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("same account maps to bad request", func(t *testing.T) {
		body, _ := json.Marshal(TransferRequest{SenderAccount: 100105, ReceiverAccount: 100105, Amount: decimal.NewFromInt(250)})
		r := authenticatedRequest("POST", "/api/v1/ledger/transfer", body, teller)
		w := httptest.NewRecorder()

		handler.Transfer(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid account numbers rejected", func(t *testing.T) {
		body, _ := json.Marshal(TransferRequest{SenderAccount: 123, ReceiverAccount: 100203, Amount: decimal.NewFromInt(250)})
		r := authenticatedRequest("POST", "/api/v1/ledger/transfer", body, teller)
		w := httptest.NewRecorder()

		handler.Transfer(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		r := authenticatedRequest("POST", "/api/v1/ledger/transfer",
			[]byte(`{"sender_account":100105,"receiver_account":100203,"amount":"250","memo":"hi"}`), teller)
		w := httptest.NewRecorder()

		handler.Transfer(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
