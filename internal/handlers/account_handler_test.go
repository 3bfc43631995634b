package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/mobank/backend/internal/models"
	"github.com/mobank/backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newAccountHandlerFixture(t *testing.T) (*AccountHandler, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)

	accounts := services.NewAccountStore(db)
	txLog := services.NewTransactionLog(db)
	ledger := services.NewLedgerService(db, accounts, txLog)
	return NewAccountHandler(accounts, ledger), mock, func() { db.Close() }
}

func validOpenAccountRequest() OpenAccountRequest {
	return OpenAccountRequest{
		Category:       models.CategorySavings,
		FullName:       "New Holder",
		Email:          "new@example.com",
		Mobile:         "9876543211",
		Gender:         models.GenderMale,
		DateOfBirth:    "1995-03-02",
		OpeningBalance: decimal.NewFromInt(2500),
	}
}

func TestAccountHandler_OpenAccount(t *testing.T) {
	handler, mock, closeDB := newAccountHandlerFixture(t)
	defer closeDB()

	admin := models.Actor{AccountNumber: 100001, Role: models.RoleAdmin}

	t.Run("generated password is returned once", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO accounts").
			WillReturnRows(sqlmock.NewRows([]string{"account_number"}).AddRow(100106))
		mock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(30000001))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(validOpenAccountRequest())
		r := authenticatedRequest("POST", "/api/v1/accounts", body, admin)
		w := httptest.NewRecorder()

		handler.OpenAccount(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response map[string]any
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, float64(100106), response["account_number"])
		assert.NotEmpty(t, response["password"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("supplied password is not echoed back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO accounts").
			WillReturnRows(sqlmock.NewRows([]string{"account_number"}).AddRow(100107))
		mock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(30000002))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		req := validOpenAccountRequest()
		req.Password = "chosen-secret"
		body, _ := json.Marshal(req)
		r := authenticatedRequest("POST", "/api/v1/accounts", body, admin)
		w := httptest.NewRecorder()

		handler.OpenAccount(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response map[string]any
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotContains(t, response, "password")
	})

	t.Run("duplicate contact maps to conflict", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO accounts").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "accounts_mobile_key"})
		mock.ExpectRollback()

		body, _ := json.Marshal(validOpenAccountRequest())
		r := authenticatedRequest("POST", "/api/v1/accounts", body, admin)
		w := httptest.NewRecorder()

		handler.OpenAccount(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid mobile rejected", func(t *testing.T) {
		req := validOpenAccountRequest()
		req.Mobile = "12345"
		body, _ := json.Marshal(req)
		r := authenticatedRequest("POST", "/api/v1/accounts", body, admin)
		w := httptest.NewRecorder()

		handler.OpenAccount(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid date of birth rejected", func(t *testing.T) {
		req := validOpenAccountRequest()
		req.DateOfBirth = "02/03/1995"
		body, _ := json.Marshal(req)
		r := authenticatedRequest("POST", "/api/v1/accounts", body, admin)
		w := httptest.NewRecorder()

		handler.OpenAccount(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero opening balance rejected", func(t *testing.T) {
		req := validOpenAccountRequest()
		req.OpeningBalance = decimal.Zero
		body, _ := json.Marshal(req)
		r := authenticatedRequest("POST", "/api/v1/accounts", body, admin)
		w := httptest.NewRecorder()

		handler.OpenAccount(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccountHandler_GetAccount(t *testing.T) {
	handler, mock, closeDB := newAccountHandlerFixture(t)
	defer closeDB()

	router := chi.NewRouter()
	router.Get("/accounts/{accountNumber}", handler.GetAccount)

	t.Run("existing account", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_number, category, full_name, email, mobile, gender").
			WithArgs(int64(100105)).
			WillReturnRows(lockedAccountRows(100105, "500"))

		r := httptest.NewRequest("GET", "/accounts/100105", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var account models.Account
		json.Unmarshal(w.Body.Bytes(), &account)
		assert.Equal(t, int64(100105), account.AccountNumber)
	})

	t.Run("missing account", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_number, category, full_name, email, mobile, gender").
			WithArgs(int64(100999)).
			WillReturnRows(sqlmock.NewRows([]string{"account_number"}))

		r := httptest.NewRequest("GET", "/accounts/100999", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed account number", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/accounts/abc", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccountHandler_UpdateKYC(t *testing.T) {
	handler, mock, closeDB := newAccountHandlerFixture(t)
	defer closeDB()

	router := chi.NewRouter()
	router.Put("/accounts/{accountNumber}", handler.UpdateKYC)

	update := UpdateKYCRequest{
		Category:    models.CategoryCurrent,
		FullName:    "Renamed Holder",
		Email:       "renamed@example.com",
		Mobile:      "9876543212",
		Gender:      models.GenderFemale,
		DateOfBirth: "1990-05-14",
		Role:        models.RoleStaff,
		Password:    "newsecret",
	}

	t.Run("successful update", func(t *testing.T) {
		mock.ExpectExec("UPDATE accounts SET category").
			WillReturnResult(sqlmock.NewResult(0, 1))

		body, _ := json.Marshal(update)
		r := httptest.NewRequest("PUT", "/accounts/100105", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing account", func(t *testing.T) {
		mock.ExpectExec("UPDATE accounts SET category").
			WillReturnResult(sqlmock.NewResult(0, 0))

		body, _ := json.Marshal(update)
		r := httptest.NewRequest("PUT", "/accounts/100999", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing role rejected", func(t *testing.T) {
		incomplete := update
		incomplete.Role = ""
		body, _ := json.Marshal(incomplete)
		r := httptest.NewRequest("PUT", "/accounts/100105", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
