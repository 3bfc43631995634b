package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/mobank/backend/internal/models"
	"github.com/mobank/backend/internal/services"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)
	InitAuthMiddleware(nil)

	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, int64(100105), actor.AccountNumber)
		assert.Equal(t, models.RoleCustomer, actor.Role)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token resolves the actor", func(t *testing.T) {
		token, err := services.GenerateJWT(100105, models.RoleCustomer)
		assert.NoError(t, err)

		r := httptest.NewRequest("GET", "/api/v1/accounts/me", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/accounts/me", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/accounts/me", nil)
		r.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		token, _ := services.GenerateJWT(100105, models.RoleCustomer)
		viper.Set("jwt.secret_key", "rotated-secret")
		defer viper.Set("jwt.secret_key", "test-secret")

		r := httptest.NewRequest("GET", "/api/v1/accounts/me", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("blacklisted token is revoked", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		InitAuthMiddleware(redisClient)
		defer InitAuthMiddleware(nil)

		token, _ := services.GenerateJWT(100105, models.RoleCustomer)
		redisMock.ExpectExists("blacklist:" + token).SetVal(1)

		r := httptest.NewRequest("GET", "/api/v1/accounts/me", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestRequireRoles(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRoles(models.RoleAdmin, models.RoleStaff)(next)

	t.Run("staff passes", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/accounts/100105", nil)
		r = r.WithContext(ContextWithActor(r.Context(), models.Actor{AccountNumber: 100002, Role: models.RoleStaff}))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("customer is forbidden", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/accounts/100105", nil)
		r = r.WithContext(ContextWithActor(r.Context(), models.Actor{AccountNumber: 100105, Role: models.RoleCustomer}))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no actor in context", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/accounts/100105", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
