package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mobank/backend/internal/database"
	"github.com/mobank/backend/internal/handlers"
	mW "github.com/mobank/backend/internal/middleware"
	"github.com/mobank/backend/internal/models"
	"github.com/mobank/backend/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Mo Bank Backend API
// @version 1.0
// @description Core banking API for accounts, teller operations and statements
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")
	viper.BindEnv("seed.admin_email", "SEED_ADMIN_EMAIL")
	viper.BindEnv("seed.admin_mobile", "SEED_ADMIN_MOBILE")
	viper.BindEnv("seed.admin_password", "SEED_ADMIN_PASSWORD")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	viper.SetDefault("seed.admin_password", "ChangeMe!123")
	adminHash, err := services.HashPassword(viper.GetString("seed.admin_password"))
	if err != nil {
		log.Fatalf("Failed to hash seed credentials: %v", err)
	}
	if err := database.InitSchema(db, adminHash); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	accountStore := services.NewAccountStore(db)
	transactionLog := services.NewTransactionLog(db)
	ledgerService := services.NewLedgerService(db, accountStore, transactionLog)
	statementService := services.NewStatementService(accountStore, transactionLog)
	authService := services.NewAuthService(accountStore, redisClient)

	accountHandler := handlers.NewAccountHandler(accountStore, ledgerService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	statementHandler := handlers.NewStatementHandler(statementService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/openapi.yaml"),
	))

	// Serve OpenAPI spec
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yaml")
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/accounts/me", accountHandler.GetOwnAccount)
			r.Post("/ledger/withdraw", ledgerHandler.SelfWithdraw)
			r.Get("/statements/me", statementHandler.OwnStatement)

			// Teller endpoints
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRoles(models.RoleAdmin, models.RoleStaff))

				r.Get("/accounts/{accountNumber}", accountHandler.GetAccount)
				r.Post("/ledger/deposit", ledgerHandler.AssistedDeposit)
				r.Post("/ledger/assisted-withdraw", ledgerHandler.AssistedWithdraw)
				r.Post("/ledger/transfer", ledgerHandler.Transfer)
				r.Get("/statements/{accountNumber}", statementHandler.AccountStatement)
				r.Get("/statements/operator/{accountNumber}", statementHandler.OperatorStatement)
			})

			// Administrator endpoints
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRoles(models.RoleAdmin))

				r.Post("/accounts", accountHandler.OpenAccount)
				r.Put("/accounts/{accountNumber}", accountHandler.UpdateKYC)
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
