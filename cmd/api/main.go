package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/touristsafety/identity-access-service/internal/adapters/handler"
	"github.com/touristsafety/identity-access-service/internal/adapters/middleware"
	"github.com/touristsafety/identity-access-service/internal/adapters/repository"
	"github.com/touristsafety/identity-access-service/internal/adapters/sessionstore"
	"github.com/touristsafety/identity-access-service/internal/config"
	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/core/ports"
	"github.com/touristsafety/identity-access-service/internal/core/services"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	var db *sql.DB
	var redisClient *redis.Client
	var creds ports.CredentialStore
	var storeFactory services.SessionStoreFactory

	if cfg.DevMode {
		log.Println("Running in dev mode: in-memory credential and session stores")
		creds = repository.NewSeededCredentialStore()
		storeFactory = func(clientID string) ports.SessionStore {
			return sessionstore.NewMemoryStore()
		}
	} else {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		creds = repository.NewSQLCredentialStore(db)

		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       0,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		log.Println("Authenticated with Redis successfully")

		sessionCB := config.NewCircuitBreaker("Redis-Sessions")
		storeFactory = func(clientID string) ports.SessionStore {
			return sessionstore.NewRedisStore(redisClient, clientID, cfg.SessionTTL, sessionCB)
		}
	}

	registry := services.NewSessionRegistry(creds, storeFactory)
	tokens := services.NewTokenService(cfg.JWTPrivateKey)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey)

	sessionHandler := handler.NewSessionHandler(registry, tokens)
	adminHandler := handler.NewAdminHandler(registry)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.DevMode)

	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible)
	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/health/ready", healthHandler.Ready)
	mux.HandleFunc("/health/live", healthHandler.Live)

	mux.Handle("/metrics", promhttp.Handler())

	// Session endpoints
	mux.HandleFunc("/login", sessionHandler.Login)
	mux.HandleFunc("/signup", sessionHandler.Signup)
	mux.HandleFunc("/session", sessionHandler.Session)

	mux.Handle("/logout",
		authMiddleware.RequireRole(nil, http.HandlerFunc(sessionHandler.Logout)),
	)

	mux.Handle("/admin/sessions",
		authMiddleware.RequireRole([]domain.Role{domain.RoleAdministrator}, http.HandlerFunc(adminHandler.ActiveSessions)),
	)

	corsWrapped := middleware.CORSMiddleware([]string{"*"})(mux)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, corsWrapped); err != nil {
		log.Fatalf("Could not start server: %s\n", err)
	}
}
