package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/sessions"

	"diary-backend/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	if err := core.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	// Gorilla cookie store carries the opaque session token and flashes.
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))

	userRepo := core.NewPgUserRepository(db)
	entryRepo := core.NewPgEntryRepository(db)
	authService := core.NewRepositoryAuthService(userRepo)
	sessionManager := core.NewRedisSessionManager(redisClient, time.Duration(cfg.SessionTTLSec)*time.Second)

	router := core.NewRouter(cfg, store, authService, entryRepo, sessionManager)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting diary server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
