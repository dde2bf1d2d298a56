package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"secure-dm/api"
	"secure-dm/auth"
	"secure-dm/crypto"
	"secure-dm/observability"
	"secure-dm/realtime"
	"secure-dm/repositories"
	"secure-dm/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer (database close, ...)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	// Local development convenience; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Encryption Service
	// The key is derived once here; a missing secret stops startup
	// before anything listens.
	cipher, err := crypto.NewCipher(config.SecretKey)
	if err != nil {
		return fmt.Errorf("cipher init failed: %w", err)
	}

	tokens, err := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	if err != nil {
		return fmt.Errorf("token manager init failed: %w", err)
	}

	// 3. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 4. Repositories, broker, services
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	profileRepository := repositories.NewProfileRepository(db, log)
	broker := realtime.NewBroker(log, config.ConnectionBufferSize)

	messenger := services.NewMessenger(log, cipher, messageRepository, profileRepository, broker)
	conversations := services.NewConversationService(log, messageRepository, profileRepository, cipher)

	stats, err := observability.NewCollector()
	if err != nil {
		return fmt.Errorf("stats collector init failed: %w", err)
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. HTTP Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	router := api.NewRouter(log, cipher, messenger, conversations, broker, tokens, stats)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
