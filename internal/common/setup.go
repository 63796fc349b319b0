package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"subscription-ledger-go/internal/database"
	"subscription-ledger-go/internal/models"
	"subscription-ledger-go/internal/store"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

// Services bundles the initialized backends an entrypoint needs.
type Services struct {
	Store   store.EntityStore
	Cursors store.CursorStore

	// Database is non-nil only for the sqlite backend; the balances CLI and
	// the anomaly recorder need its extra query surface.
	Database *database.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the entity store backend selected by the config.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	switch cfg.Indexer.Backend {
	case "sqlite":
		dbService, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return &Services{Store: dbService, Cursors: dbService, Database: dbService}, nil
	case "memory":
		memStore := store.NewMemoryStore()
		zap.L().Warn("Using in-memory store backend, state is lost on exit")
		return &Services{Store: memStore, Cursors: memStore}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected sqlite or memory)", cfg.Indexer.Backend)
	}
}

// InitializeDatabaseOnly initializes just the SQLite service.
// Useful for read-only operations like querying balances.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
