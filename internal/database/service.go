/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"subscription-ledger-go/internal/models"
	"subscription-ledger-go/internal/store"
)

// Compile-time checks: *Service must satisfy both store contracts.
var (
	_ store.EntityStore = (*Service)(nil)
	_ store.CursorStore = (*Service)(nil)
)

// Service is the SQLite-backed entity store. Monetary and time fields are
// stored as TEXT so arbitrary-precision values round-trip exactly.
type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

// NewInMemoryService opens a throwaway :memory: database. Test fixtures and
// dry runs use it so no file is left behind.
func NewInMemoryService() (*Service, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	-- Materialized subscription state
	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		deposit TEXT NOT NULL,
		fixed_rate TEXT NOT NULL,
		withdrawn_balance TEXT NOT NULL,
		remaining_balance TEXT NOT NULL,
		start_time TEXT NOT NULL,
		stop_time TEXT NOT NULL,
		interval TEXT NOT NULL,
		withdrawable_count TEXT NOT NULL,
		withdrawn_count TEXT NOT NULL,
		last_withdraw_time TEXT NOT NULL,
		token_address TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		sender TEXT NOT NULL,
		recipient TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Index for per-party subscription lookups
	CREATE INDEX IF NOT EXISTS idx_subscriptions_sender ON subscriptions(sender);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_recipient ON subscriptions(recipient);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_active ON subscriptions(is_active);

	-- Per-party aggregates
	CREATE TABLE IF NOT EXISTS senders (
		address TEXT PRIMARY KEY,
		deposit TEXT NOT NULL,
		withdrawn_to_recipient TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS recipients (
		address TEXT PRIMARY KEY,
		withdrawn_balance TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Append-only audit logs, keyed by tx hash + log index
	CREATE TABLE IF NOT EXISTS recipient_withdraw_logs (
		id TEXT PRIMARY KEY,
		recipient TEXT NOT NULL,
		subscription TEXT NOT NULL,
		withdraw_amount TEXT NOT NULL,
		withdraw_time TEXT NOT NULL,
		withdrawn_count TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sender_withdraw_logs (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		subscription TEXT NOT NULL,
		withdraw_amount TEXT NOT NULL,
		withdraw_time TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sender_deposit_logs (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		subscription TEXT NOT NULL,
		deposit_amount TEXT NOT NULL,
		deposit_time TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_recipient_withdraw_logs_subscription ON recipient_withdraw_logs(subscription);
	CREATE INDEX IF NOT EXISTS idx_sender_withdraw_logs_subscription ON sender_withdraw_logs(subscription);
	CREATE INDEX IF NOT EXISTS idx_sender_deposit_logs_subscription ON sender_deposit_logs(subscription);

	-- Last applied ordering position per chain
	CREATE TABLE IF NOT EXISTS ingest_cursors (
		chain TEXT PRIMARY KEY,
		block_number INTEGER NOT NULL,
		tx_index INTEGER NOT NULL,
		log_index INTEGER NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Durable diagnostics trail
	CREATE TABLE IF NOT EXISTS anomalies (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		event_kind TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_key TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_anomalies_kind ON anomalies(kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordAnomaly persists one diagnostics record.
func (s *Service) RecordAnomaly(ctx context.Context, a models.Anomaly) error {
	_, err := s.db.ExecContext(ctx, queryInsertAnomaly,
		a.Id, a.Kind, a.EventKind, a.Entity, a.Key, a.Message)
	if err != nil {
		return fmt.Errorf("failed to insert anomaly: %w", err)
	}
	return nil
}

// parseDecimal wraps decimal parsing of a scanned column with context.
func parseDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s '%s': %w", column, value, err)
	}
	return d, nil
}
