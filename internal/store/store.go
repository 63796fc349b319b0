package store

import (
	"context"
	"errors"

	"subscription-ledger-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrClosed   = errors.New("store is closed")
	ErrEmptyKey = errors.New("empty entity key")
)

// EntityStore defines the contract that every backend (SQLite, memory, ...)
// must satisfy. Loads return (nil, nil) when no record exists under the key.
// Audit-log saves are upserts by idempotency key; the boolean result reports
// whether the write was a fresh insert (true) or an overwrite (false), so
// callers can surface re-delivered events to the diagnostics sink.
//
// No transaction is assumed across multiple saves within one handler; events
// are applied strictly one at a time, so the store never sees interleaved
// writes for the same entity set.
type EntityStore interface {
	// --- Subscriptions ---
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	PutSubscription(ctx context.Context, sub *models.Subscription) error

	// --- Parties ---
	GetSender(ctx context.Context, address string) (*models.Sender, error)
	PutSender(ctx context.Context, sender *models.Sender) error
	GetRecipient(ctx context.Context, address string) (*models.Recipient, error)
	PutRecipient(ctx context.Context, recipient *models.Recipient) error

	// --- Audit logs (append-only, upsert by idempotency key) ---
	PutRecipientWithdrawLog(ctx context.Context, log *models.RecipientWithdrawLog) (inserted bool, err error)
	PutSenderWithdrawLog(ctx context.Context, log *models.SenderWithdrawLog) (inserted bool, err error)
	PutSenderDepositLog(ctx context.Context, log *models.SenderDepositLog) (inserted bool, err error)

	// --- Lifecycle ---
	Close()
}

// CursorStore persists the last applied ordering position per chain so the
// listener can resume after a restart without replaying the whole export.
type CursorStore interface {
	LoadCursor(ctx context.Context, chain string) (*models.Cursor, error)
	SaveCursor(ctx context.Context, chain string, cursor models.Cursor) error
}
