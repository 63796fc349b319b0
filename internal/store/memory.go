package store

import (
	"context"
	"sync"

	"subscription-ledger-go/internal/models"
)

// MemoryStore is an in-memory EntityStore backend. It backs ephemeral runs
// (STORE_BACKEND=memory) and the ledger test suites. Records are copied on
// both put and get so callers never share mutable state with the store.
type MemoryStore struct {
	mu sync.RWMutex

	subscriptions map[string]models.Subscription
	senders       map[string]models.Sender
	recipients    map[string]models.Recipient

	recipientWithdrawLogs map[string]models.RecipientWithdrawLog
	senderWithdrawLogs    map[string]models.SenderWithdrawLog
	senderDepositLogs     map[string]models.SenderDepositLog

	cursors map[string]models.Cursor

	closed bool
}

// Compile-time checks: *MemoryStore must satisfy both store contracts.
var (
	_ EntityStore = (*MemoryStore)(nil)
	_ CursorStore = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscriptions:         make(map[string]models.Subscription),
		senders:               make(map[string]models.Sender),
		recipients:            make(map[string]models.Recipient),
		recipientWithdrawLogs: make(map[string]models.RecipientWithdrawLog),
		senderWithdrawLogs:    make(map[string]models.SenderWithdrawLog),
		senderDepositLogs:     make(map[string]models.SenderDepositLog),
		cursors:               make(map[string]models.Cursor),
	}
}

func (m *MemoryStore) GetSubscription(_ context.Context, id string) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	sub, ok := m.subscriptions[id]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (m *MemoryStore) PutSubscription(_ context.Context, sub *models.Subscription) error {
	if sub.Id == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.subscriptions[sub.Id] = *sub
	return nil
}

func (m *MemoryStore) GetSender(_ context.Context, address string) (*models.Sender, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	sender, ok := m.senders[address]
	if !ok {
		return nil, nil
	}
	return &sender, nil
}

func (m *MemoryStore) PutSender(_ context.Context, sender *models.Sender) error {
	if sender.Address == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.senders[sender.Address] = *sender
	return nil
}

func (m *MemoryStore) GetRecipient(_ context.Context, address string) (*models.Recipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	recipient, ok := m.recipients[address]
	if !ok {
		return nil, nil
	}
	return &recipient, nil
}

func (m *MemoryStore) PutRecipient(_ context.Context, recipient *models.Recipient) error {
	if recipient.Address == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.recipients[recipient.Address] = *recipient
	return nil
}

func (m *MemoryStore) PutRecipientWithdrawLog(_ context.Context, log *models.RecipientWithdrawLog) (bool, error) {
	if log.Id == "" {
		return false, ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	_, exists := m.recipientWithdrawLogs[log.Id]
	m.recipientWithdrawLogs[log.Id] = *log
	return !exists, nil
}

func (m *MemoryStore) PutSenderWithdrawLog(_ context.Context, log *models.SenderWithdrawLog) (bool, error) {
	if log.Id == "" {
		return false, ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	_, exists := m.senderWithdrawLogs[log.Id]
	m.senderWithdrawLogs[log.Id] = *log
	return !exists, nil
}

func (m *MemoryStore) PutSenderDepositLog(_ context.Context, log *models.SenderDepositLog) (bool, error) {
	if log.Id == "" {
		return false, ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	_, exists := m.senderDepositLogs[log.Id]
	m.senderDepositLogs[log.Id] = *log
	return !exists, nil
}

func (m *MemoryStore) LoadCursor(_ context.Context, chain string) (*models.Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	cursor, ok := m.cursors[chain]
	if !ok {
		return nil, nil
	}
	return &cursor, nil
}

func (m *MemoryStore) SaveCursor(_ context.Context, chain string, cursor models.Cursor) error {
	if chain == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.cursors[chain] = cursor
	return nil
}

// GetRecipientWithdrawLog returns the stored log for an idempotency key, or
// nil. Read-side only; the EntityStore contract never reads logs back.
func (m *MemoryStore) GetRecipientWithdrawLog(id string) *models.RecipientWithdrawLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log, ok := m.recipientWithdrawLogs[id]
	if !ok {
		return nil
	}
	return &log
}

func (m *MemoryStore) GetSenderWithdrawLog(id string) *models.SenderWithdrawLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log, ok := m.senderWithdrawLogs[id]
	if !ok {
		return nil
	}
	return &log
}

func (m *MemoryStore) GetSenderDepositLog(id string) *models.SenderDepositLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log, ok := m.senderDepositLogs[id]
	if !ok {
		return nil
	}
	return &log
}

// WriteCount returns the total number of records held, across every entity
// kind. Tests use it to assert that anomalous events produced zero writes.
func (m *MemoryStore) WriteCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions) + len(m.senders) + len(m.recipients) +
		len(m.recipientWithdrawLogs) + len(m.senderWithdrawLogs) + len(m.senderDepositLogs)
}

func (m *MemoryStore) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
