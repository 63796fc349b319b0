package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"subscription-ledger-go/internal/models"
)

// GetSender loads one sender aggregate by address. Returns (nil, nil) when no
// record exists.
func (s *Service) GetSender(ctx context.Context, address string) (*models.Sender, error) {
	var sender models.Sender
	var deposit, withdrawnToRecipient string

	err := s.db.QueryRowContext(ctx, queryGetSender, address).
		Scan(&sender.Address, &deposit, &withdrawnToRecipient)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sender %s: %w", address, err)
	}

	if sender.Deposit, err = parseDecimal("deposit", deposit); err != nil {
		return nil, err
	}
	if sender.WithdrawnToRecipient, err = parseDecimal("withdrawn_to_recipient", withdrawnToRecipient); err != nil {
		return nil, err
	}
	return &sender, nil
}

func (s *Service) PutSender(ctx context.Context, sender *models.Sender) error {
	_, err := s.db.ExecContext(ctx, queryUpsertSender,
		sender.Address, sender.Deposit.String(), sender.WithdrawnToRecipient.String())
	if err != nil {
		return fmt.Errorf("failed to save sender %s: %w", sender.Address, err)
	}
	return nil
}

// ListSenders returns every sender aggregate, ordered by address.
func (s *Service) ListSenders(ctx context.Context) ([]models.Sender, error) {
	rows, err := s.db.QueryContext(ctx, queryListSenders)
	if err != nil {
		return nil, fmt.Errorf("failed to list senders: %w", err)
	}
	defer rows.Close()

	var senders []models.Sender
	for rows.Next() {
		var sender models.Sender
		var deposit, withdrawnToRecipient string
		if err := rows.Scan(&sender.Address, &deposit, &withdrawnToRecipient); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		if sender.Deposit, err = parseDecimal("deposit", deposit); err != nil {
			return nil, err
		}
		if sender.WithdrawnToRecipient, err = parseDecimal("withdrawn_to_recipient", withdrawnToRecipient); err != nil {
			return nil, err
		}
		senders = append(senders, sender)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sender rows: %w", err)
	}
	return senders, nil
}

// GetRecipient loads one recipient aggregate by address. Returns (nil, nil)
// when no record exists.
func (s *Service) GetRecipient(ctx context.Context, address string) (*models.Recipient, error) {
	var recipient models.Recipient
	var withdrawnBalance string

	err := s.db.QueryRowContext(ctx, queryGetRecipient, address).
		Scan(&recipient.Address, &withdrawnBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient %s: %w", address, err)
	}

	if recipient.WithdrawnBalance, err = parseDecimal("withdrawn_balance", withdrawnBalance); err != nil {
		return nil, err
	}
	return &recipient, nil
}

func (s *Service) PutRecipient(ctx context.Context, recipient *models.Recipient) error {
	_, err := s.db.ExecContext(ctx, queryUpsertRecipient,
		recipient.Address, recipient.WithdrawnBalance.String())
	if err != nil {
		return fmt.Errorf("failed to save recipient %s: %w", recipient.Address, err)
	}
	return nil
}

// ListRecipients returns every recipient aggregate, ordered by address.
func (s *Service) ListRecipients(ctx context.Context) ([]models.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, queryListRecipients)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		var recipient models.Recipient
		var withdrawnBalance string
		if err := rows.Scan(&recipient.Address, &withdrawnBalance); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		if recipient.WithdrawnBalance, err = parseDecimal("withdrawn_balance", withdrawnBalance); err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipient rows: %w", err)
	}
	return recipients, nil
}
