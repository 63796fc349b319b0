package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"subscription-ledger-go/internal/models"
)

// GetSubscription loads one subscription by id. Returns (nil, nil) when no
// record exists.
func (s *Service) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	row := s.db.QueryRowContext(ctx, queryGetSubscription, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription %s: %w", id, err)
	}
	return sub, nil
}

// PutSubscription saves the full subscription record, overwriting any
// existing row under the same id.
func (s *Service) PutSubscription(ctx context.Context, sub *models.Subscription) error {
	isActive := 0
	if sub.IsActive {
		isActive = 1
	}
	_, err := s.db.ExecContext(ctx, queryUpsertSubscription,
		sub.Id, sub.Deposit.String(), sub.FixedRate.String(),
		sub.WithdrawnBalance.String(), sub.RemainingBalance.String(),
		sub.StartTime.String(), sub.StopTime.String(), sub.Interval.String(),
		sub.WithdrawableCount.String(), sub.WithdrawnCount.String(),
		sub.LastWithdrawTime.String(), sub.TokenAddress, isActive,
		sub.Sender, sub.Recipient)
	if err != nil {
		return fmt.Errorf("failed to save subscription %s: %w", sub.Id, err)
	}
	return nil
}

// ListSubscriptions returns every subscription record, ordered by id. Used by
// the read-only CLIs, not by the event handlers.
func (s *Service) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, queryListSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	var deposit, fixedRate, withdrawnBalance, remainingBalance string
	var startTime, stopTime, interval, withdrawableCount, withdrawnCount, lastWithdrawTime string
	var isActive int

	err := row.Scan(&sub.Id, &deposit, &fixedRate, &withdrawnBalance, &remainingBalance,
		&startTime, &stopTime, &interval, &withdrawableCount, &withdrawnCount,
		&lastWithdrawTime, &sub.TokenAddress, &isActive, &sub.Sender, &sub.Recipient)
	if err != nil {
		return nil, err
	}

	if sub.Deposit, err = parseDecimal("deposit", deposit); err != nil {
		return nil, err
	}
	if sub.FixedRate, err = parseDecimal("fixed_rate", fixedRate); err != nil {
		return nil, err
	}
	if sub.WithdrawnBalance, err = parseDecimal("withdrawn_balance", withdrawnBalance); err != nil {
		return nil, err
	}
	if sub.RemainingBalance, err = parseDecimal("remaining_balance", remainingBalance); err != nil {
		return nil, err
	}
	if sub.StartTime, err = parseDecimal("start_time", startTime); err != nil {
		return nil, err
	}
	if sub.StopTime, err = parseDecimal("stop_time", stopTime); err != nil {
		return nil, err
	}
	if sub.Interval, err = parseDecimal("interval", interval); err != nil {
		return nil, err
	}
	if sub.WithdrawableCount, err = parseDecimal("withdrawable_count", withdrawableCount); err != nil {
		return nil, err
	}
	if sub.WithdrawnCount, err = parseDecimal("withdrawn_count", withdrawnCount); err != nil {
		return nil, err
	}
	if sub.LastWithdrawTime, err = parseDecimal("last_withdraw_time", lastWithdrawTime); err != nil {
		return nil, err
	}
	sub.IsActive = isActive != 0
	return &sub, nil
}
