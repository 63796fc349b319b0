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
	"errors"
	"fmt"

	"subscription-ledger-go/internal/models"
)

// Audit log writes are upserts by idempotency key. Each checks for an
// existing row first so the caller can distinguish a fresh insert from an
// overwrite caused by a re-delivered event.

func (s *Service) PutRecipientWithdrawLog(ctx context.Context, log *models.RecipientWithdrawLog) (bool, error) {
	inserted, err := s.logExists(ctx, queryCheckRecipientWithdrawLog, log.Id)
	if err != nil {
		return false, err
	}
	_, err = s.db.ExecContext(ctx, queryUpsertRecipientWithdrawLog,
		log.Id, log.Recipient, log.Subscription,
		log.WithdrawAmount.String(), log.WithdrawTime.String(), log.WithdrawnCount.String())
	if err != nil {
		return false, fmt.Errorf("failed to save recipient withdraw log %s: %w", log.Id, err)
	}
	return inserted, nil
}

func (s *Service) PutSenderWithdrawLog(ctx context.Context, log *models.SenderWithdrawLog) (bool, error) {
	inserted, err := s.logExists(ctx, queryCheckSenderWithdrawLog, log.Id)
	if err != nil {
		return false, err
	}
	_, err = s.db.ExecContext(ctx, queryUpsertSenderWithdrawLog,
		log.Id, log.Sender, log.Subscription,
		log.WithdrawAmount.String(), log.WithdrawTime.String())
	if err != nil {
		return false, fmt.Errorf("failed to save sender withdraw log %s: %w", log.Id, err)
	}
	return inserted, nil
}

func (s *Service) PutSenderDepositLog(ctx context.Context, log *models.SenderDepositLog) (bool, error) {
	inserted, err := s.logExists(ctx, queryCheckSenderDepositLog, log.Id)
	if err != nil {
		return false, err
	}
	_, err = s.db.ExecContext(ctx, queryUpsertSenderDepositLog,
		log.Id, log.Sender, log.Subscription,
		log.DepositAmount.String(), log.DepositTime.String())
	if err != nil {
		return false, fmt.Errorf("failed to save sender deposit log %s: %w", log.Id, err)
	}
	return inserted, nil
}

// logExists reports whether the write will be a fresh insert (true) or an
// overwrite (false).
func (s *Service) logExists(ctx context.Context, checkQuery, id string) (bool, error) {
	var existing string
	err := s.db.QueryRowContext(ctx, checkQuery, id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check for existing log %s: %w", id, err)
	}
	return false, nil
}
