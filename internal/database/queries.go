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

const (
	// Subscription queries
	queryGetSubscription = `
		SELECT id, deposit, fixed_rate, withdrawn_balance, remaining_balance,
		       start_time, stop_time, interval, withdrawable_count, withdrawn_count,
		       last_withdraw_time, token_address, is_active, sender, recipient
		FROM subscriptions
		WHERE id = ?`

	queryUpsertSubscription = `
		INSERT INTO subscriptions (
			id, deposit, fixed_rate, withdrawn_balance, remaining_balance,
			start_time, stop_time, interval, withdrawable_count, withdrawn_count,
			last_withdraw_time, token_address, is_active, sender, recipient, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			deposit = excluded.deposit,
			fixed_rate = excluded.fixed_rate,
			withdrawn_balance = excluded.withdrawn_balance,
			remaining_balance = excluded.remaining_balance,
			start_time = excluded.start_time,
			stop_time = excluded.stop_time,
			interval = excluded.interval,
			withdrawable_count = excluded.withdrawable_count,
			withdrawn_count = excluded.withdrawn_count,
			last_withdraw_time = excluded.last_withdraw_time,
			token_address = excluded.token_address,
			is_active = excluded.is_active,
			sender = excluded.sender,
			recipient = excluded.recipient,
			updated_at = CURRENT_TIMESTAMP`

	queryListSubscriptions = `
		SELECT id, deposit, fixed_rate, withdrawn_balance, remaining_balance,
		       start_time, stop_time, interval, withdrawable_count, withdrawn_count,
		       last_withdraw_time, token_address, is_active, sender, recipient
		FROM subscriptions
		ORDER BY id`

	// Party queries
	queryGetSender = `
		SELECT address, deposit, withdrawn_to_recipient
		FROM senders
		WHERE address = ?`

	queryUpsertSender = `
		INSERT INTO senders (address, deposit, withdrawn_to_recipient, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(address) DO UPDATE SET
			deposit = excluded.deposit,
			withdrawn_to_recipient = excluded.withdrawn_to_recipient,
			updated_at = CURRENT_TIMESTAMP`

	queryListSenders = `
		SELECT address, deposit, withdrawn_to_recipient
		FROM senders
		ORDER BY address`

	queryGetRecipient = `
		SELECT address, withdrawn_balance
		FROM recipients
		WHERE address = ?`

	queryUpsertRecipient = `
		INSERT INTO recipients (address, withdrawn_balance, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(address) DO UPDATE SET
			withdrawn_balance = excluded.withdrawn_balance,
			updated_at = CURRENT_TIMESTAMP`

	queryListRecipients = `
		SELECT address, withdrawn_balance
		FROM recipients
		ORDER BY address`

	// Audit log queries
	queryCheckRecipientWithdrawLog = `
		SELECT id FROM recipient_withdraw_logs WHERE id = ?`

	queryUpsertRecipientWithdrawLog = `
		INSERT OR REPLACE INTO recipient_withdraw_logs
			(id, recipient, subscription, withdraw_amount, withdraw_time, withdrawn_count)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryCheckSenderWithdrawLog = `
		SELECT id FROM sender_withdraw_logs WHERE id = ?`

	queryUpsertSenderWithdrawLog = `
		INSERT OR REPLACE INTO sender_withdraw_logs
			(id, sender, subscription, withdraw_amount, withdraw_time)
		VALUES (?, ?, ?, ?, ?)`

	queryCheckSenderDepositLog = `
		SELECT id FROM sender_deposit_logs WHERE id = ?`

	queryUpsertSenderDepositLog = `
		INSERT OR REPLACE INTO sender_deposit_logs
			(id, sender, subscription, deposit_amount, deposit_time)
		VALUES (?, ?, ?, ?, ?)`

	// Cursor queries
	queryGetCursor = `
		SELECT block_number, tx_index, log_index
		FROM ingest_cursors
		WHERE chain = ?`

	queryUpsertCursor = `
		INSERT INTO ingest_cursors (chain, block_number, tx_index, log_index, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(chain) DO UPDATE SET
			block_number = excluded.block_number,
			tx_index = excluded.tx_index,
			log_index = excluded.log_index,
			updated_at = CURRENT_TIMESTAMP`

	// Diagnostics queries
	queryInsertAnomaly = `
		INSERT INTO anomalies (id, kind, event_kind, entity, entity_key, message)
		VALUES (?, ?, ?, ?, ?, ?)`
)
