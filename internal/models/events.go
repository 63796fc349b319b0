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

package models

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Event kinds emitted by the subscription contract.
const (
	EventCreateSubscription    = "CreateSubscription"
	EventWithdrawFromRecipient = "WithdrawFromRecipient"
	EventWithdrawFromSender    = "WithdrawFromSender"
	EventDepositFromSender     = "DepositFromSender"
	EventCancelSubscription    = "CancelSubscription"
)

// EventMeta carries the delivery metadata attached to every decoded event.
// The upstream source orders events by (block number, tx index, log index)
// and delivers each real on-chain event at least once.
type EventMeta struct {
	Chain       string          `json:"chain"`
	BlockNumber uint64          `json:"block_number"`
	TxIndex     uint32          `json:"tx_index"`
	LogIndex    uint32          `json:"log_index"`
	TxHash      string          `json:"tx_hash"`
	BlockTime   decimal.Decimal `json:"block_time"`
}

// LogKey builds the idempotency key identifying one real on-chain event
// occurrence: transaction hash + log index, unique per event.
func (m EventMeta) LogKey() string {
	return m.TxHash + "-" + strconv.FormatUint(uint64(m.LogIndex), 10)
}

// Position returns the ordering position of the event within its chain.
func (m EventMeta) Position() Cursor {
	return Cursor{
		BlockNumber: m.BlockNumber,
		TxIndex:     m.TxIndex,
		LogIndex:    m.LogIndex,
	}
}

// ChainEvent is one decoded, already-verified contract event. Fields not
// relevant to a given kind are left at their zero value.
type ChainEvent struct {
	Kind           string          `json:"kind"`
	SubscriptionId string          `json:"subscription_id"`
	Sender         string          `json:"sender,omitempty"`
	Recipient      string          `json:"recipient,omitempty"`
	TokenAddress   string          `json:"token_address,omitempty"`
	Deposit        decimal.Decimal `json:"deposit"`
	FixedRate      decimal.Decimal `json:"fixed_rate"`
	StartTime      decimal.Decimal `json:"start_time"`
	StopTime       decimal.Decimal `json:"stop_time"`
	Interval       decimal.Decimal `json:"interval"`
	Amount         decimal.Decimal `json:"amount"`
	Meta           EventMeta       `json:"meta"`
}

// Cursor marks the last applied ordering position within one chain's stream.
type Cursor struct {
	BlockNumber uint64 `json:"block_number"`
	TxIndex     uint32 `json:"tx_index"`
	LogIndex    uint32 `json:"log_index"`
}

// Before reports whether c is strictly earlier than other in delivery order.
func (c Cursor) Before(other Cursor) bool {
	if c.BlockNumber != other.BlockNumber {
		return c.BlockNumber < other.BlockNumber
	}
	if c.TxIndex != other.TxIndex {
		return c.TxIndex < other.TxIndex
	}
	return c.LogIndex < other.LogIndex
}

func (c Cursor) String() string {
	return fmt.Sprintf("%d/%d/%d", c.BlockNumber, c.TxIndex, c.LogIndex)
}
