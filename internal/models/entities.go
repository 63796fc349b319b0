package models

import (
	"github.com/shopspring/decimal"
)

// Subscription is the materialized state of one recurring-payment commitment
// from a Sender to a Recipient. All monetary and time fields are
// integer-valued arbitrary-precision decimals (on-chain units / unix seconds).
//
// Invariant after every applied event:
//
//	Deposit == WithdrawnBalance + RemainingBalance
type Subscription struct {
	Id                string          `db:"id"`
	Deposit           decimal.Decimal `db:"deposit"`
	FixedRate         decimal.Decimal `db:"fixed_rate"`
	WithdrawnBalance  decimal.Decimal `db:"withdrawn_balance"`
	RemainingBalance  decimal.Decimal `db:"remaining_balance"`
	StartTime         decimal.Decimal `db:"start_time"`
	StopTime          decimal.Decimal `db:"stop_time"`
	Interval          decimal.Decimal `db:"interval"`
	WithdrawableCount decimal.Decimal `db:"withdrawable_count"`
	WithdrawnCount    decimal.Decimal `db:"withdrawn_count"`
	LastWithdrawTime  decimal.Decimal `db:"last_withdraw_time"`
	TokenAddress      string          `db:"token_address"`
	IsActive          bool            `db:"is_active"`
	Sender            string          `db:"sender"`
	Recipient         string          `db:"recipient"`
}

// Sender aggregates funds across every subscription where the address is the
// payer. Created lazily on first reference, never deleted.
type Sender struct {
	Address              string          `db:"address"`
	Deposit              decimal.Decimal `db:"deposit"`
	WithdrawnToRecipient decimal.Decimal `db:"withdrawn_to_recipient"`
}

// Recipient aggregates withdrawn funds across every subscription where the
// address is the payee. Created lazily on first reference, never deleted.
type Recipient struct {
	Address          string          `db:"address"`
	WithdrawnBalance decimal.Decimal `db:"withdrawn_balance"`
}

// RecipientWithdrawLog is an immutable audit record of one recipient
// withdrawal, keyed by the event's idempotency key (tx hash + log index).
type RecipientWithdrawLog struct {
	Id             string          `db:"id"`
	Recipient      string          `db:"recipient"`
	Subscription   string          `db:"subscription"`
	WithdrawAmount decimal.Decimal `db:"withdraw_amount"`
	WithdrawTime   decimal.Decimal `db:"withdraw_time"`
	WithdrawnCount decimal.Decimal `db:"withdrawn_count"`
}

// SenderWithdrawLog is an immutable audit record of one sender refund.
type SenderWithdrawLog struct {
	Id             string          `db:"id"`
	Sender         string          `db:"sender"`
	Subscription   string          `db:"subscription"`
	WithdrawAmount decimal.Decimal `db:"withdraw_amount"`
	WithdrawTime   decimal.Decimal `db:"withdraw_time"`
}

// SenderDepositLog is an immutable audit record of one sender top-up.
type SenderDepositLog struct {
	Id            string          `db:"id"`
	Sender        string          `db:"sender"`
	Subscription  string          `db:"subscription"`
	DepositAmount decimal.Decimal `db:"deposit_amount"`
	DepositTime   decimal.Decimal `db:"deposit_time"`
}

// Anomaly is a persisted diagnostic record for a data-quality condition
// detected while applying an event (duplicate create, missing prerequisite,
// duplicate audit log).
type Anomaly struct {
	Id        string `db:"id"`
	Kind      string `db:"kind"`
	EventKind string `db:"event_kind"`
	Entity    string `db:"entity"`
	Key       string `db:"key"`
	Message   string `db:"message"`
}
