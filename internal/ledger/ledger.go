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

package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"subscription-ledger-go/internal/models"
	"subscription-ledger-go/internal/store"
)

// Ledger applies decoded chain events to the materialized entity state.
//
// Events must be applied strictly one at a time, in delivery order. Every
// handler either applies its full effect or (on a missing prerequisite)
// applies nothing at all. Anomalies are reported through the diagnostics
// sink and never abort the pipeline; only store I/O failures propagate.
type Ledger struct {
	store store.EntityStore
	diags Reporter
}

func New(st store.EntityStore, diags Reporter) *Ledger {
	if diags == nil {
		diags = NewZapReporter()
	}
	return &Ledger{store: st, diags: diags}
}

// Apply dispatches one event to its handler.
func (l *Ledger) Apply(ctx context.Context, ev models.ChainEvent) error {
	switch ev.Kind {
	case models.EventCreateSubscription:
		return l.applyCreate(ctx, ev)
	case models.EventWithdrawFromRecipient:
		return l.applyRecipientWithdraw(ctx, ev)
	case models.EventWithdrawFromSender:
		return l.applySenderWithdraw(ctx, ev)
	case models.EventDepositFromSender:
		return l.applySenderDeposit(ctx, ev)
	case models.EventCancelSubscription:
		return l.applyCancel(ctx, ev)
	default:
		l.diags.Report(ctx, Anomaly{
			Kind:      UnknownEventKind,
			EventKind: ev.Kind,
			Entity:    "Subscription",
			Key:       ev.SubscriptionId,
			Message:   "No handler for event kind",
		})
		return nil
	}
}

// applyCreate initializes a subscription and lazily creates its parties.
// A duplicate id is a re-delivery anomaly: reported, then reinitialized to
// the event's values (last-write-wins). Party aggregates are initialized
// only on first creation, never reset on re-reference.
func (l *Ledger) applyCreate(ctx context.Context, ev models.ChainEvent) error {
	existing, err := l.store.GetSubscription(ctx, ev.SubscriptionId)
	if err != nil {
		return fmt.Errorf("failed to load subscription %s: %w", ev.SubscriptionId, err)
	}
	if existing != nil {
		l.diags.Report(ctx, Anomaly{
			Kind:      DuplicateCreate,
			EventKind: ev.Kind,
			Entity:    "Subscription",
			Key:       ev.SubscriptionId,
			Message:   "Subscription already exists, reinitializing",
		})
	}

	withdrawableCount := decimal.Zero
	if ev.Interval.IsZero() {
		l.diags.Report(ctx, Anomaly{
			Kind:      BadInterval,
			EventKind: ev.Kind,
			Entity:    "Subscription",
			Key:       ev.SubscriptionId,
			Message:   "Zero interval, recording withdrawable count as zero",
		})
	} else {
		withdrawableCount, _ = ev.StopTime.Sub(ev.StartTime).QuoRem(ev.Interval, 0)
	}

	recipient, err := l.store.GetRecipient(ctx, ev.Recipient)
	if err != nil {
		return fmt.Errorf("failed to load recipient %s: %w", ev.Recipient, err)
	}
	if recipient == nil {
		recipient = &models.Recipient{
			Address:          ev.Recipient,
			WithdrawnBalance: decimal.Zero,
		}
	}

	sender, err := l.store.GetSender(ctx, ev.Sender)
	if err != nil {
		return fmt.Errorf("failed to load sender %s: %w", ev.Sender, err)
	}
	if sender == nil {
		sender = &models.Sender{
			Address:              ev.Sender,
			Deposit:              decimal.Zero,
			WithdrawnToRecipient: decimal.Zero,
		}
	}

	sub := &models.Subscription{
		Id:                ev.SubscriptionId,
		Deposit:           ev.Deposit,
		FixedRate:         ev.FixedRate,
		WithdrawnBalance:  decimal.Zero,
		RemainingBalance:  ev.Deposit,
		StartTime:         ev.StartTime,
		StopTime:          ev.StopTime,
		Interval:          ev.Interval,
		WithdrawableCount: withdrawableCount,
		WithdrawnCount:    decimal.Zero,
		LastWithdrawTime:  ev.StartTime,
		TokenAddress:      ev.TokenAddress,
		IsActive:          true,
		Sender:            sender.Address,
		Recipient:         recipient.Address,
	}

	if err := l.store.PutRecipient(ctx, recipient); err != nil {
		return fmt.Errorf("failed to save recipient %s: %w", recipient.Address, err)
	}
	if err := l.store.PutSender(ctx, sender); err != nil {
		return fmt.Errorf("failed to save sender %s: %w", sender.Address, err)
	}
	if err := l.store.PutSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription %s: %w", sub.Id, err)
	}

	zap.L().Info("Subscription created",
		zap.String("subscription_id", sub.Id),
		zap.String("sender", sub.Sender),
		zap.String("recipient", sub.Recipient),
		zap.String("deposit", sub.Deposit.String()),
		zap.String("withdrawable_count", sub.WithdrawableCount.String()))
	return nil
}

// applyRecipientWithdraw moves amount from the subscription's remaining
// balance to its withdrawn balance and bumps the party aggregates. The sum
// remaining+withdrawn is unchanged, so the conservation invariant holds.
// Amounts are not clamped; a withdrawal larger than the remaining balance
// drives it negative (the upstream event is trusted).
func (l *Ledger) applyRecipientWithdraw(ctx context.Context, ev models.ChainEvent) error {
	sub, err := l.store.GetSubscription(ctx, ev.SubscriptionId)
	if err != nil {
		return fmt.Errorf("failed to load subscription %s: %w", ev.SubscriptionId, err)
	}
	if sub == nil {
		l.reportMissing(ctx, ev, "Subscription", ev.SubscriptionId)
		return nil
	}

	// Looked up by the event's recipient address, not the stored reference.
	recipient, err := l.store.GetRecipient(ctx, ev.Recipient)
	if err != nil {
		return fmt.Errorf("failed to load recipient %s: %w", ev.Recipient, err)
	}
	if recipient == nil {
		l.reportMissing(ctx, ev, "Recipient", ev.Recipient)
		return nil
	}

	sender, err := l.store.GetSender(ctx, sub.Sender)
	if err != nil {
		return fmt.Errorf("failed to load sender %s: %w", sub.Sender, err)
	}
	if sender == nil {
		l.reportMissing(ctx, ev, "Sender", sub.Sender)
		return nil
	}

	sub.RemainingBalance = sub.RemainingBalance.Sub(ev.Amount)
	sub.WithdrawnBalance = sub.WithdrawnBalance.Add(ev.Amount)
	sub.WithdrawnCount = sub.WithdrawnCount.Add(decimal.New(1, 0))
	sub.LastWithdrawTime = ev.Meta.BlockTime
	recipient.WithdrawnBalance = recipient.WithdrawnBalance.Add(ev.Amount)
	sender.WithdrawnToRecipient = sender.WithdrawnToRecipient.Add(ev.Amount)

	withdrawLog := &models.RecipientWithdrawLog{
		Id:             ev.Meta.LogKey(),
		Recipient:      recipient.Address,
		Subscription:   sub.Id,
		WithdrawAmount: ev.Amount,
		WithdrawTime:   ev.Meta.BlockTime,
		WithdrawnCount: sub.WithdrawnCount,
	}

	if err := l.store.PutRecipient(ctx, recipient); err != nil {
		return fmt.Errorf("failed to save recipient %s: %w", recipient.Address, err)
	}
	if err := l.store.PutSender(ctx, sender); err != nil {
		return fmt.Errorf("failed to save sender %s: %w", sender.Address, err)
	}
	inserted, err := l.store.PutRecipientWithdrawLog(ctx, withdrawLog)
	if err != nil {
		return fmt.Errorf("failed to save recipient withdraw log %s: %w", withdrawLog.Id, err)
	}
	if !inserted {
		l.reportDuplicateLog(ctx, ev, "RecipientWithdrawLog", withdrawLog.Id)
	}
	if err := l.store.PutSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription %s: %w", sub.Id, err)
	}

	l.checkConservation(sub, ev)
	zap.L().Info("Recipient withdrawal applied",
		zap.String("subscription_id", sub.Id),
		zap.String("recipient", recipient.Address),
		zap.String("amount", ev.Amount.String()),
		zap.String("remaining_balance", sub.RemainingBalance.String()),
		zap.String("withdrawn_count", sub.WithdrawnCount.String()))
	return nil
}

// applySenderWithdraw refunds amount to the sender: both the subscription's
// deposit and remaining balance shrink by the same amount, so the
// conservation invariant holds with the withdrawn balance untouched.
func (l *Ledger) applySenderWithdraw(ctx context.Context, ev models.ChainEvent) error {
	sub, err := l.store.GetSubscription(ctx, ev.SubscriptionId)
	if err != nil {
		return fmt.Errorf("failed to load subscription %s: %w", ev.SubscriptionId, err)
	}
	if sub == nil {
		l.reportMissing(ctx, ev, "Subscription", ev.SubscriptionId)
		return nil
	}

	sender, err := l.store.GetSender(ctx, ev.Sender)
	if err != nil {
		return fmt.Errorf("failed to load sender %s: %w", ev.Sender, err)
	}
	if sender == nil {
		l.reportMissing(ctx, ev, "Sender", ev.Sender)
		return nil
	}

	sub.RemainingBalance = sub.RemainingBalance.Sub(ev.Amount)
	sub.Deposit = sub.Deposit.Sub(ev.Amount)
	sender.Deposit = sender.Deposit.Sub(ev.Amount)

	withdrawLog := &models.SenderWithdrawLog{
		Id:             ev.Meta.LogKey(),
		Sender:         sender.Address,
		Subscription:   sub.Id,
		WithdrawAmount: ev.Amount,
		WithdrawTime:   ev.Meta.BlockTime,
	}

	if err := l.store.PutSender(ctx, sender); err != nil {
		return fmt.Errorf("failed to save sender %s: %w", sender.Address, err)
	}
	inserted, err := l.store.PutSenderWithdrawLog(ctx, withdrawLog)
	if err != nil {
		return fmt.Errorf("failed to save sender withdraw log %s: %w", withdrawLog.Id, err)
	}
	if !inserted {
		l.reportDuplicateLog(ctx, ev, "SenderWithdrawLog", withdrawLog.Id)
	}
	if err := l.store.PutSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription %s: %w", sub.Id, err)
	}

	l.checkConservation(sub, ev)
	zap.L().Info("Sender withdrawal applied",
		zap.String("subscription_id", sub.Id),
		zap.String("sender", sender.Address),
		zap.String("amount", ev.Amount.String()),
		zap.String("remaining_balance", sub.RemainingBalance.String()))
	return nil
}

// applySenderDeposit tops the subscription up: deposit and remaining balance
// grow by the same amount (the funding-side inverse of applySenderWithdraw).
func (l *Ledger) applySenderDeposit(ctx context.Context, ev models.ChainEvent) error {
	sub, err := l.store.GetSubscription(ctx, ev.SubscriptionId)
	if err != nil {
		return fmt.Errorf("failed to load subscription %s: %w", ev.SubscriptionId, err)
	}
	if sub == nil {
		l.reportMissing(ctx, ev, "Subscription", ev.SubscriptionId)
		return nil
	}

	sender, err := l.store.GetSender(ctx, ev.Sender)
	if err != nil {
		return fmt.Errorf("failed to load sender %s: %w", ev.Sender, err)
	}
	if sender == nil {
		l.reportMissing(ctx, ev, "Sender", ev.Sender)
		return nil
	}

	sub.Deposit = sub.Deposit.Add(ev.Amount)
	sub.RemainingBalance = sub.RemainingBalance.Add(ev.Amount)
	sender.Deposit = sender.Deposit.Add(ev.Amount)

	depositLog := &models.SenderDepositLog{
		Id:            ev.Meta.LogKey(),
		Sender:        sender.Address,
		Subscription:  sub.Id,
		DepositAmount: ev.Amount,
		DepositTime:   ev.Meta.BlockTime,
	}

	if err := l.store.PutSender(ctx, sender); err != nil {
		return fmt.Errorf("failed to save sender %s: %w", sender.Address, err)
	}
	inserted, err := l.store.PutSenderDepositLog(ctx, depositLog)
	if err != nil {
		return fmt.Errorf("failed to save sender deposit log %s: %w", depositLog.Id, err)
	}
	if !inserted {
		l.reportDuplicateLog(ctx, ev, "SenderDepositLog", depositLog.Id)
	}
	if err := l.store.PutSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription %s: %w", sub.Id, err)
	}

	l.checkConservation(sub, ev)
	zap.L().Info("Sender deposit applied",
		zap.String("subscription_id", sub.Id),
		zap.String("sender", sender.Address),
		zap.String("amount", ev.Amount.String()),
		zap.String("remaining_balance", sub.RemainingBalance.String()))
	return nil
}

// applyCancel retires the subscription: the outstanding remaining balance is
// swept out of both the subscription deposit and the sender aggregate, and
// the record stays behind with isActive=false. No audit log is written for
// the swept remainder; cancellation silently retires outstanding funds from
// the ledger's perspective.
func (l *Ledger) applyCancel(ctx context.Context, ev models.ChainEvent) error {
	sub, err := l.store.GetSubscription(ctx, ev.SubscriptionId)
	if err != nil {
		return fmt.Errorf("failed to load subscription %s: %w", ev.SubscriptionId, err)
	}
	if sub == nil {
		l.reportMissing(ctx, ev, "Subscription", ev.SubscriptionId)
		return nil
	}

	sender, err := l.store.GetSender(ctx, sub.Sender)
	if err != nil {
		return fmt.Errorf("failed to load sender %s: %w", sub.Sender, err)
	}
	if sender == nil {
		l.reportMissing(ctx, ev, "Sender", sub.Sender)
		return nil
	}

	// Capture before zeroing; the sender aggregate shrinks by the same value.
	remaining := sub.RemainingBalance

	sub.IsActive = false
	sub.Deposit = sub.Deposit.Sub(remaining)
	sub.RemainingBalance = decimal.Zero
	sub.StopTime = ev.Meta.BlockTime
	sender.Deposit = sender.Deposit.Sub(remaining)

	if err := l.store.PutSender(ctx, sender); err != nil {
		return fmt.Errorf("failed to save sender %s: %w", sender.Address, err)
	}
	if err := l.store.PutSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription %s: %w", sub.Id, err)
	}

	l.checkConservation(sub, ev)
	zap.L().Info("Subscription cancelled",
		zap.String("subscription_id", sub.Id),
		zap.String("sender", sender.Address),
		zap.String("swept_remainder", remaining.String()),
		zap.String("deposit", sub.Deposit.String()))
	return nil
}

func (l *Ledger) reportMissing(ctx context.Context, ev models.ChainEvent, entity, key string) {
	l.diags.Report(ctx, Anomaly{
		Kind:      MissingPrerequisite,
		EventKind: ev.Kind,
		Entity:    entity,
		Key:       key,
		Message:   entity + " does not exist, skipping event",
	})
}

func (l *Ledger) reportDuplicateLog(ctx context.Context, ev models.ChainEvent, entity, key string) {
	l.diags.Report(ctx, Anomaly{
		Kind:      DuplicateLog,
		EventKind: ev.Kind,
		Entity:    entity,
		Key:       key,
		Message:   entity + " already exists, overwritten",
	})
}

// checkConservation verifies deposit == withdrawn + remaining after a
// transition. The handlers preserve it by construction; a violation means
// the stored record was corrupted out of band, so it is only logged.
func (l *Ledger) checkConservation(sub *models.Subscription, ev models.ChainEvent) {
	if sub.Deposit.Equal(sub.WithdrawnBalance.Add(sub.RemainingBalance)) {
		return
	}
	zap.L().Warn("Conservation invariant violated",
		zap.String("subscription_id", sub.Id),
		zap.String("event_kind", ev.Kind),
		zap.String("deposit", sub.Deposit.String()),
		zap.String("withdrawn_balance", sub.WithdrawnBalance.String()),
		zap.String("remaining_balance", sub.RemainingBalance.String()))
}
