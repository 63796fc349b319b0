package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"subscription-ledger-go/internal/models"
	"subscription-ledger-go/internal/store"
)

// recordingReporter captures anomalies so tests can assert on them.
type recordingReporter struct {
	anomalies []Anomaly
}

func (r *recordingReporter) Report(_ context.Context, a Anomaly) {
	r.anomalies = append(r.anomalies, a)
}

func (r *recordingReporter) ofKind(kind AnomalyKind) []Anomaly {
	var out []Anomaly
	for _, a := range r.anomalies {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func setupLedger(t *testing.T) (*Ledger, *store.MemoryStore, *recordingReporter) {
	t.Helper()
	memStore := store.NewMemoryStore()
	reporter := &recordingReporter{}
	return New(memStore, reporter), memStore, reporter
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func meta(block uint64, logIndex uint32, blockTime int64) models.EventMeta {
	return models.EventMeta{
		Chain:       "testnet",
		BlockNumber: block,
		TxIndex:     0,
		LogIndex:    logIndex,
		TxHash:      fmt.Sprintf("0xtx%d", block),
		BlockTime:   dec(blockTime),
	}
}

func createEvent(id string, deposit, startTime, stopTime, interval int64, sender, recipient string, m models.EventMeta) models.ChainEvent {
	return models.ChainEvent{
		Kind:           models.EventCreateSubscription,
		SubscriptionId: id,
		Sender:         sender,
		Recipient:      recipient,
		TokenAddress:   "0xtoken",
		Deposit:        dec(deposit),
		FixedRate:      dec(10),
		StartTime:      dec(startTime),
		StopTime:       dec(stopTime),
		Interval:       dec(interval),
		Meta:           m,
	}
}

func recipientWithdrawEvent(id, recipient string, amount int64, m models.EventMeta) models.ChainEvent {
	return models.ChainEvent{
		Kind:           models.EventWithdrawFromRecipient,
		SubscriptionId: id,
		Recipient:      recipient,
		Amount:         dec(amount),
		Meta:           m,
	}
}

func senderWithdrawEvent(id, sender string, amount int64, m models.EventMeta) models.ChainEvent {
	return models.ChainEvent{
		Kind:           models.EventWithdrawFromSender,
		SubscriptionId: id,
		Sender:         sender,
		Amount:         dec(amount),
		Meta:           m,
	}
}

func senderDepositEvent(id, sender string, amount int64, m models.EventMeta) models.ChainEvent {
	return models.ChainEvent{
		Kind:           models.EventDepositFromSender,
		SubscriptionId: id,
		Sender:         sender,
		Amount:         dec(amount),
		Meta:           m,
	}
}

func cancelEvent(id string, m models.EventMeta) models.ChainEvent {
	return models.ChainEvent{
		Kind:           models.EventCancelSubscription,
		SubscriptionId: id,
		Meta:           m,
	}
}

func mustGetSubscription(t *testing.T, st *store.MemoryStore, id string) *models.Subscription {
	t.Helper()
	sub, err := st.GetSubscription(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if sub == nil {
		t.Fatalf("Subscription %s not found", id)
	}
	return sub
}

func assertConservation(t *testing.T, sub *models.Subscription) {
	t.Helper()
	sum := sub.WithdrawnBalance.Add(sub.RemainingBalance)
	if !sub.Deposit.Equal(sum) {
		t.Errorf("Conservation violated for %s: deposit=%s withdrawn+remaining=%s",
			sub.Id, sub.Deposit.String(), sum.String())
	}
}

func TestApplyCreate_InitializesSubscription(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	err := l.Apply(ctx, createEvent("sub1", 1000, 0, 1000, 100, "0xsenderA", "0xrecipB", meta(1, 0, 0)))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.Deposit.Equal(dec(1000)) {
		t.Errorf("Expected deposit 1000, got %s", sub.Deposit.String())
	}
	if !sub.RemainingBalance.Equal(dec(1000)) {
		t.Errorf("Expected remaining balance 1000, got %s", sub.RemainingBalance.String())
	}
	if !sub.WithdrawnBalance.IsZero() {
		t.Errorf("Expected withdrawn balance 0, got %s", sub.WithdrawnBalance.String())
	}
	if !sub.WithdrawableCount.Equal(dec(10)) {
		t.Errorf("Expected withdrawable count 10, got %s", sub.WithdrawableCount.String())
	}
	if !sub.WithdrawnCount.IsZero() {
		t.Errorf("Expected withdrawn count 0, got %s", sub.WithdrawnCount.String())
	}
	if !sub.LastWithdrawTime.Equal(sub.StartTime) {
		t.Errorf("Expected last withdraw time %s, got %s", sub.StartTime.String(), sub.LastWithdrawTime.String())
	}
	if !sub.IsActive {
		t.Error("Expected subscription to be active")
	}
	if sub.Sender != "0xsenderA" || sub.Recipient != "0xrecipB" {
		t.Errorf("Unexpected party references: %s / %s", sub.Sender, sub.Recipient)
	}
	assertConservation(t, sub)

	sender, err := st.GetSender(ctx, "0xsenderA")
	if err != nil || sender == nil {
		t.Fatalf("Sender not created: %v", err)
	}
	if !sender.Deposit.IsZero() || !sender.WithdrawnToRecipient.IsZero() {
		t.Error("Expected fresh sender aggregates to be zero")
	}

	recipient, err := st.GetRecipient(ctx, "0xrecipB")
	if err != nil || recipient == nil {
		t.Fatalf("Recipient not created: %v", err)
	}
	if !recipient.WithdrawnBalance.IsZero() {
		t.Error("Expected fresh recipient aggregate to be zero")
	}

	if len(reporter.anomalies) != 0 {
		t.Errorf("Expected no anomalies, got %d", len(reporter.anomalies))
	}
}

func TestApplyCreate_TruncatesWithdrawableCount(t *testing.T) {
	l, st, _ := setupLedger(t)
	ctx := context.Background()

	// (950 - 0) / 100 truncates to 9.
	if err := l.Apply(ctx, createEvent("sub1", 500, 0, 950, 100, "0xs", "0xr", meta(1, 0, 0))); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.WithdrawableCount.Equal(dec(9)) {
		t.Errorf("Expected withdrawable count 9, got %s", sub.WithdrawableCount.String())
	}
}

func TestApplyCreate_ZeroInterval(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, createEvent("sub1", 500, 0, 1000, 0, "0xs", "0xr", meta(1, 0, 0))); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.WithdrawableCount.IsZero() {
		t.Errorf("Expected withdrawable count 0, got %s", sub.WithdrawableCount.String())
	}
	if got := reporter.ofKind(BadInterval); len(got) != 1 {
		t.Errorf("Expected 1 bad interval anomaly, got %d", len(got))
	}
}

func TestApplyCreate_DuplicateReinitializes(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, createEvent("sub1", 1000, 0, 1000, 100, "0xs", "0xr", meta(1, 0, 0))); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	// Give the sender some aggregate state before the duplicate arrives.
	if err := l.Apply(ctx, senderDepositEvent("sub1", "0xs", 250, meta(2, 0, 50))); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	if err := l.Apply(ctx, createEvent("sub1", 2000, 0, 2000, 200, "0xs", "0xr", meta(3, 0, 100))); err != nil {
		t.Fatalf("Duplicate create failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.Deposit.Equal(dec(2000)) {
		t.Errorf("Expected reinitialized deposit 2000, got %s", sub.Deposit.String())
	}
	if !sub.RemainingBalance.Equal(dec(2000)) {
		t.Errorf("Expected reinitialized remaining balance 2000, got %s", sub.RemainingBalance.String())
	}
	if !sub.WithdrawableCount.Equal(dec(10)) {
		t.Errorf("Expected withdrawable count 10, got %s", sub.WithdrawableCount.String())
	}
	assertConservation(t, sub)

	// Re-referencing parties must not reset their aggregates.
	sender, _ := st.GetSender(ctx, "0xs")
	if !sender.Deposit.Equal(dec(250)) {
		t.Errorf("Expected sender deposit 250 preserved, got %s", sender.Deposit.String())
	}

	if got := reporter.ofKind(DuplicateCreate); len(got) != 1 {
		t.Fatalf("Expected 1 duplicate create anomaly, got %d", len(got))
	}
}

func TestRecipientWithdraw_MovesBalance(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, createEvent("sub1", 1000, 0, 1000, 100, "0xsenderA", "0xrecipB", meta(1, 0, 0))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	withdrawal := recipientWithdrawEvent("sub1", "0xrecipB", 100, meta(2, 1, 100))
	if err := l.Apply(ctx, withdrawal); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.RemainingBalance.Equal(dec(900)) {
		t.Errorf("Expected remaining balance 900, got %s", sub.RemainingBalance.String())
	}
	if !sub.WithdrawnBalance.Equal(dec(100)) {
		t.Errorf("Expected withdrawn balance 100, got %s", sub.WithdrawnBalance.String())
	}
	if !sub.WithdrawnCount.Equal(dec(1)) {
		t.Errorf("Expected withdrawn count 1, got %s", sub.WithdrawnCount.String())
	}
	if !sub.LastWithdrawTime.Equal(dec(100)) {
		t.Errorf("Expected last withdraw time 100, got %s", sub.LastWithdrawTime.String())
	}
	assertConservation(t, sub)

	recipient, _ := st.GetRecipient(ctx, "0xrecipB")
	if !recipient.WithdrawnBalance.Equal(dec(100)) {
		t.Errorf("Expected recipient withdrawn balance 100, got %s", recipient.WithdrawnBalance.String())
	}
	sender, _ := st.GetSender(ctx, "0xsenderA")
	if !sender.WithdrawnToRecipient.Equal(dec(100)) {
		t.Errorf("Expected sender withdrawn-to-recipient 100, got %s", sender.WithdrawnToRecipient.String())
	}

	withdrawLog := st.GetRecipientWithdrawLog(withdrawal.Meta.LogKey())
	if withdrawLog == nil {
		t.Fatal("Expected recipient withdraw log to exist")
	}
	if !withdrawLog.WithdrawnCount.Equal(dec(1)) {
		t.Errorf("Expected log withdrawn count 1, got %s", withdrawLog.WithdrawnCount.String())
	}

	if len(reporter.anomalies) != 0 {
		t.Errorf("Expected no anomalies, got %d", len(reporter.anomalies))
	}
}

func TestRecipientWithdraw_NoClamping(t *testing.T) {
	l, st, _ := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, createEvent("sub1", 100, 0, 1000, 100, "0xs", "0xr", meta(1, 0, 0))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := l.Apply(ctx, recipientWithdrawEvent("sub1", "0xr", 250, meta(2, 0, 100))); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.RemainingBalance.Equal(dec(-150)) {
		t.Errorf("Expected remaining balance -150, got %s", sub.RemainingBalance.String())
	}
	assertConservation(t, sub)
}

func TestRecipientWithdraw_MissingSubscription(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, recipientWithdrawEvent("ghost", "0xr", 100, meta(1, 0, 100))); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if st.WriteCount() != 0 {
		t.Errorf("Expected zero writes, got %d", st.WriteCount())
	}
	if len(reporter.anomalies) != 1 {
		t.Fatalf("Expected exactly 1 diagnostic, got %d", len(reporter.anomalies))
	}
	if reporter.anomalies[0].Kind != MissingPrerequisite {
		t.Errorf("Expected missing prerequisite, got %s", reporter.anomalies[0].Kind)
	}
}

func TestRecipientWithdraw_MissingRecipient(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	// Subscription exists but its parties were never materialized.
	orphan := &models.Subscription{
		Id:               "orphan",
		Deposit:          dec(500),
		RemainingBalance: dec(500),
		WithdrawnBalance: decimal.Zero,
		Sender:           "0xs",
		Recipient:        "0xr",
		IsActive:         true,
	}
	if err := st.PutSubscription(ctx, orphan); err != nil {
		t.Fatalf("PutSubscription failed: %v", err)
	}
	before := st.WriteCount()

	if err := l.Apply(ctx, recipientWithdrawEvent("orphan", "0xr", 100, meta(1, 0, 100))); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if st.WriteCount() != before {
		t.Errorf("Expected no additional writes, got %d", st.WriteCount()-before)
	}
	sub := mustGetSubscription(t, st, "orphan")
	if !sub.RemainingBalance.Equal(dec(500)) {
		t.Errorf("Expected remaining balance unchanged at 500, got %s", sub.RemainingBalance.String())
	}
	if got := reporter.ofKind(MissingPrerequisite); len(got) != 1 {
		t.Errorf("Expected 1 missing prerequisite diagnostic, got %d", len(got))
	}
}

func TestRecipientWithdraw_RedeliveryDoubleAppliesBalances(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, createEvent("sub1", 1000, 0, 1000, 100, "0xs", "0xr", meta(1, 0, 0))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The identical event delivered twice: the log write dedupes by key, the
	// balance mutation deliberately does not.
	withdrawal := recipientWithdrawEvent("sub1", "0xr", 100, meta(2, 3, 100))
	if err := l.Apply(ctx, withdrawal); err != nil {
		t.Fatalf("First withdraw failed: %v", err)
	}
	if err := l.Apply(ctx, withdrawal); err != nil {
		t.Fatalf("Redelivered withdraw failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.RemainingBalance.Equal(dec(800)) {
		t.Errorf("Expected double-applied remaining balance 800, got %s", sub.RemainingBalance.String())
	}
	if !sub.WithdrawnBalance.Equal(dec(200)) {
		t.Errorf("Expected double-applied withdrawn balance 200, got %s", sub.WithdrawnBalance.String())
	}
	if !sub.WithdrawnCount.Equal(dec(2)) {
		t.Errorf("Expected withdrawn count 2, got %s", sub.WithdrawnCount.String())
	}
	assertConservation(t, sub)

	if got := reporter.ofKind(DuplicateLog); len(got) != 1 {
		t.Fatalf("Expected 1 duplicate log anomaly, got %d", len(got))
	}

	// The overwritten log carries the post-redelivery count.
	withdrawLog := st.GetRecipientWithdrawLog(withdrawal.Meta.LogKey())
	if withdrawLog == nil {
		t.Fatal("Expected recipient withdraw log to exist")
	}
	if !withdrawLog.WithdrawnCount.Equal(dec(2)) {
		t.Errorf("Expected overwritten log withdrawn count 2, got %s", withdrawLog.WithdrawnCount.String())
	}
}

func TestSenderWithdraw_ReducesDeposit(t *testing.T) {
	l, st, _ := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, createEvent("sub1", 1000, 0, 1000, 100, "0xs", "0xr", meta(1, 0, 0))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	refund := senderWithdrawEvent("sub1", "0xs", 300, meta(2, 0, 200))
	if err := l.Apply(ctx, refund); err != nil {
		t.Fatalf("Sender withdraw failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.Deposit.Equal(dec(700)) {
		t.Errorf("Expected deposit 700, got %s", sub.Deposit.String())
	}
	if !sub.RemainingBalance.Equal(dec(700)) {
		t.Errorf("Expected remaining balance 700, got %s", sub.RemainingBalance.String())
	}
	if !sub.WithdrawnBalance.IsZero() {
		t.Errorf("Expected withdrawn balance untouched at 0, got %s", sub.WithdrawnBalance.String())
	}
	assertConservation(t, sub)

	sender, _ := st.GetSender(ctx, "0xs")
	if !sender.Deposit.Equal(dec(-300)) {
		t.Errorf("Expected sender deposit -300, got %s", sender.Deposit.String())
	}

	if st.GetSenderWithdrawLog(refund.Meta.LogKey()) == nil {
		t.Error("Expected sender withdraw log to exist")
	}
}

func TestSenderDeposit_TopsUp(t *testing.T) {
	l, st, _ := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, createEvent("sub1", 1000, 0, 1000, 100, "0xs", "0xr", meta(1, 0, 0))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	topUp := senderDepositEvent("sub1", "0xs", 200, meta(2, 0, 150))
	if err := l.Apply(ctx, topUp); err != nil {
		t.Fatalf("Sender deposit failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.Deposit.Equal(dec(1200)) {
		t.Errorf("Expected deposit 1200, got %s", sub.Deposit.String())
	}
	if !sub.RemainingBalance.Equal(dec(1200)) {
		t.Errorf("Expected remaining balance 1200, got %s", sub.RemainingBalance.String())
	}
	assertConservation(t, sub)

	sender, _ := st.GetSender(ctx, "0xs")
	if !sender.Deposit.Equal(dec(200)) {
		t.Errorf("Expected sender deposit 200, got %s", sender.Deposit.String())
	}

	if st.GetSenderDepositLog(topUp.Meta.LogKey()) == nil {
		t.Error("Expected sender deposit log to exist")
	}
}

func TestSenderDeposit_MissingSubscription(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, senderDepositEvent("ghost", "0xs", 200, meta(1, 0, 100))); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if st.WriteCount() != 0 {
		t.Errorf("Expected zero writes, got %d", st.WriteCount())
	}
	if len(reporter.anomalies) != 1 {
		t.Errorf("Expected exactly 1 diagnostic, got %d", len(reporter.anomalies))
	}
}

func TestCancel_SweepsRemainder(t *testing.T) {
	l, st, _ := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, createEvent("sub1", 1000, 0, 1000, 100, "0xsenderA", "0xrecipB", meta(1, 0, 0))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := l.Apply(ctx, recipientWithdrawEvent("sub1", "0xrecipB", 100, meta(2, 0, 100))); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if err := l.Apply(ctx, cancelEvent("sub1", meta(3, 0, 500))); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if sub.IsActive {
		t.Error("Expected subscription to be cancelled")
	}
	if !sub.RemainingBalance.IsZero() {
		t.Errorf("Expected remaining balance 0, got %s", sub.RemainingBalance.String())
	}
	if !sub.Deposit.Equal(dec(100)) {
		t.Errorf("Expected deposit 100, got %s", sub.Deposit.String())
	}
	if !sub.StopTime.Equal(dec(500)) {
		t.Errorf("Expected stop time 500, got %s", sub.StopTime.String())
	}
	assertConservation(t, sub)

	// The sender aggregate shrinks by the swept remainder, not by zero.
	sender, _ := st.GetSender(ctx, "0xsenderA")
	if !sender.Deposit.Equal(dec(-900)) {
		t.Errorf("Expected sender deposit -900, got %s", sender.Deposit.String())
	}
}

func TestCancel_ImmediatelyAfterCreate(t *testing.T) {
	l, st, _ := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, createEvent("sub1", 1000, 0, 1000, 100, "0xs", "0xr", meta(1, 0, 0))); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := l.Apply(ctx, cancelEvent("sub1", meta(2, 0, 50))); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	sub := mustGetSubscription(t, st, "sub1")
	if !sub.Deposit.IsZero() {
		t.Errorf("Expected deposit 0, got %s", sub.Deposit.String())
	}
	if sub.IsActive {
		t.Error("Expected subscription to be cancelled")
	}
	assertConservation(t, sub)
}

func TestCancel_MissingSubscription(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	if err := l.Apply(ctx, cancelEvent("ghost", meta(1, 0, 100))); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if st.WriteCount() != 0 {
		t.Errorf("Expected zero writes, got %d", st.WriteCount())
	}
	if got := reporter.ofKind(MissingPrerequisite); len(got) != 1 {
		t.Errorf("Expected 1 missing prerequisite diagnostic, got %d", len(got))
	}
}

func TestUnknownEventKind(t *testing.T) {
	l, st, reporter := setupLedger(t)
	ctx := context.Background()

	ev := models.ChainEvent{Kind: "TransferOwnership", SubscriptionId: "sub1", Meta: meta(1, 0, 0)}
	if err := l.Apply(ctx, ev); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if st.WriteCount() != 0 {
		t.Errorf("Expected zero writes, got %d", st.WriteCount())
	}
	if got := reporter.ofKind(UnknownEventKind); len(got) != 1 {
		t.Errorf("Expected 1 unknown event kind anomaly, got %d", len(got))
	}
}

func TestConservation_AcrossEventSequence(t *testing.T) {
	l, st, _ := setupLedger(t)
	ctx := context.Background()

	events := []models.ChainEvent{
		createEvent("sub1", 1000, 0, 1000, 100, "0xs", "0xr", meta(1, 0, 0)),
		recipientWithdrawEvent("sub1", "0xr", 100, meta(2, 0, 100)),
		senderDepositEvent("sub1", "0xs", 500, meta(3, 0, 150)),
		recipientWithdrawEvent("sub1", "0xr", 100, meta(4, 0, 200)),
		senderWithdrawEvent("sub1", "0xs", 250, meta(5, 0, 250)),
		recipientWithdrawEvent("sub1", "0xr", 100, meta(6, 0, 300)),
		cancelEvent("sub1", meta(7, 0, 400)),
	}

	for i, ev := range events {
		if err := l.Apply(ctx, ev); err != nil {
			t.Fatalf("Apply %d (%s) failed: %v", i, ev.Kind, err)
		}
		assertConservation(t, mustGetSubscription(t, st, "sub1"))
	}

	sub := mustGetSubscription(t, st, "sub1")
	// 1000 + 500 - 250 funding, 300 withdrawn, remainder swept on cancel.
	if !sub.WithdrawnBalance.Equal(dec(300)) {
		t.Errorf("Expected withdrawn balance 300, got %s", sub.WithdrawnBalance.String())
	}
	if !sub.Deposit.Equal(dec(300)) {
		t.Errorf("Expected deposit 300, got %s", sub.Deposit.String())
	}
	if !sub.RemainingBalance.IsZero() {
		t.Errorf("Expected remaining balance 0, got %s", sub.RemainingBalance.String())
	}
}
