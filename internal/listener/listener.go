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

package listener

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"subscription-ledger-go/internal/models"
	"subscription-ledger-go/internal/store"
)

// Applier applies one decoded event to the materialized state. The ledger
// core satisfies this.
type Applier interface {
	Apply(ctx context.Context, ev models.ChainEvent) error
}

// EventListenerConfig contains configuration for EventListener
type EventListenerConfig struct {
	Source          EventSource
	Applier         Applier
	Cursors         store.CursorStore
	Chain           string
	PollingInterval time.Duration
}

// EventListener polls the event source and applies new events strictly one
// at a time, in delivery order. The cursor is advanced and persisted after
// each applied event so a restart resumes where the previous run stopped.
//
// Re-delivered events already behind the cursor are skipped by the source;
// duplicates appearing later in the stream are passed through to the
// handlers, whose audit-log upserts dedupe the trail by idempotency key.
type EventListener struct {
	source  EventSource
	applier Applier
	cursors store.CursorStore
	chain   string

	pollingInterval time.Duration
	cursor          *models.Cursor

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewEventListener(cfg EventListenerConfig) *EventListener {
	return &EventListener{
		source:          cfg.Source,
		applier:         cfg.Applier,
		cursors:         cfg.Cursors,
		chain:           cfg.Chain,
		pollingInterval: cfg.PollingInterval,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start begins the event ingestion process
func (l *EventListener) Start(ctx context.Context) error {
	zap.L().Info("Starting event listener", zap.String("chain", l.chain))

	cursor, err := l.cursors.LoadCursor(ctx, l.chain)
	if err != nil {
		return fmt.Errorf("failed to load cursor: %w", err)
	}
	l.cursor = cursor
	if cursor != nil {
		zap.L().Info("Resuming from persisted cursor",
			zap.String("chain", l.chain),
			zap.String("position", cursor.String()))
	}

	go l.pollLoop(ctx)

	zap.L().Info("Event listener started successfully",
		zap.String("chain", l.chain),
		zap.Duration("polling_interval", l.pollingInterval))
	return nil
}

// Stop gracefully stops the event listener
func (l *EventListener) Stop() {
	zap.L().Info("Stopping event listener", zap.String("chain", l.chain))
	close(l.stopChan)
	<-l.doneChan
	zap.L().Info("Event listener stopped", zap.String("chain", l.chain))
}

// pollLoop runs the main polling loop
func (l *EventListener) pollLoop(ctx context.Context) {
	defer close(l.doneChan)

	ticker := time.NewTicker(l.pollingInterval)
	defer ticker.Stop()

	l.poll(ctx)

	for {
		select {
		case <-ticker.C:
			l.poll(ctx)
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (l *EventListener) poll(ctx context.Context) {
	applied, err := l.RunOnce(ctx)
	if err != nil {
		zap.L().Error("Failed to poll event source",
			zap.String("chain", l.chain),
			zap.Error(err))
		return
	}
	if applied > 0 {
		zap.L().Info("Applied new events",
			zap.String("chain", l.chain),
			zap.Int("count", applied))
	}
}

// RunOnce reads everything the source has beyond the cursor and applies it,
// returning how many events were applied. A failed application stops the
// batch without advancing the cursor past the failure; the next poll
// re-delivers from there.
func (l *EventListener) RunOnce(ctx context.Context) (int, error) {
	events, err := l.source.ReadSince(ctx, l.cursor)
	if err != nil {
		return 0, fmt.Errorf("failed to read events: %w", err)
	}

	applied := 0
	for _, ev := range events {
		pos := ev.Meta.Position()
		if l.cursor != nil && pos.Before(*l.cursor) {
			// The source promises non-decreasing order; a regression is a
			// data-quality signal, not a reason to drop the event.
			zap.L().Warn("Event ordering regression",
				zap.String("chain", l.chain),
				zap.String("position", pos.String()),
				zap.String("cursor", l.cursor.String()),
				zap.String("event_kind", ev.Kind))
		}

		if err := l.applier.Apply(ctx, ev); err != nil {
			return applied, fmt.Errorf("failed to apply event %s at %s: %w",
				ev.Kind, pos.String(), err)
		}
		applied++

		l.cursor = &pos
		if err := l.cursors.SaveCursor(ctx, l.chain, pos); err != nil {
			// Losing the cursor only costs a replay; delivery is
			// at-least-once end to end.
			zap.L().Warn("Failed to persist cursor",
				zap.String("chain", l.chain),
				zap.String("position", pos.String()),
				zap.Error(err))
		}
	}

	return applied, nil
}
