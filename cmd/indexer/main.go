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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"subscription-ledger-go/internal/common"
	"subscription-ledger-go/internal/config"
	"subscription-ledger-go/internal/ledger"
	"subscription-ledger-go/internal/listener"
)

func main() {
	eventsFile := flag.String("events", "", "Path to the JSON-lines chain event export (default: EVENTS_FILE env)")
	once := flag.Bool("once", false, "Apply all pending events and exit instead of polling")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	if *eventsFile != "" {
		cfg.Indexer.EventsFile = *eventsFile
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting subscription ledger indexer",
		zap.String("chain", cfg.Indexer.Chain),
		zap.String("events_file", cfg.Indexer.EventsFile),
		zap.String("backend", cfg.Indexer.Backend))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	var diags ledger.Reporter = ledger.NewZapReporter()
	if services.Database != nil {
		diags = ledger.NewRecordingReporter(diags, services.Database)
	}
	ldgr := ledger.New(services.Store, diags)

	source, err := listener.NewFileSource(cfg.Indexer.EventsFile)
	if err != nil {
		zap.L().Fatal("Failed to open event source", zap.Error(err))
	}

	l := listener.NewEventListener(listener.EventListenerConfig{
		Source:          source,
		Applier:         ldgr,
		Cursors:         services.Cursors,
		Chain:           cfg.Indexer.Chain,
		PollingInterval: cfg.Indexer.PollingInterval,
	})

	if *once {
		if err := l.Start(ctx); err != nil {
			zap.L().Fatal("Failed to start listener", zap.Error(err))
		}
		// Let the first poll complete, then stop.
		l.Stop()
		zap.L().Info("One-shot ingestion complete")
		return
	}

	if err := l.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start listener", zap.Error(err))
	}

	zap.L().Info("Indexer running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping listener...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Listener stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
