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
	"fmt"

	"go.uber.org/zap"

	"subscription-ledger-go/internal/common"
	"subscription-ledger-go/internal/config"
	"subscription-ledger-go/internal/database"
	"subscription-ledger-go/internal/models"
)

func printSubscription(sub models.Subscription, tokens *common.TokenRegistry, isLast bool) {
	status := "active"
	if !sub.IsActive {
		status = "cancelled"
	}
	fmt.Printf("%s %-14s %-9s token: %-8s deposit: %s remaining: %s withdrawn: %s (%s/%s)\n",
		common.BoxPrefix(isLast),
		common.ShortenAddress(sub.Id),
		status,
		tokens.Symbol(sub.TokenAddress),
		sub.Deposit.String(),
		sub.RemainingBalance.String(),
		sub.WithdrawnBalance.String(),
		sub.WithdrawnCount.String(),
		sub.WithdrawableCount.String())
}

func printSenders(ctx context.Context, dbService *database.Service) error {
	senders, err := dbService.ListSenders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list senders: %w", err)
	}

	common.PrintHeader(fmt.Sprintf("Senders (%d)", len(senders)), common.DefaultWidth)
	for i, sender := range senders {
		fmt.Printf("%s %-44s deposit: %20s -> recipients: %s\n",
			common.BoxPrefix(i == len(senders)-1),
			sender.Address,
			sender.Deposit.String(),
			sender.WithdrawnToRecipient.String())
	}
	return nil
}

func printRecipients(ctx context.Context, dbService *database.Service) error {
	recipients, err := dbService.ListRecipients(ctx)
	if err != nil {
		return fmt.Errorf("failed to list recipients: %w", err)
	}

	common.PrintHeader(fmt.Sprintf("Recipients (%d)", len(recipients)), common.DefaultWidth)
	for i, recipient := range recipients {
		fmt.Printf("%s %-44s withdrawn: %20s\n",
			common.BoxPrefix(i == len(recipients)-1),
			recipient.Address,
			recipient.WithdrawnBalance.String())
	}
	return nil
}

func printSubscriptions(ctx context.Context, dbService *database.Service, tokens *common.TokenRegistry) (int, error) {
	subs, err := dbService.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	common.PrintHeader(fmt.Sprintf("Subscriptions (%d)", len(subs)), common.WideWidth)
	for i, sub := range subs {
		printSubscription(sub, tokens, i == len(subs)-1)
	}
	return len(subs), nil
}

func main() {
	tokensFile := flag.String("tokens", "", "Optional path to tokens.yaml for token symbol resolution")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	tokens := common.EmptyTokenRegistry()
	registryFile := *tokensFile
	if registryFile == "" {
		registryFile = cfg.Indexer.TokensFile
	}
	if loaded, err := common.LoadTokenRegistry(registryFile); err != nil {
		logger.Warn("Token registry unavailable, printing raw addresses",
			zap.String("file", registryFile),
			zap.Error(err))
	} else {
		tokens = loaded
	}

	if err := printSenders(ctx, dbService); err != nil {
		logger.Fatal("Failed to print senders", zap.Error(err))
	}
	if err := printRecipients(ctx, dbService); err != nil {
		logger.Fatal("Failed to print recipients", zap.Error(err))
	}
	total, err := printSubscriptions(ctx, dbService, tokens)
	if err != nil {
		logger.Fatal("Failed to print subscriptions", zap.Error(err))
	}

	common.PrintFooter(fmt.Sprintf("Total subscriptions: %d", total), common.DefaultWidth)
}
