package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"subscription-ledger-go/internal/models"
)

// LoadCursor returns the last applied ordering position for a chain, or
// (nil, nil) when the chain has never been indexed.
func (s *Service) LoadCursor(ctx context.Context, chain string) (*models.Cursor, error) {
	var cursor models.Cursor
	err := s.db.QueryRowContext(ctx, queryGetCursor, chain).
		Scan(&cursor.BlockNumber, &cursor.TxIndex, &cursor.LogIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cursor for chain %s: %w", chain, err)
	}
	return &cursor, nil
}

func (s *Service) SaveCursor(ctx context.Context, chain string, cursor models.Cursor) error {
	_, err := s.db.ExecContext(ctx, queryUpsertCursor,
		chain, cursor.BlockNumber, cursor.TxIndex, cursor.LogIndex)
	if err != nil {
		return fmt.Errorf("failed to save cursor for chain %s: %w", chain, err)
	}
	return nil
}
