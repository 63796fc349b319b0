package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Indexer  IndexerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// IndexerConfig holds event ingestion settings
type IndexerConfig struct {
	Backend         string
	Chain           string
	EventsFile      string
	PollingInterval time.Duration
	TokensFile      string
}
