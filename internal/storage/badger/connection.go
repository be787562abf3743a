package badger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerDB manages the Badger database connection
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.BadgerConfig
}

// NewBadgerDB opens the badgerhold store at the configured path,
// optionally wiping an existing database first.
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	if config.ResetOnStartup {
		resetDatabase(config.Path, logger)
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // arbor owns logging

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", config.Path, err)
	}
	logger.Debug().Str("path", config.Path).Msg("Badger database opened")

	return &BadgerDB{
		store:  store,
		logger: logger,
		config: config,
	}, nil
}

func resetDatabase(path string, logger arbor.ILogger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	logger.Debug().Str("path", path).Msg("Removing existing database (reset_on_startup)")
	if err := os.RemoveAll(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to remove database directory")
	}
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close closes the database connection
func (b *BadgerDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
