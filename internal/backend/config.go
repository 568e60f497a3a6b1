package backend

import (
	"errors"
	"fmt"

	"dompet/internal/config"
)

// BackendType names a Record Store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// ErrQueueNeedsSQLite is returned when the mirror queue is configured for a
// store the sync worker cannot read back from.
var ErrQueueNeedsSQLite = errors.New("the sheet mirror queue needs the sqlite backend; unset AMQP_URL or use sqlite")

var backendTypes = []BackendType{SQLiteBackend, MemoryBackend}

// ParseBackendType accepts one of the known store names.
func ParseBackendType(s string) (BackendType, error) {
	for _, bt := range backendTypes {
		if string(bt) == s {
			return bt, nil
		}
	}
	return "", fmt.Errorf("invalid backend type %q (valid: %v)", s, backendTypes)
}

// QueueConfig locates the AMQP exchange that feeds the sheet mirror.
type QueueConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// Config selects a Record Store. Queue is nil when transactions are not
// mirrored.
type Config struct {
	Type BackendType

	// SQLitePath is the database file of the sqlite store.
	SQLitePath string
	// SeedDir holds seed_categories.txt for the memory store.
	SeedDir string

	Queue *QueueConfig
}

// FromAppConfig derives the store selection from the application config
// and validates it.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt, err := ParseBackendType(app.DataBackend)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{Type: bt, SQLitePath: app.SQLiteDBPath, SeedDir: app.DataDir}
	if app.AMQPURL != "" {
		cfg.Queue = &QueueConfig{URL: app.AMQPURL, Exchange: app.AMQPExchange, Queue: app.AMQPQueue}
	}
	return cfg, cfg.Validate()
}

// Validate enforces the per-store requirements: sqlite needs a path, and
// only sqlite may publish to the mirror queue.
func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLitePath == "" {
			return errors.New("sqlite backend: database path is required")
		}
		if c.Queue != nil && c.Queue.Exchange == "" {
			return errors.New("sqlite backend: AMQP exchange is required when AMQP_URL is set")
		}
	case MemoryBackend:
		if c.Queue != nil {
			return ErrQueueNeedsSQLite
		}
	default:
		_, err := ParseBackendType(string(c.Type))
		return err
	}
	return nil
}
