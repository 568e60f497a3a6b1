package backend

import (
	"context"

	"dompet/internal/ledger"
)

// Publisher announces stored transactions to the mirror queue.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, id, owner string) error
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the Record Store, the optional queue publisher and
// a cleanup that releases both.
type BackendResult struct {
	Store     ledger.Store
	Publisher Publisher
	// Ping checks the store is reachable; nil for stores that always are.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
