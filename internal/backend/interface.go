package backend

import (
	"context"

	"nexu/internal/insights"
	"nexu/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Close runs f, making CleanupFunc an io.Closer. A nil f is a no-op.
func (f CleanupFunc) Close() error {
	if f == nil {
		return nil
	}
	return f()
}

// BackendResult contains the ledger store and the resources built around it.
// InsightStore is nil for backends that cannot share insights between
// processes; Publisher is nil when no broker is configured.
type BackendResult struct {
	Store        ledger.Store
	InsightStore insights.Store
	Publisher    ledger.Publisher
	Cleanup      CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
