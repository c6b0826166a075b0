// Package storage persists collected tool records: a JSON results file
// rewritten as the crawl progresses, a CSV export, and an optional MongoDB
// mirror.
package storage

import (
	"fmt"

	"github.com/tooldex/tooldex/internal/catalog"
)

// Sink is one output destination for the result set. Write replaces the
// sink's content with exactly the given records (rewrite, not append), so
// every sink always holds a consistent snapshot of the crawl.
type Sink interface {
	Write(records []catalog.ToolRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the sink identifier.
	Name() string
}

// Error wraps a failed storage operation with its backend and operation.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
