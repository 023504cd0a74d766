package backend

import (
	"context"

	"revtrack/internal/services"
	"revtrack/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the loaded data service and its cleanup function
type Result struct {
	Service *services.DataService
	Cleanup CleanupFunc
}

// Mirror is what the sync worker writes entries to.
type Mirror interface {
	sheets.EntryMirror
	sheets.EntryLister
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the repository, loads every collection and
	// returns the ready data service.
	CreateBackend(ctx context.Context, config Config) (*Result, error)
	// CreateMirror returns the spreadsheet mirror, or an in-memory one when
	// no spreadsheet is configured.
	CreateMirror(ctx context.Context, config Config) (Mirror, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// Sync publishing; an empty URL disables it
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
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
