// Package backend builds the shared record store selected by configuration.
package backend

import (
	"context"

	"condo/internal/attendance"
	"condo/internal/finance"
)

// Store is everything the report services and the API need from a backend.
type Store interface {
	finance.Source
	finance.PeopleDirectory
	attendance.Store
	Ping(ctx context.Context) error
	Close() error
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional dataset loaded into the store at startup
	SeedFile string
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
