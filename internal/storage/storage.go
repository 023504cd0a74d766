// Package storage persists named collections as opaque JSON documents.
package storage

import (
	"context"
	"errors"
)

// Collection names. Each holds an ordered JSON array of flat records.
const (
	RevenueEntries  = "revenueEntries"
	Goals           = "goals"
	Calls           = "calls"
	Forms           = "forms"
	FormSubmissions = "formSubmissions"
)

// Collections lists every collection in load order.
var Collections = []string{RevenueEntries, Goals, Calls, Forms, FormSubmissions}

// ErrClosed is returned by repositories used after Close.
var ErrClosed = errors.New("storage: repository closed")

// Snapshot is the full serialized content of one collection.
type Snapshot struct {
	Collection string
	Payload    []byte
}

// Repository loads and saves whole collections.
//
// Load returns nil, nil for a collection that was never saved. Save writes
// every snapshot or none of them.
type Repository interface {
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, snapshots ...Snapshot) error
	Close() error
}
