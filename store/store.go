// Package store defines the keyed blob persistence used for worlds. One
// blob is stored per group id.
package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates no blob is stored under the key.
var ErrNotFound = errors.New("record not found")

// Store persists opaque world blobs by group id.
//
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=./mocks/store_mock.go -package=mocks . Store
type Store interface {
	Get(ctx context.Context, groupID string) ([]byte, error)
	Put(ctx context.Context, groupID string, data []byte) error
	Delete(ctx context.Context, groupID string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}
