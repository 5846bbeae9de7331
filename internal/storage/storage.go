// Package storage provides the durable key-value backends that hold the
// serialized product and overlay collections.
//
// Each key holds one whole collection and every Save replaces it, so a
// backend only has to make a single write atomic.
package storage

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Fixed collection keys.
const (
	KeyProducts       = "products"
	KeyProductConfigs = "productConfigs"
)

// ErrKeyNotFound is returned by Load when nothing has been saved under a key.
var ErrKeyNotFound = errors.New("storage: key not found")

// Backend persists opaque blobs under fixed keys.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Kind names a backend implementation.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindFile     Kind = "file"
	KindPostgres Kind = "postgres"
)

// ParseKind validates a backend name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindMemory, KindFile, KindPostgres:
		return k, nil
	default:
		return "", errors.Newf("unknown storage backend %q", s)
	}
}
