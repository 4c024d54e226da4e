// Package store defines the durable store port the engine persists into.
//
// The engine only needs get/set/remove of opaque string blobs under fixed
// keys; anything that can hold two small strings durably can back it.
package store

import "context"

// DurableStore is the outbound persistence port.
type DurableStore interface {
	// Get returns the blob stored under key. The boolean is false when no
	// value exists, which is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the value under key. Removing a missing key is a no-op.
	Remove(ctx context.Context, key string) error
}
