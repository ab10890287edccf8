package storage

import (
	"context"
	"time"
)

// Object is one entry of a blob-store listing.
type Object struct {
	// Name is the full object path, including any configured prefix.
	Name string

	// Created is the stored creation time. Zero means the backend did not
	// report one.
	Created time.Time
}

// Backend is a blob store holding package artifacts.
type Backend interface {
	// List returns every object whose name starts with prefix, in the
	// order the store lists them.
	List(ctx context.Context, prefix string) ([]Object, error)

	// DeletePrefix removes every object whose name starts with prefix and
	// returns the number of objects removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Ping checks that the bucket is reachable and listable with the
	// current credentials. It reads at most one listing page.
	Ping(ctx context.Context) error

	// Name identifies the backend type in logs and errors.
	Name() string
}
