package storage

import (
	"context"
	"log/slog"

	"mercator-hq/storage-helper/pkg/artifact"
)

// Client exposes a Backend as a package store. It satisfies
// artifact.Lister and artifact.Deleter.
type Client struct {
	backend Backend
	prefix  string
	logger  *slog.Logger
}

// NewClient creates a package store over backend. prefix is the path under
// which packages live and may be empty.
func NewClient(backend Backend, prefix string) *Client {
	return &Client{
		backend: backend,
		prefix:  prefix,
		logger:  slog.Default().With("component", "artifact.storage", "backend", backend.Name()),
	}
}

// Packages lists the store and groups the listing into packages.
func (c *Client) Packages(ctx context.Context) ([]artifact.Package, error) {
	objects, err := c.backend.List(ctx, c.prefix)
	if err != nil {
		return nil, err
	}

	packages := GroupPackages(objects, c.prefix, c.logger)

	c.logger.Debug("listing grouped",
		"objects", len(objects),
		"packages", len(packages),
	)

	return packages, nil
}

// Delete removes every object of pkg.
func (c *Client) Delete(ctx context.Context, pkg artifact.Package) error {
	prefix := PackagePrefix(c.prefix, pkg)

	n, err := c.backend.DeletePrefix(ctx, prefix)
	if err != nil {
		return err
	}

	c.logger.Debug("package deleted",
		"package", pkg.String(),
		"prefix", prefix,
		"objects", n,
	)
	return nil
}
