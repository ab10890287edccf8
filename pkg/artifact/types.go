package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Package identifies one deployed artifact version in the blob store.
// Two packages are the same artifact when name and version match; the
// creation date is metadata only.
type Package struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	CreationDate time.Time `json:"creation_date"`
}

// Key returns the "<name>/<version>" identity of the package.
func (p Package) Key() string {
	return Key(p.Name, p.Version)
}

// Equal reports whether p and other identify the same artifact.
func (p Package) Equal(other Package) bool {
	return p.Name == other.Name && p.Version == other.Version
}

// String implements fmt.Stringer.
func (p Package) String() string {
	return p.Name + "@" + p.Version
}

// Key builds the identity string shared by used-package sets and packages.
func Key(name, version string) string {
	return name + "/" + version
}

// Action is the retention verdict for a package.
type Action int

const (
	// Keep leaves the package in storage.
	Keep Action = iota
	// Delete removes every object of the package from storage.
	Delete
)

// String returns the lower-case configuration token for the action.
func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ParseAction parses a configuration token. Matching is case-insensitive;
// anything other than "keep" or "delete" is rejected.
func ParseAction(token string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "keep":
		return Keep, nil
	case "delete":
		return Delete, nil
	default:
		return Keep, fmt.Errorf("%w: %q", ErrUnknownAction, token)
	}
}

// Lister provides the deduplicated packages present in storage.
type Lister interface {
	Packages(ctx context.Context) ([]Package, error)
}

// Deleter removes every stored object of a package.
type Deleter interface {
	Delete(ctx context.Context, pkg Package) error
}
