package usage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"mercator-hq/storage-helper/pkg/artifact"
	"mercator-hq/storage-helper/pkg/importmap"
)

// DefaultFetchConcurrency bounds the number of import maps fetched at once.
const DefaultFetchConcurrency = 8

// Source is the import-map collaborator.
type Source interface {
	ListEnvironments(ctx context.Context) ([]importmap.Environment, error)
	FetchImportMap(ctx context.Context, environment string) (*importmap.ImportMap, error)
}

// Set holds the "<name>/<version>" keys of packages referenced by at least
// one import map.
type Set struct {
	keys map[string]struct{}
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{keys: make(map[string]struct{})}
}

// Add inserts a package key.
func (s *Set) Add(key string) {
	s.keys[key] = struct{}{}
}

// Has reports whether the key is present.
func (s *Set) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Contains reports whether the package is referenced by an import map.
func (s *Set) Contains(pkg artifact.Package) bool {
	return s.Has(pkg.Key())
}

// Len returns the number of distinct used packages.
func (s *Set) Len() int {
	return len(s.keys)
}

// Extractor turns import-map URLs into used-package keys. Only URLs under
// the asset base URL (and path prefix, when set) are considered.
type Extractor struct {
	assetBaseURL string
	pathPrefix   string
	concurrency  int
	used         *Set
	logger       *slog.Logger
}

// NewExtractor creates an extractor for assets served from assetBaseURL.
// pathPrefix may be empty.
func NewExtractor(assetBaseURL, pathPrefix string) *Extractor {
	return &Extractor{
		assetBaseURL: assetBaseURL,
		pathPrefix:   pathPrefix,
		concurrency:  DefaultFetchConcurrency,
		used:         NewSet(),
		logger:       slog.Default().With("component", "artifact.usage"),
	}
}

// SetConcurrency bounds the number of concurrent import-map fetches in Load.
func (e *Extractor) SetConcurrency(n int) {
	if n > 0 {
		e.concurrency = n
	}
}

// Used returns the set built so far.
func (e *Extractor) Used() *Set {
	return e.used
}

// RecordIfUsed adds the package referenced by importURL to the used set.
// URLs outside the asset base URL or path prefix, and URLs that do not
// carry "<name>/<version>/..." are ignored.
func (e *Extractor) RecordIfUsed(importURL string) {
	if key, ok := e.packageKey(importURL); ok {
		e.used.Add(key)
	}
}

func (e *Extractor) packageKey(importURL string) (string, bool) {
	path, ok := strings.CutPrefix(importURL, e.assetBaseURL)
	if !ok {
		return "", false
	}

	if e.pathPrefix != "" {
		if path, ok = strings.CutPrefix(path, e.pathPrefix); !ok {
			return "", false
		}
	}

	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", false
	}
	return artifact.Key(segments[0], segments[1]), true
}

// Load fetches the import map of every environment and records all of
// their URLs. Fetches run concurrently; URLs are recorded only after every
// fetch has completed, so on error the used set is left untouched and a
// successful return means the set is complete.
func (e *Extractor) Load(ctx context.Context, source Source) (*Set, error) {
	envs, err := source.ListEnvironments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing environments: %w", err)
	}

	maps := make([]*importmap.ImportMap, len(envs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, env := range envs {
		g.Go(func() error {
			im, err := source.FetchImportMap(gctx, env.Name)
			if err != nil {
				return fmt.Errorf("fetching import map for environment %q: %w", env.Name, err)
			}
			maps[i] = im
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, im := range maps {
		urls := im.URLs()
		for _, u := range urls {
			e.RecordIfUsed(u)
		}
		e.logger.DebugContext(ctx, "import map processed",
			"environment", envs[i].Name,
			"urls", len(urls),
		)
	}

	e.logger.InfoContext(ctx, "used packages loaded",
		"environments", len(envs),
		"used_packages", e.used.Len(),
	)

	return e.used, nil
}
