package storage

import (
	"log/slog"
	"strings"

	"mercator-hq/storage-helper/pkg/artifact"
)

// GroupPackages maps a listing to the packages it contains.
//
// Object names are "<prefix><name>/<version>/<file>". Objects outside the
// prefix, objects with fewer than two non-empty leading segments, and
// objects without a creation time are skipped; the last case is logged.
// Consecutive objects of the same package collapse into one Package that
// carries the first object's creation time.
//
// The objects of one package are expected to be contiguous, which holds for
// any lexicographically sorted listing. An object whose package was already
// closed by a different package is folded into the earlier group and
// reported, so the result never holds the same package twice.
func GroupPackages(objects []Object, prefix string, logger *slog.Logger) []artifact.Package {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		packages []artifact.Package
		seen     = make(map[string]struct{})
		last     string
	)

	for _, obj := range objects {
		rest, ok := strings.CutPrefix(obj.Name, prefix)
		if !ok {
			continue
		}

		segments := strings.SplitN(rest, "/", 3)
		if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
			continue
		}

		if obj.Created.IsZero() {
			logger.Warn("skipping object without creation time", "object", obj.Name)
			continue
		}

		key := artifact.Key(segments[0], segments[1])
		if key == last {
			continue
		}
		if _, dup := seen[key]; dup {
			logger.Warn("listing is not grouped by package, folding object into earlier group",
				"object", obj.Name,
				"package", key,
			)
			continue
		}

		seen[key] = struct{}{}
		last = key
		packages = append(packages, artifact.Package{
			Name:         segments[0],
			Version:      segments[1],
			CreationDate: obj.Created,
		})
	}

	return packages
}

// PackagePrefix returns the object prefix holding every file of pkg.
func PackagePrefix(prefix string, pkg artifact.Package) string {
	return prefix + pkg.Name + "/" + pkg.Version + "/"
}
