package tracing

import (
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/storage-helper/pkg/artifact"
)

// Span attribute keys.
const (
	AttrRunID          = attribute.Key("storage_helper.run.id")
	AttrRunMode        = attribute.Key("storage_helper.run.mode")
	AttrPackageName    = attribute.Key("storage_helper.package.name")
	AttrPackageVersion = attribute.Key("storage_helper.package.version")
	AttrAction         = attribute.Key("storage_helper.decision.action")
	AttrReason         = attribute.Key("storage_helper.decision.reason")
	AttrRule           = attribute.Key("storage_helper.decision.rule")
	AttrOutcome        = attribute.Key("storage_helper.outcome")
	AttrEnvironments   = attribute.Key("storage_helper.import_maps.environments")
	AttrUsedPackages   = attribute.Key("storage_helper.import_maps.used_packages")
	AttrListed         = attribute.Key("storage_helper.packages.listed")
	AttrToDelete       = attribute.Key("storage_helper.packages.to_delete")
	AttrDeleted        = attribute.Key("storage_helper.packages.deleted")
	AttrFailed         = attribute.Key("storage_helper.packages.failed")
	AttrStorageBackend = attribute.Key("storage_helper.storage.backend")
)

// PackageAttributes identifies pkg on a span.
func PackageAttributes(pkg artifact.Package) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrPackageName.String(pkg.Name),
		AttrPackageVersion.String(pkg.Version),
	}
}

// DecisionAttributes describes a retention decision. rule may be empty.
func DecisionAttributes(action artifact.Action, reason, rule string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		AttrAction.String(action.String()),
		AttrReason.String(reason),
	}
	if rule != "" {
		attrs = append(attrs, AttrRule.String(rule))
	}
	return attrs
}

// CountAttributes carries the package counts of a finished run.
func CountAttributes(listed, toDelete, deleted, failed int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrListed.Int(listed),
		AttrToDelete.Int(toDelete),
		AttrDeleted.Int(deleted),
		AttrFailed.Int(failed),
	}
}
