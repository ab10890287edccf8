package retention

// Mode selects whether a run applies its decisions.
type Mode string

const (
	// ModeDryRun logs what would be kept or deleted and changes nothing.
	ModeDryRun Mode = "dry-run"
	// ModeLive deletes packages decided Delete.
	ModeLive Mode = "live"
)

// ModeFor returns ModeDryRun when dryRun is set and ModeLive otherwise.
func ModeFor(dryRun bool) Mode {
	if dryRun {
		return ModeDryRun
	}
	return ModeLive
}

// Outcome is what happened to a package during a run.
type Outcome string

const (
	// OutcomeKept means the package was left in storage.
	OutcomeKept Outcome = "kept"
	// OutcomeWouldDelete means a dry run decided Delete.
	OutcomeWouldDelete Outcome = "would_delete"
	// OutcomeDeleted means the package was removed.
	OutcomeDeleted Outcome = "deleted"
	// OutcomeFailed means deletion was attempted and failed.
	OutcomeFailed Outcome = "failed"
)
