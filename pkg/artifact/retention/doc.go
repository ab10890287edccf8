// Package retention decides which stored packages to keep and applies the
// decisions.
//
// # Decisions
//
// An Engine combines the set of packages referenced by import maps, the
// rule chain and a default action. For every package:
//
//  1. a package referenced by any import map is kept
//  2. otherwise the first matching rule decides
//  3. otherwise the default action applies
//
// Explain returns the action together with the Reason and, for rule
// decisions, the rule name.
//
// # Runs
//
// A Cleaner lists packages through an artifact.Lister, decides each one and,
// in ModeLive, deletes the packages decided Delete through an
// artifact.Deleter. Deletions run concurrently up to a limit and may be
// rate limited:
//
//	cleaner := retention.NewCleaner(client, client, engine, retention.ModeLive,
//	    retention.WithConcurrency(4),
//	    retention.WithDeleteRate(10),
//	    retention.WithJournal(journal),
//	)
//	summary, err := cleaner.Clean(ctx)
//
// ModeDryRun logs the planned deletions and never calls the deleter.
//
// A failed deletion does not stop the run. Clean returns the summary along
// with an error wrapping artifact.ErrDeletionFailed.
package retention
