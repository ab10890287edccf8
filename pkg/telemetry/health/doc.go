// Package health checks that the services a cleaning run depends on are
// reachable before anything is deleted.
//
// The validate command registers one check per dependency (the import-map
// deployer, the blob store and the journal database) and runs them
// concurrently:
//
//	checker := health.New(10 * time.Second)
//	checker.RegisterCheck("storage", backend.Ping)
//	report := checker.Run(ctx)
//	if !report.Ready() {
//	    // at least one check failed or timed out
//	}
//
// Every check runs under its own timeout. A check that does not honor its
// context is reported as timed out and left to finish in the background.
package health
