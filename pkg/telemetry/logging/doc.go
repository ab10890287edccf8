// Package logging configures structured logging on top of log/slog.
//
// # Overview
//
// New builds a *slog.Logger that:
//   - writes JSON or text records at a configurable level
//   - redacts attributes whose key names a secret (password, token, ...)
//   - strips credentials embedded in URLs and Authorization values
//   - adds the run ID and import-map environment stored in the context
//
// # Usage
//
//	logger, err := logging.Setup(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "cleaning started") // includes run_id
//
// Setup installs the logger as the slog default; packages derive their
// component loggers with slog.Default().With("component", ...).
package logging
