// Package artifact defines the identity model shared by the retention
// packages: a deployed artifact version (Package), the KEEP/DELETE verdict
// (Action) and the typed errors returned by storage collaborators.
//
// # Layout
//
//   - usage: derives the set of packages referenced by deployed import maps
//   - rules: ordered retention rules matched on version and age
//   - retention: decision engine, execution modes and the clean run
//   - storage: blob listing, grouping and GCS / S3 backends
//   - journal: SQLite record of every decision taken by a run
//
// A package is stored as every object below "<prefix><name>/<version>/".
package artifact
