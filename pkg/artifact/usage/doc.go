// Package usage derives the set of packages referenced by the import maps
// of every deployment environment.
package usage
