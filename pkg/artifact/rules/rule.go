package rules

import (
	"fmt"
	"regexp"
	"time"

	"mercator-hq/storage-helper/pkg/artifact"
)

// Rule is one retention policy step. It matches a package on its version
// and age and yields its Action when both conditions hold.
type Rule struct {
	// Name identifies the rule in logs and the journal.
	Name string

	// Action is returned when the rule matches.
	Action artifact.Action

	// VersionSelector is matched against the package version.
	// Nil matches every version.
	VersionSelector *regexp.Regexp

	// OlderThan is the absolute creation-date cutoff. A package matches
	// only when it was created strictly before it. Nil matches any age.
	OlderThan *time.Time
}

// NewRule builds a rule. The age cutoff is resolved against now once so a
// chain gives consistent answers for the whole run.
func NewRule(name string, action artifact.Action, now time.Time, versionSelector string, olderThan *AgeSpec) (*Rule, error) {
	rule := &Rule{
		Name:   name,
		Action: action,
	}

	if versionSelector != "" {
		re, err := regexp.Compile(versionSelector)
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid version selector: %w", name, err)
		}
		rule.VersionSelector = re
	}

	if olderThan != nil {
		cutoff, err := olderThan.Cutoff(now)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		rule.OlderThan = &cutoff
	}

	return rule, nil
}

// Matches reports whether both the version selector and the age cutoff
// accept the package.
func (r *Rule) Matches(pkg artifact.Package) bool {
	if r.VersionSelector != nil && !r.VersionSelector.MatchString(pkg.Version) {
		return false
	}
	if r.OlderThan != nil && !pkg.CreationDate.Before(*r.OlderThan) {
		return false
	}
	return true
}

// Apply returns the rule's action and true when the rule matches.
func (r *Rule) Apply(pkg artifact.Package) (artifact.Action, bool) {
	if r.Matches(pkg) {
		return r.Action, true
	}
	return artifact.Keep, false
}

// CatchAll reports whether the rule matches every package.
func (r *Rule) CatchAll() bool {
	return r.VersionSelector == nil && r.OlderThan == nil
}
