package rules

import (
	"fmt"
	"time"

	"mercator-hq/storage-helper/pkg/artifact"
)

// Definition is the configured form of a rule.
type Definition struct {
	Name            string
	Action          string
	VersionSelector string
	OlderThan       *AgeSpec
}

// Chain is an ordered list of rules evaluated first-match-wins.
// It is built once and must not be modified while it is evaluated.
type Chain []*Rule

// BuildChain builds the rules in configured order; the first definition is
// evaluated first. Every cutoff is computed from the same now.
func BuildChain(defs []Definition, now time.Time) (Chain, error) {
	chain := make(Chain, 0, len(defs))
	for i, def := range defs {
		action, err := artifact.ParseAction(def.Action)
		if err != nil {
			return nil, fmt.Errorf("rules[%d] %q: %w", i, def.Name, err)
		}
		rule, err := NewRule(def.Name, action, now, def.VersionSelector, def.OlderThan)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		chain = append(chain, rule)
	}
	return chain, nil
}

// Apply returns the action of the first matching rule along with that rule.
// It returns a nil rule when no rule matched, which is distinct from a rule
// explicitly deciding Keep.
func (c Chain) Apply(pkg artifact.Package) (artifact.Action, *Rule) {
	for _, rule := range c {
		if action, ok := rule.Apply(pkg); ok {
			return action, rule
		}
	}
	return artifact.Keep, nil
}

// Unreachable returns the names of rules placed after a catch-all rule.
// Such rules never run; they are reported, not rejected.
func (c Chain) Unreachable() []string {
	var names []string
	for i, rule := range c {
		if rule.CatchAll() {
			for _, shadowed := range c[i+1:] {
				names = append(names, shadowed.Name)
			}
			break
		}
	}
	return names
}
