package retention

import (
	"mercator-hq/storage-helper/pkg/artifact"
	"mercator-hq/storage-helper/pkg/artifact/rules"
)

// Reason records which step of the decision produced the action.
type Reason string

const (
	// ReasonInUse means an import map references the package.
	ReasonInUse Reason = "in_use"
	// ReasonRule means a rule of the chain matched.
	ReasonRule Reason = "rule"
	// ReasonDefault means nothing else decided and the default action applied.
	ReasonDefault Reason = "default"
)

// UsedSet reports whether a package is referenced by an import map.
type UsedSet interface {
	Contains(pkg artifact.Package) bool
}

// Decision is the explained retention verdict for one package.
type Decision struct {
	Package artifact.Package `json:"package"`
	Action  artifact.Action  `json:"action"`
	Reason  Reason           `json:"reason"`
	Rule    string           `json:"rule,omitempty"`
}

// Engine decides Keep or Delete for packages. It is safe for concurrent use
// as long as the used set and chain are not modified.
type Engine struct {
	used          UsedSet
	chain         rules.Chain
	defaultAction artifact.Action
}

// NewEngine creates an engine. used must be completely loaded; a nil used
// set is treated as empty.
func NewEngine(used UsedSet, chain rules.Chain, defaultAction artifact.Action) *Engine {
	return &Engine{
		used:          used,
		chain:         chain,
		defaultAction: defaultAction,
	}
}

// Decide returns the action for pkg.
func (e *Engine) Decide(pkg artifact.Package) artifact.Action {
	return e.Explain(pkg).Action
}

// Explain returns the action for pkg and the reason for it. Packages in
// use are always kept; otherwise the first matching rule decides, and the
// default action applies when no rule matches.
func (e *Engine) Explain(pkg artifact.Package) Decision {
	if e.used != nil && e.used.Contains(pkg) {
		return Decision{Package: pkg, Action: artifact.Keep, Reason: ReasonInUse}
	}

	if action, rule := e.chain.Apply(pkg); rule != nil {
		return Decision{Package: pkg, Action: action, Reason: ReasonRule, Rule: rule.Name}
	}

	return Decision{Package: pkg, Action: e.defaultAction, Reason: ReasonDefault}
}
