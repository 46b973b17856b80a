package router

import (
	"fmt"
	"strings"
)

// Action is what a disambiguation rule does to a matching candidate.
type Action string

// Rule action constants.
const (
	ActionBoost   Action = "boost"
	ActionPenalty Action = "penalty"
	ActionExclude Action = "exclude"
)

// Rule is one ordered disambiguation adjustment. When the trigger pattern
// occurs in the normalized query, the rule fires for every candidate whose
// section carries the target entity (or the target term in its text).
// Rules fire in registration order; an exclude is terminal for the
// candidate regardless of later rules.
type Rule struct {
	name    string
	trigger string // substring of the normalized query
	entity  string // target canonical entity, if any
	term    string // target normalized term, if entity is empty
	action  Action
	amount  float64
}

// NewRule validates and creates a disambiguation rule. amount is ignored
// for exclude rules.
func NewRule(name, trigger, entity, term string, action Action, amount float64) (Rule, error) {
	if name == "" {
		return Rule{}, fmt.Errorf("rule name is required")
	}
	if trigger == "" {
		return Rule{}, fmt.Errorf("rule %q: trigger is required", name)
	}
	if entity == "" && term == "" {
		return Rule{}, fmt.Errorf("rule %q: target entity or term is required", name)
	}
	switch action {
	case ActionBoost, ActionPenalty:
		if amount <= 0 {
			return Rule{}, fmt.Errorf("rule %q: %s amount must be positive", name, action)
		}
	case ActionExclude:
		amount = 0
	default:
		return Rule{}, fmt.Errorf("rule %q: unknown action %q", name, action)
	}
	return Rule{name: name, trigger: trigger, entity: entity, term: term, action: action, amount: amount}, nil
}

// Name returns the rule name.
func (r Rule) Name() string { return r.name }

// Triggers reports whether the rule fires for the normalized query.
func (r Rule) Triggers(normalizedQuery string) bool {
	return strings.Contains(normalizedQuery, r.trigger)
}

// adjustment returns the signed score delta for a matching candidate.
func (r Rule) adjustment() float64 {
	switch r.action {
	case ActionBoost:
		return r.amount
	case ActionPenalty:
		return -r.amount
	default:
		return 0
	}
}
