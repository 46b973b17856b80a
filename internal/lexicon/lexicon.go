// Package lexicon provides pluggable alias/entity expansion for a deployment
// domain. Adapters are selected by configuration, one per process.
package lexicon

import "fmt"

// Adapter expands domain-specific aliases and resolves canonical entities.
// Implementations must be pure lookups: no I/O, no mutation after creation.
type Adapter interface {
	// Name returns the adapter's domain name.
	Name() string

	// ExpandAliases returns the known variants of a normalized term,
	// including the term itself. Order must be deterministic.
	ExpandAliases(term string) []string

	// CanonicalEntity resolves a normalized term to its canonical entity.
	CanonicalEntity(term string) (string, bool)
}

// ForDomain returns the built-in adapter for a domain name, optionally
// extended with custom alias/entity tables from configuration.
func ForDomain(domain string, aliases map[string]string, entities map[string]string) (Adapter, error) {
	var base Adapter
	switch domain {
	case "healthcare":
		base = newTable("healthcare", healthcareAliases)
	case "finance":
		base = newTable("finance", financeAliases)
	case "", "generic":
		base = newTable("generic", nil)
	default:
		return nil, fmt.Errorf("unknown lexicon domain %q", domain)
	}
	if len(aliases) == 0 && len(entities) == 0 {
		return base, nil
	}
	return overlay(base, aliases, entities), nil
}
