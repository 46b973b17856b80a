package groundline

import "go.uber.org/zap"

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	domain       string
	aliases      map[string]string
	entities     map[string]string
	rules        []RuleSpec
	topK         int
	budgetTokens int
	aliasBonus   float64
	entityBonus  float64
	generator    Generator
	logger       *zap.Logger
}

// RuleSpec declares one ordered disambiguation rule.
type RuleSpec struct {
	Name    string
	Trigger string
	Entity  string
	Term    string
	Action  string // boost, penalty, exclude
	Amount  float64
}

// WithDomain selects the lexicon adapter (healthcare, finance, generic).
func WithDomain(domain string) Option {
	return func(c *clientConfig) { c.domain = domain }
}

// WithAliases extends the lexicon with custom alias to entity mappings.
// Custom entries win over the built-in tables on conflict.
func WithAliases(aliases map[string]string) Option {
	return func(c *clientConfig) { c.aliases = aliases }
}

// WithEntities extends the lexicon with custom term to entity mappings.
func WithEntities(entities map[string]string) Option {
	return func(c *clientConfig) { c.entities = entities }
}

// WithRules installs the ordered disambiguation rules.
func WithRules(rules ...RuleSpec) Option {
	return func(c *clientConfig) { c.rules = rules }
}

// WithTopK sets how many candidates routing returns.
func WithTopK(k int) Option {
	return func(c *clientConfig) { c.topK = k }
}

// WithBudget sets the working set token budget per request.
func WithBudget(tokens int) Option {
	return func(c *clientConfig) { c.budgetTokens = tokens }
}

// WithBonuses overrides the alias and entity score bonuses.
func WithBonuses(alias, entity float64) Option {
	return func(c *clientConfig) {
		c.aliasBonus = alias
		c.entityBonus = entity
	}
}

// WithGenerator installs the answer synthesis provider. Without one,
// Ask returns an error; Route and Prepare still work.
func WithGenerator(g Generator) Option {
	return func(c *clientConfig) { c.generator = g }
}

// WithLogger installs a zap logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
