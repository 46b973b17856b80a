package lexicon

import "sort"

// entry maps an alias term to its canonical entity.
type entry struct {
	alias  string
	entity string
}

// table is a static alias table adapter. Aliases pointing at the same
// canonical entity expand to each other.
type table struct {
	name     string
	toEntity map[string]string   // alias -> canonical entity
	variants map[string][]string // canonical entity -> sorted aliases
}

func newTable(name string, entries []entry) *table {
	t := &table{
		name:     name,
		toEntity: make(map[string]string, len(entries)),
		variants: make(map[string][]string),
	}
	for _, e := range entries {
		t.toEntity[e.alias] = e.entity
		t.variants[e.entity] = append(t.variants[e.entity], e.alias)
	}
	for entity := range t.variants {
		sort.Strings(t.variants[entity])
	}
	return t
}

func (t *table) Name() string { return t.name }

func (t *table) ExpandAliases(term string) []string {
	entity, ok := t.toEntity[term]
	if !ok {
		return []string{term}
	}
	variants := t.variants[entity]
	out := make([]string, 0, len(variants)+1)
	seen := false
	for _, v := range variants {
		if v == term {
			seen = true
		}
		out = append(out, v)
	}
	if !seen {
		out = append(out, term)
		sort.Strings(out)
	}
	return out
}

func (t *table) CanonicalEntity(term string) (string, bool) {
	entity, ok := t.toEntity[term]
	return entity, ok
}

// overlayAdapter layers config-supplied tables over a built-in adapter.
// Custom entries win on conflict.
type overlayAdapter struct {
	base     Adapter
	custom   *table
	entities map[string]string
}

func overlay(base Adapter, aliases, entities map[string]string) Adapter {
	entries := make([]entry, 0, len(aliases))
	for alias, ent := range aliases {
		entries = append(entries, entry{alias: alias, entity: ent})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].alias < entries[j].alias })
	return &overlayAdapter{
		base:     base,
		custom:   newTable(base.Name()+"+custom", entries),
		entities: entities,
	}
}

func (o *overlayAdapter) Name() string { return o.custom.name }

func (o *overlayAdapter) ExpandAliases(term string) []string {
	if _, ok := o.custom.toEntity[term]; ok {
		return o.custom.ExpandAliases(term)
	}
	return o.base.ExpandAliases(term)
}

func (o *overlayAdapter) CanonicalEntity(term string) (string, bool) {
	if ent, ok := o.custom.CanonicalEntity(term); ok {
		return ent, true
	}
	if ent, ok := o.entities[term]; ok {
		return ent, true
	}
	return o.base.CanonicalEntity(term)
}
