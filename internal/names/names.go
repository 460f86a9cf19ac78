// Package names maps loosely typed user input onto the canonical command and
// work item type vocabulary.
//
// Matching ignores case, spaces and hyphens. Input that matches nothing is
// returned exactly as given, so callers can always pass the result on.
package names

import (
	"strings"

	"golang.org/x/text/cases"
)

// AliasTable maps a canonical term to the spellings that should resolve to it.
// The canonical term does not need to be listed; it always matches itself.
type AliasTable map[string][]string

// Normalizer resolves tokens against one alias table.
//
// A Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	index map[string]string
}

// NewNormalizer flattens table into a lookup index.
//
// Panics if two canonical terms claim the same alias. Tables are fixed at
// compile time, so a collision is a programming error.
func NewNormalizer(table AliasTable) *Normalizer {
	index := make(map[string]string, len(table)*4)

	add := func(alias, canonical string) {
		key := matchKey(alias)
		if existing, ok := index[key]; ok && existing != canonical {
			panic("names: alias " + alias + " maps to both " + existing + " and " + canonical)
		}

		index[key] = canonical
	}

	for canonical, aliases := range table {
		add(canonical, canonical)

		for _, alias := range aliases {
			add(alias, canonical)
		}
	}

	return &Normalizer{index: index}
}

// Normalize returns the canonical form of raw, or raw unchanged if no alias
// matches. Empty and whitespace-only input is returned unchanged.
func (n *Normalizer) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}

	if canonical, ok := n.index[matchKey(raw)]; ok {
		return canonical
	}

	return raw
}

// Lookup is like Normalize but reports whether raw matched an alias.
func (n *Normalizer) Lookup(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return raw, false
	}

	canonical, ok := n.index[matchKey(raw)]
	if !ok {
		return raw, false
	}

	return canonical, true
}

// matchKey strips spaces and hyphens and case folds what is left.
// A new Caser per call: casers carry state and must not be shared.
func matchKey(s string) string {
	stripped := strings.NewReplacer(" ", "", "-", "").Replace(s)

	return cases.Fold().String(stripped)
}
