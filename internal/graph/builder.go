// Package graph assembles canonical entity graphs from raw source records.
//
// Every connector used to carry its own hand-written mapping loop; the
// engine here replaces those near-duplicates with one builder driven by a
// declarative field-mapping table per entity type, plus small per-source
// hook functions for derivations a table cannot express.
package graph

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/trailstone/osgraph/internal/core/domain"
)

// Mapping declares how one entity type is built from a raw source record.
// Attribute paths are gjson paths evaluated against the record; hooks run
// after the table and may overwrite or add attributes.
type Mapping struct {
	// Type is the canonical entity type produced.
	Type domain.EntityType

	// Key is the gjson path to the record's natural key. Ignored when
	// KeyFunc is set.
	Key string

	// KeyFunc derives the natural key when a single path is not enough
	// (composite keys, normalization). Returning "" means the record has
	// no natural key.
	KeyFunc func(rec gjson.Result) string

	// Attrs maps canonical attribute names to gjson paths.
	Attrs map[domain.Attribute]string

	// Hooks compute attribute values the table cannot express.
	Hooks map[domain.Attribute]func(rec gjson.Result) any
}

// Build maps a raw record into an entity according to the mapping.
//
// The id is deterministic whenever a natural key is present. A record with
// no natural key gets a random id; that is only correct for sources that
// genuinely assign none, because a random id on a keyed record silently
// duplicates the node on every repeated call.
func Build(rec gjson.Result, m Mapping) domain.Entity {
	key := ""
	if m.KeyFunc != nil {
		key = m.KeyFunc(rec)
	} else if m.Key != "" {
		key = rec.Get(m.Key).String()
	}
	if key == "" {
		key = domain.RandomID()
	}

	e := domain.NewEntity(m.Type, key)
	for attr, path := range m.Attrs {
		e.Attributes.Set(attr, attrValue(rec.Get(path)))
	}
	for attr, hook := range m.Hooks {
		e.Attributes.Set(attr, hook(rec))
	}
	return e
}

// attrValue converts a gjson value to a canonical attribute value: booleans
// stay booleans, everything else (including null and missing) becomes a
// string, trimmed of padding.
func attrValue(v gjson.Result) any {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Null:
		return ""
	default:
		return strings.TrimSpace(v.String())
	}
}

// JoinPresent joins the non-empty values at the given paths with sep.
// The workhorse for assembled address lines and display summaries.
func JoinPresent(rec gjson.Result, sep string, paths ...string) string {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		if s := strings.TrimSpace(rec.Get(p).String()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// Completest returns the candidate with the fewest empty attribute fields,
// counted on that candidate alone. Earlier candidates win ties. The second
// return is false for an empty slice.
func Completest(candidates []domain.Entity) (domain.Entity, bool) {
	if len(candidates) == 0 {
		return domain.Entity{}, false
	}
	best := candidates[0]
	bestEmpty := best.Attributes.EmptyCount()
	for _, c := range candidates[1:] {
		if n := c.Attributes.EmptyCount(); n < bestEmpty {
			best, bestEmpty = c, n
		}
	}
	return best, true
}
