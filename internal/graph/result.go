package graph

import (
	"github.com/trailstone/osgraph/internal/core/domain"
)

// DefaultSubListCap bounds the number of sub-entities attached per
// relationship group (addresses, relations, events, notes) within one
// result, to keep payloads small on record-heavy sources.
const DefaultSubListCap = 10

// ResultBuilder accumulates the entity list of one SearchResult: a parent
// entity plus attached sub-entities, each linked back to the parent by
// exactly one relationship edge.
//
// Sub-entities are deduplicated by id, so a source that reports the same
// address under three headings yields one Address node. Relationship edges
// themselves are never attached as children.
type ResultBuilder struct {
	parent   domain.Entity
	entities []domain.Entity
	seen     map[string]struct{}
	groups   map[string]int
	cap      int
}

// NewResult starts a result graph rooted at parent.
func NewResult(parent domain.Entity) *ResultBuilder {
	return &ResultBuilder{
		parent:   parent,
		entities: []domain.Entity{parent},
		seen:     map[string]struct{}{parent.ID: {}},
		groups:   make(map[string]int),
		cap:      DefaultSubListCap,
	}
}

// WithSubListCap overrides the per-group attachment cap. Zero disables it.
func (b *ResultBuilder) WithSubListCap(n int) *ResultBuilder {
	b.cap = n
	return b
}

// Attach adds child to the graph with a relationship titled title from the
// parent. It reports whether the child was attached: duplicates, edges
// passed as children, and attachments beyond the group cap are rejected.
// The relationship title doubles as the group key for the cap; untitled
// attachments that should not share one bucket use AttachGroup.
func (b *ResultBuilder) Attach(child domain.Entity, title string) bool {
	return b.AttachGroup(child, title, title)
}

// AttachGroup is Attach with an explicit cap-group key. The cap applies per
// group, so distinct sub-lists attached without a relationship title still
// get their own budget instead of starving each other.
func (b *ResultBuilder) AttachGroup(child domain.Entity, title, group string) bool {
	if child.IsRelationship() {
		return false
	}
	if _, dup := b.seen[child.ID]; dup {
		return false
	}
	if b.cap > 0 && b.groups[group] >= b.cap {
		return false
	}
	b.seen[child.ID] = struct{}{}
	b.groups[group]++
	b.entities = append(b.entities, child, domain.NewRelationship(b.parent.ID, child.ID, title))
	return true
}

// Parent returns the root entity.
func (b *ResultBuilder) Parent() domain.Entity {
	return b.parent
}

// Entities returns the accumulated entity list: the parent first, then each
// attached child immediately followed by its relationship edge.
func (b *ResultBuilder) Entities() []domain.Entity {
	return b.entities
}
