package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailstone/osgraph/internal/core/domain"
)

func TestAttachLinksChildToParent(t *testing.T) {
	parent := domain.NewEntity(domain.TypePerson, "p-1")
	child := domain.NewEntity(domain.TypeAddress, "a-1")

	b := NewResult(parent)
	assert.True(t, b.Attach(child, "Person Address"))

	entities := b.Entities()
	require.Len(t, entities, 3)
	assert.Equal(t, parent.ID, entities[0].ID)
	assert.Equal(t, child.ID, entities[1].ID)

	rel := entities[2]
	assert.True(t, rel.IsRelationship())
	assert.Equal(t, parent.ID, rel.Attributes[domain.AttrFromID])
	assert.Equal(t, child.ID, rel.Attributes[domain.AttrToID])
	assert.Equal(t, "Person Address", rel.Attributes[domain.AttrTitle])
}

func TestAttachDeduplicatesByID(t *testing.T) {
	parent := domain.NewEntity(domain.TypePerson, "p-1")
	b := NewResult(parent)

	assert.True(t, b.Attach(domain.NewEntity(domain.TypeAddress, "a-1"), "Home"))
	assert.False(t, b.Attach(domain.NewEntity(domain.TypeAddress, "a-1"), "Work"))
	assert.False(t, b.Attach(parent, "Self"))
	assert.Len(t, b.Entities(), 3)
}

func TestAttachRejectsRelationshipEntities(t *testing.T) {
	b := NewResult(domain.NewEntity(domain.TypePerson, "p-1"))
	edge := domain.NewRelationship("x", "y", "Loop")
	assert.False(t, b.Attach(edge, "Edges"))
	assert.Len(t, b.Entities(), 1)
}

func TestAttachCapsPerGroup(t *testing.T) {
	b := NewResult(domain.NewEntity(domain.TypeBusiness, "co-1")).WithSubListCap(2)

	for i := 0; i < 3; i++ {
		child := domain.NewEntity(domain.TypeAddress, fmt.Sprintf("addr-%d", i))
		attached := b.Attach(child, "Company Address")
		assert.Equal(t, i < 2, attached)
	}
	// A different group is counted separately.
	assert.True(t, b.Attach(domain.NewEntity(domain.TypePerson, "d-1"), "Directors"))
}

func TestAttachGroupSeparatesUntitledSubLists(t *testing.T) {
	b := NewResult(domain.NewEntity(domain.TypePerson, "p-1")).WithSubListCap(2)

	for i := 0; i < 2; i++ {
		child := domain.NewEntity(domain.TypeEvent, fmt.Sprintf("ev-%d", i))
		require.True(t, b.AttachGroup(child, "", "Events"))
	}
	assert.False(t, b.AttachGroup(domain.NewEntity(domain.TypeEvent, "ev-9"), "", "Events"))

	// Untitled attachments in another group keep their own budget.
	assert.True(t, b.AttachGroup(domain.NewEntity(domain.TypeNote, "n-1"), "", "Notes"))
	assert.True(t, b.AttachGroup(domain.NewEntity(domain.TypeNote, "n-2"), "", "Notes"))
}

func TestAttachUncapped(t *testing.T) {
	b := NewResult(domain.NewEntity(domain.TypeBusiness, "co-1")).WithSubListCap(0)
	for i := 0; i < DefaultSubListCap+5; i++ {
		require.True(t, b.Attach(domain.NewEntity(domain.TypeNote, fmt.Sprintf("n-%d", i)), "Notes"))
	}
}
