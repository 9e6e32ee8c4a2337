package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/trailstone/osgraph/internal/core/domain"
)

func TestBuildMapsAttributesFromRecord(t *testing.T) {
	rec := gjson.Parse(`{
		"id": "co-1",
		"name": "  Acme Ltd  ",
		"closed": true,
		"missing": null
	}`)

	e := Build(rec, Mapping{
		Type: domain.TypeBusiness,
		Key:  "id",
		Attrs: map[domain.Attribute]string{
			domain.AttrName:       "name",
			domain.AttrLiquidated: "closed",
			domain.AttrStatus:     "missing",
		},
		Hooks: map[domain.Attribute]func(rec gjson.Result) any{
			domain.AttrDescription: func(rec gjson.Result) any {
				return "via " + rec.Get("id").String()
			},
		},
	})

	assert.Equal(t, domain.DeterministicID("co-1"), e.ID)
	assert.Equal(t, domain.TypeBusiness, e.Type)
	assert.Equal(t, "Acme Ltd", e.Attributes[domain.AttrName])
	assert.Equal(t, true, e.Attributes[domain.AttrLiquidated])
	assert.Equal(t, "", e.Attributes[domain.AttrStatus])
	assert.Equal(t, "via co-1", e.Attributes[domain.AttrDescription])
}

func TestBuildPrefersKeyFunc(t *testing.T) {
	rec := gjson.Parse(`{"first":"Jane","last":"Doe"}`)
	e := Build(rec, Mapping{
		Type: domain.TypePerson,
		Key:  "first",
		KeyFunc: func(rec gjson.Result) string {
			return rec.Get("first").String() + "/" + rec.Get("last").String()
		},
	})
	assert.Equal(t, domain.DeterministicID("Jane/Doe"), e.ID)
}

func TestBuildFallsBackToRandomID(t *testing.T) {
	rec := gjson.Parse(`{}`)
	first := Build(rec, Mapping{Type: domain.TypeAddress, Key: "missing"})
	second := Build(rec, Mapping{Type: domain.TypeAddress, Key: "missing"})
	assert.NotEqual(t, first.ID, second.ID)
}

func TestJoinPresent(t *testing.T) {
	rec := gjson.Parse(`{"street":"1 Main St","city":"","zip":"AB1 2CD"}`)
	assert.Equal(t, "1 Main St, AB1 2CD", JoinPresent(rec, ", ", "street", "city", "zip"))
	assert.Equal(t, "", JoinPresent(rec, ", ", "city", "missing"))
}

func TestCompletestPicksFewestEmptyFields(t *testing.T) {
	sparse := domain.NewEntity(domain.TypeAddress, "a")
	sparse.Attributes.Set(domain.AttrStreet1, "1 Main St")
	sparse.Attributes.Set(domain.AttrCity, "")
	sparse.Attributes.Set(domain.AttrPostcode, "")

	full := domain.NewEntity(domain.TypeAddress, "b")
	full.Attributes.Set(domain.AttrStreet1, "2 High St")
	full.Attributes.Set(domain.AttrCity, "London")
	full.Attributes.Set(domain.AttrPostcode, "")

	best, ok := Completest([]domain.Entity{sparse, full})
	assert.True(t, ok)
	assert.Equal(t, full.ID, best.ID)
}

func TestCompletestTiesKeepFirst(t *testing.T) {
	a := domain.NewEntity(domain.TypeAddress, "a")
	b := domain.NewEntity(domain.TypeAddress, "b")
	best, ok := Completest([]domain.Entity{a, b})
	assert.True(t, ok)
	assert.Equal(t, a.ID, best.ID)

	_, ok = Completest(nil)
	assert.False(t, ok)
}
