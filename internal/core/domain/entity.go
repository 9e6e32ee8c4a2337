package domain

import (
	"strings"

	"github.com/google/uuid"
)

// EntityType identifies the kind of real-world object an Entity represents.
// The values form a closed vocabulary accepted by the downstream
// investigation tool; connectors must not invent new ones.
type EntityType string

const (
	TypePerson          EntityType = "EntityPerson"
	TypeBusiness        EntityType = "EntityBusiness"
	TypeOrganisation    EntityType = "EntityOrganisation"
	TypeAddress         EntityType = "EntityAddress"
	TypeWebPage         EntityType = "EntityWebPage"
	TypePhoneNumber     EntityType = "EntityPhoneNumber"
	TypeEmail           EntityType = "EntityEmail"
	TypeAsset           EntityType = "EntityAsset"
	TypeIPAddress       EntityType = "EntityIpAddress"
	TypeEvent           EntityType = "EntityEvent"
	TypeNote            EntityType = "EntityNote"
	TypeDirectorRecord  EntityType = "EntityDirectorRecord"
	TypeOfficerRecord   EntityType = "EntityOfficerRecord"
	TypeOnlineIdentity  EntityType = "EntityOnlineIdentity"
	TypeGenericProfile  EntityType = "EntityGenericOnlineProfile"
	TypeFacebookProfile EntityType = "EntityFacebookProfile"
	TypeLinkedinProfile EntityType = "EntityLinkedinProfile"
	TypeTwitterProfile  EntityType = "EntityTwitterProfile"
	TypeFlickrProfile   EntityType = "EntityFlickrProfile"

	TypeEbayProfile          EntityType = "EntityEbayProfile"
	TypeGooglePlusProfile    EntityType = "EntityGooglePlusProfile"
	TypePinterestProfile     EntityType = "EntityPinterestProfile"
	TypeInstagramProfile     EntityType = "EntityInstagramProfile"
	TypeYoutubeProfile       EntityType = "EntityYoutubeProfile"
	TypeOdnoklassnikiProfile EntityType = "EntityOdnoklassnikiProfile"
	TypeVkontakteProfile     EntityType = "EntityVkontakteProfile"
	TypeSoundcloudProfile    EntityType = "EntitySoundcloudProfile"
	TypeTiktokProfile        EntityType = "EntityTiktokProfile"

	// TypeRelationship is the edge pseudo-entity linking two entities of the
	// same result. It never appears as the target of another relationship.
	TypeRelationship EntityType = "RelationshipRelationship"
)

// Entity is a canonical node in the output graph.
//
// ID is deterministic for a given source object: repeated searches for the
// same record must produce the same id (see DeterministicID). Attributes
// holds only keys from the closed attribute vocabulary; unset attributes are
// omitted rather than null-filled.
type Entity struct {
	ID         string     `json:"id"`
	Type       EntityType `json:"type"`
	Attributes Attributes `json:"attributes"`
}

// IsRelationship reports whether the entity is a relationship edge.
func (e Entity) IsRelationship() bool {
	return e.Type == TypeRelationship
}

// NewEntity creates an entity with a deterministic id derived from key.
// key must be the most specific natural key available for the source object
// (a source-assigned record id, or a normalized composite of discriminating
// fields). Passing a freshly random key breaks idempotence and is only
// acceptable when the source exposes no natural key at all.
func NewEntity(typ EntityType, key string) Entity {
	return Entity{
		ID:         DeterministicID(key),
		Type:       typ,
		Attributes: Attributes{},
	}
}

// DeterministicID derives a stable identifier from a natural key.
// It is a v3 UUID over the DNS namespace, so the same key always yields the
// same id across processes and calls.
func DeterministicID(key string) string {
	return uuid.NewMD5(uuid.NameSpaceDNS, []byte(key)).String()
}

// RandomID returns a fresh random identifier. Used for result keys, and as
// an id of last resort for records with no natural key.
func RandomID() string {
	return uuid.NewString()
}

// ResultKey returns a fresh key for a SearchResult. Unlike entity ids,
// result keys are scoped to a single response and are not reproducible.
func ResultKey() string {
	return strings.ToUpper(uuid.NewString())
}

// NewRelationship creates the edge entity linking fromID to toID.
// Its id is derived from the id pair, so re-building the same graph yields
// the same edge. Both endpoints must be present in the same result's entity
// list.
func NewRelationship(fromID, toID, title string) Entity {
	return relationship(fromID, toID, title, fromID+toID)
}

// NewRelationshipN is NewRelationship with a disambiguating suffix, for the
// rare case where several distinct edges connect the same entity pair.
func NewRelationshipN(fromID, toID, title, suffix string) Entity {
	return relationship(fromID, toID, title, fromID+toID+"/"+suffix)
}

func relationship(fromID, toID, title, key string) Entity {
	attrs := Attributes{
		AttrFromID:    fromID,
		AttrToID:      toID,
		AttrDirection: "FromTo",
	}
	if title != "" {
		attrs[AttrTitle] = title
	}
	return Entity{
		ID:         DeterministicID(key),
		Type:       TypeRelationship,
		Attributes: attrs,
	}
}
