// Package littlesis searches the LittleSis public-interest graph of people
// and organisations.
package littlesis

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/trailstone/osgraph/internal/connectors"
	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/graph"
)

// Ensure Searcher implements the interface.
var _ driven.Searcher = (*Searcher)(nil)

const (
	// SourceName labels results from this source.
	SourceName = "Little Sis"

	// DefaultBaseURL is the LittleSis API root.
	DefaultBaseURL = "https://littlesis.org"
)

// mappings holds the attribute tables per entity type: base attributes off
// the record plus the type's extension block.
var mappings = map[domain.EntityType]map[domain.Attribute]string{
	domain.TypePerson: {
		domain.AttrFirstName:   "attributes.extensions.Person.name_first",
		domain.AttrLastName:    "attributes.extensions.Person.name_last",
		domain.AttrOtherNames:  "attributes.extensions.Person.name_middle",
		domain.AttrSalutation:  "attributes.extensions.Person.name_prefix",
		domain.AttrDob:         "attributes.start_date",
		domain.AttrDateOfDeath: "attributes.end_date",
		domain.AttrGender:      "attributes.extensions.Person.gender_id",
	},
	domain.TypeOrganisation: {
		domain.AttrName:        "attributes.name",
		domain.AttrDescription: "attributes.blurb",
	},
}

// Searcher queries the entity search endpoint; no authentication needed.
type Searcher struct {
	client *connectors.Client
}

// New creates a LittleSis searcher.
func New() *Searcher {
	return NewWithBase(DefaultBaseURL)
}

// NewWithBase creates a searcher against a specific base URL.
func NewWithBase(base string) *Searcher {
	return &Searcher{
		client: connectors.NewClient(base, connectors.DefaultTimeout, nil),
	}
}

// ID returns the searcher identifier.
func (s *Searcher) ID() string {
	return "littlesis"
}

// Search returns one result per matched person or organisation. Records of
// any other type are skipped.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	if query == "" {
		return domain.Errorf("No query provided.")
	}

	data, err := s.client.GetJSON(ctx, "/api/entities/search", url.Values{
		"q": {query},
	})
	if err != nil {
		return domain.Errorf("Error querying the LittleSis API.")
	}

	set := graph.NewResultSet(maxResults)
	for _, entry := range data.Get("data").Array() {
		typ, ok := entityType(entry)
		if !ok {
			continue
		}
		if !set.Add(entryResult(typ, entry)) {
			break
		}
	}
	return set.Response()
}

// entityType maps the record's types list to the canonical entity type.
func entityType(entry gjson.Result) (domain.EntityType, bool) {
	for _, t := range entry.Get("attributes.types").Array() {
		switch t.String() {
		case "Person":
			return domain.TypePerson, true
		case "Organization":
			return domain.TypeOrganisation, true
		}
	}
	return "", false
}

// entryResult maps one record to a result: the person or organisation,
// plus its website when one is listed.
func entryResult(typ domain.EntityType, entry gjson.Result) domain.SearchResult {
	parent := graph.Build(entry, graph.Mapping{
		Type:  typ,
		Key:   "id",
		Attrs: mappings[typ],
	})

	b := graph.NewResult(parent)
	if website := entry.Get("attributes.website").String(); website != "" {
		page := domain.NewEntity(domain.TypeWebPage, website)
		page.Attributes.Set(domain.AttrURL, website)
		b.Attach(page, "")
	}

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    entry.Get("attributes.name").String(),
		SubTitle: entry.Get("attributes.blurb").String(),
		Summary:  entry.Get("attributes.summary").String(),
		Source:   SourceName,
		URL:      entry.Get("links.self").String(),
		Entities: b.Entities(),
	}
}
