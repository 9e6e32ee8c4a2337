// Package gravatar resolves an email address to its Gravatar profile and
// the social accounts advertised on it.
package gravatar

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"

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
	SourceName = "Gravatar"

	// DefaultBaseURL is the public Gravatar profile endpoint.
	DefaultBaseURL = "https://www.gravatar.com"
)

// account maps a Gravatar account shortname to the canonical entity type
// and the attribute table pulling fields off the account object.
type account struct {
	typ   domain.EntityType
	attrs map[domain.Attribute]string
}

// accounts covers the social networks Gravatar reports; anything else is
// skipped rather than guessed at.
var accounts = map[string]account{
	"flickr": {domain.TypeFlickrProfile, map[domain.Attribute]string{
		domain.AttrURL: "url",
		domain.AttrID:  "username",
	}},
	"facebook": {domain.TypeFacebookProfile, map[domain.Attribute]string{
		domain.AttrURL:      "url",
		domain.AttrUsername: "username",
	}},
	"goodreads": {domain.TypeOnlineIdentity, map[domain.Attribute]string{
		domain.AttrURL:      "url",
		domain.AttrSite:     "domain",
		domain.AttrUserName: "userid",
	}},
	"tumblr": {domain.TypeOnlineIdentity, map[domain.Attribute]string{
		domain.AttrURL:        "url",
		domain.AttrSite:       "domain",
		domain.AttrUserName:   "username",
		domain.AttrScreenName: "display",
	}},
	"twitter": {domain.TypeTwitterProfile, map[domain.Attribute]string{
		domain.AttrURL:      "url",
		domain.AttrUsername: "username",
		domain.AttrVerified: "verified",
	}},
	"wordpress": {domain.TypeWebPage, map[domain.Attribute]string{
		domain.AttrURL: "url",
	}},
}

// Searcher fetches the JSON profile for the hash of the queried email.
type Searcher struct {
	client *connectors.Client
}

// New creates a Gravatar searcher. The profile endpoint needs no key.
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
	return "gravatar"
}

// Search looks up the Gravatar profile for the queried email address.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	email := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(query, "%20", " ")))
	if email == "" {
		return domain.Errorf("No email address in query.")
	}

	hash := fmt.Sprintf("%x", md5.Sum([]byte(email)))
	data, err := s.client.GetJSON(ctx, "/"+hash+".json", nil)
	if err != nil {
		return domain.Errorf("Error querying the Gravatar API.")
	}

	set := graph.NewResultSet(maxResults)
	for _, entry := range data.Get("entry").Array() {
		if !set.Add(profileResult(email, entry)) {
			break
		}
	}
	return set.Response()
}

// profileResult maps one profile entry to a result: the Person, the profile
// page, each recognized social account, and the known email addresses, all
// linked back to the person.
func profileResult(email string, entry gjson.Result) domain.SearchResult {
	formatted, first, last := names(entry)

	person := domain.NewEntity(domain.TypePerson, entry.Get("id").String())
	person.Attributes.Set(domain.AttrFirstName, first)
	person.Attributes.Set(domain.AttrLastName, last)

	b := graph.NewResult(person)

	profileURL := entry.Get("profileUrl").String()
	page := domain.NewEntity(domain.TypeWebPage, profileURL)
	page.Attributes.Set(domain.AttrURL, profileURL)
	b.AttachGroup(page, "", "Profile")

	for _, acc := range entry.Get("accounts").Array() {
		mapping, ok := accounts[acc.Get("shortname").String()]
		if !ok {
			continue
		}
		b.AttachGroup(graph.Build(acc, graph.Mapping{
			Type:  mapping.typ,
			Key:   "url",
			Attrs: mapping.attrs,
		}), "", "Accounts")
	}

	b.AttachGroup(emailEntity(email), "", "Emails")
	for _, extra := range entry.Get("emails").Array() {
		if addr := strings.ToLower(extra.Get("value").String()); addr != "" && addr != email {
			b.AttachGroup(emailEntity(addr), "", "Emails")
		}
	}

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    entry.Get("displayName").String(),
		SubTitle: formatted,
		Summary: "Id: " + entry.Get("id").String() +
			" | Username: " + entry.Get("preferredUsername").String(),
		Source:   SourceName,
		URL:      profileURL,
		Entities: b.Entities(),
	}
}

// names extracts (formatted, first, last), falling back to the preferred
// username when the profile carries no name object.
func names(entry gjson.Result) (string, string, string) {
	name := entry.Get("name")
	if !name.Exists() {
		username := entry.Get("preferredUsername").String()
		return username, username, ""
	}
	if name.IsObject() {
		return name.Get("formatted").String(),
			name.Get("givenName").String(),
			name.Get("familyName").String()
	}
	return "", "", ""
}

func emailEntity(addr string) domain.Entity {
	e := domain.NewEntity(domain.TypeEmail, addr)
	e.Attributes.Set(domain.AttrEmailAddress, addr)
	return e
}
