// Package grid searches the Grid risk-intelligence registry for companies
// and people carrying sanctions, watchlist, or adverse-media records.
package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/trailstone/osgraph/internal/adapters/driven/auth"
	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/graph"
	"github.com/trailstone/osgraph/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driven.Searcher = (*Searcher)(nil)

const (
	// SourceName labels results from this source.
	SourceName = "Grid API"

	// DefaultBaseURL is the Grid inquiry API root.
	DefaultBaseURL = "https://service.rdc.eu.com/api/grid-service/v2"

	// DefaultAuthURL hosts the oauth login and refresh endpoints.
	DefaultAuthURL = "https://service.rdc.eu.com"
)

// Config carries the Grid endpoints and account credentials.
type Config struct {
	BaseURL  string
	AuthURL  string
	Username string
	Password string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	return c
}

// Searcher runs Grid inquiries through an authenticated session. The same
// type backs the company and the people searcher; they differ only in the
// inquiry payload and the record mapping.
type Searcher struct {
	id      string
	base    string
	session *auth.Session
	people  bool
}

// NewCompany creates the company searcher. Both searchers share the
// "grid" credential in the store; a token obtained by one serves the other.
func NewCompany(cfg Config, store driven.CredentialStore) *Searcher {
	return newSearcher("grid_company", cfg, store, false)
}

// NewPeople creates the people searcher.
func NewPeople(cfg Config, store driven.CredentialStore) *Searcher {
	return newSearcher("grid_people", cfg, store, true)
}

func newSearcher(id string, cfg Config, store driven.CredentialStore, people bool) *Searcher {
	cfg = cfg.withDefaults()
	session := auth.NewSession("grid", newExchanger(cfg.AuthURL, cfg.Username, cfg.Password), store, nil).
		WithAuthorize(auth.RawAuthorize)
	return &Searcher{
		id:      id,
		base:    cfg.BaseURL,
		session: session,
		people:  people,
	}
}

// ID returns the searcher identifier.
func (s *Searcher) ID() string {
	return s.id
}

// Search posts one inquiry for the whole query string and maps the
// non-reviewed alert entities into results.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	query = strings.TrimSpace(strings.ReplaceAll(query, "%20", " "))
	if query == "" {
		return domain.Errorf("No query provided.")
	}

	records, err := s.inquiry(ctx, query)
	if err != nil {
		if auth.IsAuthErr(err) {
			return domain.Errorf("Error establishing a connection with the Grid API.")
		}
		logger.Warn("grid: inquiry failed: %v", err)
		return domain.Errorf("Error querying the Grid API.")
	}

	set := graph.NewResultSet(maxResults)
	for _, rec := range records {
		var result domain.SearchResult
		if s.people {
			result = personResult(rec)
		} else {
			result = companyResult(rec)
		}
		if !set.Add(result) {
			break
		}
	}
	return set.Response()
}

// inquiry posts the search and unwraps the alert entity list.
func (s *Searcher) inquiry(ctx context.Context, query string) ([]gjson.Result, error) {
	// The tracking id must be stable per query so Grid can collapse
	// repeated identical inquiries.
	body := map[string]any{
		"portfolioMonitoring":     "false",
		"searchActionIfDuplicate": "SEARCH",
		"loadOnly":                "false",
		"globalsearch":            "false",
		"tracking":                domain.DeterministicID(query),
	}
	if s.people {
		body["gridPersonPartyInfo"] = map[string]any{
			"gridPersonData": map[string]any{
				"personName": map[string]any{"fullName": query},
			},
		}
	} else {
		body["gridOrgPartyInfo"] = map[string]any{
			"gridOrgData": map[string]any{
				"orgName": map[string]any{"name": query},
			},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	resp, err := s.session.Do(ctx, http.MethodPost, s.base+"/inquiry", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: inquiry returned %d", domain.ErrUpstreamStatus, resp.StatusCode)
	}

	data := gjson.ParseBytes(raw)
	alerts := data.Get("data.alerts")
	if !alerts.Exists() || len(alerts.Array()) == 0 {
		return nil, nil
	}
	return alerts.Array()[0].Get("gridAlertInfo.alerts.nonReviewedAlertEntity").Array(), nil
}

// companyResult maps one alert entity to a Business result with its
// addresses and related people.
func companyResult(rec gjson.Result) domain.SearchResult {
	sysID := rec.Get("sysId").String()
	name := rec.Get("entityName").String()

	company := domain.NewEntity(domain.TypeBusiness, sysID)
	company.Attributes.Set(domain.AttrName, name)
	company.Attributes.Set(domain.AttrLocalName, name)
	company.Attributes.Set(domain.AttrDescription, "")
	company.Attributes.Set(domain.AttrWorldCompliance, true)

	b := graph.NewResult(company)
	attachAddresses(b, rec, "Company Address")

	for _, rel := range rec.Get("relations").Array() {
		typ := rel.Get("relTyp").String()
		if typ != "EMPLOYEE" && typ != "ASSOCIATE" {
			continue
		}
		relName := rel.Get("entityName").String()
		first, last := splitName(relName)

		person := domain.NewEntity(domain.TypePerson, sysID+"/relation/"+typ+"/"+relName)
		person.Attributes.Set(domain.AttrFirstName, first)
		person.Attributes.Set(domain.AttrLastName, last)
		person.Attributes.Set(domain.AttrJobTitle, typ)
		b.Attach(person, "Person")
	}

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    name,
		Summary:  riskSummary(rec),
		Source:   SourceName,
		URL:      rec.Get("rdcURL").String(),
		Entities: b.Entities(),
	}
}

// personResult maps one alert entity to a Person result with addresses,
// employers, watchlist/adverse-media events, and free-text notes.
func personResult(rec gjson.Result) domain.SearchResult {
	sysID := rec.Get("sysId").String()
	name := rec.Get("entityName").String()
	first, last := splitName(name)

	person := domain.NewEntity(domain.TypePerson, sysID)
	person.Attributes.Set(domain.AttrFirstName, first)
	person.Attributes.Set(domain.AttrLastName, last)
	person.Attributes.Set(domain.AttrDob, firstPresent(rec.Get("birthDt").Array()))
	person.Attributes.Set(domain.AttrNationality, birthCountry(rec))
	person.Attributes.Set(domain.AttrCompliance, true)

	b := graph.NewResult(person)
	attachAddresses(b, rec, "Person Address")

	for _, rel := range rec.Get("relations").Array() {
		typ := rel.Get("relTyp").String()
		if typ != "EMPLOYEE" && typ != "ASSOCIATE" {
			continue
		}
		relName := rel.Get("entityName").String()

		business := domain.NewEntity(domain.TypeBusiness, sysID+"/relation/"+typ+"/"+relName)
		business.Attributes.Set(domain.AttrName, relName)
		business.Attributes.Set(domain.AttrLocalName, relName)
		business.Attributes.Set(domain.AttrJobTitle, typ)
		b.Attach(business, "Company")
	}

	for i, event := range rec.Get("events").Array() {
		attachEvent(b, sysID, i, event)
	}

	for i, attr := range rec.Get("attributes").Array() {
		if attr.Get("code").String() == "URL" {
			continue
		}
		note := domain.NewEntity(domain.TypeNote,
			fmt.Sprintf("%s/note/%d/%s", sysID, i, attr.Get("value").String()))
		note.Attributes.Set(domain.AttrText, attr.Get("value").String())
		b.AttachGroup(note, "", "Notes")
	}

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    name,
		Summary:  riskSummary(rec),
		Source:   SourceName,
		URL:      rec.Get("rdcURL").String(),
		Entities: b.Entities(),
	}
}

// attachEvent maps a watchlist event (category WLT) to the sanctioning
// Organisation, anything else to an Event entity.
func attachEvent(b *graph.ResultBuilder, sysID string, i int, event gjson.Result) {
	code := event.Get("category.categoryCode").String()
	category := strings.TrimSpace(event.Get("category.categoryDesc").String())
	if code != "" {
		category = strings.TrimSpace(category + " (" + code + ")")
	}

	if code == "WLT" {
		org := domain.NewEntity(domain.TypeOrganisation,
			fmt.Sprintf("%s/event/%d/%s", sysID, i, event.Get("source.sourceName").String()))
		org.Attributes.Set(domain.AttrName, event.Get("source.sourceName").String())
		org.Attributes.Set(domain.AttrCategory, category)
		b.Attach(org, "Sanctioned by")
		return
	}

	description := strings.TrimSpace(event.Get("source.headline").String() +
		"\n Category: " + event.Get("subCategory.categoryDesc").String())

	ev := domain.NewEntity(domain.TypeEvent,
		fmt.Sprintf("%s/event/%d/%s", sysID, i, event.Get("eventDt").String()))
	ev.Attributes.Set(domain.AttrTitle, event.Get("eventDesc").String())
	ev.Attributes.Set(domain.AttrDate, event.Get("eventDt").String())
	ev.Attributes.Set(domain.AttrURL, event.Get("source.sourceURL").String())
	ev.Attributes.Set(domain.AttrDescription, description)
	ev.Attributes.Set(domain.AttrCategory, category)
	b.AttachGroup(ev, "", "Events")
}

// attachAddresses builds an Address entity per postal address. The id key
// is the assembled address line; an all-empty record falls back to a
// positional key so it stays reproducible without colliding.
func attachAddresses(b *graph.ResultBuilder, rec gjson.Result, title string) {
	for i, addr := range rec.Get("postAddr").Array() {
		full := graph.JoinPresent(addr, ", ",
			"addr1", "city", "stateProv", "postalCode", "countryCode.countryCodeValue")
		key := full
		if key == "" {
			key = fmt.Sprintf("address-%d-%s", i, b.Parent().ID)
		}

		address := domain.NewEntity(domain.TypeAddress, key)
		address.Attributes.Set(domain.AttrStreet1, addr.Get("addr1").String())
		address.Attributes.Set(domain.AttrCity, addr.Get("city").String())
		address.Attributes.Set(domain.AttrRegion, addr.Get("stateProv").String())
		address.Attributes.Set(domain.AttrPostcode, addr.Get("postalCode").String())
		address.Attributes.Set(domain.AttrCountry, addr.Get("countryCode.countryCodeValue").String())
		b.Attach(address, title)
	}
}

// riskSummary renders the RID/RGP attribute codes into the display summary.
func riskSummary(rec gjson.Result) string {
	var riskIDs, riskographies []string
	for _, attr := range rec.Get("attribute").Array() {
		val := attr.Get("attVal").String()
		if val == "" {
			continue
		}
		switch attr.Get("attCode").String() {
		case "RID":
			riskIDs = append(riskIDs, val)
		case "RGP":
			riskographies = append(riskographies, val)
		}
	}

	var chunks []string
	if len(riskIDs) > 0 {
		chunks = append(chunks, "Risk ID: "+strings.Join(riskIDs, ", "))
	}
	if len(riskographies) > 0 {
		chunks = append(chunks, "Riskography: "+strings.Join(riskographies, ", "))
	}
	return strings.Join(chunks, " | ")
}

// birthCountry returns the country of the BIRTH-locator address, the
// source's stand-in for nationality.
func birthCountry(rec gjson.Result) string {
	nationality := ""
	for _, addr := range rec.Get("postAddr").Array() {
		if addr.Get("locatorTyp").String() == "BIRTH" {
			nationality = strings.TrimSpace(addr.Get("countryCode.countryCodeValue").String())
		}
	}
	return nationality
}

func splitName(full string) (string, string) {
	words := strings.Fields(full)
	if len(words) == 0 {
		return "", ""
	}
	return words[0], strings.Join(words[1:], " ")
}

func firstPresent(values []gjson.Result) string {
	for _, v := range values {
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}
