// Package sayari searches the Sayari corporate-registry graph for
// companies and people, following each search hit with a full entity
// fetch.
package sayari

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/trailstone/osgraph/internal/connectors"
	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/graph"
	"github.com/trailstone/osgraph/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driven.Searcher = (*Searcher)(nil)

const (
	// SourceName labels results from this source.
	SourceName = "Sayari API"

	// DefaultBaseURL is the Sayari API root.
	DefaultBaseURL = "https://api.sayari.com"

	// loginURL is the fixed display URL on results; Sayari records have no
	// public permalink.
	loginURL = "https://sayari.auth0.com/u/login"
)

// Searcher runs entity searches under an OAuth client-credentials token.
// The same type backs the company and the people searcher.
type Searcher struct {
	id     string
	base   string
	oauth  *clientcredentials.Config
	people bool
}

// NewCompany creates the company searcher.
func NewCompany(clientID, clientSecret string) *Searcher {
	return newSearcher("sayari_company", DefaultBaseURL, clientID, clientSecret, false)
}

// NewPeople creates the people searcher.
func NewPeople(clientID, clientSecret string) *Searcher {
	return newSearcher("sayari_people", DefaultBaseURL, clientID, clientSecret, true)
}

// NewCompanyWithBase and NewPeopleWithBase target a specific base URL.
func NewCompanyWithBase(base, clientID, clientSecret string) *Searcher {
	return newSearcher("sayari_company", base, clientID, clientSecret, false)
}

func NewPeopleWithBase(base, clientID, clientSecret string) *Searcher {
	return newSearcher("sayari_people", base, clientID, clientSecret, true)
}

func newSearcher(id, base, clientID, clientSecret string, people bool) *Searcher {
	return &Searcher{
		id:   id,
		base: base,
		oauth: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     base + "/oauth/token",
			EndpointParams: url.Values{
				"audience": {"sayari.com"},
			},
		},
		people: people,
	}
}

// ID returns the searcher identifier.
func (s *Searcher) ID() string {
	return s.id
}

// Search lists matching entities, fetches each in full, and maps them.
// A deep fetch failing after at least one mapped record yields the partial
// result; failing on the first record is a hard error.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	client := s.oauth.Client(ctx)

	entityType := "company"
	if s.people {
		entityType = "person"
	}

	listing, err := s.getJSON(ctx, client, "/search/entity?"+url.Values{
		"limit":   {strconv.Itoa(maxResults)},
		"q":       {query},
		"filters": {"entity_type=" + entityType},
	}.Encode())
	if err != nil {
		logger.Warn("sayari: search failed: %v", err)
		if errors.Is(err, domain.ErrUpstreamStatus) {
			return domain.Errorf("Error response from Sayari API.")
		}
		return domain.Errorf("Error establishing a connection with the Sayari API.")
	}

	set := graph.NewResultSet(maxResults)
	for _, hit := range listing.Get("data").Array() {
		if hit.Get("type").String() != entityType {
			continue
		}

		record, err := s.getJSON(ctx, client, "/"+strings.TrimPrefix(hit.Get("entity_url").String(), "/"))
		if err != nil {
			if set.Len() > 0 {
				logger.Warn("sayari: entity fetch failed, returning partial result: %v", err)
				return set.Response()
			}
			logger.Warn("sayari: entity fetch failed: %v", err)
			return domain.Errorf("Error querying the Sayari API.")
		}

		var result domain.SearchResult
		if s.people {
			result = personResult(record)
		} else {
			result = companyResult(record)
		}
		if !set.Add(result) {
			break
		}
	}
	return set.Response()
}

func (s *Searcher) getJSON(ctx context.Context, client *http.Client, path string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	logger.Debug("GET %s", s.base+path)
	resp, err := client.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, &connectors.StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return gjson.ParseBytes(body), nil
}

// companyResult maps a full company record to a Business result with its
// addresses, held businesses, directors, and officers.
func companyResult(rec gjson.Result) domain.SearchResult {
	label := rec.Get("label").String()
	risk := riskInfo(rec)

	company := domain.NewEntity(domain.TypeBusiness, rec.Get("id").String())
	company.Attributes.Set(domain.AttrName, label)
	company.Attributes.Set(domain.AttrLocalName, label)
	company.Attributes.Set(domain.AttrDescription, risk)
	company.Attributes.Set(domain.AttrStatus, status(rec))
	company.Attributes.Set(domain.AttrLiquidated, rec.Get("closed").Bool())
	company.Attributes.Set(domain.AttrIncorporationDate, statusDate(rec, "incorporated"))
	company.Attributes.Set(domain.AttrRegistrationCountry, countryValues(rec, "domicile"))
	company.Attributes.Set(domain.AttrVatNumber, identifierValue(rec, "gbr_vat_no"))
	company.Attributes.Set(domain.AttrSicCode, sicCode(rec))
	company.Attributes.Set(domain.AttrCompaniesHouseID, identifierValue(rec, "uk_company_number"))
	company.Attributes.Set(domain.AttrURL, contactValues(rec, "url"))

	b := graph.NewResult(company)
	addresses := attachAddresses(b, rec, "Company Address")

	for _, rel := range relationshipsOf(rec, "owner_of", "shareholder_of", "has_subsidiary") {
		target := rel.Get("target")
		if t := target.Get("type").String(); t != "company" && t != "intellectual_property" {
			continue
		}
		business := domain.NewEntity(domain.TypeBusiness, target.Get("id").String())
		business.Attributes.Set(domain.AttrName, target.Get("label").String())
		business.Attributes.Set(domain.AttrStatus, status(target))
		business.Attributes.Set(domain.AttrNumberOfShares, sharePositions(rel))
		b.Attach(business, "Businesses")
	}

	for _, rel := range relationshipsOf(rec, "has_director") {
		target := rel.Get("target")
		if target.Get("type").String() != "person" ||
			!target.Get("relationship_count.director_of").Exists() {
			continue
		}
		first, last := splitName(target.Get("label").String())
		director := domain.NewEntity(domain.TypeDirectorRecord, target.Get("id").String())
		director.Attributes.Set(domain.AttrFirstName, first)
		director.Attributes.Set(domain.AttrLastName, last)
		director.Attributes.Set(domain.AttrJobTitle, "Director")
		b.Attach(director, "Directors")
	}

	for _, rel := range relationshipsOf(rec, "has_officer") {
		target := rel.Get("target")
		if target.Get("type").String() != "person" ||
			!target.Get("relationship_count.officer_of").Exists() {
			continue
		}
		first, last := splitName(target.Get("label").String())
		officer := domain.NewEntity(domain.TypeOfficerRecord, target.Get("id").String())
		officer.Attributes.Set(domain.AttrFirstName, first)
		officer.Attributes.Set(domain.AttrLastName, last)
		officer.Attributes.Set(domain.AttrJobTitle, firstPosition(rel, "has_officer"))
		b.Attach(officer, "Officers")
	}

	summary := companySummary(rec, addresses)
	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    label,
		SubTitle: subtitle("Company", rec, risk),
		Summary:  summary,
		Source:   SourceName,
		URL:      loginURL,
		Entities: b.Entities(),
	}
}

// personResult maps a full person record to an OfficerRecord result with
// addresses and position-bearing business relationships.
func personResult(rec gjson.Result) domain.SearchResult {
	label := rec.Get("label").String()
	risk := riskInfo(rec)
	first, last := splitName(label)

	person := domain.NewEntity(domain.TypeOfficerRecord, rec.Get("id").String())
	person.Attributes.Set(domain.AttrIsCompany, false)
	person.Attributes.Set(domain.AttrFirstName, first)
	person.Attributes.Set(domain.AttrLastName, last)
	person.Attributes.Set(domain.AttrDescription, risk)
	person.Attributes.Set(domain.AttrDob, rec.Get("date_of_birth").String())
	person.Attributes.Set(domain.AttrNationality, countryValues(rec, "nationality"))
	person.Attributes.Set(domain.AttrRegistrationCountry, countryValues(rec, "residence"))

	b := graph.NewResult(person)
	addresses := attachAddresses(b, rec, "Person Address")

	for _, rel := range relationshipsOf(rec,
		"director_of", "officer_of", "shareholder_of", "linked_to", "registered_agent_of") {
		target := rel.Get("target")
		if t := target.Get("type").String(); t != "company" && t != "intellectual_property" {
			continue
		}
		jobTitles := positionValues(rel, relTypes(rel)...)
		if jobTitles == "" {
			// Position-less relationships are noise in the people view.
			continue
		}
		business := domain.NewEntity(domain.TypeBusiness, target.Get("id").String())
		business.Attributes.Set(domain.AttrName, target.Get("label").String())
		business.Attributes.Set(domain.AttrStatus, status(target))
		business.Attributes.Set(domain.AttrNumberOfShares, sharePositions(rel))
		business.Attributes.Set(domain.AttrJobTitle, jobTitles)
		b.Attach(business, "Businesses")
	}

	var lines []string
	if number := firstIdentifier(rec); number != "" {
		lines = append(lines, "Person no: "+number)
	}
	lines = append(lines, "Address: "+bestAddressLine(addresses))

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    label,
		SubTitle: subtitle("Person", rec, risk),
		Summary:  strings.Join(lines, "\n"),
		Source:   SourceName,
		URL:      loginURL,
		Entities: b.Entities(),
	}
}

// attachAddresses builds an Address per address record, ordered by the
// record count Sayari reports, and returns them for the summary line.
// The id key is the source's address record id; records without one share
// a parent-derived fallback and collapse into a single node.
func attachAddresses(b *graph.ResultBuilder, rec gjson.Result, title string) []domain.Entity {
	data := rec.Get("attributes.address.data").Array()
	sort.SliceStable(data, func(i, j int) bool {
		return data[i].Get("record_count").Int() < data[j].Get("record_count").Int()
	})

	var out []domain.Entity
	for _, item := range data {
		props := item.Get("properties")
		key := props.Get("record").String()
		if key == "" {
			key = b.Parent().ID
		}

		address := domain.NewEntity(domain.TypeAddress, key)
		address.Attributes.Set(domain.AttrStreet1, graph.JoinPresent(props, ", ",
			"house_number", "house", "po_box", "building", "entrance", "staircase", "level", "unit"))
		address.Attributes.Set(domain.AttrStreet2, graph.JoinPresent(props, ", ",
			"road", "metro_station", "suburb", "city_district", "city", "state_district", "island"))
		address.Attributes.Set(domain.AttrRegion, graph.JoinPresent(props, ", ",
			"state", "country_region"))
		address.Attributes.Set(domain.AttrPostcode, strings.TrimSpace(props.Get("postcode").String()))
		out = append(out, address)
		b.Attach(address, title)
	}
	return out
}

// bestAddressLine renders the most complete address as a display line,
// "-" when there are no addresses at all.
func bestAddressLine(addresses []domain.Entity) string {
	best, ok := graph.Completest(addresses)
	if !ok {
		return "-"
	}
	parts := make([]string, 0, 4)
	for _, attr := range []domain.Attribute{
		domain.AttrStreet1, domain.AttrStreet2, domain.AttrRegion, domain.AttrPostcode,
	} {
		if s, _ := best.Attributes[attr].(string); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func companySummary(rec gjson.Result, addresses []domain.Entity) string {
	var line1 []string
	if d := statusDate(rec, "incorporated"); d != "" {
		line1 = append(line1, "Incorporation Date: "+d)
	}
	if d := statusDate(rec, "registered"); d != "" {
		line1 = append(line1, "Registration Date: "+d)
	}
	if number := firstIdentifier(rec); number != "" {
		line1 = append(line1, "Company no: "+number)
	}

	line2 := []string{"Address: " + bestAddressLine(addresses)}
	if phones := contactValues(rec, "phone_number"); phones != "" {
		line2 = append(line2, "Phone no: "+phones)
	}
	if sites := contactValues(rec, "url"); sites != "" {
		line2 = append(line2, "Website: "+sites)
	}

	var lines []string
	if len(line1) > 0 {
		lines = append(lines, strings.Join(line1, " | "))
	}
	lines = append(lines, strings.Join(line2, " | "))
	return strings.Join(lines, "\n")
}

// subtitle is "<kind> | <countries> | <risk>" with empty segments dropped.
func subtitle(kind string, rec gjson.Result, risk string) string {
	points := []string{kind}
	var countries []string
	for _, c := range rec.Get("countries").Array() {
		countries = append(countries, c.String())
	}
	if len(countries) > 0 {
		points = append(points, strings.Join(countries, ", "))
	}
	if risk != "" {
		points = append(points, risk)
	}
	return strings.Join(points, " | ")
}

// riskInfo renders "Risk Score: N - Sanctioned - PEP"; empty without a
// risk score.
func riskInfo(rec gjson.Result) string {
	score := rec.Get("risk.cpi_score.value").String()
	if score == "" {
		return ""
	}
	points := []string{"Risk Score: " + score}
	if rec.Get("sanctioned").Bool() {
		points = append(points, "Sanctioned")
	}
	if rec.Get("pep").Bool() {
		points = append(points, "PEP")
	}
	return strings.Join(points, " - ")
}

func status(rec gjson.Result) string {
	if rec.Get("closed").Bool() {
		return "Inactive"
	}
	return "Active"
}

// statusDate pulls the date of a named status event ("incorporated",
// "registered") out of the status attribute data.
func statusDate(rec gjson.Result, want string) string {
	for _, item := range rec.Get("attributes.status.data").Array() {
		props := item.Get("properties")
		name := strings.ToLower(strings.TrimSpace(firstOf(props, "value", "text")))
		if name != want {
			continue
		}
		if date := strings.TrimSpace(firstOf(props, "date", "from_date")); date != "" {
			return date
		}
	}
	return ""
}

// firstIdentifier renders the alphabetically first display identifier,
// "VALUE (LABEL)". Untyped and unknown-typed identifiers are skipped.
func firstIdentifier(rec gjson.Result) string {
	var numbers []string
	for _, id := range rec.Get("identifiers").Array() {
		value := id.Get("value").String()
		label := id.Get("label").String()
		typ := strings.ToLower(id.Get("type").String())
		if value == "" || label == "" || typ == "" || typ == "unknown" {
			continue
		}
		numbers = append(numbers,
			value+" ("+strings.ToUpper(strings.ReplaceAll(label, "_", " "))+")")
	}
	if len(numbers) == 0 {
		return ""
	}
	sort.Strings(numbers)
	return numbers[0]
}

func identifierValue(rec gjson.Result, typ string) string {
	for _, id := range rec.Get("identifiers").Array() {
		if id.Get("type").String() == typ {
			return id.Get("value").String()
		}
	}
	return ""
}

func sicCode(rec gjson.Result) string {
	for _, item := range rec.Get("attributes.business_purpose.data").Array() {
		if strings.ToLower(item.Get("properties.standard").String()) == "sic" {
			return item.Get("properties.code").String()
		}
	}
	return ""
}

// countryValues joins the country attribute values recorded under one
// context ("domicile", "nationality", "residence").
func countryValues(rec gjson.Result, context string) string {
	return attributeValues(rec, "attributes.country.data", "context", context, "value")
}

// contactValues joins the contact values of one type ("url",
// "phone_number").
func contactValues(rec gjson.Result, typ string) string {
	return attributeValues(rec, "attributes.contact.data", "type", typ, "value")
}

func attributeValues(rec gjson.Result, path, nameField, name, valueField string) string {
	seen := make(map[string]struct{})
	var values []string
	for _, item := range rec.Get(path).Array() {
		props := item.Get("properties")
		if props.Get(nameField).String() != name {
			continue
		}
		v := props.Get(valueField).String()
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return strings.Join(values, ", ")
}

// relationshipsOf returns the relationship records carrying any of the
// given types. Sayari ships two response shapes: a flat data list, and a
// per-type map of data lists.
func relationshipsOf(rec gjson.Result, types ...string) []gjson.Result {
	rels := rec.Get("relationships")
	var out []gjson.Result
	seen := make(map[string]struct{})
	for _, typ := range types {
		candidates := rels.Get("data").Array()
		if !rels.Get("data").Exists() {
			candidates = rels.Get(typ + ".data").Array()
		}
		for _, rel := range candidates {
			if !rel.Get("target").Exists() || !rel.Get("types."+typ).Exists() {
				continue
			}
			key := rel.Get("target.id").String() + "/" + typ
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, rel)
		}
	}
	return out
}

// relTypes lists the relationship type keys present on a record.
func relTypes(rel gjson.Result) []string {
	var out []string
	rel.Get("types").ForEach(func(key, _ gjson.Result) bool {
		out = append(out, key.String())
		return true
	})
	return out
}

// sharePositions joins the shareholding position values on a
// relationship.
func sharePositions(rel gjson.Result) string {
	return positionValues(rel, "shareholder_of")
}

// positionValues joins the position values recorded under the given
// relationship types.
func positionValues(rel gjson.Result, types ...string) string {
	seen := make(map[string]struct{})
	var values []string
	for _, typ := range types {
		for _, record := range rel.Get("types." + typ).Array() {
			for _, pos := range record.Get("attributes.position").Array() {
				v := pos.Get("value").String()
				if v == "" {
					continue
				}
				if _, dup := seen[v]; dup {
					continue
				}
				seen[v] = struct{}{}
				values = append(values, v)
			}
		}
	}
	return strings.Join(values, ", ")
}

// firstPosition returns the first position value under a relationship
// type.
func firstPosition(rel gjson.Result, typ string) string {
	for _, record := range rel.Get("types." + typ).Array() {
		for _, pos := range record.Get("attributes.position").Array() {
			if v := pos.Get("value").String(); v != "" {
				return v
			}
		}
	}
	return ""
}

func firstOf(rec gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := rec.Get(p).String(); v != "" {
			return v
		}
	}
	return ""
}

func splitName(full string) (string, string) {
	words := strings.Fields(full)
	if len(words) == 0 {
		return "", ""
	}
	return words[0], strings.Join(words[1:], " ")
}
