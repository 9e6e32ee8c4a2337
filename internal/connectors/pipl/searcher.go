// Package pipl searches the Pipl people-search API. Queries arrive either
// as a labeled parameter list ("name:Jon Doe; email:foo@example.com"), a
// bare email address or phone number, or a bare name.
package pipl

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/trailstone/osgraph/internal/connectors"
	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/graph"
	"github.com/trailstone/osgraph/internal/logger"
)

var _ driven.Searcher = (*Searcher)(nil)

const (
	// SourceName labels results from this source.
	SourceName = "Pipl Search API"

	// DefaultBaseURL is the Pipl search endpoint.
	DefaultBaseURL = "https://api.pipl.com/search/"

	// matchThreshold drops candidates Pipl itself considers improbable.
	matchThreshold = 0.01
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9.+_-]+@[A-Za-z0-9._-]+\.[a-zA-Z]+$`)
	phonePattern = regexp.MustCompile(`^(\+\d{1,2})?\(?\d{3}\)?[.-]?\d{3}[.-]?\d{4}$`)
)

// validParams are the search parameters Pipl accepts; anything else in a
// labeled query is dropped.
var validParams = map[string]struct{}{
	"email": {}, "phone": {}, "username": {}, "user_id": {}, "url": {},
	"first_name": {}, "last_name": {}, "middle_name": {}, "raw_name": {},
	"country": {}, "state": {}, "city": {}, "street": {}, "house": {},
	"zipcode": {}, "raw_address": {}, "age": {},
}

// equivalentResultKeys maps each search parameter to the person field that
// must be populated in a hit for the hit to count as a match on that
// parameter.
var equivalentResultKeys = map[string]string{
	"email":       "emails",
	"phone":       "phones",
	"username":    "usernames",
	"user_id":     "user_ids",
	"url":         "urls",
	"first_name":  "names",
	"last_name":   "names",
	"middle_name": "names",
	"raw_name":    "names",
	"country":     "origin_countries",
	"state":       "addresses",
	"city":        "addresses",
	"street":      "addresses",
	"house":       "addresses",
	"zipcode":     "addresses",
	"raw_address": "addresses",
	"age":         "dob",
}

// socialProfileTypes maps a Pipl url site name to its profile entity type.
// Unlisted sites map to the generic online profile.
var socialProfileTypes = map[string]domain.EntityType{
	"facebook":      domain.TypeFacebookProfile,
	"linkedin":      domain.TypeLinkedinProfile,
	"twitter":       domain.TypeTwitterProfile,
	"ebay":          domain.TypeEbayProfile,
	"google":        domain.TypeGooglePlusProfile,
	"pinterest":     domain.TypePinterestProfile,
	"instagram":     domain.TypeInstagramProfile,
	"flickr":        domain.TypeFlickrProfile,
	"youtube":       domain.TypeYoutubeProfile,
	"odnoklassniki": domain.TypeOdnoklassnikiProfile,
	"vk":            domain.TypeVkontakteProfile,
	"soundcloud":    domain.TypeSoundcloudProfile,
	"tiktok":        domain.TypeTiktokProfile,
}

// Searcher queries Pipl with a static API key.
type Searcher struct {
	apiKey string
	client *connectors.Client
}

// New creates a searcher against the production endpoint.
func New(apiKey string) *Searcher {
	return NewWithBase(DefaultBaseURL, apiKey)
}

// NewWithBase creates a searcher against a specific endpoint.
func NewWithBase(base, apiKey string) *Searcher {
	return &Searcher{
		apiKey: apiKey,
		client: connectors.NewClient(base, connectors.DefaultTimeout, nil),
	}
}

// ID returns the searcher identifier.
func (s *Searcher) ID() string {
	return "pipl"
}

func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	params := parseParams(query)
	if len(params) == 0 {
		return domain.Errorf("Error in the input query. Please provide a valid input.")
	}
	params.Set("key", s.apiKey)

	body, err := s.client.GetJSON(ctx, "", params)
	if err != nil {
		logger.Warn("pipl: search failed: %v", err)
		if errors.Is(err, domain.ErrUpstreamStatus) {
			return domain.Errorf("Error response from Pipl Search API.")
		}
		return domain.Errorf("Error querying the Pipl Search API.")
	}

	candidates := body.Get("possible_persons").Array()
	if person := body.Get("person"); person.Exists() {
		candidates = []gjson.Result{person}
	}

	set := graph.NewResultSet(maxResults)
	for _, candidate := range candidates {
		if candidate.Get(`\@match`).Float() <= matchThreshold {
			continue
		}
		if !matchesQueriedFields(candidate, params) {
			continue
		}

		person, ok := s.resolve(ctx, candidate)
		if !ok {
			continue
		}
		if !set.Add(personResult(person)) {
			break
		}
	}
	return set.Response()
}

// resolve returns a candidate with a person id, following the search
// pointer when Pipl returned only a partial match. Candidates that cannot
// be resolved are dropped rather than failing the whole search.
func (s *Searcher) resolve(ctx context.Context, candidate gjson.Result) (gjson.Result, bool) {
	if candidate.Get(`\@id`).String() != "" {
		return candidate, true
	}

	pointer := candidate.Get(`\@search_pointer`).String()
	if pointer == "" {
		logger.Debug("pipl: candidate carries neither id nor search pointer")
		return gjson.Result{}, false
	}

	body, err := s.client.GetJSON(ctx, "", url.Values{
		"key":            {s.apiKey},
		"search_pointer": {pointer},
	})
	if err != nil {
		logger.Warn("pipl: search pointer fetch failed: %v", err)
		return gjson.Result{}, false
	}
	person := body.Get("person")
	if person.Get(`\@id`).String() == "" {
		return gjson.Result{}, false
	}
	return person, true
}

// parseParams turns the raw query into Pipl search parameters. An empty
// result means no usable input; no upstream call is made in that case.
func parseParams(query string) url.Values {
	query = strings.TrimSpace(strings.ReplaceAll(query, "%20", " "))

	var components []string
	for _, component := range strings.Split(query, ";") {
		if component = strings.TrimSpace(component); component != "" {
			components = append(components, component)
		}
	}

	params := url.Values{}
	labeled := len(components) > 1 ||
		(len(components) == 1 && strings.Contains(components[0], ":"))
	if labeled {
		for _, component := range components {
			label, value, found := strings.Cut(component, ":")
			if !found {
				continue
			}
			label = normalizeLabel(strings.Trim(strings.TrimSpace(label), `"'`))
			if _, valid := validParams[label]; !valid {
				logger.Debug("pipl: dropping invalid query label %q", label)
				continue
			}
			params.Set(label, strings.Trim(strings.TrimSpace(value), `"'`))
		}
		return params
	}

	if query == "" {
		return params
	}
	switch {
	case emailPattern.MatchString(query):
		params.Set("email", query)
	case phonePattern.MatchString(strings.ReplaceAll(query, " ", "")):
		params.Set("phone", query)
	default:
		params.Set("raw_name", query)
	}
	return params
}

// normalizeLabel accepts the human spellings of the free-text parameters.
func normalizeLabel(label string) string {
	switch label {
	case "name":
		return "raw_name"
	case "address":
		return "raw_address"
	default:
		return label
	}
}

// matchesQueriedFields checks that every queried parameter has its
// equivalent field populated on the hit. A hit matching an email query
// without any email is a false positive.
func matchesQueriedFields(person gjson.Result, params url.Values) bool {
	for param := range params {
		equivalent, known := equivalentResultKeys[param]
		if !known {
			continue
		}
		field := person.Get(equivalent)
		if !field.Exists() {
			return false
		}
		if field.IsArray() && len(field.Array()) == 0 {
			return false
		}
	}
	return true
}

func personResult(person gjson.Result) domain.SearchResult {
	personID := person.Get(`\@id`).String()

	parent := domain.NewEntity(domain.TypePerson, personID)
	parent.Attributes.Set(domain.AttrFirstName, bestName(person, "first"))
	parent.Attributes.Set(domain.AttrLastName, bestName(person, "last"))
	parent.Attributes.Set(domain.AttrDob, orDash(person.Get("dob.display").String()))
	parent.Attributes.Set(domain.AttrEducation, education(person))
	parent.Attributes.Set(domain.AttrNationality, nationality(person))

	b := graph.NewResult(parent)

	for _, addr := range person.Get("addresses").Array() {
		street1 := strings.TrimSpace(addr.Get("house").String())
		if apartment := strings.TrimSpace(addr.Get("apartment").String()); apartment != "" {
			street1 += "-" + apartment
		}
		street2 := strings.TrimSpace(addr.Get("street").String())
		city := strings.TrimSpace(addr.Get("city").String())
		region := strings.TrimSpace(addr.Get("state").String())
		postcode := strings.TrimSpace(addr.Get("zip_code").String())
		country := strings.TrimSpace(addr.Get("country").String())

		full := joinPresent(street1, street2, city, region, postcode, country)
		key := full
		if key == "" {
			key = personID
		}
		address := domain.NewEntity(domain.TypeAddress, key)
		address.Attributes.Set(domain.AttrStreet1, street1)
		address.Attributes.Set(domain.AttrStreet2, street2)
		address.Attributes.Set(domain.AttrCity, city)
		address.Attributes.Set(domain.AttrRegion, region)
		address.Attributes.Set(domain.AttrPostcode, postcode)
		address.Attributes.Set(domain.AttrCountry, country)
		b.Attach(address, "Person Address")
	}

	for _, ph := range person.Get("phones").Array() {
		local := strings.TrimSpace(ph.Get("display").String())
		international := strings.TrimSpace(ph.Get("display_international").String())
		if local == "" && international == "" {
			continue
		}
		key := local
		if key == "" {
			key = international
		}
		phone := domain.NewEntity(domain.TypePhoneNumber, key)
		phone.Attributes.Set(domain.AttrLocalNumber, local)
		phone.Attributes.Set(domain.AttrFormattedNumber, international)
		b.Attach(phone, "Person Phone Number")
	}

	for _, em := range person.Get("emails").Array() {
		address := strings.TrimSpace(em.Get("address").String())
		if address == "" {
			continue
		}
		email := domain.NewEntity(domain.TypeEmail, address)
		email.Attributes.Set(domain.AttrEmailAddress, address)
		b.Attach(email, "Person Email Address")
	}

	// The oldest url doubles as the result link; every url becomes a
	// profile entity.
	resultURL := ""
	for _, u := range sortedByDate(person.Get("urls").Array(), false) {
		link := strings.TrimSpace(u.Get("url").String())
		if link == "" {
			continue
		}
		if resultURL == "" {
			resultURL = link
		}
		site := strings.ToLower(firstOf(u, `\@name`, "name"))
		profileType, known := socialProfileTypes[site]
		if !known {
			profileType = domain.TypeGenericProfile
		}
		profile := domain.NewEntity(profileType, link)
		profile.Attributes.Set(domain.AttrURL, link)
		b.Attach(profile, "Person Online Profile")
	}

	job, jobDisplay := latestJob(person)
	if job.Exists() {
		business := domain.NewEntity(domain.TypeBusiness, personID+"/job/"+jobDisplay)
		business.Attributes.Set(domain.AttrName, strings.TrimSpace(job.Get("organization").String()))
		business.Attributes.Set(domain.AttrLocalName, strings.TrimSpace(job.Get("organization").String()))
		business.Attributes.Set(domain.AttrJobTitle, strings.TrimSpace(job.Get("title").String()))
		b.Attach(business, "Company")
	}

	var subtitle []string
	if gender := firstOf(person, "gender.display", "gender.content"); gender != "" {
		subtitle = append(subtitle, "Gender: "+gender)
	}
	if jobDisplay != "" {
		subtitle = append(subtitle, "Job: "+jobDisplay)
	}
	if resultURL != "" {
		subtitle = append(subtitle, "URL: "+resultURL)
	}

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    title(person),
		SubTitle: strings.Join(subtitle, " | "),
		Source:   SourceName,
		URL:      resultURL,
		Entities: b.Entities(),
	}
}

func title(person gjson.Result) string {
	var names []string
	for _, name := range person.Get("names").Array() {
		if display := name.Get("display").String(); display != "" {
			names = append(names, display)
		}
	}
	if len(names) == 0 {
		return "(no name)"
	}
	return strings.Join(names, " | ")
}

// bestName picks the given part of the most recent name.
func bestName(person gjson.Result, part string) string {
	names := sortedByDate(person.Get("names").Array(), true)
	if len(names) == 0 {
		return ""
	}
	return orDash(strings.TrimSpace(names[0].Get(part).String()))
}

// nationality is the display of the oldest origin country.
func nationality(person gjson.Result) string {
	countries := sortedByDate(person.Get("origin_countries").Array(), false)
	if len(countries) == 0 {
		return ""
	}
	return orDash(strings.TrimSpace(countries[0].Get("display").String()))
}

// education joins displays, most recent first.
func education(person gjson.Result) string {
	var displays []string
	for _, e := range sortedByStart(person.Get("educations").Array()) {
		if display := e.Get("display").String(); display != "" {
			displays = append(displays, display)
		}
	}
	return strings.Join(displays, ", ")
}

// latestJob returns the most recent job record and its display.
func latestJob(person gjson.Result) (gjson.Result, string) {
	jobs := sortedByStart(person.Get("jobs").Array())
	if len(jobs) == 0 {
		return gjson.Result{}, ""
	}
	return jobs[0], orDash(strings.TrimSpace(jobs[0].Get("display").String()))
}

// sortedByDate orders records by their valid-since (falling back to
// last-seen) timestamp, newest first when desc. Dates are ISO strings so
// plain string ordering holds.
func sortedByDate(records []gjson.Result, desc bool) []gjson.Result {
	out := append([]gjson.Result(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a := firstOf(out[i], `\@valid_since`, `\@last_seen`)
		b := firstOf(out[j], `\@valid_since`, `\@last_seen`)
		if desc {
			return a > b
		}
		return a < b
	})
	return out
}

// sortedByStart orders records by date_range.start, newest first.
func sortedByStart(records []gjson.Result) []gjson.Result {
	out := append([]gjson.Result(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Get("date_range.start").String() > out[j].Get("date_range.start").String()
	})
	return out
}

func firstOf(rec gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := rec.Get(p).String(); v != "" {
			return v
		}
	}
	return ""
}

func joinPresent(parts ...string) string {
	present := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			present = append(present, part)
		}
	}
	return strings.Join(present, ", ")
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
