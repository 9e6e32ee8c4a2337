// Package cribis searches the CRIBIS Italian business registry over its
// SOAP interface, for companies and for people.
package cribis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/trailstone/osgraph/internal/connectors"
	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/graph"
	"github.com/trailstone/osgraph/internal/logger"
)

var _ driven.Searcher = (*Searcher)(nil)

const (
	// SourceName labels results from this source.
	SourceName = "CRIBIS API"

	// DefaultEndpoint is the CRIBIS search service endpoint.
	DefaultEndpoint = "https://dis.cribis.com/Search/2012-04-20/"

	// CRIBIS covers Italian registrations only.
	italyCountryCode = "IT"

	// tradeDescriptionCap truncates over-long activity descriptions.
	tradeDescriptionCap = 150

	// TermRate throttles the per-term SOAP calls; the registry bills and
	// throttles per transaction.
	TermRate = rate.Limit(2)
)

// Protocol failures, mapped to their user-facing messages at the top of
// Search.
var (
	errEchoMismatch  = errors.New("transaction id echo mismatch")
	errResultCode    = errors.New("error result code")
	errNameRequired  = errors.New("name and surname required")
	errIncompleteRsp = errors.New("incomplete response")
)

// Config holds the CRIBIS endpoint and account.
type Config struct {
	Endpoint string
	Username string
	Password string
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	return c
}

// Searcher runs company or people searches against CRIBIS. The upstream is
// known to be slow, so calls carry the long timeout.
type Searcher struct {
	id      string
	cfg     Config
	soap    *soapClient
	limiter *rate.Limiter
	people  bool
}

// NewCompany creates the company searcher.
func NewCompany(cfg Config) *Searcher {
	return newSearcher("cribis_company", cfg, false)
}

// NewPeople creates the people searcher.
func NewPeople(cfg Config) *Searcher {
	return newSearcher("cribis_people", cfg, true)
}

func newSearcher(id string, cfg Config, people bool) *Searcher {
	cfg = cfg.withDefaults()
	return &Searcher{
		id:      id,
		cfg:     cfg,
		soap:    newSOAPClient(cfg.Endpoint),
		limiter: rate.NewLimiter(TermRate, 1),
		people:  people,
	}
}

// ID returns the searcher identifier.
func (s *Searcher) ID() string {
	return s.id
}

func (s *Searcher) Search(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	if s.people {
		return s.searchPeople(ctx, query, maxResults)
	}
	return s.searchCompanies(ctx, query, maxResults)
}

func (s *Searcher) searchCompanies(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	terms := domain.ParseTerms(query)

	results, err := connectors.ForEachTerm(ctx, terms, maxResults, s.limiter,
		func(ctx context.Context, term string) ([]domain.SearchResult, error) {
			return s.fetchCompanies(ctx, term, maxResults)
		})
	if err != nil {
		logger.Warn("cribis: company search failed: %v", err)
		return errorResponse(err)
	}
	return domain.Results(results)
}

func (s *Searcher) fetchCompanies(ctx context.Context, name string, maxResults int) ([]domain.SearchResult, error) {
	transactionID := domain.RandomID()
	var resp companySearchResponse
	err := s.soap.call(ctx, "CompanySearch", companySearchRequest{
		Username:                 s.cfg.Username,
		Password:                 s.cfg.Password,
		ApplicationTransactionID: transactionID,
		CustomerReferenceText:    domain.RandomID(),
		SearchData: companySearchData{
			FlagActiveOnly: true,
			FlagHQOnly:     false,
			MaximumHits:    maxResults,
			CompanyName:    name,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := checkTransaction(resp.TransactionResponse, transactionID, "OK", "CS006"); err != nil {
		return nil, err
	}

	//nolint:prealloc
	var results []domain.SearchResult
	for _, company := range resp.CompanyList.CompanyItem {
		results = append(results, companyResult(company))
	}
	return results, nil
}

func (s *Searcher) searchPeople(ctx context.Context, query string, maxResults int) domain.SearchResponse {
	terms, err := parsePeopleTerms(query)
	if err != nil {
		return domain.Errorf("Invalid query format.")
	}

	results, err := connectors.ForEachTerm(ctx, terms, maxResults, s.limiter,
		func(ctx context.Context, term string) ([]domain.SearchResult, error) {
			return s.fetchPeople(ctx, term, maxResults)
		})
	if err != nil {
		logger.Warn("cribis: people search failed: %v", err)
		return errorResponse(err)
	}
	return domain.Results(results)
}

func (s *Searcher) fetchPeople(ctx context.Context, fullName string, maxResults int) ([]domain.SearchResult, error) {
	words := strings.Fields(fullName)
	name, surname := "", ""
	if len(words) > 0 {
		name = words[0]
		surname = strings.Join(words[1:], " ")
	}

	transactionID := domain.RandomID()
	var resp personSearchResponse
	err := s.soap.call(ctx, "PersonSearch", personSearchRequest{
		Username:                 s.cfg.Username,
		Password:                 s.cfg.Password,
		ApplicationTransactionID: transactionID,
		CustomerReferenceText:    domain.RandomID(),
		SearchData: personSearchData{
			Name:        name,
			Surname:     surname,
			MaximumHits: maxResults,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.TransactionResponse.Result.Code == "PS002" {
		return nil, errNameRequired
	}
	if err := checkTransaction(resp.TransactionResponse, transactionID, "OK", "PS004"); err != nil {
		return nil, err
	}

	//nolint:prealloc
	var results []domain.SearchResult
	for _, person := range resp.PersonList.PersonItem {
		results = append(results, personResult(person))
	}
	return results, nil
}

// strict people grammar: quoted or parenthesized names joined by OR or
// commas. Anything else is rejected before any upstream call.
var (
	peopleQueryPattern = regexp.MustCompile(
		`^(?:'(.+?)'|"(.+?)"|\((.+?)\))(?:(?:\s+(?i:OR)\s+|\s*,\s*)(?:'(.+?)'|"(.+?)"|\((.+?)\)))*$`)
	peopleItemPattern = regexp.MustCompile(`'(.+?)'|"(.+?)"|\((.+?)\)`)
)

// parsePeopleTerms extracts every quoted name from the query. A bare query
// with no quoting is accepted as a single name.
func parsePeopleTerms(query string) ([]string, error) {
	query = strings.TrimSpace(strings.ReplaceAll(query, "%20", " "))
	if !strings.ContainsAny(query, `'"(`) {
		query = "(" + query + ")"
	}
	if !peopleQueryPattern.MatchString(query) {
		return nil, domain.ErrInvalidQuery
	}

	var terms []string
	for _, match := range peopleItemPattern.FindAllStringSubmatch(query, -1) {
		for _, group := range match[1:] {
			if group != "" {
				terms = append(terms, group)
				break
			}
		}
	}
	return terms, nil
}

// checkTransaction validates the echoed transaction id and the result code
// against the operation's success codes (the second of which means "no
// results found").
func checkTransaction(tr transactionResponse, transactionID string, successCodes ...string) error {
	if tr.Details.ApplicationTransactionID == "" || tr.Result.Code == "" {
		return errIncompleteRsp
	}
	if tr.Details.ApplicationTransactionID != transactionID {
		return errEchoMismatch
	}
	for _, code := range successCodes {
		if tr.Result.Code == code {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", errResultCode, tr.Result.Code)
}

func errorResponse(err error) domain.SearchResponse {
	switch {
	case errors.Is(err, domain.ErrNoSearchTerms):
		return domain.Errorf("No company names in query.")
	case errors.Is(err, errNameRequired):
		return domain.Errorf("Please provide both the name and surname of the person to query. Eg. Jon Doe")
	case errors.Is(err, errEchoMismatch):
		return domain.Errorf("Received an illegal response from the CRIBIS API.")
	case errors.Is(err, errIncompleteRsp):
		return domain.Errorf("Received an incomplete response from the CRIBIS API.")
	case errors.Is(err, errResultCode):
		return domain.Errorf("Received an error response from the CRIBIS API.")
	default:
		return domain.Errorf("Error querying the CRIBIS API.")
	}
}

func companyResult(company companyItem) domain.SearchResult {
	lastBalance := formatDate(company.LastBalanceDate)
	description := tradeDescription(company.ActivityDescription)

	business := domain.NewEntity(domain.TypeBusiness, company.CrifNumber)
	business.Attributes.Set(domain.AttrName, company.CompanyName)
	business.Attributes.Set(domain.AttrLocalName, company.CompanyName)
	business.Attributes.Set(domain.AttrCompanyNumber, company.CrifNumber)
	business.Attributes.Set(domain.AttrVatNumber, company.VATCode)
	business.Attributes.Set(domain.AttrStatus, company.ActivityStatusCodeDescription)
	business.Attributes.Set(domain.AttrDuns, company.DunsNumber)
	business.Attributes.Set(domain.AttrRegistrationState, company.Region)
	business.Attributes.Set(domain.AttrRegistrationCountry, italyCountryCode)
	business.Attributes.Set(domain.AttrLiquidated, company.FlagOutOfBusiness)
	business.Attributes.Set(domain.AttrTradeDescription, description)
	business.Attributes.Set(domain.AttrStatusSince, lastBalance)

	b := graph.NewResult(business)
	if company.WebSite != "" {
		website := domain.NewEntity(domain.TypeWebPage, company.WebSite)
		website.Attributes.Set(domain.AttrURL, company.WebSite)
		b.Attach(website, "Company Website")
	}

	subtitle := "Company Branch - " + company.CrifNumber
	if company.UnitTypeCode == "S" {
		subtitle = "Company Headquarters - " + company.CrifNumber
	}

	url := "https://www2.cribisx.com"
	if company.DunsNumber != "" {
		url = "https://www2.cribisx.com/#Purchase/CompanyByDUNS/" + company.DunsNumber
	}

	return domain.SearchResult{
		Key:      domain.ResultKey(),
		Title:    company.CompanyName,
		SubTitle: subtitle,
		Summary: strings.Join([]string{
			"Crif Number: " + dash(company.CrifNumber),
			"VAT Number: " + dash(company.VATCode),
			"Province: " + dash(company.ProvinceCode),
			"Status: " + dash(company.ActivityStatusCodeDescription),
			"Last Balance Date: " + lastBalance,
			"Description: " + dash(description),
			"Website: " + dash(company.WebSite),
		}, " | "),
		Source:   SourceName,
		URL:      url,
		Entities: b.Entities(),
	}
}

func personResult(person personItem) domain.SearchResult {
	// TAXCode is the only natural key CRIBIS exposes for people. Records
	// without one get a random id each; a shared empty key would collapse
	// distinct people into a single node.
	key := person.TAXCode
	if key == "" {
		key = domain.RandomID()
	}
	birthDate := formatDate(person.BirthDate)
	fullAddress := joinAddress(person.Address, person.Village, person.Town, person.Province, person.Zip)

	parent := domain.NewEntity(domain.TypePerson, key)
	parent.Attributes.Set(domain.AttrFirstName, person.Name)
	parent.Attributes.Set(domain.AttrLastName, person.Surname)
	parent.Attributes.Set(domain.AttrDob, birthDate)
	parent.Attributes.Set(domain.AttrGender, person.Gender)
	parent.Attributes.Set(domain.AttrNationality, person.Country)

	b := graph.NewResult(parent)
	if fullAddress != "" {
		address := domain.NewEntity(domain.TypeAddress, fullAddress)
		address.Attributes.Set(domain.AttrStreet1, person.Address)
		address.Attributes.Set(domain.AttrStreet2, person.Village)
		address.Attributes.Set(domain.AttrStreet3, person.Town)
		address.Attributes.Set(domain.AttrRegion, person.Province)
		address.Attributes.Set(domain.AttrPostcode, person.Zip)
		b.Attach(address, "Person Address")
	}

	return domain.SearchResult{
		Key:   domain.ResultKey(),
		Title: strings.TrimSpace(person.Name + " " + person.Surname),
		SubTitle: fmt.Sprintf("Person (%s) DOB: %s. Birth Town: %s.",
			dash(person.Gender), birthDate, dash(person.BirthTown)),
		Summary: fmt.Sprintf("Address: %s.\nIs Soletrader: %t. Is Shareholder: %t. TAX Code: %s.",
			dash(fullAddress), person.IsSoletrader, person.IsShareholder, dash(person.TAXCode)),
		Source:   SourceName,
		URL:      "https://www2.cribisx.com/Search/Person",
		Entities: b.Entities(),
	}
}

// formatDate renders an xsd date or dateTime as dd/mm/yyyy, "-" when
// absent or unparseable.
func formatDate(value string) string {
	if len(value) < 10 {
		return "-"
	}
	parsed, err := time.Parse("2006-01-02", value[:10])
	if err != nil {
		return "-"
	}
	return parsed.Format("02/01/2006")
}

// tradeDescription normalizes line endings and truncates long activity
// descriptions.
func tradeDescription(raw string) string {
	description := strings.ReplaceAll(raw, "\r", "")
	description = strings.ReplaceAll(description, "\n", "\r\n")
	if len(description) > tradeDescriptionCap {
		description = strings.TrimSpace(description[:tradeDescriptionCap]) + "..."
	}
	return description
}

func joinAddress(parts ...string) string {
	present := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			present = append(present, part)
		}
	}
	return strings.Join(present, ", ")
}

func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
