package pipl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailstone/osgraph/internal/core/domain"
)

const personJSON = `{
	"@id": "person-1",
	"@match": 0.95,
	"names": [
		{"@valid_since": "2010-01-01", "first": "Jon", "last": "Doe", "display": "Jon Doe"},
		{"@valid_since": "2020-01-01", "first": "Jonathan", "last": "Doe", "display": "Jonathan Doe"}
	],
	"gender": {"content": "male"},
	"dob": {"display": "52 years old"},
	"emails": [
		{"address": "jon@example.com"},
		{"address": ""}
	],
	"phones": [
		{"display": "(404) 555-0100", "display_international": "+1 404-555-0100"}
	],
	"addresses": [
		{
			"house": "10", "apartment": "2", "street": "Baker St",
			"city": "London", "state": "LND", "zip_code": "NW1", "country": "GB"
		}
	],
	"origin_countries": [
		{"@valid_since": "2015-01-01", "display": "Australia"},
		{"@valid_since": "2001-01-01", "display": "Ireland"}
	],
	"educations": [
		{"display": "BSc, Example University", "date_range": {"start": "1990-09-01"}}
	],
	"jobs": [
		{
			"title": "Engineer", "organization": "Acme", "display": "Engineer at Acme",
			"date_range": {"start": "2018-01-01"}
		},
		{
			"title": "Intern", "organization": "Beta", "display": "Intern at Beta",
			"date_range": {"start": "2005-01-01"}
		}
	],
	"urls": [
		{"@valid_since": "2012-01-01", "@name": "Facebook", "url": "https://facebook.com/jondoe"},
		{"@valid_since": "2016-01-01", "@name": "MySpace", "url": "https://myspace.com/jondoe"}
	]
}`

func newPiplServer(t *testing.T, calls *atomic.Int32, respond func(r *http.Request) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		status, body := respond(r)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func entitiesOfType(entities []domain.Entity, typ domain.EntityType) []domain.Entity {
	var out []domain.Entity
	for _, e := range entities {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestSearchMapsFullPerson(t *testing.T) {
	var calls atomic.Int32
	srv := newPiplServer(t, &calls, func(r *http.Request) (int, string) {
		assert.Equal(t, "Jon Doe", r.URL.Query().Get("raw_name"))
		return http.StatusOK, `{"person": ` + personJSON + `}`
	})
	defer srv.Close()

	resp := NewWithBase(srv.URL, "test-key").Search(context.Background(), "Jon Doe", 50)
	require.False(t, resp.IsError())
	require.Len(t, resp.SearchResults, 1)

	result := resp.SearchResults[0]
	assert.Equal(t, "Jon Doe | Jonathan Doe", result.Title)
	assert.Equal(t,
		"Gender: male | Job: Engineer at Acme | URL: https://facebook.com/jondoe",
		result.SubTitle)
	assert.Equal(t, "Pipl Search API", result.Source)
	assert.Equal(t, "https://facebook.com/jondoe", result.URL)

	person := result.Entities[0]
	assert.Equal(t, domain.TypePerson, person.Type)
	assert.Equal(t, domain.DeterministicID("person-1"), person.ID)
	// Most recent name wins.
	assert.Equal(t, "Jonathan", person.Attributes[domain.AttrFirstName])
	assert.Equal(t, "Doe", person.Attributes[domain.AttrLastName])
	assert.Equal(t, "52 years old", person.Attributes[domain.AttrDob])
	// Oldest origin country wins.
	assert.Equal(t, "Ireland", person.Attributes[domain.AttrNationality])
	assert.Equal(t, "BSc, Example University", person.Attributes[domain.AttrEducation])

	addresses := entitiesOfType(result.Entities, domain.TypeAddress)
	require.Len(t, addresses, 1)
	assert.Equal(t, "10-2", addresses[0].Attributes[domain.AttrStreet1])
	assert.Equal(t, "Baker St", addresses[0].Attributes[domain.AttrStreet2])
	assert.Equal(t, "London", addresses[0].Attributes[domain.AttrCity])
	assert.Equal(t, "NW1", addresses[0].Attributes[domain.AttrPostcode])

	phones := entitiesOfType(result.Entities, domain.TypePhoneNumber)
	require.Len(t, phones, 1)
	assert.Equal(t, "(404) 555-0100", phones[0].Attributes[domain.AttrLocalNumber])
	assert.Equal(t, "+1 404-555-0100", phones[0].Attributes[domain.AttrFormattedNumber])

	// The blank email is dropped.
	emails := entitiesOfType(result.Entities, domain.TypeEmail)
	require.Len(t, emails, 1)
	assert.Equal(t, "jon@example.com", emails[0].Attributes[domain.AttrEmailAddress])

	facebook := entitiesOfType(result.Entities, domain.TypeFacebookProfile)
	require.Len(t, facebook, 1)
	assert.Equal(t, "https://facebook.com/jondoe", facebook[0].Attributes[domain.AttrURL])
	// Unknown sites fall back to the generic profile.
	generic := entitiesOfType(result.Entities, domain.TypeGenericProfile)
	require.Len(t, generic, 1)

	businesses := entitiesOfType(result.Entities, domain.TypeBusiness)
	require.Len(t, businesses, 1)
	assert.Equal(t, "Acme", businesses[0].Attributes[domain.AttrName])
	assert.Equal(t, "Engineer", businesses[0].Attributes[domain.AttrJobTitle])
}

func TestSearchFollowsSearchPointer(t *testing.T) {
	var calls atomic.Int32
	srv := newPiplServer(t, &calls, func(r *http.Request) (int, string) {
		if pointer := r.URL.Query().Get("search_pointer"); pointer != "" {
			assert.Equal(t, "ptr-1", pointer)
			return http.StatusOK, `{"person": ` + personJSON + `}`
		}
		return http.StatusOK, `{"possible_persons": [
			{"@match": 0.5, "@search_pointer": "ptr-1", "names": [{"display": "Jon Doe"}]}
		]}`
	})
	defer srv.Close()

	resp := NewWithBase(srv.URL, "test-key").Search(context.Background(), "Jon Doe", 50)
	require.False(t, resp.IsError())
	require.Len(t, resp.SearchResults, 1)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, domain.DeterministicID("person-1"), resp.SearchResults[0].Entities[0].ID)
}

func TestSearchFiltersWeakAndMismatchedCandidates(t *testing.T) {
	var calls atomic.Int32
	srv := newPiplServer(t, &calls, func(r *http.Request) (int, string) {
		assert.Equal(t, "jon@example.com", r.URL.Query().Get("email"))
		return http.StatusOK, `{"possible_persons": [
			{"@id": "weak", "@match": 0.005, "emails": [{"address": "jon@example.com"}]},
			{"@id": "no-email", "@match": 0.9, "names": [{"display": "Jon Doe"}]}
		]}`
	})
	defer srv.Close()

	resp := NewWithBase(srv.URL, "test-key").Search(context.Background(), "jon@example.com", 50)
	require.False(t, resp.IsError())
	assert.Empty(t, resp.SearchResults)
}

func TestSearchRejectsEmptyInputWithoutCalling(t *testing.T) {
	var calls atomic.Int32
	srv := newPiplServer(t, &calls, func(r *http.Request) (int, string) {
		return http.StatusOK, `{}`
	})
	defer srv.Close()

	resp := NewWithBase(srv.URL, "test-key").Search(context.Background(), "badlabel:foo; other:bar", 50)
	require.True(t, resp.IsError())
	assert.Equal(t, "Error in the input query. Please provide a valid input.", resp.Errors[0].Message)
	assert.Equal(t, int32(0), calls.Load())
}

func TestSearchReportsUpstreamError(t *testing.T) {
	var calls atomic.Int32
	srv := newPiplServer(t, &calls, func(r *http.Request) (int, string) {
		return http.StatusForbidden, `{"error": "quota exceeded"}`
	})
	defer srv.Close()

	resp := NewWithBase(srv.URL, "test-key").Search(context.Background(), "Jon Doe", 50)
	require.True(t, resp.IsError())
	assert.Equal(t, "Error response from Pipl Search API.", resp.Errors[0].Message)
}

func TestParseParams(t *testing.T) {
	params := parseParams(`name:Jon Doe; email:"foo@example.com"; bogus:x`)
	assert.Equal(t, "Jon Doe", params.Get("raw_name"))
	assert.Equal(t, "foo@example.com", params.Get("email"))
	assert.NotContains(t, params, "bogus")

	assert.Equal(t, "foo@example.com", parseParams("foo@example.com").Get("email"))
	assert.Equal(t, "+1 404 555 0100", parseParams("+1 404 555 0100").Get("phone"))
	assert.Equal(t, "Jon Doe", parseParams("Jon Doe").Get("raw_name"))
	assert.Equal(t, "123, baker st", parseParams(`address:"123, baker st"`).Get("raw_address"))

	assert.Empty(t, parseParams("   "))
	assert.Empty(t, parseParams("bogus:x"))
}
