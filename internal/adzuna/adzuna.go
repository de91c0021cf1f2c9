package adzuna

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

const searchBaseURL = "https://api.adzuna.com/v1/api/jobs"

// The search endpoint caps a page at 50 results; a short page means the
// last one.
const resultsPerPage = 50

// searchResponse is the top-level search endpoint response. Results stay
// schemaless so every field survives into the stored raw payload.
type searchResponse struct {
	Results []model.SourceRecord `json:"results"`
	Count   int                  `json:"count"`
}

// Client fetches job postings from the Adzuna search API, one country per
// client, paging through results per query.
type Client struct {
	appID    string
	appKey   string
	country  string
	maxPages int
	client   *http.Client
}

// NewClient creates a search client for one Adzuna country endpoint.
func NewClient(appID, appKey, country string, maxPages int, client *http.Client) *Client {
	if country == "" {
		country = "fr"
	}
	if maxPages < 1 {
		maxPages = 5
	}
	return &Client{
		appID:    appID,
		appKey:   appKey,
		country:  country,
		maxPages: maxPages,
		client:   client,
	}
}

var _ model.Searcher = (*Client)(nil)

// Search pages through postings for one keyword/location query and returns
// them stamped with provenance fields. Paging stops at maxPages or at the
// first short page.
func (c *Client) Search(ctx context.Context, keyword, location string) ([]model.SourceRecord, error) {
	var all []model.SourceRecord
	for page := 1; page <= c.maxPages; page++ {
		results, err := c.fetchPage(ctx, page, keyword, location)
		if err != nil {
			return nil, err
		}

		fetchedAt := time.Now().UTC().Format(time.RFC3339)
		for _, rec := range results {
			stamp(rec, keyword, location, c.country, fetchedAt)
		}
		all = append(all, results...)

		if len(results) < resultsPerPage {
			break
		}
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page int, keyword, location string) ([]model.SourceRecord, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", searchBaseURL, c.country, page)

	params := url.Values{}
	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)
	params.Set("results_per_page", strconv.Itoa(resultsPerPage))
	params.Set("what", keyword)
	params.Set("where", location)
	params.Set("content-type", "application/json")
	params.Set("sort_by", "relevance")
	// Most French postings omit salary; keep them anyway.
	params.Set("salary_include_unknown", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("adzuna search %q in %q: %w", keyword, location, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna search %q in %q: %w", keyword, location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("adzuna search %q in %q: unexpected status %d on page %d", keyword, location, resp.StatusCode, page),
		}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("adzuna search %q in %q: %w", keyword, location, err)
	}
	return sr.Results, nil
}

// stamp adds provenance fields and flattens the nested company, location
// and category objects into the field names downstream normalization maps.
// The description is cleaned in place since Adzuna snippets arrive with
// HTML entities and stray tags.
func stamp(rec model.SourceRecord, keyword, location, country, fetchedAt string) {
	rec["extracted_at"] = fetchedAt
	rec["search_keyword"] = keyword
	rec["search_location"] = location
	rec["search_country"] = country

	rec["company_name"] = nestedString(rec, "company", "display_name", "Unknown")
	rec["location_display"] = nestedString(rec, "location", "display_name", location)
	rec["category_label"] = nestedString(rec, "category", "label", "Unknown")

	if desc, ok := rec["description"].(string); ok {
		rec["description"] = cleanText(desc)
	}
}

func nestedString(rec model.SourceRecord, field, key, fallback string) string {
	if obj, ok := rec[field].(map[string]any); ok {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// cleanText reduces an HTML or HTML-encoded snippet to plain text. Tags
// become spaces so adjacent words stay separated for skill matching.
func cleanText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
