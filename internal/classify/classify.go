package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

// Vocabulary is the canonical skill tag set, in match and output order.
// Stored skills are always a comma-joined subset of this list, so the
// analytics views can rely on exact tag equality.
var Vocabulary = []string{
	"python", "sql", "java", "javascript", "react", "node.js",
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform",
	"spark", "hadoop", "kafka", "airflow", "dbt", "snowflake",
	"tableau", "power bi", "looker", "git", "jenkins", "ci/cd",
}

var skillPatterns = compileVocabulary()

func compileVocabulary() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(Vocabulary))
	for i, skill := range Vocabulary {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(skill) + `\b`)
	}
	return patterns
}

var (
	seniorKeywords = []string{"senior", "lead", "principal", "staff", "architect"}
	juniorKeywords = []string{"junior", "entry", "graduate", "intern", "associate"}

	// "5+ years of experience", "3 years experience", etc.
	yearsPattern = regexp.MustCompile(`(\d+)\+?\s*years?\s*(?:of\s*)?experience`)

	remoteIndicators = []string{"remote", "work from home", "telecommute", "distributed", "télétravail"}
)

// Classifier derives skills, seniority, remote status and location parts
// from a posting's free text. Every method is total: empty input yields
// the documented default, never an error.
type Classifier struct {
	// HomeCountry is assumed when a location string carries no country
	// segment, e.g. "Paris, Île-de-France".
	HomeCountry string
}

func New(homeCountry string) *Classifier {
	if homeCountry == "" {
		homeCountry = "FR"
	}
	return &Classifier{HomeCountry: homeCountry}
}

var _ model.Classifier = (*Classifier)(nil)

// Enrich computes all derived attributes for one record.
func (c *Classifier) Enrich(title, description, location string) model.Enrichment {
	loc := c.ParseLocation(location)
	return model.Enrichment{
		Skills:    strings.Join(ExtractSkills(description), ","),
		Seniority: ClassifySeniority(title, description),
		IsRemote:  IsRemote(title, description, location),
		City:      loc.City,
		State:     loc.State,
		Country:   loc.Country,
	}
}

// ExtractSkills returns the vocabulary tags found in the description, in
// vocabulary order. Tags match whole words only, so "javascript" does not
// also count as "java". An empty description yields nil.
func ExtractSkills(description string) []string {
	if description == "" {
		return nil
	}
	lower := strings.ToLower(description)
	var found []string
	for i, pattern := range skillPatterns {
		if pattern.MatchString(lower) {
			found = append(found, Vocabulary[i])
		}
	}
	return found
}

// ClassifySeniority buckets a posting into Senior, Mid or Junior. Title
// keywords outrank the years-of-experience pattern in the description;
// with neither signal present the level is Mid.
func ClassifySeniority(title, description string) string {
	titleLower := strings.ToLower(title)
	for _, kw := range seniorKeywords {
		if strings.Contains(titleLower, kw) {
			return "Senior"
		}
	}
	for _, kw := range juniorKeywords {
		if strings.Contains(titleLower, kw) {
			return "Junior"
		}
	}
	if m := yearsPattern.FindStringSubmatch(strings.ToLower(description)); m != nil {
		years, err := strconv.Atoi(m[1])
		if err != nil {
			// Only digits can match, so a parse failure means the count
			// is out of int range, well past the senior cutoff.
			return "Senior"
		}
		switch {
		case years >= 5:
			return "Senior"
		case years <= 2:
			return "Junior"
		}
	}
	return "Mid"
}

// IsRemote reports whether any remote-work indicator appears in the title,
// description or location.
func IsRemote(title, description, location string) bool {
	text := strings.ToLower(title + " " + description + " " + location)
	for _, indicator := range remoteIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	return false
}

// Location is the structured form of a free-text location string.
type Location struct {
	City    string
	State   string
	Country string
}

// ParseLocation splits "city, state, country" style strings on commas.
// The last segment is the country only when three or more segments are
// present; otherwise the country falls back to HomeCountry. An empty
// input yields an empty Location.
func (c *Classifier) ParseLocation(location string) Location {
	if strings.TrimSpace(location) == "" {
		return Location{}
	}
	parts := strings.Split(location, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	loc := Location{City: parts[0], Country: c.HomeCountry}
	switch {
	case len(parts) >= 3:
		loc.State = parts[1]
		loc.Country = parts[len(parts)-1]
	case len(parts) == 2:
		loc.State = parts[1]
	}
	return loc
}
