package classify

import (
	"strings"
	"testing"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

func TestExtractSkills(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string // comma-joined, vocabulary order
	}{
		{
			name:        "single whole word match",
			description: "Java developer needed",
			want:        "java",
		},
		{
			name:        "javascript does not count as java",
			description: "Strong JavaScript skills required",
			want:        "javascript",
		},
		{
			name:        "java and javascript tagged once each",
			description: "JavaScript and Java required",
			want:        "java,javascript",
		},
		{
			name:        "git does not match inside github",
			description: "We host everything on GitHub",
			want:        "",
		},
		{
			name:        "punctuated and multi-word tags",
			description: "We use React, Node.js, Power BI and CI/CD every day",
			want:        "react,node.js,power bi,ci/cd",
		},
		{
			name:        "output follows vocabulary order not text order",
			description: "kafka before docker before sql before python",
			want:        "python,sql,docker,kafka",
		},
		{
			name:        "case insensitive",
			description: "PYTHON and Sql and AWS",
			want:        "python,sql,aws",
		},
		{
			name:        "empty description",
			description: "",
			want:        "",
		},
		{
			name:        "no vocabulary hits",
			description: "Looking for a friendly barista",
			want:        "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(ExtractSkills(tt.description), ",")
			if got != tt.want {
				t.Errorf("ExtractSkills(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestClassifySeniority(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        string
	}{
		{
			name:  "senior keyword in title",
			title: "Senior Data Engineer",
			want:  "Senior",
		},
		{
			name:  "architect counts as senior",
			title: "Solutions Architect",
			want:  "Senior",
		},
		{
			name:  "junior keyword in title",
			title: "Junior Developer",
			want:  "Junior",
		},
		{
			name:        "title keyword outranks years in description",
			title:       "Junior Java Developer",
			description: "requires 10 years of experience",
			want:        "Junior",
		},
		{
			name:        "five or more years is senior",
			title:       "Data Engineer",
			description: "You bring 5+ years of experience with pipelines",
			want:        "Senior",
		},
		{
			name:        "year count too large for int is senior",
			title:       "Data Engineer",
			description: "20000000000000000000 years of experience",
			want:        "Senior",
		},
		{
			name:        "two years or fewer is junior",
			title:       "Data Analyst",
			description: "ideally 2 years experience in analytics",
			want:        "Junior",
		},
		{
			name:        "three years lands in mid",
			title:       "Data Analyst",
			description: "3 years of experience preferred",
			want:        "Mid",
		},
		{
			name:        "no signal defaults to mid",
			title:       "Data Engineer",
			description: "Build and run our pipelines",
			want:        "Mid",
		},
		{
			name: "empty inputs default to mid",
			want: "Mid",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySeniority(tt.title, tt.description)
			if got != tt.want {
				t.Errorf("ClassifySeniority(%q, %q) = %q, want %q", tt.title, tt.description, got, tt.want)
			}
		})
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		location    string
		want        bool
	}{
		{
			name:  "remote in title",
			title: "Data Engineer (Remote)",
			want:  true,
		},
		{
			name:        "indicator in description",
			description: "You may work from home two days a week",
			want:        true,
		},
		{
			name:     "french indicator in location",
			location: "Paris (télétravail partiel)",
			want:     true,
		},
		{
			name:        "no indicator anywhere",
			title:       "Data Engineer",
			description: "On-site role in our Lyon office",
			location:    "Lyon",
			want:        false,
		},
		{
			name: "empty inputs",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsRemote(tt.title, tt.description, tt.location)
			if got != tt.want {
				t.Errorf("IsRemote(%q, %q, %q) = %v, want %v", tt.title, tt.description, tt.location, got, tt.want)
			}
		})
	}
}

func TestParseLocation(t *testing.T) {
	c := New("FR")
	tests := []struct {
		name     string
		location string
		want     Location
	}{
		{
			name:     "three segments",
			location: "Paris, Île-de-France, France",
			want:     Location{City: "Paris", State: "Île-de-France", Country: "France"},
		},
		{
			name:     "two segments fall back to home country",
			location: "Lyon, Auvergne-Rhône-Alpes",
			want:     Location{City: "Lyon", State: "Auvergne-Rhône-Alpes", Country: "FR"},
		},
		{
			name:     "single segment",
			location: "Marseille",
			want:     Location{City: "Marseille", Country: "FR"},
		},
		{
			name:     "extra segments keep the last as country",
			location: "Brooklyn, New York, NY, US",
			want:     Location{City: "Brooklyn", State: "New York", Country: "US"},
		},
		{
			name:     "whitespace trimmed",
			location: "  Toulouse ,  Occitanie  ",
			want:     Location{City: "Toulouse", State: "Occitanie", Country: "FR"},
		},
		{
			name:     "empty input",
			location: "",
			want:     Location{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ParseLocation(tt.location)
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.location, got, tt.want)
			}
		})
	}
}

func TestEnrich(t *testing.T) {
	c := New("FR")

	got := c.Enrich(
		"Senior Data Engineer",
		"We need Python, SQL and Airflow. Remote friendly.",
		"Paris, Île-de-France, France",
	)
	want := model.Enrichment{
		Skills:    "python,sql,airflow",
		Seniority: "Senior",
		IsRemote:  true,
		City:      "Paris",
		State:     "Île-de-France",
		Country:   "France",
	}
	if got != want {
		t.Errorf("Enrich() = %+v, want %+v", got, want)
	}
}

func TestEnrichEmptyInputs(t *testing.T) {
	c := New("FR")

	got := c.Enrich("", "", "")
	want := model.Enrichment{Seniority: "Mid"}
	if got != want {
		t.Errorf("Enrich() on empty inputs = %+v, want %+v", got, want)
	}
}
