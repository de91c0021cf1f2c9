package normalize

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

// Normalizer flattens schemaless source records onto the raw_jobs schema.
// Coercions are total: a malformed field never fails a record, it falls
// back to the column default. Only a record with no usable id is dropped.
type Normalizer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Accepted layouts for created/extracted_at values, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize maps a batch of source records to JobRecords, dropping records
// without an id. The original payload is re-serialized into RawPayload so
// the row stays auditable after flattening.
func (n *Normalizer) Normalize(records []model.SourceRecord) []model.JobRecord {
	out := make([]model.JobRecord, 0, len(records))
	skipped := 0
	for _, rec := range records {
		jr, ok := n.normalizeOne(rec)
		if !ok {
			skipped++
			continue
		}
		out = append(out, jr)
	}
	if skipped > 0 {
		n.logger.Warn("dropped records without id", "count", skipped)
	}
	return out
}

func (n *Normalizer) normalizeOne(rec model.SourceRecord) (model.JobRecord, bool) {
	id := idString(rec["id"])
	if id == "" {
		return model.JobRecord{}, false
	}

	jr := model.JobRecord{
		ID: id,
		// The canonical key wins when both shapes are present; the
		// extractor-stamped flat aliases are fallbacks.
		Title:          withDefault(stringField(rec, "title"), "Unknown"),
		Company:        withDefault(stringField(rec, "company", "company_name"), "Unknown"),
		Location:       withDefault(stringField(rec, "location", "location_display"), "Unknown"),
		Description:    stringField(rec, "description"),
		Category:       stringField(rec, "category", "category_label"),
		ContractType:   stringField(rec, "contract_type"),
		RedirectURL:    stringField(rec, "redirect_url"),
		SearchKeyword:  stringField(rec, "search_keyword"),
		SearchLocation: stringField(rec, "search_location"),
		SalaryMin:      floatField(rec, "salary_min"),
		SalaryMax:      floatField(rec, "salary_max"),
		Created:        timeField(rec, "created"),
		ExtractedAt:    timeField(rec, "extracted_at"),
	}

	if jr.SalaryMin > 0 && jr.SalaryMax > 0 && jr.SalaryMin > jr.SalaryMax {
		jr.SalaryMin, jr.SalaryMax = jr.SalaryMax, jr.SalaryMin
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		payload = []byte("{}")
	}
	jr.RawPayload = string(payload)

	return jr, true
}

func withDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// stringField returns the first non-empty string among the given keys.
// Nested objects contribute their display_name or label, matching the
// shapes Adzuna uses for company, location and category.
func stringField(rec model.SourceRecord, keys ...string) string {
	for _, key := range keys {
		switch v := rec[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			for _, inner := range []string{"display_name", "label"} {
				if s, ok := v[inner].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func floatField(rec model.SourceRecord, key string) float64 {
	var f float64
	switch v := rec[key].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		f, _ = v.Float64()
	case string:
		f, _ = strconv.ParseFloat(v, 64)
	}
	if f < 0 {
		return 0
	}
	return f
}

func timeField(rec model.SourceRecord, key string) *time.Time {
	switch v := rec[key].(type) {
	case time.Time:
		return &v
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return &t
			}
		}
	}
	return nil
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case json.Number:
		return id.String()
	}
	return ""
}
