package coredata

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// BatchContext is the required context block on every ingest payload.
type BatchContext struct {
	DataEntryType string `json:"dataEntryType"`
	ShiftLead     string `json:"shiftLead"`
	BatchNote     string `json:"batchNote"`
}

// Payload is a submitted ingest request: context, per-(state,date) rows, and
// optional state-metadata edits. Rows are kept as raw maps until validation
// has passed so unknown and malformed fields can be reported per name.
type Payload struct {
	Context  *BatchContext    `json:"context"`
	CoreData []map[string]any `json:"coreData"`
	States   []map[string]any `json:"states"`
}

// StateEdit is one state's metadata change set, keyed by database column.
type StateEdit struct {
	Code    string
	Updates map[string]any
}

// dataEntryTypeEdit tags a payload whose batch corrects already-published
// numbers and must publish as part of the same request.
const dataEntryTypeEdit = "edit"

// buildRow converts a validated raw row into a CoreData record. Callers must
// run ValidateRows first; errors here mean a malformed date or timestamp.
func buildRow(raw map[string]any) (CoreData, error) {
	row := CoreData{}

	state, _ := raw["state"].(string)
	row.State = strings.ToUpper(strings.TrimSpace(state))

	date, err := normalizeDate(raw["date"])
	if err != nil {
		return CoreData{}, fmt.Errorf("state %s: %w", row.State, err)
	}
	row.Date = date

	if v, ok := raw["dataQualityGrade"].(string); ok {
		row.DataQualityGrade = v
	}
	if v, ok := raw["sourceNotes"].(string); ok {
		row.SourceNotes = v
	}

	if !isNullValue(raw["lastUpdateIsoUtc"]) {
		t, err := parseISOInstant(raw["lastUpdateIsoUtc"])
		if err != nil {
			return CoreData{}, fmt.Errorf("state %s: lastUpdateIsoUtc: %w", row.State, err)
		}
		row.LastUpdateTime = &t
	} else if !isNullValue(raw["lastUpdateEt"]) {
		t, err := parseEasternInstant(raw["lastUpdateEt"])
		if err != nil {
			return CoreData{}, fmt.Errorf("state %s: lastUpdateEt: %w", row.State, err)
		}
		row.LastUpdateTime = &t
	}

	if !isNullValue(raw["dateChecked"]) {
		t, err := parseISOInstant(raw["dateChecked"])
		if err != nil {
			return CoreData{}, fmt.Errorf("state %s: dateChecked: %w", row.State, err)
		}
		row.DateChecked = &t
	}

	for _, name := range numericFields {
		v, present := raw[name]
		if !present || isNullValue(v) {
			continue
		}
		n, err := parseNumericValue(v)
		if err != nil {
			return CoreData{}, fmt.Errorf("state %s: field %s: %w", row.State, name, err)
		}
		row.setNumericField(name, &n)
	}

	return row, nil
}

// buildRows converts a whole payload's rows.
func buildRows(raws []map[string]any) ([]CoreData, error) {
	rows := make([]CoreData, 0, len(raws))
	for _, raw := range raws {
		row, err := buildRow(raw)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stateEditColumns maps submitted state-metadata field names to columns.
var stateEditColumns = map[string]string{
	"name":                 "name",
	"covid19Site":          "covid19_site",
	"covid19SiteSecondary": "covid19_site_secondary",
	"covid19SiteTertiary":  "covid19_site_tertiary",
	"twitter":              "twitter",
	"notes":                "notes",
	"pum":                  "pum",
}

// parseStateEdit converts one submitted state-metadata object into an edit.
// An invalid totalTestResultsSource fails here, at assignment, so a bad
// enum value never reaches the registry.
func parseStateEdit(raw map[string]any) (StateEdit, error) {
	code, _ := raw["state"].(string)
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return StateEdit{}, fmt.Errorf("state edit: %w", ErrStateNotFound)
	}

	edit := StateEdit{Code: code, Updates: map[string]any{}}
	for name, value := range raw {
		if name == "state" {
			continue
		}
		if name == "totalTestResultsSource" {
			if isNullValue(value) {
				continue
			}
			s, ok := value.(string)
			if !ok {
				return StateEdit{}, fmt.Errorf("state %s: %w: %v", code, ErrInvalidTotalTestResultsSource, value)
			}
			source, err := ParseTotalTestResultsSource(s)
			if err != nil {
				return StateEdit{}, fmt.Errorf("state %s: %w", code, err)
			}
			edit.Updates["total_test_results_source"] = string(source)
			continue
		}
		column, ok := stateEditColumns[name]
		if !ok {
			log.Printf("coredata: ignoring unknown state metadata field %q for %s", name, code)
			continue
		}
		edit.Updates[column] = value
	}
	return edit, nil
}

func parseStateEdits(raws []map[string]any) ([]StateEdit, error) {
	edits := make([]StateEdit, 0, len(raws))
	for _, raw := range raws {
		edit, err := parseStateEdit(raw)
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

// normalizeDate accepts 20200524 or 2020-05-24 (string or number) and
// returns the canonical YYYY-MM-DD form.
func normalizeDate(v any) (string, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = strings.TrimSpace(x)
	case float64:
		s = fmt.Sprintf("%.0f", x)
	default:
		return "", fmt.Errorf("invalid date value %v", v)
	}

	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("invalid date value %q", s)
}

func parseISOInstant(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid timestamp %v", v)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// parseEasternInstant parses a pre-formatted Eastern-time display string,
// the alternate form some entry tooling still submits.
func parseEasternInstant(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid timestamp %v", v)
	}
	t, err := time.ParseInLocation(etDisplayLayout, strings.TrimSpace(s), easternTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid eastern timestamp %q", s)
	}
	return t.UTC(), nil
}
