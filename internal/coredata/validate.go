package coredata

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ViolationKind classifies a single field-level validation failure.
type ViolationKind string

const (
	NonNumericField      ViolationKind = "NonNumericField"
	NegativeValueField   ViolationKind = "NegativeValueField"
	MissingRequiredField ViolationKind = "MissingRequiredField"
	UnknownField         ViolationKind = "UnknownField"
)

// Violation is one field-level failure, tagged with the offending state so a
// single report can cover a whole multi-state payload.
type Violation struct {
	Kind  ViolationKind
	State string
	Field string
	Value any

	// Message overrides the generated text for payload-level failures.
	Message string
}

func (v Violation) String() string {
	if v.Message != "" {
		return v.Message
	}
	prefix := ""
	if v.State != "" {
		prefix = v.State + " "
	}
	switch v.Kind {
	case NonNumericField:
		return fmt.Sprintf("%sNon-numeric value for field %q: %v", prefix, v.Field, v.Value)
	case NegativeValueField:
		return fmt.Sprintf("%sNegative value for field %q: %v", prefix, v.Field, v.Value)
	case MissingRequiredField:
		return fmt.Sprintf("%sMissing required field %q", prefix, v.Field)
	case UnknownField:
		return fmt.Sprintf("%sUnknown field %q", prefix, v.Field)
	}
	return fmt.Sprintf("%sinvalid field %q: %v", prefix, v.Field, v.Value)
}

// ValidationError aggregates every violation found across a submitted
// payload. It always blocks persistence entirely.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}

// ValidateRows checks every row of a submitted payload against the static
// field schema and returns all violations at once, or nil if the payload is
// clean. It is pure: nothing is read from or written to storage.
func ValidateRows(rows []map[string]any) *ValidationError {
	var violations []Violation

	for _, row := range rows {
		state, _ := row["state"].(string)
		if isNullValue(row["state"]) || state == "" {
			violations = append(violations, Violation{
				Kind:  MissingRequiredField,
				Field: "state",
			})
		}
		if isNullValue(row["date"]) {
			violations = append(violations, Violation{
				Kind:  MissingRequiredField,
				State: state,
				Field: "date",
			})
		}
		if isNullValue(row["lastUpdateIsoUtc"]) && isNullValue(row["lastUpdateEt"]) {
			violations = append(violations, Violation{
				Kind:  MissingRequiredField,
				State: state,
				Field: "lastUpdateIsoUtc or lastUpdateEt",
			})
		}

		names := make([]string, 0, len(row))
		for name := range row {
			names = append(names, name)
		}
		sort.Strings(names)

		_, unknown := ValidFieldsChecker(names)
		for _, name := range unknown {
			violations = append(violations, Violation{
				Kind:  UnknownField,
				State: state,
				Field: name,
			})
		}

		for _, name := range names {
			if _, numeric := numericFieldSet[name]; !numeric {
				continue
			}
			raw := row[name]
			if isNullValue(raw) {
				continue
			}
			n, err := parseNumericValue(raw)
			if err != nil {
				violations = append(violations, Violation{
					Kind:  NonNumericField,
					State: state,
					Field: name,
					Value: raw,
				})
				continue
			}
			if n < 0 {
				violations = append(violations, Violation{
					Kind:  NegativeValueField,
					State: state,
					Field: name,
					Value: raw,
				})
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// isNullValue reports whether a raw submitted value counts as absent.
// Empty strings come in from sheet-shaped payloads and mean "not reported".
func isNullValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// parseNumericValue accepts JSON numbers and numeric strings. Fractional
// values are rejected: every schema field is a count.
func parseNumericValue(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("non-integer value %v", x)
		}
		return int64(x), nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q", x)
		}
		return n, nil
	}
	return 0, fmt.Errorf("non-numeric value of type %T", v)
}
