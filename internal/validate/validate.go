// Package validate is the hard schema gate between the OCR response and the
// rest of the pipeline. Nothing reaches normalization or the store unless it
// passes; no partial record is ever synthesized from an invalid payload.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/rvasanth/cardpipe/internal/model"
)

// topLevelStringKeys must be present as non-empty strings in every response.
var topLevelStringKeys = []string{"action", "status", "type", "task_id", "request_id"}

// timestampKeys must be present; the service emits them as epoch numbers.
var timestampKeys = []string{"created_at", "completed_at"}

// Validate checks the parsed OCR response against the required shape and
// returns the typed extraction record. Every violation found is reported in
// one error so log lines name the full set of problems.
func Validate(doc map[string]interface{}) (model.ExtractionRecord, error) {
	var rec model.ExtractionRecord
	var violations []string

	for _, key := range topLevelStringKeys {
		if _, err := stringField(doc, key); err != nil {
			violations = append(violations, err.Error())
		}
	}
	for _, key := range timestampKeys {
		if _, ok := doc[key]; !ok {
			violations = append(violations, fmt.Sprintf("missing %s", key))
		}
	}

	output, err := extractionOutput(doc)
	if err != nil {
		violations = append(violations, err.Error())
	} else {
		rec, violations = decodeRecord(output, violations)
	}

	if len(violations) > 0 {
		return model.ExtractionRecord{}, fmt.Errorf("schema: %s", strings.Join(violations, "; "))
	}
	return rec, nil
}

func extractionOutput(doc map[string]interface{}) (map[string]interface{}, error) {
	result, ok := doc["result"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing result object")
	}
	output, ok := result["extraction_output"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing result.extraction_output object")
	}
	return output, nil
}

func decodeRecord(output map[string]interface{}, violations []string) (model.ExtractionRecord, []string) {
	var rec model.ExtractionRecord
	var err error

	if rec.Age, err = intField(output, "age"); err != nil {
		violations = append(violations, err.Error())
	}
	if rec.DateOfBirth, err = stringField(output, "date_of_birth"); err != nil {
		violations = append(violations, err.Error())
	}
	// date_of_issue may legitimately be empty, it only has to exist as a
	// string. The normalizer replaces the empty value with the sentinel.
	if v, ok := output["date_of_issue"]; !ok {
		violations = append(violations, "missing date_of_issue")
	} else if s, ok := v.(string); !ok {
		violations = append(violations, "date_of_issue is not a string")
	} else {
		rec.DateOfIssue = s
	}
	if rec.FathersName, err = stringField(output, "fathers_name"); err != nil {
		violations = append(violations, err.Error())
	}
	if rec.IDNumber, err = stringField(output, "id_number"); err != nil {
		violations = append(violations, err.Error())
	}
	if rec.IsScanned, err = boolField(output, "is_scanned"); err != nil {
		violations = append(violations, err.Error())
	}
	if rec.Minor, err = boolField(output, "minor"); err != nil {
		violations = append(violations, err.Error())
	}
	if rec.NameOnCard, err = stringField(output, "name_on_card"); err != nil {
		violations = append(violations, err.Error())
	}
	if rec.PANType, err = stringField(output, "pan_type"); err != nil {
		violations = append(violations, err.Error())
	}
	return rec, violations
}

func stringField(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s is not a string", key)
	}
	if s == "" {
		return "", fmt.Errorf("%s is empty", key)
	}
	return s, nil
}

func intField(m map[string]interface{}, key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	// encoding/json decodes every number into float64; a fractional part
	// means the field was not an integer on the wire.
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s is not an integer", key)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not an integer", key)
	}
	return int(f), nil
}

func boolField(m map[string]interface{}, key string) (bool, error) {
	v, ok := m[key]
	if !ok {
		return false, fmt.Errorf("missing %s", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s is not a boolean", key)
	}
	return b, nil
}
