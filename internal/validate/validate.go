// Package validate checks canonical records against the production
// timeseries schema: required fields, value types, the state enum and
// numeric bounds, plus an optional semantic level that flags physically
// implausible readings.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/speedwagon-io/odse/internal/model"
)

// Level selects how deep a validation pass goes.
type Level string

const (
	// LevelSchema checks structure only: required fields, types, enum
	// membership and numeric bounds.
	LevelSchema Level = "schema"
	// LevelSemantic runs the schema checks and, when they pass, adds
	// plausibility warnings against the asset's rated capacity and state.
	LevelSemantic Level = "semantic"
)

// Issue codes. Schema issues are errors; semantic issues are warnings.
const (
	CodeRequiredFieldMissing    = "REQUIRED_FIELD_MISSING"
	CodeTypeMismatch            = "TYPE_MISMATCH"
	CodeEnumMismatch            = "ENUM_MISMATCH"
	CodeOutOfBounds             = "OUT_OF_BOUNDS"
	CodeExceedsPhysicalMaximum  = "EXCEEDS_PHYSICAL_MAXIMUM"
	CodeStateProductionMismatch = "STATE_PRODUCTION_MISMATCH"
)

// Issue is one validation finding, addressed by a JSONPath-style path.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result is the outcome of validating one record.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
	Level    Level   `json:"level"`
}

// Options configures a validation pass.
type Options struct {
	// Level defaults to LevelSchema when empty.
	Level Level
	// CapacityKW is the asset's rated capacity in kW. Zero means unknown
	// and skips the physical-maximum bound.
	CapacityKW float64
}

var requiredFields = []string{"timestamp", "kWh", "error_type"}

// Object validates one canonical record given as a decoded JSON object.
func Object(obj map[string]any, opts Options) Result {
	level := opts.Level
	if level == "" {
		level = LevelSchema
	}

	res := Result{Level: level}
	res.Errors = schemaIssues(obj)

	if level == LevelSemantic && len(res.Errors) == 0 {
		res.Warnings = semanticIssues(obj, opts)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// Record validates a typed record through its serialized form, so the
// checks see exactly what a downstream consumer would receive.
func Record(rec model.Record, opts Options) Result {
	return Object(recordObject(rec), opts)
}

// Records validates a batch in order.
func Records(recs []model.Record, opts Options) []Result {
	results := make([]Result, len(recs))
	for i := range recs {
		results[i] = Record(recs[i], opts)
	}
	return results
}

// AllValid reports whether every result in a batch passed.
func AllValid(results []Result) bool {
	for i := range results {
		if !results[i].Valid {
			return false
		}
	}
	return true
}

func schemaIssues(obj map[string]any) []Issue {
	var errs []Issue

	for _, field := range requiredFields {
		if _, ok := obj[field]; !ok {
			errs = append(errs, Issue{
				Path:    "$." + field,
				Message: fmt.Sprintf("required field %q is missing", field),
				Code:    CodeRequiredFieldMissing,
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	kwh, kwhOK := numberValue(obj["kWh"])
	if !kwhOK {
		errs = append(errs, Issue{
			Path:    "$.kWh",
			Message: fmt.Sprintf("expected number, got %T", obj["kWh"]),
			Code:    CodeTypeMismatch,
		})
	}

	if s, ok := obj["error_type"].(string); !ok || !model.ValidErrorType(s) {
		errs = append(errs, Issue{
			Path:    "$.error_type",
			Message: fmt.Sprintf("value %v not in enum [%s]", obj["error_type"], strings.Join(errorTypeNames(), ", ")),
			Code:    CodeEnumMismatch,
		})
	}

	if kwhOK && kwh < 0 {
		errs = append(errs, Issue{
			Path:    "$.kWh",
			Message: "kWh must be >= 0",
			Code:    CodeOutOfBounds,
		})
	}

	if raw, ok := obj["PF"]; ok {
		if pf, ok := numberValue(raw); ok && (pf < 0 || pf > 1) {
			errs = append(errs, Issue{
				Path:    "$.PF",
				Message: "power factor must be between 0 and 1",
				Code:    CodeOutOfBounds,
			})
		}
	}

	return errs
}

func semanticIssues(obj map[string]any, opts Options) []Issue {
	var warns []Issue

	kwh, kwhOK := numberValue(obj["kWh"])

	// The capacity bound assumes a one hour reporting interval.
	if opts.CapacityKW > 0 && kwhOK {
		maxKWh := opts.CapacityKW * 1.1
		if kwh > maxKWh {
			warns = append(warns, Issue{
				Path:    "$.kWh",
				Message: fmt.Sprintf("kWh (%v) exceeds maximum possible (%v) for %vkW capacity", kwh, maxKWh, opts.CapacityKW),
				Code:    CodeExceedsPhysicalMaximum,
			})
		}
	}

	if s, _ := obj["error_type"].(string); s == string(model.ErrorOffline) && kwhOK && kwh > 10 {
		warns = append(warns, Issue{
			Path:    "$",
			Message: fmt.Sprintf("significant production (%v kWh) reported with error_type %q", kwh, s),
			Code:    CodeStateProductionMismatch,
		})
	}

	return warns
}

// numberValue accepts only JSON-number shapes. Unlike the engine's value
// coercion, numeric strings do not count as numbers here.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func errorTypeNames() []string {
	types := model.ErrorTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

func recordObject(rec model.Record) map[string]any {
	raw, _ := json.Marshal(rec)
	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return obj
}
