package backend

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	nullableNumber = map[string]any{"type": []string{"number", "null"}, "minimum": 0}
	nullableScore  = map[string]any{"type": []string{"number", "null"}, "minimum": 0, "maximum": 1}
	nullableTime   = map[string]any{"type": []string{"string", "null"}, "format": "date-time"}

	historyEntrySchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timestamp":       nullableTime,
			"objective":       map[string]any{"type": []string{"string", "null"}},
			"result":          map[string]any{"type": "boolean"},
			"failureCategory": map[string]any{"type": []string{"string", "null"}},
			"latencySeconds":  nullableNumber,
		},
	}

	benchmarkSchema = map[string]any{
		"type":     "object",
		"required": []string{"id", "name", "status"},
		"properties": map[string]any{
			"id":                   map[string]any{"type": "string", "minLength": 1},
			"name":                 map[string]any{"type": "string"},
			"iterations":           map[string]any{"type": "integer", "minimum": 0},
			"successRate":          map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"status":               map[string]any{"enum": []string{"pending", "running", "success", "failed"}},
			"updatedAt":            nullableTime,
			"latencySeconds":       nullableNumber,
			"tokensUsed":           nullableNumber,
			"costUsd":              nullableNumber,
			"confidenceReported":   nullableScore,
			"confidenceCalibrated": nullableScore,
			"errorFlags":           map[string]any{"type": []string{"array", "null"}, "items": map[string]any{"type": "string"}},
			"history":              map[string]any{"type": []string{"array", "null"}, "items": historyEntrySchema},
		},
	}

	runSchema = map[string]any{
		"type":     "object",
		"required": []string{"id", "suite"},
		"properties": map[string]any{
			"id":             map[string]any{"type": "string"},
			"suite":          map[string]any{"type": "string"},
			"suiteLabel":     map[string]any{"type": []string{"string", "null"}},
			"requestedAt":    nullableTime,
			"generatedAt":    nullableTime,
			"benchmarkCount": map[string]any{"type": "integer", "minimum": 0},
			"success":        map[string]any{"type": "integer", "minimum": 0},
			"failed":         map[string]any{"type": "integer", "minimum": 0},
			"threshold":      map[string]any{"type": "number"},
			"status":         map[string]any{"enum": []string{"success", "needs_attention"}},
			"message":        map[string]any{"type": []string{"string", "null"}},
		},
	}
)

var (
	schemaBenchmarks = mustSchema(map[string]any{"type": "array", "items": benchmarkSchema})
	schemaRuns       = mustSchema(map[string]any{"type": "array", "items": runSchema})
	schemaSuiteRun   = mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"benchmarks":      map[string]any{"type": []string{"array", "null"}, "items": benchmarkSchema},
			"liveRuns":        map[string]any{"type": []string{"array", "null"}},
			"failureInsights": map[string]any{"type": []string{"array", "null"}},
			"recommendations": map[string]any{"type": []string{"array", "null"}},
			"generatedAt":     nullableTime,
			"message":         map[string]any{"type": []string{"string", "null"}},
		},
	})
)

func mustSchema(doc map[string]any) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("invalid payload schema: %v", err))
	}
	return s
}

// ValidationError is returned when a backend payload does not match the
// expected shape.
type ValidationError struct {
	Payload string
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s payload: %s", e.Payload, strings.Join(e.Details, "; "))
}

func validate(schema *gojsonschema.Schema, payload string, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationError{Payload: payload, Details: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return &ValidationError{Payload: payload, Details: details}
}
