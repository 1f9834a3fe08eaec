package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"candidate-matching-workers/internal/models"
)

// ParsedResumeSchema describes the resumes.parsed_data blob. Only the fields
// the matching engine reads are typed; unknown fields are allowed.
const ParsedResumeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["candidateName", "skills"],
  "properties": {
    "candidateName":  {"type": "string"},
    "candidateEmail": {"type": "string"},
    "phone":          {"type": "string"},
    "location":       {"type": "string"},
    "summary":        {"type": "string"},
    "skills":         {"type": ["array", "null"], "items": {"type": "string"}},
    "certifications": {"type": ["array", "null"], "items": {"type": "string"}},
    "languages":      {"type": ["array", "null"], "items": {"type": "string"}},
    "experience": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "title":        {"type": "string"},
          "company":      {"type": "string"},
          "duration":     {"type": "string"},
          "description":  {"type": "string"},
          "technologies": {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    },
    "education": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "degree":     {"type": "string"},
          "university": {"type": "string"},
          "year":       {"type": "string"},
          "gpa":        {"type": "string"}
        }
      }
    }
  }
}`

var parsedResumeSchema = gojsonschema.NewStringLoader(ParsedResumeSchema)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed, in the validator's order.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (ve *ValidationError) Error() string {
	parts := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DecodeParsedResume validates blob against ParsedResumeSchema and decodes it.
func DecodeParsedResume(blob string) (*models.ParsedResume, error) {
	result, err := gojsonschema.Validate(parsedResumeSchema, gojsonschema.NewStringLoader(blob))
	if err != nil {
		return nil, fmt.Errorf("parsed data is not valid JSON: %w", err)
	}

	if !result.Valid() {
		ve := &ValidationError{}
		for _, desc := range result.Errors() {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   desc.Field(),
				Message: desc.Description(),
			})
		}
		return nil, ve
	}

	var resume models.ParsedResume
	if err := json.Unmarshal([]byte(blob), &resume); err != nil {
		return nil, fmt.Errorf("decode parsed data: %w", err)
	}
	return &resume, nil
}
