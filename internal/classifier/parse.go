package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
)

// rawIntent mirrors the model's expected JSON shape with untyped enum fields
// so that wrong values are detected instead of silently zeroed.
type rawIntent struct {
	FunctionName string   `json:"function_name"`
	FunctionType string   `json:"function_type"`
	SpecStatus   string   `json:"spec_status"`
	Questions    []string `json:"questions"`
	Purpose      string   `json:"purpose"`
}

// ParseIntent parses raw model text into an IntentRecord. The model may wrap
// the object in code fences or surround it with prose; both are stripped by
// balanced-brace extraction. Empty text, malformed JSON, and invalid enum
// values all return an error wrapping ErrClassification.
func ParseIntent(raw string) (models.IntentRecord, error) {
	var zero models.IntentRecord

	if strings.TrimSpace(raw) == "" {
		return zero, fmt.Errorf("%w: empty model output", ErrClassification)
	}

	jsonText := extractJSON(raw)
	if jsonText == "" {
		return zero, fmt.Errorf("%w: no JSON object in model output", ErrClassification)
	}

	var parsed rawIntent
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	if !models.ValidFunctionType(parsed.FunctionType) {
		return zero, fmt.Errorf("%w: invalid function_type %q", ErrClassification, parsed.FunctionType)
	}
	if !models.ValidSpecStatus(parsed.SpecStatus) {
		return zero, fmt.Errorf("%w: invalid spec_status %q", ErrClassification, parsed.SpecStatus)
	}

	questions := parsed.Questions
	if len(questions) > models.MaxIntentQuestions {
		questions = questions[:models.MaxIntentQuestions]
	}

	return models.IntentRecord{
		FunctionName: strings.TrimSpace(parsed.FunctionName),
		FunctionType: models.FunctionType(parsed.FunctionType),
		SpecStatus:   models.SpecStatus(parsed.SpecStatus),
		Questions:    questions,
		Purpose:      strings.TrimSpace(parsed.Purpose),
	}, nil
}

// extractJSON finds the first balanced JSON object in text, ignoring
// markdown fences and surrounding prose.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
