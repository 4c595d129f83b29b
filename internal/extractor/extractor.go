// Package extractor converts a validated intent and conversation into a
// complete FunctionRequirements. When no usable intent record exists it
// degrades to pure keyword pattern-matching so the pipeline always produces
// some valid specification rather than failing outright.
package extractor

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
	"github.com/babyccino/pipeline-orchestrator/internal/vocab"
)

// ErrNoIntent means neither the classifier nor the keyword fallback could
// identify a function. Surfaced as a generic prompt, not a hard failure.
var ErrNoIntent = errors.New("no function intent found")

// Extractor builds specifications from conversations. Extraction is pure:
// the same (record, conversation) pair always yields identical requirements.
type Extractor struct {
	logger *zap.Logger
}

// New creates an extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger.Named("extractor")}
}

// Extract produces requirements from a validated intent record and the
// conversation. A nil or non-complete record takes the keyword fallback path.
func (e *Extractor) Extract(rec *models.IntentRecord, conv models.Conversation) (models.FunctionRequirements, error) {
	if rec == nil || rec.SpecStatus != models.SpecComplete || rec.FunctionType == models.FunctionUnclear {
		return e.fallback(conv)
	}

	if rec.FunctionType == models.FunctionWellKnown {
		if spec, ok := vocab.LookupWellKnown(rec.FunctionName); ok {
			return requirementsFromTable(spec), nil
		}
		// Classifier said well-known but the name missed the table; try the
		// raw messages before giving up on the curated path.
		for _, msg := range conv.UserMessages() {
			if spec, ok := vocab.LookupWellKnown(msg); ok {
				return requirementsFromTable(spec), nil
			}
		}
		e.logger.Warn("well-known intent missed curated table, extracting as custom",
			zap.String("function_name", rec.FunctionName),
		)
	}

	return e.extractCustom(rec, conv), nil
}

// extractCustom mines a custom function's specification from the intent
// record and the transcript.
func (e *Extractor) extractCustom(rec *models.IntentRecord, conv models.Conversation) models.FunctionRequirements {
	transcript := conv.Transcript()

	name := rec.FunctionName
	if override, ok := explicitName(conv); ok {
		name = override
	}
	name = snakeCase(name)
	if name == "" {
		name = "generated_function"
	}

	purpose := rec.Purpose
	if purpose == "" {
		purpose = conv.LastUserMessage()
	}

	return models.FunctionRequirements{
		Name:                   name,
		Purpose:                purpose,
		Parameters:             []models.FunctionParameter{inferParameter(name, transcript)},
		ReturnType:             vocab.InferReturnType(transcript),
		EdgeCases:              harvestRules(conv),
		Examples:               []models.FunctionExample{},
		ConversationTranscript: transcript,
	}
}

// fallback scans user messages in reverse recency order for well-known
// keywords, stopping at the first match.
func (e *Extractor) fallback(conv models.Conversation) (models.FunctionRequirements, error) {
	msgs := conv.UserMessages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if spec, ok := vocab.LookupWellKnown(msgs[i]); ok {
			e.logger.Info("fallback extraction matched keyword",
				zap.String("function_name", spec.Name),
			)
			return requirementsFromTable(spec), nil
		}
	}
	return models.FunctionRequirements{}, ErrNoIntent
}

// harvestRules splits every user message into clauses and retains each clause
// bearing a rule-signal token, verbatim. Lossy only for non-rule prose.
func harvestRules(conv models.Conversation) []string {
	var rules []string
	for _, msg := range conv.UserMessages() {
		for _, clause := range splitClauses(msg) {
			if vocab.ContainsRuleSignal(clause) {
				rules = append(rules, clause)
			}
		}
	}
	if rules == nil {
		rules = []string{}
	}
	return rules
}

func splitClauses(s string) []string {
	raw := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '.' || r == '\n'
	})
	var clauses []string
	for _, c := range raw {
		if t := strings.TrimSpace(c); t != "" {
			clauses = append(clauses, t)
		}
	}
	return clauses
}

// inferParameter picks a parameter from keyword cues in the function name and
// transcript, falling back to the default string parameter.
func inferParameter(name, transcript string) models.FunctionParameter {
	text := strings.ToLower(strings.ReplaceAll(name, "_", " ") + " " + transcript)
	for _, cue := range vocab.ParamCues {
		if strings.Contains(text, cue.Keyword) {
			return cue.Param
		}
	}
	return vocab.DefaultParam
}

func requirementsFromTable(spec *vocab.WellKnownSpec) models.FunctionRequirements {
	return models.FunctionRequirements{
		Name:       spec.Name,
		Purpose:    spec.Purpose,
		Parameters: append([]models.FunctionParameter(nil), spec.Parameters...),
		ReturnType: spec.ReturnType,
		EdgeCases:  append([]string(nil), spec.EdgeCases...),
		Examples:   append([]models.FunctionExample(nil), spec.Examples...),
	}
}
