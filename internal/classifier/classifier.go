// Package classifier turns a conversation into a typed IntentRecord via a
// single schema-constrained language-model call. Model output is never
// trusted: parsing failures fail closed and the record always passes through
// the validator before the extractor may use it.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/babyccino/pipeline-orchestrator/internal/llm"
	"github.com/babyccino/pipeline-orchestrator/internal/models"
	"github.com/babyccino/pipeline-orchestrator/internal/vocab"
)

// ErrClassification marks any failure to obtain a usable intent record from
// the model: call failure, empty text, malformed JSON, or bad enum values.
// Callers recover locally (generic prompt, keyword-fallback extraction); this
// error is never surfaced to the user as-is.
var ErrClassification = errors.New("classification failed")

const systemPrompt = `You are an intent classifier for a function-building assistant.
Read the conversation and answer with ONE JSON object, nothing else:
{
  "function_name": "snake_case name for the function",
  "function_type": "well_known" | "custom" | "unclear",
  "spec_status": "complete" | "needs_rules" | "needs_details",
  "questions": ["at most two clarifying questions"],
  "purpose": "one sentence describing what the function does"
}
"well_known" means a standard exercise such as palindrome, prime, or fibonacci.
"custom" means behavior the user is defining themselves.
"unclear" means you cannot tell what function is wanted.
A custom function whose output depends on judgment (fun, boring, suspicious...)
is only "complete" when the user has stated explicit conditions.
No markdown, no prose, JSON only.`

// Classifier produces intent records from conversations.
type Classifier struct {
	llm    llm.Client
	logger *zap.Logger
	tracer trace.Tracer
}

// New creates a classifier backed by the given inference client.
func New(client llm.Client, logger *zap.Logger) *Classifier {
	return &Classifier{
		llm:    client,
		logger: logger.Named("classifier"),
		tracer: otel.Tracer("intent-classifier"),
	}
}

// Classify runs one inference call over the conversation and returns the
// parsed, policy-normalized intent record. A conversation without a user turn
// yields a trivial unclear record without calling the model. Any model or
// parse failure returns an error wrapping ErrClassification.
func (c *Classifier) Classify(ctx context.Context, conv models.Conversation) (models.IntentRecord, error) {
	ctx, span := c.tracer.Start(ctx, "classifier.classify")
	defer span.End()

	if !conv.HasUserTurn() {
		return models.IntentRecord{
			FunctionType: models.FunctionUnclear,
			SpecStatus:   models.SpecNeedsRules,
		}, nil
	}

	messages := []llm.Message{{Role: string(models.RoleSystem), Content: systemPrompt}}
	for _, turn := range conv {
		if turn.Role == models.RoleSystem {
			continue
		}
		messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Content})
	}

	raw, err := c.llm.Chat(ctx, messages, llm.Options{Temperature: 0.1, MaxTokens: 500})
	if err != nil {
		span.RecordError(err)
		return models.IntentRecord{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	record, err := ParseIntent(raw)
	if err != nil {
		c.logger.Warn("unparsable classifier output",
			zap.Error(err),
			zap.Int("raw_len", len(raw)),
		)
		span.RecordError(err)
		return models.IntentRecord{}, err
	}

	record = applyStatusPolicy(record, conv)

	span.SetAttributes(
		attribute.String("function_type", string(record.FunctionType)),
		attribute.String("spec_status", string(record.SpecStatus)),
	)

	return record, nil
}

// applyStatusPolicy normalizes spec_status deterministically, in order:
// unclear functions need rules, well-known functions are complete, and custom
// functions depend on whether their behavior is subjective and whether the
// user has already stated explicit conditions.
func applyStatusPolicy(rec models.IntentRecord, conv models.Conversation) models.IntentRecord {
	switch rec.FunctionType {
	case models.FunctionUnclear:
		rec.SpecStatus = models.SpecNeedsRules
		rec.Questions = nil
	case models.FunctionWellKnown:
		rec.SpecStatus = models.SpecComplete
		rec.Questions = nil
	case models.FunctionCustom:
		described := rec.FunctionName + " " + rec.Purpose + " " + conv.LastUserMessage()
		if vocab.IsSubjective(described) {
			if userStatedRules(conv) {
				rec.SpecStatus = models.SpecComplete
				rec.Questions = nil
			} else {
				rec.SpecStatus = models.SpecNeedsRules
			}
		} else if rec.SpecStatus != models.SpecComplete {
			// Deterministic custom functions lack details, not rules.
			rec.SpecStatus = models.SpecNeedsDetails
		}
	}
	return rec
}

func userStatedRules(conv models.Conversation) bool {
	for _, msg := range conv.UserMessages() {
		if vocab.ContainsRuleSignal(msg) {
			return true
		}
	}
	return false
}
