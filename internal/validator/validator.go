// Package validator audits and corrects classifier verdicts against the
// literal conversation text. Small models mis-score subjective-vs-rules-
// present in both directions; the corrections here are deterministic and run
// without I/O, so the same (record, conversation) pair always validates to
// the same corrected record.
package validator

import (
	"strings"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
	"github.com/babyccino/pipeline-orchestrator/internal/vocab"
)

// Correction describes what Validate changed, for logging and metrics.
// Disagreement with the classifier is not an error; it is this package's
// normal corrective operation.
type Correction string

const (
	CorrectionNone      Correction = ""
	CorrectionDowngrade Correction = "downgrade"
	CorrectionUpgrade   Correction = "upgrade"
	CorrectionWellKnown Correction = "well_known_complete"
)

// Validate returns the corrected record and the applied correction.
//
// Rules, in order:
//   - well_known records always validate to complete (never downgraded);
//   - unclear records pass through unchanged;
//   - needs_details records pass through unchanged (detail gaps are assumed
//     accurately detected);
//   - a complete custom record for a subjective function with no rule-signal
//     token in any user message is downgraded to needs_rules with synthesized
//     questions;
//   - a needs_rules record is upgraded to complete when any user message,
//     not just the latest, carries a rule-signal token.
func Validate(rec models.IntentRecord, conv models.Conversation) (models.IntentRecord, Correction) {
	switch rec.FunctionType {
	case models.FunctionWellKnown:
		if rec.SpecStatus != models.SpecComplete || len(rec.Questions) > 0 {
			rec.SpecStatus = models.SpecComplete
			rec.Questions = nil
			return rec, CorrectionWellKnown
		}
		return rec, CorrectionNone
	case models.FunctionUnclear:
		return rec, CorrectionNone
	}

	if rec.SpecStatus == models.SpecNeedsDetails {
		return rec, CorrectionNone
	}

	rulesStated := anyUserRuleSignal(conv)

	if rec.SpecStatus == models.SpecComplete {
		keywords := subjectiveKeywords(rec, conv)
		if len(keywords) > 0 && !rulesStated {
			rec.SpecStatus = models.SpecNeedsRules
			rec.Questions = vocab.QuestionsFor(keywords, models.MaxIntentQuestions)
			return rec, CorrectionDowngrade
		}
		return rec, CorrectionNone
	}

	if rec.SpecStatus == models.SpecNeedsRules && rulesStated {
		// Rules given up front in the first message must be honored.
		rec.SpecStatus = models.SpecComplete
		rec.Questions = nil
		return rec, CorrectionUpgrade
	}

	return rec, CorrectionNone
}

// subjectiveKeywords judges the function subjective by keyword match against
// its name, purpose, and the latest user message.
func subjectiveKeywords(rec models.IntentRecord, conv models.Conversation) []string {
	text := strings.Join([]string{
		strings.ReplaceAll(rec.FunctionName, "_", " "),
		rec.Purpose,
		conv.LastUserMessage(),
	}, " ")
	return vocab.SubjectiveMatches(text)
}

func anyUserRuleSignal(conv models.Conversation) bool {
	for _, msg := range conv.UserMessages() {
		if vocab.ContainsRuleSignal(msg) {
			return true
		}
	}
	return false
}
