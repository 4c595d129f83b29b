package extractor

import (
	"regexp"
	"strings"

	"github.com/babyccino/pipeline-orchestrator/internal/models"
	"github.com/babyccino/pipeline-orchestrator/internal/vocab"
)

// nameOverrideRe matches an explicit naming statement such as "call it
// check_name", "name it fun checker", or "the function will be called rate".
// The capture is restricted to at most three identifier-ish words; a looser
// matcher grabs non-name words mid-sentence ("call it good").
var nameOverrideRe = regexp.MustCompile(
	`(?i)\b(?:call it|name it|(?:function\s+)?(?:will|should)\s+be\s+called|named)\s+` +
		"[\"'`]?([a-zA-Z_][a-zA-Z0-9_]*(?:[ _][a-zA-Z0-9_]+){0,2})[\"'`]?",
)

// explicitName returns the most recent explicit function name the user
// stated, normalized to snake_case. Captures consisting of subjective
// vocabulary ("call it good") are rejected as false positives.
func explicitName(conv models.Conversation) (string, bool) {
	msgs := conv.UserMessages()
	for i := len(msgs) - 1; i >= 0; i-- {
		m := nameOverrideRe.FindStringSubmatch(msgs[i])
		if m == nil {
			continue
		}
		candidate := m[1]
		if subjectiveOnly(candidate) {
			continue
		}
		return snakeCase(candidate), true
	}
	return "", false
}

func subjectiveOnly(candidate string) bool {
	words := strings.Fields(strings.ToLower(strings.ReplaceAll(candidate, "_", " ")))
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if !vocab.IsSubjective(w) {
			return false
		}
	}
	return true
}

// snakeCase lowercases and joins word boundaries with underscores, dropping
// any character that is not a letter, digit, or underscore.
func snakeCase(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == ' ' || r == '-' || r == '_':
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
