// Package vocab holds the shared keyword vocabulary used by the intent
// classifier, spec validator, requirements extractor, and complexity router.
// Centralizing the tables keeps the components agreeing on what counts as a
// rule, a subjective word, or a complexity cue, and lets tests enumerate the
// vocabulary exhaustively. All tables are read-only after init and safe to
// share across sessions.
package vocab

import "strings"

// Version is bumped whenever a table changes in a way that affects
// classification outcomes.
const Version = 1

// RuleSignalTokens are literal cues that a user message states an explicit
// condition ("if more than one vowel it's fun"). Matching is case-insensitive
// substring containment. Multi-character operators precede their prefixes so
// first-match scans stay unambiguous.
var RuleSignalTokens = []string{
	"if ",
	"when ",
	"unless ",
	"true if",
	"false if",
	"greater than",
	"less than",
	"more than",
	"fewer than",
	"at least",
	"at most",
	"equal to",
	"equals",
	"starts with",
	"ends with",
	"contains",
	">=",
	"<=",
	"==",
	">",
	"<",
}

// NonRuleContexts are descriptive uses of "if" that do not state a condition
// ("a function that checks if a word is fun"). They are blanked out before
// the token scan.
var NonRuleContexts = []string{
	"check if",
	"checks if",
	"checking if",
	"see if",
	"tell if",
	"tells if",
	"know if",
	"decide if",
	"decides if",
	"determine if",
	"determines if",
}

// ContainsRuleSignal reports whether s carries any rule-signal token.
func ContainsRuleSignal(s string) bool {
	lower := strings.ToLower(s)
	for _, ctx := range NonRuleContexts {
		lower = strings.ReplaceAll(lower, ctx, " ")
	}
	for _, tok := range RuleSignalTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// SubjectiveKeywords signal functions whose output depends on judgment or
// classification rather than deterministic computation. A subjective function
// is not "complete" until the user has stated explicit rules.
var SubjectiveKeywords = []string{
	"fun",
	"boring",
	"suspicious",
	"exciting",
	"interesting",
	"cool",
	"weird",
	"fancy",
	"good",
	"bad",
	"nice",
	"ugly",
	"pretty",
	"catchy",
	"classify",
	"rate",
	"judge",
	"label",
}

// SubjectiveMatches returns the subjective keywords found in s as whole words,
// in table order. Whole-word matching keeps "rate" from firing on "generate".
func SubjectiveMatches(s string) []string {
	words := fieldsLower(s)
	var hits []string
	for _, kw := range SubjectiveKeywords {
		if _, ok := words[kw]; ok {
			hits = append(hits, kw)
		}
	}
	return hits
}

// IsSubjective reports whether s mentions any subjective keyword.
func IsSubjective(s string) bool {
	return len(SubjectiveMatches(s)) > 0
}

// DeterministicKeywords signal find/count/sort style functions whose behavior
// does not require user-stated rules.
var DeterministicKeywords = []string{
	"find",
	"count",
	"sort",
	"filter",
	"convert",
	"reverse",
	"sum",
	"search",
	"merge",
	"split",
	"parse",
}

// ClarifyingQuestions maps a subjective keyword to the questions the validator
// synthesizes when it downgrades a record to needs_rules. At most two are used.
var ClarifyingQuestions = map[string][]string{
	"fun": {
		`What makes something fun? For example: "it's fun if it has more than one vowel".`,
		"Should anything make it boring instead?",
	},
	"boring": {
		`What makes something boring? For example: "it's boring if it's longer than 15 characters".`,
		"And what would make it not boring?",
	},
	"suspicious": {
		`What makes something suspicious? For example: "it's suspicious if it contains a digit".`,
		"Is anything always safe?",
	},
	"exciting": {
		`What makes something exciting? For example: "it's exciting if it ends with an exclamation mark".`,
	},
	"interesting": {
		`What makes something interesting? For example: "it's interesting if it has more than 3 distinct letters".`,
	},
	"good": {
		`What makes something good? For example: "it's good if the score is at least 10".`,
		"And what makes it bad?",
	},
	"bad": {
		`What makes something bad? For example: "it's bad if it contains repeated characters".`,
	},
	"classify": {
		"What categories should it classify into, and what rule picks each one?",
	},
	"rate": {
		`How should the rating be computed? For example: "add 1 for each vowel".`,
	},
	"judge": {
		"What criteria should the judgment use? Please state them as explicit rules.",
	},
	"label": {
		"Which labels exist, and what condition assigns each label?",
	},
}

// GenericRuleQuestion is asked when no keyword-specific question applies.
const GenericRuleQuestion = `What rules should decide the result? For example: "if X then Y".`

// QuestionsFor returns up to max clarification questions for the given
// subjective keywords, falling back to the generic rule-elicitation question.
func QuestionsFor(keywords []string, max int) []string {
	var qs []string
	for _, kw := range keywords {
		for _, q := range ClarifyingQuestions[kw] {
			if len(qs) == max {
				return qs
			}
			qs = append(qs, q)
		}
	}
	if len(qs) == 0 {
		qs = []string{GenericRuleQuestion}
	}
	return qs
}

// Flowchart routing tables.

// SimpleFunctionNames are inherently simple regardless of other signals; a
// match here overrides every other routing rule.
var SimpleFunctionNames = []string{
	"palindrome",
	"prime",
	"even",
	"odd",
	"parity",
	"vowel",
	"consonant",
}

// ComplexityKeywords in a name or purpose indicate loops, recursion, or
// multi-branch logic that a local flowchart generator renders poorly.
var ComplexityKeywords = []string{
	"loop",
	"recursive",
	"recursion",
	"nested",
	"iterate",
	"branch",
	"multiple conditions",
	"matrix",
	"graph",
	"tree",
	"dynamic",
}

// EdgeCaseThreshold is the edge-case count above which a specification routes
// to the remote flowchart generator.
const EdgeCaseThreshold = 4

// MaxSimpleParams is the largest parameter count still routed as simple.
const MaxSimpleParams = 2

// CollectionTypeMarkers identify parameter types that hold collections.
var CollectionTypeMarkers = []string{"list", "dict", "set", "map", "["}

// IsCollectionType reports whether the type string denotes a collection.
func IsCollectionType(typ string) bool {
	lower := strings.ToLower(typ)
	for _, m := range CollectionTypeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func fieldsLower(s string) map[string]struct{} {
	words := make(map[string]struct{})
	word := strings.Builder{}
	flush := func() {
		if word.Len() > 0 {
			words[word.String()] = struct{}{}
			word.Reset()
		}
	}
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}
