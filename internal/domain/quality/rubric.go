// Package quality scores generated articles against a fixed rubric and
// reports structured deficiencies for the refinement loop.
package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

// Result is the outcome of one rubric evaluation.
type Result struct {
	Score        float64              `json:"score"` // in [0,10]
	Passed       bool                 `json:"passed"`
	Deficiencies []article.Deficiency `json:"deficiencies,omitempty"`
}

// Rubric evaluates generated text. Implementations must be pure: same
// inputs, same result. The orchestrator only depends on this interface so
// alternate scoring strategies can be swapped in.
type Rubric interface {
	Evaluate(text string, targetWords int, topic string) Result
}

// Rubric dimension names, carried in deficiencies so Refine gets targeted
// feedback rather than a bare score.
const (
	DimLength     = "length"
	DimStructure  = "structure"
	DimTitle      = "title"
	DimConclusion = "conclusion"
	DimExamples   = "examples"
	DimCTA        = "call_to_action"
	DimRelevance  = "topic_relevance"
)

// StandardRubric scores seven independent dimensions, each contributing a
// fixed penalty on failure. The penalties sum to 10 so a text failing
// everything scores 0.
type StandardRubric struct {
	Threshold float64 // passing score, default 7.0
}

// NewStandardRubric returns a StandardRubric with the given passing
// threshold. A threshold <= 0 defaults to 7.0.
func NewStandardRubric(threshold float64) *StandardRubric {
	if threshold <= 0 {
		threshold = 7.0
	}
	return &StandardRubric{Threshold: threshold}
}

const (
	penaltyLength     = 2.0
	penaltyStructure  = 1.5
	penaltyTitle      = 1.0
	penaltyConclusion = 1.5
	penaltyExamples   = 1.5
	penaltyCTA        = 1.0
	penaltyRelevance  = 1.5

	lengthTolerance = 0.30
	minHeadings     = 3
)

var (
	headingRe  = regexp.MustCompile(`(?m)^#{2,4}\s+\S`)
	titleRe    = regexp.MustCompile(`(?m)^#\s+\S`)
	listItemRe = regexp.MustCompile(`(?m)^(\s*[-*+]\s+\S|\s*\d+[.)]\s+\S)`)
	wordRe     = regexp.MustCompile(`[A-Za-z0-9'-]+`)
)

var conclusionSignals = []string{
	"conclusion", "in summary", "to sum up", "wrapping up",
	"final thoughts", "takeaway", "in closing",
}

var ctaSignals = []string{
	"subscribe", "sign up", "get started", "try ", "learn more",
	"contact", "download", "join", "share", "start today", "reach out",
}

// Evaluate scores text against all seven dimensions.
func (r *StandardRubric) Evaluate(text string, targetWords int, topic string) Result {
	var res Result
	score := 10.0

	fail := func(dim, detail string, penalty float64) {
		score -= penalty
		res.Deficiencies = append(res.Deficiencies, article.Deficiency{Dimension: dim, Detail: detail})
	}

	words := wordRe.FindAllString(text, -1)
	lower := strings.ToLower(text)

	// 1. Length: within ±30% of target.
	if targetWords > 0 {
		low := int(float64(targetWords) * (1 - lengthTolerance))
		high := int(float64(targetWords) * (1 + lengthTolerance))
		if len(words) < low || len(words) > high {
			fail(DimLength, fmt.Sprintf("word count %d outside %d-%d", len(words), low, high), penaltyLength)
		}
	}

	// 2. Structure: at least 3 section headings.
	if len(headingRe.FindAllString(text, -1)) < minHeadings {
		fail(DimStructure, fmt.Sprintf("fewer than %d section headings", minHeadings), penaltyStructure)
	}

	// 3. Title: a top-level heading.
	if !titleRe.MatchString(text) {
		fail(DimTitle, "no top-level heading", penaltyTitle)
	}

	// 4. Conclusion: closing section with conclusion-signaling language.
	if !containsAny(closingPortion(lower), conclusionSignals) {
		fail(DimConclusion, "no conclusion-signaling language in the closing section", penaltyConclusion)
	}

	// 5. Concrete examples: at least one list or enumeration.
	if !listItemRe.MatchString(text) {
		fail(DimExamples, "no list or enumerated examples", penaltyExamples)
	}

	// 6. Call-to-action in the closing paragraph.
	if !containsAny(closingPortion(lower), ctaSignals) {
		fail(DimCTA, "closing paragraph lacks action-oriented language", penaltyCTA)
	}

	// 7. Topic relevance: key terms appear at least twice in the body.
	if topic != "" && !topicCovered(lower, topic) {
		fail(DimRelevance, "topic key terms appear fewer than 2 times", penaltyRelevance)
	}

	if score < 0 {
		score = 0
	}
	res.Score = score
	res.Passed = score >= r.Threshold
	return res
}

// closingPortion returns roughly the final quarter of the text, where the
// conclusion and call-to-action are expected to live.
func closingPortion(lower string) string {
	if len(lower) < 200 {
		return lower
	}
	return lower[len(lower)*3/4:]
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// topicCovered checks that each significant topic term occurs at least
// twice. Short filler words are skipped; a topic made only of short words
// is vacuously covered.
func topicCovered(lower, topic string) bool {
	for _, term := range wordRe.FindAllString(strings.ToLower(topic), -1) {
		if len(term) <= 3 {
			continue
		}
		if strings.Count(lower, term) < 2 {
			return false
		}
	}
	return true
}
