// Package criteria validates acceptance criteria against a fixed defect
// taxonomy. Scoring is delegated to the completion service; this package
// builds the request and normalizes the reply.
package criteria

import (
	"strings"

	"github.com/josephgoksu/StoryWing/internal/story"
)

// Severity of a criterion issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Category of a criterion issue.
type Category string

const (
	CategoryVague         Category = "vague"
	CategoryUnmeasurable  Category = "unmeasurable"
	CategoryUntestable    Category = "untestable"
	CategoryTooBroad      Category = "too_broad"
	CategoryAmbiguous     Category = "ambiguous"
	CategoryMissingDetail Category = "missing_detail"
)

// Categories lists the full taxonomy in prompt order.
var Categories = []Category{
	CategoryVague, CategoryUnmeasurable, CategoryUntestable,
	CategoryTooBroad, CategoryAmbiguous, CategoryMissingDetail,
}

// Issue is one defect found in a criterion.
type Issue struct {
	CriterionIndex       int      `json:"criterionIndex"`
	CriterionText        string   `json:"criterionText"`
	Severity             Severity `json:"severity"`
	Category             Category `json:"category"`
	Message              string   `json:"message"`
	SuggestedReplacement *string  `json:"suggestedReplacement"`
}

// CriterionResult is the verdict for one input criterion.
type CriterionResult struct {
	Index                int     `json:"index"`
	Text                 string  `json:"text"`
	IsValid              bool    `json:"isValid"`
	Issues               []Issue `json:"issues"`
	SuggestedReplacement *string `json:"suggestedReplacement"`
}

// ValidationResult is the normalized response for a whole criteria list.
type ValidationResult struct {
	OverallScore int               `json:"overallScore"`
	AllValid     bool              `json:"allValid"`
	Summary      string            `json:"summary"`
	Criteria     []CriterionResult `json:"criteria"`
}

// NormalizeSeverity defaults anything unrecognized to warning.
func NormalizeSeverity(raw string) Severity {
	switch s := Severity(strings.ToLower(strings.TrimSpace(raw))); s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return s
	}
	return SeverityWarning
}

// NormalizeCategory defaults anything unrecognized to vague.
func NormalizeCategory(raw string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryVague, CategoryUnmeasurable, CategoryUntestable,
		CategoryTooBroad, CategoryAmbiguous, CategoryMissingDetail:
		return c
	}
	return CategoryVague
}

// Blocking reports whether an issue of this severity invalidates a criterion.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityWarning
}

// RawResponse is the reply shape requested from the completion service.
// Derived fields (allValid, isValid) are accepted but ignored.
type RawResponse struct {
	OverallScore any            `json:"overallScore"`
	AllValid     any            `json:"allValid"`
	Summary      string         `json:"summary"`
	Criteria     []RawCriterion `json:"criteria"`
	Issues       []RawIssue     `json:"issues"`
}

// RawCriterion is one per-criterion entry in the raw reply.
type RawCriterion struct {
	Index                *int       `json:"index"`
	Text                 string     `json:"text"`
	IsValid              any        `json:"isValid"`
	Issues               []RawIssue `json:"issues"`
	SuggestedReplacement *string    `json:"suggestedReplacement"`
}

// RawIssue is one issue entry in the raw reply.
type RawIssue struct {
	CriterionIndex       *int    `json:"criterionIndex"`
	Severity             string  `json:"severity"`
	Category             string  `json:"category"`
	Message              string  `json:"message"`
	SuggestedReplacement *string `json:"suggestedReplacement"`
}

// Normalize turns a raw reply into a ValidationResult with exactly one
// CriterionResult per input criterion, in input order. Validity is always
// recomputed from issue severities.
func Normalize(criteria []string, raw RawResponse) ValidationResult {
	results := make([]CriterionResult, len(criteria))
	for i, text := range criteria {
		results[i] = CriterionResult{Index: i, Text: text, Issues: []Issue{}}
	}

	for pos, rc := range raw.Criteria {
		idx := pos
		if rc.Index != nil {
			idx = *rc.Index
		}
		if idx < 0 || idx >= len(results) {
			continue
		}
		if rc.SuggestedReplacement != nil && strings.TrimSpace(*rc.SuggestedReplacement) != "" {
			s := strings.TrimSpace(*rc.SuggestedReplacement)
			results[idx].SuggestedReplacement = &s
		}
		for _, ri := range rc.Issues {
			results[idx].Issues = append(results[idx].Issues, normalizeIssue(ri, idx, criteria[idx]))
		}
	}

	// Issues listed at the top level are routed by their criterionIndex.
	for _, ri := range raw.Issues {
		if ri.CriterionIndex == nil {
			continue
		}
		idx := *ri.CriterionIndex
		if idx < 0 || idx >= len(results) {
			continue
		}
		results[idx].Issues = append(results[idx].Issues, normalizeIssue(ri, idx, criteria[idx]))
	}

	allValid := true
	for i := range results {
		results[i].IsValid = isValid(results[i].Issues)
		allValid = allValid && results[i].IsValid
	}

	return ValidationResult{
		OverallScore: story.ClampScore(raw.OverallScore, story.DefaultScore),
		AllValid:     allValid,
		Summary:      strings.TrimSpace(raw.Summary),
		Criteria:     results,
	}
}

func normalizeIssue(ri RawIssue, idx int, text string) Issue {
	issue := Issue{
		CriterionIndex: idx,
		CriterionText:  text,
		Severity:       NormalizeSeverity(ri.Severity),
		Category:       NormalizeCategory(ri.Category),
		Message:        strings.TrimSpace(ri.Message),
	}
	if ri.SuggestedReplacement != nil && strings.TrimSpace(*ri.SuggestedReplacement) != "" {
		s := strings.TrimSpace(*ri.SuggestedReplacement)
		issue.SuggestedReplacement = &s
	}
	return issue
}

// isValid is true iff no issue has error or warning severity.
func isValid(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity.Blocking() {
			return false
		}
	}
	return true
}
