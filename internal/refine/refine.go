// Package refine implements the per-story quality loop: score the story,
// ask clarifying questions, and fold the caller's answers back in.
//
// Each call is independent. Without answers a call only analyzes; with
// answers it may also revise the story.
package refine

import (
	"strings"

	"github.com/josephgoksu/StoryWing/internal/story"
)

const (
	// QualityThreshold is the score at which a story counts as well specified.
	QualityThreshold = 80
	// MaxQuestions caps the clarifying questions returned per call.
	MaxQuestions = 5
)

// State is the refinement state a call ends in.
type State string

const (
	StateInitial  State = "initial"
	StateAnalyzed State = "analyzed"
	StateRevised  State = "revised"
)

// StateFor returns the state reached by a call with the given answers.
func StateFor(answers []Answer) State {
	if len(answers) > 0 {
		return StateRevised
	}
	return StateAnalyzed
}

// Answer is the caller's reply to a previously returned question.
type Answer struct {
	QuestionID string `json:"questionId" validate:"required"`
	Answer     string `json:"answer"`
}

// Question is a clarifying question about the story.
type Question struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Context          string   `json:"context"`
	SuggestedAnswers []string `json:"suggestedAnswers,omitempty"`
}

// UpdatedStory is the revision proposed by the completion service.
type UpdatedStory struct {
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	AcceptanceCriteria []string       `json:"acceptanceCriteria"`
	Priority           story.Priority `json:"priority"`
}

// Result is the normalized outcome of one refinement call. Improvements is
// a pointer so an absent list is omitted rather than rendered as null or [].
type Result struct {
	QualityScore       int           `json:"qualityScore"`
	QualityExplanation string        `json:"qualityExplanation"`
	MeetsThreshold     bool          `json:"meetsThreshold"`
	Questions          []Question    `json:"questions"`
	UpdatedStory       *UpdatedStory `json:"updatedStory,omitempty"`
	Improvements       *[]string     `json:"improvements,omitempty"`
}

// RawResponse is the reply shape requested from the completion service.
type RawResponse struct {
	QualityScore       any              `json:"qualityScore"`
	QualityExplanation string           `json:"qualityExplanation"`
	MeetsThreshold     any              `json:"meetsThreshold"`
	Questions          []RawQuestion    `json:"questions"`
	UpdatedStory       *RawUpdatedStory `json:"updatedStory"`
	Improvements       *[]string        `json:"improvements"`
}

// RawQuestion is a question entry in the raw reply.
type RawQuestion struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Context          string   `json:"context"`
	SuggestedAnswers []string `json:"suggestedAnswers"`
}

// RawUpdatedStory is the proposed revision in the raw reply. Criteria
// entries may be null.
type RawUpdatedStory struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	AcceptanceCriteria []*string `json:"acceptanceCriteria"`
	Priority           string    `json:"priority"`
}

// Normalize sanitizes a raw reply for the story it was requested for.
func Normalize(raw RawResponse, current story.Story) Result {
	score := story.ClampScore(raw.QualityScore, story.DefaultScore)
	res := Result{
		QualityScore:       score,
		QualityExplanation: strings.TrimSpace(raw.QualityExplanation),
		MeetsThreshold:     score >= QualityThreshold,
		Questions:          normalizeQuestions(raw.Questions),
		Improvements:       raw.Improvements,
	}
	if raw.UpdatedStory != nil {
		res.UpdatedStory = normalizeUpdate(*raw.UpdatedStory, current)
	}
	return res
}

func normalizeQuestions(raw []RawQuestion) []Question {
	out := make([]Question, 0, len(raw))
	for _, rq := range raw {
		text := strings.TrimSpace(rq.Question)
		if text == "" {
			continue
		}
		id := strings.TrimSpace(rq.ID)
		if id == "" {
			id = story.NewID("q")
		}
		out = append(out, Question{
			ID:               id,
			Question:         text,
			Context:          strings.TrimSpace(rq.Context),
			SuggestedAnswers: rq.SuggestedAnswers,
		})
		if len(out) == MaxQuestions {
			break
		}
	}
	return out
}

func normalizeUpdate(raw RawUpdatedStory, current story.Story) *UpdatedStory {
	criteria := make([]string, 0, len(raw.AcceptanceCriteria))
	for _, c := range raw.AcceptanceCriteria {
		if c == nil {
			continue
		}
		if t := strings.TrimSpace(*c); t != "" {
			criteria = append(criteria, t)
		}
	}
	// At least one criterion must survive; keep the story's own otherwise.
	if len(criteria) == 0 {
		criteria = current.CriteriaText()
	}
	return &UpdatedStory{
		Title:              raw.Title,
		Description:        raw.Description,
		AcceptanceCriteria: criteria,
		Priority:           story.NormalizePriority(raw.Priority, current.Priority),
	}
}

// ShouldApply reports whether a call may mutate the stored story: only when
// the caller answered something and the reply proposed a revision.
func ShouldApply(answers []Answer, res Result) bool {
	return len(answers) > 0 && res.UpdatedStory != nil
}

// ApplyTo writes the revision onto s. Criteria become fresh, unpassed
// records. A blank title is ignored. It reports whether priority changed.
func (u *UpdatedStory) ApplyTo(s *story.Story) bool {
	if strings.TrimSpace(u.Title) != "" {
		s.Title = u.Title
	}
	s.Description = u.Description
	if len(u.AcceptanceCriteria) > 0 {
		s.AcceptanceCriteria = story.NewCriteria(u.AcceptanceCriteria)
	}
	changed := s.Priority != u.Priority
	s.Priority = u.Priority
	return changed
}
