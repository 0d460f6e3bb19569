package workflow

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/StoryWing/internal/generate"
	"github.com/josephgoksu/StoryWing/internal/llm"
	"github.com/josephgoksu/StoryWing/internal/ralph"
	"github.com/josephgoksu/StoryWing/internal/refine"
	"github.com/josephgoksu/StoryWing/internal/story"
)

const revisionReply = "```json\n" + `{
  "qualityScore": 79,
  "qualityExplanation": "close",
  "meetsThreshold": true,
  "questions": [{"question": "Which cards?"}, {"question": ""}],
  "updatedStory": {
    "title": "Pay by Visa or Mastercard",
    "description": "Card payments via the gateway",
    "acceptanceCriteria": ["Visa accepted", null, "  ", "Mastercard accepted"],
    "priority": "sky-high"
  }
}` + "\n```"

func TestRefine_AnalysisNeverMutates(t *testing.T) {
	c := reply(revisionReply)
	svc, store := newTestService(t, c)
	prd := mustPRD(t, svc, "Buy things")
	st := mustStory(t, svc, prd.ID, "Pay by card", "works")
	mustStory(t, svc, prd.ID, "Refunds")

	res, err := svc.Refine(t.Context(), st.ID, RefineRequest{})
	require.NoError(t, err)
	assert.Equal(t, refine.StateAnalyzed, res.State)
	assert.False(t, res.Applied)
	assert.Equal(t, 79, res.QualityScore)
	assert.False(t, res.MeetsThreshold)
	require.Len(t, res.Questions, 1)
	assert.NotEmpty(t, res.Questions[0].ID)
	require.NotNil(t, res.UpdatedStory)
	assert.Nil(t, res.Improvements)

	stored, err := store.GetStory(st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pay by card", stored.Title)
	assert.Equal(t, st.AcceptanceCriteria, stored.AcceptanceCriteria)

	assert.Contains(t, c.user, "Other Stories")
	assert.Contains(t, c.user, "Refunds")
}

func TestRefine_AnswersApplyRevision(t *testing.T) {
	svc, store := newTestService(t, reply(revisionReply))
	prd := mustPRD(t, svc, "Buy things")
	st := mustStory(t, svc, prd.ID, "Pay by card", "works")

	res, err := svc.Refine(t.Context(), st.ID, RefineRequest{Answers: []refine.Answer{{QuestionID: "q-1", Answer: "Visa and Mastercard"}}})
	require.NoError(t, err)
	assert.Equal(t, refine.StateRevised, res.State)
	assert.True(t, res.Applied)

	stored, err := store.GetStory(st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pay by Visa or Mastercard", stored.Title)
	assert.Equal(t, []string{"Visa accepted", "Mastercard accepted"}, stored.CriteriaText())
	assert.Equal(t, story.PriorityMedium, stored.Priority, "invalid priority falls back to the story's own")
	for _, c := range stored.AcceptanceCriteria {
		assert.False(t, c.Passed)
	}

	_, err = svc.Refine(t.Context(), st.ID, RefineRequest{Answers: []refine.Answer{{Answer: "no id"}}})
	requireKind(t, err, KindInvalidRequest)
}

func TestRefine_Failures(t *testing.T) {
	tests := []struct {
		name string
		c    *fakeCompleter
		want Kind
	}{
		{
			name: "upstream error",
			c: &fakeCompleter{fn: func(string, string) (string, error) {
				return "", &llm.UpstreamError{Reason: llm.ReasonRateLimited, Err: errors.New("429")}
			}},
			want: KindUpstreamFailure,
		},
		{name: "malformed", c: reply("I cannot help with that"), want: KindMalformedUpstream},
		{name: "no completer", want: KindUpstreamFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.c)
			prd := mustPRD(t, svc, "")
			st := mustStory(t, svc, prd.ID, "A")

			_, err := svc.Refine(t.Context(), st.ID, RefineRequest{})
			requireKind(t, err, tt.want)
		})
	}

	t.Run("rate limit reason is reported", func(t *testing.T) {
		err := UpstreamFailure(&llm.UpstreamError{Reason: llm.ReasonRateLimited, Err: errors.New("429")})
		assert.Equal(t, "rate_limited", err.Details["reason"])
	})

	t.Run("missing story makes no upstream call", func(t *testing.T) {
		c := reply("{}")
		svc, _ := newTestService(t, c)
		_, err := svc.Refine(t.Context(), "story-nope", RefineRequest{})
		requireKind(t, err, KindNotFound)
		assert.Zero(t, c.calls)
	})
}

func TestRecommendPriority_NormalizesUntrustedReply(t *testing.T) {
	c := reply(`{"suggestedPriority":"ultra-critical","confidence":200,"factors":[{"factor":"x","category":"invalid-cat","impact":"invalid-impact","weight":"invalid-weight"}]}`)
	svc, store := newTestService(t, c)
	prd := mustPRD(t, svc, "")
	st := mustStory(t, svc, prd.ID, "A")

	rec, err := svc.RecommendPriority(t.Context(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, story.PriorityMedium, rec.SuggestedPriority)
	assert.Equal(t, story.PriorityMedium, rec.CurrentPriority)
	assert.Equal(t, 100, rec.Confidence)
	require.Len(t, rec.Factors, 1)
	assert.Equal(t, story.CategoryScope, rec.Factors[0].Category)
	assert.Equal(t, story.ImpactNeutral, rec.Factors[0].Impact)
	assert.Equal(t, story.WeightModerate, rec.Factors[0].Weight)
	assert.NotEmpty(t, rec.Explanation)
	assert.False(t, rec.IsManualOverride)

	stored, err := store.GetStory(st.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PriorityRecommendation)
	assert.Equal(t, 100, stored.PriorityRecommendation.Confidence)

	_, err = svc.RecommendPriority(t.Context(), "story-nope")
	requireKind(t, err, KindNotFound)
}

func TestRecommendPriorities(t *testing.T) {
	svc, _ := newTestService(t, nil)
	empty := mustPRD(t, svc, "")
	_, err := svc.RecommendPriorities(t.Context(), empty.ID)
	requireKind(t, err, KindInvalidRequest)

	prd := mustPRD(t, svc, "")
	a := mustStory(t, svc, prd.ID, "A")
	b := mustStory(t, svc, prd.ID, "B")
	svc.completer = reply(`[
		{"storyId":"` + a.ID + `","suggestedPriority":"critical","confidence":90},
		{"storyId":"` + b.ID + `","suggestedPriority":"medium","confidence":"high"},
		{"storyId":"story-ghost","suggestedPriority":"low"}
	]`)

	sum, err := svc.RecommendPriorities(t.Context(), prd.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.ChangedCount)
	assert.Equal(t, 1, sum.ByPriority[story.PriorityCritical])
	assert.Equal(t, 1, sum.ByPriority[story.PriorityMedium])
	assert.Equal(t, 50, sum.Recommendations[1].Confidence)

	got, err := svc.GetPRD(prd.ID)
	require.NoError(t, err)
	for _, st := range got.Stories {
		assert.NotNil(t, st.PriorityRecommendation, st.ID)
	}
}

func TestSetPriority(t *testing.T) {
	svc, store := newTestService(t, reply(`{"suggestedPriority":"high","confidence":80}`))
	prd := mustPRD(t, svc, "")
	a := mustStory(t, svc, prd.ID, "A")
	b := mustStory(t, svc, prd.ID, "B")
	_, err := svc.AddDependency(a.ID, AddDependencyRequest{DependsOn: b.ID})
	require.NoError(t, err)

	_, err = svc.RecommendPriority(t.Context(), a.ID)
	require.NoError(t, err)
	seedRecommendation(t, store, b.ID)

	got, err := svc.SetPriority(a.ID, SetPriorityRequest{Priority: "high", Accept: true})
	require.NoError(t, err)
	assert.Equal(t, story.PriorityHigh, got.Priority)
	require.NotNil(t, got.PriorityRecommendation)
	assert.Equal(t, story.PriorityHigh, got.PriorityRecommendation.CurrentPriority)
	assert.False(t, got.PriorityRecommendation.IsManualOverride)

	neighbor, err := store.GetStory(b.ID)
	require.NoError(t, err)
	assert.Nil(t, neighbor.PriorityRecommendation)

	got, err = svc.SetPriority(a.ID, SetPriorityRequest{Priority: "low", Accept: true})
	require.NoError(t, err)
	assert.True(t, got.PriorityRecommendation.IsManualOverride)

	_, err = svc.SetPriority(a.ID, SetPriorityRequest{Priority: "ultra"})
	requireKind(t, err, KindInvalidRequest)
	_, err = svc.SetPriority("story-nope", SetPriorityRequest{Priority: "low"})
	requireKind(t, err, KindNotFound)
}

func TestValidateCriteria(t *testing.T) {
	c := reply(`{
		"overallScore": 35,
		"allValid": true,
		"criteria": [{
			"index": 0,
			"isValid": true,
			"issues": [{"severity": "error", "category": "unmeasurable", "message": "fast is not measurable"}],
			"suggestedReplacement": "Search results load within 500ms at p95"
		}]
	}`)
	svc, _ := newTestService(t, c)
	prd := mustPRD(t, svc, "")
	st := mustStory(t, svc, prd.ID, "Search", "System should be fast")

	res, err := svc.ValidateCriteria(t.Context(), st.ID, ValidateCriteriaRequest{})
	require.NoError(t, err)
	assert.Equal(t, 35, res.OverallScore)
	assert.False(t, res.AllValid)
	require.Len(t, res.Criteria, 1)
	assert.False(t, res.Criteria[0].IsValid)
	require.NotNil(t, res.Criteria[0].SuggestedReplacement)
	assert.NotEmpty(t, *res.Criteria[0].SuggestedReplacement)
	assert.Contains(t, c.user, "System should be fast")

	empty := mustStory(t, svc, prd.ID, "Empty")
	_, err = svc.ValidateCriteria(t.Context(), empty.ID, ValidateCriteriaRequest{Criteria: []string{" "}})
	requireKind(t, err, KindInvalidRequest)
	assert.Equal(t, 1, c.calls)
}

func TestGenerateAndAccept(t *testing.T) {
	c := reply(`{"stories":[
		{"title":"Guest checkout","acceptanceCriteria":["No account needed"],"priority":"high"},
		{"title":"  ","acceptanceCriteria":["dropped"]},
		{"title":"Saved cards","priority":"whenever"}
	]}`)
	svc, _ := newTestService(t, c)

	blank := mustPRD(t, svc, "")
	_, err := svc.GenerateStories(t.Context(), blank.ID, GenerateRequest{})
	requireKind(t, err, KindInvalidRequest)
	assert.Zero(t, c.calls)

	prd := mustPRD(t, svc, "An online shop checkout")
	mustStory(t, svc, prd.ID, "Existing story")

	res, err := svc.GenerateStories(t.Context(), prd.ID, GenerateRequest{Count: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Stories, 2)
	assert.Equal(t, []string{"No account needed", "Needs acceptance criterion 2", "Needs acceptance criterion 3"}, res.Stories[0].AcceptanceCriteria)
	assert.Equal(t, story.PriorityMedium, res.Stories[1].Priority)
	assert.Contains(t, c.user, "Existing story")

	_, err = svc.AcceptGenerated(prd.ID, AcceptGeneratedRequest{})
	requireKind(t, err, KindInvalidRequest)
	_, err = svc.AcceptGenerated(prd.ID, AcceptGeneratedRequest{Stories: []generate.Story{{Title: " "}}})
	requireKind(t, err, KindInvalidRequest)

	_, err = svc.AcceptGenerated(prd.ID, AcceptGeneratedRequest{Stories: []generate.Story{
		{Title: "Fine", Priority: story.PriorityLow},
		{Title: "x", Priority: "ultra"},
	}})
	requireKind(t, err, KindInvalidRequest)
	assert.Contains(t, err.Error(), "must be one of")
	unchanged, err := svc.GetPRD(prd.ID)
	require.NoError(t, err)
	assert.Len(t, unchanged.Stories, 1)

	created, err := svc.AcceptGenerated(prd.ID, AcceptGeneratedRequest{Stories: res.Stories})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, 1, created[0].SortOrder)
	assert.Equal(t, 2, created[1].SortOrder)
	assert.Len(t, created[1].AcceptanceCriteria, generate.MinCriteria)
}

func TestTemplates(t *testing.T) {
	svc, _ := newTestService(t, nil)

	list, err := svc.ListTemplates()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 4)
	assert.True(t, list[0].IsBuiltIn)

	again, err := svc.ListTemplates()
	require.NoError(t, err)
	assert.Len(t, again, len(list))

	requireKind(t, svc.DeleteTemplate("builtin-bug"), KindInvalidRequest)
	_, err = svc.UpdateTemplate("builtin-bug", TemplateRequest{Name: "x", TitleTemplate: "y"})
	requireKind(t, err, KindInvalidRequest)
	_, err = svc.GetTemplate("tmpl-nope")
	requireKind(t, err, KindNotFound)

	custom, err := svc.CreateTemplate(TemplateRequest{
		Name:                        "Endpoint",
		TitleTemplate:               "Add {{method}} {{path}}",
		AcceptanceCriteriaTemplates: []string{"{{method}} {{path}} returns 200", "Responds within {{latency}}"},
		DefaultPriority:             "high",
	})
	require.NoError(t, err)
	assert.False(t, custom.IsBuiltIn)

	prd := mustPRD(t, svc, "")
	vars := map[string]string{"method": "GET", "path": "/orders"}
	first, err := svc.InstantiateTemplate(custom.ID, InstantiateRequest{PRDID: prd.ID, Variables: vars})
	require.NoError(t, err)
	second, err := svc.InstantiateTemplate(custom.ID, InstantiateRequest{PRDID: prd.ID, Variables: vars})
	require.NoError(t, err)

	assert.Equal(t, "Add GET /orders", first.Title)
	assert.Equal(t, []string{"GET /orders returns 200", "Responds within {{latency}}"}, first.CriteriaText())
	assert.Equal(t, story.PriorityHigh, first.Priority)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.CriteriaText(), second.CriteriaText())
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.SortOrder+1, second.SortOrder)

	renamed, err := svc.UpdateTemplate(custom.ID, TemplateRequest{Name: "Endpoint v2", TitleTemplate: "{{path}}"})
	require.NoError(t, err)
	assert.Equal(t, "Endpoint v2", renamed.Name)
	require.NoError(t, svc.DeleteTemplate(custom.ID))
}

func TestRalphRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, nil)

	doc := ralph.Document{
		Project: "Checkout",
		UserStories: []ralph.UserStory{
			{ID: "US-001", Title: "Cart", Priority: 2, AcceptanceCriteria: []string{"items listed"}},
			{ID: "US-002", Title: "Pay", Priority: 1, Passes: true, DependsOn: []string{"US-001"}, Notes: "sandbox only"},
		},
	}
	prd, err := svc.ImportRalph("/ws", doc)
	require.NoError(t, err)

	got, err := svc.GetPRD(prd.ID)
	require.NoError(t, err)
	require.Len(t, got.Stories, 2)
	assert.Equal(t, story.PriorityHigh, got.Stories[0].Priority)
	assert.Equal(t, story.PriorityCritical, got.Stories[1].Priority)
	assert.Equal(t, story.StatusCompleted, got.Stories[1].Status)
	assert.Equal(t, []string{got.Stories[0].ID}, got.Stories[1].DependsOn)

	out, err := svc.ExportRalph(prd.ID)
	require.NoError(t, err)
	require.Len(t, out.UserStories, 2)
	assert.Equal(t, "US-002", out.UserStories[1].ID)
	assert.Equal(t, []string{"US-001"}, out.UserStories[1].DependsOn)
	assert.True(t, strings.Contains(out.UserStories[1].Notes, "sandbox"))

	_, err = svc.ImportRalph(" ", doc)
	requireKind(t, err, KindInvalidRequest)
}

func TestImportRalph_RejectsDependencyCycle(t *testing.T) {
	svc, _ := newTestService(t, nil)

	doc := ralph.Document{
		Project: "Loop",
		UserStories: []ralph.UserStory{
			{ID: "US-001", Title: "A", DependsOn: []string{"US-002"}},
			{ID: "US-002", Title: "B", DependsOn: []string{"US-001"}},
		},
	}
	_, err := svc.ImportRalph("/ws", doc)
	requireKind(t, err, KindInvalidRequest)
	assert.Contains(t, err.Error(), "cycle")

	prds, err := svc.ListPRDs("/ws")
	require.NoError(t, err)
	assert.Empty(t, prds)
}

func TestSyncRalph(t *testing.T) {
	svc, _ := newTestService(t, nil)

	prd, err := svc.ImportRalph("/ws", ralph.Document{
		Project: "Checkout",
		UserStories: []ralph.UserStory{
			{ID: "US-001", Title: "Cart", AcceptanceCriteria: []string{"items listed"}},
			{ID: "US-002", Title: "Pay", Passes: true, Notes: "sandbox only"},
			{ID: "US-003", Title: "Receipt"},
		},
	})
	require.NoError(t, err)

	edited, err := svc.ExportRalph(prd.ID)
	require.NoError(t, err)
	edited.UserStories[0].Passes = true
	edited.UserStories[0].Notes = "cart stored in session\n\n"
	edited.UserStories[1].Passes = false
	edited.UserStories[2].ID = "R-9" // matched by title instead
	edited.UserStories[2].Notes = "email template reused"
	edited.UserStories = append(edited.UserStories, ralph.UserStory{ID: "US-099", Title: "Ghost"})

	res, err := svc.SyncRalph(prd.ID, *edited)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Completed: 1, Reopened: 1, Learnings: 2, Unmatched: 1}, *res)

	got, err := svc.GetPRD(prd.ID)
	require.NoError(t, err)
	assert.Equal(t, story.StatusCompleted, got.Stories[0].Status)
	assert.True(t, got.Stories[0].AcceptanceCriteria[0].Passed)
	assert.Equal(t, []string{"cart stored in session"}, got.Stories[0].Learnings)
	assert.Equal(t, story.StatusPending, got.Stories[1].Status)
	assert.Equal(t, []string{"sandbox only"}, got.Stories[1].Learnings)
	assert.Equal(t, []string{"email template reused"}, got.Stories[2].Learnings)

	again, err := svc.SyncRalph(prd.ID, *edited)
	require.NoError(t, err)
	assert.False(t, again.Changed())

	_, err = svc.SyncRalph("prd-missing", *edited)
	requireKind(t, err, KindNotFound)
}
