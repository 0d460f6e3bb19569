package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/story"
)

// fakeCompleter returns whatever fn returns and records the prompts.
type fakeCompleter struct {
	fn    func(system, user string) (string, error)
	calls int
	user  string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.user = user
	return f.fn(system, user)
}

func reply(text string) *fakeCompleter {
	return &fakeCompleter{fn: func(string, string) (string, error) { return text, nil }}
}

var testNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestService(t *testing.T, c *fakeCompleter) (*Service, *memory.SQLiteStore) {
	t.Helper()
	store, err := memory.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	var svc *Service
	if c == nil {
		svc = New(store, nil, WithClock(func() time.Time { return testNow }))
	} else {
		svc = New(store, c, WithClock(func() time.Time { return testNow }))
	}
	return svc, store
}

func mustPRD(t *testing.T, svc *Service, desc string) *story.PRD {
	t.Helper()
	prd, err := svc.CreatePRD(CreatePRDRequest{WorkspacePath: "/ws", Name: "Checkout", Description: desc})
	require.NoError(t, err)
	return prd
}

func mustStory(t *testing.T, svc *Service, prdID, title string, criteria ...string) *story.Story {
	t.Helper()
	st, err := svc.CreateStory(CreateStoryRequest{PRDID: prdID, Title: title, AcceptanceCriteria: criteria})
	require.NoError(t, err)
	return st
}

// seedRecommendation gives a story a recommendation directly in the store.
func seedRecommendation(t *testing.T, store *memory.SQLiteStore, id string) {
	t.Helper()
	rec := &story.PriorityRecommendation{StoryID: id, SuggestedPriority: story.PriorityHigh, CurrentPriority: story.PriorityMedium, Confidence: 70, Factors: []story.Factor{}, Explanation: "x"}
	require.NoError(t, store.SetRecommendation(id, rec, testNow))
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), "error: %v", err)
}

func TestPRDLifecycle(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.CreatePRD(CreatePRDRequest{Name: "   "})
	requireKind(t, err, KindInvalidRequest)

	prd := mustPRD(t, svc, "Buy things")
	mustStory(t, svc, prd.ID, "Pay by card")

	name := "Checkout v2"
	updated, err := svc.UpdatePRD(prd.ID, UpdatePRDRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Checkout v2", updated.Name)
	assert.Equal(t, "Buy things", updated.Description)
	assert.Len(t, updated.Stories, 1)

	list, err := svc.ListPRDs("/ws")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeletePRD(prd.ID))
	_, err = svc.GetPRD(prd.ID)
	requireKind(t, err, KindNotFound)
	requireKind(t, svc.DeletePRD(prd.ID), KindNotFound)
}

func TestCreateStory(t *testing.T) {
	svc, _ := newTestService(t, nil)
	prd := mustPRD(t, svc, "")

	first := mustStory(t, svc, prd.ID, "One", "a", " ", "b")
	assert.Equal(t, story.PriorityMedium, first.Priority)
	assert.Equal(t, story.StatusPending, first.Status)
	assert.Equal(t, story.DefaultMaxAttempts, first.MaxAttempts)
	assert.Equal(t, 0, first.SortOrder)
	require.Len(t, first.AcceptanceCriteria, 2)
	assert.NotEmpty(t, first.AcceptanceCriteria[0].ID)

	second := mustStory(t, svc, prd.ID, "Two")
	assert.Equal(t, 1, second.SortOrder)

	t.Run("invalid priority", func(t *testing.T) {
		_, err := svc.CreateStory(CreateStoryRequest{PRDID: prd.ID, Title: "x", Priority: "urgent"})
		requireKind(t, err, KindInvalidRequest)
	})
	t.Run("missing prd", func(t *testing.T) {
		_, err := svc.CreateStory(CreateStoryRequest{PRDID: "prd-nope", Title: "x"})
		requireKind(t, err, KindNotFound)
	})
	t.Run("no scope", func(t *testing.T) {
		_, err := svc.CreateStory(CreateStoryRequest{Title: "x"})
		requireKind(t, err, KindInvalidRequest)
	})
	t.Run("standalone", func(t *testing.T) {
		st, err := svc.CreateStory(CreateStoryRequest{WorkspacePath: "/ws", Title: "Loose", Priority: "HIGH"})
		require.NoError(t, err)
		assert.True(t, st.Standalone())
		assert.Equal(t, story.PriorityHigh, st.Priority)
		assert.Equal(t, 0, st.SortOrder)

		list, err := svc.ListStandaloneStories("/ws")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, st.ID, list[0].ID)
	})
}

func TestUpdateStory_KeepsUnchangedCriteria(t *testing.T) {
	svc, _ := newTestService(t, nil)
	prd := mustPRD(t, svc, "")
	st := mustStory(t, svc, prd.ID, "One", "keep me", "drop me")

	_, err := svc.SetCriterionPassed(st.ID, st.AcceptanceCriteria[0].ID, true)
	require.NoError(t, err)

	criteria := []string{"keep me", "new one"}
	got, err := svc.UpdateStory(st.ID, UpdateStoryRequest{AcceptanceCriteria: &criteria})
	require.NoError(t, err)
	require.Len(t, got.AcceptanceCriteria, 2)
	assert.Equal(t, st.AcceptanceCriteria[0].ID, got.AcceptanceCriteria[0].ID)
	assert.True(t, got.AcceptanceCriteria[0].Passed)
	assert.False(t, got.AcceptanceCriteria[1].Passed)

	_, err = svc.SetCriterionPassed(st.ID, "ac-missing", true)
	requireKind(t, err, KindNotFound)
}

func TestUpdateStory_PriorityChangeInvalidatesNeighbors(t *testing.T) {
	svc, store := newTestService(t, nil)
	prd := mustPRD(t, svc, "")
	a := mustStory(t, svc, prd.ID, "A")
	b := mustStory(t, svc, prd.ID, "B")
	c := mustStory(t, svc, prd.ID, "C")
	unrelated := mustStory(t, svc, prd.ID, "D")

	// a -> b -> c
	_, err := svc.AddDependency(a.ID, AddDependencyRequest{DependsOn: b.ID})
	require.NoError(t, err)
	_, err = svc.AddDependency(b.ID, AddDependencyRequest{DependsOn: c.ID})
	require.NoError(t, err)
	for _, id := range []string{a.ID, b.ID, c.ID, unrelated.ID} {
		seedRecommendation(t, store, id)
	}

	high := "high"
	_, err = svc.UpdateStory(b.ID, UpdateStoryRequest{Priority: &high})
	require.NoError(t, err)

	for id, wantNil := range map[string]bool{a.ID: true, c.ID: true, b.ID: false, unrelated.ID: false} {
		got, err := store.GetStory(id)
		require.NoError(t, err)
		assert.Equal(t, wantNil, got.PriorityRecommendation == nil, id)
	}

	bad := "urgent"
	_, err = svc.UpdateStory(b.ID, UpdateStoryRequest{Priority: &bad})
	requireKind(t, err, KindInvalidRequest)
}

func TestDependencies(t *testing.T) {
	svc, store := newTestService(t, nil)
	prd := mustPRD(t, svc, "")
	a := mustStory(t, svc, prd.ID, "A")
	b := mustStory(t, svc, prd.ID, "B")
	other := mustPRD(t, svc, "")
	foreign := mustStory(t, svc, other.ID, "Elsewhere")

	t.Run("add clears both endpoints", func(t *testing.T) {
		seedRecommendation(t, store, b.ID)
		got, err := svc.AddDependency(a.ID, AddDependencyRequest{DependsOn: b.ID, Reason: "needs the API"})
		require.NoError(t, err)
		assert.Equal(t, []string{b.ID}, got.DependsOn)
		assert.Equal(t, "needs the API", got.DependencyReasons[b.ID])
		assert.Nil(t, got.PriorityRecommendation)

		stored, err := store.GetStory(b.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.PriorityRecommendation)
	})

	t.Run("rejected edges", func(t *testing.T) {
		for name, target := range map[string]string{
			"self":        a.ID,
			"missing":     "story-nope",
			"cross scope": foreign.ID,
		} {
			t.Run(name, func(t *testing.T) {
				_, err := svc.AddDependency(a.ID, AddDependencyRequest{DependsOn: target})
				requireKind(t, err, KindInvalidRequest)
			})
		}
		t.Run("cycle", func(t *testing.T) {
			_, err := svc.AddDependency(b.ID, AddDependencyRequest{DependsOn: a.ID})
			requireKind(t, err, KindInvalidRequest)
		})
	})

	t.Run("remove clears both endpoints", func(t *testing.T) {
		seedRecommendation(t, store, a.ID)
		seedRecommendation(t, store, b.ID)
		got, err := svc.RemoveDependency(a.ID, b.ID)
		require.NoError(t, err)
		assert.Empty(t, got.DependsOn)
		assert.Empty(t, got.DependencyReasons)
		assert.Nil(t, got.PriorityRecommendation)

		stored, err := store.GetStory(b.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.PriorityRecommendation)

		_, err = svc.RemoveDependency(a.ID, b.ID)
		requireKind(t, err, KindNotFound)
	})
}

func TestDeleteStory_StripsEdgesAndDensifies(t *testing.T) {
	svc, store := newTestService(t, nil)
	prd := mustPRD(t, svc, "")
	a := mustStory(t, svc, prd.ID, "A")
	b := mustStory(t, svc, prd.ID, "B")
	c := mustStory(t, svc, prd.ID, "C")
	_, err := svc.AddDependency(c.ID, AddDependencyRequest{DependsOn: b.ID, Reason: "r"})
	require.NoError(t, err)
	seedRecommendation(t, store, c.ID)
	seedRecommendation(t, store, a.ID)

	require.NoError(t, svc.DeleteStory(b.ID))

	got, err := svc.GetPRD(prd.ID)
	require.NoError(t, err)
	require.Len(t, got.Stories, 2)
	assert.Equal(t, a.ID, got.Stories[0].ID)
	assert.Equal(t, 0, got.Stories[0].SortOrder)
	assert.NotNil(t, got.Stories[0].PriorityRecommendation)
	assert.Equal(t, c.ID, got.Stories[1].ID)
	assert.Equal(t, 1, got.Stories[1].SortOrder)
	assert.Empty(t, got.Stories[1].DependsOn)
	assert.Empty(t, got.Stories[1].DependencyReasons)
	assert.Nil(t, got.Stories[1].PriorityRecommendation)

	requireKind(t, svc.DeleteStory(b.ID), KindNotFound)
}

func TestReorderStories(t *testing.T) {
	svc, _ := newTestService(t, nil)
	prd := mustPRD(t, svc, "")
	a := mustStory(t, svc, prd.ID, "A")
	b := mustStory(t, svc, prd.ID, "B")
	c := mustStory(t, svc, prd.ID, "C")

	got, err := svc.ReorderStories(prd.ID, []string{c.ID, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, got, 3)

	stored, err := svc.GetPRD(prd.ID)
	require.NoError(t, err)
	ids := []string{stored.Stories[0].ID, stored.Stories[1].ID, stored.Stories[2].ID}
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, ids)

	tests := []struct {
		name string
		ids  []string
	}{
		{"missing one", []string{a.ID, b.ID}},
		{"duplicate", []string{a.ID, a.ID, b.ID}},
		{"foreign", []string{a.ID, b.ID, "story-x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ReorderStories(prd.ID, tt.ids)
			requireKind(t, err, KindInvalidRequest)
		})
	}
}

func TestStatusLearningsAttempts(t *testing.T) {
	svc, _ := newTestService(t, nil)
	prd := mustPRD(t, svc, "")
	st := mustStory(t, svc, prd.ID, "A")

	got, err := svc.RecordAttempt(st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, story.StatusInProgress, got.Status)

	got, err = svc.AddLearning(st.ID, "  use the sandbox key  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"use the sandbox key"}, got.Learnings)

	_, err = svc.AddLearning(st.ID, " ")
	requireKind(t, err, KindInvalidRequest)

	got, err = svc.SetStatus(st.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, story.StatusCompleted, got.Status)

	_, err = svc.SetStatus(st.ID, "done")
	requireKind(t, err, KindInvalidRequest)
	_, err = svc.SetStatus("story-nope", "pending")
	requireKind(t, err, KindNotFound)
}

func TestSetEstimate(t *testing.T) {
	svc, _ := newTestService(t, nil)
	prd := mustPRD(t, svc, "")
	st := mustStory(t, svc, prd.ID, "A")

	got, err := svc.SetEstimate(st.ID, EstimateRequest{Size: "large", StoryPoints: 8, Reasoning: "new gateway"})
	require.NoError(t, err)
	require.NotNil(t, got.Estimate)
	assert.Equal(t, story.SizeLarge, got.Estimate.Size)
	assert.Equal(t, story.ConfidenceHigh, got.Estimate.Confidence)
	assert.Equal(t, 100, got.Estimate.ConfidenceScore)
	assert.True(t, got.Estimate.IsManualOverride)

	_, err = svc.SetEstimate(st.ID, EstimateRequest{Size: "huge"})
	requireKind(t, err, KindInvalidRequest)
}

func TestMemories(t *testing.T) {
	svc, _ := newTestService(t, nil)

	low := 0.1
	_, err := svc.AddMemory(MemoryRequest{WorkspacePath: "/ws", Category: "convention", Content: "use sqlc", Confidence: &low})
	require.NoError(t, err)
	_, err = svc.AddMemory(MemoryRequest{WorkspacePath: "/ws", Category: "convention", Content: "prefer table tests"})
	require.NoError(t, err)

	got, err := svc.ListMemories("/ws", -1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "prefer table tests", got[0].Content)
	assert.Equal(t, 1.0, got[0].Confidence)

	bad := 2.0
	_, err = svc.AddMemory(MemoryRequest{WorkspacePath: "/ws", Content: "x", Confidence: &bad})
	requireKind(t, err, KindInvalidRequest)
}

func TestNextStory(t *testing.T) {
	svc, _ := newTestService(t, nil)
	prd := mustPRD(t, svc, "")
	a := mustStory(t, svc, prd.ID, "A")
	b := mustStory(t, svc, prd.ID, "B")
	_, err := svc.AddDependency(b.ID, AddDependencyRequest{DependsOn: a.ID})
	require.NoError(t, err)
	critical := "critical"
	_, err = svc.UpdateStory(b.ID, UpdateStoryRequest{Priority: &critical})
	require.NoError(t, err)

	next, err := svc.NextStory(prd.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, a.ID, next.ID, "blocked critical story waits for its prerequisite")

	_, err = svc.SetStatus(a.ID, "completed")
	require.NoError(t, err)
	next, err = svc.NextStory(prd.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, next.ID)

	_, err = svc.SetStatus(b.ID, "completed")
	require.NoError(t, err)
	next, err = svc.NextStory(prd.ID)
	require.NoError(t, err)
	assert.Nil(t, next)

	_, err = svc.NextStory("prd-missing")
	requireKind(t, err, KindNotFound)
}
