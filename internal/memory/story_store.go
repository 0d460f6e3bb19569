package memory

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/josephgoksu/StoryWing/internal/story"
)

const storyColumns = `id, prd_id, workspace_path, title, description, priority, status,
	acceptance_criteria, depends_on, dependency_reasons, sort_order, attempts, max_attempts,
	learnings, priority_recommendation, estimate, external_ref, created_at, updated_at`

// storyArgs encodes every column of s, in storyColumns order.
func storyArgs(s *story.Story) ([]any, error) {
	criteria, err := toJSON(nonNil(s.AcceptanceCriteria))
	if err != nil {
		return nil, err
	}
	deps, err := toJSON(nonNil(s.DependsOn))
	if err != nil {
		return nil, err
	}
	reasons := s.DependencyReasons
	if reasons == nil {
		reasons = map[string]string{}
	}
	reasonsJSON, err := toJSON(reasons)
	if err != nil {
		return nil, err
	}
	learnings, err := toJSON(nonNil(s.Learnings))
	if err != nil {
		return nil, err
	}
	rec, err := nullJSON(s.PriorityRecommendation)
	if err != nil {
		return nil, err
	}
	est, err := nullJSON(s.Estimate)
	if err != nil {
		return nil, err
	}
	ref, err := nullJSON(s.ExternalRef)
	if err != nil {
		return nil, err
	}
	return []any{
		s.ID, nullString(s.PRDID), s.WorkspacePath, s.Title, s.Description, string(s.Priority), string(s.Status),
		criteria, deps, reasonsJSON, s.SortOrder, s.Attempts, s.MaxAttempts,
		learnings, rec, est, ref, formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	}, nil
}

// InsertStory stores a new story as given, including its sort order.
func (q queries) InsertStory(s *story.Story) error {
	args, err := storyArgs(s)
	if err != nil {
		return err
	}
	if _, err := q.q.Exec(`INSERT INTO stories (`+storyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...); err != nil {
		return fmt.Errorf("insert story %s: %w", s.Title, err)
	}
	return nil
}

// UpdateStory rewrites every column of an existing story.
func (q queries) UpdateStory(s *story.Story) error {
	args, err := storyArgs(s)
	if err != nil {
		return err
	}
	// Everything but id and created_at, then id for the WHERE clause.
	set := make([]any, 0, len(args))
	set = append(set, args[1:len(args)-2]...)
	set = append(set, args[len(args)-1], s.ID)
	res, err := q.q.Exec(`
		UPDATE stories SET
			prd_id = ?, workspace_path = ?, title = ?, description = ?, priority = ?, status = ?,
			acceptance_criteria = ?, depends_on = ?, dependency_reasons = ?, sort_order = ?,
			attempts = ?, max_attempts = ?, learnings = ?, priority_recommendation = ?,
			estimate = ?, external_ref = ?, updated_at = ?
		WHERE id = ?
	`, set...)
	if err != nil {
		return fmt.Errorf("update story: %w", err)
	}
	return affected(res, "story", s.ID)
}

// GetStory returns a story by id.
func (q queries) GetStory(id string) (*story.Story, error) {
	s, err := scanStory(q.q.QueryRow(`SELECT `+storyColumns+` FROM stories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query story: %w", err)
	}
	return s, nil
}

// ListStories returns a PRD's stories in sort order.
func (q queries) ListStories(prdID string) ([]story.Story, error) {
	return q.listStories(`WHERE prd_id = ?`, prdID)
}

// ListStandaloneStories returns a workspace's stories that have no PRD.
func (q queries) ListStandaloneStories(workspace string) ([]story.Story, error) {
	return q.listStories(`WHERE prd_id IS NULL AND workspace_path = ?`, workspace)
}

// ListScope returns every story sharing s's parent scope, s included.
func (q queries) ListScope(s *story.Story) ([]story.Story, error) {
	if s.Standalone() {
		return q.ListStandaloneStories(s.WorkspacePath)
	}
	return q.ListStories(s.PRDID)
}

func (q queries) listStories(where string, args ...any) ([]story.Story, error) {
	rows, err := q.q.Query(`SELECT `+storyColumns+` FROM stories `+where+` ORDER BY sort_order, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stories := []story.Story{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, *s)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return stories, nil
}

// NextSortOrder returns max(sort_order)+1 in the scope, or 0 when empty.
// Call it in the same transaction as the insert.
func (q queries) NextSortOrder(prdID, workspace string) (int, error) {
	var next int
	var err error
	if prdID != "" {
		err = q.q.QueryRow(`SELECT COALESCE(MAX(sort_order), -1) + 1 FROM stories WHERE prd_id = ?`, prdID).Scan(&next)
	} else {
		err = q.q.QueryRow(`SELECT COALESCE(MAX(sort_order), -1) + 1 FROM stories WHERE prd_id IS NULL AND workspace_path = ?`, workspace).Scan(&next)
	}
	if err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	return next, nil
}

// SetSortOrder moves one story.
func (q queries) SetSortOrder(id string, order int, now time.Time) error {
	res, err := q.q.Exec(`UPDATE stories SET sort_order = ?, updated_at = ? WHERE id = ?`, order, formatTime(now), id)
	if err != nil {
		return fmt.Errorf("set sort order: %w", err)
	}
	return affected(res, "story", id)
}

// SetRecommendation replaces a story's recommendation wholesale. nil clears.
func (q queries) SetRecommendation(id string, rec *story.PriorityRecommendation, now time.Time) error {
	val, err := nullJSON(rec)
	if err != nil {
		return err
	}
	res, err := q.q.Exec(`UPDATE stories SET priority_recommendation = ?, updated_at = ? WHERE id = ?`, val, formatTime(now), id)
	if err != nil {
		return fmt.Errorf("set recommendation: %w", err)
	}
	return affected(res, "story", id)
}

// ClearRecommendations nulls the recommendation of every listed story and
// returns how many actually had one.
func (q queries) ClearRecommendations(ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, formatTime(now))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := q.q.Exec(`
		UPDATE stories SET priority_recommendation = NULL, updated_at = ?
		WHERE priority_recommendation IS NOT NULL AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("clear recommendations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DeleteStory removes a story row. Edges pointing at it are the caller's
// responsibility.
func (q queries) DeleteStory(id string) error {
	res, err := q.q.Exec(`DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	return affected(res, "story", id)
}

func scanStory(row scanner) (*story.Story, error) {
	var s story.Story
	var prdID, rec, est, ref sql.NullString
	var criteria, deps, reasons, learnings, createdAt, updatedAt string
	if err := row.Scan(&s.ID, &prdID, &s.WorkspacePath, &s.Title, &s.Description, &s.Priority, &s.Status,
		&criteria, &deps, &reasons, &s.SortOrder, &s.Attempts, &s.MaxAttempts,
		&learnings, &rec, &est, &ref, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.PRDID = prdID.String

	for _, col := range []struct {
		raw  string
		dest any
	}{
		{criteria, &s.AcceptanceCriteria},
		{deps, &s.DependsOn},
		{reasons, &s.DependencyReasons},
		{learnings, &s.Learnings},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return nil, fmt.Errorf("decode story %s: %w", s.ID, err)
		}
	}
	s.AcceptanceCriteria = nonNil(s.AcceptanceCriteria)
	s.DependsOn = nonNil(s.DependsOn)
	s.Learnings = nonNil(s.Learnings)
	if s.DependencyReasons == nil {
		s.DependencyReasons = map[string]string{}
	}

	var err error
	if s.PriorityRecommendation, err = fromNullJSON[story.PriorityRecommendation](rec); err != nil {
		return nil, err
	}
	if s.Estimate, err = fromNullJSON[story.Estimate](est); err != nil {
		return nil, err
	}
	if s.ExternalRef, err = fromNullJSON[story.ExternalRef](ref); err != nil {
		return nil, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}
