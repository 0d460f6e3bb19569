package memory

import (
	"fmt"

	"github.com/josephgoksu/StoryWing/internal/story"
)

// InsertMemory stores a workspace memory entry.
func (q queries) InsertMemory(e *story.MemoryEntry) error {
	if _, err := q.q.Exec(`
		INSERT INTO memories (id, workspace_path, category, key, content, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.WorkspacePath, e.Category, e.Key, e.Content, e.Confidence, formatTime(e.CreatedAt)); err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// ListMemories returns a workspace's entries with confidence at or above
// minConfidence, most confident first.
func (q queries) ListMemories(workspace string, minConfidence float64) ([]story.MemoryEntry, error) {
	rows, err := q.q.Query(`
		SELECT id, workspace_path, category, key, content, confidence, created_at
		FROM memories
		WHERE workspace_path = ? AND confidence >= ?
		ORDER BY confidence DESC, created_at
	`, workspace, minConfidence)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []story.MemoryEntry{}
	for rows.Next() {
		var e story.MemoryEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.WorkspacePath, &e.Category, &e.Key, &e.Content, &e.Confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return entries, nil
}
