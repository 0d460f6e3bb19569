package memory

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/josephgoksu/StoryWing/internal/story"
)

const prdColumns = `id, workspace_path, name, description, branch_name, quality_checks, created_at, updated_at`

// InsertPRD stores a new PRD. Stories are not written.
func (q queries) InsertPRD(p *story.PRD) error {
	checks, err := toJSON(nonNil(p.QualityChecks))
	if err != nil {
		return err
	}
	if _, err := q.q.Exec(`INSERT INTO prds (`+prdColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.WorkspacePath, p.Name, p.Description, p.BranchName, checks,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt)); err != nil {
		return fmt.Errorf("insert prd: %w", err)
	}
	return nil
}

// GetPRD returns the PRD without its stories.
func (q queries) GetPRD(id string) (*story.PRD, error) {
	p, err := scanPRD(q.q.QueryRow(`SELECT `+prdColumns+` FROM prds WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prd %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query prd: %w", err)
	}
	return p, nil
}

// ListPRDs returns PRDs for a workspace, newest first. An empty workspace
// lists all.
func (q queries) ListPRDs(workspace string) ([]story.PRD, error) {
	query := `SELECT ` + prdColumns + ` FROM prds`
	var args []any
	if workspace != "" {
		query += ` WHERE workspace_path = ?`
		args = append(args, workspace)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := q.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	prds := []story.PRD{}
	for rows.Next() {
		p, err := scanPRD(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prd: %w", err)
		}
		prds = append(prds, *p)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, fmt.Errorf("list prds: %w", err)
	}
	return prds, nil
}

// UpdatePRD writes every mutable PRD column.
func (q queries) UpdatePRD(p *story.PRD) error {
	checks, err := toJSON(nonNil(p.QualityChecks))
	if err != nil {
		return err
	}
	res, err := q.q.Exec(`
		UPDATE prds SET name = ?, description = ?, branch_name = ?, quality_checks = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Description, p.BranchName, checks, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update prd: %w", err)
	}
	return affected(res, "prd", p.ID)
}

// TouchPRD bumps updated_at.
func (q queries) TouchPRD(id string, now time.Time) error {
	res, err := q.q.Exec(`UPDATE prds SET updated_at = ? WHERE id = ?`, formatTime(now), id)
	if err != nil {
		return fmt.Errorf("touch prd: %w", err)
	}
	return affected(res, "prd", id)
}

// DeletePRD removes a PRD; its stories go with it.
func (q queries) DeletePRD(id string) error {
	res, err := q.q.Exec(`DELETE FROM prds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete prd: %w", err)
	}
	return affected(res, "prd", id)
}

func scanPRD(row scanner) (*story.PRD, error) {
	var p story.PRD
	var checks, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.WorkspacePath, &p.Name, &p.Description, &p.BranchName,
		&checks, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(checks), &p.QualityChecks); err != nil {
		return nil, fmt.Errorf("decode quality checks: %w", err)
	}
	p.QualityChecks = nonNil(p.QualityChecks)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
