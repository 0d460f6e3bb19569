package memory

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/josephgoksu/StoryWing/internal/templates"
)

const templateColumns = `id, name, description, category, title_template, description_template,
	criteria_templates, default_priority, tags, is_built_in, created_at, updated_at`

// SeedTemplates inserts each template unless a row with its id exists.
// It returns how many rows were added.
func (q queries) SeedTemplates(list []templates.Template, now time.Time) (int, error) {
	added := 0
	for i := range list {
		t := list[i]
		t.CreatedAt, t.UpdatedAt = now, now
		args, err := templateArgs(&t)
		if err != nil {
			return added, err
		}
		res, err := q.q.Exec(`INSERT OR IGNORE INTO templates (`+templateColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		if err != nil {
			return added, fmt.Errorf("seed template %s: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}

// InsertTemplate stores a new template.
func (q queries) InsertTemplate(t *templates.Template) error {
	args, err := templateArgs(t)
	if err != nil {
		return err
	}
	if _, err := q.q.Exec(`INSERT INTO templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...); err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

// UpdateTemplate rewrites a template's content. is_built_in is never
// changed.
func (q queries) UpdateTemplate(t *templates.Template) error {
	criteria, err := toJSON(nonNil(t.AcceptanceCriteriaTemplates))
	if err != nil {
		return err
	}
	tags, err := toJSON(nonNil(t.Tags))
	if err != nil {
		return err
	}
	res, err := q.q.Exec(`
		UPDATE templates SET name = ?, description = ?, category = ?, title_template = ?,
			description_template = ?, criteria_templates = ?, default_priority = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, t.Description, t.Category, t.TitleTemplate, t.DescriptionTemplate,
		criteria, string(t.DefaultPriority), tags, formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return affected(res, "template", t.ID)
}

// GetTemplate returns a template by id.
func (q queries) GetTemplate(id string) (*templates.Template, error) {
	t, err := scanTemplate(q.q.QueryRow(`SELECT `+templateColumns+` FROM templates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query template: %w", err)
	}
	return t, nil
}

// ListTemplates returns built-ins first, then custom templates in creation order.
func (q queries) ListTemplates() ([]templates.Template, error) {
	rows, err := q.q.Query(`SELECT ` + templateColumns + ` FROM templates ORDER BY is_built_in DESC, created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	list := []templates.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		list = append(list, *t)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return list, nil
}

// DeleteTemplate removes a custom template. Built-in rows are never
// matched, so deleting one reports ErrNotFound; callers check first.
func (q queries) DeleteTemplate(id string) error {
	res, err := q.q.Exec(`DELETE FROM templates WHERE id = ? AND is_built_in = 0`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return affected(res, "template", id)
}

func templateArgs(t *templates.Template) ([]any, error) {
	criteria, err := toJSON(nonNil(t.AcceptanceCriteriaTemplates))
	if err != nil {
		return nil, err
	}
	tags, err := toJSON(nonNil(t.Tags))
	if err != nil {
		return nil, err
	}
	return []any{
		t.ID, t.Name, t.Description, t.Category, t.TitleTemplate, t.DescriptionTemplate,
		criteria, string(t.DefaultPriority), tags, boolInt(t.IsBuiltIn), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	}, nil
}

func scanTemplate(row scanner) (*templates.Template, error) {
	var t templates.Template
	var criteria, tags, createdAt, updatedAt string
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.TitleTemplate, &t.DescriptionTemplate,
		&criteria, &t.DefaultPriority, &tags, &t.IsBuiltIn, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(criteria), &t.AcceptanceCriteriaTemplates); err != nil {
		return nil, fmt.Errorf("decode criteria templates: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	t.AcceptanceCriteriaTemplates = nonNil(t.AcceptanceCriteriaTemplates)
	t.Tags = nonNil(t.Tags)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}
