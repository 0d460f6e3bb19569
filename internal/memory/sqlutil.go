package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// checkRowsErr checks for errors that may have occurred during row iteration.
// Call it after a for rows.Next() loop.
func checkRowsErr(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// toJSON encodes v for a NOT NULL JSON column.
func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode column: %w", err)
	}
	return string(b), nil
}

// nullJSON encodes v for a nullable JSON column. A nil pointer stores NULL.
func nullJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	s, err := toJSON(v)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// fromNullJSON decodes a nullable JSON column.
func fromNullJSON[T any](ns sql.NullString) (*T, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return nil, fmt.Errorf("decode column: %w", err)
	}
	return &v, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullString maps "" to NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// affected returns ErrNotFound when an update or delete touched no rows.
func affected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
