package infra

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func TestExtractMarker(t *testing.T) {
	q := `
--sql 6f1c2a9e-4b7d-4e55-9a1e-2d3c4b5a6f70
SELECT plan FROM users WHERE id = $1`
	marker, body, err := extractMarker(q)
	if err != nil {
		t.Fatalf("extractMarker: %v", err)
	}
	if marker != "6f1c2a9e-4b7d-4e55-9a1e-2d3c4b5a6f70" {
		t.Fatalf("marker = %q", marker)
	}
	if body != "SELECT plan FROM users WHERE id = $1" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUnmarkedQuery(t *testing.T) {
	for _, q := range []string{"SELECT 1", "--sql not-a-uuid\nSELECT 1", ""} {
		if _, _, err := extractMarker(q); err == nil {
			t.Fatalf("expected error for %q", q)
		}
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("load: %w", pgx.ErrNoRows)) {
		t.Fatalf("wrapped ErrNoRows not detected")
	}
	if IsNoRows(errors.New("boom")) || IsNoRows(nil) {
		t.Fatalf("unexpected match")
	}
}

type recordingQuerier struct {
	query string
	args  []any
	row   pgx.Row
}

func (q *recordingQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.query, q.args = sql, args
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (q *recordingQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.query, q.args = sql, args
	return q.row
}

type noRows struct{}

func (noRows) Scan(...any) error { return pgx.ErrNoRows }

func TestSQLRunnerStripsMarker(t *testing.T) {
	db := &recordingQuerier{row: noRows{}}
	runner := NewSQLRunner(db, zerolog.Nop())

	tag, err := runner.Exec(context.Background(), "--sql 6f1c2a9e-4b7d-4e55-9a1e-2d3c4b5a6f70\nUPDATE users SET plan = $1", "pro")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if tag.RowsAffected() != 1 || db.query != "UPDATE users SET plan = $1" || len(db.args) != 1 {
		t.Fatalf("unexpected exec: tag=%v query=%q args=%v", tag, db.query, db.args)
	}

	var plan string
	err = runner.QueryRow(context.Background(), "--sql 6f1c2a9e-4b7d-4e55-9a1e-2d3c4b5a6f70\nSELECT plan FROM users").Scan(&plan)
	if !IsNoRows(err) {
		t.Fatalf("expected no rows, got %v", err)
	}
}

func TestSQLRunnerRefusesUnmarkedQuery(t *testing.T) {
	db := &recordingQuerier{row: noRows{}}
	runner := NewSQLRunner(db, zerolog.Nop())

	if _, err := runner.Exec(context.Background(), "DELETE FROM users"); !errors.Is(err, errMissingMarker) {
		t.Fatalf("Exec err = %v", err)
	}
	if err := runner.QueryRow(context.Background(), "SELECT 1").Scan(); !errors.Is(err, errMissingMarker) {
		t.Fatalf("QueryRow err = %v", err)
	}
	if db.query != "" {
		t.Fatalf("unmarked query reached the database: %q", db.query)
	}
}
