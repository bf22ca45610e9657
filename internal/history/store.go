// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite log of formatting runs: the settings
// used, the run report counts and every citation detected.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// defaultLimit bounds List when no limit is given.
const defaultLimit = 20

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			input_path TEXT NOT NULL,
			output_path TEXT,
			status TEXT NOT NULL,
			error TEXT,
			font_size INTEGER,
			line_spacing TEXT,
			figure_width REAL,
			paragraphs INTEGER,
			body_paragraphs INTEGER,
			figures INTEGER,
			tables INTEGER,
			citations INTEGER,
			placed_figures INTEGER,
			placed_tables INTEGER,
			placeholders INTEGER,
			skipped_citations INTEGER,
			warnings TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS citations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			number TEXT NOT NULL,
			position INTEGER NOT NULL,
			matched_text TEXT,
			context TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_run_id ON citations(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a run with its citations and returns its id. A run
// without an id gets a new UUID; a zero StartedAt becomes now.
func (s *Store) Record(ctx context.Context, run types.RunRecord) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	warningsJSON, _ := json.Marshal(run.Report.Warnings)
	r := run.Report
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, input_path, output_path, status, error,
			font_size, line_spacing, figure_width,
			paragraphs, body_paragraphs, figures, tables, citations,
			placed_figures, placed_tables, placeholders, skipped_citations, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.InputPath, run.OutputPath,
		string(run.Status), run.Error,
		run.Config.FontSize, run.Config.LineSpacing, run.Config.FigureWidth,
		r.Paragraphs, r.BodyParagraphs, r.Figures, r.Tables, r.Citations,
		r.PlacedFigures, r.PlacedTables, r.Placeholders, r.SkippedCitations,
		string(warningsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citations (run_id, kind, number, position, matched_text, context)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range run.Citations {
		if _, err := stmt.ExecContext(ctx,
			run.ID, string(c.Kind), c.Number, c.Position, c.MatchedText, c.Context,
		); err != nil {
			return "", fmt.Errorf("inserting citation %s: %w", c.Label(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

const runColumns = `id, started_at, input_path, output_path, status, error,
	font_size, line_spacing, figure_width,
	paragraphs, body_paragraphs, figures, tables, citations,
	placed_figures, placed_tables, placeholders, skipped_citations, warnings`

// List returns the most recent runs, newest first, with their citations.
// A non-positive limit uses the default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		citations, err := s.citations(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Citations = citations
	}
	return runs, nil
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (*types.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if run.Citations, err = s.citations(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (types.RunRecord, error) {
	var (
		run                                      types.RunRecord
		startedAt, status                        string
		outputPath, errText, lineSpace, warnings sql.NullString
		fontSize                                 sql.NullInt64
		figureWidth                              sql.NullFloat64
	)
	r := &run.Report
	err := row.Scan(&run.ID, &startedAt, &run.InputPath, &outputPath, &status, &errText,
		&fontSize, &lineSpace, &figureWidth,
		&r.Paragraphs, &r.BodyParagraphs, &r.Figures, &r.Tables, &r.Citations,
		&r.PlacedFigures, &r.PlacedTables, &r.Placeholders, &r.SkippedCitations, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("scanning run: %w", err)
	}

	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	run.Status = types.RunStatus(status)
	run.OutputPath = outputPath.String
	run.Error = errText.String
	run.Config = types.FormatConfig{
		FontSize:    int(fontSize.Int64),
		LineSpacing: lineSpace.String,
		FigureWidth: figureWidth.Float64,
	}
	if warnings.String != "" {
		_ = json.Unmarshal([]byte(warnings.String), &r.Warnings)
	}
	return run, nil
}

func (s *Store) citations(ctx context.Context, runID string) ([]types.Citation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, number, position, matched_text, context FROM citations
		 WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()

	var out []types.Citation
	for rows.Next() {
		var (
			c             types.Citation
			kind          string
			matched, ctxt sql.NullString
		)
		if err := rows.Scan(&kind, &c.Number, &c.Position, &matched, &ctxt); err != nil {
			return nil, fmt.Errorf("scanning citation: %w", err)
		}
		c.Kind = types.CitationKind(kind)
		c.MatchedText = matched.String
		c.Context = ctxt.String
		out = append(out, c)
	}
	return out, rows.Err()
}
