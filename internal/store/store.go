// Package store persists completed assessments and their answers in a
// local SQLite database. All multi-row writes run inside a single
// transaction; a failed write leaves nothing behind.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iandominoni/triagem/internal/model"
	"github.com/iandominoni/triagem/internal/risk"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by updates that matched no row.
var ErrNotFound = errors.New("store: not found")

// dateLayout is the human-readable timestamp form carried by read results.
const dateLayout = "02/01/2006 15:04"

const schemaVersion = "1"

type Store struct {
	db *sql.DB
}

// DefaultPath returns the per-user database location, creating the
// application data directory if needed. The database lives under the
// home directory, not alongside the executable, so repeated runs of a
// packaged binary share history.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".triagem")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_name TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		score INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		axis TEXT NOT NULL,
		question_id INTEGER NOT NULL,
		question_text TEXT NOT NULL,
		value INTEGER NOT NULL CHECK (value IN (0,1)),
		points INTEGER DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		assessment_id INTEGER,
		FOREIGN KEY (assessment_id) REFERENCES assessments(id)
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.SetMetadata("schema_version", schemaVersion)
}

// SaveAssessmentWithAnswers inserts the assessment and all its answers
// in a single transaction and returns the new assessment id. Answer
// values are normalized at ingress; timestamps are set here, not by the
// caller. Any failure rolls the whole write back.
func (s *Store) SaveAssessmentWithAnswers(patientName string, level risk.Level, score int, answers []model.Answer) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.Exec(
		`INSERT INTO assessments (patient_name, risk_level, score, created_at) VALUES (?, ?, ?, ?)`,
		patientName, string(level), score, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert assessment: %w", err)
	}
	assessmentID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, a := range answers {
		val := model.NormalizeValue(a.Value)
		_, err := tx.Exec(
			`INSERT INTO answers (axis, question_id, question_text, value, points, created_at, assessment_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.Axis, a.QuestionID, a.QuestionText, val.Int(), a.Points, now, assessmentID,
		)
		if err != nil {
			return 0, fmt.Errorf("insert answer %d: %w", a.QuestionID, err)
		}
	}

	return assessmentID, tx.Commit()
}

// UpdateAnswer sets a stored answer's value and refreshes its timestamp.
// The raw value is normalized first. Points and the owning assessment's
// score are deliberately left untouched, matching the historical
// behavior: a corrected answer does not re-derive the summary score.
// Returns ErrNotFound when no answer has that id.
func (s *Store) UpdateAnswer(answerID int64, raw any) error {
	val := model.NormalizeValue(raw)
	res, err := s.db.Exec(
		`UPDATE answers SET value = ?, created_at = ? WHERE id = ?`,
		val.Int(), time.Now(), answerID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAssessments returns assessments newest first. A limit <= 0 returns
// everything; offset applies only when a limit is given.
func (s *Store) ListAssessments(limit, offset int) ([]model.Assessment, error) {
	query := `SELECT id, patient_name, risk_level, score, created_at
		 FROM assessments ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssessments(rows)
}

// GetAssessment returns one assessment, or nil if the id is unknown.
func (s *Store) GetAssessment(id int64) (*model.Assessment, error) {
	var a model.Assessment
	var level string
	err := s.db.QueryRow(
		`SELECT id, patient_name, risk_level, score, created_at FROM assessments WHERE id = ?`, id,
	).Scan(&a.ID, &a.PatientName, &level, &a.Score, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.RiskLevel = risk.Level(level)
	a.Date = a.CreatedAt.Format(dateLayout)
	return &a, nil
}

// ListAnswersForAssessment returns all answers of one assessment,
// ordered by question id ascending.
func (s *Store) ListAnswersForAssessment(assessmentID int64) ([]model.Answer, error) {
	rows, err := s.db.Query(
		`SELECT id, axis, question_id, question_text, value, points, created_at
		 FROM answers WHERE assessment_id = ? ORDER BY question_id`, assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnswers(rows)
}

// ListAnswersForAxis returns answers for one axis. With assessmentID > 0
// results are scoped to that assessment and ordered by question id
// ascending; unscoped results span all assessments and come back by
// question id descending.
func (s *Store) ListAnswersForAxis(axis string, assessmentID int64) ([]model.Answer, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if assessmentID > 0 {
		rows, err = s.db.Query(
			`SELECT id, axis, question_id, question_text, value, points, created_at
			 FROM answers WHERE axis = ? AND assessment_id = ? ORDER BY question_id`, axis, assessmentID,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, axis, question_id, question_text, value, points, created_at
			 FROM answers WHERE axis = ? ORDER BY question_id DESC`, axis,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnswers(rows)
}

// CountAnswersByValue tallies yes/no answers for an axis, optionally
// scoped to one assessment. Axes with no rows count as zero.
func (s *Store) CountAnswersByValue(axis string, assessmentID int64) (yes, no int, err error) {
	query := `SELECT
			COALESCE(SUM(CASE WHEN value = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN value = 0 THEN 1 ELSE 0 END), 0)
		 FROM answers WHERE axis = ?`
	args := []any{axis}
	if assessmentID > 0 {
		query += ` AND assessment_id = ?`
		args = append(args, assessmentID)
	}
	err = s.db.QueryRow(query, args...).Scan(&yes, &no)
	return yes, no, err
}

// TotalAssessmentCount returns the number of stored assessments.
func (s *Store) TotalAssessmentCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM assessments`).Scan(&count)
	return count, err
}

// DeleteAssessment removes an assessment and its answers. Both deletes
// run in one transaction rather than relying on foreign-key cascade.
func (s *Store) DeleteAssessment(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM answers WHERE assessment_id = ?`, id); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM assessments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	return tx.Commit()
}

// ListOrphanAssessments returns assessments that have no answers,
// newest first.
func (s *Store) ListOrphanAssessments() ([]model.Assessment, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.patient_name, a.risk_level, a.score, a.created_at
		 FROM assessments a
		 LEFT JOIN answers r ON r.assessment_id = a.id
		 WHERE r.id IS NULL
		 ORDER BY a.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssessments(rows)
}

// ClearAll wipes both tables. Administrative and testing use only.
func (s *Store) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM answers`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM assessments`); err != nil {
		return err
	}
	return tx.Commit()
}

func scanAssessments(rows *sql.Rows) ([]model.Assessment, error) {
	var out []model.Assessment
	for rows.Next() {
		var a model.Assessment
		var level string
		if err := rows.Scan(&a.ID, &a.PatientName, &level, &a.Score, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.RiskLevel = risk.Level(level)
		a.Date = a.CreatedAt.Format(dateLayout)
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAnswers(rows *sql.Rows) ([]model.Answer, error) {
	var out []model.Answer
	for rows.Next() {
		var a model.Answer
		var val int
		if err := rows.Scan(&a.ID, &a.Axis, &a.QuestionID, &a.QuestionText, &val, &a.Points, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Value = model.ValueFromInt(val)
		out = append(out, a)
	}
	return out, rows.Err()
}
