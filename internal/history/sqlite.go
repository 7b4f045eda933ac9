package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	apperrors "marklens/internal/errors"
	"marklens/pkg/contracts/domain"
)

// SQLiteStore persists snapshots in a local SQLite database so exam
// history survives process restarts. Consolidated records are stored as
// a JSON document per snapshot; snapshots are read back whole, so there
// is nothing to join against.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	label      TEXT NOT NULL UNIQUE,
	exam_date  TIMESTAMP,
	class      TEXT,
	stream     TEXT,
	records    TEXT NOT NULL,
	summary    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS roster (
	student    TEXT PRIMARY KEY,
	first_seen TEXT NOT NULL REFERENCES snapshots(label)
);
`

// NewSQLiteStore opens (and if needed creates) the database at path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, apperrors.NewStorageError("open", fmt.Errorf("open sqlite database %s: %w", path, err))
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("migrate", fmt.Errorf("apply schema: %w", err))
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With(slog.String("component", "history_store")),
	}, nil
}

// AddSnapshot stores the snapshot and registers any students not yet in
// the roster. The roster keeps the canonical spelling a student first
// appeared under, so identities stay stable across exams.
func (s *SQLiteStore) AddSnapshot(ctx context.Context, snapshot domain.ExamSnapshot) (domain.ExamSnapshot, error) {
	if snapshot.Label == "" {
		return domain.ExamSnapshot{}, fmt.Errorf("snapshot label is required")
	}
	if snapshot.Records == nil || snapshot.Records.Len() == 0 {
		return domain.ExamSnapshot{}, fmt.Errorf("snapshot %q: %w", snapshot.Label, apperrors.ErrEmptyInput)
	}

	stored := snapshot.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	records, err := json.Marshal(stored.Records)
	if err != nil {
		return domain.ExamSnapshot{}, apperrors.NewStorageError("encode", err)
	}
	summary, err := json.Marshal(stored.Summary)
	if err != nil {
		return domain.ExamSnapshot{}, apperrors.NewStorageError("encode", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ExamSnapshot{}, apperrors.NewStorageError("begin", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, label, exam_date, class, stream, records, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(label) DO UPDATE SET
			id = excluded.id,
			exam_date = excluded.exam_date,
			class = excluded.class,
			stream = excluded.stream,
			records = excluded.records,
			summary = excluded.summary,
			created_at = excluded.created_at`,
		stored.ID, stored.Label, stored.ExamDate, stored.Class, stored.Stream,
		string(records), string(summary), stored.CreatedAt)
	if err != nil {
		return domain.ExamSnapshot{}, apperrors.NewStorageError("insert snapshot", err)
	}

	for _, student := range stored.Records.Students {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO roster (student, first_seen) VALUES (?, ?) ON CONFLICT(student) DO NOTHING`,
			student, stored.Label); err != nil {
			return domain.ExamSnapshot{}, apperrors.NewStorageError("update roster", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.ExamSnapshot{}, apperrors.NewStorageError("commit", err)
	}

	s.logger.InfoContext(ctx, "snapshot stored",
		slog.String("label", stored.Label),
		slog.Int("students", stored.Records.Len()))

	return stored, nil
}

func (s *SQLiteStore) Snapshot(ctx context.Context, label string) (domain.ExamSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, exam_date, class, stream, records, summary, created_at
		FROM snapshots WHERE label = ?`, label)

	var snapshot domain.ExamSnapshot
	var records, summary string
	var examDate sql.NullTime
	err := row.Scan(&snapshot.ID, &snapshot.Label, &examDate, &snapshot.Class,
		&snapshot.Stream, &records, &summary, &snapshot.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ExamSnapshot{}, fmt.Errorf("snapshot %q: %w", label, apperrors.ErrSnapshotNotFound)
	}
	if err != nil {
		return domain.ExamSnapshot{}, apperrors.NewStorageError("query snapshot", err)
	}
	if examDate.Valid {
		snapshot.ExamDate = examDate.Time
	}

	snapshot.Records = &domain.ConsolidatedSet{}
	if err := json.Unmarshal([]byte(records), snapshot.Records); err != nil {
		return domain.ExamSnapshot{}, apperrors.NewStorageError("decode records", err)
	}
	if err := json.Unmarshal([]byte(summary), &snapshot.Summary); err != nil {
		return domain.ExamSnapshot{}, apperrors.NewStorageError("decode summary", err)
	}
	return snapshot, nil
}

func (s *SQLiteStore) Labels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label FROM snapshots ORDER BY created_at, label`)
	if err != nil {
		return nil, apperrors.NewStorageError("query labels", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, apperrors.NewStorageError("scan label", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, label string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE label = ?`, label)
	if err != nil {
		return apperrors.NewStorageError("delete snapshot", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("snapshot %q: %w", label, apperrors.ErrSnapshotNotFound)
	}
	return nil
}

// Roster returns the known students and the snapshot label each first
// appeared under.
func (s *SQLiteStore) Roster(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT student, first_seen FROM roster`)
	if err != nil {
		return nil, apperrors.NewStorageError("query roster", err)
	}
	defer rows.Close()

	roster := make(map[string]string)
	for rows.Next() {
		var student, firstSeen string
		if err := rows.Scan(&student, &firstSeen); err != nil {
			return nil, apperrors.NewStorageError("scan roster", err)
		}
		roster[student] = firstSeen
	}
	return roster, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
