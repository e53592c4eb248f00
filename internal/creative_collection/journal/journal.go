// Package journal keeps a local sqlite record of submitted collection tasks and how they ended.
// A Store is a task observer: register it on the task controller and every lifecycle event
// updates the task's row.
package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/logger"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown task id.
var ErrNotFound = errors.New("journal: task not found")

const timeLayout = time.RFC3339Nano

// Entry is one journaled task.
type Entry struct {
	TaskID      string               `json:"task_id"`
	VideoURL    string               `json:"video_url"`
	Status      models.TaskStatus    `json:"status"`
	Progress    int                  `json:"progress"`
	LastEvent   models.TaskEventKind `json:"last_event"`
	Message     string               `json:"message,omitempty"`
	SubmittedAt time.Time            `json:"submitted_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Store is the sqlite journal.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// Open opens or creates the journal at path.
func Open(path string, log *logger.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.Wrapf(err, "journal: mkdir %s", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "journal: open db")
	}
	db.SetMaxOpenConns(1) // sqlite: single writer
	if err := migrate(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "journal: init schema")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Store{db: db, log: log}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS tasks (
		task_id      TEXT PRIMARY KEY,
		video_url    TEXT NOT NULL,
		status       TEXT NOT NULL,
		progress     INTEGER NOT NULL DEFAULT 0,
		last_event   TEXT NOT NULL,
		message      TEXT NOT NULL DEFAULT '',
		submitted_at TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_submitted_at ON tasks (submitted_at)`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// OnTaskEvent records ev. Write failures are logged, never returned to the controller.
func (s *Store) OnTaskEvent(ev models.TaskEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Record(ctx, ev); err != nil {
		s.log.WithTask(ev.TaskID).WithError(err).Warn("Failed to journal task event")
	}
}

// Record inserts the task on its first event and updates status, progress and the last event
// afterwards. The submission time and URL of an existing row are kept.
func (s *Store) Record(ctx context.Context, ev models.TaskEvent) error {
	if ev.TaskID == "" {
		return errors.New("journal: event without task id")
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	ts := at.UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (task_id, video_url, status, progress, last_event, message, submitted_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET
		   status = excluded.status,
		   progress = excluded.progress,
		   last_event = excluded.last_event,
		   message = excluded.message,
		   updated_at = excluded.updated_at`,
		ev.TaskID, ev.VideoURL, string(ev.Status), ev.Progress, string(ev.Kind), ev.Message, ts, ts,
	)
	return errors.Wrap(err, "journal: record event")
}

// Get returns the entry for taskID.
func (s *Store) Get(ctx context.Context, taskID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT task_id, video_url, status, progress, last_event, message, submitted_at, updated_at
		 FROM tasks WHERE task_id = ?`, taskID)
	e, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Recent returns up to limit entries, newest submission first. limit <= 0 means 50.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, video_url, status, progress, last_event, message, submitted_at, updated_at
		 FROM tasks ORDER BY submitted_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "journal: query recent")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, errors.Wrap(rows.Err(), "journal: iterate rows")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(r scanner) (*Entry, error) {
	var (
		e                    Entry
		status, kind         string
		submitted, updatedAt string
	)
	if err := r.Scan(&e.TaskID, &e.VideoURL, &status, &e.Progress, &kind, &e.Message, &submitted, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "journal: scan row")
	}
	e.Status = models.TaskStatus(status)
	e.LastEvent = models.TaskEventKind(kind)
	e.SubmittedAt, _ = time.Parse(timeLayout, submitted)
	e.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &e, nil
}
