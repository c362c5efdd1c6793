// Package store provides the canonical task collection for taskdeck, with
// SQLite-backed snapshot persistence.
//
// The store is the sole owner of every task. All mutation entry points
// (status change, progress slider, manual date entry, report submission,
// field edits) go through store methods, which run the engine's
// reconciliation rules and then persist the whole collection as one JSON
// array under a single key. Consumers only ever receive copies.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"taskdeck/internal/engine"
	"taskdeck/internal/models"
)

const tasksKey = "tasks"

// Sentinel errors for store operations.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrBadImport          = errors.New("import data is not a task list")
	ErrProgressOutOfRange = errors.New("progress must be between 0 and 100")
	ErrBadStatus          = errors.New("unknown status")
	ErrBadPriority        = errors.New("unknown priority")
	ErrBadDate            = errors.New("date must be YYYY-MM-DD")
	ErrUnknownField       = errors.New("unknown field")
)

// Store owns the ordered task collection and its persistence round-trip.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	tasks []models.Task

	now func() time.Time
}

// New opens (or creates) the database at dbPath and loads the task snapshot.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// SetClock overrides the wall clock. Tests use this to pin "today".
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) load() error {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, tasksKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &s.tasks); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}

// persist writes the full collection snapshot. Callers must hold s.mu.
func (s *Store) persist() error {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		tasksKey, string(data),
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *Store) today() string {
	return s.now().Format(models.DateLayout)
}

// Today returns the store clock's current date, for callers that need to
// share the store's idea of "today" (extraction, export naming).
func (s *Store) Today() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.today()
}

// indexOf returns the position of the task with the given id, or -1.
// Callers must hold s.mu.
func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// --- Reads ---

// List returns a copy of the collection in insertion order.
func (s *Store) List() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}
	return s.tasks[i].Clone(), nil
}

// View runs the derivation pipeline against the current collection.
func (s *Store) View(q engine.Query) []models.Task {
	return engine.View(s.List(), q)
}

// Summarize computes the urgency statistics for the current collection.
func (s *Store) Summarize() engine.Summary {
	return engine.Summarize(s.List(), s.today())
}

// DueStatusOf classifies one task against the store's clock.
func (s *Store) DueStatusOf(t models.Task) models.DueStatus {
	return engine.DueStatusOf(t, s.today())
}

// --- Mutations ---

// Create appends a new task built from a proposal. New tasks always start
// not-started with zero progress and no reports or sync flags.
func (s *Store) Create(p models.Proposal) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Priority == "" {
		p.Priority = models.PriorityMedium
	}
	if !p.Priority.IsValid() {
		return models.Task{}, ErrBadPriority
	}
	if err := checkDate(p.TargetDate); err != nil {
		return models.Task{}, err
	}

	t := models.Task{
		ID:           uuid.New().String(),
		TaskNumber:   engine.NextTaskNumber(s.tasks, s.now()),
		AssignedDate: s.today(),
		System:       p.System,
		Category:     p.Category,
		Assigner:     p.Assigner,
		Assignee:     p.Assignee,
		Content:      p.Content,
		TargetDate:   p.TargetDate,
		Status:       models.StatusNotStarted,
		Progress:     0,
		Priority:     p.Priority,
		Tags:         append([]string(nil), p.Tags...),
		Reports:      []models.ReportEntry{},
	}
	s.tasks = append(s.tasks, t)
	if err := s.persist(); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return models.Task{}, err
	}
	return t.Clone(), nil
}

// SetStatus changes a task's status through the reconciliation rules.
func (s *Store) SetStatus(id string, status models.TaskStatus) (models.Task, error) {
	if !status.IsValid() {
		return models.Task{}, ErrBadStatus
	}
	return s.apply(id, func(t models.Task) (models.Task, error) {
		return engine.SetStatus(t, status, s.today()), nil
	})
}

// SetProgress changes a task's progress through the reconciliation rules.
func (s *Store) SetProgress(id string, progress int) (models.Task, error) {
	if progress < 0 || progress > 100 {
		return models.Task{}, ErrProgressOutOfRange
	}
	return s.apply(id, func(t models.Task) (models.Task, error) {
		return engine.SetProgress(t, progress, s.today()), nil
	})
}

// SetCompletedDate records or clears a manual completion date.
func (s *Store) SetCompletedDate(id, date string) (models.Task, error) {
	if err := checkDate(date); err != nil {
		return models.Task{}, err
	}
	return s.apply(id, func(t models.Task) (models.Task, error) {
		return engine.SetCompletedDate(t, date), nil
	})
}

// SubmitReport records a progress report against a task. The reporter is the
// task's assignee at submit time. An empty report with unchanged progress is
// not appended but still runs the reconciliation rules.
func (s *Store) SubmitReport(id string, progress int, content string) (models.Task, error) {
	if progress < 0 || progress > 100 {
		return models.Task{}, ErrProgressOutOfRange
	}
	return s.apply(id, func(t models.Task) (models.Task, error) {
		rep := models.ReportEntry{
			ID:        uuid.New().String(),
			Date:      s.today(),
			Reporter:  t.Assignee,
			Content:   content,
			Progress:  progress,
			Timestamp: s.now().UnixMilli(),
		}
		t, appendEntry := engine.ApplyReport(t, rep)
		if appendEntry {
			t.Reports = append(t.Reports, rep)
		}
		return t, nil
	})
}

// EditField updates a descriptive field with no cross-field effect.
func (s *Store) EditField(id, field, value string) (models.Task, error) {
	return s.apply(id, func(t models.Task) (models.Task, error) {
		switch field {
		case "content":
			t.Content = value
		case "notes":
			t.Notes = value
		case "assignee":
			t.Assignee = value
		case "assigner":
			t.Assigner = value
		case "system":
			t.System = value
		case "category":
			t.Category = value
		case "assignedDate":
			if err := checkDate(value); err != nil {
				return t, err
			}
			t.AssignedDate = value
		case "targetDate":
			if err := checkDate(value); err != nil {
				return t, err
			}
			t.TargetDate = value
		case "priority":
			p := models.Priority(value)
			if !p.IsValid() {
				return t, ErrBadPriority
			}
			t.Priority = p
		default:
			return t, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		return t, nil
	})
}

// SetTags replaces a task's tag list.
func (s *Store) SetTags(id string, tags []string) (models.Task, error) {
	return s.apply(id, func(t models.Task) (models.Task, error) {
		t.Tags = append([]string(nil), tags...)
		return t, nil
	})
}

// MarkSynced records a successful sync dispatch for a task. The flags are
// only ever raised here; they reset solely through task deletion.
func (s *Store) MarkSynced(id string, sheet, calendar bool) (models.Task, error) {
	return s.apply(id, func(t models.Task) (models.Task, error) {
		if sheet {
			t.SyncedSheet = true
		}
		if calendar {
			t.SyncedCalendar = true
		}
		return t, nil
	})
}

// Delete removes a task after user confirmation at the caller.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	if err := s.persist(); err != nil {
		s.tasks = append(s.tasks[:i], append([]models.Task{removed}, s.tasks[i:]...)...)
		return err
	}
	return nil
}

// apply looks up a task, runs fn on a copy, stores the result, and persists.
func (s *Store) apply(id string, fn func(models.Task) (models.Task, error)) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}
	updated, err := fn(s.tasks[i].Clone())
	if err != nil {
		return models.Task{}, err
	}
	prev := s.tasks[i]
	s.tasks[i] = updated
	if err := s.persist(); err != nil {
		s.tasks[i] = prev
		return models.Task{}, err
	}
	return updated.Clone(), nil
}

// --- Import / export ---

// ExportJSON returns the whole collection as an indented JSON array, the
// same shape the snapshot and import use.
func (s *Store) ExportJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(s.tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// ImportJSON replaces the collection wholesale. The payload must be a JSON
// array of tasks; anything else leaves the store untouched and returns
// ErrBadImport.
func (s *Store) ImportJSON(data []byte) (int, error) {
	var incoming []models.Task
	if err := json.Unmarshal(data, &incoming); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadImport, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.tasks
	if incoming == nil {
		incoming = []models.Task{}
	}
	s.tasks = incoming
	if err := s.persist(); err != nil {
		s.tasks = prev
		return 0, err
	}
	return len(incoming), nil
}

func checkDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return ErrBadDate
	}
	return nil
}
