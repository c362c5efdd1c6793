package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskdeck/internal/engine"
	"taskdeck/internal/models"
	"taskdeck/internal/store"
	"taskdeck/internal/syncer"
)

type fakeTransport struct {
	payloads []any
	err      error
}

func (f *fakeTransport) Dispatch(ctx context.Context, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeExtractor struct {
	proposal *models.Proposal
	err      error
}

func (f *fakeExtractor) Extract(ctx context.Context, text, today string) (*models.Proposal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.proposal, nil
}

func newTestServer(t *testing.T) (*Server, *store.Store, *fakeTransport) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.SetClock(func() time.Time {
		return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	})

	tr := &fakeTransport{}
	srv := New(s, syncer.New(s, tr), nil, "127.0.0.1:0")
	return srv, s, tr
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()

	switch {
	case path == "/health":
		srv.handleHealth(w, req)
	case path == "/stats":
		srv.handleStats(w, req)
	case path == "/export":
		srv.handleExport(w, req)
	case path == "/import":
		srv.handleImport(w, req)
	case path == "/extract":
		srv.handleExtract(w, req)
	case strings.HasPrefix(path, "/tasks/"):
		srv.handleTaskByID(w, req)
	default:
		srv.handleTasks(w, req)
	}
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestCreateAndGetTask(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/tasks", models.Proposal{Content: "Fix the printer", Assignee: "sato"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var task models.Task
	if err := json.NewDecoder(w.Body).Decode(&task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.TaskNumber != "0610-1" || task.Status != models.StatusNotStarted {
		t.Errorf("created task = %+v", task)
	}

	w = do(t, srv, http.MethodGet, "/tasks/"+task.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/tasks/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing task status = %d, want 404", w.Code)
	}
}

func TestListTasksWithQuery(t *testing.T) {
	srv, s, _ := newTestServer(t)
	s.Create(models.Proposal{Content: "Fix invoice", Assignee: "sato"})
	s.Create(models.Proposal{Content: "Restock labels", Assignee: "tanaka"})

	w := do(t, srv, http.MethodGet, "/tasks?assignee=sato", nil)
	var tasks []models.Task
	json.NewDecoder(w.Body).Decode(&tasks)
	if len(tasks) != 1 || tasks[0].Assignee != "sato" {
		t.Errorf("filtered tasks = %+v", tasks)
	}
}

func TestStatusEndpointReconciles(t *testing.T) {
	srv, s, _ := newTestServer(t)
	task, _ := s.Create(models.Proposal{Content: "x"})

	w := do(t, srv, http.MethodPost, "/tasks/"+task.ID+"/status", map[string]string{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got models.Task
	json.NewDecoder(w.Body).Decode(&got)
	if got.Progress != 100 || got.ActualCompletedDate != "2025-06-10" {
		t.Errorf("task = %+v", got)
	}

	w = do(t, srv, http.MethodPost, "/tasks/"+task.ID+"/status", map[string]string{"status": "very-done"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status code = %d, want 400", w.Code)
	}
}

func TestProgressValidation(t *testing.T) {
	srv, s, _ := newTestServer(t)
	task, _ := s.Create(models.Proposal{Content: "x"})

	w := do(t, srv, http.MethodPost, "/tasks/"+task.ID+"/progress", map[string]int{"progress": 150})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestReportEndpoint(t *testing.T) {
	srv, s, _ := newTestServer(t)
	task, _ := s.Create(models.Proposal{Content: "x", Assignee: "sato"})

	w := do(t, srv, http.MethodPost, "/tasks/"+task.ID+"/report",
		map[string]any{"progress": 100, "content": "shipped"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got models.Task
	json.NewDecoder(w.Body).Decode(&got)
	if got.Status != models.StatusCompleted || len(got.Reports) != 1 {
		t.Errorf("task = %+v", got)
	}
}

func TestSyncEndpoint(t *testing.T) {
	srv, s, tr := newTestServer(t)
	task, _ := s.Create(models.Proposal{Content: "x", TargetDate: "2025-06-20"})

	w := do(t, srv, http.MethodPost, "/tasks/"+task.ID+"/sync", map[string]string{"target": "sheet"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if len(tr.payloads) != 1 {
		t.Fatalf("dispatched %d payloads", len(tr.payloads))
	}
	var got models.Task
	json.NewDecoder(w.Body).Decode(&got)
	if !got.SyncedSheet {
		t.Error("task not marked sheet-synced")
	}

	w = do(t, srv, http.MethodPost, "/tasks/"+task.ID+"/sync", map[string]string{"target": "fax"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad target status = %d, want 400", w.Code)
	}
}

func TestSyncFailurePropagates(t *testing.T) {
	srv, s, tr := newTestServer(t)
	tr.err = errors.New("connection refused")
	task, _ := s.Create(models.Proposal{Content: "x"})

	w := do(t, srv, http.MethodPost, "/tasks/"+task.ID+"/sync", map[string]string{"target": "sheet"})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	got, _ := s.Get(task.ID)
	if got.SyncedSheet {
		t.Error("failed sync must not mark the task")
	}
}

func TestExtractEndpointCreatesTask(t *testing.T) {
	srv, s, tr := newTestServer(t)
	srv.extractor = &fakeExtractor{proposal: &models.Proposal{
		Content:         "Replace the label printer",
		Assignee:        "sato",
		ShouldSyncSheet: true,
	}}

	w := do(t, srv, http.MethodPost, "/extract", map[string]string{"text": "sato should replace the label printer"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if len(s.List()) != 1 {
		t.Fatal("task not created")
	}
	// Auto sheet sync ran because the proposal asked for it.
	if len(tr.payloads) != 1 {
		t.Errorf("auto sync dispatched %d payloads, want 1", len(tr.payloads))
	}
}

func TestExtractFailureCreatesNothing(t *testing.T) {
	srv, s, _ := newTestServer(t)
	srv.extractor = &fakeExtractor{err: errors.New("connection refused")}

	w := do(t, srv, http.MethodPost, "/extract", map[string]string{"text": "whatever"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if len(s.List()) != 0 {
		t.Error("no task may be created on extraction failure")
	}
}

func TestImportRejectsObject(t *testing.T) {
	srv, s, _ := newTestServer(t)
	s.Create(models.Proposal{Content: "keep"})

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(`{"not":"a list"}`))
	w := httptest.NewRecorder()
	srv.handleImport(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(s.List()) != 1 {
		t.Error("store must be unchanged after rejected import")
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, s, _ := newTestServer(t)
	s.Create(models.Proposal{Content: "late", Assignee: "sato", TargetDate: "2025-06-01"})

	w := do(t, srv, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var sum engine.Summary
	json.NewDecoder(w.Body).Decode(&sum)
	if sum.OverdueCount != 1 || len(sum.Assignees) != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestExportFilename(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.now = func() time.Time { return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC) }

	w := do(t, srv, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "tasks-2025-06-10.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}
