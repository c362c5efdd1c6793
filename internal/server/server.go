// Package server provides the local HTTP API over the task store, for the
// optional web front end and for scripting.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"taskdeck/internal/engine"
	"taskdeck/internal/extract"
	"taskdeck/internal/models"
	"taskdeck/internal/store"
	"taskdeck/internal/syncer"
)

// Server serves the taskdeck HTTP API.
type Server struct {
	store      *store.Store
	dispatcher *syncer.Dispatcher
	extractor  extract.Extractor
	addr       string
	server     *http.Server
	now        func() time.Time
}

// New creates a server. dispatcher and extractor may be nil when the
// corresponding feature is unconfigured; the affected endpoints then answer
// with a clear error instead of failing at startup.
func New(s *store.Store, d *syncer.Dispatcher, e extract.Extractor, addr string) *Server {
	return &Server{store: s, dispatcher: d, extractor: e, addr: addr, now: time.Now}
}

// Start starts the HTTP server and blocks.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/tasks/", s.handleTaskByID)
	mux.HandleFunc("/extract", s.handleExtract)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/export", s.handleExport)
	mux.HandleFunc("/import", s.handleImport)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("Starting taskdeck API on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "ok", "time": s.now().Format(time.RFC3339)})
}

// handleTasks handles GET /tasks and POST /tasks.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTasks(w, r)
	case http.MethodPost:
		s.createTask(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := engine.Query{
		Search:   r.URL.Query().Get("search"),
		Assignee: r.URL.Query().Get("assignee"),
		Status:   engine.StatusFilter(r.URL.Query().Get("status")),
		Sort:     engine.SortOrder(r.URL.Query().Get("sort")),
	}
	tasks := s.store.View(q)
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var p models.Proposal
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task, err := s.store.Create(p)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.maybeAutoSync(r.Context(), task.ID, p)
	writeJSON(w, http.StatusCreated, task)
}

// handleExtract handles POST /extract: run the extraction adapter on free
// text and create the proposed task.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.extractor == nil {
		http.Error(w, "extraction is not configured", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	today := s.now().Format(models.DateLayout)
	p, err := s.extractor.Extract(r.Context(), req.Text, today)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, extract.ErrNoFields) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	task, err := s.store.Create(*p)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.maybeAutoSync(r.Context(), task.ID, *p)
	writeJSON(w, http.StatusCreated, task)
}

// maybeAutoSync runs the silent sheet sync after creation when the proposal
// asked for it and a dispatcher is configured. Errors are swallowed by the
// dispatcher; the sync flag stays false for manual retry.
func (s *Server) maybeAutoSync(ctx context.Context, id string, p models.Proposal) {
	if s.dispatcher != nil && p.ShouldSyncSheet {
		s.dispatcher.AutoSyncSheet(ctx, id)
	}
}

// handleTaskByID handles /tasks/{id} and /tasks/{id}/{action}.
func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/tasks/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "task id required", http.StatusBadRequest)
		return
	}
	taskID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getTask(w, r, taskID)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteTask(w, r, taskID)
	case action == "status" && r.Method == http.MethodPost:
		s.setStatus(w, r, taskID)
	case action == "progress" && r.Method == http.MethodPost:
		s.setProgress(w, r, taskID)
	case action == "completed" && r.Method == http.MethodPost:
		s.setCompletedDate(w, r, taskID)
	case action == "field" && r.Method == http.MethodPost:
		s.editField(w, r, taskID)
	case action == "tags" && r.Method == http.MethodPost:
		s.setTags(w, r, taskID)
	case action == "report" && r.Method == http.MethodPost:
		s.submitReport(w, r, taskID)
	case action == "sync" && r.Method == http.MethodPost:
		s.syncTask(w, r, taskID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getTask(w http.ResponseWriter, _ *http.Request, taskID string) {
	task, err := s.store.Get(taskID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, _ *http.Request, taskID string) {
	if err := s.store.Delete(taskID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request, taskID string) {
	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task, err := s.store.SetStatus(taskID, req.Status)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) setProgress(w http.ResponseWriter, r *http.Request, taskID string) {
	var req struct {
		Progress int `json:"progress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task, err := s.store.SetProgress(taskID, req.Progress)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) setCompletedDate(w http.ResponseWriter, r *http.Request, taskID string) {
	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task, err := s.store.SetCompletedDate(taskID, req.Date)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) editField(w http.ResponseWriter, r *http.Request, taskID string) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task, err := s.store.EditField(taskID, req.Field, req.Value)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) setTags(w http.ResponseWriter, r *http.Request, taskID string) {
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task, err := s.store.SetTags(taskID, req.Tags)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) submitReport(w http.ResponseWriter, r *http.Request, taskID string) {
	var req struct {
		Progress int    `json:"progress"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	task, err := s.store.SubmitReport(taskID, req.Progress, req.Content)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) syncTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if s.dispatcher == nil {
		http.Error(w, "sync is not configured", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var err error
	switch req.Target {
	case "sheet":
		err = s.dispatcher.SyncSheet(r.Context(), taskID)
	case "calendar":
		err = s.dispatcher.SyncCalendar(r.Context(), taskID)
	default:
		http.Error(w, "target must be sheet or calendar", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	task, _ := s.store.Get(taskID)
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sum := s.store.Summarize()
	if sum.Assignees == nil {
		sum.Assignees = []engine.AssigneeStat{}
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := s.store.ExportJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		`attachment; filename="tasks-`+s.now().Format(models.DateLayout)+`.json"`)
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	n, err := s.store.ImportJSON(data)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

// statusFor maps sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrBadImport),
		errors.Is(err, store.ErrProgressOutOfRange),
		errors.Is(err, store.ErrBadStatus),
		errors.Is(err, store.ErrBadPriority),
		errors.Is(err, store.ErrBadDate),
		errors.Is(err, store.ErrUnknownField),
		errors.Is(err, syncer.ErrNoTargetDate):
		return http.StatusBadRequest
	case errors.Is(err, syncer.ErrNoEndpoint), errors.Is(err, syncer.ErrBadEndpoint):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
