package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nickyhof/StructDB"
	"github.com/nickyhof/StructDB/core"
)

// Server serves the task API over a StructDB store.
type Server struct {
	store  *StructDB.Store
	logger *zap.SugaredLogger
	auth   *AuthConfig
}

func NewServer(store *StructDB.Store, logger *zap.SugaredLogger, auth *AuthConfig) *Server {
	return &Server{store: store, logger: logger, auth: auth}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", s.createTask)
	mux.HandleFunc("GET /tasks", s.listTasks)
	mux.HandleFunc("GET /tasks/{id}", s.getTask)
	mux.HandleFunc("POST /notes", s.createNote)
	mux.HandleFunc("GET /notes", s.listNotes)
	return s.middleware(mux)
}

// middleware assigns a request id, enforces authentication and logs each
// request on the way out.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)

		if s.auth != nil && s.auth.Enabled {
			principal, err := s.auth.authenticate(r)
			if err != nil {
				s.logger.Infow("unauthorized",
					"requestId", reqID,
					"remoteAddr", r.RemoteAddr,
					"error", err)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			s.logger.Debugw("authenticated", "requestId", reqID, "principal", principal.Name)
		}

		next.ServeHTTP(w, r)
		s.logger.Infow("request",
			"requestId", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"durationMs", time.Since(start).Milliseconds())
	})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var task Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	task.ID = 0
	if task.Created.IsZero() {
		task.Created = time.Now().UTC()
	}

	if _, err := StructDB.Insert(s.store, &task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// listTasks filters by example: any combination of ?title= and ?done=.
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	example := Task{Title: r.URL.Query().Get("title")}
	if done, err := strconv.ParseBool(r.URL.Query().Get("done")); err == nil {
		example.Done = done
	}

	tasks, err := StructDB.MatchAll(s.store, example)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, ok, err := StructDB.Get[Task](s.store, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type noteRequest struct {
	TaskID int64  `json:"taskId"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note := Note{
		TaskId: core.NewRef[Task](req.TaskID),
		Author: req.Author,
		Body:   req.Body,
	}
	if _, err := StructDB.Insert(s.store, &note); err != nil {
		if _, ok := err.(*core.ValidationError); ok {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

type noteView struct {
	ID        int64  `json:"id"`
	TaskID    int64  `json:"taskId"`
	TaskTitle string `json:"taskTitle,omitempty"`
	Author    string `json:"author"`
	Body      string `json:"body"`
}

// listNotes filters by ?author= and resolves each note's task title.
func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	example := Note{Author: r.URL.Query().Get("author")}

	views := []noteView{}
	for note, err := range StructDB.Match(s.store, example) {
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		view := noteView{ID: note.ID, TaskID: note.TaskId.Key(), Author: note.Author, Body: note.Body}
		if task, ok, err := note.TaskId.Resolve(); err == nil && ok {
			view.TaskTitle = task.Title
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
