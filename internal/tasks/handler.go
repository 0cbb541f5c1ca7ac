package tasks

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/task-manager-api/internal/httpx"
	"github.com/ayush/task-manager-api/internal/middleware"
	"github.com/ayush/task-manager-api/internal/models"
)

// Handler holds the /tasks HTTP handlers. Every route runs behind
// middleware.RequireAuth.
type Handler struct {
	tasks *Service
}

func NewHandler(tasks *Service) *Handler {
	return &Handler{tasks: tasks}
}

func ownerID(r *http.Request) string {
	user, _ := middleware.UserFromContext(r.Context())
	return user.ID
}

// Create adds a task for the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	task, err := h.tasks.Create(r.Context(), ownerID(r), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, task)
}

// List returns the current user's tasks.
//
//	GET /tasks?completed=true&limit=10&skip=20&sortBy=createdAt:desc
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	list, err := h.tasks.List(r.Context(), ownerID(r), q)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Task{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

// Get returns one task of the current user.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, task)
}

// Update patches one task of the current user.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	task, err := h.tasks.Update(r.Context(), ownerID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, task)
}

// Delete removes one task of the current user and returns it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, task)
}

// ParseQuery reads the completed, limit, skip and sortBy parameters of a
// task listing. Absent parameters keep their zero value.
func ParseQuery(v url.Values) (models.TaskQuery, error) {
	var q models.TaskQuery

	if raw := v.Get("completed"); raw != "" {
		switch raw {
		case "true":
			q.Completed = new(bool)
			*q.Completed = true
		case "false":
			q.Completed = new(bool)
		default:
			return q, fmt.Errorf("%w: completed must be true or false", models.ErrValidation)
		}
	}

	var err error
	if q.Limit, err = nonNegative(v, "limit"); err != nil {
		return q, err
	}
	if q.Skip, err = nonNegative(v, "skip"); err != nil {
		return q, err
	}

	q.SortBy = models.SortByCreatedAt
	if raw := v.Get("sortBy"); raw != "" {
		if err := q.ParseSort(raw); err != nil {
			return q, err
		}
	}
	return q, nil
}

func nonNegative(v url.Values, key string) (int64, error) {
	raw := v.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", models.ErrValidation, key)
	}
	return n, nil
}
