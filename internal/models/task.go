package models

import (
	"fmt"
	"strings"
	"time"
)

// Task is a to-do item that belongs to exactly one user.
type Task struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateTaskRequest is the JSON body for POST /tasks.
type CreateTaskRequest struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// TaskUpdatableFields lists the keys accepted by PATCH /tasks/{id}.
var TaskUpdatableFields = []string{"description", "completed"}

// SortField is a task attribute tasks can be ordered by.
type SortField string

const (
	SortByCreatedAt   SortField = "createdAt"
	SortByUpdatedAt   SortField = "updatedAt"
	SortByDescription SortField = "description"
	SortByCompleted   SortField = "completed"
)

// TaskQuery narrows and orders a task listing.
type TaskQuery struct {
	Completed *bool
	Limit     int64
	Skip      int64
	SortBy    SortField
	Desc      bool
}

// ParseSort parses "field:asc" or "field:desc" into q.
func (q *TaskQuery) ParseSort(raw string) error {
	field, dir, _ := strings.Cut(raw, ":")
	switch SortField(field) {
	case SortByCreatedAt, SortByUpdatedAt, SortByDescription, SortByCompleted:
		q.SortBy = SortField(field)
	default:
		return fmt.Errorf("%w: cannot sort by %q", ErrValidation, field)
	}
	switch dir {
	case "", "asc":
		q.Desc = false
	case "desc":
		q.Desc = true
	default:
		return fmt.Errorf("%w: unknown sort direction %q", ErrValidation, dir)
	}
	return nil
}
