// Package tasks implements owner-scoped task management.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayush/task-manager-api/internal/models"
)

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, owner, id string) (*models.Task, error)
	ListTasks(ctx context.Context, owner string, q models.TaskQuery) ([]models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, owner, id string) (*models.Task, error)
}

// Service implements task CRUD. Every call is scoped to the owner passed in;
// tasks of other users are reported as models.ErrNotFound.
type Service struct {
	store TaskStore
}

func NewService(store TaskStore) *Service {
	return &Service{store: store}
}

// Create stores a new task owned by owner.
func (s *Service) Create(ctx context.Context, owner string, req models.CreateTaskRequest) (*models.Task, error) {
	t := &models.Task{
		Description: strings.TrimSpace(req.Description),
		Completed:   req.Completed,
		Owner:       owner,
	}
	if err := models.ValidateTask(t); err != nil {
		return nil, err
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, owner string, q models.TaskQuery) ([]models.Task, error) {
	return s.store.ListTasks(ctx, owner, q)
}

func (s *Service) Get(ctx context.Context, owner, id string) (*models.Task, error) {
	return s.store.GetTask(ctx, owner, id)
}

// Update applies patch to the task. Keys outside models.TaskUpdatableFields
// reject the whole patch.
func (s *Service) Update(ctx context.Context, owner, id string, patch models.Patch) (*models.Task, error) {
	if err := patch.CheckKeys(models.TaskUpdatableFields); err != nil {
		return nil, err
	}
	t, err := s.store.GetTask(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	for key, raw := range patch {
		if string(raw) == "null" {
			return nil, fmt.Errorf("%w: %s cannot be null", models.ErrValidation, key)
		}
		switch key {
		case "description":
			err = json.Unmarshal(raw, &t.Description)
		case "completed":
			err = json.Unmarshal(raw, &t.Completed)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s has the wrong type", models.ErrValidation, key)
		}
	}
	t.Description = strings.TrimSpace(t.Description)
	if err := models.ValidateTask(t); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the task and returns it.
func (s *Service) Delete(ctx context.Context, owner, id string) (*models.Task, error) {
	return s.store.DeleteTask(ctx, owner, id)
}
