package store

import (
	"context"

	"github.com/ayush/task-manager-api/internal/models"
)

// Store is the persistence surface shared by every backend. Missing records
// yield models.ErrNotFound and a taken email yields models.ErrDuplicateEmail.
// Task lookups and writes are always scoped to the owner passed in.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByToken finds user id only while token is still registered on it.
	GetUserByToken(ctx context.Context, id, token string) (*models.User, error)
	// UpdateUser writes name, email, password hash and age.
	UpdateUser(ctx context.Context, u *models.User) error
	PushToken(ctx context.Context, userID, token string) error
	PullToken(ctx context.Context, userID, token string) error
	ClearTokens(ctx context.Context, userID string) error
	// SetAvatar stores avatar bytes; nil removes the avatar.
	SetAvatar(ctx context.Context, userID string, avatar []byte) error
	DeleteUser(ctx context.Context, id string) error

	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, owner, id string) (*models.Task, error)
	ListTasks(ctx context.Context, owner string, q models.TaskQuery) ([]models.Task, error)
	// UpdateTask writes description and completed of the task t.Owner owns.
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, owner, id string) (*models.Task, error)
	DeleteTasksByOwner(ctx context.Context, owner string) (int64, error)

	Close(ctx context.Context) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*MongoStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
