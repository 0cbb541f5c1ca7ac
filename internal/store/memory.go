package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/task-manager-api/internal/models"
)

// MemoryStore keeps users and tasks in process memory. It backs
// STORE_DRIVER=memory and the service tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
	tasks map[string]*models.Task
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.User),
		tasks: make(map[string]*models.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(u.Email, "") {
		return models.ErrDuplicateEmail
	}
	u.ID = primitive.NewObjectID().Hex()
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	if u.Tokens == nil {
		u.Tokens = []string{}
	}
	s.users[u.ID] = u.Clone()
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return u.Clone(), nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, fmt.Errorf("user with email: %w", models.ErrNotFound)
}

func (s *MemoryStore) GetUserByToken(_ context.Context, id, token string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || !u.HasToken(token) {
		return nil, fmt.Errorf("user %s with token: %w", id, models.ErrNotFound)
	}
	return u.Clone(), nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", u.ID, models.ErrNotFound)
	}
	if s.emailTaken(u.Email, u.ID) {
		return models.ErrDuplicateEmail
	}
	cur.Name, cur.Email, cur.Password, cur.Age = u.Name, u.Email, u.Password, u.Age
	cur.UpdatedAt = s.now()
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

func (s *MemoryStore) PushToken(_ context.Context, userID, token string) error {
	return s.mutateUser(userID, func(u *models.User) {
		u.Tokens = append(u.Tokens, token)
	})
}

func (s *MemoryStore) PullToken(_ context.Context, userID, token string) error {
	return s.mutateUser(userID, func(u *models.User) {
		u.Tokens = slices.DeleteFunc(u.Tokens, func(t string) bool { return t == token })
	})
}

func (s *MemoryStore) ClearTokens(_ context.Context, userID string) error {
	return s.mutateUser(userID, func(u *models.User) {
		u.Tokens = []string{}
	})
}

func (s *MemoryStore) SetAvatar(_ context.Context, userID string, avatar []byte) error {
	return s.mutateUser(userID, func(u *models.User) {
		if avatar == nil {
			u.Avatar = nil
			return
		}
		u.Avatar = append([]byte(nil), avatar...)
	})
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) CreateTask(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = primitive.NewObjectID().Hex()
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, owner, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.Owner != owner {
		return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) ListTasks(_ context.Context, owner string, q models.TaskQuery) ([]models.Task, error) {
	s.mu.RLock()
	out := make([]models.Task, 0)
	for _, t := range s.tasks {
		if t.Owner != owner {
			continue
		}
		if q.Completed != nil && t.Completed != *q.Completed {
			continue
		}
		out = append(out, *t)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.Task) int {
		c := compareTasks(a, b, q.SortBy)
		if q.Desc {
			c = -c
		}
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		return c
	})

	if q.Skip > 0 {
		if q.Skip >= int64(len(out)) {
			return []models.Task{}, nil
		}
		out = out[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < int64(len(out)) {
		out = out[:q.Limit]
	}
	return out, nil
}

func compareTasks(a, b models.Task, field models.SortField) int {
	switch field {
	case models.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case models.SortByDescription:
		return strings.Compare(a.Description, b.Description)
	case models.SortByCompleted:
		return cmp.Compare(boolRank(a.Completed), boolRank(b.Completed))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *MemoryStore) UpdateTask(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks[t.ID]
	if !ok || cur.Owner != t.Owner {
		return fmt.Errorf("task %s: %w", t.ID, models.ErrNotFound)
	}
	cur.Description, cur.Completed = t.Description, t.Completed
	cur.UpdatedAt = s.now()
	t.UpdatedAt = cur.UpdatedAt
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, owner, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Owner != owner {
		return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	delete(s.tasks, id)
	return t, nil
}

func (s *MemoryStore) DeleteTasksByOwner(_ context.Context, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, t := range s.tasks {
		if t.Owner == owner {
			delete(s.tasks, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

// emailTaken must be called with s.mu held.
func (s *MemoryStore) emailTaken(email, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) mutateUser(id string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	fn(u)
	u.UpdatedAt = s.now()
	return nil
}
