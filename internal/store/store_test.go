package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/task-manager-api/internal/models"
)

const missingID = "000000000000000000000000"

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URL")
	if uri == "" {
		t.Skip("MONGODB_TEST_URL not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		require.NoError(t, err)
		db := client.Database("task_manager_test_" + primitive.NewObjectID().Hex())
		t.Cleanup(func() {
			_ = db.Drop(ctx)
			_ = client.Disconnect(ctx)
		})
		s := NewMongoStore(db)
		require.NoError(t, s.EnsureIndexes(ctx))
		return s
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, dsn)
		require.NoError(t, err)
		s := NewPostgresStore(pool)
		require.NoError(t, s.Migrate(ctx))
		_, err = pool.Exec(ctx, `TRUNCATE tasks, users`)
		require.NoError(t, err)
		t.Cleanup(pool.Close)
		return s
	})
}

func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("tokens", func(t *testing.T) { testTokens(t, newStore(t)) })
	t.Run("avatar", func(t *testing.T) { testAvatar(t, newStore(t)) })
	t.Run("tasks", func(t *testing.T) { testTasks(t, newStore(t)) })
	t.Run("list tasks", func(t *testing.T) { testListTasks(t, newStore(t)) })
}

func newUser(t *testing.T, s Store, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test", Email: email, Password: "hash", Age: 30}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()
	u := newUser(t, s, "ada@example.com")
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, 30, got.Age)
	assert.Empty(t, got.Tokens)

	got, err = s.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.GetUserByID(ctx, missingID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.GetUserByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = s.CreateUser(ctx, &models.User{Name: "Dup", Email: "ada@example.com", Password: "hash"})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
	assert.ErrorIs(t, err, models.ErrValidation)

	other := newUser(t, s, "bob@example.com")
	other.Email = "ada@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, other), models.ErrDuplicateEmail)

	got.Name, got.Age = "Ada L.", 36
	require.NoError(t, s.UpdateUser(ctx, got))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, 36, got.Age)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), models.ErrNotFound)
}

func testTokens(t *testing.T, s Store) {
	ctx := context.Background()
	u := newUser(t, s, "tok@example.com")

	require.NoError(t, s.PushToken(ctx, u.ID, "t1"))
	require.NoError(t, s.PushToken(ctx, u.ID, "t2"))
	require.NoError(t, s.PushToken(ctx, u.ID, "t3"))

	got, err := s.GetUserByToken(ctx, u.ID, "t2")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, got.Tokens)

	require.NoError(t, s.PullToken(ctx, u.ID, "t2"))
	_, err = s.GetUserByToken(ctx, u.ID, "t2")
	assert.ErrorIs(t, err, models.ErrNotFound)
	got, err = s.GetUserByToken(ctx, u.ID, "t3")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3"}, got.Tokens)

	require.NoError(t, s.ClearTokens(ctx, u.ID))
	_, err = s.GetUserByToken(ctx, u.ID, "t1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, s.PushToken(ctx, missingID, "t"), models.ErrNotFound)
}

func testAvatar(t *testing.T, s Store) {
	ctx := context.Background()
	u := newUser(t, s, "pic@example.com")

	require.NoError(t, s.SetAvatar(ctx, u.ID, []byte{0x89, 'P', 'N', 'G'}))
	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got.Avatar)

	require.NoError(t, s.SetAvatar(ctx, u.ID, nil))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Avatar)
}

func testTasks(t *testing.T, s Store) {
	ctx := context.Background()
	owner := newUser(t, s, "owner@example.com")
	stranger := newUser(t, s, "stranger@example.com")

	task := &models.Task{Description: "write tests", Owner: owner.ID}
	require.NoError(t, s.CreateTask(ctx, task))
	require.NotEmpty(t, task.ID)

	got, err := s.GetTask(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "write tests", got.Description)
	assert.False(t, got.Completed)
	assert.Equal(t, owner.ID, got.Owner)

	_, err = s.GetTask(ctx, stranger.ID, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got.Completed = true
	require.NoError(t, s.UpdateTask(ctx, got))
	got, err = s.GetTask(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	foreign := *got
	foreign.Owner = stranger.ID
	assert.ErrorIs(t, s.UpdateTask(ctx, &foreign), models.ErrNotFound)

	_, err = s.DeleteTask(ctx, stranger.ID, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	deleted, err := s.DeleteTask(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)
	_, err = s.GetTask(ctx, owner.ID, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	for _, d := range []string{"a", "b"} {
		require.NoError(t, s.CreateTask(ctx, &models.Task{Description: d, Owner: owner.ID}))
	}
	require.NoError(t, s.CreateTask(ctx, &models.Task{Description: "c", Owner: stranger.ID}))

	n, err := s.DeleteTasksByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := s.ListTasks(ctx, stranger.ID, models.TaskQuery{})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func testListTasks(t *testing.T, s Store) {
	ctx := context.Background()
	owner := newUser(t, s, "lister@example.com")
	other := newUser(t, s, "other@example.com")

	for _, tt := range []struct {
		desc string
		done bool
	}{{"delta", true}, {"alpha", false}, {"charlie", true}, {"bravo", false}} {
		require.NoError(t, s.CreateTask(ctx, &models.Task{Description: tt.desc, Completed: tt.done, Owner: owner.ID}))
	}
	require.NoError(t, s.CreateTask(ctx, &models.Task{Description: "foreign", Owner: other.ID}))

	descs := func(tasks []models.Task) []string {
		out := make([]string, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.Description)
		}
		return out
	}

	all, err := s.ListTasks(ctx, owner.ID, models.TaskQuery{SortBy: models.SortByDescription})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta"}, descs(all))

	done := true
	completed, err := s.ListTasks(ctx, owner.ID, models.TaskQuery{Completed: &done, SortBy: models.SortByDescription, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"delta", "charlie"}, descs(completed))

	page, err := s.ListTasks(ctx, owner.ID, models.TaskQuery{SortBy: models.SortByDescription, Skip: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"bravo", "charlie"}, descs(page))

	beyond, err := s.ListTasks(ctx, owner.ID, models.TaskQuery{Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestDiskStorePut(t *testing.T) {
	root := filepath.Join(t.TempDir(), "images")
	s, err := NewDiskStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "uploads/a.png", []byte("data"), "image/png"))

	got, err := os.ReadFile(filepath.Join(root, "uploads", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}
