package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ayush/task-manager-api/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	userColumns = `id::text, name, email, password, age, tokens, avatar, created_at, updated_at`
	taskColumns = `id::text, description, completed, owner::text, created_at, updated_at`

	uniqueViolation = "23505"
)

// taskSortColumns maps API sort fields onto table columns.
var taskSortColumns = map[models.SortField]string{
	models.SortByCreatedAt:   "created_at",
	models.SortByUpdatedAt:   "updated_at",
	models.SortByDescription: "description",
	models.SortByCompleted:   "completed",
}

// PostgresStore handles users and tasks in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies the embedded goose migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	tokens := u.Tokens
	if tokens == nil {
		tokens = []string{}
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password, age, tokens)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id::text, created_at, updated_at`,
		u.Name, u.Email, u.Password, u.Age, tokens,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return pgUserError("create user", err)
	}
	u.Tokens = tokens
	return nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) GetUserByToken(ctx context.Context, id, token string) (*models.User, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	return s.queryUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND $2 = ANY(tokens)`, id, token)
}

func (s *PostgresStore) queryUser(ctx context.Context, sql string, args ...any) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, sql, args...).Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Age, &u.Tokens, &u.Avatar, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get user: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *models.User) error {
	if err := checkUUID(u.ID); err != nil {
		return err
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, password = $4, age = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		u.ID, u.Name, u.Email, u.Password, u.Age,
	).Scan(&u.UpdatedAt)
	if err != nil {
		return pgUserError("update user", err)
	}
	return nil
}

func (s *PostgresStore) PushToken(ctx context.Context, userID, token string) error {
	return s.execUser(ctx, "push token",
		`UPDATE users SET tokens = array_append(tokens, $2), updated_at = NOW() WHERE id = $1`,
		userID, token)
}

func (s *PostgresStore) PullToken(ctx context.Context, userID, token string) error {
	return s.execUser(ctx, "pull token",
		`UPDATE users SET tokens = array_remove(tokens, $2), updated_at = NOW() WHERE id = $1`,
		userID, token)
}

func (s *PostgresStore) ClearTokens(ctx context.Context, userID string) error {
	return s.execUser(ctx, "clear tokens",
		`UPDATE users SET tokens = '{}', updated_at = NOW() WHERE id = $1`, userID)
}

func (s *PostgresStore) SetAvatar(ctx context.Context, userID string, avatar []byte) error {
	return s.execUser(ctx, "set avatar",
		`UPDATE users SET avatar = $2, updated_at = NOW() WHERE id = $1`, userID, avatar)
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	return s.execUser(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

// execUser runs a statement keyed by user id in $1 and reports a missing row
// as models.ErrNotFound.
func (s *PostgresStore) execUser(ctx context.Context, op, sql string, args ...any) error {
	if err := checkUUID(args[0].(string)); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, t *models.Task) error {
	if err := checkUUID(t.Owner); err != nil {
		return err
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (description, completed, owner)
		 VALUES ($1, $2, $3)
		 RETURNING id::text, created_at, updated_at`,
		t.Description, t.Completed, t.Owner,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTask(ctx context.Context, owner, id string) (*models.Task, error) {
	if err := checkUUID(id, owner); err != nil {
		return nil, err
	}
	t, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner = $2`, id, owner))
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, owner string, q models.TaskQuery) ([]models.Task, error) {
	if err := checkUUID(owner); err != nil {
		return nil, err
	}
	sql := `SELECT ` + taskColumns + ` FROM tasks WHERE owner = $1`
	args := []any{owner}
	if q.Completed != nil {
		args = append(args, *q.Completed)
		sql += fmt.Sprintf(" AND completed = $%d", len(args))
	}

	col, ok := taskSortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	sql += fmt.Sprintf(" ORDER BY %s %s, id", col, dir)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStore) UpdateTask(ctx context.Context, t *models.Task) error {
	if err := checkUUID(t.ID, t.Owner); err != nil {
		return err
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE tasks SET description = $3, completed = $4, updated_at = NOW()
		 WHERE id = $1 AND owner = $2
		 RETURNING updated_at`,
		t.ID, t.Owner, t.Description, t.Completed,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update task: %w", models.ErrNotFound)
		}
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, owner, id string) (*models.Task, error) {
	if err := checkUUID(id, owner); err != nil {
		return nil, err
	}
	t, err := scanTask(s.pool.QueryRow(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner = $2 RETURNING `+taskColumns, id, owner))
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) DeleteTasksByOwner(ctx context.Context, owner string) (int64, error) {
	if err := checkUUID(owner); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE owner = $1`, owner)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool.
func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Description, &t.Completed, &t.Owner, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// checkUUID rejects malformed ids up front so they read as missing records
// instead of query errors.
func checkUUID(ids ...string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("invalid id %q: %w", id, models.ErrNotFound)
		}
	}
	return nil
}

func pgUserError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return models.ErrDuplicateEmail
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
