package users

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/task-manager-api/internal/auth"
	"github.com/ayush/task-manager-api/internal/media"
	"github.com/ayush/task-manager-api/internal/models"
	"github.com/ayush/task-manager-api/internal/store"
)

func newService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewService(st, st), st
}

func register(t *testing.T, svc *Service, email string) *models.User {
	t.Helper()
	u, err := svc.Create(context.Background(), models.RegisterRequest{
		Name:     "Andrew",
		Email:    email,
		Password: "MyPass777!",
		Age:      27,
	})
	require.NoError(t, err)
	return u
}

func patchOf(t *testing.T, body string) models.Patch {
	t.Helper()
	var p models.Patch
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func TestCreate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, models.RegisterRequest{
		Name:     "  Andrew ",
		Email:    " Andrew@Example.COM ",
		Password: "  MyPass777! ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Andrew", u.Name)
	assert.Equal(t, "andrew@example.com", u.Email)
	assert.Equal(t, 0, u.Age)
	assert.NotEqual(t, "MyPass777!", u.Password)
	assert.True(t, auth.CheckPassword(u.Password, "MyPass777!"))

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"duplicate email", models.RegisterRequest{Name: "B", Email: "andrew@example.com", Password: "MyPass777!"}},
		{"missing name", models.RegisterRequest{Email: "b@example.com", Password: "MyPass777!"}},
		{"bad email", models.RegisterRequest{Name: "B", Email: "nope", Password: "MyPass777!"}},
		{"short password", models.RegisterRequest{Name: "B", Email: "b@example.com", Password: "abc"}},
		{"password contains password", models.RegisterRequest{Name: "B", Email: "b@example.com", Password: "myPassWord1"}},
		{"negative age", models.RegisterRequest{Name: "B", Email: "b@example.com", Password: "MyPass777!", Age: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestUpdate(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	u := register(t, svc, "andrew@example.com")
	register(t, svc, "taken@example.com")

	updated, err := svc.Update(ctx, u, patchOf(t, `{"name":" Jess ","age":31}`))
	require.NoError(t, err)
	assert.Equal(t, "Jess", updated.Name)
	assert.Equal(t, 31, updated.Age)
	assert.Equal(t, "Andrew", u.Name, "caller's user must not change")

	stored, err := st.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jess", stored.Name)

	updated, err = svc.Update(ctx, stored, patchOf(t, `{"password":"NewSecret99"}`))
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(updated.Password, "NewSecret99"))

	rejects := map[string]string{
		"unknown key":    `{"name":"X","location":"Philadelphia"}`,
		"immutable key":  `{"_id":"abc"}`,
		"wrong type":     `{"age":"old"}`,
		"null value":     `{"name":null}`,
		"empty name":     `{"name":"  "}`,
		"negative age":   `{"age":-3}`,
		"bad email":      `{"email":"not-an-email"}`,
		"taken email":    `{"email":"Taken@example.com"}`,
		"weak password":  `{"password":"password123"}`,
		"short password": `{"password":"abc"}`,
		"fractional age": `{"age":2.5}`,
	}
	for name, body := range rejects {
		t.Run(name, func(t *testing.T) {
			before, err := st.GetUserByID(ctx, u.ID)
			require.NoError(t, err)

			_, err = svc.Update(ctx, before, patchOf(t, body))
			assert.ErrorIs(t, err, models.ErrValidation)

			after, err := st.GetUserByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, before.Name, after.Name)
			assert.Equal(t, before.Email, after.Email)
			assert.Equal(t, before.Age, after.Age)
			assert.Equal(t, before.Password, after.Password)
		})
	}
}

func TestDelete(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	u := register(t, svc, "andrew@example.com")
	other := register(t, svc, "other@example.com")

	for _, owner := range []string{u.ID, u.ID, other.ID} {
		require.NoError(t, st.CreateTask(ctx, &models.Task{Description: "task", Owner: owner}))
	}

	require.NoError(t, svc.Delete(ctx, u))

	_, err := st.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	mine, err := st.ListTasks(ctx, u.ID, models.TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, mine)
	theirs, err := st.ListTasks(ctx, other.ID, models.TaskQuery{})
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAvatar(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	u := register(t, svc, "andrew@example.com")

	_, err := svc.Avatar(ctx, u.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = svc.SetAvatar(ctx, u, &media.File{Name: "me.gif", Data: pngBytes(t, 10, 10)})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = svc.SetAvatar(ctx, u, &media.File{Name: "me.png", Data: []byte("not an image")})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = svc.SetAvatar(ctx, u, &media.File{Name: "me.png", Data: make([]byte, media.MaxUploadBytes+1)})
	assert.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, svc.SetAvatar(ctx, u, &media.File{Name: "Me.PNG", Data: pngBytes(t, 300, 200)}))
	got, err := svc.Avatar(ctx, u.ID)
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(got))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, media.AvatarSize, media.AvatarSize), img.Bounds())

	require.NoError(t, svc.ClearAvatar(ctx, u))
	_, err = svc.Avatar(ctx, u.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Avatar(ctx, "does-not-exist")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
