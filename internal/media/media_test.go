package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/task-manager-api/internal/models"
)

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solidImage(w, h), nil))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(w, h)))
	return buf.Bytes()
}

func TestCheckAvatarName(t *testing.T) {
	for _, name := range []string{"me.jpg", "me.jpeg", "me.png", "ME.PNG", "a.b.jpg"} {
		assert.NoError(t, CheckAvatarName(name), name)
	}
	for _, name := range []string{"me.gif", "me.pdf", "me.png.exe", "png", "me"} {
		assert.ErrorIs(t, CheckAvatarName(name), models.ErrValidation, name)
	}
}

func TestNormalizeAvatar(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "landscape jpeg", data: encodeJPEG(t, 400, 300)},
		{name: "portrait png", data: encodePNG(t, 120, 500)},
		{name: "tiny png", data: encodePNG(t, 10, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NormalizeAvatar(tt.data)
			require.NoError(t, err)

			img, format, err := image.Decode(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, "png", format)
			assert.Equal(t, AvatarSize, img.Bounds().Dx())
			assert.Equal(t, AvatarSize, img.Bounds().Dy())
		})
	}
}

func TestNormalizeAvatarRejects(t *testing.T) {
	_, err := NormalizeAvatar([]byte("definitely not an image"))
	assert.ErrorIs(t, err, models.ErrValidation)

	truncated := encodePNG(t, 50, 50)[:40]
	_, err = NormalizeAvatar(truncated)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCoverRect(t *testing.T) {
	assert.Equal(t, image.Rect(50, 0, 350, 300), coverRect(image.Rect(0, 0, 400, 300)))
	assert.Equal(t, image.Rect(0, 10, 100, 110), coverRect(image.Rect(0, 0, 100, 120)))
}

func TestDetectType(t *testing.T) {
	m, err := DetectType(encodePNG(t, 2, 2), UploadTypes...)
	require.NoError(t, err)
	assert.Equal(t, ".png", m.Extension())

	_, err = DetectType([]byte("#!/bin/sh\necho hi\n"), UploadTypes...)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReadUpload(t *testing.T) {
	t.Run("reads file", func(t *testing.T) {
		req := multipartRequest(t, UploadField, "a.png", []byte("hello"))
		f, err := ReadUpload(httptest.NewRecorder(), req, UploadField, 10)
		require.NoError(t, err)
		assert.Equal(t, "a.png", f.Name)
		assert.Equal(t, []byte("hello"), f.Data)
	})

	t.Run("over limit", func(t *testing.T) {
		req := multipartRequest(t, UploadField, "a.png", bytes.Repeat([]byte("x"), 11))
		_, err := ReadUpload(httptest.NewRecorder(), req, UploadField, 10)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("far over limit", func(t *testing.T) {
		req := multipartRequest(t, UploadField, "a.png", bytes.Repeat([]byte("x"), MaxUploadBytes+multipartOverhead+1))
		_, err := ReadUpload(httptest.NewRecorder(), req, UploadField, MaxUploadBytes)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("wrong field", func(t *testing.T) {
		req := multipartRequest(t, "avatar", "a.png", []byte("hello"))
		_, err := ReadUpload(httptest.NewRecorder(), req, UploadField, 10)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		_, err := ReadUpload(httptest.NewRecorder(), req, UploadField, 10)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}
