package media

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayush/task-manager-api/internal/httpx"
)

// FileStore persists uploaded files.
type FileStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// UploadHandler serves the generic file upload endpoint.
type UploadHandler struct {
	files FileStore
}

func NewUploadHandler(files FileStore) *UploadHandler {
	return &UploadHandler{files: files}
}

// Upload stores the file in the "upload" field under a generated key. Only
// content sniffed as one of UploadTypes is accepted.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, err := ReadUpload(w, r, UploadField, MaxUploadBytes)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	m, err := DetectType(file.Data, UploadTypes...)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	key := "uploads/" + uuid.NewString() + m.Extension()
	if err := h.files.Put(r.Context(), key, file.Data, m.String()); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "file uploaded", "key", key, "type", m.String(), "size", len(file.Data))
	httpx.Empty(w)
}
