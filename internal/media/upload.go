package media

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ayush/task-manager-api/internal/models"
)

// UploadField is the multipart field every upload endpoint reads.
const UploadField = "upload"

// multipartOverhead leaves room for boundaries and part headers around a
// file of MaxUploadBytes.
const multipartOverhead = 64 << 10

// UploadTypes are the content types the generic upload endpoint stores.
var UploadTypes = []string{"image/jpeg", "image/png", "application/pdf"}

// File is an uploaded file read fully into memory.
type File struct {
	Name string
	Data []byte
}

// ReadUpload reads the single file in field of a multipart request. Parts
// above the in-memory threshold are staged in temporary files, which are
// removed before returning. Files over limit bytes are a validation error.
func ReadUpload(w http.ResponseWriter, r *http.Request, field string, limit int64) (*File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit / 2); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: file too large", models.ErrValidation)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: missing file field %q", models.ErrValidation, field)
	}
	defer f.Close()

	if hdr.Size > limit {
		return nil, fmt.Errorf("%w: file too large", models.ErrValidation)
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file too large", models.ErrValidation)
	}
	return &File{Name: hdr.Filename, Data: data}, nil
}

// DetectType sniffs data and returns its MIME type if it is one of allowed.
func DetectType(data []byte, allowed ...string) (*mimetype.MIME, error) {
	m := mimetype.Detect(data)
	for _, a := range allowed {
		if m.Is(a) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: unsupported file type %s", models.ErrValidation, m.String())
}
