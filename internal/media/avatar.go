// Package media validates uploaded files and normalizes avatar images.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"regexp"

	"golang.org/x/image/draw"

	"github.com/ayush/task-manager-api/internal/models"
)

const (
	// AvatarSize is the edge length of every stored avatar.
	AvatarSize = 250

	// MaxUploadBytes caps avatar and generic uploads.
	MaxUploadBytes = 1_000_000

	// maxSourcePixels bounds decoded image size; a small compressed file can
	// declare huge dimensions.
	maxSourcePixels = 40_000_000
)

var avatarName = regexp.MustCompile(`(?i)\.(jpg|jpeg|png)$`)

// CheckAvatarName accepts file names ending in .jpg, .jpeg or .png.
func CheckAvatarName(name string) error {
	if !avatarName.MatchString(name) {
		return fmt.Errorf("%w: only .png, .jpeg or .jpg formats are supported", models.ErrValidation)
	}
	return nil
}

// NormalizeAvatar decodes a JPEG or PNG image, crops it to a centred square,
// scales it to AvatarSize×AvatarSize and returns it PNG encoded.
func NormalizeAvatar(data []byte) ([]byte, error) {
	if _, err := DetectType(data, "image/jpeg", "image/png"); err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("%w: image dimensions %dx%d are too large", models.ErrValidation, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds()), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// coverRect is the largest centred square inside b.
func coverRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	side := min(w, h)
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}
