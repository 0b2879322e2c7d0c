package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"alcyxob/fitness-content/internal/domain"

	"github.com/google/uuid"
)

// MediaKind restricts which files an upload field accepts.
type MediaKind int

const (
	MediaImage MediaKind = iota
	MediaVideo
)

var allowedExtensions = map[MediaKind]map[string]string{
	MediaImage: {".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png", ".gif": "image/gif", ".webp": "image/webp", ".svg": "image/svg+xml"},
	MediaVideo: {".mp4": "video/mp4", ".mov": "video/quicktime", ".avi": "video/x-msvideo"},
}

// Size limits per kind, in bytes.
var maxSizes = map[MediaKind]int64{
	MediaImage: 10 << 20,
	MediaVideo: 20 << 20,
}

func (k MediaKind) String() string {
	if k == MediaVideo {
		return "video"
	}
	return "image"
}

// Upload is one file received from a multipart form.
type Upload struct {
	Field       string // form field name, used in validation messages
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ObjectKey builds "folder/<uuid><ext>" for a new object.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(folder, uuid.NewString()+ext)
}

// CheckUpload verifies the file extension against the allowed set for kind.
func CheckUpload(up *Upload, kind MediaKind) error {
	ext := strings.ToLower(path.Ext(up.Filename))
	if _, ok := allowedExtensions[kind][ext]; !ok {
		names := make([]string, 0, len(allowedExtensions[kind]))
		for e := range allowedExtensions[kind] {
			names = append(names, strings.TrimPrefix(e, "."))
		}
		sort.Strings(names)
		return &domain.ValidationError{
			Field:   up.Field,
			Message: "the " + up.Field + " must be a " + kind.String() + " file (" + strings.Join(names, ", ") + ")",
		}
	}
	if up.Size > maxSizes[kind] {
		return &domain.ValidationError{
			Field:   up.Field,
			Message: fmt.Sprintf("the %s must not be greater than %d kilobytes", up.Field, maxSizes[kind]>>10),
		}
	}
	return nil
}

// Save validates up and stores it under a fresh key in folder.
// It returns the object key that entities keep as their media path.
func Save(ctx context.Context, fs FileStorage, folder string, up *Upload, kind MediaKind) (string, error) {
	if err := CheckUpload(up, kind); err != nil {
		return "", err
	}
	contentType := up.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = allowedExtensions[kind][strings.ToLower(path.Ext(up.Filename))]
	}
	key := ObjectKey(folder, up.Filename)
	if err := fs.PutObject(ctx, key, contentType, up.Body, up.Size); err != nil {
		return "", err
	}
	return key, nil
}

// DirectUpload is a presigned PUT target a client uploads a file to.
type DirectUpload struct {
	Key         string `json:"key"`
	URL         string `json:"upload_url"`
	ContentType string `json:"content_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// KindOf reports the media kind accepted for filename's extension.
func KindOf(filename string) (MediaKind, bool) {
	ext := strings.ToLower(path.Ext(filename))
	for kind, exts := range allowedExtensions {
		if _, ok := exts[ext]; ok {
			return kind, true
		}
	}
	return MediaImage, false
}

// PresignUpload reserves a fresh key in folder for filename and returns a
// presigned PUT URL for it. The client must send the returned content type.
func PresignUpload(ctx context.Context, fs FileStorage, folder, filename string, expires time.Duration) (*DirectUpload, error) {
	kind, ok := KindOf(filename)
	if !ok {
		return nil, &domain.ValidationError{
			Field:   "filename",
			Message: "the filename must be an image or video file",
		}
	}
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	contentType := allowedExtensions[kind][strings.ToLower(path.Ext(filename))]
	key := ObjectKey(folder, filename)
	url, err := fs.GeneratePresignedUploadURL(ctx, key, contentType, expires)
	if err != nil {
		return nil, err
	}
	return &DirectUpload{Key: key, URL: url, ContentType: contentType, ExpiresIn: int(expires.Seconds())}, nil
}
