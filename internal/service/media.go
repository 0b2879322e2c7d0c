package service

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/storage"
)

// Object key prefixes for uploaded media.
const (
	folderEquipments = "equipments"
	folderFocusAreas = "focus_areas"
	folderWorkouts   = "workouts"
	folderExercises  = "exercises"
)

// media stores uploads and removes replaced objects.
type media struct {
	files  storage.FileStorage
	logger *slog.Logger
}

// save stores up under folder. A nil upload stores nothing and returns "".
func (m media) save(ctx context.Context, folder string, up *storage.Upload, kind storage.MediaKind) (string, error) {
	if up == nil {
		return "", nil
	}
	return storage.Save(ctx, m.files, folder, up, kind)
}

// upload pairs a received file with the kind it must be.
type upload struct {
	file *storage.Upload
	kind storage.MediaKind
}

// check validates every non-nil upload before anything is written.
func (m media) check(uploads ...upload) error {
	for _, u := range uploads {
		if u.file == nil {
			continue
		}
		if err := storage.CheckUpload(u.file, u.kind); err != nil {
			return err
		}
	}
	return nil
}

// discard deletes objects that are no longer referenced. Failures are logged
// only; an orphaned object never fails the request.
func (m media) discard(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := m.files.DeleteObject(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			m.logger.WarnContext(ctx, "failed to delete media object", "key", key, "error", err)
		}
	}
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
