package storage

import (
	"context"
	"strings"
	"testing"

	"alcyxob/fitness-content/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveStoresUnderUUIDKey(t *testing.T) {
	fs := NewMemoryStorage("http://media.local")
	up := &Upload{Field: "image", Filename: "Push Up.PNG", Body: strings.NewReader("png-bytes")}

	key, err := Save(context.Background(), fs, "exercise", up, MediaImage)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "exercise/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	obj, ok := fs.Get(key)
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "png-bytes", string(obj.Data))
}

func TestSaveRejectsWrongKind(t *testing.T) {
	fs := NewMemoryStorage("")
	up := &Upload{Field: "male_video", Filename: "clip.gif", Body: strings.NewReader("x")}

	_, err := Save(context.Background(), fs, "exercise", up, MediaVideo)
	require.Error(t, err)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "male_video", ve.Field)
	assert.Contains(t, ve.Message, "avi, mov, mp4")
	assert.Zero(t, fs.Len())
}

func TestMemoryStorageDelete(t *testing.T) {
	fs := NewMemoryStorage("http://media.local")
	ctx := context.Background()
	require.NoError(t, fs.PutObject(ctx, "a/b.jpg", "image/jpeg", strings.NewReader("x"), 1))

	url, err := fs.GeneratePresignedDownloadURL(ctx, "a/b.jpg", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://media.local/a/b.jpg?"))

	require.NoError(t, fs.DeleteObject(ctx, "a/b.jpg"))
	assert.ErrorIs(t, fs.DeleteObject(ctx, "a/b.jpg"), ErrObjectNotFound)
	_, err = fs.GeneratePresignedDownloadURL(ctx, "a/b.jpg", 0)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestCheckUploadSize(t *testing.T) {
	up := &Upload{Field: "image_url", Filename: "a.jpg", Size: 11 << 20}
	err := CheckUpload(up, MediaImage)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "10240 kilobytes")

	up.Size = 1 << 20
	assert.NoError(t, CheckUpload(up, MediaImage))
}

func TestPresignUpload(t *testing.T) {
	fs := NewMemoryStorage("http://media.local")
	ctx := context.Background()

	up, err := PresignUpload(ctx, fs, "exercises", "Squat.MOV", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.Key, "exercises/"))
	assert.True(t, strings.HasSuffix(up.Key, ".mov"))
	assert.Equal(t, "video/quicktime", up.ContentType)
	assert.Equal(t, int(DefaultPresignedURLExpiry.Seconds()), up.ExpiresIn)
	assert.True(t, strings.HasPrefix(up.URL, "http://media.local/"+up.Key+"?"))
	assert.Zero(t, fs.Len(), "nothing is stored until the client uploads")

	_, err = PresignUpload(ctx, fs, "exercises", "notes.txt", 0)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "filename", ve.Field)
}
