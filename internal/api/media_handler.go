package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/storage"
)

// MediaHandler hands out short-lived URLs for stored media.
type MediaHandler struct {
	files storage.FileStorage
}

func NewMediaHandler(files storage.FileStorage) *MediaHandler {
	return &MediaHandler{files: files}
}

// Download answers GET /media/*key with a redirect to a presigned URL.
func (h *MediaHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		abortWithError(c, http.StatusNotFound, "No data found.")
		return
	}
	url, err := h.files.GeneratePresignedDownloadURL(c.Request.Context(), key, storage.DefaultPresignedURLExpiry)
	if errors.Is(err, storage.ErrObjectNotFound) {
		abortWithError(c, http.StatusNotFound, "No data found.")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// uploadFolders are the object prefixes a direct upload may target.
var uploadFolders = map[string]bool{
	"equipments":  true,
	"exercises":   true,
	"focus_areas": true,
	"workouts":    true,
}

type uploadRequest struct {
	Folder   string `json:"folder" form:"folder"`
	Filename string `json:"filename" form:"filename"`
}

// RequestUpload answers POST /media/uploads with a presigned PUT URL, so large
// videos go straight to the bucket instead of through the API.
func (h *MediaHandler) RequestUpload(c *gin.Context) {
	var req uploadRequest
	if err := bindInput(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if !uploadFolders[req.Folder] {
		respondError(c, invalidField("folder", "The selected folder is invalid."))
		return
	}
	if req.Filename == "" {
		respondError(c, invalidField("filename", "The filename field is required."))
		return
	}
	up, err := storage.PresignUpload(c.Request.Context(), h.files, req.Folder, req.Filename, storage.DefaultPresignedURLExpiry)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "Upload URL created successfully.", up)
}
