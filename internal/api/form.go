package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/storage"
)

// bindInput fills in from a JSON, urlencoded or multipart body. An empty body
// binds nothing so that validation can report the missing fields.
func bindInput(c *gin.Context, in any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 && !isForm(c) {
		return nil
	}
	if err := c.ShouldBind(in); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &domain.ValidationError{Field: "body", Message: "The request body is malformed: " + err.Error()}
	}
	return nil
}

func isForm(c *gin.Context) bool {
	switch c.ContentType() {
	case binding.MIMEMultipartPOSTForm, binding.MIMEPOSTForm:
		return true
	}
	return false
}

// formIDs reads an id list sent as repeated form values under field or
// field[]. For JSON bodies it leaves dst alone, since binding already set it.
// dst stays nil when the field was not sent at all.
func formIDs(c *gin.Context, field string, dst *[]int64) error {
	if !isForm(c) {
		return nil
	}
	var (
		values  []string
		present bool
	)
	for _, key := range []string{field, field + "[]"} {
		if vs, ok := c.GetPostFormArray(key); ok {
			values = append(values, vs...)
			present = true
		}
	}
	if !present {
		return nil
	}
	ids, err := parseIDs(field, values)
	if err != nil {
		return err
	}
	*dst = ids
	return nil
}

// parseIDs converts form values to ids. Empty values are skipped so that an
// empty form field clears the list.
func parseIDs(field string, values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &domain.ValidationError{Field: field, Message: "The " + strings.ReplaceAll(field, "_", " ") + " field must contain integers."}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// formFiles opens uploaded files and closes them once the handler is done.
type formFiles struct {
	c       *gin.Context
	closers []io.Closer
}

func newFormFiles(c *gin.Context) *formFiles { return &formFiles{c: c} }

// get returns the upload sent under field, or nil when there is none.
func (f *formFiles) get(field string) (*storage.Upload, error) {
	if f.c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := f.c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.ValidationError{Field: field, Message: "The " + strings.ReplaceAll(field, "_", " ") + " failed to upload."}
	}
	return f.open(field, fh)
}

func (f *formFiles) open(field string, fh *multipart.FileHeader) (*storage.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open upload %s", field)
	}
	f.closers = append(f.closers, file)
	return &storage.Upload{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	}, nil
}

func (f *formFiles) Close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
}

// pathID reads a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusNotFound, "No data found.")
		return 0, false
	}
	return id, true
}
