package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/service"
)

// PivotHandler serves the endpoints of one relationship kind.
type PivotHandler struct {
	pivots service.PivotService
	title  string
}

func NewPivotHandler(pivots service.PivotService) *PivotHandler {
	kind := pivots.Kind()
	return &PivotHandler{pivots: pivots, title: humanize(kind.Table)}
}

func (h *PivotHandler) routes(g *gin.RouterGroup, path string) {
	g.GET(path, h.List)
	g.POST(path, h.Attach)
	g.GET(path+"/:id", h.Show)
	g.PUT(path+"/:id", h.Sync)
	g.DELETE(path+"/:id", h.Remove)
}

// List returns owners with their members.
func (h *PivotHandler) List(c *gin.Context) {
	var req service.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, errPaging)
		return
	}
	page, err := h.pivots.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, h.title+" fetched successfully.", page)
}

// Attach adds members to the owner named in the body. Existing members stay.
func (h *PivotHandler) Attach(c *gin.Context) {
	kind := h.pivots.Kind()
	body, err := pivotBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ownerID, err := bodyID(body, kind.OwnerColumn)
	if err != nil {
		respondError(c, err)
		return
	}
	memberIDs, err := bodyIDs(body, kind.MemberColumn)
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := h.pivots.Attach(c.Request.Context(), service.PivotInput{OwnerID: ownerID, MemberIDs: memberIDs})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, h.title+" added successfully.", rows)
}

// Show returns a pivot row, or the owner with its members for owner-addressed kinds.
func (h *PivotHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.pivots.Show(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", out)
}

// Sync makes the owner in the path have exactly the members in the body.
func (h *PivotHandler) Sync(c *gin.Context) {
	ownerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	body, err := pivotBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	memberIDs, err := bodyIDs(body, h.pivots.Kind().MemberColumn)
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := h.pivots.Sync(c.Request.Context(), ownerID, memberIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, h.title+" updated successfully.", rows)
}

// Remove deletes one pivot row by its id.
func (h *PivotHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.pivots.Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: h.title + " deleted successfully."})
}

// pivotBody reads the request body as raw values keyed by field. Form values
// sent as field[] are stored under field.
func pivotBody(c *gin.Context) (map[string]any, error) {
	body := map[string]any{}
	if isForm(c) {
		if c.ContentType() == "multipart/form-data" {
			if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
				return nil, &domain.ValidationError{Field: "body", Message: "The request body is malformed."}
			}
		} else if err := c.Request.ParseForm(); err != nil {
			return nil, &domain.ValidationError{Field: "body", Message: "The request body is malformed."}
		}
		for key, values := range c.Request.PostForm {
			key = strings.TrimSuffix(key, "[]")
			list, _ := body[key].([]any)
			for _, v := range values {
				list = append(list, v)
			}
			body[key] = list
		}
		return body, nil
	}
	if c.Request.ContentLength == 0 {
		return body, nil
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, &domain.ValidationError{Field: "body", Message: "The request body is malformed."}
	}
	return body, nil
}

// bodyID reads a single id. A missing field yields zero, which the service
// reports as required.
func bodyID(body map[string]any, field string) (int64, error) {
	raw, ok := body[field]
	if !ok || raw == nil {
		return 0, nil
	}
	if list, ok := raw.([]any); ok {
		if len(list) != 1 {
			return 0, invalidField(field, "must be a single id")
		}
		raw = list[0]
	}
	id, ok := toID(raw)
	if !ok {
		return 0, invalidField(field, "must be an integer")
	}
	return id, nil
}

// bodyIDs reads an id list; a single value counts as a list of one.
func bodyIDs(body map[string]any, field string) ([]int64, error) {
	raw, ok := body[field]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		list = []any{raw}
	}
	ids := make([]int64, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		id, ok := toID(v)
		if !ok {
			return nil, invalidField(field, "must contain integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toID(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		id, err := t.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return id, err == nil
	}
	return 0, false
}

func invalidField(field, problem string) error {
	return &domain.ValidationError{Field: field, Message: problem}
}

// humanize turns a table name into a title, e.g. "Category workouts".
func humanize(table string) string {
	s := strings.ReplaceAll(table, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
