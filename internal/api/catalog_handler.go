package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/service"
	"alcyxob/fitness-content/internal/storage"
)

// resource serves list/show/store/update/destroy for one entity. bind reads
// the create and update input from the request; uploads it opens are closed
// by the caller once the service returns.
type resource[T, In any] struct {
	title  string // e.g. "Category", used in messages
	list   func(*gin.Context) (service.Page[T], error)
	get    func(context.Context, int64) (*T, error)
	create func(context.Context, In) (*T, error)
	update func(context.Context, int64, In) (*T, error)
	remove func(context.Context, int64) error
	bind   func(*gin.Context, *formFiles) (In, error)
}

// routes registers the read routes on read and the write routes on write.
func (r resource[T, In]) routes(read, write *gin.RouterGroup, path string) {
	read.GET(path, r.List)
	read.GET(path+"/:id", r.Show)
	write.POST(path, r.Store)
	write.PUT(path+"/:id", r.Update)
	write.POST(path+"/:id", r.Update) // multipart clients cannot always send PUT
	write.DELETE(path+"/:id", r.Destroy)
}

func (r resource[T, In]) List(c *gin.Context) {
	page, err := r.list(c)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, r.title+" list fetched successfully.", page)
}

func (r resource[T, In]) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := r.get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", row)
}

func (r resource[T, In]) Store(c *gin.Context) {
	files := newFormFiles(c)
	defer files.Close()
	in, err := r.bind(c, files)
	if err != nil {
		respondError(c, err)
		return
	}
	row, err := r.create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, r.title+" created successfully.", row)
}

func (r resource[T, In]) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	files := newFormFiles(c)
	defer files.Close()
	in, err := r.bind(c, files)
	if err != nil {
		respondError(c, err)
		return
	}
	row, err := r.update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, r.title+" updated successfully.", row)
}

func (r resource[T, In]) Destroy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: r.title + " deleted successfully."})
}

var errPaging = &domain.ValidationError{Field: "page", Message: "The page and limit must be integers."}

// paged adapts a list operation taking query paging parameters.
func paged[T any](list func(context.Context, service.PageRequest) (service.Page[T], error)) func(*gin.Context) (service.Page[T], error) {
	return func(c *gin.Context) (service.Page[T], error) {
		var req service.PageRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			return service.Page[T]{}, errPaging
		}
		return list(c.Request.Context(), req)
	}
}

func listExercises(exercises service.ExerciseService) func(*gin.Context) (service.Page[service.ExerciseDetail], error) {
	return func(c *gin.Context) (service.Page[service.ExerciseDetail], error) {
		var filter service.ExerciseFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			return service.Page[service.ExerciseDetail]{}, errPaging
		}
		return exercises.List(c.Request.Context(), filter)
	}
}

// bindPlain binds inputs that carry no files.
func bindPlain[In any](c *gin.Context, _ *formFiles) (In, error) {
	var in In
	err := bindInput(c, &in)
	return in, err
}

func bindCategory(c *gin.Context, f *formFiles) (service.CategoryInput, error) {
	return bindPlain[service.CategoryInput](c, f)
}

func bindExecutionPoint(c *gin.Context, f *formFiles) (service.ExecutionPointInput, error) {
	return bindPlain[service.ExecutionPointInput](c, f)
}

func bindMasterGoal(c *gin.Context, f *formFiles) (service.MasterGoalInput, error) {
	return bindPlain[service.MasterGoalInput](c, f)
}

func bindEquipment(c *gin.Context, f *formFiles) (service.EquipmentInput, error) {
	var in service.EquipmentInput
	if err := bindInput(c, &in); err != nil {
		return in, err
	}
	image, err := f.get("image_url")
	in.Image = image
	return in, err
}

func bindFocusArea(c *gin.Context, f *formFiles) (service.FocusAreaInput, error) {
	var in service.FocusAreaInput
	if err := bindInput(c, &in); err != nil {
		return in, err
	}
	image, err := f.get("image_url")
	in.Image = image
	return in, err
}

func bindWorkout(c *gin.Context, f *formFiles) (service.WorkoutInput, error) {
	var in service.WorkoutInput
	if err := bindInput(c, &in); err != nil {
		return in, err
	}
	if err := formIDs(c, "exercise_ids", &in.ExerciseIDs); err != nil {
		return in, err
	}
	image, err := f.get("image_url")
	in.Image = image
	return in, err
}

func bindExercise(c *gin.Context, f *formFiles) (service.ExerciseInput, error) {
	var in service.ExerciseInput
	if err := bindInput(c, &in); err != nil {
		return in, err
	}
	if err := formIDs(c, "focus_area_ids", &in.FocusAreaIDs); err != nil {
		return in, err
	}
	if err := formIDs(c, "equipment_ids", &in.EquipmentIDs); err != nil {
		return in, err
	}
	var err error
	for _, u := range []struct {
		field string
		dst   **storage.Upload
	}{
		{"image_url", &in.Image},
		{"male_video_path", &in.MaleVideo},
		{"female_video_path", &in.FemaleVideo},
	} {
		if *u.dst, err = f.get(u.field); err != nil {
			return in, err
		}
	}
	return in, nil
}
