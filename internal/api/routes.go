package api

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/service"
	"alcyxob/fitness-content/internal/storage"
)

// Options configure the router built by NewRouter.
type Options struct {
	ServiceName  string
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(svc *service.Services, files storage.FileStorage, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "fitness-content"
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(opts.ServiceName),
		RequestLogger(opts.Logger),
		LimitBody(opts.MaxBodyBytes),
	)
	SetupRoutes(router, svc, files)
	return router
}

func SetupRoutes(router *gin.Engine, svc *service.Services, files storage.FileStorage) {
	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.UserDetails, svc.Home)
	dashboardHandler := NewDashboardHandler(svc.Dashboard)
	mediaHandler := NewMediaHandler(files)

	ping := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	}
	router.GET("/ping", ping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ping", ping)
		apiV1.POST("/register", authHandler.Register)
		apiV1.POST("/login", authHandler.Login)
		apiV1.POST("/admin/login", authHandler.AdminLogin)
	}

	// --- Any signed-in user ---
	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(svc.Auth))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/home", userHandler.Home)
		protected.POST("/user-detail", userHandler.StoreDetail)
		protected.PUT("/user-detail", userHandler.UpdateDetail)
		protected.GET("/profile", userHandler.Profile)
		protected.GET("/media/*key", mediaHandler.Download)
	}

	// --- Administrators ---
	admin := protected.Group("")
	admin.Use(AdminMiddleware())
	{
		admin.GET("/dashboard", dashboardHandler.Counts)
		admin.GET("/dashboard/users", dashboardHandler.UserStats)
		admin.POST("/media/uploads", mediaHandler.RequestUpload)
		admin.POST("/admin/register", authHandler.RegisterAdmin)
		admin.GET("/admin/profile", authHandler.AdminProfile)

		resource[domain.Category, service.CategoryInput]{
			title: "Category", list: paged(svc.Categories.List), get: svc.Categories.Get,
			create: svc.Categories.Create, update: svc.Categories.Update, remove: svc.Categories.Delete,
			bind: bindCategory,
		}.routes(admin, admin, "/categories")
		resource[domain.Equipment, service.EquipmentInput]{
			title: "Equipment", list: paged(svc.Equipments.List), get: svc.Equipments.Get,
			create: svc.Equipments.Create, update: svc.Equipments.Update, remove: svc.Equipments.Delete,
			bind: bindEquipment,
		}.routes(admin, admin, "/equipments")
		resource[service.ExerciseDetail, service.ExerciseInput]{
			title: "Exercise", list: listExercises(svc.Exercises), get: svc.Exercises.Get,
			create: svc.Exercises.Create, update: svc.Exercises.Update, remove: svc.Exercises.Delete,
			bind: bindExercise,
		}.routes(admin, admin, "/exercises")
		resource[domain.FocusArea, service.FocusAreaInput]{
			title: "Focus Area", list: paged(svc.FocusAreas.List), get: svc.FocusAreas.Get,
			create: svc.FocusAreas.Create, update: svc.FocusAreas.Update, remove: svc.FocusAreas.Delete,
			bind: bindFocusArea,
		}.routes(admin, admin, "/focus-areas")
		resource[service.WorkoutDetail, service.WorkoutInput]{
			title: "Workout", list: paged(svc.Workouts.List), get: svc.Workouts.Get,
			create: svc.Workouts.Create, update: svc.Workouts.Update, remove: svc.Workouts.Delete,
			bind: bindWorkout,
		}.routes(admin, admin, "/workouts")
		resource[domain.ExecutionPoint, service.ExecutionPointInput]{
			title: "Execution point", list: paged(svc.ExecutionPoints.List), get: svc.ExecutionPoints.Get,
			create: svc.ExecutionPoints.Create, update: svc.ExecutionPoints.Update, remove: svc.ExecutionPoints.Delete,
			bind: bindExecutionPoint,
		}.routes(admin, admin, "/execution-points")
		// Goals are picked by users during onboarding, so anyone signed in may read them.
		resource[domain.MasterGoal, service.MasterGoalInput]{
			title: "Goal", list: paged(svc.MasterGoals.List), get: svc.MasterGoals.Get,
			create: svc.MasterGoals.Create, update: svc.MasterGoals.Update, remove: svc.MasterGoals.Delete,
			bind: bindMasterGoal,
		}.routes(protected, admin, "/master-goals")

		paths := make([]string, 0, len(svc.Pivots))
		for path := range svc.Pivots {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			NewPivotHandler(svc.Pivots[path]).routes(admin, "/"+path)
		}
	}
}
