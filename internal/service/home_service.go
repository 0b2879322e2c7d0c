package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

const homeCacheKey = "home"

// HomeFeed is the payload of the mobile home screen.
type HomeFeed struct {
	FocusAreas []domain.FocusArea `json:"focus_areas"`
	Categories []HomeCategory     `json:"categories"`
}

// HomeCategory carries at most HomeFeedLimit of the newest workouts.
type HomeCategory struct {
	domain.Category
	Workouts []HomeWorkout `json:"workouts"`
}

// HomeWorkout carries at most HomeFeedLimit of the newest exercises.
type HomeWorkout struct {
	domain.Workout
	Exercises []domain.Exercise `json:"exercises"`
}

type HomeService interface {
	Feed(ctx context.Context) (*HomeFeed, error)
	// Invalidate drops the cached feed. It is wired as the change hook of
	// every entity and relationship the feed shows.
	Invalidate(ctx context.Context)
}

type homeService struct {
	focusAreas      repository.EntityRepository[domain.FocusArea]
	categories      repository.EntityRepository[domain.Category]
	expandWorkouts  *relation.Expander[domain.Workout]
	expandExercises *relation.Expander[domain.Exercise]
	cache           *gocache.Cache
	logger          *slog.Logger

	// generation counts invalidations. A feed built while it moved is
	// returned but not cached.
	mu         sync.Mutex
	generation uint64
}

func NewHomeService(store repository.Store, registry *relation.Registry, ttl time.Duration, logger *slog.Logger) HomeService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s := &homeService{
		focusAreas:      store.FocusAreas(),
		categories:      store.Categories(),
		expandWorkouts:  relation.NewExpander(registry.For(domain.CategoryWorkouts).Store(), repository.Loader(store.Workouts())),
		expandExercises: relation.NewExpander(registry.For(domain.WorkoutExercises).Store(), repository.Loader(store.Exercises())),
		cache:           gocache.New(ttl, 2*ttl),
		logger:          logger,
	}
	registry.For(domain.CategoryWorkouts).Subscribe(s.onRelationChange)
	registry.For(domain.WorkoutExercises).Subscribe(s.onRelationChange)
	return s
}

func (s *homeService) Feed(ctx context.Context) (*HomeFeed, error) {
	if cached, ok := s.cache.Get(homeCacheKey); ok {
		return cached.(*HomeFeed), nil
	}
	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	// 1. Every focus area and category
	focusAreas, _, err := s.focusAreas.List(ctx, repository.ListQuery{})
	if err != nil {
		return nil, err
	}
	categories, _, err := s.categories.List(ctx, repository.ListQuery{})
	if err != nil {
		return nil, err
	}

	// 2. Newest workouts per category, then newest exercises per workout
	workouts, err := s.expandWorkouts.Expand(ctx, idsOf(categories), HomeFeedLimit)
	if err != nil {
		return nil, err
	}
	seen := relation.IDSet{}
	for _, list := range workouts {
		for _, w := range list {
			seen.Add(w.ID)
		}
	}
	exercises, err := s.expandExercises.Expand(ctx, seen.SortedDesc(), HomeFeedLimit)
	if err != nil {
		return nil, err
	}

	feed := &HomeFeed{FocusAreas: focusAreas, Categories: make([]HomeCategory, len(categories))}
	for i, c := range categories {
		list := workouts[c.ID]
		hc := HomeCategory{Category: c, Workouts: make([]HomeWorkout, len(list))}
		for j, w := range list {
			hc.Workouts[j] = HomeWorkout{Workout: w, Exercises: exercises[w.ID]}
		}
		feed.Categories[i] = hc
	}

	s.mu.Lock()
	if s.generation == generation {
		s.cache.SetDefault(homeCacheKey, feed)
	}
	s.mu.Unlock()
	return feed, nil
}

func (s *homeService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	s.cache.Delete(homeCacheKey)
	s.mu.Unlock()
}

func (s *homeService) onRelationChange(ctx context.Context, change relation.Change) {
	s.logger.DebugContext(ctx, "home feed invalidated", "kind", change.Kind.Table, "owner_id", change.OwnerID)
	s.Invalidate(ctx)
}
