package relation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"alcyxob/fitness-content/internal/domain"
)

var tracer = otel.Tracer("relation")

// Mode selects how a sync treats current members missing from the desired set.
type Mode string

const (
	// ModeExact makes membership equal to the desired set.
	ModeExact Mode = "exact"
	// ModeAttachOnly adds missing members and never removes any.
	ModeAttachOnly Mode = "attach_only"
)

// DefaultMaxAttempts bounds how often a sync is tried when it keeps hitting
// duplicate pairs written by a concurrent writer.
const DefaultMaxAttempts = 3

// Change describes a sync that modified membership.
type Change struct {
	Kind    domain.RelationKind
	OwnerID int64
	Added   IDSet
	Removed IDSet
}

// ChangeListener is notified after a sync committed a change.
type ChangeListener func(ctx context.Context, change Change)

// SyncService reconciles the members of owners of a single relationship kind.
type SyncService struct {
	kind        domain.RelationKind
	backend     Backend
	locker      Locker
	field       string
	maxAttempts int
	retryWait   time.Duration
	logger      *slog.Logger

	mu        sync.RWMutex
	listeners []ChangeListener
}

// Option configures a SyncService.
type Option func(*SyncService)

// WithField sets the request field reported in validation errors.
func WithField(field string) Option {
	return func(s *SyncService) { s.field = field }
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(s *SyncService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryWait sets the initial backoff between attempts.
func WithRetryWait(d time.Duration) Option {
	return func(s *SyncService) { s.retryWait = d }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *SyncService) { s.logger = l }
}

// WithListener registers a change listener at construction time.
func WithListener(l ChangeListener) Option {
	return func(s *SyncService) { s.listeners = append(s.listeners, l) }
}

// NewSyncService creates the sync service for kind. A nil locker falls back
// to an in-process KeyedMutex.
func NewSyncService(kind domain.RelationKind, backend Backend, locker Locker, opts ...Option) *SyncService {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	s := &SyncService{
		kind:        kind,
		backend:     backend,
		locker:      locker,
		field:       kind.MemberColumn,
		maxAttempts: DefaultMaxAttempts,
		retryWait:   20 * time.Millisecond,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SyncService) Kind() domain.RelationKind { return s.kind }

// Store returns the non-transactional association store of this kind.
func (s *SyncService) Store() AssociationStore { return s.backend.Associations(s.kind) }

// Subscribe adds a change listener.
func (s *SyncService) Subscribe(l ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SyncExact makes the owner's membership equal to desired and returns it.
// An empty desired set detaches everything.
func (s *SyncService) SyncExact(ctx context.Context, ownerID int64, desired IDSet) (IDSet, error) {
	return s.run(ctx, ownerID, desired, ModeExact)
}

// SyncAttachOnly adds the desired members that are missing and returns the
// resulting membership, which may be a superset of desired.
func (s *SyncService) SyncAttachOnly(ctx context.Context, ownerID int64, desired IDSet) (IDSet, error) {
	return s.run(ctx, ownerID, desired, ModeAttachOnly)
}

func (s *SyncService) run(ctx context.Context, ownerID int64, desired IDSet, mode Mode) (IDSet, error) {
	ctx, span := tracer.Start(ctx, "Relation.Sync", trace.WithAttributes(
		attribute.String("relation.kind", s.kind.Table),
		attribute.String("relation.mode", string(mode)),
		attribute.Int64("relation.owner_id", ownerID),
		attribute.Int("relation.desired", desired.Len()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		syncDuration.WithLabelValues(s.kind.Table, string(mode)).Observe(time.Since(start).Seconds())
	}()

	if desired == nil {
		desired = IDSet{}
	}

	if err := s.validate(ctx, ownerID, desired); err != nil {
		syncTotal.WithLabelValues(s.kind.Table, string(mode), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var (
		current IDSet
		change  Change
		attempt int
	)
	op := func() error {
		attempt++
		if attempt > 1 {
			syncRetries.WithLabelValues(s.kind.Table).Inc()
		}
		var err error
		current, change, err = s.attempt(ctx, ownerID, desired, mode)
		if err == nil || errors.Is(err, domain.ErrDuplicatePair) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryWait
	policy.MaxElapsedTime = 0
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.maxAttempts-1)), ctx))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePair) {
			s.logger.WarnContext(ctx, "sync gave up after duplicate pairs",
				"kind", s.kind.Table, "owner_id", ownerID, "attempts", attempt)
			err = errors.Wrapf(domain.ErrConflict, "%s owner %d", s.kind.Table, ownerID)
		}
		syncTotal.WithLabelValues(s.kind.Table, string(mode), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if change.Added.Len() == 0 && change.Removed.Len() == 0 {
		syncTotal.WithLabelValues(s.kind.Table, string(mode), "ok").Inc()
		return current, nil
	}

	syncTotal.WithLabelValues(s.kind.Table, string(mode), "changed").Inc()
	pairsInserted.WithLabelValues(s.kind.Table).Add(float64(change.Added.Len()))
	pairsDeleted.WithLabelValues(s.kind.Table).Add(float64(change.Removed.Len()))
	span.SetAttributes(
		attribute.Int("relation.added", change.Added.Len()),
		attribute.Int("relation.removed", change.Removed.Len()),
	)
	s.logger.DebugContext(ctx, "relation synced",
		"kind", s.kind.Table, "owner_id", ownerID, "mode", mode,
		"added", change.Added.Sorted(), "removed", change.Removed.Sorted())
	s.notify(ctx, change)
	return current, nil
}

// validate checks the owner row and every desired member id before any write.
func (s *SyncService) validate(ctx context.Context, ownerID int64, desired IDSet) error {
	missing, err := s.backend.MissingIDs(ctx, s.kind.Owner, NewIDSet(ownerID))
	if err != nil {
		return errors.Wrapf(err, "check %s owner", s.kind.Table)
	}
	if len(missing) > 0 {
		return domain.NotFoundError{Resource: string(s.kind.Owner), ID: ownerID}
	}
	if desired.Len() == 0 {
		return nil
	}
	missing, err = s.backend.MissingIDs(ctx, s.kind.Member, desired)
	if err != nil {
		return errors.Wrapf(err, "check %s members", s.kind.Table)
	}
	if len(missing) > 0 {
		return domain.NewInvalidIDsError(s.field, missing)
	}
	return nil
}

// attempt performs one locked, transactional read-reconcile-write cycle.
func (s *SyncService) attempt(ctx context.Context, ownerID int64, desired IDSet, mode Mode) (IDSet, Change, error) {
	change := Change{Kind: s.kind, OwnerID: ownerID}

	unlock, err := s.locker.Lock(ctx, LockKey(s.kind, ownerID))
	if err != nil {
		return nil, change, errors.Wrapf(err, "lock %s owner %d", s.kind.Table, ownerID)
	}
	defer unlock()

	var result IDSet
	err = s.backend.WithinOwnerLock(ctx, s.kind, ownerID, func(ctx context.Context, tx AssociationStore) error {
		current, err := tx.ListMemberIDs(ctx, ownerID)
		if err != nil {
			return err
		}
		toAdd, toRemove := Reconcile(current, desired)
		if mode == ModeAttachOnly {
			toRemove = IDSet{}
		}
		// Remove before add.
		if toRemove.Len() > 0 {
			if err := tx.DeletePairs(ctx, ownerID, toRemove); err != nil {
				return err
			}
		}
		if toAdd.Len() > 0 {
			// A member may have been deleted since validate ran.
			missing, err := tx.MissingMembers(ctx, toAdd)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				return domain.NewInvalidIDsError(s.field, missing)
			}
			if err := tx.InsertPairs(ctx, ownerID, toAdd); err != nil {
				return err
			}
		}
		change.Added, change.Removed = toAdd, toRemove
		result, err = tx.ListMemberIDs(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, Change{Kind: s.kind, OwnerID: ownerID}, err
	}
	return result, change, nil
}

// RemovePair deletes one pivot row by its own id under the owner lock and
// notifies listeners. It returns the removed row.
func (s *SyncService) RemovePair(ctx context.Context, id int64) (*domain.Association, error) {
	ctx, span := tracer.Start(ctx, "Relation.RemovePair", trace.WithAttributes(
		attribute.String("relation.kind", s.kind.Table),
		attribute.Int64("relation.pair_id", id),
	))
	defer span.End()

	pair, err := s.Store().GetPair(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, LockKey(s.kind, pair.OwnerID))
	if err != nil {
		return nil, errors.Wrapf(err, "lock %s owner %d", s.kind.Table, pair.OwnerID)
	}
	defer unlock()

	err = s.backend.WithinOwnerLock(ctx, s.kind, pair.OwnerID, func(ctx context.Context, tx AssociationStore) error {
		return tx.DeleteByID(ctx, id)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	pairsDeleted.WithLabelValues(s.kind.Table).Inc()
	s.notify(ctx, Change{Kind: s.kind, OwnerID: pair.OwnerID, Added: IDSet{}, Removed: NewIDSet(pair.MemberID)})
	return pair, nil
}

func (s *SyncService) notify(ctx context.Context, change Change) {
	s.mu.RLock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range listeners {
		l(ctx, change)
	}
}
