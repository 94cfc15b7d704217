package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/data/repos/state"
	"github.com/yungbote/signage-backend/internal/observability"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
	"github.com/yungbote/signage-backend/internal/platform/blob"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

// Notifier fans a notification out to every connected display.
type Notifier interface {
	Broadcast(n types.Notification)
}

// Coordinator owns the signage state. Every operation, reads included, runs
// under one mutex so whole-collection read/modify/write cycles never
// interleave. Notifications are queued while the lock is still held, after
// the write they describe has landed.
type Coordinator struct {
	mu     sync.Mutex
	store  state.Store
	blobs  blob.Store
	notify Notifier
	log    *logger.Logger

	now   func() time.Time
	newID func() string
}

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) { c.newID = newID }
}

func New(store state.Store, blobs blob.Store, notify Notifier, log *logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		blobs:  blobs,
		notify: notify,
		log:    log.With("component", "Coordinator"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) emit(n types.Notification) {
	if c.notify == nil {
		return
	}
	c.notify.Broadcast(n)
}

func (c *Coordinator) emitSections(sections []types.SectionKey, action types.SectionAction, ct types.ContentType, id string) {
	for _, key := range sections {
		c.emit(types.SectionUpdated(key, action, ct, id))
	}
}

func observe(op string, err error) {
	observability.Current().ObserveMutation(op, err)
}

// Snapshot is the aggregate read used by players after every notification.
func (c *Coordinator) Snapshot(ctx context.Context) (types.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	materials, err := c.store.Materials(ctx)
	if err != nil {
		return types.Snapshot{}, apierr.Storage("read materials", err)
	}
	assignments, err := c.store.Assignments(ctx)
	if err != nil {
		return types.Snapshot{}, apierr.Storage("read assignments", err)
	}
	groups, err := c.store.Groups(ctx)
	if err != nil {
		return types.Snapshot{}, apierr.Storage("read groups", err)
	}
	settings, err := c.store.Settings(ctx)
	if err != nil {
		return types.Snapshot{}, apierr.Storage("read settings", err)
	}
	return types.Snapshot{
		Materials:         materials,
		Assignments:       assignments,
		Groups:            groups,
		Settings:          settings,
		AvailableSections: types.AvailableSections(),
	}, nil
}

func (c *Coordinator) Materials(ctx context.Context) ([]types.Material, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, err := c.store.Materials(ctx)
	if err != nil {
		return nil, apierr.Storage("read materials", err)
	}
	return out, nil
}

func (c *Coordinator) Groups(ctx context.Context) ([]types.CarouselGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, err := c.store.Groups(ctx)
	if err != nil {
		return nil, apierr.Storage("read groups", err)
	}
	return out, nil
}

func (c *Coordinator) Assignments(ctx context.Context) ([]types.Assignment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, err := c.store.Assignments(ctx)
	if err != nil {
		return nil, apierr.Storage("read assignments", err)
	}
	return out, nil
}
