package client

import (
	"context"
	"sort"
	"sync"
	"time"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
)

const (
	DefaultSectionQuiet = 300 * time.Millisecond
	DefaultGlobalQuiet  = 1500 * time.Millisecond
)

// Refresh re-reads server state. full means every section is stale;
// otherwise only the listed sections are.
type Refresh func(ctx context.Context, sections []types.SectionKey, full bool)

// Coalescer collapses bursts of notifications into one refresh per quiet
// period. Each new notification restarts the matching timer.
type Coalescer struct {
	ctx          context.Context
	refresh      Refresh
	sectionQuiet time.Duration
	globalQuiet  time.Duration

	mu           sync.Mutex
	pending      map[types.SectionKey]struct{}
	sectionTimer *time.Timer
	globalTimer  *time.Timer
	stopped      bool
}

func NewCoalescer(ctx context.Context, sectionQuiet, globalQuiet time.Duration, refresh Refresh) *Coalescer {
	if sectionQuiet <= 0 {
		sectionQuiet = DefaultSectionQuiet
	}
	if globalQuiet <= 0 {
		globalQuiet = DefaultGlobalQuiet
	}
	return &Coalescer{
		ctx:          ctx,
		refresh:      refresh,
		sectionQuiet: sectionQuiet,
		globalQuiet:  globalQuiet,
		pending:      map[types.SectionKey]struct{}{},
	}
}

// Notify feeds one server notification. Liveness and presence frames are
// ignored.
func (c *Coalescer) Notify(n types.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	switch {
	case n.IsGlobal():
		c.globalTimer = restart(c.globalTimer, c.globalQuiet, c.fireGlobal)
	case n.Type == types.NotifySectionUpdated && n.SectionKey != "":
		c.pending[n.SectionKey] = struct{}{}
		c.sectionTimer = restart(c.sectionTimer, c.sectionQuiet, c.fireSections)
	}
}

// Reset schedules a full refresh, used after a reconnect since anything
// may have changed while offline.
func (c *Coalescer) Reset() {
	c.Notify(types.SettingsUpdated())
}

func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.sectionTimer != nil {
		c.sectionTimer.Stop()
	}
	if c.globalTimer != nil {
		c.globalTimer.Stop()
	}
}

func restart(t *time.Timer, d time.Duration, fn func()) *time.Timer {
	if t == nil {
		return time.AfterFunc(d, fn)
	}
	t.Stop()
	t.Reset(d)
	return t
}

func (c *Coalescer) fireSections() {
	c.mu.Lock()
	if c.stopped || len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	sections := make([]types.SectionKey, 0, len(c.pending))
	for k := range c.pending {
		sections = append(sections, k)
	}
	c.pending = map[types.SectionKey]struct{}{}
	c.mu.Unlock()

	sort.Slice(sections, func(i, j int) bool { return sections[i] < sections[j] })
	c.refresh(c.ctx, sections, false)
}

func (c *Coalescer) fireGlobal() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	// A full refresh covers anything still pending per section.
	c.pending = map[types.SectionKey]struct{}{}
	if c.sectionTimer != nil {
		c.sectionTimer.Stop()
	}
	c.mu.Unlock()

	c.refresh(c.ctx, nil, true)
}
