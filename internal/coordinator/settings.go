package coordinator

import (
	"context"
	"strings"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
)

func (c *Coordinator) Settings(ctx context.Context) (types.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.store.Settings(ctx)
	if err != nil {
		return types.Settings{}, apierr.Storage("read settings", err)
	}
	return s, nil
}

// UpdateSettings replaces all three intervals at once; nothing is merged.
func (c *Coordinator) UpdateSettings(ctx context.Context, s types.Settings) (err error) {
	defer func() { observe("update_settings", err) }()

	if s.HeaderInterval <= 0 || s.CarouselInterval <= 0 || s.FooterInterval <= 0 {
		return apierr.Validation("intervals must be positive integers")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.PutSettings(ctx, s); err != nil {
		return apierr.Storage("write settings", err)
	}
	c.log.Info("Settings updated", "header", s.HeaderInterval, "carousel", s.CarouselInterval, "footer", s.FooterInterval)
	c.emit(types.SettingsUpdated())
	return nil
}

// Announce pushes a free-text banner to every display. Nothing is stored.
func (c *Coordinator) Announce(_ context.Context, content, style string) (err error) {
	defer func() { observe("announce", err) }()

	if strings.TrimSpace(content) == "" {
		return apierr.Validation("announcement content is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emit(types.Announcement(content, style))
	return nil
}
