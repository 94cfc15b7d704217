package bus

import (
	"context"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
)

// Bus carries announcements between processes. Subscribers only ever see
// broadcast notifications; anything else on the channel is dropped.
type Bus interface {
	Publish(ctx context.Context, n types.Notification) error
	StartForwarder(ctx context.Context, onMsg func(n types.Notification)) error
	Close() error
}
