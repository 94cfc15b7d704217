package coordinator

import (
	"context"
	"strings"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
)

type AssignmentInput struct {
	SectionKey  types.SectionKey
	ContentType types.ContentType
	ContentID   string
	Offset      *int
}

func (in AssignmentInput) validate() error {
	if in.SectionKey == "" || in.ContentType == "" || strings.TrimSpace(in.ContentID) == "" {
		return apierr.Validation("section_key, content_type and content_id are required")
	}
	if !in.SectionKey.Valid() {
		return apierr.Validation("unknown section_key %q", in.SectionKey)
	}
	if !in.ContentType.Valid() {
		return apierr.Validation("unknown content_type %q", in.ContentType)
	}
	if in.Offset != nil && *in.Offset < 0 {
		return apierr.Validation("offset must be >= 0")
	}
	return nil
}

// CreateAssignment binds content to a section. A section may hold several
// assignments; the referenced content is not required to exist.
func (c *Coordinator) CreateAssignment(ctx context.Context, in AssignmentInput) (a types.Assignment, err error) {
	defer func() { observe("create_assignment", err) }()

	if err := in.validate(); err != nil {
		return types.Assignment{}, err
	}
	a = types.Assignment{
		SectionKey:  in.SectionKey,
		ContentType: in.ContentType,
		ContentID:   strings.TrimSpace(in.ContentID),
		CreatedAt:   c.now(),
	}
	// Offsets only mean something for groups.
	if in.ContentType == types.ContentGroupReference && in.Offset != nil {
		off := *in.Offset
		a.Offset = &off
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	assignments, err := c.store.Assignments(ctx)
	if err != nil {
		return types.Assignment{}, apierr.Storage("read assignments", err)
	}
	a.ID = c.newID()
	if err := c.store.PutAssignments(ctx, append(assignments, a)); err != nil {
		return types.Assignment{}, apierr.Storage("write assignments", err)
	}
	c.log.Info("Assignment created", "assignment_id", a.ID, "section_key", a.SectionKey, "content_type", a.ContentType, "content_id", a.ContentID)
	c.emit(types.SectionUpdated(a.SectionKey, types.ActionAssign, a.ContentType, a.ContentID))
	return a, nil
}

// DeleteAssignment is idempotent: an unknown id is a successful no-op that
// neither writes nor notifies.
func (c *Coordinator) DeleteAssignment(ctx context.Context, id string) (err error) {
	defer func() { observe("delete_assignment", err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return apierr.Validation("assignment id is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	assignments, err := c.store.Assignments(ctx)
	if err != nil {
		return apierr.Storage("read assignments", err)
	}
	idx := -1
	for i, a := range assignments {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	deleted := assignments[idx]
	remaining := append(assignments[:idx:idx], assignments[idx+1:]...)
	if err := c.store.PutAssignments(ctx, remaining); err != nil {
		return apierr.Storage("write assignments", err)
	}
	c.log.Info("Assignment deleted", "assignment_id", id, "section_key", deleted.SectionKey)
	c.emit(types.SectionUpdated(deleted.SectionKey, types.ActionUnassign, deleted.ContentType, deleted.ContentID))
	return nil
}
