package coordinator

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
)

type MembershipAction string

const (
	MembershipAdd     MembershipAction = "add"
	MembershipReplace MembershipAction = "replace"
)

func findGroup(groups []types.CarouselGroup, id string) int {
	for i, g := range groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (c *Coordinator) CreateGroup(ctx context.Context, name string) (g types.CarouselGroup, err error) {
	defer func() { observe("create_group", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return types.CarouselGroup{}, apierr.Validation("group name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	groups, err := c.store.Groups(ctx)
	if err != nil {
		return types.CarouselGroup{}, apierr.Storage("read groups", err)
	}
	assignments, err := c.store.Assignments(ctx)
	if err != nil {
		return types.CarouselGroup{}, apierr.Storage("read assignments", err)
	}
	g = types.CarouselGroup{
		ID:        c.newID(),
		Name:      name,
		Materials: []types.Material{},
		CreatedAt: c.now(),
	}
	if err := c.store.PutGroups(ctx, append(groups, g)); err != nil {
		return types.CarouselGroup{}, apierr.Storage("write groups", err)
	}
	c.log.Info("Group created", "group_id", g.ID, "name", name)

	// A fresh id has no assignments yet; resolving keeps this path uniform
	// with the other group mutations.
	c.emitGroupUpdate(assignments, g.ID)
	return g, nil
}

// emitGroupUpdate resolves against assignments read before the write, so
// nothing can fail once the write has landed.
func (c *Coordinator) emitGroupUpdate(assignments []types.Assignment, groupID string) {
	c.emitSections(Resolve(assignments, groupID, types.ContentGroupReference), types.ActionGroupUpdate, types.ContentGroupReference, groupID)
}

// DeleteGroup cascades in a fixed order: assignments referencing the group,
// then its member and owned materials, then the group itself. Blob removal
// failures during the cascade are logged and do not abort it.
func (c *Coordinator) DeleteGroup(ctx context.Context, id string) (err error) {
	defer func() { observe("delete_group", err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return apierr.Validation("group id is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	groups, err := c.store.Groups(ctx)
	if err != nil {
		return apierr.Storage("read groups", err)
	}
	assignments, err := c.store.Assignments(ctx)
	if err != nil {
		return apierr.Storage("read assignments", err)
	}
	materials, err := c.store.Materials(ctx)
	if err != nil {
		return apierr.Storage("read materials", err)
	}

	gidx := findGroup(groups, id)
	affected := Resolve(assignments, id, types.ContentGroupReference)

	doomed := map[string]string{}
	if gidx >= 0 {
		for _, m := range groups[gidx].Materials {
			doomed[m.ID] = m.Filename
		}
	}
	for _, m := range materials {
		if m.GroupID == id {
			doomed[m.ID] = m.Filename
		}
	}
	if gidx < 0 && len(affected) == 0 && len(doomed) == 0 {
		return nil
	}

	if len(affected) > 0 {
		if err := c.store.PutAssignments(ctx, withoutReferences(assignments, id, types.ContentGroupReference)); err != nil {
			return apierr.Storage("write assignments", err)
		}
	}

	if len(doomed) > 0 {
		for mid, key := range doomed {
			if key == "" {
				continue
			}
			if err := c.blobs.Delete(ctx, key); err != nil {
				c.log.Warn("Failed to delete group media", "group_id", id, "material_id", mid, "filename", key, "error", err)
			}
		}
		remaining := make([]types.Material, 0, len(materials))
		for _, m := range materials {
			if _, gone := doomed[m.ID]; !gone {
				remaining = append(remaining, m)
			}
		}
		if len(remaining) != len(materials) {
			if err := c.store.PutMaterials(ctx, remaining); err != nil {
				return apierr.Storage("write materials", err)
			}
		}
	}

	if gidx >= 0 {
		rest := append(groups[:gidx:gidx], groups[gidx+1:]...)
		if err := c.store.PutGroups(ctx, rest); err != nil {
			return apierr.Storage("write groups", err)
		}
	}

	c.log.Info("Group deleted", "group_id", id, "assignments", len(affected), "materials", len(doomed))
	c.emitSections(affected, types.ActionDelete, types.ContentGroupReference, id)
	return nil
}

// UpdateGroupMaterials appends to or replaces a group's member list. Ids
// that do not name a known material are dropped.
func (c *Coordinator) UpdateGroupMaterials(ctx context.Context, groupID string, action MembershipAction, materialIDs []string) (g types.CarouselGroup, err error) {
	defer func() { observe("update_group_materials", err) }()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return types.CarouselGroup{}, apierr.Validation("group id is required")
	}
	if action != MembershipAdd && action != MembershipReplace {
		return types.CarouselGroup{}, apierr.Validation("action must be %q or %q", MembershipAdd, MembershipReplace)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	groups, err := c.store.Groups(ctx)
	if err != nil {
		return types.CarouselGroup{}, apierr.Storage("read groups", err)
	}
	gidx := findGroup(groups, groupID)
	if gidx < 0 {
		return types.CarouselGroup{}, apierr.NotFound("group %s not found", groupID)
	}
	materials, err := c.store.Materials(ctx)
	if err != nil {
		return types.CarouselGroup{}, apierr.Storage("read materials", err)
	}
	assignments, err := c.store.Assignments(ctx)
	if err != nil {
		return types.CarouselGroup{}, apierr.Storage("read assignments", err)
	}
	byID := make(map[string]types.Material, len(materials))
	for _, m := range materials {
		byID[m.ID] = m
	}
	resolved := make([]types.Material, 0, len(materialIDs))
	for _, mid := range materialIDs {
		if m, ok := byID[strings.TrimSpace(mid)]; ok {
			resolved = append(resolved, m)
		}
	}
	if dropped := len(materialIDs) - len(resolved); dropped > 0 {
		c.log.Debug("Dropped unknown material ids", "group_id", groupID, "dropped", dropped)
	}

	if action == MembershipAdd {
		groups[gidx].Materials = append(groups[gidx].Materials, resolved...)
	} else {
		groups[gidx].Materials = resolved
	}
	if err := c.store.PutGroups(ctx, groups); err != nil {
		return types.CarouselGroup{}, apierr.Storage("write groups", err)
	}
	c.log.Info("Group materials updated", "group_id", groupID, "action", action, "count", len(groups[gidx].Materials))
	c.emitGroupUpdate(assignments, groupID)
	return groups[gidx], nil
}

func groupBlobKey(groupID string, millis int64, filename string) string {
	ext := strings.ToLower(path.Ext(cleanName(filename)))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("group-%s-%d-%s%s", groupID, millis, suffix, ext)
}

// UploadGroupMaterials stores files directly into a group. The new
// materials are recorded before the group list that references them.
func (c *Coordinator) UploadGroupMaterials(ctx context.Context, groupID string, files []UploadInput) (added []types.Material, err error) {
	defer func() { observe("upload_group_materials", err) }()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, apierr.Validation("group id is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	groups, err := c.store.Groups(ctx)
	if err != nil {
		return nil, apierr.Storage("read groups", err)
	}
	gidx := findGroup(groups, groupID)
	if gidx < 0 {
		return nil, apierr.NotFound("group %s not found", groupID)
	}
	if len(files) == 0 {
		return nil, apierr.Validation("no files uploaded")
	}
	assignments, err := c.store.Assignments(ctx)
	if err != nil {
		return nil, apierr.Storage("read assignments", err)
	}

	now := c.now()
	var stored []string
	rollback := func() {
		for _, key := range stored {
			c.discardBlob(ctx, key)
		}
	}
	for _, f := range files {
		if f.Body == nil {
			rollback()
			return nil, apierr.Validation("empty file in upload")
		}
		key := groupBlobKey(groupID, now.UnixMilli(), f.Filename)
		body := &countingReader{r: f.Body}
		if err := c.blobs.Put(ctx, key, body, f.ContentType); err != nil {
			rollback()
			return nil, apierr.Storage("store media", err)
		}
		stored = append(stored, key)
		added = append(added, types.Material{
			ID:               c.newID(),
			Filename:         key,
			OriginalFilename: strings.TrimSpace(f.Filename),
			Type:             types.MediaTypeFor(f.Filename),
			URL:              types.MediaURL(key),
			Size:             body.n,
			UploadedAt:       now,
			GroupID:          groupID,
		})
	}

	materials, err := c.store.Materials(ctx)
	if err != nil {
		rollback()
		return nil, apierr.Storage("read materials", err)
	}
	if err := c.store.PutMaterials(ctx, append(materials, added...)); err != nil {
		rollback()
		return nil, apierr.Storage("write materials", err)
	}
	groups[gidx].Materials = append(groups[gidx].Materials, added...)
	if err := c.store.PutGroups(ctx, groups); err != nil {
		if rerr := c.store.PutMaterials(ctx, materials); rerr != nil {
			c.log.Error("Failed to restore materials after group write failure", "group_id", groupID, "error", rerr)
		}
		rollback()
		return nil, apierr.Storage("write groups", err)
	}
	c.log.Info("Group media uploaded", "group_id", groupID, "files", len(added))
	c.emitGroupUpdate(assignments, groupID)
	return added, nil
}
