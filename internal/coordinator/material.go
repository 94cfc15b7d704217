package coordinator

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
	"github.com/yungbote/signage-backend/internal/platform/blob"
)

// UploadInput is one file as received from a multipart form.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// cleanName reduces a client supplied file name to a single path element.
func cleanName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "upload"
	}
	return base
}

// UploadMaterial stores the bytes and records a standalone material. It emits
// nothing: a new material is not shown anywhere until it is assigned.
func (c *Coordinator) UploadMaterial(ctx context.Context, in UploadInput) (m types.Material, err error) {
	defer func() { observe("upload_material", err) }()

	if in.Body == nil || strings.TrimSpace(in.Filename) == "" {
		return types.Material{}, apierr.Validation("no file uploaded")
	}
	name := cleanName(in.Filename)
	now := c.now()
	key := fmt.Sprintf("%d-%s", now.UnixMilli(), name)

	body := &countingReader{r: in.Body}
	if err := c.blobs.Put(ctx, key, body, in.ContentType); err != nil {
		return types.Material{}, apierr.Storage("store media", err)
	}
	m = types.Material{
		ID:               c.newID(),
		Filename:         key,
		OriginalFilename: strings.TrimSpace(in.Filename),
		Type:             types.MediaTypeFor(name),
		URL:              types.MediaURL(key),
		Size:             body.n,
		UploadedAt:       now,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	materials, err := c.store.Materials(ctx)
	if err != nil {
		c.discardBlob(ctx, key)
		return types.Material{}, apierr.Storage("read materials", err)
	}
	if err := c.store.PutMaterials(ctx, append(materials, m)); err != nil {
		c.discardBlob(ctx, key)
		return types.Material{}, apierr.Storage("write materials", err)
	}
	c.log.Info("Material uploaded", "material_id", m.ID, "filename", key, "size", m.Size)
	return m, nil
}

func (c *Coordinator) discardBlob(ctx context.Context, key string) {
	if err := c.blobs.Delete(ctx, key); err != nil {
		c.log.Warn("Failed to remove orphaned blob", "filename", key, "error", err)
	}
}

// DeleteMaterial removes every material whose id or blob key matches, together
// with every single_media assignment that shows one of them. Group membership
// lists are left untouched. Deleting something that does not exist succeeds
// silently.
func (c *Coordinator) DeleteMaterial(ctx context.Context, idOrFilename string) (err error) {
	defer func() { observe("delete_material", err) }()

	ref := strings.TrimSpace(idOrFilename)
	if ref == "" {
		return apierr.Validation("material id or filename is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	materials, err := c.store.Materials(ctx)
	if err != nil {
		return apierr.Storage("read materials", err)
	}
	var targets, remaining []types.Material
	for _, m := range materials {
		if m.ID == ref || m.Filename == ref {
			targets = append(targets, m)
		} else {
			remaining = append(remaining, m)
		}
	}
	if len(targets) == 0 {
		// An unrecorded blob may still be lying around under that key.
		if blob.ValidKey(ref) {
			if err := c.blobs.Delete(ctx, ref); err != nil {
				return apierr.Storage("delete media", err)
			}
		}
		return nil
	}

	assignments, err := c.store.Assignments(ctx)
	if err != nil {
		return apierr.Storage("read assignments", err)
	}
	affected := make([][]types.SectionKey, len(targets))
	kept := assignments
	removed := false
	for i, t := range targets {
		affected[i] = Resolve(kept, t.ID, types.ContentSingleMedia)
		if len(affected[i]) > 0 {
			kept = withoutReferences(kept, t.ID, types.ContentSingleMedia)
			removed = true
		}
	}

	deleted := make(map[string]bool, len(targets))
	for _, t := range targets {
		if deleted[t.Filename] {
			continue
		}
		if err := c.blobs.Delete(ctx, t.Filename); err != nil {
			return apierr.Storage("delete media", err)
		}
		deleted[t.Filename] = true
	}
	if removed {
		if err := c.store.PutAssignments(ctx, kept); err != nil {
			return apierr.Storage("write assignments", err)
		}
	}
	if remaining == nil {
		remaining = []types.Material{}
	}
	if err := c.store.PutMaterials(ctx, remaining); err != nil {
		return apierr.Storage("write materials", err)
	}

	for i, t := range targets {
		c.log.Info("Material deleted", "material_id", t.ID, "filename", t.Filename, "sections", len(affected[i]))
		c.emitSections(affected[i], types.ActionDelete, types.ContentSingleMedia, t.ID)
	}
	return nil
}
