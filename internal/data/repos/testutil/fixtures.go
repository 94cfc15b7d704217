package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/data/repos/state"
)

func NewMaterial(name string) types.Material {
	key := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), name)
	return types.Material{
		ID:         uuid.NewString(),
		Filename:   key,
		Type:       types.MediaTypeFor(name),
		URL:        types.MediaURL(key),
		UploadedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func SeedMaterials(tb testing.TB, ctx context.Context, store state.Store, names ...string) []types.Material {
	tb.Helper()
	out := make([]types.Material, 0, len(names))
	for _, n := range names {
		out = append(out, NewMaterial(n))
	}
	if err := store.PutMaterials(ctx, out); err != nil {
		tb.Fatalf("seed materials: %v", err)
	}
	return out
}

func SeedGroup(tb testing.TB, ctx context.Context, store state.Store, name string, members ...types.Material) types.CarouselGroup {
	tb.Helper()
	groups, err := store.Groups(ctx)
	if err != nil {
		tb.Fatalf("read groups: %v", err)
	}
	if members == nil {
		members = []types.Material{}
	}
	g := types.CarouselGroup{ID: uuid.NewString(), Name: name, Materials: members, CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
	if err := store.PutGroups(ctx, append(groups, g)); err != nil {
		tb.Fatalf("seed group: %v", err)
	}
	return g
}
