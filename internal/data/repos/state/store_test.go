package state_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/data/repos/state"
	"github.com/yungbote/signage-backend/internal/data/repos/testutil"
)

func exerciseStore(t *testing.T, store state.Store) {
	t.Helper()
	ctx := context.Background()

	materials, err := store.Materials(ctx)
	if err != nil || materials == nil || len(materials) != 0 {
		t.Fatalf("empty materials: %v %v", materials, err)
	}
	groups, err := store.Groups(ctx)
	if err != nil || groups == nil || len(groups) != 0 {
		t.Fatalf("empty groups: %v %v", groups, err)
	}
	settings, err := store.Settings(ctx)
	if err != nil || settings != types.DefaultSettings() {
		t.Fatalf("default settings: %+v %v", settings, err)
	}

	seeded := testutil.SeedMaterials(t, ctx, store, "a.jpg", "b.mp4")
	got, err := store.Materials(ctx)
	if err != nil {
		t.Fatalf("materials: %v", err)
	}
	if len(got) != 2 || got[0].ID != seeded[0].ID || got[1].Type != types.MediaVideo {
		t.Fatalf("materials round trip: %+v", got)
	}
	if !got[0].UploadedAt.Equal(seeded[0].UploadedAt) {
		t.Fatalf("uploaded_at changed: %v vs %v", got[0].UploadedAt, seeded[0].UploadedAt)
	}

	g := testutil.SeedGroup(t, ctx, store, "Promo", seeded[0])
	groups, _ = store.Groups(ctx)
	if len(groups) != 1 || groups[0].ID != g.ID || len(groups[0].Materials) != 1 {
		t.Fatalf("groups round trip: %+v", groups)
	}

	off := 3
	want := []types.Assignment{
		{ID: "a1", SectionKey: types.SectionHeaderVideo, ContentType: types.ContentSingleMedia, ContentID: seeded[1].ID},
		{ID: "a2", SectionKey: types.SectionCarouselTopLeft, ContentType: types.ContentGroupReference, ContentID: g.ID, Offset: &off},
	}
	if err := store.PutAssignments(ctx, want); err != nil {
		t.Fatalf("put assignments: %v", err)
	}
	assignments, _ := store.Assignments(ctx)
	if !reflect.DeepEqual(assignments, want) {
		t.Fatalf("assignments: want %+v got %+v", want, assignments)
	}

	// Whole-collection replace, including back to empty.
	if err := store.PutAssignments(ctx, nil); err != nil {
		t.Fatalf("clear assignments: %v", err)
	}
	assignments, _ = store.Assignments(ctx)
	if assignments == nil || len(assignments) != 0 {
		t.Fatalf("expected empty non-nil assignments, got %#v", assignments)
	}

	first := types.Settings{HeaderInterval: 1, CarouselInterval: 2, FooterInterval: 3}
	second := types.Settings{HeaderInterval: 10, CarouselInterval: 8, FooterInterval: 12}
	if err := store.PutSettings(ctx, first); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	if err := store.PutSettings(ctx, second); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	if s, _ := store.Settings(ctx); s != second {
		t.Fatalf("settings: want %+v got %+v", second, s)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, state.NewMemoryStore())
}

func TestMemoryStoreFailWrites(t *testing.T) {
	store := state.NewMemoryStore()
	boom := errors.New("boom")
	store.FailWrites(state.KeyGroups, boom)
	if err := store.PutGroups(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	store.FailWrites(state.KeyGroups, nil)
	if err := store.PutGroups(context.Background(), nil); err != nil {
		t.Fatalf("write after clearing failure: %v", err)
	}
}

func TestMemoryStoreDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	seeded := testutil.SeedMaterials(t, ctx, store, "a.jpg")
	seeded[0].Filename = "mutated"
	got, _ := store.Materials(ctx)
	if got[0].Filename == "mutated" {
		t.Fatalf("store shares memory with caller")
	}
}

func TestGormStoreSQLite(t *testing.T) {
	exerciseStore(t, state.NewGormStore(testutil.SQLite(t), testutil.Logger(t)))
}

func TestGormStorePostgres(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	exerciseStore(t, state.NewGormStore(tx, testutil.Logger(t)))
}
