package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/data/repos/state"
	"github.com/yungbote/signage-backend/internal/platform/apierr"
	"github.com/yungbote/signage-backend/internal/platform/blob"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

type recorder struct {
	mu  sync.Mutex
	got []types.Notification
	// onBroadcast runs inside Broadcast, i.e. while the coordinator still
	// holds its lock.
	onBroadcast func(n types.Notification)
}

func (r *recorder) Broadcast(n types.Notification) {
	if r.onBroadcast != nil {
		r.onBroadcast(n)
	}
	r.mu.Lock()
	r.got = append(r.got, n)
	r.mu.Unlock()
}

func (r *recorder) take() []types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.got
	r.got = nil
	return out
}

type fixture struct {
	c     *Coordinator
	store *state.MemoryStore
	blobs *blob.MemoryStore
	rec   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := state.NewMemoryStore()
	blobs := blob.NewMemoryStore()
	rec := &recorder{}
	seq := 0
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := New(store, blobs, rec, logger.Nop(),
		WithClock(func() time.Time { return base }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	return &fixture{c: c, store: store, blobs: blobs, rec: rec}
}

func (f *fixture) upload(t *testing.T, name string) types.Material {
	t.Helper()
	m, err := f.c.UploadMaterial(context.Background(), UploadInput{Filename: name, Body: strings.NewReader("bytes of " + name)})
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}
	return m
}

func (f *fixture) assign(t *testing.T, key types.SectionKey, ct types.ContentType, id string) types.Assignment {
	t.Helper()
	a, err := f.c.CreateAssignment(context.Background(), AssignmentInput{SectionKey: key, ContentType: ct, ContentID: id})
	if err != nil {
		t.Fatalf("assign %s: %v", key, err)
	}
	return a
}

func sectionsOf(ns []types.Notification) []types.SectionKey {
	var out []types.SectionKey
	for _, n := range ns {
		out = append(out, n.SectionKey)
	}
	return out
}

func TestResolve(t *testing.T) {
	assignments := []types.Assignment{
		{ID: "a1", SectionKey: types.SectionHeaderVideo, ContentType: types.ContentSingleMedia, ContentID: "m1"},
		{ID: "a2", SectionKey: types.SectionCarouselTopLeft, ContentType: types.ContentGroupReference, ContentID: "g1"},
		{ID: "a3", SectionKey: types.SectionFooterContent, ContentType: types.ContentSingleMedia, ContentID: "m1"},
		{ID: "a4", SectionKey: types.SectionCarouselTopRight, ContentType: types.ContentSingleMedia, ContentID: "g1"},
	}
	cases := []struct {
		name string
		id   string
		ct   types.ContentType
		want []types.SectionKey
	}{
		{"media", "m1", types.ContentSingleMedia, []types.SectionKey{types.SectionHeaderVideo, types.SectionFooterContent}},
		{"group ignores same id with other type", "g1", types.ContentGroupReference, []types.SectionKey{types.SectionCarouselTopLeft}},
		{"type must match", "m1", types.ContentGroupReference, nil},
		{"unknown id", "nope", types.ContentSingleMedia, nil},
	}
	for _, tc := range cases {
		if got := Resolve(assignments, tc.id, tc.ct); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestUploadMaterialStoresBlobWithoutNotifying(t *testing.T) {
	f := newFixture(t)
	m := f.upload(t, `C:\fakepath\clip.MP4`)
	if m.Filename != fmt.Sprintf("%d-clip.MP4", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).UnixMilli()) {
		t.Fatalf("unexpected key %q", m.Filename)
	}
	if m.Type != types.MediaVideo || m.URL != "/media/"+m.Filename || m.Size != int64(len(`bytes of C:\fakepath\clip.MP4`)) {
		t.Fatalf("unexpected material %+v", m)
	}
	if !f.blobs.Has(m.Filename) {
		t.Fatalf("blob not stored")
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("upload should not notify, got %v", n)
	}
	if _, err := f.c.UploadMaterial(context.Background(), UploadInput{}); !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadMaterialDiscardsBlobWhenStateWriteFails(t *testing.T) {
	f := newFixture(t)
	f.store.FailWrites(state.KeyMaterials, errors.New("disk full"))
	_, err := f.c.UploadMaterial(context.Background(), UploadInput{Filename: "a.jpg", Body: strings.NewReader("x")})
	if status, _ := apierr.StatusOf(err); status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d (%v)", status, err)
	}
	if f.blobs.Len() != 0 {
		t.Fatalf("orphaned blob left behind")
	}
}

func TestDeleteMaterialCascadesSingleMediaAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.upload(t, "a.jpg")
	other := f.upload(t, "b.png")
	f.assign(t, types.SectionHeaderVideo, types.ContentSingleMedia, m.ID)
	f.assign(t, types.SectionFooterContent, types.ContentSingleMedia, m.ID)
	keep := f.assign(t, types.SectionCarouselTopLeft, types.ContentSingleMedia, other.ID)
	f.rec.take()

	if err := f.c.DeleteMaterial(ctx, m.Filename); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := f.rec.take()
	if want := []types.SectionKey{types.SectionHeaderVideo, types.SectionFooterContent}; !reflect.DeepEqual(sectionsOf(got), want) {
		t.Fatalf("notified sections: want %v got %v", want, sectionsOf(got))
	}
	for _, n := range got {
		if n.Action != types.ActionDelete || n.ContentID != m.ID || n.ContentType != types.ContentSingleMedia {
			t.Fatalf("unexpected notification %+v", n)
		}
	}
	assignments, _ := f.store.Assignments(ctx)
	if len(assignments) != 1 || assignments[0].ID != keep.ID {
		t.Fatalf("assignments after delete: %+v", assignments)
	}
	materials, _ := f.store.Materials(ctx)
	if len(materials) != 1 || materials[0].ID != other.ID {
		t.Fatalf("materials after delete: %+v", materials)
	}
	if f.blobs.Has(m.Filename) {
		t.Fatalf("blob still present")
	}

	// Unknown ids are a silent success.
	if err := f.c.DeleteMaterial(ctx, "does-not-exist"); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("unknown delete notified: %v", n)
	}
}

func TestDeleteMaterialBlobFailureLeavesStateAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.upload(t, "a.jpg")
	f.assign(t, types.SectionHeaderVideo, types.ContentSingleMedia, m.ID)
	f.rec.take()

	f.blobs.DeleteErr = errors.New("bucket unavailable")
	err := f.c.DeleteMaterial(ctx, m.ID)
	if status, code := apierr.StatusOf(err); status != http.StatusInternalServerError || code != apierr.CodeStorage {
		t.Fatalf("expected storage error, got %d %s", status, code)
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("failed delete notified: %v", n)
	}
	materials, _ := f.store.Materials(ctx)
	assignments, _ := f.store.Assignments(ctx)
	if len(materials) != 1 || len(assignments) != 1 {
		t.Fatalf("state changed after failed delete: %d materials, %d assignments", len(materials), len(assignments))
	}
}

func TestCreateAssignmentValidation(t *testing.T) {
	f := newFixture(t)
	neg := -1
	cases := []AssignmentInput{
		{ContentType: types.ContentSingleMedia, ContentID: "m"},
		{SectionKey: "sidebar", ContentType: types.ContentSingleMedia, ContentID: "m"},
		{SectionKey: types.SectionHeaderVideo, ContentType: "playlist", ContentID: "m"},
		{SectionKey: types.SectionHeaderVideo, ContentType: types.ContentSingleMedia, ContentID: "  "},
		{SectionKey: types.SectionHeaderVideo, ContentType: types.ContentGroupReference, ContentID: "g", Offset: &neg},
	}
	for i, in := range cases {
		if _, err := f.c.CreateAssignment(context.Background(), in); !apierr.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("invalid input notified: %v", n)
	}
}

func TestCreateAssignmentKeepsOffsetOnlyForGroups(t *testing.T) {
	f := newFixture(t)
	off := 2
	a, err := f.c.CreateAssignment(context.Background(), AssignmentInput{SectionKey: types.SectionHeaderVideo, ContentType: types.ContentSingleMedia, ContentID: "m", Offset: &off})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Offset != nil {
		t.Fatalf("single_media assignment kept offset %d", *a.Offset)
	}
	g, err := f.c.CreateAssignment(context.Background(), AssignmentInput{SectionKey: types.SectionCarouselTopLeft, ContentType: types.ContentGroupReference, ContentID: "g", Offset: &off})
	if err != nil {
		t.Fatalf("create group assignment: %v", err)
	}
	if g.Offset == nil || *g.Offset != 2 {
		t.Fatalf("group assignment lost its offset: %+v", g)
	}
}

func TestCreateAssignmentStorageFailureDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	f.store.FailWrites(state.KeyAssignments, errors.New("db down"))
	_, err := f.c.CreateAssignment(context.Background(), AssignmentInput{SectionKey: types.SectionHeaderVideo, ContentType: types.ContentSingleMedia, ContentID: "m"})
	if status, _ := apierr.StatusOf(err); status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("failed write notified: %v", n)
	}
}

func TestDeleteAssignmentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assign(t, types.SectionHeaderVideo, types.ContentSingleMedia, "m1")
	f.rec.take()

	if err := f.c.DeleteAssignment(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("missing delete notified: %v", n)
	}
	assignments, _ := f.store.Assignments(ctx)
	if len(assignments) != 1 {
		t.Fatalf("assignment count changed to %d", len(assignments))
	}
}

// Scenario: assign a material to the header, then remove the assignment.
func TestDeleteAssignmentNotifiesWithDeletedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.upload(t, "x.jpg")
	a := f.assign(t, types.SectionHeaderVideo, types.ContentSingleMedia, m.ID)
	f.rec.take()

	if err := f.c.DeleteAssignment(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := f.rec.take()
	if len(got) != 1 {
		t.Fatalf("expected one notification, got %v", got)
	}
	n := got[0]
	if n.Type != types.NotifySectionUpdated || n.SectionKey != types.SectionHeaderVideo || n.Action != types.ActionUnassign || n.ContentID != m.ID {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestSettingsAreOverwrittenNotMerged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.c.Settings(ctx)
	if err != nil || s != types.DefaultSettings() {
		t.Fatalf("default settings: %+v %v", s, err)
	}
	if err := f.c.UpdateSettings(ctx, types.Settings{HeaderInterval: 3, CarouselInterval: 4, FooterInterval: 5}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	want := types.Settings{HeaderInterval: 10, CarouselInterval: 8, FooterInterval: 12}
	if err := f.c.UpdateSettings(ctx, want); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if got, _ := f.c.Settings(ctx); got != want {
		t.Fatalf("want %+v got %+v", want, got)
	}
	got := f.rec.take()
	if len(got) != 2 || got[0].Type != types.NotifySettingsUpdated || !got[1].IsGlobal() {
		t.Fatalf("expected two settings_updated, got %v", got)
	}

	if err := f.c.UpdateSettings(ctx, types.Settings{HeaderInterval: 0, CarouselInterval: 8, FooterInterval: 12}); !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got, _ := f.c.Settings(ctx); got != want {
		t.Fatalf("invalid update changed settings to %+v", got)
	}
}

// Scenarios: build a group, assign it, then delete its material directly.
func TestGroupAssignmentThenDirectMaterialDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	promo, err := f.c.CreateGroup(ctx, "  Promo ")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if promo.Name != "Promo" || promo.Materials == nil {
		t.Fatalf("unexpected group %+v", promo)
	}
	a := f.upload(t, "a.jpg")
	if _, err := f.c.UpdateGroupMaterials(ctx, promo.ID, MembershipAdd, []string{a.ID}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("unassigned group should not notify, got %v", n)
	}

	f.assign(t, types.SectionCarouselTopLeft, types.ContentGroupReference, promo.ID)
	got := f.rec.take()
	if len(got) != 1 || got[0].SectionKey != types.SectionCarouselTopLeft || got[0].Action != types.ActionAssign {
		t.Fatalf("expected one assign notification, got %v", got)
	}
	snap, err := f.c.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Groups) != 1 || len(snap.Groups[0].Materials) != 1 || len(snap.Assignments) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(snap.AvailableSections) != len(types.Sections) {
		t.Fatalf("snapshot missing sections")
	}

	if err := f.c.DeleteMaterial(ctx, a.Filename); err != nil {
		t.Fatalf("delete material: %v", err)
	}
	snap, _ = f.c.Snapshot(ctx)
	if len(snap.Materials) != 0 {
		t.Fatalf("material still listed")
	}
	if len(snap.Groups) != 1 || len(snap.Groups[0].Materials) != 1 || snap.Groups[0].Materials[0].ID != a.ID {
		t.Fatalf("group membership should keep the stale material, got %+v", snap.Groups)
	}
}

func TestUpdateGroupMaterials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, _ := f.c.CreateGroup(ctx, "Lobby")
	a := f.upload(t, "a.jpg")
	b := f.upload(t, "b.jpg")
	f.assign(t, types.SectionCarouselBottomLeft, types.ContentGroupReference, g.ID)
	f.assign(t, types.SectionCarouselBottomRight, types.ContentGroupReference, g.ID)
	f.rec.take()

	out, err := f.c.UpdateGroupMaterials(ctx, g.ID, MembershipAdd, []string{a.ID, "ghost", b.ID})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(out.Materials) != 2 {
		t.Fatalf("unknown id should be dropped, got %+v", out.Materials)
	}
	got := f.rec.take()
	if len(got) != 2 || got[0].Action != types.ActionGroupUpdate || got[1].SectionKey != types.SectionCarouselBottomRight {
		t.Fatalf("expected group_update per referencing section, got %v", got)
	}

	out, err = f.c.UpdateGroupMaterials(ctx, g.ID, MembershipReplace, []string{b.ID, a.ID})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(out.Materials) != 2 || out.Materials[0].ID != b.ID || out.Materials[1].ID != a.ID {
		t.Fatalf("replace should keep the given order, got %+v", out.Materials)
	}

	if _, err := f.c.UpdateGroupMaterials(ctx, "missing", MembershipAdd, []string{a.ID}); !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.c.UpdateGroupMaterials(ctx, g.ID, "merge", nil); !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadGroupMaterials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, _ := f.c.CreateGroup(ctx, "Menu")
	f.assign(t, types.SectionCarouselTopRight, types.ContentGroupReference, g.ID)
	f.rec.take()

	added, err := f.c.UploadGroupMaterials(ctx, g.ID, []UploadInput{
		{Filename: "one.PNG", Body: strings.NewReader("1")},
		{Filename: "two.webm", Body: strings.NewReader("22")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(added))
	}
	prefix := "group-" + g.ID + "-"
	if !strings.HasPrefix(added[0].Filename, prefix) || !strings.HasSuffix(added[0].Filename, ".png") {
		t.Fatalf("unexpected key %q", added[0].Filename)
	}
	if added[1].Type != types.MediaVideo || added[1].GroupID != g.ID || added[1].Size != 2 {
		t.Fatalf("unexpected material %+v", added[1])
	}
	groups, _ := f.store.Groups(ctx)
	if len(groups[0].Materials) != 2 {
		t.Fatalf("group list not updated")
	}
	got := f.rec.take()
	if len(got) != 1 || got[0].Action != types.ActionGroupUpdate || got[0].SectionKey != types.SectionCarouselTopRight {
		t.Fatalf("expected one group_update, got %v", got)
	}

	if _, err := f.c.UploadGroupMaterials(ctx, "missing", []UploadInput{{Filename: "x.jpg", Body: strings.NewReader("x")}}); !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.c.UploadGroupMaterials(ctx, g.ID, nil); !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteGroupCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, _ := f.c.CreateGroup(ctx, "Promo")
	owned, err := f.c.UploadGroupMaterials(ctx, g.ID, []UploadInput{{Filename: "o.jpg", Body: strings.NewReader("o")}})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	member := f.upload(t, "member.jpg")
	bystander := f.upload(t, "bystander.jpg")
	if _, err := f.c.UpdateGroupMaterials(ctx, g.ID, MembershipAdd, []string{member.ID}); err != nil {
		t.Fatalf("add: %v", err)
	}
	f.assign(t, types.SectionCarouselTopLeft, types.ContentGroupReference, g.ID)
	f.assign(t, types.SectionCarouselBottomRight, types.ContentGroupReference, g.ID)
	unrelated := f.assign(t, types.SectionHeaderVideo, types.ContentSingleMedia, bystander.ID)
	f.rec.take()

	if err := f.c.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	got := f.rec.take()
	if want := []types.SectionKey{types.SectionCarouselTopLeft, types.SectionCarouselBottomRight}; !reflect.DeepEqual(sectionsOf(got), want) {
		t.Fatalf("want delete notifications for %v, got %v", want, got)
	}
	for _, n := range got {
		if n.Action != types.ActionDelete || n.ContentType != types.ContentGroupReference || n.ContentID != g.ID {
			t.Fatalf("unexpected notification %+v", n)
		}
	}
	assignments, _ := f.store.Assignments(ctx)
	if len(assignments) != 1 || assignments[0].ID != unrelated.ID {
		t.Fatalf("assignments after cascade: %+v", assignments)
	}
	materials, _ := f.store.Materials(ctx)
	if len(materials) != 1 || materials[0].ID != bystander.ID {
		t.Fatalf("materials after cascade: %+v", materials)
	}
	if f.blobs.Has(owned[0].Filename) || f.blobs.Has(member.Filename) || !f.blobs.Has(bystander.Filename) {
		t.Fatalf("blob cascade wrong")
	}
	groups, _ := f.store.Groups(ctx)
	if len(groups) != 0 {
		t.Fatalf("group still present: %+v", groups)
	}

	if err := f.c.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("second delete notified: %v", n)
	}
}

func TestDeleteGroupToleratesBlobFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, _ := f.c.CreateGroup(ctx, "Promo")
	if _, err := f.c.UploadGroupMaterials(ctx, g.ID, []UploadInput{{Filename: "o.jpg", Body: strings.NewReader("o")}}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	f.blobs.DeleteErr = errors.New("bucket unavailable")

	if err := f.c.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	materials, _ := f.store.Materials(ctx)
	groups, _ := f.store.Groups(ctx)
	if len(materials) != 0 || len(groups) != 0 {
		t.Fatalf("cascade incomplete: %d materials, %d groups", len(materials), len(groups))
	}
}

func TestNotificationsFollowTheWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.upload(t, "a.jpg")

	var checked int
	f.rec.onBroadcast = func(n types.Notification) {
		assignments, err := f.store.Assignments(ctx)
		if err != nil {
			t.Errorf("read during broadcast: %v", err)
			return
		}
		present := len(Resolve(assignments, n.ContentID, n.ContentType)) > 0
		switch n.Action {
		case types.ActionAssign:
			if !present {
				t.Errorf("assign notified before the assignment was stored")
			}
		case types.ActionUnassign, types.ActionDelete:
			if present {
				t.Errorf("%s notified before the assignment was removed", n.Action)
			}
		}
		checked++
	}

	a := f.assign(t, types.SectionHeaderVideo, types.ContentSingleMedia, m.ID)
	if err := f.c.DeleteAssignment(ctx, a.ID); err != nil {
		t.Fatalf("delete assignment: %v", err)
	}
	f.assign(t, types.SectionFooterContent, types.ContentSingleMedia, m.ID)
	if err := f.c.DeleteMaterial(ctx, m.ID); err != nil {
		t.Fatalf("delete material: %v", err)
	}
	if checked != 4 {
		t.Fatalf("expected 4 checked notifications, got %d", checked)
	}
}

func TestAnnounce(t *testing.T) {
	f := newFixture(t)
	if err := f.c.Announce(context.Background(), "Lobby closes at 6pm", ""); err != nil {
		t.Fatalf("announce: %v", err)
	}
	got := f.rec.take()
	if len(got) != 1 || got[0].Type != types.NotifyBroadcast || got[0].Style != types.DefaultAnnouncementStyle {
		t.Fatalf("unexpected announcement %v", got)
	}
	if err := f.c.Announce(context.Background(), " ", "is-danger"); !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConcurrentMutationsDoNotLoseWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var mu sync.Mutex
	seq := 0
	f.c.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("c-%d", seq)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.c.CreateAssignment(ctx, AssignmentInput{SectionKey: types.SectionFooterContent, ContentType: types.ContentSingleMedia, ContentID: "m"})
		}()
	}
	wg.Wait()
	assignments, _ := f.store.Assignments(ctx)
	if len(assignments) != 20 {
		t.Fatalf("expected 20 assignments, got %d", len(assignments))
	}
}

// staleReadStore fails every read once armed and a write has landed, so a
// mutation that reads back after persisting surfaces an error.
type staleReadStore struct {
	state.Store
	mu      sync.Mutex
	armed   bool
	written bool
}

var errStaleRead = errors.New("read after write")

func (s *staleReadStore) arm() {
	s.mu.Lock()
	s.armed, s.written = true, false
	s.mu.Unlock()
}

func (s *staleReadStore) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed && s.written {
		return errStaleRead
	}
	return nil
}

func (s *staleReadStore) wrote() {
	s.mu.Lock()
	s.written = true
	s.mu.Unlock()
}

func (s *staleReadStore) Materials(ctx context.Context) ([]types.Material, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.Store.Materials(ctx)
}

func (s *staleReadStore) Groups(ctx context.Context) ([]types.CarouselGroup, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.Store.Groups(ctx)
}

func (s *staleReadStore) Assignments(ctx context.Context) ([]types.Assignment, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.Store.Assignments(ctx)
}

func (s *staleReadStore) PutMaterials(ctx context.Context, v []types.Material) error {
	defer s.wrote()
	return s.Store.PutMaterials(ctx, v)
}

func (s *staleReadStore) PutGroups(ctx context.Context, v []types.CarouselGroup) error {
	defer s.wrote()
	return s.Store.PutGroups(ctx, v)
}

func (s *staleReadStore) PutAssignments(ctx context.Context, v []types.Assignment) error {
	defer s.wrote()
	return s.Store.PutAssignments(ctx, v)
}

func TestGroupMutationsDoNotReadAfterWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wrapped := &staleReadStore{Store: f.store}
	f.c.store = wrapped

	m := f.upload(t, "a.jpg")
	g, err := f.c.CreateGroup(ctx, "Setup")
	if err != nil {
		t.Fatalf("setup group: %v", err)
	}
	f.assign(t, types.SectionCarouselTopLeft, types.ContentGroupReference, g.ID)
	f.rec.take()

	wrapped.arm()
	created, err := f.c.CreateGroup(ctx, "Lobby")
	if err != nil {
		t.Fatalf("create group reported %v after persisting", err)
	}
	groups, _ := f.store.Groups(ctx)
	if len(groups) != 2 || groups[1].ID != created.ID {
		t.Fatalf("groups after create: %+v", groups)
	}

	wrapped.arm()
	if _, err := f.c.UpdateGroupMaterials(ctx, g.ID, MembershipAdd, []string{m.ID}); err != nil {
		t.Fatalf("update group reported %v after persisting", err)
	}
	got := f.rec.take()
	if len(got) != 1 || got[0].SectionKey != types.SectionCarouselTopLeft || got[0].Action != types.ActionGroupUpdate {
		t.Fatalf("expected one group_update after membership change, got %v", got)
	}

	wrapped.arm()
	if _, err := f.c.UploadGroupMaterials(ctx, g.ID, []UploadInput{{Filename: "b.jpg", Body: strings.NewReader("b")}}); err != nil {
		t.Fatalf("group upload reported %v after persisting", err)
	}
	if got := f.rec.take(); len(got) != 1 {
		t.Fatalf("expected one group_update after upload, got %v", got)
	}
}

func TestCreateGroupReadFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wrapped := &staleReadStore{Store: f.store}
	f.c.store = wrapped
	// A write before the mutation means every read inside it fails.
	wrapped.arm()
	wrapped.wrote()

	_, err := f.c.CreateGroup(ctx, "Lobby")
	if status, code := apierr.StatusOf(err); status != http.StatusInternalServerError || code != apierr.CodeStorage {
		t.Fatalf("expected storage error, got %d %s", status, code)
	}
	groups, _ := f.store.Groups(ctx)
	if len(groups) != 0 {
		t.Fatalf("failed create persisted %+v", groups)
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("failed create notified: %v", n)
	}
}

func TestUploadGroupMaterialsRollsBackWhenGroupWriteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, _ := f.c.CreateGroup(ctx, "Menu")
	f.assign(t, types.SectionCarouselTopRight, types.ContentGroupReference, g.ID)
	before := f.upload(t, "keep.jpg")
	f.rec.take()

	f.store.FailWrites(state.KeyGroups, errors.New("disk full"))
	_, err := f.c.UploadGroupMaterials(ctx, g.ID, []UploadInput{
		{Filename: "one.png", Body: strings.NewReader("1")},
		{Filename: "two.png", Body: strings.NewReader("2")},
	})
	if status, code := apierr.StatusOf(err); status != http.StatusInternalServerError || code != apierr.CodeStorage {
		t.Fatalf("expected storage error, got %d %s", status, code)
	}
	materials, _ := f.store.Materials(ctx)
	if len(materials) != 1 || materials[0].ID != before.ID {
		t.Fatalf("materials not restored: %+v", materials)
	}
	if f.blobs.Len() != 1 || !f.blobs.Has(before.Filename) {
		t.Fatalf("group blobs left behind: %d blobs", f.blobs.Len())
	}
	groups, _ := f.store.Groups(ctx)
	if len(groups[0].Materials) != 0 {
		t.Fatalf("group list changed: %+v", groups[0].Materials)
	}
	if n := f.rec.take(); len(n) != 0 {
		t.Fatalf("failed upload notified: %v", n)
	}
}

func TestDeleteMaterialRemovesEveryMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.upload(t, "a.jpg")
	other := f.upload(t, "b.jpg")
	dup := m
	dup.ID = "dup"
	materials, _ := f.store.Materials(ctx)
	if err := f.store.PutMaterials(ctx, append(materials, dup)); err != nil {
		t.Fatalf("seed duplicate: %v", err)
	}
	f.assign(t, types.SectionHeaderVideo, types.ContentSingleMedia, m.ID)
	f.assign(t, types.SectionFooterContent, types.ContentSingleMedia, dup.ID)
	f.rec.take()

	if err := f.c.DeleteMaterial(ctx, m.Filename); err != nil {
		t.Fatalf("delete: %v", err)
	}
	materials, _ = f.store.Materials(ctx)
	if len(materials) != 1 || materials[0].ID != other.ID {
		t.Fatalf("materials after delete: %+v", materials)
	}
	assignments, _ := f.store.Assignments(ctx)
	if len(assignments) != 0 {
		t.Fatalf("assignments after delete: %+v", assignments)
	}
	got := f.rec.take()
	if len(got) != 2 || got[0].ContentID != m.ID || got[1].ContentID != dup.ID {
		t.Fatalf("expected a delete per removed record, got %v", got)
	}
	if f.blobs.Has(m.Filename) {
		t.Fatalf("blob still present")
	}
}
