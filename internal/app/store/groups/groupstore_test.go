package groupstore_test

import (
	"errors"
	"strings"
	"testing"

	groupstore "github.com/dalemusser/gatherhub/internal/app/store/groups"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreate_DerivesSlugAndSanitizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, err := store.Create(ctx, models.Group{
		Name:         "  Chess <b>Club</b>! ",
		About:        `<p>Welcome</p><script>alert('x')</script>`,
		AutoApproval: true,
		OwnerID:      primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.Name != "Chess Club!" {
		t.Errorf("name: got %q, want markup stripped", g.Name)
	}
	if g.Slug != "chess-club" {
		t.Errorf("slug: got %q, want %q", g.Slug, "chess-club")
	}
	if strings.Contains(g.About, "<script>") {
		t.Errorf("about: script survived sanitization: %q", g.About)
	}
	if !strings.Contains(g.About, "<p>Welcome</p>") {
		t.Errorf("about: safe markup should survive: %q", g.About)
	}
}

func TestCreate_DuplicateSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	if _, err := store.Create(ctx, models.Group{Name: "Book Club", OwnerID: owner}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// "BOOK  CLUB" slugs to the same "book-club".
	_, err := store.Create(ctx, models.Group{Name: "BOOK  CLUB", OwnerID: owner})
	if !errors.Is(err, groupstore.ErrDuplicateGroupSlug) {
		t.Fatalf("expected ErrDuplicateGroupSlug, got %v", err)
	}
}

func TestGetBySlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	created := fixtures.CreateGroup(ctx, "Hiking Club", owner.ID, true)

	g, err := store.GetBySlug(ctx, " hiking-club ")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if g.ID != created.ID {
		t.Errorf("got group %s, want %s", g.ID.Hex(), created.ID.Hex())
	}

	if _, err := store.GetBySlug(ctx, "no-such-group"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestUpdateInfo_BlankNameKeepsExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	g := fixtures.CreateGroup(ctx, "Garden Club", owner.ID, false)

	if err := store.UpdateInfo(ctx, g.ID, "  ", "New about text.", true); err != nil {
		t.Fatalf("UpdateInfo failed: %v", err)
	}

	got, err := store.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Garden Club" {
		t.Errorf("name should be unchanged, got %q", got.Name)
	}
	if got.About != "New about text." {
		t.Errorf("about: got %q", got.About)
	}
	if !got.AutoApproval {
		t.Error("auto approval should now be enabled")
	}
}

func TestSetImages_PartialUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	g := fixtures.CreateGroup(ctx, "Photo Club", owner.ID, true)

	if err := store.SetImages(ctx, g.ID, "groups/photo-club/cover.jpg", ""); err != nil {
		t.Fatalf("SetImages failed: %v", err)
	}
	if err := store.SetImages(ctx, g.ID, "", "groups/photo-club/thumb.jpg"); err != nil {
		t.Fatalf("SetImages failed: %v", err)
	}

	got, err := store.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.CoverPath != "groups/photo-club/cover.jpg" {
		t.Errorf("cover path: got %q", got.CoverPath)
	}
	if got.ThumbnailPath != "groups/photo-club/thumb.jpg" {
		t.Errorf("thumbnail path: got %q", got.ThumbnailPath)
	}
}

func TestList_SortedByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	fixtures.CreateGroup(ctx, "Zebra Watchers", owner.ID, true)
	fixtures.CreateGroup(ctx, "Astronomy Society", owner.ID, true)
	fixtures.CreateGroup(ctx, "Morning Runners", owner.ID, true)

	got, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(got))
	}
	wantOrder := []string{"Astronomy Society", "Morning Runners", "Zebra Watchers"}
	for i, want := range wantOrder {
		if got[i].Name != want {
			t.Errorf("position %d: got %q, want %q", i, got[i].Name, want)
		}
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 groups with limit, got %d", len(limited))
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	g := fixtures.CreateGroup(ctx, "Short Lived", owner.ID, true)

	n, err := store.Delete(ctx, g.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted count: got %d, want 1", n)
	}

	n, err = store.Delete(ctx, g.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second delete count: got %d, want 0", n)
	}
}
