package poststore_test

import (
	"strings"
	"testing"

	poststore "github.com/dalemusser/gatherhub/internal/app/store/posts"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreate_SanitizesBody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.Create(ctx, models.Post{
		GroupID: primitive.NewObjectID(),
		UserID:  primitive.NewObjectID(),
		Body:    `Hello <script>alert('x')</script><em>world</em>`,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if strings.Contains(p.Body, "<script>") {
		t.Errorf("script survived sanitization: %q", p.Body)
	}
	if !strings.Contains(p.Body, "<em>world</em>") {
		t.Errorf("safe markup should survive: %q", p.Body)
	}
}

func TestUpdateBody_AuthorScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	p := fixtures.CreatePost(ctx, primitive.NewObjectID(), author, "original")

	// A different user cannot rewrite the post.
	n, err := store.UpdateBody(ctx, p.ID, primitive.NewObjectID(), "hijacked")
	if err != nil {
		t.Fatalf("UpdateBody failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("stranger edited the post, matched %d", n)
	}

	n, err = store.UpdateBody(ctx, p.ID, author, `edited <script>x</script><em>ok</em>`)
	if err != nil {
		t.Fatalf("UpdateBody failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("author edit matched %d, want 1", n)
	}

	got, err := store.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if strings.Contains(got.Body, "<script>") {
		t.Errorf("script survived sanitization: %q", got.Body)
	}
	if !strings.Contains(got.Body, "<em>ok</em>") {
		t.Errorf("safe markup should survive: %q", got.Body)
	}
}

func TestListByGroup_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	author := primitive.NewObjectID()
	for _, body := range []string{"first", "second", "third"} {
		if _, err := store.Create(ctx, models.Post{GroupID: groupID, UserID: author, Body: body}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	// A post in another group must not leak in.
	if _, err := store.Create(ctx, models.Post{GroupID: primitive.NewObjectID(), UserID: author, Body: "elsewhere"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.ListByGroup(ctx, groupID, 0)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(got))
	}
	if got[0].Body != "third" || got[2].Body != "first" {
		t.Errorf("posts not newest first: %q, %q, %q", got[0].Body, got[1].Body, got[2].Body)
	}

	limited, err := store.ListByGroup(ctx, groupID, 2)
	if err != nil {
		t.Fatalf("ListByGroup with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 posts with limit, got %d", len(limited))
	}
}

func TestDelete_AuthorScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	author := primitive.NewObjectID()
	p := fixtures.CreatePost(ctx, groupID, author, "mine")

	// A different user cannot delete through the author-scoped path.
	n, err := store.Delete(ctx, p.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("stranger deleted the post, count %d", n)
	}

	n, err = store.Delete(ctx, p.ID, author)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("author delete count: got %d, want 1", n)
	}
}

func TestDeleteByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreatePost(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "any")

	n, err := store.DeleteByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if n != 1 {
		t.Errorf("delete count: got %d, want 1", n)
	}
}

func TestDeleteAllForGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	author := primitive.NewObjectID()
	fixtures.CreatePost(ctx, groupID, author, "one")
	fixtures.CreatePost(ctx, groupID, author, "two")
	other := fixtures.CreatePost(ctx, primitive.NewObjectID(), author, "other group")

	n, err := store.DeleteAllForGroup(ctx, groupID)
	if err != nil {
		t.Fatalf("DeleteAllForGroup failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted count: got %d, want 2", n)
	}

	count, err := store.CountByGroup(ctx, other.GroupID)
	if err != nil {
		t.Fatalf("CountByGroup failed: %v", err)
	}
	if count != 1 {
		t.Errorf("other group's post should survive, count %d", count)
	}
}
