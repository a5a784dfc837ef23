package commentstore_test

import (
	"strings"
	"testing"

	commentstore "github.com/dalemusser/gatherhub/internal/app/store/comments"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreate_SanitizesBody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := store.Create(ctx, models.Comment{
		PostID:  primitive.NewObjectID(),
		GroupID: primitive.NewObjectID(),
		UserID:  primitive.NewObjectID(),
		Body:    `Nice <script>alert('x')</script><em>post</em>`,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if strings.Contains(c.Body, "<script>") {
		t.Errorf("script survived sanitization: %q", c.Body)
	}
	if !strings.Contains(c.Body, "<em>post</em>") {
		t.Errorf("safe markup should survive: %q", c.Body)
	}
}

func TestListByPosts_GroupsAndOrders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	author := primitive.NewObjectID()
	postA := primitive.NewObjectID()
	postB := primitive.NewObjectID()

	for _, body := range []string{"a-first", "a-second"} {
		if _, err := store.Create(ctx, models.Comment{PostID: postA, GroupID: groupID, UserID: author, Body: body}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := store.Create(ctx, models.Comment{PostID: postB, GroupID: groupID, UserID: author, Body: "b-only"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// A comment on an unrelated post must not leak in.
	if _, err := store.Create(ctx, models.Comment{PostID: primitive.NewObjectID(), GroupID: groupID, UserID: author, Body: "elsewhere"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.ListByPosts(ctx, []primitive.ObjectID{postA, postB})
	if err != nil {
		t.Fatalf("ListByPosts failed: %v", err)
	}
	if len(got[postA]) != 2 || len(got[postB]) != 1 {
		t.Fatalf("comment counts: got %d/%d, want 2/1", len(got[postA]), len(got[postB]))
	}
	if got[postA][0].Body != "a-first" || got[postA][1].Body != "a-second" {
		t.Errorf("comments not oldest first: %q, %q", got[postA][0].Body, got[postA][1].Body)
	}

	empty, err := store.ListByPosts(ctx, nil)
	if err != nil {
		t.Fatalf("ListByPosts with no ids failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty map, got %d entries", len(empty))
	}
}

func TestDelete_AuthorScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	c := fixtures.CreateComment(ctx, primitive.NewObjectID(), primitive.NewObjectID(), author, "mine")

	// A different user cannot delete through the author-scoped path.
	n, err := store.Delete(ctx, c.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("stranger deleted the comment, count %d", n)
	}

	n, err = store.Delete(ctx, c.ID, author)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("author delete count: got %d, want 1", n)
	}
}

func TestIDsByPost_AndCascadeDeletes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	postID := primitive.NewObjectID()
	author := primitive.NewObjectID()
	c1 := fixtures.CreateComment(ctx, postID, groupID, author, "one")
	c2 := fixtures.CreateComment(ctx, postID, groupID, author, "two")
	other := fixtures.CreateComment(ctx, primitive.NewObjectID(), groupID, author, "other post")

	ids, err := store.IDsByPost(ctx, postID)
	if err != nil {
		t.Fatalf("IDsByPost failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	seen := map[primitive.ObjectID]bool{ids[0]: true, ids[1]: true}
	if !seen[c1.ID] || !seen[c2.ID] {
		t.Errorf("unexpected ids: %v", ids)
	}

	n, err := store.DeleteAllForPost(ctx, postID)
	if err != nil {
		t.Fatalf("DeleteAllForPost failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted count: got %d, want 2", n)
	}
	if _, err := store.Get(ctx, other.ID); err != nil {
		t.Errorf("other post's comment should survive: %v", err)
	}

	n, err = store.DeleteAllForGroup(ctx, groupID)
	if err != nil {
		t.Fatalf("DeleteAllForGroup failed: %v", err)
	}
	if n != 1 {
		t.Errorf("group cascade count: got %d, want 1", n)
	}
}
