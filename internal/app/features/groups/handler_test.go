package groups_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/features/groups"
	"github.com/dalemusser/gatherhub/internal/app/workflow/membership"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*groups.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)
	wf := membership.New(db, logger)
	handler := groups.NewHandler(db, nil, errLog, wf, logger)
	fixtures := testutil.NewFixtures(t, db)
	return handler, fixtures
}

// postFormAs builds an authenticated form POST with a {slug} route param.
func postFormAs(user models.User, slug, target string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithUser(req, testutil.AsTestUser(user))
	return testutil.WithChiURLParam(req, "slug", slug)
}

// callRecovering invokes a handler that may render a template. The template
// engine is not booted in tests, so render paths panic; database assertions
// still hold afterwards.
func callRecovering(h http.HandlerFunc, rec *httptest.ResponseRecorder, req *http.Request) {
	defer func() { recover() }()
	h(rec, req)
}

func TestHandleCreateGroup_CreatesOwnerMembership(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")

	form := url.Values{
		"name":          {"Chess Club"},
		"about":         {"We play chess."},
		"auto_approval": {"on"},
	}
	req := httptest.NewRequest("POST", "/groups", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithUser(req, testutil.AsTestUser(owner))

	rec := httptest.NewRecorder()
	handler.HandleCreateGroup(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/groups/chess-club" {
		t.Errorf("Location: got %q, want %q", loc, "/groups/chess-club")
	}

	var g models.Group
	if err := fixtures.DB().Collection("groups").
		FindOne(ctx, bson.M{"slug": "chess-club"}).Decode(&g); err != nil {
		t.Fatalf("group not created: %v", err)
	}
	if g.OwnerID != owner.ID || !g.AutoApproval {
		t.Errorf("unexpected group: %+v", g)
	}

	// The creator must hold an approved admin membership.
	var m models.GroupMembership
	if err := fixtures.DB().Collection("group_memberships").
		FindOne(ctx, bson.M{"group_id": g.ID, "user_id": owner.ID}).Decode(&m); err != nil {
		t.Fatalf("owner membership not created: %v", err)
	}
	if m.Role != models.RoleAdmin || m.Status != models.StatusApproved {
		t.Errorf("owner membership: got role=%s status=%s", m.Role, m.Status)
	}
}

func TestHandleJoinGroup_AutoApproval(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	joiner := fixtures.CreateUser(ctx, "Joiner", "joiner@test.com")
	group := fixtures.CreateGroup(ctx, "Open Group", owner.ID, true)

	req := postFormAs(joiner, group.Slug, "/groups/"+group.Slug+"/join", url.Values{})
	rec := httptest.NewRecorder()
	handler.HandleJoinGroup(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	var m models.GroupMembership
	if err := fixtures.DB().Collection("group_memberships").
		FindOne(ctx, bson.M{"group_id": group.ID, "user_id": joiner.ID}).Decode(&m); err != nil {
		t.Fatalf("membership not created: %v", err)
	}
	if m.Status != models.StatusApproved {
		t.Errorf("status: got %s, want approved", m.Status)
	}
}

func TestHandleRequestJoin_CreatesPending(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	joiner := fixtures.CreateUser(ctx, "Joiner", "joiner@test.com")
	group := fixtures.CreateGroup(ctx, "Closed Group", owner.ID, false)

	req := postFormAs(joiner, group.Slug, "/groups/"+group.Slug+"/request", url.Values{})
	rec := httptest.NewRecorder()
	handler.HandleRequestJoin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	var m models.GroupMembership
	if err := fixtures.DB().Collection("group_memberships").
		FindOne(ctx, bson.M{"group_id": group.ID, "user_id": joiner.ID}).Decode(&m); err != nil {
		t.Fatalf("membership not created: %v", err)
	}
	if m.Status != models.StatusPending || m.Token != "" {
		t.Errorf("unexpected membership: status=%s token=%q", m.Status, m.Token)
	}
}

func TestHandleInviteUser_CreatesTokenRow(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	invitee := fixtures.CreateUser(ctx, "Invitee", "invitee@test.com")
	group := fixtures.CreateGroup(ctx, "Closed Group", owner.ID, false)

	req := postFormAs(owner, group.Slug, "/groups/"+group.Slug+"/invite", url.Values{
		"email": {"invitee@test.com"},
	})
	rec := httptest.NewRecorder()
	callRecovering(handler.HandleInviteUser, rec, req)

	var m models.GroupMembership
	if err := fixtures.DB().Collection("group_memberships").
		FindOne(ctx, bson.M{"group_id": group.ID, "user_id": invitee.ID}).Decode(&m); err != nil {
		t.Fatalf("invitation not created: %v", err)
	}
	if m.Status != models.StatusPending {
		t.Errorf("status: got %s, want pending", m.Status)
	}
	if len(m.Token) != 256 {
		t.Errorf("token length: got %d, want 256", len(m.Token))
	}
	if m.CreatedBy != owner.ID {
		t.Errorf("created_by: got %s, want inviter", m.CreatedBy.Hex())
	}
}

func TestHandleInviteUser_NonAdminDenied(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	outsider := fixtures.CreateUser(ctx, "Outsider", "out@test.com")
	invitee := fixtures.CreateUser(ctx, "Invitee", "invitee@test.com")
	group := fixtures.CreateGroup(ctx, "Closed Group", owner.ID, false)

	req := postFormAs(outsider, group.Slug, "/groups/"+group.Slug+"/invite", url.Values{
		"email": {"invitee@test.com"},
	})
	rec := httptest.NewRecorder()
	callRecovering(handler.HandleInviteUser, rec, req)

	n, err := fixtures.DB().Collection("group_memberships").CountDocuments(ctx, bson.M{
		"group_id": group.ID, "user_id": invitee.ID,
	})
	if err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if n != 0 {
		t.Errorf("non-admin invite must not create a row, got %d", n)
	}
}

func TestHandleResolveRequest_Approve(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	requester := fixtures.CreateUser(ctx, "Requester", "req@test.com")
	group := fixtures.CreateGroup(ctx, "Closed Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, requester.ID, models.RoleUser, models.StatusPending)

	req := postFormAs(owner, group.Slug, "/groups/"+group.Slug+"/requests", url.Values{
		"user_id": {requester.ID.Hex()},
		"action":  {"approve"},
	})
	rec := httptest.NewRecorder()
	callRecovering(handler.HandleResolveRequest, rec, req)

	var m models.GroupMembership
	if err := fixtures.DB().Collection("group_memberships").
		FindOne(ctx, bson.M{"group_id": group.ID, "user_id": requester.ID}).Decode(&m); err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if m.Status != models.StatusApproved {
		t.Errorf("status: got %s, want approved", m.Status)
	}
}

func TestHandleChangeRole_Promote(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	req := postFormAs(owner, group.Slug, "/groups/"+group.Slug+"/members/role", url.Values{
		"user_id": {member.ID.Hex()},
		"role":    {models.RoleAdmin},
	})
	rec := httptest.NewRecorder()
	callRecovering(handler.HandleChangeRole, rec, req)

	var m models.GroupMembership
	if err := fixtures.DB().Collection("group_memberships").
		FindOne(ctx, bson.M{"group_id": group.ID, "user_id": member.ID}).Decode(&m); err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if m.Role != models.RoleAdmin {
		t.Errorf("role: got %s, want admin", m.Role)
	}
}

func TestHandleRemoveMember_DeletesRow(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	req := postFormAs(owner, group.Slug, "/groups/"+group.Slug+"/members/remove", url.Values{
		"user_id": {member.ID.Hex()},
	})
	rec := httptest.NewRecorder()
	callRecovering(handler.HandleRemoveMember, rec, req)

	n, err := fixtures.DB().Collection("group_memberships").CountDocuments(ctx, bson.M{
		"group_id": group.ID, "user_id": member.ID,
	})
	if err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if n != 0 {
		t.Errorf("membership must be deleted, got %d rows", n)
	}
}

func TestHandleAcceptInvitation_AdmitsUser(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	invitee := fixtures.CreateUser(ctx, "Invitee", "invitee@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)

	wf := membership.New(fixtures.DB(), zap.NewNop())
	res, err := wf.InviteUser(ctx, group, invitee.ID, owner.ID)
	if err != nil || res.Outcome != membership.Success {
		t.Fatalf("InviteUser: %v %v", res.Outcome, err)
	}
	token := res.Membership.Token

	req := httptest.NewRequest("POST", "/invitations/"+token+"/accept", nil)
	req = testutil.WithChiURLParam(req, "token", token)
	rec := httptest.NewRecorder()
	handler.HandleAcceptInvitation(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/groups/"+group.Slug {
		t.Errorf("Location: got %q, want %q", loc, "/groups/"+group.Slug)
	}

	var m models.GroupMembership
	if err := fixtures.DB().Collection("group_memberships").
		FindOne(ctx, bson.M{"group_id": group.ID, "user_id": invitee.ID}).Decode(&m); err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if m.Status != models.StatusApproved || m.TokenUsed == nil {
		t.Errorf("claim must approve and stamp the token: %+v", m)
	}
}

func TestHandleCreatePost_MemberOnly(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	outsider := fixtures.CreateUser(ctx, "Outsider", "out@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	// Approved member can post.
	req := postFormAs(member, group.Slug, "/groups/"+group.Slug+"/posts", url.Values{
		"body": {"Hello, group!"},
	})
	rec := httptest.NewRecorder()
	handler.HandleCreatePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	n, _ := fixtures.DB().Collection("posts").CountDocuments(ctx, bson.M{"group_id": group.ID})
	if n != 1 {
		t.Fatalf("expected 1 post, got %d", n)
	}

	// Non-member cannot.
	req = postFormAs(outsider, group.Slug, "/groups/"+group.Slug+"/posts", url.Values{
		"body": {"Let me in"},
	})
	rec = httptest.NewRecorder()
	callRecovering(handler.HandleCreatePost, rec, req)

	n, _ = fixtures.DB().Collection("posts").CountDocuments(ctx, bson.M{"group_id": group.ID})
	if n != 1 {
		t.Errorf("non-member post must be refused, got %d posts", n)
	}
}

func TestHandleUpdatePost_AuthorOnly(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, owner.ID, models.RoleAdmin, models.StatusApproved)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	post := fixtures.CreatePost(ctx, group.ID, member.ID, "first draft")

	// The author rewrites their post.
	req := postFormAs(member, group.Slug, "/groups/"+group.Slug+"/posts/"+post.ID.Hex()+"/edit", url.Values{
		"body": {"final version"},
	})
	req = testutil.WithChiURLParam(req, "postID", post.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleUpdatePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	var p models.Post
	if err := fixtures.DB().Collection("posts").
		FindOne(ctx, bson.M{"_id": post.ID}).Decode(&p); err != nil {
		t.Fatalf("load post: %v", err)
	}
	if p.Body != "final version" {
		t.Errorf("body: got %q, want %q", p.Body, "final version")
	}

	// Even a group admin cannot edit someone else's words.
	req = postFormAs(owner, group.Slug, "/groups/"+group.Slug+"/posts/"+post.ID.Hex()+"/edit", url.Values{
		"body": {"admin rewrite"},
	})
	req = testutil.WithChiURLParam(req, "postID", post.ID.Hex())
	rec = httptest.NewRecorder()
	callRecovering(handler.HandleUpdatePost, rec, req)

	if err := fixtures.DB().Collection("posts").
		FindOne(ctx, bson.M{"_id": post.ID}).Decode(&p); err != nil {
		t.Fatalf("load post: %v", err)
	}
	if p.Body != "final version" {
		t.Errorf("admin edit must be refused, body now %q", p.Body)
	}
}

func TestHandleCreateComment_MemberOnly(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	outsider := fixtures.CreateUser(ctx, "Outsider", "out@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	post := fixtures.CreatePost(ctx, group.ID, member.ID, "A post")

	req := postFormAs(member, group.Slug, "/groups/"+group.Slug+"/posts/"+post.ID.Hex()+"/comments", url.Values{
		"body": {"Nice one"},
	})
	req = testutil.WithChiURLParam(req, "postID", post.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleCreateComment(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	n, _ := fixtures.DB().Collection("comments").CountDocuments(ctx, bson.M{"post_id": post.ID})
	if n != 1 {
		t.Fatalf("expected 1 comment, got %d", n)
	}

	// Non-member cannot comment.
	req = postFormAs(outsider, group.Slug, "/groups/"+group.Slug+"/posts/"+post.ID.Hex()+"/comments", url.Values{
		"body": {"Let me in"},
	})
	req = testutil.WithChiURLParam(req, "postID", post.ID.Hex())
	rec = httptest.NewRecorder()
	callRecovering(handler.HandleCreateComment, rec, req)

	n, _ = fixtures.DB().Collection("comments").CountDocuments(ctx, bson.M{"post_id": post.ID})
	if n != 1 {
		t.Errorf("non-member comment must be refused, got %d comments", n)
	}
}

func TestHandleCreateComment_RejectsForeignPost(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	otherGroup := fixtures.CreateGroup(ctx, "Other Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	// The post lives in a group the commenter is not approved in.
	foreign := fixtures.CreatePost(ctx, otherGroup.ID, owner.ID, "Elsewhere")

	req := postFormAs(member, group.Slug, "/groups/"+group.Slug+"/posts/"+foreign.ID.Hex()+"/comments", url.Values{
		"body": {"Sneaking in"},
	})
	req = testutil.WithChiURLParam(req, "postID", foreign.ID.Hex())
	rec := httptest.NewRecorder()
	callRecovering(handler.HandleCreateComment, rec, req)

	n, _ := fixtures.DB().Collection("comments").CountDocuments(ctx, bson.M{"post_id": foreign.ID})
	if n != 0 {
		t.Errorf("cross-group comment must be refused, got %d comments", n)
	}
}

func TestHandleDeleteComment_AuthorOnly(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, owner.ID, models.RoleAdmin, models.StatusApproved)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	post := fixtures.CreatePost(ctx, group.ID, member.ID, "A post")
	comment := fixtures.CreateComment(ctx, post.ID, group.ID, member.ID, "My comment")

	// Admins delete posts, but a comment is only its author's to remove.
	req := postFormAs(owner, group.Slug, "/groups/"+group.Slug+"/comments/"+comment.ID.Hex()+"/delete", url.Values{})
	req = testutil.WithChiURLParam(req, "commentID", comment.ID.Hex())
	rec := httptest.NewRecorder()
	callRecovering(handler.HandleDeleteComment, rec, req)

	n, _ := fixtures.DB().Collection("comments").CountDocuments(ctx, bson.M{"_id": comment.ID})
	if n != 1 {
		t.Fatalf("admin delete of another user's comment must be refused, got %d rows", n)
	}

	req = postFormAs(member, group.Slug, "/groups/"+group.Slug+"/comments/"+comment.ID.Hex()+"/delete", url.Values{})
	req = testutil.WithChiURLParam(req, "commentID", comment.ID.Hex())
	rec = httptest.NewRecorder()
	handler.HandleDeleteComment(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	n, _ = fixtures.DB().Collection("comments").CountDocuments(ctx, bson.M{"_id": comment.ID})
	if n != 0 {
		t.Errorf("author delete must remove the comment, got %d rows", n)
	}
}

func TestHandleTogglePostReaction(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	post := fixtures.CreatePost(ctx, group.ID, member.ID, "A post")

	react := func() *httptest.ResponseRecorder {
		req := postFormAs(member, group.Slug, "/groups/"+group.Slug+"/posts/"+post.ID.Hex()+"/react", url.Values{})
		req = testutil.WithChiURLParam(req, "postID", post.ID.Hex())
		rec := httptest.NewRecorder()
		handler.HandleTogglePostReaction(rec, req)
		return rec
	}

	if rec := react(); rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	n, _ := fixtures.DB().Collection("reactions").CountDocuments(ctx, bson.M{"subject_id": post.ID})
	if n != 1 {
		t.Fatalf("expected 1 reaction after first toggle, got %d", n)
	}

	react()
	n, _ = fixtures.DB().Collection("reactions").CountDocuments(ctx, bson.M{"subject_id": post.ID})
	if n != 0 {
		t.Errorf("expected 0 reactions after second toggle, got %d", n)
	}
}

func TestHandleToggleCommentReaction(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	post := fixtures.CreatePost(ctx, group.ID, member.ID, "A post")
	comment := fixtures.CreateComment(ctx, post.ID, group.ID, member.ID, "A comment")

	req := postFormAs(member, group.Slug, "/groups/"+group.Slug+"/comments/"+comment.ID.Hex()+"/react", url.Values{})
	req = testutil.WithChiURLParam(req, "commentID", comment.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleToggleCommentReaction(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	n, _ := fixtures.DB().Collection("reactions").CountDocuments(ctx, bson.M{
		"subject_type": models.ReactionSubjectComment, "subject_id": comment.ID,
	})
	if n != 1 {
		t.Errorf("expected 1 comment reaction, got %d", n)
	}
}

func TestHandleDeletePost_CascadesCommentsAndReactions(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	post := fixtures.CreatePost(ctx, group.ID, member.ID, "Doomed post")
	comment := fixtures.CreateComment(ctx, post.ID, group.ID, member.ID, "Doomed comment")
	fixtures.CreateReaction(ctx, models.ReactionSubjectPost, post.ID, group.ID, member.ID)
	fixtures.CreateReaction(ctx, models.ReactionSubjectComment, comment.ID, group.ID, member.ID)

	// An unrelated post's thread must survive.
	other := fixtures.CreatePost(ctx, group.ID, member.ID, "Kept post")
	fixtures.CreateComment(ctx, other.ID, group.ID, member.ID, "Kept comment")
	fixtures.CreateReaction(ctx, models.ReactionSubjectPost, other.ID, group.ID, member.ID)

	req := postFormAs(member, group.Slug, "/groups/"+group.Slug+"/posts/"+post.ID.Hex()+"/delete", url.Values{})
	req = testutil.WithChiURLParam(req, "postID", post.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleDeletePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	if n, _ := fixtures.DB().Collection("comments").CountDocuments(ctx, bson.M{"post_id": post.ID}); n != 0 {
		t.Errorf("comments should die with the post, got %d", n)
	}
	if n, _ := fixtures.DB().Collection("reactions").CountDocuments(ctx, bson.M{
		"subject_id": bson.M{"$in": []interface{}{post.ID, comment.ID}},
	}); n != 0 {
		t.Errorf("reactions should die with the post, got %d", n)
	}
	if n, _ := fixtures.DB().Collection("comments").CountDocuments(ctx, bson.M{"post_id": other.ID}); n != 1 {
		t.Errorf("other post's comment should survive, got %d", n)
	}
	if n, _ := fixtures.DB().Collection("reactions").CountDocuments(ctx, bson.M{"subject_id": other.ID}); n != 1 {
		t.Errorf("other post's reaction should survive, got %d", n)
	}
}

func TestHandleDeletePost_AuthorAndAdmin(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	member := fixtures.CreateUser(ctx, "Member", "member@test.com")
	group := fixtures.CreateGroup(ctx, "My Group", owner.ID, false)
	fixtures.CreateMembership(ctx, group.ID, owner.ID, models.RoleAdmin, models.StatusApproved)
	fixtures.CreateMembership(ctx, group.ID, member.ID, models.RoleUser, models.StatusApproved)

	post := fixtures.CreatePost(ctx, group.ID, member.ID, "Mine to delete")

	// Author deletes own post.
	req := postFormAs(member, group.Slug, "/groups/"+group.Slug+"/posts/"+post.ID.Hex()+"/delete", url.Values{})
	req = testutil.WithChiURLParam(req, "postID", post.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleDeletePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	n, _ := fixtures.DB().Collection("posts").CountDocuments(ctx, bson.M{"_id": post.ID})
	if n != 0 {
		t.Fatalf("post must be deleted, got %d", n)
	}

	// Admin deletes someone else's post.
	post2 := fixtures.CreatePost(ctx, group.ID, member.ID, "Admin removes this")
	req = postFormAs(owner, group.Slug, "/groups/"+group.Slug+"/posts/"+post2.ID.Hex()+"/delete", url.Values{})
	req = testutil.WithChiURLParam(req, "postID", post2.ID.Hex())
	rec = httptest.NewRecorder()
	handler.HandleDeletePost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	n, _ = fixtures.DB().Collection("posts").CountDocuments(ctx, bson.M{"_id": post2.ID})
	if n != 0 {
		t.Errorf("admin delete must remove the post, got %d", n)
	}
}
