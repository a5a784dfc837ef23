package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/gatherhub/internal/app/system/normalize"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      normalize.Email(email),
		AuthMethod: "internal",
		Status:     models.UserActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateUserWithPassword creates a test user that can sign in with the
// given plaintext password.
func (f *Fixtures) CreateUserWithPassword(ctx context.Context, fullName, email, password string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}

	user := f.CreateUser(ctx, fullName, email)
	_, err = f.db.Collection("users").UpdateByID(ctx, user.ID,
		bson.M{"$set": bson.M{"password_hash": string(hash)}})
	if err != nil {
		f.t.Fatalf("failed to set test password: %v", err)
	}
	user.PasswordHash = string(hash)
	return user
}

// CreateGroup creates a test group owned by ownerID.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, ownerID primitive.ObjectID, autoApproval bool) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:           primitive.NewObjectID(),
		Slug:         normalize.Slug(name),
		Name:         name,
		NameCI:       text.Fold(name),
		About:        "A test group.",
		AutoApproval: autoApproval,
		OwnerID:      ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateMembership creates a membership row directly, bypassing the workflow.
func (f *Fixtures) CreateMembership(ctx context.Context, groupID, userID primitive.ObjectID, role, status string) models.GroupMembership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		Status:    status,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateInvite creates an invitation membership row with the given token and
// expiry, bypassing the workflow.
func (f *Fixtures) CreateInvite(ctx context.Context, groupID, userID, inviterID primitive.ObjectID, token string, expires time.Time) models.GroupMembership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.GroupMembership{
		ID:              primitive.NewObjectID(),
		GroupID:         groupID,
		UserID:          userID,
		Role:            models.RoleUser,
		Status:          models.StatusPending,
		Token:           token,
		TokenExpireDate: &expires,
		CreatedBy:       inviterID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test invite: %v", err)
	}
	return m
}

// CreatePost creates a post in a group.
func (f *Fixtures) CreatePost(ctx context.Context, groupID, userID primitive.ObjectID, body string) models.Post {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Post{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return p
}

// CreateComment creates a comment under a post.
func (f *Fixtures) CreateComment(ctx context.Context, postID, groupID, userID primitive.ObjectID, body string) models.Comment {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		GroupID:   groupID,
		UserID:    userID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("comments").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}

// CreateReaction creates a reaction on a post or comment, bypassing the
// toggle logic.
func (f *Fixtures) CreateReaction(ctx context.Context, subjectType string, subjectID, groupID, userID primitive.ObjectID) models.Reaction {
	f.t.Helper()

	r := models.Reaction{
		ID:          primitive.NewObjectID(),
		SubjectType: subjectType,
		SubjectID:   subjectID,
		GroupID:     groupID,
		UserID:      userID,
		Kind:        models.ReactionLike,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := f.db.Collection("reactions").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test reaction: %v", err)
	}
	return r
}
