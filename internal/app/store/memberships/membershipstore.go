// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dalemusser/gatherhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// TokenBytes is the size of an invitation token before hex encoding.
	// 128 random bytes encode to a 256-character token.
	TokenBytes = 128

	// DefaultInviteTTL is how long an invitation token stays claimable.
	DefaultInviteTTL = 240 * time.Hour
)

var (
	// ErrDuplicateMembership is returned when a second membership row for the
	// same (user, group) pair is inserted. The unique index raises this for
	// the losing side of any race between join, request, and invite.
	ErrDuplicateMembership = errors.New("user already has a membership in this group")

	// ErrTokenInvalid is returned when an invitation token does not exist,
	// has been used, or has expired. Callers cannot tell which; the token is
	// simply not claimable.
	ErrTokenInvalid = errors.New("invitation token is invalid or expired")

	errBadRole   = errors.New(`role must be "admin" or "user"`)
	errBadStatus = errors.New(`status must be "pending", "approved", or "rejected"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

// NewInviteToken generates a 256-character invitation token.
// Panics if the system's cryptographic random number generator fails.
func NewInviteToken() string {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// Get loads the membership row for (groupID, userID).
// Returns mongo.ErrNoDocuments if the user has no row in this group.
func (s *Store) Get(ctx context.Context, groupID, userID primitive.ObjectID) (*models.GroupMembership, error) {
	var m models.GroupMembership
	if err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a membership row after validating role and status.
// The unique (user_id, group_id) index makes concurrent creates safe: exactly
// one insert wins and the rest get ErrDuplicateMembership.
func (s *Store) Create(ctx context.Context, m models.GroupMembership) (models.GroupMembership, error) {
	if !models.ValidRole(m.Role) {
		return models.GroupMembership{}, errBadRole
	}
	switch m.Status {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
		// ok
	default:
		return models.GroupMembership{}, errBadStatus
	}

	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupMembership{}, ErrDuplicateMembership
		}
		return models.GroupMembership{}, err
	}
	return m, nil
}

// SupersedeInvite replaces whatever row (GroupID, UserID) currently has with
// the given invitation row, inserting one if none exists. The whole swap is a
// single FindOneAndReplace upsert on the unique (user_id, group_id) key, so
// it is atomic on any server topology: there is never a moment where the old
// row is gone and the new one has not landed. Two concurrent upserts for the
// same pair race on the insert and the loser gets ErrDuplicateMembership.
//
// The replacement keeps the existing document's _id when one is present;
// m.ID must be left zero.
func (s *Store) SupersedeInvite(ctx context.Context, m models.GroupMembership) (models.GroupMembership, error) {
	if !models.ValidRole(m.Role) {
		return models.GroupMembership{}, errBadRole
	}
	if m.Token == "" || m.TokenExpireDate == nil {
		return models.GroupMembership{}, errors.New("invitation row needs a token and expiry")
	}
	m.ID = primitive.NilObjectID
	m.Status = models.StatusPending
	m.TokenUsed = nil

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	var out models.GroupMembership
	err := s.c.FindOneAndReplace(ctx,
		bson.M{"group_id": m.GroupID, "user_id": m.UserID},
		m,
		options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupMembership{}, ErrDuplicateMembership
		}
		return models.GroupMembership{}, err
	}
	return out, nil
}

// Delete removes the membership row for (groupID, userID).
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, groupID, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ResolvePending flips a pending row to approved or rejected. Rows in any
// other status are left untouched; the returned count tells the caller
// whether anything changed. Running the filter and update as one UpdateOne
// keeps concurrent resolutions idempotent.
func (s *Store) ResolvePending(ctx context.Context, groupID, userID primitive.ObjectID, toStatus string) (int64, error) {
	if toStatus != models.StatusApproved && toStatus != models.StatusRejected {
		return 0, errBadStatus
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"status":     toStatus,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetRole updates the role on an existing membership row.
// Returns the number of rows matched (0 if the user has no membership).
func (s *Store) SetRole(ctx context.Context, groupID, userID primitive.ObjectID, role string) (int64, error) {
	if !models.ValidRole(role) {
		return 0, errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// claimableFilter matches an invite row whose token is still live: never
// used and not past its expiry.
func claimableFilter(token string) bson.M {
	return bson.M{
		"token":             token,
		"token_used":        nil,
		"token_expire_date": bson.M{"$gt": time.Now().UTC()},
	}
}

// GetByToken loads the invite row for a still-claimable token without
// consuming it. Used to show the invitation before the user decides.
func (s *Store) GetByToken(ctx context.Context, token string) (*models.GroupMembership, error) {
	var m models.GroupMembership
	if err := s.c.FindOne(ctx, claimableFilter(token)).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return &m, nil
}

// ClaimToken atomically consumes an invitation token: the row moves to
// approved and token_used is stamped in a single FindOneAndUpdate. Two
// concurrent claims of the same token race on the token_used:nil filter and
// exactly one wins; the other sees ErrTokenInvalid.
func (s *Store) ClaimToken(ctx context.Context, token string) (*models.GroupMembership, error) {
	now := time.Now().UTC()
	var m models.GroupMembership
	err := s.c.FindOneAndUpdate(ctx,
		claimableFilter(token),
		bson.M{"$set": bson.M{
			"status":     models.StatusApproved,
			"token_used": now,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RejectToken atomically deletes the invite row for a still-claimable token.
// Rejecting removes the row entirely, so the user can be invited again or
// join on their own later.
func (s *Store) RejectToken(ctx context.Context, token string) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := s.c.FindOneAndDelete(ctx, claimableFilter(token)).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByGroup returns membership rows for a group, optionally filtered by
// status ("" means all), newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, status string) ([]models.GroupMembership, error) {
	filter := bson.M{"group_id": groupID}
	if status != "" {
		filter["status"] = status
	}
	return s.list(ctx, filter)
}

// ListByUser returns membership rows for a user, optionally filtered by
// status ("" means all), newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.GroupMembership, error) {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}
	return s.list(ctx, filter)
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.GroupMembership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []models.GroupMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountApproved returns the number of approved members in a group.
func (s *Store) CountApproved(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID, "status": models.StatusApproved})
}

// DeleteAllForGroup removes every membership row for a group. Used when the
// group itself is deleted.
func (s *Store) DeleteAllForGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
