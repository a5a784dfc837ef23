// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"

	"github.com/dalemusser/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsGroupAdmin reports whether the given user currently administers the
// group: either they own it, or they hold an approved admin membership in
// the authoritative group_memberships collection.
//
// The check always reads fresh state; authority is never cached in the
// session, so a demotion or removal takes effect on the next call.
func IsGroupAdmin(ctx context.Context, db *mongo.Database, group models.Group, userID primitive.ObjectID) (bool, error) {
	if group.OwnerID == userID {
		return true, nil
	}
	n, err := db.Collection("group_memberships").CountDocuments(ctx, bson.M{
		"group_id": group.ID,
		"user_id":  userID,
		"role":     models.RoleAdmin,
		"status":   models.StatusApproved,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsApprovedMember reports whether the user holds an approved membership in
// the group. The owner is always treated as an approved member.
func IsApprovedMember(ctx context.Context, db *mongo.Database, group models.Group, userID primitive.ObjectID) (bool, error) {
	if group.OwnerID == userID {
		return true, nil
	}
	n, err := db.Collection("group_memberships").CountDocuments(ctx, bson.M{
		"group_id": group.ID,
		"user_id":  userID,
		"status":   models.StatusApproved,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
