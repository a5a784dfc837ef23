// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles. The group owner holds RoleAdmin; additional admins can be
// promoted by any admin.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Membership statuses. A membership is created pending (unless the group
// auto-approves joins) and moves to approved or rejected exactly once.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidRole reports whether role is one of the defined membership roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (user_id, group_id), enforced by a unique index.
//
// Invitation fields are set only on rows created by inviteUser: Token is a
// single-use credential, valid while TokenUsed is nil and TokenExpireDate is
// in the future. Join and request-join rows carry no token.
type GroupMembership struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`

	Role   string `bson:"role" json:"role"`     // RoleAdmin | RoleUser
	Status string `bson:"status" json:"status"` // StatusPending | StatusApproved | StatusRejected

	Token           string     `bson:"token,omitempty" json:"-"`
	TokenExpireDate *time.Time `bson:"token_expire_date,omitempty" json:"-"`
	TokenUsed       *time.Time `bson:"token_used,omitempty" json:"-"`

	// CreatedBy records who initiated this row: the user themselves for
	// join/request-join, the inviting admin for invitations.
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
