// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group represents a community that users join and post into.
//
// NOTE:
//   - Member lists are not embedded on Group.
//     All membership is stored in the group_memberships collection.
//   - The owner always holds an approved admin membership; that membership's
//     role can never be changed (see the membership workflow).
type Group struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Slug   string             `bson:"slug" json:"slug"` // unique, URL-safe, derived from name
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"`
	About  string             `bson:"about" json:"about"` // sanitized HTML

	// AutoApproval makes join() grant approved status immediately instead
	// of creating a pending request.
	AutoApproval bool `bson:"auto_approval" json:"auto_approval"`

	CoverPath     string `bson:"cover_path,omitempty" json:"cover_path,omitempty"`
	ThumbnailPath string `bson:"thumbnail_path,omitempty" json:"thumbnail_path,omitempty"`

	OwnerID primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
