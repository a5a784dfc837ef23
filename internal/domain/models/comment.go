// internal/domain/models/comment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a reply to a post. Comments live and die with their post and
// inherit its group, so the membership gate on the feed covers them too.
type Comment struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID  primitive.ObjectID `bson:"post_id" json:"post_id"`
	GroupID primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Body    string             `bson:"body" json:"body"` // sanitized HTML

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
