// internal/domain/models/reaction.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction subjects. A reaction attaches to either a post or a comment;
// SubjectID points into the matching collection.
const (
	ReactionSubjectPost    = "post"
	ReactionSubjectComment = "comment"
)

// ReactionLike is the only reaction kind currently offered.
const ReactionLike = "like"

// Reaction is one user's reaction to a post or comment. A user holds at most
// one reaction per subject, enforced by a unique index; reacting again
// removes it (toggle semantics).
type Reaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubjectType string             `bson:"subject_type" json:"subject_type"` // ReactionSubjectPost | ReactionSubjectComment
	SubjectID   primitive.ObjectID `bson:"subject_id" json:"subject_id"`
	GroupID     primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Kind        string             `bson:"kind" json:"kind"` // ReactionLike

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ValidReactionSubject reports whether subjectType names a reactable thing.
func ValidReactionSubject(subjectType string) bool {
	return subjectType == ReactionSubjectPost || subjectType == ReactionSubjectComment
}
