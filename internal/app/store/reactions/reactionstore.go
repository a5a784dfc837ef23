// internal/app/store/reactions/reactionstore.go
package reactionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/gatherhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var errBadSubject = errors.New(`subject type must be "post" or "comment"`)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reactions")}
}

// Toggle flips a user's reaction on a subject: if the user already reacted
// the reaction is removed, otherwise one is created. Returns whether the
// user has a reaction after the call.
//
// The unique (subject_type, subject_id, user_id) index keeps concurrent
// toggles from stacking rows: of two simultaneous inserts one loses on the
// index, and the duplicate is treated as the reaction already being there.
func (s *Store) Toggle(ctx context.Context, r models.Reaction) (bool, error) {
	if !models.ValidReactionSubject(r.SubjectType) {
		return false, errBadSubject
	}
	if r.Kind == "" {
		r.Kind = models.ReactionLike
	}

	filter := bson.M{
		"subject_type": r.SubjectType,
		"subject_id":   r.SubjectID,
		"user_id":      r.UserID,
	}
	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// CountBySubjects returns the reaction count for each of the given subjects,
// keyed by subject id. Subjects with no reactions are absent from the map.
func (s *Store) CountBySubjects(ctx context.Context, subjectType string, subjectIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	out := make(map[primitive.ObjectID]int64, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"subject_type": subjectType,
			"subject_id":   bson.M{"$in": subjectIDs},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$subject_id",
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID    primitive.ObjectID `bson:"_id"`
		Count int64              `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r.Count
	}
	return out, nil
}

// UserReactedSubjects reports which of the given subjects the user has
// reacted to, keyed by subject id.
func (s *Store) UserReactedSubjects(ctx context.Context, subjectType string, subjectIDs []primitive.ObjectID, userID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{
		"subject_type": subjectType,
		"subject_id":   bson.M{"$in": subjectIDs},
		"user_id":      userID,
	})
	if err != nil {
		return nil, err
	}
	var rows []models.Reaction
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.SubjectID] = true
	}
	return out, nil
}

// DeleteForSubjects removes every reaction on the given subjects. Used when
// a post or comment is deleted.
func (s *Store) DeleteForSubjects(ctx context.Context, subjectType string, subjectIDs []primitive.ObjectID) (int64, error) {
	if len(subjectIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{
		"subject_type": subjectType,
		"subject_id":   bson.M{"$in": subjectIDs},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteAllForGroup removes every reaction in a group. Used when the group
// is deleted.
func (s *Store) DeleteAllForGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
