// internal/app/store/posts/poststore.go
package poststore

import (
	"context"
	"time"

	"github.com/dalemusser/gatherhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("posts")}
}

// Create inserts a post. The body is sanitized before storage.
func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Body = htmlsanitize.Sanitize(p.Body)
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// Get loads a single post by id.
// Returns mongo.ErrNoDocuments if the post does not exist.
func (s *Store) Get(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, bson.M{"_id": postID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateBody rewrites a post's body only if the post belongs to the given
// author. Admins can delete posts but never edit them. The new body is
// sanitized before storage; the returned count says whether a post matched.
func (s *Store) UpdateBody(ctx context.Context, postID, authorID primitive.ObjectID, body string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": postID, "user_id": authorID},
		bson.M{"$set": bson.M{
			"body":       htmlsanitize.Sanitize(body),
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// ListByGroup returns a group's posts, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Post
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a post only if it belongs to the given author. Admin-driven
// removal goes through DeleteByID.
func (s *Store) Delete(ctx context.Context, postID, authorID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": postID, "user_id": authorID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByID removes a post regardless of author.
func (s *Store) DeleteByID(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteAllForGroup removes every post in a group. Used when the group is
// deleted.
func (s *Store) DeleteAllForGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByGroup returns the number of posts in a group.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}
