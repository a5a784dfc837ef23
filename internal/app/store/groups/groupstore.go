// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/gatherhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/gatherhub/internal/app/system/normalize"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateGroupSlug = errors.New("a group with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetBySlug loads a group by its URL slug.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"slug": normalize.QueryParam(slug)}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts a new group. Name is stripped of markup, About is sanitized,
// and the slug is derived from the name. The unique slug index turns name
// collisions into ErrDuplicateGroupSlug.
//
// Create only writes the group document; callers that also need the owner's
// admin membership wrap this and the membership insert in a transaction.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Name = htmlsanitize.StripTags(normalize.Name(g.Name))
	g.NameCI = text.Fold(g.Name)
	if g.Slug == "" {
		g.Slug = normalize.Slug(g.Name)
	}
	g.About = htmlsanitize.Sanitize(g.About)
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupSlug
		}
		return models.Group{}, err
	}
	return g, nil
}

// UpdateInfo updates a group's editable fields. An empty name keeps the
// existing name and slug; About may be cleared.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, about string, autoApproval bool) error {
	set := bson.M{
		"about":         htmlsanitize.Sanitize(about),
		"auto_approval": autoApproval,
		"updated_at":    time.Now().UTC(),
	}
	if strings.TrimSpace(name) != "" {
		name = htmlsanitize.StripTags(normalize.Name(name))
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateGroupSlug
	}
	return err
}

// SetImages records the storage paths of the group's cover and thumbnail.
// Empty values leave the corresponding field untouched.
func (s *Store) SetImages(ctx context.Context, id primitive.ObjectID, coverPath, thumbPath string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if coverPath != "" {
		set["cover_path"] = coverPath
	}
	if thumbPath != "" {
		set["thumbnail_path"] = thumbPath
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// List returns groups sorted by folded name, for the browse page.
func (s *Store) List(ctx context.Context, limit int64) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
