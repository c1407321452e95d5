// internal/app/store/blog/blogstore.go
package blogstore

import (
	"context"
	"time"

	"github.com/wellspringhq/wellspring/internal/app/store/storeutil"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the blog_posts collection.
//
// Slugs are intentionally NOT unique. GetPublishedBySlug resolves a slug to
// the most recently published match.
type Store struct {
	c *mongo.Collection
}

// New creates a new blog store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("blog_posts")}
}

// CreateInput contains the input for creating a blog post.
// Content is expected to be sanitized by the caller before it gets here.
type CreateInput struct {
	Title      string
	Slug       string
	Author     string
	Summary    string
	Content    string
	Tags       []string
	ImagePaths []string
	Status     string
}

// Create creates a new blog post. A post created as published gets its
// published_at stamped now.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.BlogPost, error) {
	now := time.Now()
	post := models.BlogPost{
		ID:         primitive.NewObjectID(),
		Title:      input.Title,
		Slug:       input.Slug,
		Author:     input.Author,
		Summary:    input.Summary,
		Content:    input.Content,
		Tags:       input.Tags,
		ImagePaths: input.ImagePaths,
		Status:     input.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if post.Status == models.ContentPublished {
		post.PublishedAt = &now
	}

	if _, err := s.c.InsertOne(ctx, post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByID retrieves a blog post by ID regardless of status.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPublishedBySlug retrieves the most recently published post with the
// given slug. Returns mongo.ErrNoDocuments when no published post matches.
func (s *Store) GetPublishedBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	filter := bson.M{
		"slug":   slug,
		"status": models.ContentPublished,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "published_at", Value: -1}})
	if err := s.c.FindOne(ctx, filter, opts).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdateInput contains the input for updating a blog post.
// Nil fields are left unchanged.
type UpdateInput struct {
	Title      *string
	Slug       *string
	Author     *string
	Summary    *string
	Content    *string
	Tags       *[]string
	ImagePaths *[]string
	Status     *string
}

// Update updates a blog post. Transitioning to published stamps
// published_at if the post was never published before.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now()}

	if input.Title != nil {
		set["title"] = *input.Title
	}
	if input.Slug != nil {
		set["slug"] = *input.Slug
	}
	if input.Author != nil {
		set["author"] = *input.Author
	}
	if input.Summary != nil {
		set["summary"] = *input.Summary
	}
	if input.Content != nil {
		set["content"] = *input.Content
	}
	if input.Tags != nil {
		set["tags"] = *input.Tags
	}
	if input.ImagePaths != nil {
		set["image_paths"] = *input.ImagePaths
	}
	if input.Status != nil {
		set["status"] = *input.Status
	}

	if input.Status != nil && *input.Status == models.ContentPublished {
		// Only stamp published_at on the first publish
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.PublishedAt == nil {
			now := time.Now()
			set["published_at"] = now
		}
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// Delete deletes a blog post by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListPublished returns published posts, newest first, optionally filtered
// by tag, with 1-based pagination.
func (s *Store) ListPublished(ctx context.Context, tag string, limit, page int64) ([]models.BlogPost, error) {
	filter := bson.M{"status": models.ContentPublished}
	if tag != "" {
		filter["tags"] = tag
	}

	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "published_at", Value: -1}})

	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.BlogPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CountPublished returns the number of published posts, optionally filtered by tag.
func (s *Store) CountPublished(ctx context.Context, tag string) (int64, error) {
	filter := bson.M{"status": models.ContentPublished}
	if tag != "" {
		filter["tags"] = tag
	}
	return s.c.CountDocuments(ctx, filter)
}

// ListAll returns posts of every status, newest first, with 1-based pagination.
func (s *Store) ListAll(ctx context.Context, limit, page int64) ([]models.BlogPost, error) {
	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.BlogPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CountAll returns the total number of posts.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
