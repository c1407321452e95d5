// internal/domain/models/blogpost.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlogPost represents a blog article. Content is sanitized HTML.
//
// Slugs are NOT unique across posts. Public lookup by slug resolves to the
// most recently published match.
type BlogPost struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   string             `bson:"title" json:"title"`
	Slug    string             `bson:"slug" json:"slug"`
	Author  string             `bson:"author,omitempty" json:"author,omitempty"`
	Summary string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Content string             `bson:"content" json:"content"` // sanitized HTML
	Tags    []string           `bson:"tags,omitempty" json:"tags,omitempty"`

	// ImagePaths are the object-storage paths referenced by the content,
	// tracked so deleting the post can cascade-delete its images.
	ImagePaths []string `bson:"image_paths,omitempty" json:"image_paths,omitempty"`

	Status      string     `bson:"status" json:"status"` // draft, published, archived
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
