// internal/domain/models/soulcare.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SoulCareService is a counseling service offered by the organization.
type SoulCareService struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ImagePath   string             `bson:"image_path,omitempty" json:"image_path,omitempty"`
	Status      string             `bson:"status" json:"status"` // draft, published, archived
	Featured    bool               `bson:"featured" json:"featured"`
	Order       int                `bson:"order" json:"order"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// SoulCareTeamMember is a counselor or staff member in the soul-care team.
type SoulCareTeamMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Title     string             `bson:"title,omitempty" json:"title,omitempty"`
	Bio       string             `bson:"bio,omitempty" json:"bio,omitempty"`
	PhotoPath string             `bson:"photo_path,omitempty" json:"photo_path,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Status    string             `bson:"status" json:"status"`
	Featured  bool               `bson:"featured" json:"featured"`
	Order     int                `bson:"order" json:"order"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// SoulCareResource is a downloadable or linked resource (articles, guides, documents).
type SoulCareResource struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	URL         string             `bson:"url,omitempty" json:"url,omitempty"`           // external link
	FilePath    string             `bson:"file_path,omitempty" json:"file_path,omitempty"` // object-storage path
	Status      string             `bson:"status" json:"status"`
	Featured    bool               `bson:"featured" json:"featured"`
	Order       int                `bson:"order" json:"order"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
