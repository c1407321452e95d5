// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course access types
const (
	AccessFree    = "free"
	AccessPaid    = "paid"
	AccessMembers = "members"
)

// AllAccessTypes returns all valid course access types.
func AllAccessTypes() []string {
	return []string{
		AccessFree,
		AccessPaid,
		AccessMembers,
	}
}

// IsValidAccessType checks if an access type is valid.
func IsValidAccessType(s string) bool {
	for _, v := range AllAccessTypes() {
		if v == s {
			return true
		}
	}
	return false
}

// Course represents a course with its nested modules.
// Lessons live in their own collection and reference course and module IDs.
type Course struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug" json:"slug"` // unique
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CoverPath   string             `bson:"cover_path,omitempty" json:"cover_path,omitempty"` // object-storage path

	Modules []CourseModule `bson:"modules" json:"modules"`

	AccessType string `bson:"access_type" json:"access_type"` // free, paid, members
	PriceCents int64  `bson:"price_cents" json:"price_cents"`
	Status     string `bson:"status" json:"status"` // draft, published, archived

	// Denormalized counters, moved only by atomic $inc.
	EnrollmentCount int64   `bson:"enrollment_count" json:"enrollment_count"`
	RatingSum       int64   `bson:"rating_sum" json:"-"`
	RatingCount     int64   `bson:"rating_count" json:"rating_count"`
	Rating          float64 `bson:"-" json:"rating"` // computed: RatingSum / RatingCount

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CourseModule is a named, ordered section within a course.
type CourseModule struct {
	ID    primitive.ObjectID `bson:"id" json:"id"`
	Title string             `bson:"title" json:"title"`
	Order int                `bson:"order" json:"order"`
}

// ComputeRating fills the derived Rating field from the counter pair.
func (c *Course) ComputeRating() {
	if c.RatingCount > 0 {
		c.Rating = float64(c.RatingSum) / float64(c.RatingCount)
	}
}

// ModuleByID returns the module with the given ID and a found flag.
func (c *Course) ModuleByID(id primitive.ObjectID) (CourseModule, bool) {
	for _, m := range c.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return CourseModule{}, false
}

// Enrollment records a user's enrollment in a course.
type Enrollment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID  primitive.ObjectID `bson:"course_id" json:"course_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
