// internal/domain/models/lesson.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lesson belongs to exactly one course and one module within that course.
// Content is sanitized HTML.
type Lesson struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID primitive.ObjectID `bson:"course_id" json:"course_id"`
	ModuleID primitive.ObjectID `bson:"module_id" json:"module_id"`

	Title       string `bson:"title" json:"title"`
	Order       int    `bson:"order" json:"order"`
	Content     string `bson:"content" json:"content"` // sanitized HTML
	DurationSec int    `bson:"duration_sec,omitempty" json:"duration_sec,omitempty"`
	FreePreview bool   `bson:"free_preview" json:"free_preview"` // viewable without course access

	// Denormalized counters, moved only by atomic $inc.
	ViewCount       int64 `bson:"view_count" json:"view_count"`
	CompletionCount int64 `bson:"completion_count" json:"completion_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// LessonCompletion records that a user finished a lesson.
// The unique lesson_id+user_id index makes completion idempotent per user.
type LessonCompletion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	LessonID  primitive.ObjectID `bson:"lesson_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	CreatedAt time.Time          `bson:"created_at"`
}
