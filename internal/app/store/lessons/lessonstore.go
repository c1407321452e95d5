// internal/app/store/lessons/lessonstore.go
package lessonstore

import (
	"context"
	"time"

	"github.com/wellspringhq/wellspring/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the lessons and lesson_completions collections.
type Store struct {
	c           *mongo.Collection
	completions *mongo.Collection
}

// New creates a new lesson store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:           db.Collection("lessons"),
		completions: db.Collection("lesson_completions"),
	}
}

// CreateInput contains the input for creating a lesson.
// Content is expected to be sanitized by the caller.
type CreateInput struct {
	CourseID    primitive.ObjectID
	ModuleID    primitive.ObjectID
	Title       string
	Order       int
	Content     string
	DurationSec int
	FreePreview bool
}

// Create creates a new lesson.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Lesson, error) {
	now := time.Now()
	lesson := models.Lesson{
		ID:          primitive.NewObjectID(),
		CourseID:    input.CourseID,
		ModuleID:    input.ModuleID,
		Title:       input.Title,
		Order:       input.Order,
		Content:     input.Content,
		DurationSec: input.DurationSec,
		FreePreview: input.FreePreview,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// GetByID retrieves a lesson by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// GetByIDAndCountView retrieves a lesson and bumps its view counter in the
// same findAndModify round trip. The returned lesson reflects the new count.
func (s *Store) GetByIDAndCountView(ctx context.Context, id primitive.ObjectID) (*models.Lesson, error) {
	var lesson models.Lesson
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"view_count": 1}},
		opts,
	).Decode(&lesson)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// UpdateInput contains the input for updating a lesson.
// Nil fields are left unchanged.
type UpdateInput struct {
	ModuleID    *primitive.ObjectID
	Title       *string
	Order       *int
	Content     *string
	DurationSec *int
	FreePreview *bool
}

// Update updates a lesson.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now()}

	if input.ModuleID != nil {
		set["module_id"] = *input.ModuleID
	}
	if input.Title != nil {
		set["title"] = *input.Title
	}
	if input.Order != nil {
		set["order"] = *input.Order
	}
	if input.Content != nil {
		set["content"] = *input.Content
	}
	if input.DurationSec != nil {
		set["duration_sec"] = *input.DurationSec
	}
	if input.FreePreview != nil {
		set["free_preview"] = *input.FreePreview
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// Delete deletes a lesson and its completion records.
// Returns the number of lesson documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount > 0 {
		_, _ = s.completions.DeleteMany(ctx, bson.M{"lesson_id": id})
	}
	return res.DeletedCount, nil
}

// DeleteByCourse deletes every lesson belonging to a course, used when the
// course itself is deleted. Returns the number of lessons removed.
func (s *Store) DeleteByCourse(ctx context.Context, courseID primitive.ObjectID) (int64, error) {
	cursor, err := s.c.Find(ctx, bson.M{"course_id": courseID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, err
	}
	var ids []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &ids); err != nil {
		return 0, err
	}

	res, err := s.c.DeleteMany(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		lessonIDs := make([]primitive.ObjectID, len(ids))
		for i, doc := range ids {
			lessonIDs[i] = doc.ID
		}
		_, _ = s.completions.DeleteMany(ctx, bson.M{"lesson_id": bson.M{"$in": lessonIDs}})
	}
	return res.DeletedCount, nil
}

// ListByCourse returns a course's lessons ordered by module and order.
func (s *Store) ListByCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.Lesson, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "module_id", Value: 1},
		{Key: "order", Value: 1},
	})
	cursor, err := s.c.Find(ctx, bson.M{"course_id": courseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lessons []models.Lesson
	if err := cursor.All(ctx, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// ListByModule returns the lessons of one module, in order.
func (s *Store) ListByModule(ctx context.Context, courseID, moduleID primitive.ObjectID) ([]models.Lesson, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := s.c.Find(ctx, bson.M{
		"course_id": courseID,
		"module_id": moduleID,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lessons []models.Lesson
	if err := cursor.All(ctx, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// MarkComplete records that the user finished the lesson and bumps the
// completion counter. Completion is idempotent per user: repeat calls hit
// the unique lesson_id+user_id index and leave the counter untouched.
// Returns true when this call recorded a new completion.
func (s *Store) MarkComplete(ctx context.Context, lessonID, userID primitive.ObjectID) (bool, error) {
	completion := models.LessonCompletion{
		ID:        primitive.NewObjectID(),
		LessonID:  lessonID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if _, err := s.completions.InsertOne(ctx, completion); err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}

	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": lessonID},
		bson.M{"$inc": bson.M{"completion_count": 1}},
	)
	if err != nil {
		return true, err
	}
	return true, nil
}

// CompletedLessonIDs returns the IDs of the given lessons that the user has
// completed, used to decorate course progress views.
func (s *Store) CompletedLessonIDs(ctx context.Context, userID primitive.ObjectID, lessonIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	cursor, err := s.completions.Find(ctx, bson.M{
		"user_id":   userID,
		"lesson_id": bson.M{"$in": lessonIDs},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var completions []models.LessonCompletion
	if err := cursor.All(ctx, &completions); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(completions))
	for i, c := range completions {
		ids[i] = c.LessonID
	}
	return ids, nil
}
