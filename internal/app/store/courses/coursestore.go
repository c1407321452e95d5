// internal/app/store/courses/coursestore.go
package coursestore

import (
	"context"
	"errors"
	"time"

	"github.com/wellspringhq/wellspring/internal/app/store/storeutil"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateSlug is returned when a course slug is already taken.
	ErrDuplicateSlug = errors.New("a course with this slug already exists")
	// ErrAlreadyEnrolled is returned when the user is already enrolled in the course.
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	// ErrModuleNotFound is returned when a module ID doesn't exist on the course.
	ErrModuleNotFound = errors.New("module not found")
)

// Store provides access to the courses and course_enrollments collections.
// The two travel together because enrollment writes both.
type Store struct {
	c           *mongo.Collection
	enrollments *mongo.Collection
}

// New creates a new course store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:           db.Collection("courses"),
		enrollments: db.Collection("course_enrollments"),
	}
}

// CreateInput contains the input for creating a course.
type CreateInput struct {
	Title       string
	Slug        string
	Description string
	CoverPath   string
	AccessType  string
	PriceCents  int64
	Status      string
}

// Create creates a new course. Returns ErrDuplicateSlug if the slug is taken.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Course, error) {
	now := time.Now()
	course := models.Course{
		ID:          primitive.NewObjectID(),
		Title:       input.Title,
		Slug:        input.Slug,
		Description: input.Description,
		CoverPath:   input.CoverPath,
		Modules:     []models.CourseModule{},
		AccessType:  input.AccessType,
		PriceCents:  input.PriceCents,
		Status:      input.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, course); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &course, nil
}

// GetByID retrieves a course by ID regardless of status.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	var course models.Course
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&course); err != nil {
		return nil, err
	}
	course.ComputeRating()
	return &course, nil
}

// GetPublishedBySlug retrieves a published course by its unique slug.
func (s *Store) GetPublishedBySlug(ctx context.Context, slug string) (*models.Course, error) {
	var course models.Course
	filter := bson.M{
		"slug":   slug,
		"status": models.ContentPublished,
	}
	if err := s.c.FindOne(ctx, filter).Decode(&course); err != nil {
		return nil, err
	}
	course.ComputeRating()
	return &course, nil
}

// UpdateInput contains the input for updating a course.
// Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Slug        *string
	Description *string
	CoverPath   *string
	AccessType  *string
	PriceCents  *int64
	Status      *string
}

// Update updates a course. Returns ErrDuplicateSlug if the new slug is taken.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now()}

	if input.Title != nil {
		set["title"] = *input.Title
	}
	if input.Slug != nil {
		set["slug"] = *input.Slug
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.CoverPath != nil {
		set["cover_path"] = *input.CoverPath
	}
	if input.AccessType != nil {
		set["access_type"] = *input.AccessType
	}
	if input.PriceCents != nil {
		set["price_cents"] = *input.PriceCents
	}
	if input.Status != nil {
		set["status"] = *input.Status
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

// Delete deletes a course by ID and its enrollment records.
// Lessons are deleted separately by the lesson store.
// Returns the number of course documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount > 0 {
		_, _ = s.enrollments.DeleteMany(ctx, bson.M{"course_id": id})
	}
	return res.DeletedCount, nil
}

// ListPublished returns published courses, newest first, with 1-based pagination.
func (s *Store) ListPublished(ctx context.Context, limit, page int64) ([]models.Course, error) {
	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.list(ctx, bson.M{"status": models.ContentPublished}, opts)
}

// CountPublished returns the number of published courses.
func (s *Store) CountPublished(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.ContentPublished})
}

// ListAll returns courses of every status, newest first, with 1-based pagination.
func (s *Store) ListAll(ctx context.Context, limit, page int64) ([]models.Course, error) {
	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.list(ctx, bson.M{}, opts)
}

// CountAll returns the total number of courses.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

func (s *Store) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Course, error) {
	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var courses []models.Course
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i].ComputeRating()
	}
	return courses, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Modules                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// AddModule appends a module to the course and returns it.
func (s *Store) AddModule(ctx context.Context, courseID primitive.ObjectID, title string, order int) (*models.CourseModule, error) {
	module := models.CourseModule{
		ID:    primitive.NewObjectID(),
		Title: title,
		Order: order,
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": courseID},
		bson.M{
			"$push": bson.M{"modules": module},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &module, nil
}

// UpdateModule updates a module's title and order in place.
// Returns ErrModuleNotFound if the module isn't on the course.
func (s *Store) UpdateModule(ctx context.Context, courseID, moduleID primitive.ObjectID, title string, order int) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": courseID, "modules.id": moduleID},
		bson.M{"$set": bson.M{
			"modules.$.title": title,
			"modules.$.order": order,
			"updated_at":      time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrModuleNotFound
	}
	return nil
}

// RemoveModule removes a module from the course.
// Returns ErrModuleNotFound if the module isn't on the course.
func (s *Store) RemoveModule(ctx context.Context, courseID, moduleID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": courseID, "modules.id": moduleID},
		bson.M{
			"$pull": bson.M{"modules": bson.M{"id": moduleID}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrModuleNotFound
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Enrollments                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Enroll records the user's enrollment and bumps the course counter.
// The unique course_id+user_id index makes double enrollment impossible;
// a duplicate insert returns ErrAlreadyEnrolled without touching the counter.
func (s *Store) Enroll(ctx context.Context, courseID, userID primitive.ObjectID) error {
	enrollment := models.Enrollment{
		ID:        primitive.NewObjectID(),
		CourseID:  courseID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if _, err := s.enrollments.InsertOne(ctx, enrollment); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrAlreadyEnrolled
		}
		return err
	}

	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": courseID},
		bson.M{"$inc": bson.M{"enrollment_count": 1}},
	)
	return err
}

// IsEnrolled reports whether the user is enrolled in the course.
func (s *Store) IsEnrolled(ctx context.Context, courseID, userID primitive.ObjectID) (bool, error) {
	count, err := s.enrollments.CountDocuments(ctx, bson.M{
		"course_id": courseID,
		"user_id":   userID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListEnrollmentsByUser returns the user's enrollments, newest first.
func (s *Store) ListEnrollmentsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.enrollments.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []models.Enrollment
	if err := cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}
