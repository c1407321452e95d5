// internal/app/store/lessons/lessonstore_test.go
package lessonstore_test

import (
	"testing"

	lessonstore "github.com/wellspringhq/wellspring/internal/app/store/lessons"
	"github.com/wellspringhq/wellspring/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := lessonstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	courseID := primitive.NewObjectID()
	moduleID := primitive.NewObjectID()
	lesson, err := store.Create(ctx, lessonstore.CreateInput{
		CourseID: courseID,
		ModuleID: moduleID,
		Title:    "Lesson One",
		Order:    1,
		Content:  "<p>welcome</p>",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByID(ctx, lesson.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Lesson One" || got.CourseID != courseID {
		t.Errorf("unexpected lesson: %+v", got)
	}
	if got.ViewCount != 0 {
		t.Errorf("view count: got %d, want 0", got.ViewCount)
	}
}

func TestGetByIDAndCountView(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := lessonstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lesson, err := store.Create(ctx, lessonstore.CreateInput{
		CourseID: primitive.NewObjectID(),
		ModuleID: primitive.NewObjectID(),
		Title:    "Counted",
		Order:    1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := store.GetByIDAndCountView(ctx, lesson.ID)
		if err != nil {
			t.Fatalf("GetByIDAndCountView: %v", err)
		}
		if got.ViewCount != want {
			t.Errorf("view count: got %d, want %d", got.ViewCount, want)
		}
	}
}

func TestMarkCompleteIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := lessonstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lesson, err := store.Create(ctx, lessonstore.CreateInput{
		CourseID: primitive.NewObjectID(),
		ModuleID: primitive.NewObjectID(),
		Title:    "Completable",
		Order:    1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	userID := primitive.NewObjectID()

	first, err := store.MarkComplete(ctx, lesson.ID, userID)
	if err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	if !first {
		t.Error("first completion should be recorded")
	}

	second, err := store.MarkComplete(ctx, lesson.ID, userID)
	if err != nil {
		t.Fatalf("second MarkComplete: %v", err)
	}
	if second {
		t.Error("repeat completion should be a no-op")
	}

	got, err := store.GetByID(ctx, lesson.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CompletionCount != 1 {
		t.Errorf("completion count: got %d, want 1", got.CompletionCount)
	}

	// A different user counts separately
	if _, err := store.MarkComplete(ctx, lesson.ID, primitive.NewObjectID()); err != nil {
		t.Fatalf("other user MarkComplete: %v", err)
	}
	got, _ = store.GetByID(ctx, lesson.ID)
	if got.CompletionCount != 2 {
		t.Errorf("completion count after second user: got %d, want 2", got.CompletionCount)
	}
}

func TestListByCourseOrdering(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := lessonstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	courseID := primitive.NewObjectID()
	moduleID := primitive.NewObjectID()

	// Insert out of order
	for _, order := range []int{3, 1, 2} {
		if _, err := store.Create(ctx, lessonstore.CreateInput{
			CourseID: courseID, ModuleID: moduleID,
			Title: "L", Order: order,
		}); err != nil {
			t.Fatalf("Create order %d: %v", order, err)
		}
	}

	lessons, err := store.ListByModule(ctx, courseID, moduleID)
	if err != nil {
		t.Fatalf("ListByModule: %v", err)
	}
	if len(lessons) != 3 {
		t.Fatalf("lessons: got %d, want 3", len(lessons))
	}
	for i, l := range lessons {
		if l.Order != i+1 {
			t.Errorf("position %d: got order %d", i, l.Order)
		}
	}
}

func TestDeleteByCourse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := lessonstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	courseID := primitive.NewObjectID()
	moduleID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	var lessonID primitive.ObjectID
	for i := 1; i <= 3; i++ {
		lesson, err := store.Create(ctx, lessonstore.CreateInput{
			CourseID: courseID, ModuleID: moduleID, Title: "L", Order: i,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		lessonID = lesson.ID
	}
	if _, err := store.MarkComplete(ctx, lessonID, userID); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	deleted, err := store.DeleteByCourse(ctx, courseID)
	if err != nil {
		t.Fatalf("DeleteByCourse: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted: got %d, want 3", deleted)
	}

	remaining, err := store.ListByCourse(ctx, courseID)
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining lessons: got %d, want 0", len(remaining))
	}

	completed, err := store.CompletedLessonIDs(ctx, userID, []primitive.ObjectID{lessonID})
	if err != nil {
		t.Fatalf("CompletedLessonIDs: %v", err)
	}
	if len(completed) != 0 {
		t.Error("completions should be removed with the course's lessons")
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := lessonstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lesson, err := store.Create(ctx, lessonstore.CreateInput{
		CourseID: primitive.NewObjectID(),
		ModuleID: primitive.NewObjectID(),
		Title:    "Doomed", Order: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	deleted, err := store.Delete(ctx, lesson.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted: got %d, want 1", deleted)
	}
	if _, err := store.GetByID(ctx, lesson.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID after delete: got %v, want ErrNoDocuments", err)
	}
}
