// internal/app/store/events/eventstore_test.go
package eventstore_test

import (
	"errors"
	"testing"
	"time"

	eventstore "github.com/wellspringhq/wellspring/internal/app/store/events"
	"github.com/wellspringhq/wellspring/internal/domain/models"
	"github.com/wellspringhq/wellspring/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func createEvent(t *testing.T, store *eventstore.Store, slug string, maxSpots int64) *models.Event {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	event, err := store.Create(ctx, eventstore.CreateInput{
		Title:    "Event " + slug,
		Slug:     slug,
		StartsAt: time.Now().Add(48 * time.Hour),
		MaxSpots: maxSpots,
		Status:   models.ContentPublished,
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", slug, err)
	}
	return event
}

func TestCreateDuplicateSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	createEvent(t, store, "spring-retreat", 50)

	_, err := store.Create(ctx, eventstore.CreateInput{
		Title:    "Duplicate",
		Slug:     "spring-retreat",
		StartsAt: time.Now().Add(24 * time.Hour),
		Status:   models.ContentDraft,
	})
	if !errors.Is(err, eventstore.ErrDuplicateSlug) {
		t.Errorf("duplicate slug: got %v, want ErrDuplicateSlug", err)
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := createEvent(t, store, "workshop", 10)
	userID := primitive.NewObjectID()

	if err := store.Register(ctx, event.ID, userID); err != nil {
		t.Fatalf("Register: %v", err)
	}

	registered, err := store.IsRegistered(ctx, event.ID, userID)
	if err != nil {
		t.Fatalf("IsRegistered: %v", err)
	}
	if !registered {
		t.Error("user should be registered")
	}

	got, _ := store.GetByID(ctx, event.ID)
	if got.RegisteredCount != 1 {
		t.Errorf("registered count: got %d, want 1", got.RegisteredCount)
	}

	// Duplicate registration rejected, counter unchanged
	if err := store.Register(ctx, event.ID, userID); !errors.Is(err, eventstore.ErrAlreadyRegistered) {
		t.Errorf("double register: got %v, want ErrAlreadyRegistered", err)
	}
	got, _ = store.GetByID(ctx, event.ID)
	if got.RegisteredCount != 1 {
		t.Errorf("count after duplicate: got %d, want 1", got.RegisteredCount)
	}

	if err := store.Unregister(ctx, event.ID, userID); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	got, _ = store.GetByID(ctx, event.ID)
	if got.RegisteredCount != 0 {
		t.Errorf("count after unregister: got %d, want 0", got.RegisteredCount)
	}

	if err := store.Unregister(ctx, event.ID, userID); !errors.Is(err, eventstore.ErrNotRegistered) {
		t.Errorf("unregister twice: got %v, want ErrNotRegistered", err)
	}
}

func TestRegisterCapacity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := createEvent(t, store, "small-event", 2)

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	for _, userID := range []primitive.ObjectID{first, second} {
		if err := store.Register(ctx, event.ID, userID); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	rejected := primitive.NewObjectID()
	err := store.Register(ctx, event.ID, rejected)
	if !errors.Is(err, eventstore.ErrEventFull) {
		t.Errorf("register past capacity: got %v, want ErrEventFull", err)
	}

	got, _ := store.GetByID(ctx, event.ID)
	if got.RegisteredCount != 2 {
		t.Errorf("count at capacity: got %d, want 2", got.RegisteredCount)
	}
	if got.HasCapacity() {
		t.Error("full event should report no capacity")
	}

	// The rejected registration record must not linger
	registered, err := store.IsRegistered(ctx, event.ID, rejected)
	if err != nil {
		t.Fatalf("IsRegistered: %v", err)
	}
	if registered {
		t.Error("rejected user should not hold a registration record")
	}

	// After someone leaves, the rejected user can register
	if err := store.Unregister(ctx, event.ID, first); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if err := store.Register(ctx, event.ID, rejected); err != nil {
		t.Errorf("register after a spot opened: %v", err)
	}
}

func TestUnlimitedCapacity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := createEvent(t, store, "open-event", 0)

	for i := 0; i < 5; i++ {
		if err := store.Register(ctx, event.ID, primitive.NewObjectID()); err != nil {
			t.Fatalf("Register %d: %v", i+1, err)
		}
	}

	got, _ := store.GetByID(ctx, event.ID)
	if got.RegisteredCount != 5 {
		t.Errorf("count: got %d, want 5", got.RegisteredCount)
	}
	if !got.HasCapacity() {
		t.Error("unlimited event should always have capacity")
	}
}

func TestListUpcoming(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Past event
	if _, err := store.Create(ctx, eventstore.CreateInput{
		Title: "Past", Slug: "past",
		StartsAt: time.Now().Add(-24 * time.Hour),
		Status:   models.ContentPublished,
	}); err != nil {
		t.Fatalf("Create past: %v", err)
	}
	// Draft future event
	if _, err := store.Create(ctx, eventstore.CreateInput{
		Title: "Hidden", Slug: "hidden",
		StartsAt: time.Now().Add(24 * time.Hour),
		Status:   models.ContentDraft,
	}); err != nil {
		t.Fatalf("Create draft: %v", err)
	}
	// Two upcoming, later one first in insertion order
	if _, err := store.Create(ctx, eventstore.CreateInput{
		Title: "Later", Slug: "later",
		StartsAt: time.Now().Add(72 * time.Hour),
		Status:   models.ContentPublished,
	}); err != nil {
		t.Fatalf("Create later: %v", err)
	}
	if _, err := store.Create(ctx, eventstore.CreateInput{
		Title: "Sooner", Slug: "sooner",
		StartsAt: time.Now().Add(24 * time.Hour),
		Status:   models.ContentPublished,
	}); err != nil {
		t.Fatalf("Create sooner: %v", err)
	}

	events, err := store.ListUpcoming(ctx, 10, 1)
	if err != nil {
		t.Fatalf("ListUpcoming: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("upcoming: got %d, want 2", len(events))
	}
	if events[0].Slug != "sooner" || events[1].Slug != "later" {
		t.Errorf("ordering: got %s, %s", events[0].Slug, events[1].Slug)
	}
}

func TestDeleteRemovesRegistrations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := createEvent(t, store, "short-lived", 10)
	userID := primitive.NewObjectID()
	if err := store.Register(ctx, event.ID, userID); err != nil {
		t.Fatalf("Register: %v", err)
	}

	deleted, err := store.Delete(ctx, event.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted: got %d, want 1", deleted)
	}
	if _, err := store.GetByID(ctx, event.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID after delete: got %v, want ErrNoDocuments", err)
	}
	registered, err := store.IsRegistered(ctx, event.ID, userID)
	if err != nil {
		t.Fatalf("IsRegistered: %v", err)
	}
	if registered {
		t.Error("registrations should be removed with the event")
	}
}
