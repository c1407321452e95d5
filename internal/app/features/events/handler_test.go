package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wellspringhq/wellspring/internal/app/system/auth"
	"github.com/wellspringhq/wellspring/internal/app/system/mailer"
	"github.com/wellspringhq/wellspring/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) (*Handler, http.Handler, http.Handler) {
	t.Helper()

	sm, err := auth.NewSessionManager("wellspring-session-signing-0123456789abcdef", "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	m := mailer.New(mailer.Config{}, zap.NewNop())
	h := NewHandler(db, sm, m, nil, zap.NewNop())
	return h, Routes(h), AdminRoutes(h)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
}

func createEvent(t *testing.T, admin http.Handler, body map[string]any) string {
	t.Helper()

	if _, ok := body["starts_at"]; !ok {
		body["starts_at"] = time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	}
	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", body, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &created)
	return created.ID
}

func TestUpcomingListSkipsPastAndDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	createEvent(t, admin, map[string]any{
		"title": "Spring Retreat", "slug": "spring-retreat", "status": "published",
	})
	createEvent(t, admin, map[string]any{
		"title": "Secret Planning", "slug": "secret-planning", "status": "draft",
	})
	createEvent(t, admin, map[string]any{
		"title": "Last Year", "slug": "last-year", "status": "published",
		"starts_at": time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
	})

	req := testutil.NewRequest(http.MethodGet, "/")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var resp struct {
		Events []struct {
			Slug string `json:"slug"`
		} `json:"events"`
		Total int64 `json:"total"`
	}
	decodeBody(t, rec, &resp)
	if resp.Total != 1 || len(resp.Events) != 1 || resp.Events[0].Slug != "spring-retreat" {
		t.Errorf("upcoming = %+v (total %d)", resp.Events, resp.Total)
	}

	// Draft events are invisible by slug too.
	req = testutil.NewRequest(http.MethodGet, "/secret-planning")
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("draft by slug status = %d, want 404", rec.Code)
	}
}

func TestCreateDuplicateSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, _, admin := newTestHandler(t, db)

	createEvent(t, admin, map[string]any{"title": "Retreat", "slug": "retreat"})

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", map[string]any{
		"title": "Retreat Again", "slug": "retreat",
		"starts_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate slug status = %d, want 409", rec.Code)
	}
}

func TestRegisterCapacity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	id := createEvent(t, admin, map[string]any{
		"title": "Small Gathering", "slug": "small-gathering",
		"status": "published", "max_spots": 1,
	})

	// Anonymous registration is rejected.
	req := testutil.NewRequest(http.MethodPost, "/"+id+"/register")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous register status = %d, want 401", rec.Code)
	}

	first := testutil.RegularUser()
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/register", first)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Double registration by the same user.
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/register", first)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("double register status = %d, want 409", rec.Code)
	}

	// The only spot is taken.
	second := testutil.RegularUser()
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/register", second)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("full event register status = %d, want 409", rec.Code)
	}

	// Unregistering frees the spot.
	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id+"/register", first)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unregister status = %d", rec.Code)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/register", second)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("register after free status = %d, want 201", rec.Code)
	}
}

func TestRegisterStartedEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	id := createEvent(t, admin, map[string]any{
		"title": "Yesterday", "slug": "yesterday", "status": "published",
		"starts_at": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/register", testutil.RegularUser())
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("register for started event status = %d, want 409", rec.Code)
	}
}

func TestUnregisterNotRegistered(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	id := createEvent(t, admin, map[string]any{
		"title": "Retreat", "slug": "retreat", "status": "published",
	})

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id+"/register", testutil.RegularUser())
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unregister status = %d, want 404", rec.Code)
	}
}

func TestAdminUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, _, admin := newTestHandler(t, db)

	id := createEvent(t, admin, map[string]any{"title": "Retreat", "slug": "retreat"})

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/"+id, map[string]any{
		"status": "published", "max_spots": 50, "location": "Main Hall",
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	var updated struct {
		Status   string `json:"status"`
		MaxSpots int64  `json:"max_spots"`
		Location string `json:"location"`
	}
	decodeBody(t, rec, &updated)
	if updated.Status != "published" || updated.MaxSpots != 50 || updated.Location != "Main Hall" {
		t.Errorf("updated = %+v", updated)
	}

	req = testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/"+id, map[string]any{
		"status": "bogus",
	}, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status update = %d, want 400", rec.Code)
	}
}

func TestAdminDeleteRemovesRegistrations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, public, admin := newTestHandler(t, db)

	id := createEvent(t, admin, map[string]any{
		"title": "Retreat", "slug": "retreat", "status": "published",
	})

	user := testutil.RegularUser()
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/register", user)
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	userID, _ := primitive.ObjectIDFromHex(user.ID)
	regs, err := h.events.ListRegistrationsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list registrations: %v", err)
	}
	if len(regs) != 0 {
		t.Errorf("registrations after event delete = %d, want 0", len(regs))
	}
}
