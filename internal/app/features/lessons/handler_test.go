package lessons

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	coursestore "github.com/wellspringhq/wellspring/internal/app/store/courses"
	"github.com/wellspringhq/wellspring/internal/app/system/auth"
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

	h := NewHandler(db, sm, nil, zap.NewNop())
	return h, Routes(h), AdminRoutes(h)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
}

// seedCourse inserts a course with one module directly through the store and
// returns both IDs.
func seedCourse(t *testing.T, h *Handler, slug, accessType, status string) (primitive.ObjectID, primitive.ObjectID) {
	t.Helper()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	course, err := h.courses.Create(ctx, coursestore.CreateInput{
		Title:      "Course " + slug,
		Slug:       slug,
		AccessType: accessType,
		Status:     status,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	module, err := h.courses.AddModule(ctx, course.ID, "Module One", 1)
	if err != nil {
		t.Fatalf("add module: %v", err)
	}
	return course.ID, module.ID
}

func createLesson(t *testing.T, admin http.Handler, courseID, moduleID primitive.ObjectID, extra map[string]any) string {
	t.Helper()

	body := map[string]any{
		"course_id": courseID.Hex(),
		"module_id": moduleID.Hex(),
		"title":     "Welcome",
		"order":     1,
		"content":   "<p>hello</p>",
	}
	for k, v := range extra {
		body[k] = v
	}

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", body, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create lesson status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &created)
	return created.ID
}

func TestCreateValidatesCourseAndModule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _, admin := newTestHandler(t, db)

	courseID, moduleID := seedCourse(t, h, "go-basics", "free", "published")

	// Unknown course.
	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", map[string]any{
		"course_id": primitive.NewObjectID().Hex(),
		"module_id": moduleID.Hex(),
		"title":     "Orphan",
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown course status = %d, want 400", rec.Code)
	}

	// Module from another course.
	req = testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", map[string]any{
		"course_id": courseID.Hex(),
		"module_id": primitive.NewObjectID().Hex(),
		"title":     "Orphan",
	}, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown module status = %d, want 400", rec.Code)
	}

	createLesson(t, admin, courseID, moduleID, nil)
}

func TestContentSanitizedOnCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _, admin := newTestHandler(t, db)

	courseID, moduleID := seedCourse(t, h, "go-basics", "free", "published")
	id := createLesson(t, admin, courseID, moduleID, map[string]any{
		"content": `<p>safe</p><script>alert(1)</script>`,
	})

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+id, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var lesson struct {
		Content string `json:"content"`
	}
	decodeBody(t, rec, &lesson)
	if lesson.Content != "<p>safe</p>" {
		t.Errorf("content = %q, want script stripped", lesson.Content)
	}
}

func TestGetCountsViews(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, public, admin := newTestHandler(t, db)

	courseID, moduleID := seedCourse(t, h, "go-basics", "free", "published")
	id := createLesson(t, admin, courseID, moduleID, nil)

	var lesson struct {
		ViewCount int64 `json:"view_count"`
	}
	for i := 1; i <= 3; i++ {
		req := testutil.NewRequest(http.MethodGet, "/"+id)
		rec := httptest.NewRecorder()
		public.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("get status = %d", rec.Code)
		}
		decodeBody(t, rec, &lesson)
		if lesson.ViewCount != int64(i) {
			t.Errorf("view_count after read %d = %d", i, lesson.ViewCount)
		}
	}
}

func TestAccessControl(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, public, admin := newTestHandler(t, db)

	courseID, moduleID := seedCourse(t, h, "members-course", "members", "published")
	gated := createLesson(t, admin, courseID, moduleID, nil)
	preview := createLesson(t, admin, courseID, moduleID, map[string]any{
		"title": "Preview", "order": 2, "free_preview": true,
	})

	// Anonymous readers get 401 on gated content but can read the preview.
	req := testutil.NewRequest(http.MethodGet, "/"+gated)
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous gated status = %d, want 401", rec.Code)
	}
	req = testutil.NewRequest(http.MethodGet, "/"+preview)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("anonymous preview status = %d, want 200", rec.Code)
	}

	// Signed-in without membership gets 403; an active member gets through.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/"+gated, testutil.RegularUser())
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-member status = %d, want 403", rec.Code)
	}
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/"+gated, testutil.MemberUser("premium"))
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("member status = %d, want 200", rec.Code)
	}
}

func TestDraftCourseHidesLessons(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, public, admin := newTestHandler(t, db)

	courseID, moduleID := seedCourse(t, h, "draft-course", "free", "draft")
	id := createLesson(t, admin, courseID, moduleID, nil)

	req := testutil.NewRequest(http.MethodGet, "/"+id)
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("draft course lesson status = %d, want 404", rec.Code)
	}

	// Admins can still read it.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/"+id, testutil.AdminUser())
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin read of draft lesson status = %d, want 200", rec.Code)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, public, admin := newTestHandler(t, db)

	courseID, moduleID := seedCourse(t, h, "go-basics", "free", "published")
	id := createLesson(t, admin, courseID, moduleID, nil)

	user := testutil.RegularUser()

	// Anonymous completion is rejected.
	req := testutil.NewRequest(http.MethodPost, "/"+id+"/complete")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous complete status = %d, want 401", rec.Code)
	}

	var resp struct {
		AlreadyCompleted bool `json:"already_completed"`
	}
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/complete", user)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &resp)
	if resp.AlreadyCompleted {
		t.Error("first completion reported as already completed")
	}

	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/complete", user)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat complete status = %d", rec.Code)
	}
	decodeBody(t, rec, &resp)
	if !resp.AlreadyCompleted {
		t.Error("repeat completion not reported as already completed")
	}

	// The counter moved exactly once.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	lessonID, _ := primitive.ObjectIDFromHex(id)
	lesson, err := h.lessons.GetByID(ctx, lessonID)
	if err != nil {
		t.Fatalf("reload lesson: %v", err)
	}
	if lesson.CompletionCount != 1 {
		t.Errorf("completion_count = %d, want 1", lesson.CompletionCount)
	}
}

func TestAdminUpdateValidatesModule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _, admin := newTestHandler(t, db)

	courseID, moduleID := seedCourse(t, h, "go-basics", "free", "published")
	id := createLesson(t, admin, courseID, moduleID, nil)

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/"+id, map[string]any{
		"module_id": primitive.NewObjectID().Hex(),
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown module status = %d, want 400", rec.Code)
	}

	req = testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/"+id, map[string]any{
		"title": "Renamed", "duration_sec": 90,
	}, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Title       string `json:"title"`
		DurationSec int    `json:"duration_sec"`
	}
	decodeBody(t, rec, &updated)
	if updated.Title != "Renamed" || updated.DurationSec != 90 {
		t.Errorf("updated = %+v", updated)
	}
}

func TestAdminDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _, admin := newTestHandler(t, db)

	courseID, moduleID := seedCourse(t, h, "go-basics", "free", "published")
	id := createLesson(t, admin, courseID, moduleID, nil)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", rec.Code)
	}
}
