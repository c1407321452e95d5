package courses

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	lessonstore "github.com/wellspringhq/wellspring/internal/app/store/lessons"
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

func createCourse(t *testing.T, admin http.Handler, body map[string]any) string {
	t.Helper()

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", body, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create course status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &created)
	return created.ID
}

func TestCreateDuplicateSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, _, admin := newTestHandler(t, db)

	body := map[string]any{"title": "Go Deep", "slug": "go-deep", "access_type": "free", "status": "published"}
	createCourse(t, admin, body)

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", body, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate slug status = %d, want 409", rec.Code)
	}
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, _, admin := newTestHandler(t, db)

	body := map[string]any{"title": "Go Deep", "slug": "go-deep", "access_type": "free", "status": "bogus"}
	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", body, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status create = %d, want 400", rec.Code)
	}

	id := createCourse(t, admin, map[string]any{"title": "Go Deep", "slug": "go-deep", "access_type": "free", "status": "draft"})
	req = testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/"+id, map[string]any{"status": "bogus"}, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status update = %d, want 400", rec.Code)
	}
}

func TestPublicDetailIncludesLessons(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, public, admin := newTestHandler(t, db)

	id := createCourse(t, admin, map[string]any{
		"title": "Go Deep", "slug": "go-deep", "access_type": "free", "status": "published",
	})

	// Add a module, then a lesson in it.
	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/"+id+"/modules", map[string]any{
		"title": "Week One", "order": 1,
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add module status = %d, body %s", rec.Code, rec.Body.String())
	}
	var module struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &module)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	courseID, _ := primitive.ObjectIDFromHex(id)
	moduleID, _ := primitive.ObjectIDFromHex(module.ID)
	if _, err := h.lessons.Create(ctx, lessonstore.CreateInput{
		CourseID: courseID,
		ModuleID: moduleID,
		Title:    "Welcome",
		Order:    1,
		Content:  "<p>hi</p>",
	}); err != nil {
		t.Fatalf("create lesson: %v", err)
	}

	req = testutil.NewRequest(http.MethodGet, "/go-deep")
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}

	var resp struct {
		Course struct {
			Modules []struct {
				Title string `json:"title"`
			} `json:"modules"`
		} `json:"course"`
		Lessons []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"lessons"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Course.Modules) != 1 || resp.Course.Modules[0].Title != "Week One" {
		t.Errorf("modules = %+v", resp.Course.Modules)
	}
	if len(resp.Lessons) != 1 || resp.Lessons[0].Title != "Welcome" {
		t.Fatalf("lessons = %+v", resp.Lessons)
	}
	if resp.Lessons[0].Content != "" {
		t.Error("lesson summaries must not carry content")
	}
}

func TestDraftCourseHiddenFromPublic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	createCourse(t, admin, map[string]any{
		"title": "Hidden", "slug": "hidden", "access_type": "free", "status": "draft",
	})

	req := testutil.NewRequest(http.MethodGet, "/hidden")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("draft by slug status = %d, want 404", rec.Code)
	}

	req = testutil.NewRequest(http.MethodGet, "/")
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	var resp struct {
		Total int `json:"total"`
	}
	decodeBody(t, rec, &resp)
	if resp.Total != 0 {
		t.Errorf("public list total = %d, want 0", resp.Total)
	}
}

func TestEnroll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	id := createCourse(t, admin, map[string]any{
		"title": "Free Course", "slug": "free-course", "access_type": "free", "status": "published",
	})

	// Anonymous users cannot enroll.
	req := testutil.NewRequest(http.MethodPost, "/"+id+"/enroll")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous enroll status = %d, want 401", rec.Code)
	}

	user := testutil.RegularUser()
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/enroll", user)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Enrolling twice conflicts.
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/enroll", user)
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("double enroll status = %d, want 409", rec.Code)
	}
}

func TestEnrollMembersOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	id := createCourse(t, admin, map[string]any{
		"title": "Members Course", "slug": "members-course", "access_type": "members", "status": "published",
	})

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/enroll", testutil.RegularUser())
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-member enroll status = %d, want 403", rec.Code)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/"+id+"/enroll", testutil.MemberUser("premium"))
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("member enroll status = %d, want 201", rec.Code)
	}
}

func TestModuleLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, _, admin := newTestHandler(t, db)

	id := createCourse(t, admin, map[string]any{
		"title": "Go Deep", "slug": "go-deep", "access_type": "free", "status": "draft",
	})

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/"+id+"/modules", map[string]any{
		"title": "Intro", "order": 1,
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add module status = %d", rec.Code)
	}
	var module struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &module)

	req = testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/"+id+"/modules/"+module.ID, map[string]any{
		"title": "Introduction", "order": 2,
	}, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("update module status = %d", rec.Code)
	}

	// Unknown module is a 404.
	req = testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/"+id+"/modules/"+primitive.NewObjectID().Hex(), map[string]any{
		"title": "Nope", "order": 1,
	}, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown module update status = %d, want 404", rec.Code)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id+"/modules/"+module.ID, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("remove module status = %d", rec.Code)
	}
}

func TestDeleteCourseDeletesLessons(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _, admin := newTestHandler(t, db)

	id := createCourse(t, admin, map[string]any{
		"title": "Doomed", "slug": "doomed", "access_type": "free", "status": "published",
	})

	ctx, cancel := testutil.TestContext()
	defer cancel()
	courseID, _ := primitive.ObjectIDFromHex(id)
	if _, err := h.lessons.Create(ctx, lessonstore.CreateInput{
		CourseID: courseID,
		ModuleID: primitive.NewObjectID(),
		Title:    "Gone Soon",
		Order:    1,
	}); err != nil {
		t.Fatalf("create lesson: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	remaining, err := h.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		t.Fatalf("list lessons: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("lessons remaining after course delete: %d", len(remaining))
	}
}
