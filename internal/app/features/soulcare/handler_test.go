package soulcare

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wellspringhq/wellspring/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) (http.Handler, http.Handler) {
	t.Helper()
	h := NewHandler(db, nil, zap.NewNop())
	return Routes(h), AdminRoutes(h)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
}

func createEntry(t *testing.T, admin http.Handler, path string, body map[string]any) string {
	t.Helper()

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, path, body, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %s status = %d, body %s", path, rec.Code, rec.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &created)
	return created.ID
}

func TestPublicCatalogShowsOnlyPublished(t *testing.T) {
	db := testutil.SetupTestDB(t)
	public, admin := newTestHandler(t, db)

	createEntry(t, admin, "/services/", map[string]any{
		"name": "Grief Counseling", "status": "published",
	})
	createEntry(t, admin, "/services/", map[string]any{
		"name": "Upcoming Service", "status": "draft",
	})
	createEntry(t, admin, "/team/", map[string]any{
		"name": "Jordan Lee", "title": "Counselor", "status": "published",
	})
	createEntry(t, admin, "/resources/", map[string]any{
		"title": "Grief Guide", "url": "https://example.com/guide", "status": "published",
	})

	req := testutil.NewRequest(http.MethodGet, "/")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog status = %d", rec.Code)
	}

	var resp struct {
		Services []struct {
			Name string `json:"name"`
		} `json:"services"`
		Team []struct {
			Name string `json:"name"`
		} `json:"team"`
		Resources []struct {
			Title string `json:"title"`
		} `json:"resources"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Services) != 1 || resp.Services[0].Name != "Grief Counseling" {
		t.Errorf("services = %+v", resp.Services)
	}
	if len(resp.Team) != 1 || len(resp.Resources) != 1 {
		t.Errorf("team = %+v, resources = %+v", resp.Team, resp.Resources)
	}
}

func TestFeaturedFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	public, admin := newTestHandler(t, db)

	createEntry(t, admin, "/services/", map[string]any{
		"name": "Featured Service", "status": "published", "featured": true,
	})
	createEntry(t, admin, "/services/", map[string]any{
		"name": "Ordinary Service", "status": "published",
	})

	req := testutil.NewRequest(http.MethodGet, "/services?featured=true")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var resp struct {
		Services []struct {
			Name string `json:"name"`
		} `json:"services"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Services) != 1 || resp.Services[0].Name != "Featured Service" {
		t.Errorf("featured services = %+v", resp.Services)
	}
}

func TestDisplayOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	public, admin := newTestHandler(t, db)

	createEntry(t, admin, "/team/", map[string]any{
		"name": "Second", "status": "published", "order": 2,
	})
	createEntry(t, admin, "/team/", map[string]any{
		"name": "First", "status": "published", "order": 1,
	})

	req := testutil.NewRequest(http.MethodGet, "/team")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)

	var resp struct {
		Team []struct {
			Name string `json:"name"`
		} `json:"team"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Team) != 2 || resp.Team[0].Name != "First" {
		t.Errorf("team order = %+v", resp.Team)
	}
}

func TestResourceRequiresURLOrFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, admin := newTestHandler(t, db)

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/resources/", map[string]any{
		"title": "Empty Resource",
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("resource without url or file status = %d, want 400", rec.Code)
	}
}

func TestServiceLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, admin := newTestHandler(t, db)

	id := createEntry(t, admin, "/services/", map[string]any{
		"name": "Marriage Counseling", "description": "<p>ok</p><script>x</script>", "status": "draft",
	})

	// Sanitized on create.
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/services/"+id, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	var service struct {
		Description string `json:"description"`
	}
	decodeBody(t, rec, &service)
	if service.Description != "<p>ok</p>" {
		t.Errorf("description = %q, want script stripped", service.Description)
	}

	// Update replaces editable fields.
	req = testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/services/"+id, map[string]any{
		"name": "Marriage Counseling", "status": "published", "featured": true,
	}, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Status   string `json:"status"`
		Featured bool   `json:"featured"`
	}
	decodeBody(t, rec, &updated)
	if updated.Status != "published" || !updated.Featured {
		t.Errorf("updated = %+v", updated)
	}

	// Delete, then the entry is gone.
	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/services/"+id, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/services/"+id, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}
