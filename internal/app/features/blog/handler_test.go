package blog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/wellspringhq/wellspring/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) (*Handler, http.Handler, http.Handler) {
	t.Helper()

	store, err := storage.NewLocal(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/files",
	})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	h := NewHandler(db, store, nil, zap.NewNop())
	return h, Routes(h), AdminRoutes(h)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
}

func createPost(t *testing.T, admin http.Handler, body map[string]any) map[string]any {
	t.Helper()

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", body, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created map[string]any
	decodeBody(t, rec, &created)
	return created
}

func TestPublicListShowsOnlyPublished(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	createPost(t, admin, map[string]any{
		"title": "Published", "slug": "published", "status": "published", "tags": []string{"news"},
	})
	createPost(t, admin, map[string]any{
		"title": "Draft", "slug": "draft", "status": "draft",
	})

	req := testutil.NewRequest(http.MethodGet, "/")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var resp struct {
		Posts []struct {
			Slug string `json:"slug"`
		} `json:"posts"`
		Total int `json:"total"`
	}
	decodeBody(t, rec, &resp)
	if resp.Total != 1 || len(resp.Posts) != 1 || resp.Posts[0].Slug != "published" {
		t.Errorf("public list = %+v, want only the published post", resp)
	}

	// Drafts are invisible by slug too.
	req = testutil.NewRequest(http.MethodGet, "/draft")
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("draft by slug status = %d, want 404", rec.Code)
	}
}

func TestTagFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	createPost(t, admin, map[string]any{
		"title": "A", "slug": "a", "status": "published", "tags": []string{"faith"},
	})
	createPost(t, admin, map[string]any{
		"title": "B", "slug": "b", "status": "published", "tags": []string{"news"},
	})

	req := testutil.NewRequest(http.MethodGet, "/?tag=faith")
	rec := httptest.NewRecorder()
	public.ServeHTTP(rec, req)

	var resp struct {
		Posts []struct {
			Slug string `json:"slug"`
		} `json:"posts"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Posts) != 1 || resp.Posts[0].Slug != "a" {
		t.Errorf("tag filter returned %+v", resp.Posts)
	}
}

func TestContentSanitized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, _, admin := newTestHandler(t, db)

	created := createPost(t, admin, map[string]any{
		"title":   "XSS",
		"slug":    "xss",
		"status":  "published",
		"content": `<p>hello</p><script>alert("x")</script>`,
	})

	content, _ := created["content"].(string)
	if strings.Contains(content, "<script>") {
		t.Errorf("content not sanitized: %q", content)
	}
	if !strings.Contains(content, "<p>hello</p>") {
		t.Errorf("safe markup stripped: %q", content)
	}
}

func TestAdminListIncludesDrafts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, _, admin := newTestHandler(t, db)

	createPost(t, admin, map[string]any{"title": "Draft", "slug": "draft", "status": "draft"})
	createPost(t, admin, map[string]any{"title": "Live", "slug": "live", "status": "published"})

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)

	var resp struct {
		Total int `json:"total"`
	}
	decodeBody(t, rec, &resp)
	if resp.Total != 2 {
		t.Errorf("admin list total = %d, want 2", resp.Total)
	}
}

func TestUpdatePost(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, public, admin := newTestHandler(t, db)

	created := createPost(t, admin, map[string]any{"title": "Draft", "slug": "mypost", "status": "draft"})
	id, _ := created["id"].(string)

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/"+id, map[string]any{
		"status": "published",
		"title":  "Now Live",
	}, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	var updated struct {
		Title       string  `json:"title"`
		PublishedAt *string `json:"published_at"`
	}
	decodeBody(t, rec, &updated)
	if updated.Title != "Now Live" {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.PublishedAt == nil {
		t.Error("publishing did not stamp published_at")
	}

	req = testutil.NewRequest(http.MethodGet, "/mypost")
	rec = httptest.NewRecorder()
	public.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("published post by slug status = %d, want 200", rec.Code)
	}
}

func TestDeletePostRemovesImages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _, admin := newTestHandler(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	imagePath := "uploads/2026/09/cover.png"
	if err := h.fileStorage.Put(ctx, imagePath, strings.NewReader("png-bytes"), nil); err != nil {
		t.Fatalf("put image: %v", err)
	}

	created := createPost(t, admin, map[string]any{
		"title":       "With Image",
		"slug":        "with-image",
		"status":      "published",
		"image_paths": []string{imagePath},
	})
	id, _ := created["id"].(string)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id, testutil.AdminUser())
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}

	if rd, err := h.fileStorage.Get(ctx, imagePath); err == nil {
		rd.Close()
		t.Error("image still present in storage after delete")
	}

	// Deleting again is a 404.
	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+id, testutil.AdminUser())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestUnknownIDIsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, _, admin := newTestHandler(t, db)

	for _, target := range []string{"/not-a-hex-id", "/aaaaaaaaaaaaaaaaaaaaaaaa"} {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, target, testutil.AdminUser())
		rec := httptest.NewRecorder()
		admin.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", target, rec.Code)
		}
	}
}
