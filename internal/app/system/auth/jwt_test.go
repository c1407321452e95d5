package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestIssuer(t *testing.T, ttl time.Duration) *TokenIssuer {
	t.Helper()
	ti, err := NewTokenIssuer("test-jwt-secret-0123456789abcdef", ttl)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	return ti
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Error("NewTokenIssuer() with empty secret should fail")
	}
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	ti := newTestIssuer(t, time.Hour)
	userID := primitive.NewObjectID().Hex()

	token, err := ti.Issue(&SessionUser{
		ID:               userID,
		Email:            "member@example.com",
		Role:             "user",
		MembershipActive: true,
		MembershipTier:   "gold",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %q, want %q", claims.UserID, userID)
	}
	if claims.Email != "member@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "user" {
		t.Errorf("Role = %q", claims.Role)
	}
	if !claims.MembershipActive || claims.MembershipTier != "gold" {
		t.Errorf("membership snapshot missing: %+v", claims)
	}
	if claims.Subject != userID {
		t.Errorf("Subject = %q, want %q", claims.Subject, userID)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti := newTestIssuer(t, time.Nanosecond)

	token, err := ti.Issue(&SessionUser{ID: primitive.NewObjectID().Hex(), Role: "user"})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := ti.Verify(token); err == nil {
		t.Error("Verify() should reject expired token")
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	ti := newTestIssuer(t, time.Hour)
	other, err := NewTokenIssuer("a-completely-different-secret-key", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	token, err := ti.Issue(&SessionUser{ID: primitive.NewObjectID().Hex(), Role: "user"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Error("Verify() should reject token signed with a different secret")
	}
}

func TestBearerAuth(t *testing.T) {
	ti := newTestIssuer(t, time.Hour)
	userID := primitive.NewObjectID().Hex()

	token, err := ti.Issue(&SessionUser{ID: userID, Email: "m@example.com", Role: "user", MembershipActive: true})
	if err != nil {
		t.Fatal(err)
	}

	var got *SessionUser
	handler := BearerAuth(ti, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			r := httptest.NewRequest("GET", "/api/v1/profile", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if got == nil || got.ID != userID {
					t.Errorf("user not injected from token claims: %+v", got)
				}
				if got != nil && !got.MembershipActive {
					t.Error("membership flag not carried from claims")
				}
			}
		})
	}
}
