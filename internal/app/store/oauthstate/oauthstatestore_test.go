package oauthstate

import (
	"testing"

	"github.com/wellspringhq/wellspring/internal/testutil"
)

func TestCreateAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, "random-state-token-12345", "/dashboard"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	redirectTo, ok := store.Consume(ctx, "random-state-token-12345")
	if !ok {
		t.Fatal("Consume should succeed for a fresh state")
	}
	if redirectTo != "/dashboard" {
		t.Errorf("redirect: got %q, want /dashboard", redirectTo)
	}
}

func TestConsumeSingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, "single-use-token", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, ok := store.Consume(ctx, "single-use-token"); !ok {
		t.Fatal("first Consume should succeed")
	}
	if _, ok := store.Consume(ctx, "single-use-token"); ok {
		t.Error("second Consume should fail (state is single-use)")
	}
}

func TestConsumeNonexistent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, ok := store.Consume(ctx, "nonexistent-token"); ok {
		t.Error("Consume should fail for an unknown state")
	}
}

func TestCreateDuplicateState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, "duplicate-state-token", ""); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if err := store.Create(ctx, "duplicate-state-token", ""); err == nil {
		t.Error("Create with duplicate state should fail")
	}
}

func TestConsumeMultipleStates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tokens := []string{"token-1-abc", "token-2-def", "token-3-ghi"}
	for _, token := range tokens {
		if err := store.Create(ctx, token, ""); err != nil {
			t.Fatalf("Create(%s): %v", token, err)
		}
	}

	for _, token := range tokens {
		if _, ok := store.Consume(ctx, token); !ok {
			t.Errorf("Consume(%s) should succeed", token)
		}
	}
	for _, token := range tokens {
		if _, ok := store.Consume(ctx, token); ok {
			t.Errorf("Consume(%s) second time should fail", token)
		}
	}
}
