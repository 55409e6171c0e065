package store

import (
	"context"
	"testing"
)

func TestSubscriptionVerify(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s := NewSubscriptionStore(db)

	sub, err := s.Create(ctx, "home", "s3cret")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.SecretHash == "" || sub.SecretHash == "s3cret" {
		t.Errorf("secret stored as %q", sub.SecretHash)
	}

	got, err := s.Verify(ctx, sub.ID, "s3cret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got == nil || got.ID != sub.ID {
		t.Errorf("verify returned %+v", got)
	}

	got, err = s.Verify(ctx, sub.ID, "wrong")
	if err != nil {
		t.Fatalf("verify wrong secret: %v", err)
	}
	if got != nil {
		t.Error("wrong secret should not verify")
	}

	got, err = s.Verify(ctx, 999, "s3cret")
	if err != nil || got != nil {
		t.Errorf("unknown subscription: got %+v, err %v", got, err)
	}
}
