package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		SubscriptionID: 2,
		TokenID:        "abc",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.SubscriptionID != 2 {
		t.Errorf("SubscriptionID = %d, want 2", got.SubscriptionID)
	}
	if got.TokenID != "abc" {
		t.Errorf("TokenID = %q, want %q", got.TokenID, "abc")
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestSubscriptionID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{SubscriptionID: 42})
	if SubscriptionID(ctx) != 42 {
		t.Errorf("SubscriptionID = %d, want 42", SubscriptionID(ctx))
	}
}

func TestSubscriptionIDMissing(t *testing.T) {
	if SubscriptionID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}
