package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	token, err := tokens.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ac, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ac.SubscriptionID != 7 {
		t.Errorf("SubscriptionID = %d, want 7", ac.SubscriptionID)
	}
	if ac.TokenID == "" {
		t.Error("expected a token id")
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, _ := NewTokens("one", time.Hour).Issue(7)

	_, err := NewTokens("two", time.Hour).Parse(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseExpired(t *testing.T) {
	tokens := NewTokens("test-secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := tokens.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tokens.now = time.Now
	if _, err := tokens.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseGarbage(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := tokens.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidToken", tok, err)
		}
	}
}
