package utils

import (
	"testing"
	"time"
)

func TestCheckInTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	tok, err := NewCheckInToken(secret, "res-123", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("NewCheckInToken: %v", err)
	}
	id, err := ParseCheckInToken(secret, tok)
	if err != nil {
		t.Fatalf("ParseCheckInToken: %v", err)
	}
	if id != "res-123" {
		t.Fatalf("got reservation id %q, want res-123", id)
	}
}

func TestCheckInTokenWrongSecret(t *testing.T) {
	tok, err := NewCheckInToken("secret-a", "res-123", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("NewCheckInToken: %v", err)
	}
	if _, err := ParseCheckInToken("secret-b", tok); err != ErrBadCheckInToken {
		t.Fatalf("got %v, want ErrBadCheckInToken", err)
	}
}

func TestCheckInTokenExpired(t *testing.T) {
	tok, err := NewCheckInToken("secret", "res-123", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("NewCheckInToken: %v", err)
	}
	if _, err := ParseCheckInToken("secret", tok); err != ErrBadCheckInToken {
		t.Fatalf("got %v, want ErrBadCheckInToken", err)
	}
}

func TestCheckInTokenRejectsAccessToken(t *testing.T) {
	access, err := NewAccessToken("secret", "user-1", "MEMBER", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := ParseCheckInToken("secret", access.Token); err != ErrBadCheckInToken {
		t.Fatalf("access token accepted for check-in, err=%v", err)
	}
}
