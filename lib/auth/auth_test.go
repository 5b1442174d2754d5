package auth

import (
	"testing"
	"time"

	"github.com/oliverisaac/grooming/lib/apperr"
)

func TestPasswordRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("password stored in clear")
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatalf("expected match")
	}
	if CheckPassword(hash, "battery staple") {
		t.Fatalf("expected mismatch")
	}
	if CheckPassword("", "correct horse") {
		t.Fatalf("empty hash matched")
	}
}

func TestTokenIssueAndParse(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := issuer.Parse(token)
	if err != nil || id != "user-1" {
		t.Fatalf("Parse: id=%q err=%v", id, err)
	}

	other := NewTokenIssuer([]byte("other"), time.Hour)
	if _, err := other.Parse(token); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("wrong secret: err=%v", err)
	}
	if _, err := issuer.Parse("not-a-token"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("garbage: err=%v", err)
	}
}

func TestTokenExpires(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), time.Minute)
	start := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return start }
	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	issuer.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := issuer.Parse(token); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expired token accepted: err=%v", err)
	}
}
