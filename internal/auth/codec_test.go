package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/furu-identity/furu-identity/internal/auth"
	"github.com/furu-identity/furu-identity/internal/shared"
)

func newTestCodec() *auth.Codec {
	return auth.NewCodec("codec-test-secret", 30*time.Minute, 7*24*time.Hour)
}

func TestCodecRoundTrip(t *testing.T) {
	codec := newTestCodec()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, class := range []auth.TokenClass{auth.ClassAccess, auth.ClassRefresh} {
		token, err := codec.Issue(42, class, now)
		if err != nil {
			t.Fatalf("issue %s: %v", class, err)
		}
		claims, err := codec.Parse(token, class, now)
		if err != nil {
			t.Fatalf("parse %s: %v", class, err)
		}
		userID, err := claims.UserID()
		if err != nil {
			t.Fatalf("subject: %v", err)
		}
		if userID != 42 {
			t.Fatalf("expected subject 42, got %d", userID)
		}
	}
}

func TestCodecClassMismatch(t *testing.T) {
	codec := newTestCodec()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	access, err := codec.Issue(1, auth.ClassAccess, now)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	refresh, err := codec.Issue(1, auth.ClassRefresh, now)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	if _, err := codec.Parse(access, auth.ClassRefresh, now); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
	if _, err := codec.Parse(refresh, auth.ClassAccess, now); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
}

func TestCodecExpiry(t *testing.T) {
	codec := newTestCodec()
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	token, err := codec.Issue(7, auth.ClassAccess, issued)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := codec.Parse(token, auth.ClassAccess, issued.Add(30*time.Minute-time.Second)); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}
	if _, err := codec.Parse(token, auth.ClassAccess, issued.Add(30*time.Minute+time.Second)); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestCodecRejectsWrongSecret(t *testing.T) {
	codec := newTestCodec()
	other := auth.NewCodec("different-secret", 30*time.Minute, 7*24*time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	token, err := codec.Issue(9, auth.ClassAccess, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.Parse(token, auth.ClassAccess, now); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("token verified under wrong secret: %v", err)
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	codec := newTestCodec()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, input := range []string{"", "not-a-token", "aaaa.bbbb.cccc"} {
		if _, err := codec.Parse(input, auth.ClassAccess, now); !errors.Is(err, shared.ErrInvalidToken) {
			t.Fatalf("input %q: expected ErrInvalidToken, got %v", input, err)
		}
	}
}

func TestCodecIssuesUniqueIDs(t *testing.T) {
	codec := newTestCodec()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := codec.Issue(1, auth.ClassRefresh, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := codec.Issue(1, auth.ClassRefresh, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct jti claims for identical inputs")
	}
}
