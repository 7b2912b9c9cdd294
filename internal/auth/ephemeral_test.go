package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/furu-identity/furu-identity/internal/auth"
	"github.com/furu-identity/furu-identity/internal/shared"
)

func newTestStore() (*auth.EphemeralStore, *mockRepo) {
	repo := newMockRepo()
	return auth.NewEphemeralStore(repo, 24*time.Hour, time.Hour), repo
}

func TestEphemeralIssueGeneratesOpaqueSecret(t *testing.T) {
	store, repo := newTestStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	secret, err := store.Issue(context.Background(), 1, auth.ClassVerification, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// 32 random bytes base64url encode to 43 characters.
	if len(secret) != 43 {
		t.Fatalf("expected 43 character secret, got %d", len(secret))
	}

	other, err := store.Issue(context.Background(), 2, auth.ClassVerification, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if secret == other {
		t.Fatal("secrets must be unique")
	}

	stored := repo.tokens[secret]
	if stored == nil {
		t.Fatal("token not persisted")
	}
	if got, want := stored.ExpiresAt, now.Add(24*time.Hour); !got.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, got)
	}
}

func TestEphemeralConsumeOnce(t *testing.T) {
	store, _ := newTestStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	secret, err := store.Issue(context.Background(), 7, auth.ClassReset, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := store.Consume(context.Background(), secret, auth.ClassReset, now)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if userID != 7 {
		t.Fatalf("expected user 7, got %d", userID)
	}

	if _, err := store.Consume(context.Background(), secret, auth.ClassReset, now); !errors.Is(err, shared.ErrTokenAlreadyUsed) {
		t.Fatalf("expected ErrTokenAlreadyUsed, got %v", err)
	}
}

func TestEphemeralConsumeUnknownSecret(t *testing.T) {
	store, _ := newTestStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Consume(context.Background(), "no-such-secret", auth.ClassReset, now); !errors.Is(err, shared.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestEphemeralConsumeWrongClass(t *testing.T) {
	store, _ := newTestStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	secret, err := store.Issue(context.Background(), 7, auth.ClassVerification, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := store.Consume(context.Background(), secret, auth.ClassReset, now); !errors.Is(err, shared.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound for class mismatch, got %v", err)
	}
}

func TestEphemeralConsumeExpired(t *testing.T) {
	store, _ := newTestStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	secret, err := store.Issue(context.Background(), 7, auth.ClassReset, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Consumable up to and including the deadline.
	deadline := now.Add(time.Hour)
	if _, err := store.Consume(context.Background(), secret, auth.ClassReset, deadline); err != nil {
		t.Fatalf("consume at deadline: %v", err)
	}

	late, err := store.Issue(context.Background(), 7, auth.ClassReset, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := store.Consume(context.Background(), late, auth.ClassReset, deadline.Add(time.Second)); !errors.Is(err, shared.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestEphemeralReissueSupersedesPrior(t *testing.T) {
	store, _ := newTestStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.Issue(context.Background(), 3, auth.ClassVerification, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := store.Issue(context.Background(), 3, auth.ClassVerification, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := store.Consume(context.Background(), first, auth.ClassVerification, now); !errors.Is(err, shared.ErrTokenAlreadyUsed) {
		t.Fatalf("expected superseded token to fail, got %v", err)
	}
	if _, err := store.Consume(context.Background(), second, auth.ClassVerification, now); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
}

func TestEphemeralReissueOtherClassUntouched(t *testing.T) {
	store, _ := newTestStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	verification, err := store.Issue(context.Background(), 3, auth.ClassVerification, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := store.Issue(context.Background(), 3, auth.ClassReset, now); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := store.Consume(context.Background(), verification, auth.ClassVerification, now); err != nil {
		t.Fatalf("verification token invalidated by reset issue: %v", err)
	}
}

func TestEphemeralConcurrentConsumeSingleWinner(t *testing.T) {
	store, _ := newTestStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	secret, err := store.Issue(context.Background(), 11, auth.ClassReset, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Consume(context.Background(), secret, auth.ClassReset, now)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, used int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, shared.ErrTokenAlreadyUsed):
			used++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if used != attempts-1 {
		t.Fatalf("expected %d AlreadyUsed, got %d", attempts-1, used)
	}
}
