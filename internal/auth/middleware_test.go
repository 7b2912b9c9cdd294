package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/furu-identity/furu-identity/internal/auth"
	"github.com/furu-identity/furu-identity/internal/shared"
)

func newProtectedServer(t *testing.T, codec *auth.Codec) *httptest.Server {
	t.Helper()
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := shared.UserIDFromContext(r.Context())
		if !ok {
			t.Error("user id missing from context")
		}
		w.Write([]byte(strconv.FormatInt(userID, 10)))
	})
	srv := httptest.NewServer(auth.RequireAuth(codec)(handler))
	t.Cleanup(srv.Close)
	return srv
}

func getWithAuth(t *testing.T, srv *httptest.Server, header string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRequireAuthAcceptsAccessToken(t *testing.T) {
	codec := newTestCodec()
	srv := newProtectedServer(t, codec)

	token, err := codec.Issue(42, auth.ClassAccess, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resp := getWithAuth(t, srv, "Bearer "+token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	srv := newProtectedServer(t, newTestCodec())

	resp := getWithAuth(t, srv, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireAuthRejectsNonBearerScheme(t *testing.T) {
	srv := newProtectedServer(t, newTestCodec())

	resp := getWithAuth(t, srv, "Basic dXNlcjpwYXNz")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	codec := newTestCodec()
	srv := newProtectedServer(t, codec)

	token, err := codec.Issue(42, auth.ClassRefresh, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resp := getWithAuth(t, srv, "Bearer "+token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh token must not grant access, got %d", resp.StatusCode)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	codec := newTestCodec()
	srv := newProtectedServer(t, codec)

	token, err := codec.Issue(42, auth.ClassAccess, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resp := getWithAuth(t, srv, "Bearer "+token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired token must be rejected, got %d", resp.StatusCode)
	}
}
