package acc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// takeoffStub fakes the token and packages endpoints, serving the
// package list in pages of two.
type takeoffStub struct {
	tokenCalls   int
	packageCalls int
	pageSize     int
	packages     []map[string]string
}

func (s *takeoffStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/authentication/v2/token", func(w http.ResponseWriter, r *http.Request) {
		s.tokenCalls++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.FormValue("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	})

	mux.HandleFunc("/construction/takeoff/v1/projects/proj-1/packages", func(w http.ResponseWriter, r *http.Request) {
		s.packageCalls++
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		offset := 0
		if v := r.URL.Query().Get("offset"); v != "" {
			offset, _ = strconv.Atoi(v)
		}
		end := offset + s.pageSize
		if end > len(s.packages) {
			end = len(s.packages)
		}

		results := make([]any, 0, end-offset)
		for _, p := range s.packages[offset:end] {
			results = append(results, p)
		}
		page := map[string]any{
			"results": results,
			"pagination": map[string]any{
				"limit":        s.pageSize,
				"offset":       offset,
				"totalResults": len(s.packages),
			},
		}
		if end < len(s.packages) {
			page["pagination"].(map[string]any)["nextUrl"] = fmt.Sprintf("/packages?offset=%d", end)
		}
		json.NewEncoder(w).Encode(page)
	})

	return mux
}

func newTestClient(t *testing.T, stub *takeoffStub) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	client := NewClient("client-id", "client-secret", nil, WithBaseURL(srv.URL))
	return client, srv
}

func TestPackagesFollowsPagination(t *testing.T) {
	stub := &takeoffStub{
		pageSize: 2,
		packages: []map[string]string{
			{"id": "pkg-1", "name": "Structural"},
			{"id": "pkg-2", "name": "Architectural"},
			{"id": "pkg-3", "name": "MEP"},
		},
	}
	client, _ := newTestClient(t, stub)

	packages, err := client.Packages(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("Packages failed: %v", err)
	}
	if len(packages) != 3 {
		t.Fatalf("Expected 3 packages across pages, got %d", len(packages))
	}
	if packages[2].Name != "MEP" {
		t.Errorf("Expected 'MEP' last, got %q", packages[2].Name)
	}
	if stub.packageCalls != 2 {
		t.Errorf("Expected 2 page fetches, got %d", stub.packageCalls)
	}
}

func TestAccessTokenCached(t *testing.T) {
	stub := &takeoffStub{
		pageSize: 10,
		packages: []map[string]string{{"id": "pkg-1", "name": "Structural"}},
	}
	client, _ := newTestClient(t, stub)
	ctx := context.Background()

	if _, err := client.Packages(ctx, "proj-1"); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := client.Packages(ctx, "proj-1"); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if stub.tokenCalls != 1 {
		t.Errorf("Expected a single token request, got %d", stub.tokenCalls)
	}
}

func TestProjectIDPrefixStripped(t *testing.T) {
	stub := &takeoffStub{
		pageSize: 10,
		packages: []map[string]string{{"id": "pkg-1", "name": "Structural"}},
	}
	client, _ := newTestClient(t, stub)

	// "b.proj-1" resolves to the same endpoint as the bare id.
	packages, err := client.Packages(context.Background(), "b.proj-1")
	if err != nil {
		t.Fatalf("Packages failed: %v", err)
	}
	if len(packages) != 1 {
		t.Errorf("Expected 1 package, got %d", len(packages))
	}
}

func TestAccProjectID(t *testing.T) {
	if got := accProjectID("b.abc-123"); got != "abc-123" {
		t.Errorf("Expected 'abc-123', got %q", got)
	}
	if got := accProjectID("abc-123"); got != "abc-123" {
		t.Errorf("Expected bare id unchanged, got %q", got)
	}
}

func TestMemoryTokenCacheExpiry(t *testing.T) {
	tc := NewMemoryTokenCache()
	ctx := context.Background()

	if _, ok := tc.Get(ctx); ok {
		t.Error("Expected empty cache to miss")
	}

	tc.Put(ctx, "tok", time.Hour)
	token, ok := tc.Get(ctx)
	if !ok || token != "tok" {
		t.Errorf("Expected cached token, got %q ok=%v", token, ok)
	}

	tc.Put(ctx, "tok2", -time.Second)
	if _, ok := tc.Get(ctx); ok {
		t.Error("Expected expired token to miss")
	}
}
