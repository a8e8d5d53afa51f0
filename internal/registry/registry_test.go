package registry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/testhelpers"
)

func TestSemverLess(t *testing.T) {
	tt := []struct {
		a, b string
		want bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.10", "1.0.9", false},
		{"2.0.0", "2.0.0", false},
		{"1.0.0-alpha", "1.0.0", true},
		// Unparseable inputs fall back to lexical ordering.
		{"apple", "banana", true},
	}
	for _, tc := range tt {
		if got := semverLess(tc.a, tc.b); got != tc.want {
			t.Errorf("semverLess(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCaseEncode(t *testing.T) {
	tt := []struct{ in, want string }{
		{"github.com/Masterminds/semver", "github.com/!masterminds/semver"},
		{"github.com/quay/zlog", "github.com/quay/zlog"},
		{"example.com/ABC", "example.com/!a!b!c"},
	}
	for _, tc := range tt {
		if got := caseEncode(tc.in); got != tc.want {
			t.Errorf("caseEncode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNPMEscapeName(t *testing.T) {
	tt := []struct{ in, want string }{
		{"lodash", "lodash"},
		{"@types/node", "@types%2fnode"},
	}
	for _, tc := range tt {
		if got := npmEscapeName(tc.in); got != tc.want {
			t.Errorf("npmEscapeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBearerFromEnv(t *testing.T) {
	env := map[string]string{"NPM_TOKEN": "s3cret-value"}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	if got := bearerFromEnv("NPM_TOKEN", lookup); got != "Bearer s3cret-value" {
		t.Errorf("bearerFromEnv = %q", got)
	}
	if got := bearerFromEnv("UNSET", lookup); got != "" {
		t.Errorf("unset variable should yield empty header, got %q", got)
	}
	if got := bearerFromEnv("", lookup); got != "" {
		t.Errorf("empty variable name should yield empty header, got %q", got)
	}
}

func TestRedactToken(t *testing.T) {
	if got := RedactToken("s3cret-value"); got != "s3cr…" {
		t.Errorf("RedactToken = %q", got)
	}
	if got := RedactToken("ab"); got != "ab" {
		t.Errorf("short tokens pass through, got %q", got)
	}
}

func TestGoProxyAdapter(t *testing.T) {
	ctx := testhelpers.Context(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/github.com/!masterminds/semver/@v/list":
			w.Write([]byte("v1.4.0\nv1.5.0\nv1.5.1-beta.1\n"))
		case "/github.com/!masterminds/semver/@latest":
			w.Write([]byte(`{"Version":"v1.5.0","Time":"2024-01-02T03:04:05Z"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := NewGoProxyAdapter(srv.Client())
	a.BaseURL = srv.URL

	vi, err := a.GetVersionInfo(ctx, "github.com/Masterminds/semver")
	if err != nil {
		t.Fatalf("GetVersionInfo: %v", err)
	}
	if vi.LatestStable != "v1.5.0" {
		t.Errorf("LatestStable = %q, want v1.5.0", vi.LatestStable)
	}
	want := []string{"v1.5.1-beta.1", "v1.5.0", "v1.4.0"}
	if diff := cmp.Diff(want, vi.AllVersions); diff != "" {
		t.Errorf("AllVersions mismatch (-want +got):\n%s", diff)
	}
}

func TestGoProxyAdapterMiss(t *testing.T) {
	ctx := testhelpers.Context(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	a := NewGoProxyAdapter(srv.Client())
	a.BaseURL = srv.URL

	_, err := a.GetVersionInfo(ctx, "example.com/nope")
	if !errors.Is(err, depls.ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestNPMAdapterScopedRegistryAuth(t *testing.T) {
	ctx := testhelpers.Context(t)
	t.Setenv("TEST_NPM_TOKEN", "tok-123")

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{
			"dist-tags": {"latest": "2.1.0"},
			"versions": {"2.0.0": {}, "2.1.0": {}, "3.0.0-rc.1": {}},
			"description": "scoped test package",
			"license": "MIT"
		}`))
	}))
	defer srv.Close()

	a := NewNPMAdapter(srv.Client())
	a.Reconfigure("", map[string]ScopedRegistry{
		"@acme": {URL: srv.URL, Auth: &ScopedRegistryAuth{Variable: "TEST_NPM_TOKEN"}},
	})

	vi, err := a.GetVersionInfo(ctx, "@acme/widget")
	if err != nil {
		t.Fatalf("GetVersionInfo: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want bearer token from env", gotAuth)
	}
	if vi.LatestStable != "2.1.0" {
		t.Errorf("LatestStable = %q, want 2.1.0", vi.LatestStable)
	}
	if vi.License != "MIT" {
		t.Errorf("License = %q, want MIT", vi.License)
	}
}

func TestPackageURL(t *testing.T) {
	p := PackageURL(depls.EcosystemRust, depls.Dependency{Name: "serde", Version: "1.0.200"})
	if got := p.ToString(); got != "pkg:cargo/serde@1.0.200" {
		t.Errorf("purl = %q", got)
	}
}
