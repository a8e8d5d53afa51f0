package registry

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/depls-dev/depls"
)

// ScopedRegistryAuth names the environment variable holding a bearer
// token for one scoped registry.
type ScopedRegistryAuth struct {
	Variable string
}

// ScopedRegistry is one npm scope's alternative registry base URL and
// optional auth.
type ScopedRegistry struct {
	URL  string
	Auth *ScopedRegistryAuth
}

// NPMAdapter is the one adapter that can be reconfigured after it is
// built (see Reconfigure), so — unlike the other seven, immutable
// adapters — it is wrapped in a sync.Mutex. The server does not handle
// workspace/didChangeConfiguration, so scoped registries come only from
// the initialization options.
type NPMAdapter struct {
	Client *http.Client

	mu      sync.Mutex
	baseURL string
	scoped  map[string]ScopedRegistry
}

// NewNPMAdapter returns an adapter pointed at the public registry by
// default.
func NewNPMAdapter(client *http.Client) *NPMAdapter {
	return &NPMAdapter{
		Client:  client,
		baseURL: "https://registry.npmjs.org",
		scoped:  map[string]ScopedRegistry{},
	}
}

// Reconfigure atomically replaces the base URL and scoped-registry table.
// internal/backend calls it once, when the backend is built, with the
// registries.npm initialization options.
func (a *NPMAdapter) Reconfigure(baseURL string, scoped map[string]ScopedRegistry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if baseURL != "" {
		a.baseURL = baseURL
	}
	a.scoped = scoped
}

type npmPackument struct {
	DistTags struct {
		Latest string `json:"latest"`
	} `json:"dist-tags"`
	Versions    map[string]struct{} `json:"versions"`
	Time        map[string]string   `json:"time"`
	Description string              `json:"description"`
	Homepage    string              `json:"homepage"`
	Repository  struct {
		URL string `json:"url"`
	} `json:"repository"`
	License string `json:"license"`
}

func (a *NPMAdapter) GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error) {
	base, headers := a.resolve(name)
	u := base + "/" + npmEscapeName(name)

	var pkg npmPackument
	if err := getJSON(ctx, a.Client, u, headers, &pkg); err != nil {
		return depls.VersionInfo{}, err
	}

	versions := make([]string, 0, len(pkg.Versions))
	for v := range pkg.Versions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return semverLess(versions[j], versions[i]) })

	vi := depls.VersionInfo{
		AllVersions:   versions,
		Description:   pkg.Description,
		Homepage:      pkg.Homepage,
		RepositoryURL: pkg.Repository.URL,
		License:       pkg.License,
	}
	if len(pkg.Time) > 0 {
		vi.ReleaseDates = map[string]time.Time{}
		for v, ts := range pkg.Time {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				vi.ReleaseDates[v] = t
			}
		}
	}

	if latest := pkg.DistTags.Latest; latest != "" {
		if !isNPMPrerelease(latest) {
			vi.LatestStable = latest
		} else {
			vi.LatestPrerelease = latest
		}
	}
	if vi.LatestStable == "" {
		for _, v := range versions {
			if !isNPMPrerelease(v) {
				vi.LatestStable = v
				break
			}
		}
	}
	return vi, nil
}

func (a *NPMAdapter) resolve(name string) (string, map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	base := a.baseURL
	var headers map[string]string
	if strings.HasPrefix(name, "@") {
		if idx := strings.Index(name, "/"); idx > 0 {
			scope := name[:idx]
			if sr, ok := a.scoped[scope]; ok {
				base = sr.URL
				if sr.Auth != nil {
					if auth := bearerFromEnv(sr.Auth.Variable, os.LookupEnv); auth != "" {
						headers = map[string]string{"Authorization": auth}
					}
				}
			}
		}
	}
	return base, headers
}

// npmEscapeName URL-encodes the "/" in a scoped package name, matching
// the registry's own convention for packument URLs.
func npmEscapeName(name string) string {
	if !strings.HasPrefix(name, "@") {
		return name
	}
	idx := strings.Index(name, "/")
	if idx < 0 {
		return name
	}
	return url.PathEscape(name[:idx]) + "%2f" + url.PathEscape(name[idx+1:])
}

func isNPMPrerelease(v string) bool {
	return strings.Contains(v, "-")
}
