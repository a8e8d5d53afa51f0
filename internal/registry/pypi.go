package registry

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/depls-dev/depls"
)

// PyPIAdapter queries PyPI's JSON API.
type PyPIAdapter struct {
	Client *http.Client
}

func NewPyPIAdapter(client *http.Client) *PyPIAdapter { return &PyPIAdapter{Client: client} }

type pypiRelease struct {
	Yanked     bool   `json:"yanked"`
	UploadTime string `json:"upload_time_iso_8601"`
}

type pypiResponse struct {
	Info struct {
		Version     string            `json:"version"`
		Summary     string            `json:"summary"`
		HomePage    string            `json:"home_page"`
		ProjectURLs map[string]string `json:"project_urls"`
		License     string            `json:"license"`
	} `json:"info"`
	Releases map[string][]pypiRelease `json:"releases"`
}

func (a *PyPIAdapter) GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error) {
	url := fmt.Sprintf("https://pypi.org/pypi/%s/json", name)
	var resp pypiResponse
	if err := getJSON(ctx, a.Client, url, nil, &resp); err != nil {
		return depls.VersionInfo{}, err
	}

	versions := make([]string, 0, len(resp.Releases))
	yanked := map[string]struct{}{}
	dates := map[string]time.Time{}
	for v, rels := range resp.Releases {
		if len(rels) == 0 {
			continue
		}
		versions = append(versions, v)
		anyYanked := true
		for _, r := range rels {
			if !r.Yanked {
				anyYanked = false
			}
			if r.UploadTime != "" {
				if t, err := time.Parse("2006-01-02T15:04:05", r.UploadTime); err == nil {
					dates[v] = t
				}
			}
		}
		if anyYanked {
			yanked[v] = struct{}{}
		}
	}
	sort.Slice(versions, func(i, j int) bool { return pep440Less(versions[j], versions[i]) })

	vi := depls.VersionInfo{
		AllVersions:    versions,
		YankedVersions: yanked,
		ReleaseDates:   dates,
		Description:    resp.Info.Summary,
		Homepage:       resp.Info.HomePage,
		License:        resp.Info.License,
	}
	if repo, ok := resp.Info.ProjectURLs["Repository"]; ok {
		vi.RepositoryURL = repo
	} else if repo, ok := resp.Info.ProjectURLs["Source"]; ok {
		vi.RepositoryURL = repo
	}

	for _, v := range versions {
		if _, isYanked := yanked[v]; isYanked || isPythonPrerelease(v) {
			continue
		}
		if vi.LatestStable == "" || pep440Less(vi.LatestStable, v) {
			vi.LatestStable = v
		}
	}
	return vi, nil
}

// isPythonPrerelease implements PEP 440's prerelease segment detection:
// a/b/rc/dev/pre markers anywhere in the version string. Kept as its own
// predicate rather than folding into the generic semver predicate.
func isPythonPrerelease(v string) bool {
	lower := strings.ToLower(v)
	for _, marker := range []string{"a", "b", "rc", ".dev", ".pre"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func pep440Less(a, b string) bool {
	return semverLess(normalizePEP440(a), normalizePEP440(b))
}

// normalizePEP440 strips the subset of PEP 440 syntax that trips up a
// plain semver parser (epoch markers, local version segments) so the
// shared semverLess helper can still produce a reasonable ordering.
func normalizePEP440(v string) string {
	if idx := strings.Index(v, "!"); idx >= 0 {
		v = v[idx+1:]
	}
	if idx := strings.Index(v, "+"); idx >= 0 {
		v = v[:idx]
	}
	return v
}
