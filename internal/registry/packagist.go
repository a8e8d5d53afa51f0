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

// PackagistAdapter queries Packagist's v2 metadata API
// (https://repo.packagist.org/p2/{vendor}/{package}.json), used for PHP
// composer.json dependencies.
type PackagistAdapter struct {
	Client *http.Client
}

func NewPackagistAdapter(client *http.Client) *PackagistAdapter {
	return &PackagistAdapter{Client: client}
}

type packagistRelease struct {
	Version    string `json:"version_normalized"`
	VersionRaw string `json:"version"`
	Time       string `json:"time"`
	Homepage   string `json:"homepage"`
	Source     struct {
		URL string `json:"url"`
	} `json:"source"`
	License     []string `json:"license"`
	Description string   `json:"description"`
}

type packagistResponse struct {
	Packages map[string][]packagistRelease `json:"packages"`
}

func (a *PackagistAdapter) GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error) {
	url := fmt.Sprintf("https://repo.packagist.org/p2/%s.json", name)
	var resp packagistResponse
	if err := getJSON(ctx, a.Client, url, nil, &resp); err != nil {
		return depls.VersionInfo{}, err
	}

	releases, ok := resp.Packages[name]
	if !ok || len(releases) == 0 {
		return depls.VersionInfo{}, &depls.Error{Op: "packagist.GetVersionInfo", Kind: depls.ErrMiss, Message: "no releases for " + name}
	}

	versions := make([]string, 0, len(releases))
	dates := map[string]time.Time{}
	var vi depls.VersionInfo
	for _, r := range releases {
		v := strings.TrimPrefix(r.VersionRaw, "v")
		versions = append(versions, v)
		if r.Time != "" {
			if t, err := time.Parse(time.RFC3339, r.Time); err == nil {
				dates[v] = t
			}
		}
		if vi.Description == "" {
			vi.Description = r.Description
			vi.Homepage = r.Homepage
			vi.RepositoryURL = r.Source.URL
			if len(r.License) > 0 {
				vi.License = r.License[0]
			}
		}
	}
	sort.Slice(versions, func(i, j int) bool { return semverLess(versions[j], versions[i]) })
	vi.AllVersions = versions
	if len(dates) > 0 {
		vi.ReleaseDates = dates
	}

	for _, v := range versions {
		if isComposerPrerelease(v) {
			continue
		}
		if vi.LatestStable == "" || semverLess(vi.LatestStable, v) {
			vi.LatestStable = v
		}
	}
	return vi, nil
}

func isComposerPrerelease(v string) bool {
	lower := strings.ToLower(v)
	for _, marker := range []string{"alpha", "beta", "rc", "dev"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
