package registry

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/depls-dev/depls"
)

// RubyGemsAdapter queries the rubygems.org versions API, used for Ruby
// Gemfile dependencies.
type RubyGemsAdapter struct {
	Client *http.Client
}

func NewRubyGemsAdapter(client *http.Client) *RubyGemsAdapter { return &RubyGemsAdapter{Client: client} }

type rubygemsVersion struct {
	Number     string `json:"number"`
	CreatedAt  string `json:"created_at"`
	Prerelease bool   `json:"prerelease"`
	Platform   string `json:"platform"`
}

func (a *RubyGemsAdapter) GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error) {
	url := fmt.Sprintf("https://rubygems.org/api/v1/versions/%s.json", name)
	var resp []rubygemsVersion
	if err := getJSON(ctx, a.Client, url, nil, &resp); err != nil {
		return depls.VersionInfo{}, err
	}
	if len(resp) == 0 {
		return depls.VersionInfo{}, &depls.Error{Op: "rubygems.GetVersionInfo", Kind: depls.ErrMiss, Message: "no versions for " + name}
	}

	versions := make([]string, 0, len(resp))
	dates := map[string]time.Time{}
	for _, v := range resp {
		if v.Platform != "" && v.Platform != "ruby" {
			continue
		}
		versions = append(versions, v.Number)
		if v.CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339, v.CreatedAt); err == nil {
				dates[v.Number] = t
			}
		}
	}
	sort.Slice(versions, func(i, j int) bool { return semverLess(versions[j], versions[i]) })

	vi := depls.VersionInfo{AllVersions: versions}
	if len(dates) > 0 {
		vi.ReleaseDates = dates
	}
	for _, v := range resp {
		if v.Prerelease {
			continue
		}
		if v.Platform != "" && v.Platform != "ruby" {
			continue
		}
		if vi.LatestStable == "" || semverLess(vi.LatestStable, v.Number) {
			vi.LatestStable = v.Number
		}
	}
	return vi, nil
}
