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

// PubDevAdapter queries pub.dev's package API, used for Dart/Flutter
// pubspec.yaml dependencies.
type PubDevAdapter struct {
	Client *http.Client
}

func NewPubDevAdapter(client *http.Client) *PubDevAdapter { return &PubDevAdapter{Client: client} }

type pubDevVersion struct {
	Version   string `json:"version"`
	Published string `json:"published"`
}

type pubDevResponse struct {
	Name     string          `json:"name"`
	Latest   pubDevVersion   `json:"latest"`
	Versions []pubDevVersion `json:"versions"`
}

func (a *PubDevAdapter) GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error) {
	url := fmt.Sprintf("https://pub.dev/api/packages/%s", name)
	var resp pubDevResponse
	if err := getJSON(ctx, a.Client, url, nil, &resp); err != nil {
		return depls.VersionInfo{}, err
	}

	versions := make([]string, 0, len(resp.Versions))
	dates := map[string]time.Time{}
	for _, v := range resp.Versions {
		versions = append(versions, v.Version)
		if v.Published != "" {
			if t, err := time.Parse(time.RFC3339, v.Published); err == nil {
				dates[v.Version] = t
			}
		}
	}
	sort.Slice(versions, func(i, j int) bool { return semverLess(versions[j], versions[i]) })

	vi := depls.VersionInfo{AllVersions: versions}
	if len(dates) > 0 {
		vi.ReleaseDates = dates
	}
	if resp.Latest.Version != "" && !isDartPrerelease(resp.Latest.Version) {
		vi.LatestStable = resp.Latest.Version
	}
	if vi.LatestStable == "" {
		for _, v := range versions {
			if !isDartPrerelease(v) {
				vi.LatestStable = v
				break
			}
		}
	}
	return vi, nil
}

func isDartPrerelease(v string) bool {
	return strings.Contains(v, "-")
}
