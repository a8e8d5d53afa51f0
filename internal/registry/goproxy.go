package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/depls-dev/depls"
)

// GoProxyAdapter queries the Go module proxy protocol
// (https://proxy.golang.org or a GOPROXY-compatible mirror).
type GoProxyAdapter struct {
	Client  *http.Client
	BaseURL string
}

func NewGoProxyAdapter(client *http.Client) *GoProxyAdapter {
	return &GoProxyAdapter{Client: client, BaseURL: "https://proxy.golang.org"}
}

type goProxyLatestInfo struct {
	Version string    `json:"Version"`
	Time    time.Time `json:"Time"`
}

func (a *GoProxyAdapter) GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error) {
	enc := caseEncode(name)

	list, err := a.fetchList(ctx, enc)
	if err != nil {
		return depls.VersionInfo{}, err
	}
	sort.Slice(list, func(i, j int) bool { return semverLess(list[j], list[i]) })

	vi := depls.VersionInfo{AllVersions: list}
	dates := map[string]time.Time{}
	for _, v := range list {
		if isGoPrerelease(v) {
			continue
		}
		if vi.LatestStable == "" || semverLess(vi.LatestStable, v) {
			vi.LatestStable = v
		}
	}

	var latest goProxyLatestInfo
	latestURL := fmt.Sprintf("%s/%s/@latest", a.BaseURL, enc)
	if err := getJSON(ctx, a.Client, latestURL, nil, &latest); err == nil {
		if vi.LatestStable == "" && !isGoPrerelease(latest.Version) {
			vi.LatestStable = latest.Version
		}
		if !latest.Time.IsZero() {
			dates[latest.Version] = latest.Time
		}
	}
	if len(dates) > 0 {
		vi.ReleaseDates = dates
	}
	return vi, nil
}

func (a *GoProxyAdapter) fetchList(ctx context.Context, encodedModule string) ([]string, error) {
	url := fmt.Sprintf("%s/%s/@v/list", a.BaseURL, encodedModule)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &depls.Error{Op: "goproxy.GetVersionInfo", Kind: depls.ErrInvalid, Inner: err}
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, &depls.Error{Op: "goproxy.GetVersionInfo", Kind: depls.ErrTransport, Inner: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &depls.Error{Op: "goproxy.GetVersionInfo", Kind: depls.ErrMiss, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &depls.Error{Op: "goproxy.GetVersionInfo", Kind: depls.ErrTransport, Inner: err}
	}

	var versions []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			versions = append(versions, line)
		}
	}
	return versions, nil
}

// caseEncode implements the Go module proxy's case-folding escape: every
// uppercase letter is replaced with "!" followed by its lowercase form, so
// module paths can be served from case-insensitive file systems.
func caseEncode(path string) string {
	var b strings.Builder
	for _, r := range path {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('!')
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isGoPrerelease(v string) bool {
	return strings.Contains(v, "-")
}
