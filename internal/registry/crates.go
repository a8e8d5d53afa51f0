package registry

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/depls-dev/depls"
	"golang.org/x/time/rate"
)

// CratesAdapter queries the crates.io sparse index
// (https://index.crates.io), which serves one newline-delimited-JSON
// file per package rather than a single registry API call. The limiter
// is shared across all calls through one adapter instance.
type CratesAdapter struct {
	Client  *http.Client
	limiter *rate.Limiter
}

// NewCratesAdapter returns an adapter that shares client and enforces the
// sparse index's documented one-request-per-second budget.
func NewCratesAdapter(client *http.Client) *CratesAdapter {
	return &CratesAdapter{
		Client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type crateIndexLine struct {
	Vers   string `json:"vers"`
	Yanked bool   `json:"yanked"`
}

func (a *CratesAdapter) GetVersionInfo(ctx context.Context, name string) (depls.VersionInfo, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return depls.VersionInfo{}, &depls.Error{Op: "crates.GetVersionInfo", Kind: depls.ErrTransport, Inner: err}
	}

	url := sparseIndexURL(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return depls.VersionInfo{}, &depls.Error{Op: "crates.GetVersionInfo", Kind: depls.ErrInvalid, Inner: err}
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return depls.VersionInfo{}, &depls.Error{Op: "crates.GetVersionInfo", Kind: depls.ErrTransport, Inner: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return depls.VersionInfo{}, &depls.Error{Op: "crates.GetVersionInfo", Kind: depls.ErrMiss, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var lines []crateIndexLine
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var l crateIndexLine
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			continue
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return depls.VersionInfo{}, &depls.Error{Op: "crates.GetVersionInfo", Kind: depls.ErrMiss, Message: "no versions"}
	}

	vi := depls.VersionInfo{YankedVersions: map[string]struct{}{}}
	all := make([]string, 0, len(lines))
	for _, l := range lines {
		all = append(all, l.Vers)
		if l.Yanked {
			vi.YankedVersions[l.Vers] = struct{}{}
		}
	}
	sort.Slice(all, func(i, j int) bool { return semverLess(all[j], all[i]) })
	vi.AllVersions = all

	for _, l := range lines {
		if l.Yanked || isRustPrerelease(l.Vers) {
			continue
		}
		if vi.LatestStable == "" || semverLess(vi.LatestStable, l.Vers) {
			vi.LatestStable = l.Vers
		}
	}
	for _, l := range lines {
		if isRustPrerelease(l.Vers) && (vi.LatestPrerelease == "" || semverLess(vi.LatestPrerelease, l.Vers)) {
			vi.LatestPrerelease = l.Vers
		}
	}
	return vi, nil
}

// sparseIndexURL implements the crates.io sparse index's directory
// layout: 1- and 2-character names live directly under 1/ or 2/; 3-char
// names are nested under 3/{first-char}/; everything else under
// {first two}/{next two}/.
func sparseIndexURL(name string) string {
	const base = "https://index.crates.io"
	lower := strings.ToLower(name)
	switch len(lower) {
	case 1:
		return fmt.Sprintf("%s/1/%s", base, name)
	case 2:
		return fmt.Sprintf("%s/2/%s", base, name)
	case 3:
		return fmt.Sprintf("%s/3/%c/%s", base, lower[0], name)
	default:
		return fmt.Sprintf("%s/%s/%s/%s", base, lower[:2], lower[2:4], name)
	}
}

func isRustPrerelease(v string) bool {
	return strings.Contains(v, "-")
}
