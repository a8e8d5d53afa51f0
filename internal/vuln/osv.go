package vuln

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quay/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/depls-dev/depls"
)

// DefaultBaseURL is OSV.dev's public API.
const DefaultBaseURL = "https://api.osv.dev"

// NewHTTPClient builds the *http.Client the OSV adapter uses, separate
// from the registries' shared client because the vulnerability service's
// total timeout is longer (30s vs 10s) since its batches are larger.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// OSVAdapter queries OSV.dev's batch endpoint, then hydrates each match
// with a detail fetch to get severity and deprecation info.
type OSVAdapter struct {
	Client  *http.Client
	BaseURL string
}

// NewOSVAdapter returns an adapter pointed at DefaultBaseURL using
// client, or NewHTTPClient()'s default if client is nil.
func NewOSVAdapter(client *http.Client) *OSVAdapter {
	if client == nil {
		client = NewHTTPClient()
	}
	return &OSVAdapter{Client: client, BaseURL: DefaultBaseURL}
}

type osvQueryBatchRequest struct {
	Queries []osvQuery `json:"queries"`
}

type osvQuery struct {
	Package osvPackage `json:"package"`
	Version string     `json:"version,omitempty"`
}

type osvPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type osvQueryBatchResponse struct {
	Results []struct {
		Vulns []struct {
			ID string `json:"id"`
		} `json:"vulns"`
	} `json:"results"`
}

type osvVulnDetail struct {
	ID        string   `json:"id"`
	Aliases   []string `json:"aliases"`
	Withdrawn string   `json:"withdrawn"`
	Severity  []struct {
		Type  string `json:"type"`
		Score string `json:"score"`
	} `json:"severity"`
	References []osvReference `json:"references"`
}

// QueryBatch implements Service. It issues one POST to /v1/querybatch to
// discover matching vulnerability IDs per query, then fans out a GET
// /v1/vulns/{id} per unique ID (bounded by an errgroup) to
// hydrate severity and aliases, and finally reassembles results in the
// caller's original order.
func (a *OSVAdapter) QueryBatch(ctx context.Context, keys []QueryKey) ([]Result, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	req := osvQueryBatchRequest{Queries: make([]osvQuery, len(keys))}
	for i, k := range keys {
		req.Queries[i] = osvQuery{
			Package: osvPackage{Name: k.Name, Ecosystem: k.VulnEcosystem},
			Version: k.Version,
		}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("vuln: marshal querybatch request: %w", err)
	}

	var batch osvQueryBatchResponse
	if err := a.postJSON(ctx, "/v1/querybatch", body, &batch); err != nil {
		return nil, fmt.Errorf("vuln: querybatch: %w", err)
	}
	if len(batch.Results) != len(keys) {
		return nil, fmt.Errorf("vuln: querybatch returned %d results for %d queries", len(batch.Results), len(keys))
	}

	ids := map[string]struct{}{}
	for _, r := range batch.Results {
		for _, v := range r.Vulns {
			ids[v.ID] = struct{}{}
		}
	}

	details := make(map[string]osvVulnDetail, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	resultsCh := make(chan osvVulnDetail, len(ids))
	for id := range ids {
		id := id
		g.Go(func() error {
			d, err := a.fetchDetail(gctx, id)
			if err != nil {
				zlog.Warn(gctx).Err(err).Str("id", id).Msg("osv detail fetch failed, skipping finding")
				return nil
			}
			resultsCh <- d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultsCh)
	for d := range resultsCh {
		details[d.ID] = d
	}

	out := make([]Result, len(keys))
	for i, r := range batch.Results {
		var res Result
		for _, v := range r.Vulns {
			d, ok := details[v.ID]
			if !ok {
				continue
			}
			if d.Withdrawn != "" {
				continue
			}
			sev, scoreOK := depls.SeverityUnknown, false
			for _, s := range d.Severity {
				if score, err := parseCVSSScore(s.Score); err == nil {
					sev, scoreOK = severityFromScore(score, true), true
					break
				}
			}
			if !scoreOK {
				sev = severityFromScore(0, false)
			}
			res.Vulnerabilities = append(res.Vulnerabilities, depls.Vulnerability{
				ID:          preferredAlias(d.ID, d.Aliases),
				Severity:    sev,
				Description: "",
				URL:         preferredURL(d.References),
			})
		}
		out[i] = res
	}
	return out, nil
}

// parseCVSSScore extracts a numeric base score when OSV's severity.score
// field is a bare number (e.g. "7.5"). A full CVSS vector string (e.g.
// "CVSS:3.1/AV:N/...") is treated as unparseable here and falls back to
// the Medium default rather than computing a score from the vector's
// metrics.
func parseCVSSScore(score string) (float64, error) {
	var f float64
	if _, err := fmt.Sscanf(score, "%g", &f); err != nil {
		return 0, fmt.Errorf("vuln: unparseable CVSS score %q", score)
	}
	if strings.HasPrefix(score, "CVSS:") {
		return 0, fmt.Errorf("vuln: %q is a vector, not a bare score", score)
	}
	return f, nil
}

func (a *OSVAdapter) fetchDetail(ctx context.Context, id string) (osvVulnDetail, error) {
	var d osvVulnDetail
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/v1/vulns/"+id, nil)
	if err != nil {
		return d, err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return d, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return d, fmt.Errorf("osv: vuln detail %s: status %d", id, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return d, err
	}
	return d, nil
}

func (a *OSVAdapter) postJSON(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
