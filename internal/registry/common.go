package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/depls-dev/depls"
)

// getJSON issues a GET to url and decodes the JSON body into out. Any
// non-2xx status or transport failure is returned as a *depls.Error, per
// the registry adapter contract.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &depls.Error{Op: "registry.getJSON", Kind: depls.ErrInvalid, Inner: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &depls.Error{Op: "registry.getJSON", Kind: depls.ErrTransport, Inner: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &depls.Error{
			Op:      "registry.getJSON",
			Kind:    depls.ErrMiss,
			Message: fmt.Sprintf("%s: status %d", url, resp.StatusCode),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &depls.Error{Op: "registry.getJSON", Kind: depls.ErrTransport, Inner: err}
	}
	return nil
}

