// Package vuln adapts a remote vulnerability database to the batched
// query contract the pipeline needs, and owns CVSS-to-Severity
// classification.
package vuln

import (
	"context"

	"github.com/depls-dev/depls"
)

// QueryKey identifies one {ecosystem, package, version} triple to ask the
// vulnerability service about. It mirrors depls.VulnerabilityQueryKey but
// additionally carries the ecosystem name the remote service expects,
// since the caller (internal/pipeline) already knows it and the adapter
// should not need to re-derive it.
type QueryKey struct {
	depls.VulnerabilityQueryKey
	VulnEcosystem string // the service's canonical ecosystem name
}

// Result is what a batched query returns for one QueryKey, in the same
// order as the request.
type Result struct {
	Vulnerabilities []depls.Vulnerability
	Deprecated      bool
}

// Service queries a remote vulnerability database in batches.
//
//go:generate mockgen -destination mock_vuln/service.go github.com/depls-dev/depls/internal/vuln Service
type Service interface {
	QueryBatch(ctx context.Context, keys []QueryKey) ([]Result, error)
}
