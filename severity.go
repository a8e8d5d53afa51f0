package depls

import (
	"bytes"
	"database/sql/driver"
	"fmt"
)

// Severity is the normalized severity of a vulnerability finding.
type Severity uint

const (
	SeverityUnknown Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityName = [...]string{
	SeverityUnknown:  "unknown",
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if int(s) >= len(severityName) {
		return "unknown"
	}
	return severityName[s]
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	for i, n := range severityName {
		if bytes.Equal(b, []byte(n)) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("depls: unknown severity %q", string(b))
}

func (s Severity) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *Severity) Scan(v any) error {
	switch t := v.(type) {
	case []byte:
		return s.UnmarshalText(t)
	case string:
		return s.UnmarshalText([]byte(t))
	case int64:
		if t < 0 || int(t) >= len(severityName) {
			return fmt.Errorf("depls: unable to scan Severity from enum %d", t)
		}
		*s = Severity(t)
		return nil
	default:
		return fmt.Errorf("depls: unable to scan Severity from type %T", v)
	}
}

// SeverityFromCVSS buckets a numeric CVSS score into a Severity, per the
// thresholds: <4.0 Low, <7.0 Medium, <9.0 High, >=9.0 Critical. A score
// outside [0, 10] or a vector string that could not be reduced to a score
// should be passed as ok=false, yielding the documented Medium fallback.
func SeverityFromCVSS(score float64, ok bool) Severity {
	switch {
	case !ok:
		return SeverityMedium
	case score >= 9.0:
		return SeverityCritical
	case score >= 7.0:
		return SeverityHigh
	case score >= 4.0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Vulnerability is one security finding against a specific pinned version.
type Vulnerability struct {
	ID          string
	Severity    Severity
	Description string
	URL         string // optional
}
