package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/depls-dev/depls"
	"github.com/depls-dev/depls/internal/backend"
	"github.com/depls-dev/depls/internal/classify"
)

// runScan implements the scan subcommand: parse one manifest, fetch
// version and vulnerability data synchronously, and print a report.
// Returns the process exit code.
func runScan(ctx context.Context, conf Config) int {
	if conf.File == "" {
		return fatalf("scan: -file is required")
	}
	abs, err := filepath.Abs(conf.File)
	if err != nil {
		return fatalf("scan: %v", err)
	}
	uri := "file://" + filepath.ToSlash(abs)
	if _, ok := classify.Ecosystem(uri); !ok {
		return fatalf("scan: unsupported manifest file: %s", conf.File)
	}
	text, err := os.ReadFile(abs)
	if err != nil {
		return fatalf("scan: %v", err)
	}

	cfg := backend.DefaultConfig()
	cfg.Security.MinSeverity = conf.MinSeverity
	b, err := backend.New(ctx, cfg, nil)
	if err != nil {
		return fatalf("scan: %v", err)
	}
	defer b.Close()

	b.Scan(ctx, uri, string(text))
	rep, ok := b.GenerateReport(ctx, uri)
	if !ok {
		return fatalf("scan: no dependencies found in %s", conf.File)
	}
	rep.File = conf.File

	switch conf.Output {
	case "json":
		raw, err := rep.JSON()
		if err != nil {
			return fatalf("scan: %v", err)
		}
		fmt.Println(string(raw))
	case "markdown":
		fmt.Print(rep.Markdown())
	case "summary":
		fmt.Print(rep.Summary())
	default:
		return fatalf("scan: unknown output format: %s", conf.Output)
	}

	if conf.FailOnVulns && rep.VulnerableCount(minSeverity(conf.MinSeverity)) > 0 {
		return 1
	}
	return 0
}

func minSeverity(s string) depls.Severity {
	switch s {
	case "medium":
		return depls.SeverityMedium
	case "high":
		return depls.SeverityHigh
	case "critical":
		return depls.SeverityCritical
	default:
		return depls.SeverityLow
	}
}
