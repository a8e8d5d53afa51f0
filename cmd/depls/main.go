// Command depls is the dependency-intelligence language server and CLI
// scanner. With no subcommand it speaks LSP over stdio; the "scan"
// subcommand checks one manifest file and prints a vulnerability report.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/crgimenes/goconfig"
	"github.com/quay/zlog"
	"github.com/rs/zerolog"

	"github.com/depls-dev/depls/internal/lspserver"
	"github.com/depls-dev/depls/internal/metrics"
)

// Config is using the goconfig library for simple flag and env var
// parsing. See: https://github.com/crgimenes/goconfig
type Config struct {
	LogLevel    string `cfgDefault:"warn" cfg:"LOG_LEVEL" cfgHelper:"Log levels: debug, info, warn, error, fatal, panic"`
	MetricsAddr string `cfgDefault:"" cfg:"METRICS_ADDR" cfgHelper:"Optional listen address for the Prometheus /metrics endpoint"`

	// scan subcommand flags.
	File        string `cfgDefault:"" cfg:"FILE" cfgHelper:"Manifest file to scan"`
	Output      string `cfgDefault:"json" cfg:"OUTPUT" cfgHelper:"Report format: json, markdown or summary"`
	MinSeverity string `cfgDefault:"low" cfg:"MIN_SEVERITY" cfgHelper:"Lowest severity that counts toward the exit code: low, medium, high or critical"`
	FailOnVulns bool   `cfgDefault:"true" cfg:"FAIL_ON_VULNS" cfgHelper:"Exit non-zero when vulnerabilities at or above min-severity are found"`
}

func main() {
	ctx := context.Background()

	scanMode := len(os.Args) > 1 && os.Args[1] == "scan"
	if scanMode {
		os.Args = append(os.Args[:1], os.Args[2:]...)
	}

	// Logs go to stderr unconditionally: in LSP mode stdout is the
	// protocol channel, in scan mode it is the report.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		With().Timestamp().
		Logger()

	conf := Config{}
	if err := goconfig.Parse(&conf); err != nil {
		log.Fatal().Msgf("failed to parse config: %v", err)
	}
	log = log.Level(logLevel(conf))
	zlog.Set(&log)

	if conf.MetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(conf.MetricsAddr, metrics.Handler()); err != nil {
				zlog.Warn(ctx).Err(err).Msg("metrics listener failed")
			}
		}()
	}

	if scanMode {
		os.Exit(runScan(ctx, conf))
	}

	if err := lspserver.Serve(ctx, stdio{}); err != nil {
		log.Fatal().Msgf("server error: %v", err)
	}
}

func logLevel(conf Config) zerolog.Level {
	if l, err := zerolog.ParseLevel(strings.ToLower(conf.LogLevel)); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

// stdio adapts the process's stdin/stdout pair to the io.ReadWriteCloser
// the jsonrpc2 stream wants.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

func fatalf(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return 2
}
