// Package testhelpers wires test logging: it sets zerolog's global
// level exactly once via sync.OnceFunc and hands back a zlog.Test-wired
// context per call, so every package's tests get readable output without
// repeating the level-setup boilerplate.
package testhelpers

import (
	"context"
	"sync"
	"testing"

	"github.com/quay/zlog"
	"github.com/rs/zerolog"
)

var setup = sync.OnceFunc(func() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
})

// Context returns a context.Context wired to t's logging, suitable as the
// root context for the code under test. The test log level is configured
// globally exactly once per process.
func Context(t testing.TB) context.Context {
	t.Helper()
	setup()
	return zlog.Test(context.Background(), t)
}
