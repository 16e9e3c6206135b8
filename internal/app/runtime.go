package app

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// TestModeEnv names the variable that disables process startup side effects.
const TestModeEnv = "TASKERI_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(TestModeEnv) == "1")
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads TASKERI_TEST_MODE after environment changes.
func RefreshTestMode() {
	detectTestMode()
}

// SkipStartup logs and reports whether a binary should exit before touching Postgres or Redis.
func SkipStartup(component string) bool {
	if !InTestMode() {
		return false
	}
	slog.Default().Info("test mode detected, skipping startup", slog.String("component", component))
	return true
}
