// Package testing switches the application into test mode for any test binary importing it.
package testing

import (
	"os"
	stdtesting "testing"

	"github.com/taskeri/taskeri/internal/app"
)

func init() {
	enableTestMode()
}

func enableTestMode() {
	if os.Getenv(app.TestModeEnv) != "1" {
		_ = os.Setenv(app.TestModeEnv, "1")
	}
	app.RefreshTestMode()
}

// TestMain lets packages delegate their test entry point here.
func TestMain(m *stdtesting.M) {
	enableTestMode()
	os.Exit(m.Run())
}
