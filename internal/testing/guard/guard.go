// Package guard enables test mode when imported for side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("TASKERI_TEST_MODE") == "" {
			_ = os.Setenv("TASKERI_TEST_MODE", "1")
		}
	})
}
