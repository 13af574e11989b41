// Package guard forces test mode for any test binary that imports it, so the
// service and worker entrypoints never dial Redis, Postgres or the backend.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MRPDASH_TEST_MODE") == "" {
			_ = os.Setenv("MRPDASH_TEST_MODE", "1")
		}
	})
}
