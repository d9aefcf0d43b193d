// Package testing switches the binaries into test mode when imported by a
// test, so wiring code can be compiled and exercised without live backends.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"

	"github.com/inventario/inventario/internal/app"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv(app.TestModeEnv, "1")
		if os.Getenv("CSRF_SECRET") == "" {
			_ = os.Setenv("CSRF_SECRET", "test-only-secret")
		}
		app.RefreshTestMode()
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
