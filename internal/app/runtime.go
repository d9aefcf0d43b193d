package app

import (
	"os"
	"sync/atomic"
)

// TestModeEnv, when set to "1", makes the binaries exit before touching
// PostgreSQL or Redis.
const TestModeEnv = "INVENTARIO_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the environment and returns the new value.
func RefreshTestMode() bool {
	on := os.Getenv(TestModeEnv) == "1"
	testMode.Store(&on)
	return on
}
