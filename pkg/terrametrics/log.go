package terrametrics

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var pkgLogger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	pkgLogger.Store(&nop)
}

// SetLogger routes the package's debug events to l. Logging is off by default.
func SetLogger(l zerolog.Logger) {
	pkgLogger.Store(&l)
}

func logger() *zerolog.Logger {
	return pkgLogger.Load()
}
