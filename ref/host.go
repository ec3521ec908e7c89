package ref

import (
	"github.com/wippyai/hostref"
)

// RequiredVersion is the interface revision requested by NewEnv.
const RequiredVersion = hostref.Version1_6

var host hostref.VM

// RegisterHost stores the process-wide host runtime. Call it exactly once at
// start up, before any goroutine calls NewEnv. The value is not synchronized:
// it is written once and only read afterwards.
func RegisterHost(vm hostref.VM) {
	if host != nil {
		Logger().Warn("host runtime registered more than once")
	}
	host = vm
}

// Host returns the registered host runtime, or nil.
func Host() hostref.VM {
	return host
}
