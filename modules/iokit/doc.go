// Package iokit opens the host's system management controller through IOKit
// and exposes it as an smc.Conn. It is only functional on darwin with cgo,
// elsewhere Open returns ErrUnsupported.
package iokit

import "errors"

// ServiceName is the IOKit service matched by default.
const ServiceName = "AppleSMC"

var ErrUnsupported = errors.New("iokit: not supported on this platform")
