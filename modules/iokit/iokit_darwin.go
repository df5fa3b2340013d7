//go:build darwin && cgo

package iokit

/*
#cgo LDFLAGS: -framework IOKit -framework CoreFoundation
#include <stdlib.h>
#include <mach/mach.h>
#include <IOKit/IOKitLib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/oblq/syspower/modules/smc"
)

// Conn is an open IOKit user client connection.
type Conn struct {
	connect C.io_connect_t
}

// Open matches service (usually ServiceName) and opens a user client on it.
func Open(service string) (*Conn, error) {
	name := C.CString(service)
	defer C.free(unsafe.Pointer(name))

	svc := C.IOServiceGetMatchingService(C.mach_port_t(0), C.CFDictionaryRef(C.IOServiceMatching(name)))
	if svc == 0 {
		return nil, fmt.Errorf("iokit: no %s service", service)
	}
	defer C.IOObjectRelease(svc)

	var connect C.io_connect_t
	if kr := C.IOServiceOpen(svc, C.mach_task_self_, 1, &connect); kr != C.KERN_SUCCESS {
		return nil, fmt.Errorf("iokit: IOServiceOpen(%s): %#x", service, uint32(kr))
	}

	return &Conn{connect: connect}, nil
}

func (c *Conn) CallMethod(selector uint32) error {
	kr := C.IOConnectCallMethod(c.connect, C.uint32_t(selector),
		nil, 0, nil, 0, nil, nil, nil, nil)
	if kr != C.KERN_SUCCESS {
		return fmt.Errorf("iokit: IOConnectCallMethod(%d): %#x", selector, uint32(kr))
	}
	return nil
}

func (c *Conn) CallStructMethod(selector uint32, in []byte) ([]byte, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("iokit: empty input struct")
	}

	out := make([]byte, smc.ParamSize)
	outSize := C.size_t(len(out))

	kr := C.IOConnectCallStructMethod(c.connect, C.uint32_t(selector),
		unsafe.Pointer(&in[0]), C.size_t(len(in)),
		unsafe.Pointer(&out[0]), &outSize)
	if kr != C.KERN_SUCCESS {
		return nil, fmt.Errorf("iokit: IOConnectCallStructMethod(%d): %#x", selector, uint32(kr))
	}
	return out[:outSize], nil
}

// ShutDown closes the user client connection.
func (c *Conn) ShutDown() {
	if c.connect != 0 {
		C.IOServiceClose(c.connect)
		c.connect = 0
	}
}
