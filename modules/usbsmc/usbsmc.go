package usbsmc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/gousb"

	"github.com/oblq/syspower/modules/smc"
)

// A USB bridge forwards controller calls over a vendor specific bulk
// interface, #0 alt #0 of the active config.
//
// request:  [selector] [param frame, structured calls only]
// response: [status]   [param frame, structured calls only]
//
// status 0x00 is success, anything else is a failure.

const (
	inEndpointNum  = 1
	outEndpointNum = 2

	statusOK byte = 0x00
)

var ErrBridgeStatus = errors.New("usbsmc: bridge reported failure")

// Conn is an open USB bridge.
type Conn struct {
	ctx      *gousb.Context
	dev      *gousb.Device
	intf     *gousb.Interface
	intfDone func()

	inEndpoint  *gousb.InEndpoint
	outEndpoint *gousb.OutEndpoint

	mutex sync.Mutex
}

// Open opens the first bridge matching vid/pid.
func Open(vid, pid gousb.ID) (c *Conn, err error) {
	c = &Conn{}

	c.ctx = gousb.NewContext()

	c.dev, err = c.ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil || c.dev == nil {
		c.ShutDown()
		return nil, fmt.Errorf("could not open a device %s:%s: %v", vid, pid, err)
	}

	if err = c.dev.SetAutoDetach(true); err != nil {
		c.ShutDown()
		return nil, fmt.Errorf("unable to set autodetach on device: %v", err)
	}

	c.intf, c.intfDone, err = c.dev.DefaultInterface()
	if err != nil {
		c.ShutDown()
		return nil, fmt.Errorf("%s.DefaultInterface(): %v", c.dev, err)
	}

	c.inEndpoint, err = c.intf.InEndpoint(inEndpointNum)
	if err != nil {
		c.ShutDown()
		return nil, fmt.Errorf("%s.InEndpoint(%d): %v", c.intf, inEndpointNum, err)
	}

	c.outEndpoint, err = c.intf.OutEndpoint(outEndpointNum)
	if err != nil {
		c.ShutDown()
		return nil, fmt.Errorf("%s.OutEndpoint(%d): %v", c.intf, outEndpointNum, err)
	}

	return c, nil
}

func (c *Conn) cmd(req []byte, payloadSize int) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	numBytes, err := c.outEndpoint.Write(req)
	if numBytes != len(req) {
		return nil, fmt.Errorf("%s.Write(): only %d bytes written, returned error is %v", c.outEndpoint, numBytes, err)
	}

	// readBytes might be smaller than the buffer size.
	buf := make([]byte, 1+payloadSize)
	readBytes, err := c.inEndpoint.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read error: %v", err)
	}

	return decodeResponse(buf[:readBytes], payloadSize)
}

// smc.Conn interface implementation ----------------------------------------------------------------------------------

func (c *Conn) CallMethod(selector uint32) error {
	req, err := encodeRequest(selector, nil)
	if err != nil {
		return err
	}
	_, err = c.cmd(req, 0)
	return err
}

func (c *Conn) CallStructMethod(selector uint32, in []byte) ([]byte, error) {
	req, err := encodeRequest(selector, in)
	if err != nil {
		return nil, err
	}
	return c.cmd(req, smc.ParamSize)
}

// ---------------------------------------------------------------------------------------------------------------------

func encodeRequest(selector uint32, payload []byte) ([]byte, error) {
	if selector > 0xff {
		return nil, fmt.Errorf("selector %d does not fit the bridge protocol", selector)
	}
	req := make([]byte, 1+len(payload))
	req[0] = byte(selector)
	copy(req[1:], payload)
	return req, nil
}

func decodeResponse(resp []byte, payloadSize int) ([]byte, error) {
	if len(resp) == 0 {
		return nil, fmt.Errorf("endpoint returned 0 bytes of data")
	}
	if resp[0] != statusOK {
		return nil, fmt.Errorf("%w: status %#02x", ErrBridgeStatus, resp[0])
	}
	if len(resp)-1 < payloadSize {
		return nil, fmt.Errorf("short response: %d bytes, want %d", len(resp)-1, payloadSize)
	}
	return resp[1 : 1+payloadSize], nil
}

// ShutDown releases the interface, the device and the USB context.
func (c *Conn) ShutDown() {
	if c.intfDone != nil {
		c.intfDone()
		c.intfDone = nil
	}
	if c.dev != nil {
		c.dev.Close()
		c.dev = nil
	}
	if c.ctx != nil {
		c.ctx.Close()
		c.ctx = nil
	}
}
