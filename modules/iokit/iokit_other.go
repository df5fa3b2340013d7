//go:build !darwin || !cgo

package iokit

type Conn struct{}

func Open(service string) (*Conn, error) {
	return nil, ErrUnsupported
}

func (c *Conn) CallMethod(selector uint32) error {
	return ErrUnsupported
}

func (c *Conn) CallStructMethod(selector uint32, in []byte) ([]byte, error) {
	return nil, ErrUnsupported
}

func (c *Conn) ShutDown() {}
