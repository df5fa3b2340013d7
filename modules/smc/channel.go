package smc

import (
	"fmt"

	"go.uber.org/zap"
)

// Conn is the controller connection obtained from the host.
//
// CallMethod issues a scalar call without arguments (session open/close),
// CallStructMethod issues a structured call with an input frame and returns
// the output frame. Any non-nil error is a failure, no further code is
// interpreted.
type Conn interface {
	CallMethod(selector uint32) error
	CallStructMethod(selector uint32, in []byte) ([]byte, error)
}

// Channel brackets every transaction in a session open/close pair.
//
// A Channel keeps its own validity flag over the shared Conn: once an open
// or close fails the channel is invalid for good and every later Transact
// fails without touching the controller. A nil Conn starts invalid.
//
// Channel is not safe for concurrent use, and callers sharing one Conn
// between channels must serialize access themselves.
type Channel struct {
	conn  Conn
	valid bool
}

func NewChannel(conn Conn) *Channel {
	return &Channel{conn: conn, valid: conn != nil}
}

// Valid reports whether the channel may still issue transactions.
func (c *Channel) Valid() bool {
	return c.valid
}

// Transact runs op for in.Key and returns the controller's output frame.
// A failing close invalidates the channel but does not discard the result
// of a call that already succeeded.
func (c *Channel) Transact(op Op, in Param) (*Param, error) {
	if !c.valid {
		return nil, ErrHandleInvalid
	}

	if err := c.conn.CallMethod(selectorOpen); err != nil {
		c.invalidate("open", err)
		return nil, fmt.Errorf("%w: open: %v", ErrHandleInvalid, err)
	}

	in.Op = op
	req, _ := in.MarshalBinary()

	var out Param
	resp, callErr := c.conn.CallStructMethod(selectorHandleEvent, req)
	if callErr == nil {
		callErr = out.UnmarshalBinary(resp)
	}

	if err := c.conn.CallMethod(selectorClose); err != nil {
		c.invalidate("close", err)
	}

	if callErr != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransactionFailed, op, in.Key, callErr)
	}
	return &out, nil
}

func (c *Channel) invalidate(step string, err error) {
	c.valid = false
	Logger().Warn("controller session failed, handle invalidated",
		zap.String("step", step),
		zap.Error(err))
}
