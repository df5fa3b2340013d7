package smc

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/stretchr/testify/mock"
)

var errIOKit = errors.New("(iokit/common) not permitted")

type mockConn struct {
	mock.Mock
}

func (m *mockConn) CallMethod(selector uint32) error {
	args := m.Called(selector)
	return args.Error(0)
}

func (m *mockConn) CallStructMethod(selector uint32, in []byte) ([]byte, error) {
	args := m.Called(selector, in)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

// sessionOK lets open and close succeed any number of times.
func (m *mockConn) sessionOK() *mockConn {
	m.On("CallMethod", selectorOpen).Return(nil)
	m.On("CallMethod", selectorClose).Return(nil)
	return m
}

func withOp(op Op) interface{} {
	return mock.MatchedBy(func(in []byte) bool {
		var p Param
		return p.UnmarshalBinary(in) == nil && p.Op == op
	})
}

func frame(p Param) []byte {
	b, _ := p.MarshalBinary()
	return b
}

func infoFrame(key Key, size uint32, t DataType) []byte {
	return frame(Param{Key: key, KeyInfo: KeyInfo{Size: size, Type: t}})
}

func floatFrame(key Key, v float32) []byte {
	p := Param{Key: key}
	binary.LittleEndian.PutUint32(p.Bytes[:4], math.Float32bits(v))
	return frame(p)
}

func int16Frame(key Key, v int16) []byte {
	p := Param{Key: key}
	binary.BigEndian.PutUint16(p.Bytes[:2], uint16(v))
	return frame(p)
}
