package smc

import (
	"encoding/binary"
	"fmt"
)

// ParamSize is the size of the parameter frame exchanged with the
// controller on every structured call.
const ParamSize = 80

// Controller method selectors.
const (
	selectorOpen        uint32 = 0 // user client open
	selectorClose       uint32 = 1 // user client close
	selectorHandleEvent uint32 = 2 // structured call carrying a Param
)

// SelectorOpen, SelectorClose and SelectorCall are exported for transports
// that need to tell the calls apart.
const (
	SelectorOpen  = selectorOpen
	SelectorClose = selectorClose
	SelectorCall  = selectorHandleEvent
)

// Op is the operation carried in a structured call.
type Op uint8

const (
	OpReadKey    Op = 5
	OpGetKeyInfo Op = 9
)

func (op Op) String() string {
	switch op {
	case OpReadKey:
		return "read-key"
	case OpGetKeyInfo:
		return "get-key-info"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// ResultKeyNotFound is the result code the controller reports for an
// unknown key.
const ResultKeyNotFound uint8 = 0x84

// KeyInfo is the metadata the controller reports for a key.
// Size == 0 means the key does not exist or could not be resolved.
type KeyInfo struct {
	Size       uint32
	Type       DataType
	Attributes uint8
}

// Param is the frame sent to and received from the controller.
//
// Layout, integers in host (little endian) order:
//  0  key            u32
//  4  version        6 bytes, unused
//  12 power limits   16 bytes, unused
//  28 keyInfo.size   u32
//  32 keyInfo.type   u32
//  36 keyInfo.attr   u8
//  40 result         u8
//  41 status         u8
//  42 data8 (op)     u8
//  44 data32         u32
//  48 bytes          [32]u8
type Param struct {
	Key     Key
	KeyInfo KeyInfo
	Result  uint8
	Status  uint8
	Op      Op
	Data32  uint32
	Bytes   [32]byte
}

func (p *Param) MarshalBinary() ([]byte, error) {
	b := make([]byte, ParamSize)
	binary.LittleEndian.PutUint32(b[0:4], uint32(p.Key))
	binary.LittleEndian.PutUint32(b[28:32], p.KeyInfo.Size)
	binary.LittleEndian.PutUint32(b[32:36], uint32(p.KeyInfo.Type))
	b[36] = p.KeyInfo.Attributes
	b[40] = p.Result
	b[41] = p.Status
	b[42] = byte(p.Op)
	binary.LittleEndian.PutUint32(b[44:48], p.Data32)
	copy(b[48:80], p.Bytes[:])
	return b, nil
}

func (p *Param) UnmarshalBinary(b []byte) error {
	if len(b) < ParamSize {
		return fmt.Errorf("param frame too short: %d bytes, want %d", len(b), ParamSize)
	}
	p.Key = Key(binary.LittleEndian.Uint32(b[0:4]))
	p.KeyInfo.Size = binary.LittleEndian.Uint32(b[28:32])
	p.KeyInfo.Type = DataType(binary.LittleEndian.Uint32(b[32:36]))
	p.KeyInfo.Attributes = b[36]
	p.Result = b[40]
	p.Status = b[41]
	p.Op = Op(b[42])
	p.Data32 = binary.LittleEndian.Uint32(b[44:48])
	copy(p.Bytes[:], b[48:80])
	return nil
}

// Value returns the meaningful prefix of Bytes for a key of the given size.
func (p *Param) Value(size uint32) []byte {
	if size > uint32(len(p.Bytes)) {
		size = uint32(len(p.Bytes))
	}
	return p.Bytes[:size]
}
