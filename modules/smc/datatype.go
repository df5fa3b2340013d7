package smc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataType is the four character type code the controller reports for a key.
type DataType uint32

const (
	TypeFlt  DataType = 'f'<<24 | 'l'<<16 | 't'<<8 | ' ' // IEEE-754 float32
	TypeSP78 DataType = 's'<<24 | 'p'<<16 | '7'<<8 | '8' // fixed point, 8 fraction bits
	TypeSP87 DataType = 's'<<24 | 'p'<<16 | '8'<<8 | '7' // fixed point, 7 fraction bits
	TypeSPA5 DataType = 's'<<24 | 'p'<<16 | 'a'<<8 | '5' // fixed point, 5 fraction bits
)

type decoder struct {
	size   int
	decode func(b []byte) float64
}

func fixedPoint(fractionBits uint) decoder {
	return decoder{size: 2, decode: func(b []byte) float64 {
		return FromFixedPoint(b, fractionBits)
	}}
}

// decoders is the closed set of encodings this package understands.
// Adding a type only needs a new entry here.
var decoders = map[DataType]decoder{
	TypeFlt: {size: 4, decode: func(b []byte) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}},
	TypeSP78: fixedPoint(8),
	TypeSP87: fixedPoint(7),
	TypeSPA5: fixedPoint(5),
}

// ParseDataType packs a four character type code, eg. "sp78" or "flt ".
func ParseDataType(s string) (DataType, error) {
	v, err := fourCC(s)
	if err != nil {
		return 0, fmt.Errorf("invalid data type %q: %v", s, err)
	}
	return DataType(v), nil
}

func (t DataType) String() string {
	return fourCCString(uint32(t))
}

// Decodable reports whether values of this type can be decoded.
func (t DataType) Decodable() bool {
	_, ok := decoders[t]
	return ok
}

// Decode interprets raw according to t.
func (t DataType) Decode(raw []byte) (float64, error) {
	d, ok := decoders[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, t)
	}
	if len(raw) < d.size {
		return 0, fmt.Errorf("%w: %q needs %d bytes, got %d", ErrShortValue, t, d.size, len(raw))
	}
	return d.decode(raw), nil
}

// Decode is the lenient form of DataType.Decode: any tag it cannot decode
// yields 0.
func Decode(t DataType, raw []byte) float64 {
	v, _ := t.Decode(raw)
	return v
}
