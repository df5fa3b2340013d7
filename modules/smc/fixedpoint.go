package smc

import "encoding/binary"

// FromFixedPoint decodes the first two bytes of b as a big-endian signed
// 16 bit integer scaled by 2^-fractionBits.
//  sp78: SIIIIIIIFFFFFFFF
//  sp87: SIIIIIIIIFFFFFFF
//  spa5: SIIIIIIIIIIFFFFF
func FromFixedPoint(b []byte, fractionBits uint) float64 {
	return float64(int16(binary.BigEndian.Uint16(b))) / float64(uint32(1)<<fractionBits)
}
