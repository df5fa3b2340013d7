package smc

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataTypeString(t *testing.T) {
	require.Equal(t, "flt ", TypeFlt.String())
	require.Equal(t, "sp78", TypeSP78.String())
	require.Equal(t, "sp87", TypeSP87.String())
	require.Equal(t, "spa5", TypeSPA5.String())

	dt, err := ParseDataType("spa5")
	require.NoError(t, err)
	require.Equal(t, TypeSPA5, dt)

	_, err = ParseDataType("flt")
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	flt := make([]byte, 4)
	binary.LittleEndian.PutUint32(flt, math.Float32bits(42.5))

	tests := []struct {
		name string
		tag  DataType
		raw  []byte
		want float64
	}{
		{name: "flt", tag: TypeFlt, raw: flt, want: 42.5},
		{name: "sp78", tag: TypeSP78, raw: []byte{0x01, 0x2c}, want: 300.0 / 256},
		{name: "sp87", tag: TypeSP87, raw: []byte{0x01, 0x2c}, want: 300.0 / 128},
		{name: "spa5", tag: TypeSPA5, raw: []byte{0xff, 0xe0}, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.tag.Decode(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.want, Decode(tt.tag, tt.raw))
			require.True(t, tt.tag.Decodable())
		})
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	raw := make([]byte, 32)

	for i := 0; i < 1000; i++ {
		tag := DataType(rnd.Uint32())
		if _, ok := decoders[tag]; ok {
			continue
		}
		rnd.Read(raw)

		require.NotPanics(t, func() {
			require.Equal(t, 0.0, Decode(tag, raw))
		})
		_, err := tag.Decode(raw)
		require.True(t, errors.Is(err, ErrUnknownEncoding))
		require.False(t, tag.Decodable())
	}
}

func TestDecodeShortValue(t *testing.T) {
	_, err := TypeFlt.Decode([]byte{0x00, 0x00})
	require.True(t, errors.Is(err, ErrShortValue))

	require.NotPanics(t, func() {
		require.Equal(t, 0.0, Decode(TypeSP78, nil))
	})
}
