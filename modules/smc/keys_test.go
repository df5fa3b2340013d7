package smc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{in: "PSTR", want: KeyTotalPower},
		{in: "PCPC", want: KeyCPUPower},
		{in: "PG1R", want: KeyGPU1Power},
		{in: "TC0P", want: KeyCPUProximityTemp},
		{in: "ZZZZ", want: Key(0x5a5a5a5a)},
		{in: "PST", wantErr: true},
		{in: "PSTRX", wantErr: true},
		{in: "PS\x00R", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.in, got.String())
		})
	}
}

func TestKeyTotalPowerValue(t *testing.T) {
	require.Equal(t, Key(0x50535452), KeyTotalPower)
	require.Equal(t, "system total rail power (W)", KeyTotalPower.Description())
	require.Empty(t, Key(0x5a5a5a5a).Description())
}

func TestCatalogKeys(t *testing.T) {
	keys := CatalogKeys()
	require.Len(t, keys, len(Catalog))
	for i := 1; i < len(keys); i++ {
		require.Less(t, keys[i-1].String(), keys[i].String())
	}
}
