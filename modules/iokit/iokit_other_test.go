//go:build !darwin || !cgo

package iokit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oblq/syspower/modules/smc"
)

func TestOpenUnsupported(t *testing.T) {
	c, err := Open(ServiceName)
	require.Nil(t, c)
	require.True(t, errors.Is(err, ErrUnsupported))

	var conn smc.Conn = &Conn{}
	require.Error(t, conn.CallMethod(smc.SelectorOpen))
}
