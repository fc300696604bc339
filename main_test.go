package main

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ListenFailureReturnsError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	t.Setenv("HTTP_ADDR", taken.Addr().String())
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("HEARTBEAT_SPEC", "")

	err = run()
	require.Error(t, err)
	assert.ErrorContains(t, err, "address already in use")
}
