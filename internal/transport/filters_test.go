package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusIDMatches(t *testing.T) {
	require.True(t, BusIDMatches("3", "03"))
	require.True(t, BusIDMatches("usb1", "usb1"))
	require.False(t, BusIDMatches("3", "4"))
}

func TestFilterMatches(t *testing.T) {
	vid := uint16(0x0d0a)
	pid := uint16(0xc0de)
	bus := "3"
	f := Filter{VID: &vid, PID: &pid, BusID: &bus}

	require.True(t, f.matches(0x0d0a, 0xc0de, "03", 5))
	require.False(t, f.matches(0x0d0a, 0xc0de, "4", 5))
	require.False(t, f.matches(0x1234, 0xc0de, "03", 5))
}

func TestFilterAppliesDefaults(t *testing.T) {
	f := Filter{}
	require.Equal(t, uint16(DefaultVID), f.vid())
	require.Equal(t, uint16(DefaultPid), f.pid())
}
