package device

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeState(t *testing.T) {
	packet := []byte{0x73, 1, 2, 3, 0x40, 192, 168, 1, 42, 24, 1, 0, 1, 6}

	state, err := DecodeState(packet)
	require.NoError(t, err)

	require.Equal(t, byte(1), state.VersionMajor)
	require.Equal(t, byte(2), state.VersionMinor)
	require.Equal(t, byte(3), state.VersionPatch)
	require.Equal(t, "1.2.3", state.VersionString())
	require.Equal(t, byte(0x40), state.FeatureFlags)
	require.True(t, state.HasFeature(FeatureOta))
	require.True(t, net.IPv4(192, 168, 1, 42).Equal(state.IPAddress))
	require.Equal(t, byte(24), state.IPPrefix)
	require.True(t, state.ServerConnected)
	require.False(t, state.Active)
	require.True(t, state.KeepAwake)
	require.Equal(t, byte(6), state.ModelID)

	name, ok := state.ModelName()
	require.True(t, ok)
	require.Equal(t, "xiao-esp32s3", name)

	require.True(t, state.HasOtaSupport())
}

func TestDecodeStateRejectsShortOrMisTagged(t *testing.T) {
	_, err := DecodeState([]byte{0x73, 1, 2})
	require.Error(t, err)

	packet := []byte{0x00, 1, 2, 3, 0x40, 192, 168, 1, 42, 24, 1, 0, 1, 6}
	_, err = DecodeState(packet)
	require.Error(t, err)
}

func TestHasOtaSupportFalseWithoutFlag(t *testing.T) {
	state := State{FeatureFlags: 0x01}
	require.False(t, state.HasOtaSupport())
}
