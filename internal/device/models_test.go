package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModelName(t *testing.T) {
	name, ok := ModelName(6)
	require.True(t, ok)
	require.Equal(t, "xiao-esp32s3", name)

	_, ok = ModelName(200)
	require.False(t, ok)
}
