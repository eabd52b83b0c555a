package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIsComparesByKind(t *testing.T) {
	err := DeviceBusy("interface claimed by another process")
	require.True(t, errors.Is(err, KindErr(ErrDeviceBusy)))
	require.False(t, errors.Is(err, KindErr(ErrDeviceNotFound)))
}

func TestTransferFailedUnwraps(t *testing.T) {
	cause := errors.New("libusb: timeout")
	err := TransferFailed(cause)
	require.ErrorIs(t, err, cause)
}
