package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := NewConfig()
	cfg.SSID = "my-network"
	cfg.Password = "hunter2"
	cfg.Server = "192.168.1.10:8080"
	cfg.ScreenName = "office-desk"
	return cfg
}

func requireConfigErrorKind(t *testing.T, err error, kind ConfigErrorKind) {
	t.Helper()
	require.Error(t, err)
	ce, ok := AsConfigError(err)
	require.True(t, ok, "expected a *ConfigError, got %v", err)
	require.Equal(t, kind, ce.ConfigKind)
}

func TestValidateEmptyRequiredField(t *testing.T) {
	cfg := validConfig()
	cfg.SSID = ""
	requireConfigErrorKind(t, cfg.Validate(), FieldEmpty)
}

func TestValidateOverLengthField(t *testing.T) {
	cfg := validConfig()
	long := make([]byte, MaxLenSSID+1)
	for i := range long {
		long[i] = 'a'
	}
	cfg.SSID = string(long)
	requireConfigErrorKind(t, cfg.Validate(), FieldTooLong)
}

func TestValidateScreenWidthOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.ScreenWidth = 0
	requireConfigErrorKind(t, cfg.Validate(), FieldOutOfRange)

	cfg = validConfig()
	cfg.ScreenWidth = 33000
	requireConfigErrorKind(t, cfg.Validate(), FieldOutOfRange)
}

func TestValidateInvalidEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Server = "not-an-endpoint"
	requireConfigErrorKind(t, cfg.Validate(), InvalidEndpoint)
}

func TestValidateInvalidIPAddress(t *testing.T) {
	cfg := validConfig()
	addr := "10.0.0.1"
	cfg.IPAddr = &addr
	requireConfigErrorKind(t, cfg.Validate(), InvalidIPAddress)
}

func TestValidateInvalidIPCIDRPrefix(t *testing.T) {
	cfg := validConfig()
	addr := "10.0.0.1/abc"
	cfg.IPAddr = &addr
	requireConfigErrorKind(t, cfg.Validate(), InvalidIPCIDRPrefix)
}

func TestValidateValidConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}
