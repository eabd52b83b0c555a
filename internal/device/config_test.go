package device

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.SSID = "my-network"
	cfg.Password = "hunter2"
	cfg.Server = "192.168.1.10:8080"
	cfg.ScreenName = "office-desk"

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var got Config
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, cfg, got)
}

func TestConfigDefaultOmission(t *testing.T) {
	cfg := NewConfig()
	cfg.SSID = "my-network"
	cfg.Server = "192.168.1.10:8080"
	cfg.ScreenName = "office-desk"

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	require.Contains(t, raw, "ssid")
	require.Contains(t, raw, "server")
	require.Contains(t, raw, "screen_name")
	require.NotContains(t, raw, "screen_width")
	require.NotContains(t, raw, "brightness")
	require.NotContains(t, raw, "password")

	cfg.Brightness = 99
	data, err = json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "brightness")
}

func TestConfigRedaction(t *testing.T) {
	cfg := NewConfig()
	cfg.SSID = "my-network"
	cfg.Server = "192.168.1.10:8080"
	cfg.ScreenName = "desk"
	cfg.Password = "hunter2"

	data, err := json.Marshal(cfg.Redacted())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.NotContains(t, raw, "password")

	// Parsing a payload that omits password entirely must not fail, and
	// must yield the empty-string default.
	var got Config
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "", got.Password)
}

func TestConfigAbsentFieldsTakeDefaults(t *testing.T) {
	payload := []byte(`{"ssid":"n","server":"1.2.3.4:80","screen_name":"s"}`)
	var cfg Config
	require.NoError(t, json.Unmarshal(payload, &cfg))
	require.Equal(t, DefaultScreenWidth, cfg.ScreenWidth)
	require.Equal(t, DefaultScreenHeight, cfg.ScreenHeight)
	require.Equal(t, DefaultBrightness, cfg.Brightness)
	require.Equal(t, DefaultManufacturer, cfg.Manufacturer)
}
