package kvm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"esparrier/internal/device"
	"esparrier/internal/protocol"
)

// mockConn is a scripted conn: each Read returns the next queued
// response, and every Write is recorded for inspection. Close/Invalidate
// are no-ops that just record whether they were called.
type mockConn struct {
	writes      [][]byte
	responses   [][]byte
	readIdx     int
	invalidated bool
}

func (m *mockConn) Write(packet []byte) error {
	cp := make([]byte, len(packet))
	copy(cp, packet)
	m.writes = append(m.writes, cp)
	return nil
}

func (m *mockConn) Read() ([]byte, error) {
	resp := m.responses[m.readIdx]
	m.readIdx++
	return resp, nil
}

func (m *mockConn) Close() error { return nil }
func (m *mockConn) Invalidate()  { m.invalidated = true }

func TestGetState(t *testing.T) {
	statePacket := []byte{0x73, 1, 2, 3, 0x40, 192, 168, 1, 42, 24, 1, 0, 1, 6}
	mc := &mockConn{responses: [][]byte{statePacket}}
	dev := &Device{usb: mc}

	state, err := dev.GetState()
	require.NoError(t, err)
	require.Equal(t, "1.2.3", state.VersionString())
	require.Len(t, mc.writes, 1)
	require.Equal(t, byte(protocol.OpGetState), mc.writes[0][0])
}

func TestGetConfigReassemblesTwoBlocks(t *testing.T) {
	cfg := device.NewConfig()
	cfg.SSID = "my-net"
	cfg.Server = "192.168.1.10:8080"
	cfg.ScreenName = "desk"

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	// Split into two blocks, each with a trailing zero byte the device
	// appends to mark the end of meaningful data within the 64-byte
	// packet (mirrors protocol.StripTrailingZero's expectation).
	mid := len(data) / 2
	block1 := append(append([]byte{}, data[:mid]...), 0x00)
	block2 := append(append([]byte{}, data[mid:]...), 0x00)

	mc := &mockConn{
		responses: [][]byte{
			{protocol.OpReadConfig, 2},
			block1,
			block2,
		},
	}
	dev := &Device{usb: mc}

	got, err := dev.GetConfig()
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestSetConfigSegmentsIntoBlocks(t *testing.T) {
	cfg := device.NewConfig()
	cfg.SSID = "my-net"
	cfg.Password = "hunter2"
	cfg.Server = "192.168.1.10:8080"
	cfg.ScreenName = "desk"
	// Pad a field out so the serialized payload spans multiple 64-byte
	// blocks, exercising the segmentation path.
	padded := make([]byte, 130)
	for i := range padded {
		padded[i] = 'x'
	}
	cfg.LandingURL = string(padded)

	mc := &mockConn{responses: [][]byte{{protocol.RespOK}}}
	dev := &Device{usb: mc}

	err := dev.SetConfig(cfg)
	require.NoError(t, err)

	// First write is the ['w', numBlocks] header.
	require.Equal(t, byte(protocol.OpWriteConfig), mc.writes[0][0])
	numBlocks := int(mc.writes[0][1])
	require.Equal(t, len(mc.writes)-1, numBlocks)
	for _, block := range mc.writes[1:] {
		require.Len(t, block, protocol.PacketSize)
	}
}

func TestSetConfigValidatesBeforeAnyIO(t *testing.T) {
	mc := &mockConn{}
	dev := &Device{usb: mc}

	cfg := device.NewConfig() // SSID/Server/ScreenName all empty: invalid
	err := dev.SetConfig(cfg)
	require.Error(t, err)
	_, ok := device.AsConfigError(err)
	require.True(t, ok)
	require.Empty(t, mc.writes)
}

func TestCommitInvalidatesHandle(t *testing.T) {
	mc := &mockConn{responses: [][]byte{{protocol.RespOK}}}
	dev := &Device{usb: mc}

	require.NoError(t, dev.Commit())
	require.True(t, mc.invalidated)
}

func TestUploadOTARequiresFeatureFlag(t *testing.T) {
	statePacket := []byte{0x73, 1, 2, 3, 0x00, 192, 168, 1, 42, 24, 1, 0, 1, 6}
	mc := &mockConn{responses: [][]byte{statePacket}}
	dev := &Device{usb: mc}

	err := dev.UploadOTA([]byte{1, 2, 3}, nil)
	require.Error(t, err)
	var derr *device.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, device.ErrOtaNotSupported, derr.Kind)

	// Only the GetState exchange happened: no 'O' (OtaStart) was issued.
	require.Len(t, mc.writes, 1)
	require.Equal(t, byte(protocol.OpGetState), mc.writes[0][0])
}
