package ota

import (
	"testing"

	"github.com/stretchr/testify/require"

	"esparrier/internal/device"
	"esparrier/internal/protocol"
)

// mockConn is a scripted Conn: each call to Read returns the next queued
// response, and every Write is recorded for inspection.
type mockConn struct {
	writes    [][]byte
	responses [][]byte
	readIdx   int
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

func TestCRC32KnownValues(t *testing.T) {
	require.Equal(t, uint32(0), CRC32([]byte("")))
	require.Equal(t, uint32(0xCBF43926), CRC32([]byte("123456789")))
}

func TestUploadTwoChunksWithProgress(t *testing.T) {
	firmware := make([]byte, 8000)
	for i := range firmware {
		firmware[i] = byte(i)
	}

	// OtaStart ack, then first chunk (4096 bytes) acked with 'o'
	// (continue), then second chunk (3904 bytes) acked with 'C' (complete).
	conn := &mockConn{
		responses: [][]byte{
			{protocol.RespOK},
			{protocol.RespOK},
			{'C'},
		},
	}

	var calls [][2]int
	err := Upload(conn, firmware, func(bytesSent, total int) {
		calls = append(calls, [2]int{bytesSent, total})
	})
	require.NoError(t, err)
	require.Equal(t, [][2]int{{4096, 8000}, {8000, 8000}}, calls)

	// OtaStart packet: 'O' + size(4) + crc(4), zero-padded to 64 bytes.
	require.Equal(t, byte(protocol.OpOtaStart), conn.writes[0][0])
}

func TestUploadCRCFailureAfterFirstChunk(t *testing.T) {
	firmware := make([]byte, 8000)

	conn := &mockConn{
		responses: [][]byte{
			{protocol.RespOK},                               // OtaStart ack
			{protocol.RespError, protocol.OpOtaStart, 'c'},   // CRC mismatch
		},
	}

	err := Upload(conn, firmware, nil)
	require.Error(t, err)
	var derr *device.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, device.ErrOtaError, derr.Kind)
	require.Contains(t, err.Error(), "CRC mismatch")
}

func TestAbort(t *testing.T) {
	conn := &mockConn{responses: [][]byte{{protocol.RespOK}}}
	require.NoError(t, Abort(conn))
	require.Equal(t, byte(protocol.OpOtaAbort), conn.writes[0][0])
}

func TestQueryProgressIdle(t *testing.T) {
	conn := &mockConn{responses: [][]byte{{protocol.RespOK}}}
	p, err := QueryProgress(conn)
	require.NoError(t, err)
	require.False(t, p.Active)
}

func TestQueryProgressActive(t *testing.T) {
	resp := make([]byte, 9)
	resp[0] = 'P'
	resp[4] = 0x01 // received = 0x01000000 (most significant byte of the little-endian u32)
	resp[8] = 0x02 // total = 0x02000000; exact values not asserted below

	conn := &mockConn{responses: [][]byte{resp}}
	p, err := QueryProgress(conn)
	require.NoError(t, err)
	require.True(t, p.Active)
}

func TestUploadRejectsOutOfBoundsSize(t *testing.T) {
	require.Error(t, Upload(&mockConn{}, nil, nil))

	tooBig := make([]byte, MaxFirmwareSize+1)
	require.Error(t, Upload(&mockConn{}, tooBig, nil))
}
