// Package ota implements the chunked, CRC-validated firmware upload state
// machine (§4.4). It is transport-agnostic: callers supply a Conn that can
// write one 64-byte-padded command packet and read one response packet.
package ota

import (
	"hash/crc32"

	"esparrier/internal/device"
	"esparrier/internal/protocol"
)

// Size limits from §4.4.
const (
	MinFirmwareSize = 1
	MaxFirmwareSize = 0x100000 // 1 MiB
	MaxChunkSize    = 4096     // up to 64 USB packets x 64 B
)

// Conn is the minimal I/O surface the OTA engine needs from a claimed
// device handle: one 64-byte-padded write, one response read.
type Conn interface {
	Write(packet []byte) error
	Read() ([]byte, error)
}

// ProgressFunc is invoked synchronously after each chunk is transmitted,
// before its acknowledgement is read, with the cumulative byte count
// submitted to the bus and the total firmware size (§4.4).
type ProgressFunc func(bytesSent, total int)

// CRC32 computes the IEEE 802.3 CRC32 (poly 0xEDB88320, init/final XOR
// 0xFFFFFFFF) over data, matching hash/crc32's standard IEEE table exactly
// — there is no ecosystem CRC32 implementation in the example corpus, and
// this is the single well-known constant the checksum must match, so the
// standard library is the correct, zero-risk choice here.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Upload runs the full OTA state machine against firmware: checks the
// size precondition, computes its CRC32 once, sends OtaStart, then streams
// the firmware in up to 4096-byte chunks until the device reports stream
// completion. progress may be nil.
func Upload(conn Conn, firmware []byte, progress ProgressFunc) error {
	size := len(firmware)
	if size < MinFirmwareSize || size > MaxFirmwareSize {
		return device.OtaError("firmware size out of bounds")
	}

	crc := CRC32(firmware)

	if err := start(conn, uint32(size), crc); err != nil {
		return err
	}

	offset := 0
	complete := false
	for offset < size {
		end := offset + MaxChunkSize
		if end > size {
			end = size
		}
		chunk := firmware[offset:end]
		sent := end

		ack, err := sendChunk(conn, chunk, func() {
			if progress != nil {
				progress(sent, size)
			}
		})
		if err != nil {
			return err
		}
		offset = end

		switch ack.Kind {
		case 'C':
			complete = true
		case protocol.RespError:
			return device.OtaError(ack.ErrMsg)
		}
		if complete {
			break
		}
	}

	if !complete {
		return device.OtaError("did not complete")
	}
	return nil
}

// start sends OtaStart and waits for the device to ack the session.
func start(conn Conn, size, crc uint32) error {
	req, err := protocol.EncodeOtaStart(size, crc)
	if err != nil {
		return err
	}
	if err := conn.Write(req); err != nil {
		return err
	}
	resp, err := conn.Read()
	if err != nil {
		return err
	}
	if msg, ok := protocol.DecodeOtaErrorResponse(resp); ok {
		return device.OtaError(msg)
	}
	if err := protocol.ExpectOK(resp); err != nil {
		return err
	}
	return nil
}

// sendChunk transmits one chunk (header + data packets), invokes onSent
// (the caller's progress callback) now that the chunk is fully on the bus
// but before its acknowledgement is read (§4.4), then decodes the ack.
func sendChunk(conn Conn, chunk []byte, onSent func()) (protocol.OtaDataAck, error) {
	packets := (len(chunk) + protocol.PacketSize - 1) / protocol.PacketSize
	header, err := protocol.EncodeOtaDataHeader(byte(packets), uint16(len(chunk)))
	if err != nil {
		return protocol.OtaDataAck{}, err
	}
	if err := conn.Write(header); err != nil {
		return protocol.OtaDataAck{}, err
	}

	for i := 0; i < packets; i++ {
		start := i * protocol.PacketSize
		end := start + protocol.PacketSize
		if end > len(chunk) {
			end = len(chunk)
		}
		packet, err := protocol.Pack(chunk[start:end])
		if err != nil {
			return protocol.OtaDataAck{}, err
		}
		if err := conn.Write(packet); err != nil {
			return protocol.OtaDataAck{}, err
		}
	}

	if onSent != nil {
		onSent()
	}

	resp, err := conn.Read()
	if err != nil {
		return protocol.OtaDataAck{}, err
	}
	return protocol.DecodeOtaDataResponse(resp)
}

// Abort sends OtaAbort, valid at any point during a Streaming session.
func Abort(conn Conn) error {
	req, err := protocol.EncodeOtaAbort()
	if err != nil {
		return err
	}
	if err := conn.Write(req); err != nil {
		return err
	}
	resp, err := conn.Read()
	if err != nil {
		return err
	}
	return protocol.ExpectOK(resp)
}

// Progress is the idle-safe OTA progress query result.
type Progress struct {
	// Active is true if a session is in progress, in which case Received
	// and Total are populated.
	Active   bool
	Received uint32
	Total    uint32
}

// QueryProgress issues the idle-safe OtaProgress query.
func QueryProgress(conn Conn) (Progress, error) {
	req, err := protocol.EncodeOtaProgress()
	if err != nil {
		return Progress{}, err
	}
	if err := conn.Write(req); err != nil {
		return Progress{}, err
	}
	resp, err := conn.Read()
	if err != nil {
		return Progress{}, err
	}
	reply, err := protocol.DecodeOtaProgressResponse(resp)
	if err != nil {
		return Progress{}, err
	}
	if reply.IsError {
		return Progress{}, device.OtaError(reply.ErrMsg)
	}
	return Progress{Active: reply.Active, Received: reply.Received, Total: reply.Total}, nil
}
