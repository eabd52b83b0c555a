// Package kvm assembles the USB transport, command codec, config model,
// and OTA engine into the Device handle and control operations exposed to
// callers (§4.5): GetState, GetConfig, SetConfig, Commit, Reboot,
// KeepAwake, and UploadOTA.
package kvm

import (
	"context"

	"esparrier/internal/device"
	"esparrier/internal/ota"
	"esparrier/internal/protocol"
	"esparrier/internal/transport"
)

// conn is the transport surface Device needs: one packet write, one
// packet read, and handle lifecycle management. *transport.Device
// satisfies this; tests substitute a mock to simulate §4.3 exchanges
// without real USB hardware.
type conn interface {
	Write(packet []byte) error
	Read() ([]byte, error)
	Close() error
	Invalidate()
}

// Device is the host's exclusive handle to one Esparrier KVM. Commands
// that restart the device (Commit, Reboot) consume the handle: every
// subsequent call fails with DeviceNotFound (§3 Ownership, §4.5).
type Device struct {
	usb conn
}

// Open scans for and claims the first currently-connected device matching
// filter.
func Open(filter transport.Filter) (*Device, error) {
	h, err := transport.Open(filter)
	if err != nil {
		return nil, err
	}
	return &Device{usb: h}, nil
}

// Wait blocks until a matching device appears and can be claimed,
// retrying busy candidates, until ctx is cancelled (§4.2).
func Wait(ctx context.Context, filter transport.Filter) (*Device, error) {
	h, err := transport.Wait(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Device{usb: h}, nil
}

// ListDevices enumerates connected devices matching the vid/pid filter.
func ListDevices(vid, pid *uint16) []transport.Ref {
	return transport.List(vid, pid)
}

// Close releases the USB resources this handle owns.
func (d *Device) Close() error {
	return d.usb.Close()
}

// exchange sends one packed request and returns the single response
// packet. Callers must not interleave commands on one handle (§4.1).
func (d *Device) exchange(req []byte) ([]byte, error) {
	if err := d.usb.Write(req); err != nil {
		return nil, err
	}
	return d.usb.Read()
}

// GetState issues the 's' command and decodes the device's state
// snapshot.
func (d *Device) GetState() (device.State, error) {
	req, err := protocol.EncodeGetState()
	if err != nil {
		return device.State{}, err
	}
	resp, err := d.exchange(req)
	if err != nil {
		return device.State{}, err
	}
	return device.DecodeState(resp)
}

// GetConfig issues the 'r' command, reassembles the block stream per
// §4.3, and parses the result as a Config.
func (d *Device) GetConfig() (device.Config, error) {
	req, err := protocol.EncodeReadConfig()
	if err != nil {
		return device.Config{}, err
	}
	if err := d.usb.Write(req); err != nil {
		return device.Config{}, err
	}

	header, err := d.usb.Read()
	if err != nil {
		return device.Config{}, err
	}
	if len(header) != 2 || header[0] != protocol.OpReadConfig {
		return device.Config{}, device.InvalidResponse("malformed ReadConfig header")
	}
	numBlocks := int(header[1])

	var data []byte
	for i := 0; i < numBlocks; i++ {
		block, err := d.usb.Read()
		if err != nil {
			return device.Config{}, err
		}
		data = append(data, protocol.StripTrailingZero(block)...)
	}
	data = protocol.FilterConfigBytes(data)

	var cfg device.Config
	if err := cfg.UnmarshalJSON(data); err != nil {
		return device.Config{}, device.FormatError("Invalid JSON format")
	}
	return cfg, nil
}

// SetConfig validates cfg locally — no USB traffic on a validation
// failure — then serializes and segments it into the 'w' command's
// 64-byte blocks (§4.3, §4.5). The device treats the upload as pending
// until CommitConfig.
func (d *Device) SetConfig(cfg device.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := cfg.MarshalJSON()
	if err != nil {
		return device.FormatError("failed to serialize configuration")
	}

	blocks := chunk(data, protocol.PacketSize)
	if len(blocks) > 255 {
		return device.FormatError("serialized configuration exceeds 255 blocks")
	}

	header, err := protocol.EncodeWriteConfigHeader(byte(len(blocks)))
	if err != nil {
		return err
	}
	if err := d.usb.Write(header); err != nil {
		return err
	}
	for _, block := range blocks {
		packet, err := protocol.Pack(block)
		if err != nil {
			return err
		}
		if err := d.usb.Write(packet); err != nil {
			return err
		}
	}

	resp, err := d.usb.Read()
	if err != nil {
		return err
	}
	return protocol.ExpectOK(resp)
}

// chunk splits data into blocks of at most size bytes.
func chunk(data []byte, size int) [][]byte {
	var blocks [][]byte
	for i := 0; i < len(data); i += size {
		end := i + size
		if end > len(data) {
			end = len(data)
		}
		blocks = append(blocks, data[i:end])
	}
	if len(blocks) == 0 {
		blocks = [][]byte{{}}
	}
	return blocks
}

// Commit flashes the pending configuration and restarts the device. The
// connection is lost: this call consumes the handle (§4.5 Ownership).
func (d *Device) Commit() error {
	req, err := protocol.EncodeCommit()
	if err != nil {
		return err
	}
	resp, err := d.exchange(req)
	d.usb.Invalidate()
	if err != nil {
		return err
	}
	return protocol.ExpectOK(resp)
}

// Reboot restarts the device without touching its configuration. The
// connection is lost: this call consumes the handle (§4.5 Ownership).
func (d *Device) Reboot() error {
	req, err := protocol.EncodeReboot()
	if err != nil {
		return err
	}
	resp, err := d.exchange(req)
	d.usb.Invalidate()
	if err != nil {
		return err
	}
	return protocol.ExpectOK(resp)
}

// KeepAwake toggles the device's host keep-awake behavior.
func (d *Device) KeepAwake(enable bool) error {
	req, err := protocol.EncodeKeepAwake(enable)
	if err != nil {
		return err
	}
	resp, err := d.exchange(req)
	if err != nil {
		return err
	}
	return protocol.ExpectOK(resp)
}

// UploadOTA checks the device reports OTA support, then streams firmware
// to it via the OTA engine, invoking progress after each chunk (§4.4).
func (d *Device) UploadOTA(firmware []byte, progress ota.ProgressFunc) error {
	state, err := d.GetState()
	if err != nil {
		return err
	}
	if !state.HasOtaSupport() {
		return device.OtaNotSupported()
	}
	return ota.Upload(d.usb, firmware, progress)
}

// AbortOTA sends OtaAbort, valid at any point during a streaming upload.
func (d *Device) AbortOTA() error {
	return ota.Abort(d.usb)
}

// OTAProgress issues the idle-safe OtaProgress query.
func (d *Device) OTAProgress() (ota.Progress, error) {
	return ota.QueryProgress(d.usb)
}
