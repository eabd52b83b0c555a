// Package transport implements USB discovery, claim, and serialized
// 64-byte bulk I/O for the Esparrier KVM's vendor-class interface (§4.1).
package transport

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/gousb"

	"esparrier/internal/device"
)

// VendorClass is the USB interface class/subclass/protocol triple that
// identifies the Esparrier's vendor interface (§4.1, §6).
const (
	VendorClass    = 0xFF
	VendorSubclass = 0x0D
	VendorProtocol = 0x0A
)

// BulkPacketSize is the only wMaxPacketSize the protocol supports. A
// device whose endpoints report anything else is refused (§6).
const BulkPacketSize = 64

// Ref identifies one discovered device without claiming it.
type Ref struct {
	BusID   string
	Address uint8
}

// Device is a claimed, exclusively-owned handle to one Esparrier's vendor
// interface. The two endpoints are each guarded by their own mutex so
// that concurrent writes (or reads) on one handle do not interleave
// packets. A command and its response are not held under one lock, so
// callers must not interleave commands on the same handle (§4.1, §5).
type Device struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	epIn  *gousb.InEndpoint
	epOut *gousb.OutEndpoint

	writeMu sync.Mutex
	readMu  sync.Mutex

	Ref Ref

	closedMu sync.Mutex
	closed   bool
}

// List enumerates all currently-connected devices matching the vid/pid
// filter and returns their (bus_id, device_address) pairs. It never fails;
// an enumeration error yields an empty slice (§4.1).
func List(vid, pid *uint16) []Ref {
	ctx := gousb.NewContext()
	defer ctx.Close()

	f := Filter{VID: vid, PID: pid}

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == f.vid() && uint16(desc.Product) == f.pid()
	})
	if err != nil {
		return nil
	}

	refs := make([]Ref, 0, len(devs))
	for _, d := range devs {
		refs = append(refs, Ref{
			BusID:   strconv.Itoa(d.Desc.Bus),
			Address: uint8(d.Desc.Address),
		})
		d.Close()
	}
	return refs
}

// Open scans currently-connected devices for the first one matching
// filter, claims it, and returns a ready handle. It does not wait for a
// device to appear; see the hotplug waiter for that.
func Open(filter Filter) (*Device, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return filter.matches(uint16(desc.Vendor), uint16(desc.Product),
			strconv.Itoa(desc.Bus), uint8(desc.Address))
	})
	if err != nil {
		ctx.Close()
		return nil, device.DeviceNotFound("USB enumeration failed")
	}
	if len(devs) == 0 {
		ctx.Close()
		return nil, device.DeviceNotFound("no matching Esparrier KVM device")
	}

	// Close every candidate but the first; claim() takes ownership of the
	// survivor, and its failure path is responsible for closing it.
	chosen := devs[0]
	for _, d := range devs[1:] {
		d.Close()
	}

	h, err := claim(ctx, chosen)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	return h, nil
}

// claim runs the atomic claim procedure of §4.1 steps 2-4 against an
// already-opened device.
func claim(ctx *gousb.Context, dev *gousb.Device) (*Device, error) {
	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		return nil, device.UnknownDevice(fmt.Sprintf("failed to read configuration: %v", err))
	}

	intfNum, altNum, found := findVendorInterface(cfg)
	if !found {
		cfg.Close()
		dev.Close()
		return nil, device.UnknownDevice("no interface with class=0xFF subclass=0x0D protocol=0x0A")
	}

	intf, err := cfg.Interface(intfNum, altNum)
	if err != nil {
		cfg.Close()
		dev.Close()
		return nil, classifyClaimErr(err)
	}

	epIn, epOut, err := findBulkEndpoints(intf)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		return nil, err
	}

	return &Device{
		ctx:   ctx,
		dev:   dev,
		cfg:   cfg,
		intf:  intf,
		epIn:  epIn,
		epOut: epOut,
		Ref: Ref{
			BusID:   strconv.Itoa(dev.Desc.Bus),
			Address: uint8(dev.Desc.Address),
		},
	}, nil
}

// findVendorInterface locates the interface number/alt-setting number
// whose descriptor matches the Esparrier vendor class triple (§4.1 step 2).
func findVendorInterface(cfg *gousb.Config) (intfNum, altNum int, found bool) {
	for _, intf := range cfg.Desc.Interfaces {
		for _, alt := range intf.AltSettings {
			if alt.Class == gousb.ClassCode(VendorClass) &&
				alt.SubClass == gousb.ClassCode(VendorSubclass) &&
				alt.Protocol == gousb.ProtocolCode(VendorProtocol) {
				return intf.Number, alt.Number, true
			}
		}
	}
	return 0, 0, false
}

// findBulkEndpoints picks the first IN and first OUT bulk endpoint with a
// 64-byte max packet size in the claimed alt setting (§4.1 step 4) and
// opens them; bulk endpoints of any other packet size are skipped.
func findBulkEndpoints(intf *gousb.Interface) (*gousb.InEndpoint, *gousb.OutEndpoint, error) {
	var inNum, outNum int
	var haveIn, haveOut bool

	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if ep.MaxPacketSize != BulkPacketSize {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			if !haveIn {
				inNum, haveIn = ep.Number, true
			}
		case gousb.EndpointDirectionOut:
			if !haveOut {
				outNum, haveOut = ep.Number, true
			}
		}
	}
	if !haveIn || !haveOut {
		return nil, nil, device.UnknownDevice("vendor interface is missing a 64-byte bulk IN/OUT endpoint pair")
	}

	epIn, err := intf.InEndpoint(inNum)
	if err != nil {
		return nil, nil, device.UnknownDevice(fmt.Sprintf("failed to open bulk IN endpoint: %v", err))
	}
	epOut, err := intf.OutEndpoint(outNum)
	if err != nil {
		return nil, nil, device.UnknownDevice(fmt.Sprintf("failed to open bulk OUT endpoint: %v", err))
	}
	return epIn, epOut, nil
}

// classifyClaimErr maps a claim failure to PermissionDenied (OS refused
// the claim) or DeviceBusy (another host process holds the interface),
// per §4.1 step 3.
func classifyClaimErr(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "access") {
		return device.PermissionDenied(fmt.Sprintf("failed to claim interface: %v", err))
	}
	return device.DeviceBusy(fmt.Sprintf("failed to claim interface: %v", err))
}

// Write transmits data as a single 64-byte bulk OUT transfer. data must
// be at most BulkPacketSize bytes; shorter data is zero-padded.
func (d *Device) Write(data []byte) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if d.isClosed() {
		return device.DeviceNotFound("device handle is closed")
	}
	if len(data) > BulkPacketSize {
		return device.InvalidResponse("write exceeds bulk packet size")
	}
	buf := data
	if len(buf) < BulkPacketSize {
		buf = make([]byte, BulkPacketSize)
		copy(buf, data)
	}
	if _, err := d.epOut.Write(buf); err != nil {
		return device.TransferFailed(err)
	}
	return nil
}

// Read requests up to 64 bytes from the bulk IN endpoint and returns
// whatever was actually delivered.
func (d *Device) Read() ([]byte, error) {
	d.readMu.Lock()
	defer d.readMu.Unlock()

	if d.isClosed() {
		return nil, device.DeviceNotFound("device handle is closed")
	}
	buf := make([]byte, BulkPacketSize)
	n, err := d.epIn.Read(buf)
	if err != nil {
		return nil, device.TransferFailed(err)
	}
	return buf[:n], nil
}

func (d *Device) isClosed() bool {
	d.closedMu.Lock()
	defer d.closedMu.Unlock()
	return d.closed
}

// Invalidate marks the handle closed without releasing the underlying USB
// resources. Used after commands that restart the device (commit, reboot)
// consume the handle: the device will re-enumerate, so the old endpoints
// are no longer meaningful, but the process may still be tearing down the
// libusb context concurrently elsewhere.
func (d *Device) Invalidate() {
	d.closedMu.Lock()
	d.closed = true
	d.closedMu.Unlock()
}

// Close releases the claimed interface, configuration, device, and libusb
// context, in that order.
func (d *Device) Close() error {
	d.Invalidate()
	if d.intf != nil {
		d.intf.Close()
	}
	if d.cfg != nil {
		d.cfg.Close()
	}
	if d.dev != nil {
		d.dev.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
	return nil
}
