package transport

import (
	"context"
	"time"

	"esparrier/internal/device"
)

// busyRetryInterval is how long the waiter sleeps before retrying a device
// it found busy (§4.2).
const busyRetryInterval = 1 * time.Second

// pollInterval is how often the waiter re-scans for newly-connected
// devices. gousb does not expose libusb's hotplug callback API, so
// "subscribe to hot-plug events" is implemented as polling list_devices on
// a short interval; each poll is one scan, and a device observed for the
// first time is treated as a Connected event (see DESIGN.md).
const pollInterval = 250 * time.Millisecond

// Wait blocks until a device matching filter can be opened, retrying
// busy devices in a loop and scanning for newly-connected ones, until ctx
// is cancelled. Cancellation is cooperative: the caller cancels ctx (or
// simply stops awaiting the call) to give up waiting.
func Wait(ctx context.Context, filter Filter) (*Device, error) {
	seen := make(map[Ref]bool)

	// Initial scan: attempt every already-connected matching candidate,
	// retrying each on DeviceBusy before moving to the next.
	if h, err := scanOnce(ctx, filter, seen); err != nil {
		return nil, err
	} else if h != nil {
		return h, nil
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, device.DeviceNotFound("wait cancelled before a device appeared")
		case <-ticker.C:
			h, err := scanOnce(ctx, filter, seen)
			if err != nil {
				return nil, err
			}
			if h != nil {
				return h, nil
			}
		}
	}
}

// scanOnce lists currently-connected devices, and for each one not
// previously seen (a "Connected" event), attempts to open it, retrying
// on DeviceBusy and moving on to the next candidate on any other error.
func scanOnce(ctx context.Context, filter Filter, seen map[Ref]bool) (*Device, error) {
	vid := filter.vid()
	pid := filter.pid()
	for _, ref := range List(&vid, &pid) {
		if seen[ref] {
			continue
		}
		if filter.BusID != nil && !BusIDMatches(*filter.BusID, ref.BusID) {
			continue
		}
		if filter.Address != nil && *filter.Address != ref.Address {
			continue
		}
		seen[ref] = true

		refBusID, refAddress := ref.BusID, ref.Address
		refFilter := Filter{VID: filter.VID, PID: filter.PID, BusID: &refBusID, Address: &refAddress}

		h, err := openRetryBusy(ctx, refFilter)
		if err != nil {
			if isCancelled(err) {
				return nil, err
			}
			// Any other error: move on to the next candidate.
			continue
		}
		return h, nil
	}
	return nil, nil
}

// openRetryBusy opens a matching device, sleeping and retrying the same
// candidate on DeviceBusy, until ctx is cancelled.
func openRetryBusy(ctx context.Context, filter Filter) (*Device, error) {
	for {
		h, err := Open(filter)
		if err == nil {
			return h, nil
		}
		if !isBusy(err) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(busyRetryInterval):
		}
	}
}

func isBusy(err error) bool {
	var e *device.Error
	if de, ok := err.(*device.Error); ok {
		e = de
	}
	return e != nil && e.Kind == device.ErrDeviceBusy
}

func isCancelled(err error) bool {
	return err == context.Canceled || err == context.DeadlineExceeded
}
