package transport

import "strconv"

// DefaultVID and DefaultPID are the Esparrier KVM's factory USB
// identifiers (§6), used whenever a Filter leaves them unset.
const (
	DefaultVID = 0x0d0a
	DefaultPid = 0xc0de
)

// Filter narrows device discovery (§4.1). A nil VID or PID falls back to
// DefaultVID/DefaultPid; a nil BusID or Address matches any.
type Filter struct {
	VID     *uint16
	PID     *uint16
	BusID   *string
	Address *uint8
}

// vid and pid return the effective vendor/product id to match, applying
// the Esparrier defaults when the filter leaves them unset.
func (f Filter) vid() uint16 {
	if f.VID != nil {
		return *f.VID
	}
	return DefaultVID
}

func (f Filter) pid() uint16 {
	if f.PID != nil {
		return *f.PID
	}
	return DefaultPid
}

// matches reports whether a candidate device's identifying fields satisfy
// every filter predicate supplied.
func (f Filter) matches(vid, pid uint16, busID string, address uint8) bool {
	if vid != f.vid() {
		return false
	}
	if pid != f.pid() {
		return false
	}
	if f.BusID != nil && !BusIDMatches(*f.BusID, busID) {
		return false
	}
	if f.Address != nil && *f.Address != address {
		return false
	}
	return true
}

// BusIDMatches compares two bus identifiers first as raw strings, then as
// decoded unsigned integers, so "3" matches "03" (§4.1).
func BusIDMatches(a, b string) bool {
	if a == b {
		return true
	}
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	if aerr != nil || berr != nil {
		return false
	}
	return an == bn
}
