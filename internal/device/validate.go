package device

import (
	"net"
	"strconv"
	"strings"
)

// Validate checks every invariant from §3 and returns the first violation
// found as a *Error of kind ErrConfigError, or nil if c is well-formed.
func (c Config) Validate() error {
	type requiredString struct {
		name  string
		value string
		max   int
	}
	required := []requiredString{
		{"ssid", c.SSID, MaxLenSSID},
		{"password", c.Password, MaxLenPassword},
		{"server", c.Server, MaxLenServer},
		{"screen_name", c.ScreenName, MaxLenScreenName},
	}
	for _, f := range required {
		if f.value == "" {
			return NewConfigError(FieldEmpty, f.name, "must not be empty")
		}
		if len(f.value) > f.max {
			return NewConfigError(FieldTooLong, f.name, "exceeds maximum length")
		}
	}

	type boundedString struct {
		name  string
		value string
		max   int
	}
	bounded := []boundedString{
		{"manufacturer", c.Manufacturer, MaxLenManufacturer},
		{"product", c.Product, MaxLenProduct},
		{"serial_number", c.SerialNumber, MaxLenSerialNumber},
		{"landing_url", c.LandingURL, MaxLenLandingURL},
	}
	for _, f := range bounded {
		if len(f.value) > f.max {
			return NewConfigError(FieldTooLong, f.name, "exceeds maximum length")
		}
	}

	if c.ScreenWidth < 1 || c.ScreenWidth > 32767 {
		return NewConfigError(FieldOutOfRange, "screen_width", "must be in [1, 32767]")
	}
	if c.ScreenHeight < 1 || c.ScreenHeight > 32767 {
		return NewConfigError(FieldOutOfRange, "screen_height", "must be in [1, 32767]")
	}
	if c.Brightness < 1 || c.Brightness > 100 {
		return NewConfigError(FieldOutOfRange, "brightness", "must be in [1, 100]")
	}

	if _, _, err := net.SplitHostPort(c.Server); err != nil {
		return NewConfigError(InvalidEndpoint, "server", "must be an IPv4:port endpoint")
	} else {
		host, port, _ := net.SplitHostPort(c.Server)
		if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
			return NewConfigError(InvalidEndpoint, "server", "host is not a valid IPv4 address")
		}
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return NewConfigError(InvalidEndpoint, "server", "port is not a valid u16")
		}
	}

	if c.IPAddr != nil {
		if err := validateCIDR(*c.IPAddr); err != nil {
			return err
		}
	}
	if c.Gateway != nil {
		if ip := net.ParseIP(*c.Gateway); ip == nil || ip.To4() == nil {
			return NewConfigError(InvalidIPAddress, "gateway", "not a valid IPv4 address")
		}
	}
	for _, dns := range c.DNSServer {
		if ip := net.ParseIP(dns); ip == nil || ip.To4() == nil {
			return NewConfigError(InvalidIPAddress, "dns_server", "not a valid IPv4 address")
		}
	}

	return nil
}

// validateCIDR enforces that s is exactly one '/' separating a parseable
// IPv4 address and a u8 prefix length.
func validateCIDR(s string) error {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return NewConfigError(InvalidIPAddress, "ip_addr", "expected \"A.B.C.D/NN\"")
	}
	ip := net.ParseIP(parts[0])
	if ip == nil || ip.To4() == nil {
		return NewConfigError(InvalidIPAddress, "ip_addr", "address portion is not valid IPv4")
	}
	prefix, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || prefix > 32 {
		return NewConfigError(InvalidIPCIDRPrefix, "ip_addr", "prefix must be a u8 CIDR length")
	}
	return nil
}
