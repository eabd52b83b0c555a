package device

import "encoding/json"

// Default values per §3. Fields equal to these are omitted from the
// serialized JSON form; absent fields take these values on parse.
const (
	DefaultScreenWidth     uint16 = 1920
	DefaultScreenHeight    uint16 = 1080
	DefaultFlipWheel       bool   = false
	DefaultPollingRate     uint16 = 200
	DefaultJiggleInterval  uint16 = 60
	DefaultBrightness      uint8  = 30
	DefaultVID             uint16 = 0x0d0a
	DefaultPID             uint16 = 0xc0de
	DefaultManufacturer    string = "0d0a.com"
	DefaultProduct         string = "Esparrier KVM"
	DefaultSerialNumber    string = "88888888"
	DefaultLandingURL      string = "https://0d0a.com"
	DefaultWatchdogTimeout uint32 = 15
)

// Field length limits enforced by Validate.
const (
	MaxLenSSID         = 32
	MaxLenPassword     = 64
	MaxLenServer       = 64
	MaxLenScreenName   = 64
	MaxLenManufacturer = 64
	MaxLenProduct      = 64
	MaxLenSerialNumber = 64
	MaxLenLandingURL   = 255
)

// Config is the typed, JSON-serializable device configuration (§3).
type Config struct {
	SSID       string `json:"ssid"`
	Password   string `json:"password,omitempty"`
	Server     string `json:"server"`
	ScreenName string `json:"screen_name"`

	ScreenWidth    uint16 `json:"screen_width"`
	ScreenHeight   uint16 `json:"screen_height"`
	FlipWheel      bool   `json:"flip_wheel"`
	PollingRate    uint16 `json:"polling_rate"`
	JiggleInterval uint16 `json:"jiggle_interval"`

	Brightness uint8 `json:"brightness"`

	IPAddr    *string  `json:"ip_addr,omitempty"`
	Gateway   *string  `json:"gateway,omitempty"`
	DNSServer []string `json:"dns_server,omitempty"`

	VID            uint16 `json:"vid"`
	PID            uint16 `json:"pid"`
	Manufacturer   string `json:"manufacturer"`
	Product        string `json:"product"`
	SerialNumber   string `json:"serial_number"`
	LandingURL     string `json:"landing_url"`
	WatchdogTimeout uint32 `json:"watchdog_timeout"`
}

// NewConfig returns a Config pre-filled with every default value (§3).
func NewConfig() Config {
	return Config{
		ScreenWidth:     DefaultScreenWidth,
		ScreenHeight:    DefaultScreenHeight,
		FlipWheel:       DefaultFlipWheel,
		PollingRate:     DefaultPollingRate,
		JiggleInterval:  DefaultJiggleInterval,
		Brightness:      DefaultBrightness,
		VID:             DefaultVID,
		PID:             DefaultPID,
		Manufacturer:    DefaultManufacturer,
		Product:         DefaultProduct,
		SerialNumber:    DefaultSerialNumber,
		LandingURL:      DefaultLandingURL,
		WatchdogTimeout: DefaultWatchdogTimeout,
	}
}

// configAlias avoids UnmarshalJSON recursing into itself.
type configAlias Config

// UnmarshalJSON fills in defaults first, then overlays whatever fields the
// JSON payload supplies, implementing the "absent fields take defaults"
// policy.
func (c *Config) UnmarshalJSON(data []byte) error {
	def := NewConfig()
	alias := (*configAlias)(&def)
	if err := json.Unmarshal(data, alias); err != nil {
		return err
	}
	*c = Config(def)
	return nil
}

// MarshalJSON implements the emit-if-non-default wire policy: a field
// equal to its default is omitted; everything else (and every required
// field) is always present. Password is additionally omitted whenever
// empty, which coincides with its default but is called out per §3's
// "secret redaction on read-back" note.
func (c Config) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 20)

	m["ssid"] = c.SSID
	if c.Password != "" {
		m["password"] = c.Password
	}
	m["server"] = c.Server
	m["screen_name"] = c.ScreenName

	if c.ScreenWidth != DefaultScreenWidth {
		m["screen_width"] = c.ScreenWidth
	}
	if c.ScreenHeight != DefaultScreenHeight {
		m["screen_height"] = c.ScreenHeight
	}
	if c.FlipWheel != DefaultFlipWheel {
		m["flip_wheel"] = c.FlipWheel
	}
	if c.PollingRate != DefaultPollingRate {
		m["polling_rate"] = c.PollingRate
	}
	if c.JiggleInterval != DefaultJiggleInterval {
		m["jiggle_interval"] = c.JiggleInterval
	}
	if c.Brightness != DefaultBrightness {
		m["brightness"] = c.Brightness
	}
	if c.IPAddr != nil {
		m["ip_addr"] = *c.IPAddr
	}
	if c.Gateway != nil {
		m["gateway"] = *c.Gateway
	}
	if len(c.DNSServer) > 0 {
		m["dns_server"] = c.DNSServer
	}
	if c.VID != DefaultVID {
		m["vid"] = c.VID
	}
	if c.PID != DefaultPID {
		m["pid"] = c.PID
	}
	if c.Manufacturer != DefaultManufacturer {
		m["manufacturer"] = c.Manufacturer
	}
	if c.Product != DefaultProduct {
		m["product"] = c.Product
	}
	if c.SerialNumber != DefaultSerialNumber {
		m["serial_number"] = c.SerialNumber
	}
	if c.LandingURL != DefaultLandingURL {
		m["landing_url"] = c.LandingURL
	}
	if c.WatchdogTimeout != DefaultWatchdogTimeout {
		m["watchdog_timeout"] = c.WatchdogTimeout
	}

	return json.Marshal(m)
}

// Redacted returns a copy of c with Password cleared, matching what the
// device itself sends back on ReadConfig.
func (c Config) Redacted() Config {
	c.Password = ""
	return c
}
