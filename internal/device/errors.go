// Package device implements the typed state/config model, config
// validation, and error taxonomy for the Esparrier KVM. The control
// operations that ride over the command codec live in package kvm.
package device

import "fmt"

// ErrorKind identifies one of the distinct, observable failure modes a
// caller can switch on.
type ErrorKind int

const (
	// ErrDeviceNotFound means no matching device appeared within the
	// scan/wait window.
	ErrDeviceNotFound ErrorKind = iota
	// ErrUnknownDevice means a matched device lacks the vendor interface
	// signature the protocol requires.
	ErrUnknownDevice
	// ErrDeviceBusy means another host process holds the interface.
	ErrDeviceBusy
	// ErrPermissionDenied means the OS refused the interface claim.
	ErrPermissionDenied
	// ErrTransferFailed means a bulk transfer completed with a non-success
	// status.
	ErrTransferFailed
	// ErrInvalidResponse means a response opcode or length did not match
	// the wire contract.
	ErrInvalidResponse
	// ErrFormatError means serialization/deserialization failed.
	ErrFormatError
	// ErrConfigError means field-level config validation failed.
	ErrConfigError
	// ErrOtaNotSupported means the device's feature flags lack Ota.
	ErrOtaNotSupported
	// ErrOtaError means the OTA protocol itself reported a failure.
	ErrOtaError
	// ErrIo is a generic wrapper for file/stream I/O performed by the core.
	ErrIo
)

func (k ErrorKind) String() string {
	switch k {
	case ErrDeviceNotFound:
		return "DeviceNotFound"
	case ErrUnknownDevice:
		return "UnknownDevice"
	case ErrDeviceBusy:
		return "DeviceBusy"
	case ErrPermissionDenied:
		return "PermissionDenied"
	case ErrTransferFailed:
		return "TransferFailed"
	case ErrInvalidResponse:
		return "InvalidResponse"
	case ErrFormatError:
		return "FormatError"
	case ErrConfigError:
		return "ConfigError"
	case ErrOtaNotSupported:
		return "OtaNotSupported"
	case ErrOtaError:
		return "OtaError"
	case ErrIo:
		return "Io"
	default:
		return "Unknown"
	}
}

// Error is the library's error type. Kind is always set; Msg and Err carry
// detail depending on the kind.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, device.KindErr(X)) work by comparing kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindErr builds a sentinel usable with errors.Is to test an error's kind,
// e.g. errors.Is(err, device.KindErr(device.ErrDeviceBusy)).
func KindErr(kind ErrorKind) error { return &Error{Kind: kind} }

func newErr(kind ErrorKind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func wrapErr(kind ErrorKind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// DeviceNotFound builds an ErrDeviceNotFound error.
func DeviceNotFound(msg string) error { return newErr(ErrDeviceNotFound, msg) }

// UnknownDevice builds an ErrUnknownDevice error.
func UnknownDevice(msg string) error { return newErr(ErrUnknownDevice, msg) }

// DeviceBusy builds an ErrDeviceBusy error.
func DeviceBusy(msg string) error { return newErr(ErrDeviceBusy, msg) }

// PermissionDenied builds an ErrPermissionDenied error.
func PermissionDenied(msg string) error { return newErr(ErrPermissionDenied, msg) }

// TransferFailed wraps a bulk transfer failure.
func TransferFailed(err error) error {
	return wrapErr(ErrTransferFailed, "bulk transfer failed", err)
}

// InvalidResponse builds an ErrInvalidResponse error.
func InvalidResponse(msg string) error { return newErr(ErrInvalidResponse, msg) }

// FormatError builds an ErrFormatError error.
func FormatError(msg string) error { return newErr(ErrFormatError, msg) }

// OtaNotSupported builds an ErrOtaNotSupported error.
func OtaNotSupported() error {
	return newErr(ErrOtaNotSupported, "device does not report Ota feature support")
}

// OtaError builds an ErrOtaError error with the given protocol message.
func OtaError(msg string) error { return newErr(ErrOtaError, msg) }

// IoError wraps an underlying I/O error performed by the core.
func IoError(msg string, err error) error { return wrapErr(ErrIo, msg, err) }

// ConfigErrorKind distinguishes the invariant a config validation failure
// violated.
type ConfigErrorKind int

const (
	FieldEmpty ConfigErrorKind = iota
	FieldTooLong
	FieldOutOfRange
	InvalidEndpoint
	InvalidIPAddress
	InvalidIPCIDRPrefix
)

func (k ConfigErrorKind) String() string {
	switch k {
	case FieldEmpty:
		return "FieldEmpty"
	case FieldTooLong:
		return "FieldTooLong"
	case FieldOutOfRange:
		return "FieldOutOfRange"
	case InvalidEndpoint:
		return "InvalidEndpoint"
	case InvalidIPAddress:
		return "InvalidIpAddress"
	case InvalidIPCIDRPrefix:
		return "InvalidIpCidrPrefix"
	default:
		return "Unknown"
	}
}

// ConfigError is the field-level validation failure carried inside an
// *Error of kind ErrConfigError.
type ConfigError struct {
	ConfigKind ConfigErrorKind
	Field      string
	Detail     string
}

func (c *ConfigError) Error() string {
	if c.Detail != "" {
		return fmt.Sprintf("%s: field %q: %s", c.ConfigKind, c.Field, c.Detail)
	}
	return fmt.Sprintf("%s: field %q", c.ConfigKind, c.Field)
}

// NewConfigError builds the *Error wrapper for a field-level validation
// failure, ready to return from SetConfig/validation helpers.
func NewConfigError(kind ConfigErrorKind, field, detail string) error {
	ce := &ConfigError{ConfigKind: kind, Field: field, Detail: detail}
	return &Error{Kind: ErrConfigError, Msg: ce.Error(), Err: ce}
}

// AsConfigError unwraps err into its *ConfigError detail, if any.
func AsConfigError(err error) (*ConfigError, bool) {
	e, ok := err.(*Error)
	if !ok || e.Kind != ErrConfigError {
		return nil, false
	}
	ce, ok := e.Err.(*ConfigError)
	return ce, ok
}
