// Package transport provides the exclusive communication handle to a
// Ledger hardware device. A Transport carries raw APDU exchanges; the
// protocol layer on top of it speaks the on-device application command
// set.
package transport

import "context"

// DeviceInfo is a snapshot of the identity of an attached device.
type DeviceInfo struct {
	ID          string `json:"id"`
	ProductName string `json:"product_name"`
}

// Transport is an open, exclusive handle to a physical device.
type Transport interface {
	// Exchange sends an APDU command and returns the raw response,
	// including the trailing status word.
	Exchange(command []byte) ([]byte, error)

	// Info returns the identity metadata of the connected device.
	Info() DeviceInfo

	// Close releases the device handle. A Transport must not be used
	// after Close.
	Close() error
}

// Factory opens transports. Open fails with ErrDeviceNotConnected
// (distinguishable via errors.Is) when no device is attached; any other
// failure is reported as-is.
type Factory interface {
	Open(ctx context.Context) (Transport, error)
}
