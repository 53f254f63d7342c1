// Package session owns the hardware-wallet session state surface: the
// pairing status, the bounded status-code history, the most recent
// transport error and response, the cached device identity, and the
// import-in-progress flag. A Manager mediates between callers (a CLI or
// other presentation layer) and the device transport, running one task
// sequence at a time and surfacing outcomes through state rather than
// returned errors.
package session

import (
	"context"

	"github.com/polagate/dotledger/internal/substrate"
	"github.com/polagate/dotledger/internal/transport"
	dlerr "github.com/polagate/dotledger/pkg/errors"
)

// MaxStatusCodes bounds the status-code history. The oldest entry is
// dropped once the bound is exceeded.
const MaxStatusCodes = 50

// Acknowledgement classifies a device interaction outcome.
type Acknowledgement string

// Acknowledgement values.
const (
	AckSuccess Acknowledgement = "success"
	AckFailure Acknowledgement = "failure"
)

// PairingStatus is the device connectivity state.
type PairingStatus string

// Pairing states.
const (
	PairingUnknown PairingStatus = "unknown"
	Paired         PairingStatus = "paired"
	NotPaired      PairingStatus = "not-paired"
)

// Status code names surfaced to the presentation layer. Failures use
// exactly two codes: DeviceNotConnected when the transport reported no
// attached device, AppNotOpen for every other failure.
const (
	CodeDeviceNotConnected = "DeviceNotConnected"
	CodeAppNotOpen         = "AppNotOpen"
	CodeReceivedAddress    = "ReceivedAddress"
	CodeReceivedDeviceInfo = "ReceivedDeviceInfo"
	CodeDerivingAddress    = "DerivingAddress"
)

// Task names a device operation requested from the task loop.
type Task string

// Known tasks.
const (
	TaskGetDeviceInfo Task = "get_device_info"
	TaskGetAddress    Task = "get_address"
)

// KnownTasks lists every task the loop understands.
func KnownTasks() []Task {
	return []Task{TaskGetDeviceInfo, TaskGetAddress}
}

// ParseTask validates a task name.
func ParseTask(s string) (Task, error) {
	for _, t := range KnownTasks() {
		if s == string(t) {
			return t, nil
		}
	}
	return "", dlerr.WithDetails(dlerr.ErrUnknownTask, map[string]string{"task": s})
}

// StatusCode is one entry in the diagnostic status history, newest first.
type StatusCode struct {
	Acknowledgement Acknowledgement `json:"acknowledgement"`
	StatusCode      string          `json:"status_code"`
}

// TransportError is the single most recent device task failure. It is
// overwritten on every failed operation; no history is retained here.
type TransportError struct {
	Acknowledgement Acknowledgement `json:"acknowledgement"`
	StatusCode      string          `json:"status_code"`
}

// TransportResponse is the single most recent successful step. The
// payload varies by task: device identity, a derived address, or a
// progress notice while the device is working.
type TransportResponse struct {
	Acknowledgement Acknowledgement       `json:"acknowledgement"`
	StatusCode      string                `json:"status_code"`
	AccountIndex    uint32                `json:"account_index"`
	ConfirmAddress  bool                  `json:"confirm_address,omitempty"`
	Device          *transport.DeviceInfo `json:"device,omitempty"`
	Body            []string              `json:"body,omitempty"`
}

// Options configures a task sequence.
type Options struct {
	// AccountIndex selects the hardened account component of the
	// derivation path. Defaults to 0.
	AccountIndex uint32

	// ConfirmAddress requests on-device confirmation of the address.
	ConfirmAddress bool
}

// State is the complete session state surface. Manager hands out deep
// copies; presentation layers never share memory with the manager.
type State struct {
	Pairing      PairingStatus         `json:"pairing"`
	Importing    bool                  `json:"importing"`
	StatusCodes  []StatusCode          `json:"status_codes"`
	LastError    *TransportError       `json:"last_error,omitempty"`
	LastResponse *TransportResponse    `json:"last_response,omitempty"`
	Device       *transport.DeviceInfo `json:"device,omitempty"`
}

// clone returns a deep copy of the state.
func (s *State) clone() State {
	out := State{
		Pairing:   s.Pairing,
		Importing: s.Importing,
	}
	if len(s.StatusCodes) > 0 {
		out.StatusCodes = make([]StatusCode, len(s.StatusCodes))
		copy(out.StatusCodes, s.StatusCodes)
	}
	if s.LastError != nil {
		e := *s.LastError
		out.LastError = &e
	}
	if s.LastResponse != nil {
		r := *s.LastResponse
		out.LastResponse = &r
		if s.LastResponse.Body != nil {
			r.Body = make([]string, len(s.LastResponse.Body))
			copy(r.Body, s.LastResponse.Body)
		}
		if s.LastResponse.Device != nil {
			d := *s.LastResponse.Device
			r.Device = &d
		}
	}
	if s.Device != nil {
		d := *s.Device
		out.Device = &d
	}
	return out
}

// AddressClient is the protocol surface the task loop needs from a
// client constructed over an open transport.
type AddressClient interface {
	GetVersion(ctx context.Context) (*substrate.AppVersion, error)
	GetAddress(ctx context.Context, path substrate.Path, confirm bool) (*substrate.AddressResult, error)
}

// ClientFactory constructs a protocol client over an open transport.
type ClientFactory func(t transport.Transport) AddressClient
