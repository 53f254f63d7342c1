package substrate

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/polagate/dotledger/internal/transport"
)

// Polkadot app APDU constants.
const (
	claPolkadot byte = 0x90

	insGetVersion byte = 0x00
	insGetAddress byte = 0x01

	p1Silent  byte = 0x00
	p1Confirm byte = 0x01

	// swOK is the APDU success status word.
	swOK uint16 = 0x9000
)

// apduStatusText maps known failure status words to readable messages.
// Anything absent from the table is reported by its raw value.
var apduStatusText = map[uint16]string{
	0x6400: "execution error",
	0x6982: "empty buffer",
	0x6983: "output buffer too small",
	0x6985: "request rejected on device",
	0x6986: "command not allowed",
	0x6a80: "invalid request data",
	0x6d00: "instruction not supported",
	0x6e00: "app not open or wrong app",
	0x6f00: "unknown device error",
}

// StatusError is a non-success APDU status word returned by the device.
type StatusError struct {
	Word uint16
}

func (e *StatusError) Error() string {
	if text, ok := apduStatusText[e.Word]; ok {
		return fmt.Sprintf("device returned %#04x: %s", e.Word, text)
	}
	return fmt.Sprintf("device returned %#04x", e.Word)
}

// AddressResult is the outcome of an on-device address derivation.
type AddressResult struct {
	// PubKey is the hex-encoded 32-byte public key.
	PubKey string `json:"pub_key"`

	// Address is the SS58-encoded address reported by the device.
	Address string `json:"address"`
}

// AppVersion identifies the Polkadot app running on the device.
type AppVersion struct {
	TestMode bool  `json:"test_mode"`
	Major    uint8 `json:"major"`
	Minor    uint8 `json:"minor"`
	Patch    uint8 `json:"patch"`
}

func (v AppVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Client speaks the Polkadot app command set over an open transport.
// The transport stays owned by the caller; Client never closes it.
type Client struct {
	t transport.Transport
}

// NewClient constructs a protocol client over an open transport.
func NewClient(t transport.Transport) *Client {
	return &Client{t: t}
}

// GetVersion queries the version of the Polkadot app.
func (c *Client) GetVersion(ctx context.Context) (*AppVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := c.exchange([]byte{claPolkadot, insGetVersion, 0, 0, 0})
	if err != nil {
		return nil, err
	}
	if len(payload) < 4 {
		return nil, fmt.Errorf("version response too short: %d bytes", len(payload))
	}

	return &AppVersion{
		TestMode: payload[0] != 0,
		Major:    payload[1],
		Minor:    payload[2],
		Patch:    payload[3],
	}, nil
}

// GetAddress derives the address for the given path on the device.
// When confirm is true the device shows the address and waits for the
// user to approve it.
func (c *Client) GetAddress(ctx context.Context, path Path, confirm bool) (*AddressResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p1 := p1Silent
	if confirm {
		p1 = p1Confirm
	}

	serialized := path.Serialize()
	command := make([]byte, 0, 5+len(serialized))
	command = append(command, claPolkadot, insGetAddress, p1, 0, byte(len(serialized)))
	command = append(command, serialized...)

	payload, err := c.exchange(command)
	if err != nil {
		return nil, err
	}

	const pubKeyLen = 32
	if len(payload) <= pubKeyLen {
		return nil, fmt.Errorf("address response too short: %d bytes", len(payload))
	}

	return &AddressResult{
		PubKey:  hex.EncodeToString(payload[:pubKeyLen]),
		Address: string(payload[pubKeyLen:]),
	}, nil
}

// exchange sends a command and strips the trailing status word,
// converting non-success words into a StatusError.
func (c *Client) exchange(command []byte) ([]byte, error) {
	response, err := c.t.Exchange(command)
	if err != nil {
		return nil, err
	}
	if len(response) < 2 {
		return nil, fmt.Errorf("response too short: %d bytes", len(response))
	}

	sw := binary.BigEndian.Uint16(response[len(response)-2:])
	if sw != swOK {
		return nil, &StatusError{Word: sw}
	}

	return response[:len(response)-2], nil
}
