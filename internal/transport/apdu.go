package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HID framing constants for Ledger devices.
const (
	// Channel identifies the logical APDU channel inside HID reports.
	Channel uint16 = 0x0101

	// PacketSize is the fixed HID report size.
	PacketSize = 64

	tagAPDU byte = 0x05

	// packetHeaderLen covers channel (2), tag (1) and sequence (2).
	packetHeaderLen = 5
)

var (
	// ErrCommandTooShort indicates an APDU below the 5-byte minimum.
	ErrCommandTooShort = errors.New("APDU command shorter than 5 bytes")

	errPacketTooShort = errors.New("HID packet shorter than header")
	errBadChannel     = errors.New("unexpected channel in HID packet")
	errBadTag         = errors.New("unexpected tag in HID packet")
	errBadSequence    = errors.New("unexpected sequence in HID packet")
)

// FrameCommand splits an APDU command into fixed-size HID report
// payloads. Every packet carries channel, tag and a sequence number;
// the first packet additionally prefixes the total command length.
func FrameCommand(command []byte) [][]byte {
	var packets [][]byte

	seq := uint16(0)
	offset := 0
	for offset < len(command) || seq == 0 {
		packet := make([]byte, PacketSize)
		binary.BigEndian.PutUint16(packet[0:2], Channel)
		packet[2] = tagAPDU
		binary.BigEndian.PutUint16(packet[3:5], seq)

		payload := packet[packetHeaderLen:]
		if seq == 0 {
			binary.BigEndian.PutUint16(payload[0:2], uint16(len(command))) //nolint:gosec // G115: APDU length fits uint16
			payload = payload[2:]
		}

		n := copy(payload, command[offset:])
		offset += n
		seq++

		packets = append(packets, packet)
	}

	return packets
}

// ResponseAccumulator reassembles an APDU response from a sequence of
// HID report payloads.
type ResponseAccumulator struct {
	expected int
	data     []byte
	nextSeq  uint16
	started  bool
}

// Add consumes one HID packet. It reports true once the full response
// has been assembled.
func (a *ResponseAccumulator) Add(packet []byte) (bool, error) {
	if len(packet) < packetHeaderLen {
		return false, errPacketTooShort
	}
	if binary.BigEndian.Uint16(packet[0:2]) != Channel {
		return false, errBadChannel
	}
	if packet[2] != tagAPDU {
		return false, errBadTag
	}

	seq := binary.BigEndian.Uint16(packet[3:5])
	if seq != a.nextSeq {
		return false, fmt.Errorf("%w: got %d, want %d", errBadSequence, seq, a.nextSeq)
	}
	a.nextSeq++

	payload := packet[packetHeaderLen:]
	if !a.started {
		if len(payload) < 2 {
			return false, errPacketTooShort
		}
		a.expected = int(binary.BigEndian.Uint16(payload[0:2]))
		payload = payload[2:]
		a.started = true
	}

	remaining := a.expected - len(a.data)
	if len(payload) > remaining {
		payload = payload[:remaining]
	}
	a.data = append(a.data, payload...)

	return len(a.data) >= a.expected, nil
}

// Response returns the assembled response bytes.
func (a *ResponseAccumulator) Response() []byte {
	return a.data
}
