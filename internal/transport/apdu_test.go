package transport

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameCommand_SinglePacket(t *testing.T) {
	t.Parallel()

	command := []byte{0x90, 0x01, 0x00, 0x00, 0x00}
	packets := FrameCommand(command)

	require.Len(t, packets, 1)
	packet := packets[0]
	require.Len(t, packet, PacketSize)

	assert.Equal(t, Channel, binary.BigEndian.Uint16(packet[0:2]))
	assert.Equal(t, byte(0x05), packet[2])
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(packet[3:5]))
	assert.Equal(t, uint16(len(command)), binary.BigEndian.Uint16(packet[5:7]))
	assert.Equal(t, command, packet[7:7+len(command)])
}

func TestFrameCommand_MultiPacket(t *testing.T) {
	t.Parallel()

	command := bytes.Repeat([]byte{0xAB}, 150)
	packets := FrameCommand(command)

	// 57 bytes fit in the first packet, 59 in each continuation.
	require.Len(t, packets, 3)
	for i, packet := range packets {
		assert.Equal(t, uint16(i), binary.BigEndian.Uint16(packet[3:5])) //nolint:gosec // G115: small test index
	}
}

func TestResponseAccumulator_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int
	}{
		{name: "short response", size: 34},
		{name: "exactly one packet", size: PacketSize - 7},
		{name: "multi packet", size: 200},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload := make([]byte, tt.size)
			for i := range payload {
				payload[i] = byte(i)
			}

			// Framing is symmetric, so reuse the command framer to
			// simulate device response packets.
			var acc ResponseAccumulator
			done := false
			for _, packet := range FrameCommand(payload) {
				var err error
				done, err = acc.Add(packet)
				require.NoError(t, err)
			}

			assert.True(t, done)
			assert.Equal(t, payload, acc.Response())
		})
	}
}

func TestResponseAccumulator_Rejects(t *testing.T) {
	t.Parallel()

	t.Run("short packet", func(t *testing.T) {
		t.Parallel()
		var acc ResponseAccumulator
		_, err := acc.Add([]byte{0x01, 0x01})
		assert.Error(t, err)
	})

	t.Run("wrong channel", func(t *testing.T) {
		t.Parallel()
		packet := make([]byte, PacketSize)
		binary.BigEndian.PutUint16(packet[0:2], 0x0202)
		packet[2] = 0x05

		var acc ResponseAccumulator
		_, err := acc.Add(packet)
		assert.Error(t, err)
	})

	t.Run("out of order sequence", func(t *testing.T) {
		t.Parallel()
		packets := FrameCommand(bytes.Repeat([]byte{0x01}, 150))

		var acc ResponseAccumulator
		_, err := acc.Add(packets[0])
		require.NoError(t, err)
		_, err = acc.Add(packets[2])
		assert.Error(t, err)
	})
}
