package substrate

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polagate/dotledger/internal/transport"
)

// fakeTransport replays canned responses and records every command.
type fakeTransport struct {
	responses [][]byte
	commands  [][]byte
	err       error
}

func (f *fakeTransport) Exchange(command []byte) ([]byte, error) {
	f.commands = append(f.commands, command)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("no canned response")
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func (f *fakeTransport) Info() transport.DeviceInfo {
	return transport.DeviceInfo{ID: "0001", ProductName: "Nano X"}
}

func (f *fakeTransport) Close() error { return nil }

func withStatus(payload []byte, sw uint16) []byte {
	out := make([]byte, 0, len(payload)+2)
	out = append(out, payload...)
	return binary.BigEndian.AppendUint16(out, sw)
}

func TestClient_GetVersion(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{responses: [][]byte{
		withStatus([]byte{0x00, 0x01, 0x42, 0x07}, 0x9000),
	}}

	version, err := NewClient(ft).GetVersion(context.Background())
	require.NoError(t, err)
	assert.False(t, version.TestMode)
	assert.Equal(t, "1.66.7", version.String())

	require.Len(t, ft.commands, 1)
	assert.Equal(t, []byte{0x90, 0x00, 0x00, 0x00, 0x00}, ft.commands[0])
}

func TestClient_GetAddress(t *testing.T) {
	t.Parallel()

	pubKey := bytes.Repeat([]byte{0xAA}, 32)
	address := []byte("15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5")
	ft := &fakeTransport{responses: [][]byte{
		withStatus(append(pubKey, address...), 0x9000),
	}}

	result, err := NewClient(ft).GetAddress(context.Background(), NewPath(2), false)
	require.NoError(t, err)
	assert.Equal(t, string(address), result.Address)
	assert.Len(t, result.PubKey, 64)

	require.Len(t, ft.commands, 1)
	command := ft.commands[0]
	assert.Equal(t, byte(0x90), command[0])
	assert.Equal(t, byte(0x01), command[1])
	assert.Equal(t, byte(0x00), command[2]) // silent
	assert.Equal(t, byte(20), command[4])
	assert.Equal(t, NewPath(2).Serialize(), command[5:])
}

func TestClient_GetAddress_Confirm(t *testing.T) {
	t.Parallel()

	pubKey := bytes.Repeat([]byte{0x01}, 32)
	ft := &fakeTransport{responses: [][]byte{
		withStatus(append(pubKey, []byte("addr")...), 0x9000),
	}}

	_, err := NewClient(ft).GetAddress(context.Background(), NewPath(0), true)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), ft.commands[0][2])
}

func TestClient_StatusError(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{responses: [][]byte{
		withStatus(nil, 0x6e00),
	}}

	_, err := NewClient(ft).GetAddress(context.Background(), NewPath(0), false)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, uint16(0x6e00), se.Word)
	assert.Contains(t, se.Error(), "app not open")
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{err: errors.New("usb gone")}

	_, err := NewClient(ft).GetVersion(context.Background())
	assert.ErrorContains(t, err, "usb gone")
}

func TestClient_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ft := &fakeTransport{}
	_, err := NewClient(ft).GetAddress(ctx, NewPath(0), false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ft.commands)
}

func TestClient_ShortAddressResponse(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{responses: [][]byte{
		withStatus(bytes.Repeat([]byte{0x01}, 16), 0x9000),
	}}

	_, err := NewClient(ft).GetAddress(context.Background(), NewPath(0), false)
	assert.ErrorContains(t, err, "too short")
}
