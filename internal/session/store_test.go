package session

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polagate/dotledger/internal/transport"
)

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	state := &State{
		Pairing:   Paired,
		Importing: true,
		StatusCodes: []StatusCode{
			{Acknowledgement: AckSuccess, StatusCode: CodeReceivedAddress},
			{Acknowledgement: AckFailure, StatusCode: CodeAppNotOpen},
		},
		LastError: &TransportError{Acknowledgement: AckFailure, StatusCode: CodeAppNotOpen},
		Device:    &transport.DeviceInfo{ID: "serial-9", ProductName: "Nano S Plus"},
	}
	require.NoError(t, store.Save(state))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *state, *loaded)
}

func TestFileStore_MissingFile(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStore_CorruptedFileIsDiscarded(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileStore(path)
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// The damaged snapshot was removed.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_ReappliesHistoryBound(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")

	oversized := &State{Pairing: Paired}
	for i := 0; i < MaxStatusCodes+10; i++ {
		oversized.StatusCodes = append(oversized.StatusCodes,
			StatusCode{Acknowledgement: AckSuccess, StatusCode: fmt.Sprintf("code-%d", i)})
	}
	require.NoError(t, NewFileStore(path).Save(oversized))

	loaded, err := NewFileStore(path).Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Len(t, loaded.StatusCodes, MaxStatusCodes)
	// Newest-first ordering keeps the head intact.
	assert.Equal(t, "code-0", loaded.StatusCodes[0].StatusCode)
}

func TestFileStore_DefaultsPairingWhenAbsent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"importing": false}`), 0o600))

	loaded, err := NewFileStore(path).Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, PairingUnknown, loaded.Pairing)
}
