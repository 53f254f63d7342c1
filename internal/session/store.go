package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/polagate/dotledger/internal/fileutil"
)

// stateFilePermissions is the permission mode for the state snapshot.
const stateFilePermissions = 0o600

// Store persists the session state surface between processes.
type Store interface {
	// Load returns the persisted state, or nil when none exists.
	Load() (*State, error)

	// Save replaces the persisted state.
	Save(state *State) error
}

// FileStore keeps the state snapshot in a JSON file, written atomically
// so a crash mid-write never leaves a torn snapshot behind.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted state. A missing file yields a nil state. A
// corrupted file is removed and also yields a nil state, so a damaged
// snapshot never wedges the session manager.
func (s *FileStore) Load() (*State, error) {
	// #nosec G304 -- path is constructed from the validated home directory
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		_ = os.Remove(s.path)
		return nil, nil
	}

	// Re-apply the history bound in case an older snapshot predates it.
	if len(state.StatusCodes) > MaxStatusCodes {
		state.StatusCodes = state.StatusCodes[:MaxStatusCodes]
	}
	if state.Pairing == "" {
		state.Pairing = PairingUnknown
	}

	return &state, nil
}

// Save writes the state snapshot atomically, creating the parent
// directory on first use.
func (s *FileStore) Save(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return fileutil.WriteAtomic(s.path, data, stateFilePermissions)
}
