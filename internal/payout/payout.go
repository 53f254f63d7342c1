// Package payout defines the data contract consumed by payout list
// views: the per-batch entry value object and the list-format state
// holder.
package payout

import "sync"

// Entry is one row in a payout list. Address is nil until the payout
// destination is known.
type Entry struct {
	Address    *string `json:"address"`
	Last       bool    `json:"last,omitempty"`
	BatchKey   string  `json:"batch_key"`
	BatchIndex int     `json:"batch_index"`
}

// DefaultListFormat is the initial payout list rendering format.
const DefaultListFormat = "compact"

// ListFormatState holds the user-selected payout list format.
type ListFormatState struct {
	mu     sync.RWMutex
	format string
}

// NewListFormatState creates a state holder with the default format.
func NewListFormatState() *ListFormatState {
	return &ListFormatState{format: DefaultListFormat}
}

// ListFormat returns the current list format.
func (s *ListFormatState) ListFormat() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

// SetListFormat replaces the current list format.
func (s *ListFormatState) SetListFormat(format string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = format
}
