// Package substrate implements the Polkadot Ledger app command set over
// a device transport.
package substrate

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	dlerr "github.com/polagate/dotledger/pkg/errors"
)

// BIP44 constants for Polkadot derivation.
const (
	// Purpose is the BIP44 purpose component.
	Purpose uint32 = 44

	// CoinTypePolkadot is the SLIP-44 registered coin type for DOT.
	CoinTypePolkadot uint32 = 354

	// hardened is the BIP32 hardened key offset.
	hardened uint32 = 0x80000000

	// pathComponents is the fixed number of components in the path.
	pathComponents = 5
)

// Path identifies which account the device should derive. Only the
// account index varies; purpose, coin type and the trailing change and
// address-index components are fixed.
type Path struct {
	Account uint32
}

// NewPath returns the derivation path for an account index.
func NewPath(account uint32) Path {
	return Path{Account: account}
}

// String renders the path as 44'/354'/{account}'/0/0.
func (p Path) String() string {
	return fmt.Sprintf("%d'/%d'/%d'/0/0", Purpose, CoinTypePolkadot, p.Account)
}

// Serialize encodes the path for the device: five little-endian uint32
// components with the hardened bit set on the first three.
func (p Path) Serialize() []byte {
	components := [pathComponents]uint32{
		Purpose | hardened,
		CoinTypePolkadot | hardened,
		p.Account | hardened,
		0,
		0,
	}

	out := make([]byte, 4*pathComponents)
	for i, c := range components {
		binary.LittleEndian.PutUint32(out[4*i:], c)
	}
	return out
}

// ParsePath parses a 44'/354'/{account}'/0/0 string. Any other shape is
// rejected: the device session only ever derives on this template.
func ParsePath(s string) (Path, error) {
	parts := strings.Split(strings.TrimPrefix(s, "m/"), "/")
	if len(parts) != pathComponents {
		return Path{}, dlerr.WithDetails(dlerr.ErrInvalidDerivationPath,
			map[string]string{"path": s})
	}

	want := []string{
		strconv.FormatUint(uint64(Purpose), 10) + "'",
		strconv.FormatUint(uint64(CoinTypePolkadot), 10) + "'",
		"", // account, parsed below
		"0",
		"0",
	}
	for i, p := range parts {
		if i == 2 {
			continue
		}
		if p != want[i] {
			return Path{}, dlerr.WithDetails(dlerr.ErrInvalidDerivationPath,
				map[string]string{"path": s})
		}
	}

	account := strings.TrimSuffix(parts[2], "'")
	if account == parts[2] {
		return Path{}, dlerr.WithDetails(dlerr.ErrInvalidDerivationPath,
			map[string]string{"path": s, "reason": "account component must be hardened"})
	}

	idx, err := strconv.ParseUint(account, 10, 32)
	if err != nil || uint32(idx) >= hardened {
		return Path{}, dlerr.WithDetails(dlerr.ErrInvalidDerivationPath,
			map[string]string{"path": s, "reason": "invalid account index"})
	}

	return Path{Account: uint32(idx)}, nil
}
