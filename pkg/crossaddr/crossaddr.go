// Package crossaddr normalizes user identities that may live in either of two
// disjoint address spaces (a 20-byte EVM account or a 32-byte native account)
// into one canonical, comparable cross-chain identity.
package crossaddr

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
)

// Space identifies the address space that effectively owns a CrossAddress.
type Space uint8

const (
	SpaceUnknown Space = iota
	SpaceEVM
	SpaceNative
)

func (s Space) String() string {
	switch s {
	case SpaceEVM:
		return "evm"
	case SpaceNative:
		return "native"
	}
	return "unknown"
}

// CrossAddress is a tagged identity: exactly one address space is populated.
// The zero value of the opposite space is the canonical absent marker.
// Construct through FromEVM, FromNative or Resolve; the exactly-one invariant
// is enforced at the boundary, never downstream.
type CrossAddress struct {
	space Space
	eth   common.Address
	sub   common.AccountID
}

func FromEVM(addr common.Address) CrossAddress {
	return CrossAddress{space: SpaceEVM, eth: addr}
}

func FromNative(id common.AccountID) CrossAddress {
	return CrossAddress{space: SpaceNative, sub: id}
}

// Resolve produces the canonical CrossAddress for a pair of sub-fields of
// which exactly one must be populated. A 20-byte value is never reinterpreted
// as the 32-byte space and vice versa.
func Resolve(eth common.Address, sub common.AccountID) (CrossAddress, error) {
	switch {
	case !eth.IsZero() && !sub.IsZero():
		return CrossAddress{}, errors.Wrap(errs.InvalidIdentity, "both address spaces populated")
	case !eth.IsZero():
		return FromEVM(eth), nil
	case !sub.IsZero():
		return FromNative(sub), nil
	}
	return CrossAddress{}, errors.Wrap(errs.InvalidIdentity, "no address space populated")
}

func (c CrossAddress) Space() Space { return c.space }

// EVM returns the 20-byte account and reports whether the EVM space owns this identity.
func (c CrossAddress) EVM() (common.Address, bool) {
	return c.eth, c.space == SpaceEVM
}

// Native returns the 32-byte account and reports whether the native space owns this identity.
func (c CrossAddress) Native() (common.AccountID, bool) {
	return c.sub, c.space == SpaceNative
}

func (c CrossAddress) IsZero() bool { return c.space == SpaceUnknown }

// Equal reports identity equality. Identities from different spaces never
// compare equal, regardless of payload bytes.
func (c CrossAddress) Equal(other CrossAddress) bool {
	return c.space == other.space && c.eth == other.eth && c.sub == other.sub
}

// Key returns the canonical comparable form, e.g. "evm:0x..." or "native:0x...".
func (c CrossAddress) Key() string {
	switch c.space {
	case SpaceEVM:
		return "evm:" + c.eth.String()
	case SpaceNative:
		return "native:" + c.sub.String()
	}
	return ""
}

func (c CrossAddress) String() string { return c.Key() }

// ParseKey parses the canonical form produced by Key.
func ParseKey(key string) (CrossAddress, error) {
	switch {
	case strings.HasPrefix(key, "evm:"):
		eth, err := common.HexToAddress(strings.TrimPrefix(key, "evm:"))
		if err != nil {
			return CrossAddress{}, errors.Wrap(errs.InvalidIdentity, err.Error())
		}
		return Resolve(eth, common.AccountID{})
	case strings.HasPrefix(key, "native:"):
		sub, err := common.HexToAccountID(strings.TrimPrefix(key, "native:"))
		if err != nil {
			return CrossAddress{}, errors.Wrap(errs.InvalidIdentity, err.Error())
		}
		return Resolve(common.Address{}, sub)
	}
	return CrossAddress{}, errors.Wrapf(errs.InvalidIdentity, "malformed cross-address key %q", key)
}

// wireCrossAddress is the SDK wire form: {"eth": "0x...", "sub": "0x..."},
// with the absent space carried as its zero marker.
type wireCrossAddress struct {
	Eth common.Address   `json:"eth"`
	Sub common.AccountID `json:"sub"`
}

func (c CrossAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireCrossAddress{Eth: c.eth, Sub: c.sub})
}

func (c *CrossAddress) UnmarshalJSON(data []byte) error {
	var wire wireCrossAddress
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.Wrap(errs.InvalidIdentity, err.Error())
	}
	resolved, err := Resolve(wire.Eth, wire.Sub)
	if err != nil {
		return err
	}
	*c = resolved
	return nil
}
