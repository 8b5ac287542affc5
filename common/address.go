package common

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	AddressLength   = 20
	AccountIDLength = 32
)

// Address is a 20-byte account reference in the EVM address space.
type Address [AddressLength]byte

// AccountID is a 32-byte account reference in the native address space.
type AccountID [AccountIDLength]byte

func HexToAddress(s string) (Address, error) {
	var addr Address
	b, err := decodeHex(s, AddressLength)
	if err != nil {
		return Address{}, errors.Wrap(err, "invalid address")
	}
	copy(addr[:], b)
	return addr, nil
}

func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, errors.Errorf("invalid address length: %d", len(b))
	}
	var addr Address
	copy(addr[:], b)
	return addr, nil
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := HexToAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

func HexToAccountID(s string) (AccountID, error) {
	var id AccountID
	b, err := decodeHex(s, AccountIDLength)
	if err != nil {
		return AccountID{}, errors.Wrap(err, "invalid account id")
	}
	copy(id[:], b)
	return id, nil
}

func (id AccountID) Bytes() []byte { return id[:] }

func (id AccountID) IsZero() bool { return id == AccountID{} }

func (id AccountID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AccountID) UnmarshalText(text []byte) error {
	parsed, err := HexToAccountID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// decodeHex accepts "0x"-prefixed or bare hex. The literal "0" is accepted as
// the zero value to keep parity with the SDK wire form ({eth: ..., sub: 0}).
func decodeHex(s string, length int) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" || s == "0" {
		return make([]byte, length), nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(b) != length {
		return nil, errors.Errorf("expected %d bytes, got %d", length, len(b))
	}
	return b, nil
}
