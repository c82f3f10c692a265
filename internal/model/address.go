package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
)

// AddressLen is the size in bytes of an account or contract address.
const AddressLen = 32

// Address identifies an account or an event contract.  Its text form is
// 64 lowercase hex characters.  The zero Address is never assigned to an
// account and is treated as "unset".
type Address [AddressLen]byte

// ErrInvalidAddress is returned when a text or byte address cannot be decoded.
var ErrInvalidAddress = errors.New("invalid address")

// NewAddress returns a random address for a freshly registered account.
func NewAddress() (Address, error) {
	var a Address
	if _, err := rand.Read(a[:]); err != nil {
		return Address{}, err
	}
	return a, nil
}

// ContractAddress derives the escrow address of an event instance.  Tokens
// that have not been claimed yet are held by this address.
func ContractAddress(instanceID uint64) Address {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], instanceID)
	h := sha256.New()
	h.Write([]byte("ticket-escrow/instance/"))
	h.Write(id[:])
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// ParseAddress decodes the hex text form of an address.
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != AddressLen*2 {
		return Address{}, ErrInvalidAddress
	}
	var a Address
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return Address{}, ErrInvalidAddress
	}
	return a, nil
}

// AddressFromBytes copies a 32-byte slice (for example a BINARY(32) column)
// into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressLen {
		return Address{}, ErrInvalidAddress
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// IsZero reports whether a is the unset address.
func (a Address) IsZero() bool { return a == Address{} }

// String returns the hex form of the address.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// MarshalText implements encoding.TextMarshaler so addresses serialize as
// hex strings in JSON.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
