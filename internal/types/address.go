package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// AddrSize is the expected length of an account address in bytes.
const AddrSize = 20

// Address is the 20-byte public-key hash identifying an account.
// Its textual form is plain uppercase hex without a 0x prefix, matching
// what the node and the signer expect on the wire.
type Address [AddrSize]byte

var EmptyAddress = Address{}

// BytesToAddress returns the Address with value b.
// If b is larger than AddrSize, b is cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress parses s (with or without a 0x prefix) into an Address.
func HexToAddress(s string) (Address, error) {
	var a Address
	if err := a.Set(s); err != nil {
		return EmptyAddress, err
	}
	return a, nil
}

func (a Address) Bytes() []byte { return a[:] }

// Hex returns the uppercase hex representation without a prefix.
func (a Address) Hex() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

func (a Address) String() string {
	return a.Hex()
}

func (a Address) Equal(b Address) bool {
	return bytes.Equal(a[:], b[:])
}

func (a Address) IsEmpty() bool {
	return a.Equal(EmptyAddress)
}

// SetBytes sets the address to the value of b.
// If b is larger than AddrSize, b is cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddrSize:]
	}
	copy(a[AddrSize-len(b):], b)
}

// Set parses the textual address form. Implements pflag.Value together
// with String and Type.
func (a *Address) Set(s string) error {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(b) != AddrSize {
		return fmt.Errorf("invalid address length %d, expected %d bytes", len(b), AddrSize)
	}
	copy(a[:], b)
	return nil
}

func (a Address) Type() string {
	return "Address"
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(input []byte) error {
	return a.Set(string(input))
}
