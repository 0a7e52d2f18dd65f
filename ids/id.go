// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/frostlabs/snowgo/utils/cb58"
)

// IDLen is the number of bytes in an ID
const IDLen = 32

var (
	// Empty is a useful all-zero value
	Empty = ID{}

	errMissingQuotes = errors.New("first and last characters should be quotes")
)

// ID wraps a 32 byte hash used as an identifier
type ID [IDLen]byte

// ToID attempts to convert a byte slice into an id
func ToID(b []byte) (ID, error) {
	var id ID
	if len(b) != IDLen {
		return id, fmt.Errorf("expected %d bytes but got %d", IDLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// FromString is the inverse of ID.String()
func FromString(idStr string) (ID, error) {
	b, err := cb58.Decode(idStr)
	if err != nil {
		return ID{}, err
	}
	return ToID(b)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

func (id *ID) UnmarshalJSON(b []byte) error {
	str := string(b)
	if str == "null" {
		return nil
	}
	if len(str) < 2 || str[0] != '"' || str[len(str)-1] != '"' {
		return errMissingQuotes
	}
	var err error
	*id, err = FromString(str[1 : len(str)-1])
	return err
}

// Prefix this id to create a more selective id. This can be used to store
// multiple values under the same key. For example:
// prefix1(id) -> confidence
// prefix2(id) -> vertex
func (id ID) Prefix(prefixes ...uint64) ID {
	buffer := make([]byte, len(prefixes)*8+IDLen)
	for i, prefix := range prefixes {
		binary.BigEndian.PutUint64(buffer[i*8:], prefix)
	}
	copy(buffer[len(prefixes)*8:], id[:])
	return sha256.Sum256(buffer)
}

// Bit returns the bit value at the ith index of the byte array. Returns 0 or 1
func (id ID) Bit(i uint) int {
	byteIndex := i / BitsPerByte
	bitIndex := i % BitsPerByte

	b := id[byteIndex]

	// b = [7, 6, 5, 4, 3, 2, 1, 0]

	b >>= bitIndex

	// b = [0, ..., bitIndex + 1, bitIndex]

	b &= 1

	// b = [0, 0, 0, 0, 0, 0, 0, bitIndex]

	return int(b)
}

// Hex returns a hex encoded string of this id
func (id ID) Hex() string {
	return hex.EncodeToString(id[:])
}

func (id ID) String() string {
	// We assume that the maximum size of a byte slice that can be stringified
	// is at least the length of an ID
	s, _ := cb58.Encode(id[:])
	return s
}

func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// GenerateTestID returns a new ID that should only be used for testing
func GenerateTestID() ID {
	var id ID
	_, _ = rand.Read(id[:])
	return id
}
