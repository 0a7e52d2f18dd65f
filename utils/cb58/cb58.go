// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cb58

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"math"

	"github.com/mr-tron/base58/base58"
)

const checksumLen = 4

var (
	ErrEncodingOverflow = errors.New("encoding overflow")
	ErrBase58Decoding   = errors.New("base58 decoding error")
	ErrMissingChecksum  = errors.New("input string is smaller than the checksum size")
	ErrBadChecksum      = errors.New("invalid input checksum")
)

// Encode [b] to a string using cb58 format. [b] may be nil, in which case it
// will be treated the same as an empty slice.
func Encode(b []byte) (string, error) {
	bLen := len(b)
	if bLen > math.MaxInt32-checksumLen {
		return "", ErrEncodingOverflow
	}
	checked := make([]byte, bLen+checksumLen)
	copy(checked, b)
	hash := sha256.Sum256(b)
	copy(checked[bLen:], hash[len(hash)-checksumLen:])
	return base58.Encode(checked), nil
}

// Decode [str] to bytes from cb58
func Decode(str string) ([]byte, error) {
	decodedBytes, err := base58.Decode(str)
	if err != nil {
		return nil, ErrBase58Decoding
	}
	if len(decodedBytes) < checksumLen {
		return nil, ErrMissingChecksum
	}
	rawBytes := decodedBytes[:len(decodedBytes)-checksumLen]
	checksum := decodedBytes[len(decodedBytes)-checksumLen:]
	hash := sha256.Sum256(rawBytes)
	if !bytes.Equal(hash[len(hash)-checksumLen:], checksum) {
		return nil, ErrBadChecksum
	}
	return rawBytes, nil
}
