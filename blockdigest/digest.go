// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdigest

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/lumen-rollup/lumend/fault"
)

// Length - number of bytes in the digest
const Length = 32

// Digest - type for a digest
//
// stored and transmitted as a fixed byte array
// represented as a hex string for print and JSON
type Digest [Length]byte

// NewDigest - create a digest from a byte slice
func NewDigest(record []byte) Digest {
	return Digest(sha3.Sum256(record))
}

// DigestFromBytes - convert and validate a byte slice
func DigestFromBytes(digest *Digest, buffer []byte) error {
	if Length != len(buffer) {
		return fault.DeserializationFailed
	}
	copy(digest[:], buffer)
	return nil
}

// IsEmpty - true if the digest is all zero
func (digest Digest) IsEmpty() bool {
	return digest == Digest{}
}

// String - convert a binary digest to hex string for use by the fmt package (for %s)
func (digest Digest) String() string {
	return hex.EncodeToString(digest[:])
}

// GoString - convert a binary digest to hex string for use by the fmt package (for %#v)
func (digest Digest) GoString() string {
	return "<SHA3-256:" + hex.EncodeToString(digest[:]) + ">"
}

// MarshalText - convert digest to hex text
func (digest Digest) MarshalText() ([]byte, error) {
	size := hex.EncodedLen(Length)
	buffer := make([]byte, size)
	hex.Encode(buffer, digest[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a digest
func (digest *Digest) UnmarshalText(s []byte) error {
	if hex.EncodedLen(Length) != len(s) {
		return fault.DeserializationFailed
	}
	buffer := make([]byte, Length)
	byteCount, err := hex.Decode(buffer, s)
	if nil != err {
		return err
	}
	if Length != byteCount {
		return fault.DeserializationFailed
	}
	copy(digest[:], buffer)
	return nil
}
