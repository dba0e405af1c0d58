// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/blockrecord"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/staterecord"
)

// Reader - a snapshot view over all pools
//
// every accessor observes the same frozen state as of NewReader; data
// committed afterwards is invisible until a fresh Reader is opened.
// a Reader must be closed to release its bbolt pages.
type Reader struct {
	tx *bolt.Tx
}

// NewReader - open a read transaction snapshot
func NewReader() (*Reader, error) {
	poolData.RLock()
	defer poolData.RUnlock()

	if !poolData.initialised {
		return nil, fault.NotInitialised
	}

	tx, err := poolData.db.Begin(false)
	if nil != err {
		return nil, err
	}
	return &Reader{tx: tx}, nil
}

// Close - release the snapshot
func (r *Reader) Close() {
	if nil != r.tx {
		r.tx.Rollback()
		r.tx = nil
	}
}

// Marker - the next expected height for a data kind
func (r *Reader) Marker(marker Marker) uint64 {
	return getMarker(r.tx, marker)
}

// Header - fetch the stored header at a height
//
// returns the unpacked header and its digest
func (r *Reader) Header(height uint64) (*blockrecord.Header, blockdigest.Digest, error) {
	packed := Pool.Headers.get(r.tx, HeightKey(height))
	if nil == packed {
		return nil, blockdigest.Digest{}, fault.BlockNotFound
	}
	header, err := blockrecord.UnpackHeader(packed)
	if nil != err {
		return nil, blockdigest.Digest{}, err
	}
	return header, blockdigest.NewDigest(packed), nil
}

// HasHeader - check a height without unpacking
func (r *Reader) HasHeader(height uint64) bool {
	return Pool.Headers.has(r.tx, HeightKey(height))
}

// Body - fetch the stored body at a height
func (r *Reader) Body(height uint64) (*blockrecord.Body, error) {
	packed := Pool.Bodies.get(r.tx, HeightKey(height))
	if nil == packed {
		return nil, fault.BlockNotFound
	}
	return blockrecord.PackedBody(packed).Unpack()
}

// StateDiff - fetch the stored state diff at a height
func (r *Reader) StateDiff(height uint64) (*staterecord.StateDiff, error) {
	packed := Pool.StateDiffs.get(r.tx, HeightKey(height))
	if nil == packed {
		return nil, fault.BlockNotFound
	}
	return staterecord.PackedStateDiff(packed).Unpack()
}

// Class - fetch a class by its hash
//
// also returns the height at which the class was first declared
func (r *Reader) Class(hash blockdigest.Digest) (*staterecord.Class, uint64, error) {
	declaredAt, packed := Pool.Classes.getNB(r.tx, hash[:])
	if nil == packed {
		return nil, 0, fault.ClassNotFound
	}
	class, err := staterecord.PackedClass(packed).Unpack()
	if nil != err {
		return nil, 0, err
	}
	return class, declaredAt, nil
}

// HasClass - check a class hash without unpacking
func (r *Reader) HasClass(hash blockdigest.Digest) bool {
	return Pool.Classes.has(r.tx, hash[:])
}

// CompiledClass - fetch a compiled class by its hash
func (r *Reader) CompiledClass(hash blockdigest.Digest) (*staterecord.CompiledClass, uint64, error) {
	declaredAt, packed := Pool.CompiledClasses.getNB(r.tx, hash[:])
	if nil == packed {
		return nil, 0, fault.ClassNotFound
	}
	class, err := staterecord.PackedClass(packed).Unpack()
	if nil != err {
		return nil, 0, err
	}
	return class, declaredAt, nil
}

// NonceAt - the nonce of a contract as of a height
//
// reverse seek: the latest update at or below the requested height
// second result is false if the contract had no nonce update yet
func (r *Reader) NonceAt(address staterecord.Address, height uint64) (uint64, bool) {
	key := versionedKey(address[:], nil, height)
	value := seekAtOrBelow(Pool.ContractNonces.bucket(r.tx), key, address[:])
	if nil == value {
		return 0, false
	}
	if 8 != len(value) {
		fault.Panicf("storage: truncated nonce record for: %s", address)
	}
	return binary.BigEndian.Uint64(value), true
}

// StorageAt - the value of one storage cell as of a height
//
// second result is false if the cell was never written
func (r *Reader) StorageAt(address staterecord.Address, key staterecord.Word, height uint64) (staterecord.Word, bool) {
	prefix := append(append([]byte{}, address[:]...), key[:]...)
	fullKey := versionedKey(address[:], key[:], height)
	value := seekAtOrBelow(Pool.ContractStorage.bucket(r.tx), fullKey, prefix)
	if nil == value {
		return staterecord.Word{}, false
	}
	var word staterecord.Word
	copy(word[:], value)
	return word, true
}

// BaseLayerHead - the most recent base-layer block observed
//
// third result is false before the first base-layer poll completes
func (r *Reader) BaseLayerHead() (uint64, blockdigest.Digest, bool) {
	heightValue := Pool.Metadata.get(r.tx, baseLayerHeightKey)
	digestValue := Pool.Metadata.get(r.tx, baseLayerDigestKey)
	if nil == heightValue || nil == digestValue {
		return 0, blockdigest.Digest{}, false
	}

	var digest blockdigest.Digest
	if 8 != len(heightValue) || nil != blockdigest.DigestFromBytes(&digest, digestValue) {
		fault.Panic("storage: corrupted base layer head records")
	}
	return binary.BigEndian.Uint64(heightValue), digest, true
}

// build the composite versioned key: prefix parts then height
func versionedKey(address []byte, storageKey []byte, height uint64) []byte {
	key := make([]byte, 0, len(address)+len(storageKey)+8)
	key = append(key, address...)
	key = append(key, storageKey...)
	return append(key, HeightKey(height)...)
}

// find the value whose key is the greatest key <= target still
// carrying the given prefix
//
// returns nil if no such key exists
func seekAtOrBelow(bucket *bolt.Bucket, target []byte, prefix []byte) []byte {
	cursor := bucket.Cursor()

	key, value := cursor.Seek(target)
	if bytes.Equal(key, target) {
		return value
	}

	// Seek stopped at the first key after the target (or at the end)
	key, value = cursor.Prev()
	if nil == key || !bytes.HasPrefix(key, prefix) {
		return nil
	}
	return value
}
