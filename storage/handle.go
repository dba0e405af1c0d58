// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"github.com/bitmark-inc/logger"
)

// PoolHandle - a named typed partition of the key space
//
// a handle carries no transaction state; all access goes through a
// Reader or Writer which supplies the transaction
type PoolHandle struct {
	name []byte
}

// Element - a binary key/value pair
type Element struct {
	Key   []byte
	Value []byte
}

// Name - bucket name for display
func (p *PoolHandle) Name() string {
	return string(p.name)
}

// locate the bucket inside a transaction
//
// all buckets are created during Initialise so a missing bucket is a
// corrupted or foreign file
func (p *PoolHandle) bucket(tx *bolt.Tx) *bolt.Bucket {
	bucket := tx.Bucket(p.name)
	if nil == bucket {
		logger.Panicf("storage: missing bucket: %q", p.name)
	}
	return bucket
}

// HeightKey - big endian height so byte order matches numeric order
//
// range scans over height-keyed buckets return ascending heights
func HeightKey(height uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, height)
	return key
}

// HeightFromKey - reverse of HeightKey
func HeightFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

// read a value for a given key
//
// the returned slice is only valid inside the owning transaction -
// copy the result if it must be preserved
func (p *PoolHandle) get(tx *bolt.Tx, key []byte) []byte {
	return p.bucket(tx).Get(key)
}

// store a key/value bytes pair
func (p *PoolHandle) put(tx *bolt.Tx, key []byte, value []byte) error {
	return p.bucket(tx).Put(key, value)
}

// remove a key
func (p *PoolHandle) remove(tx *bolt.Tx, key []byte) error {
	return p.bucket(tx).Delete(key)
}

// check if a key exists
func (p *PoolHandle) has(tx *bolt.Tx, key []byte) bool {
	return nil != p.bucket(tx).Get(key)
}

// read a record and decode first 8 bytes as big endian uint64
// and return the rest of the record as byte slice
//
// second result is nil if the record was not found
// panics if not 9 (or more) bytes in the record
func (p *PoolHandle) getNB(tx *bolt.Tx, key []byte) (uint64, []byte) {
	buffer := p.get(tx, key)
	if nil == buffer {
		return 0, nil
	}
	if len(buffer) < 9 { // must have at least one byte after the N value
		logger.Panicf("pool.getNB truncated record for: %x", key)
	}
	n := binary.BigEndian.Uint64(buffer[:8])
	return n, buffer[8:]
}

// store a record as 8 byte big endian uint64 followed by data bytes
func (p *PoolHandle) putNB(tx *bolt.Tx, key []byte, n uint64, value []byte) error {
	buffer := make([]byte, 8, 8+len(value))
	binary.BigEndian.PutUint64(buffer, n)
	return p.put(tx, key, append(buffer, value...))
}

// lastElement - get the last element in a pool
func (p *PoolHandle) lastElement(tx *bolt.Tx) (Element, bool) {

	cursor := p.bucket(tx).Cursor()
	key, value := cursor.Last()
	if nil == key {
		return Element{}, false
	}

	dataKey := make([]byte, len(key))
	copy(dataKey, key)
	dataValue := make([]byte, len(value))
	copy(dataValue, value)

	return Element{Key: dataKey, Value: dataValue}, true
}
