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

// Marker - one persisted next-expected-height counter
type Marker int

// all data kinds with a marker
//
// keep in dependency order: a kind never outruns the one it depends on
const (
	HeaderMarker Marker = iota
	BodyMarker
	StateMarker
	ClassMarker
	CompiledClassMarker
	BaseLayerMarker
	markerCount
)

// marker bucket keys
var markerKeys = [markerCount][]byte{
	HeaderMarker:        []byte("header"),
	BodyMarker:          []byte("body"),
	StateMarker:         []byte("state"),
	ClassMarker:         []byte("class"),
	CompiledClassMarker: []byte("compiled-class"),
	BaseLayerMarker:     []byte("base-layer"),
}

// String - marker name for display
func (marker Marker) String() string {
	if marker < 0 || marker >= markerCount {
		return "*Unknown*"
	}
	return string(markerKeys[marker])
}

// Valid - check a marker is one of the defined kinds
func (marker Marker) Valid() bool {
	return marker >= 0 && marker < markerCount
}

// read a marker inside a transaction
//
// a missing marker reads as zero: the next expected height of an
// empty store is the genesis block
func getMarker(tx *bolt.Tx, marker Marker) uint64 {
	if !marker.Valid() {
		logger.Panicf("storage: invalid marker: %d", marker)
	}
	value := Pool.Markers.get(tx, markerKeys[marker])
	if nil == value {
		return 0
	}
	if 8 != len(value) {
		logger.Panicf("storage: truncated marker record for: %s", marker)
	}
	return binary.BigEndian.Uint64(value)
}

// set a marker inside a transaction
func putMarker(tx *bolt.Tx, marker Marker, height uint64) error {
	if !marker.Valid() {
		logger.Panicf("storage: invalid marker: %d", marker)
	}
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, height)
	return Pool.Markers.put(tx, markerKeys[marker], value)
}
