// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package staterecord

import (
	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/util"
)

// PackedClass - packed records are just a byte slice
type PackedClass []byte

// MaximumDefinitionSize - limit on a class definition blob
const MaximumDefinitionSize = 16 << 20 // 16 MiB

// Class - a contract class definition
//
// content-addressed: the hash is the digest of the definition bytes,
// a class is stored once no matter how many heights declare it
type Class struct {
	Version    uint16 `json:"version"`
	Definition []byte `json:"definition"`
}

// CompiledClass - the compiled form of a class
//
// shares the packed representation with Class, keyed by its own digest
type CompiledClass = Class

// Hash - the content address of the class
func (class *Class) Hash() blockdigest.Digest {
	return blockdigest.NewDigest(class.Definition)
}

// Pack - turn a class into a byte slice
//
// varint packing as: version, definition length, definition
func (class *Class) Pack() PackedClass {
	buffer := util.ToVarint64(uint64(class.Version))
	buffer = append(buffer, util.ToVarint64(uint64(len(class.Definition)))...)
	buffer = append(buffer, class.Definition...)
	return buffer
}

// Unpack - turn a byte slice back into a class
func (record PackedClass) Unpack() (*Class, error) {

	class := &Class{}

	version, n := util.FromVarint64(record)
	if 0 == n || version < MinimumVersion || version > Version {
		return nil, fault.DeserializationFailed
	}
	class.Version = uint16(version)
	record = record[n:]

	length, n := util.FromVarint64(record)
	if 0 == n || length > MaximumDefinitionSize {
		return nil, fault.DeserializationFailed
	}
	record = record[n:]

	if uint64(len(record)) != length {
		return nil, fault.DeserializationFailed
	}
	class.Definition = append([]byte{}, record...)

	return class, nil
}
