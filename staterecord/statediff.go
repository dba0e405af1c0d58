// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package staterecord

import (
	"encoding/hex"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/util"
)

// currently supported record version
const (
	Version        = 1
	MinimumVersion = 1
)

// AddressSize - bytes in a contract address
const AddressSize = 32

// Address - a contract address
type Address [AddressSize]byte

// WordSize - bytes in a storage key or value
const WordSize = 32

// Word - one storage key or value
type Word [WordSize]byte

// PackedStateDiff - packed records are just a byte slice
type PackedStateDiff []byte

// flag bits for optional contract update fields
const (
	flagNonce     = 0x01
	flagClassHash = 0x02
)

// limits to reject corrupt or hostile input before allocation
const (
	maximumContractUpdates = 100000
	maximumStorageEntries  = 1000000
	maximumDeclarations    = 10000
)

// StorageEntry - one storage cell update
type StorageEntry struct {
	Key   Word `json:"key"`
	Value Word `json:"value"`
}

// ContractUpdate - all changes to one contract at one height
type ContractUpdate struct {
	Address    Address            `json:"address"`
	HasNonce   bool               `json:"hasNonce"`
	Nonce      uint64             `json:"nonce,string"`
	HasClass   bool               `json:"hasClass"`
	ClassHash  blockdigest.Digest `json:"classHash"`
	Storage    []StorageEntry     `json:"storage"`
}

// Declaration - a class newly declared at one height
type Declaration struct {
	ClassHash         blockdigest.Digest `json:"classHash"`
	CompiledClassHash blockdigest.Digest `json:"compiledClassHash"`
}

// StateDiff - per-height state changes as relayed by the aggregator
type StateDiff struct {
	Version         uint16           `json:"version"`
	ContractUpdates []ContractUpdate `json:"contractUpdates"`
	Declarations    []Declaration    `json:"declarations"`
}

// String - hex representation of an address
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalText - convert address to hex text
func (a Address) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(AddressSize))
	hex.Encode(buffer, a[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into an address
func (a *Address) UnmarshalText(s []byte) error {
	if hex.EncodedLen(AddressSize) != len(s) {
		return fault.DeserializationFailed
	}
	buffer := make([]byte, AddressSize)
	if _, err := hex.Decode(buffer, s); nil != err {
		return err
	}
	copy(a[:], buffer)
	return nil
}

// MarshalText - convert word to hex text
func (w Word) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(WordSize))
	hex.Encode(buffer, w[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a word
func (w *Word) UnmarshalText(s []byte) error {
	if hex.EncodedLen(WordSize) != len(s) {
		return fault.DeserializationFailed
	}
	buffer := make([]byte, WordSize)
	if _, err := hex.Decode(buffer, s); nil != err {
		return err
	}
	copy(w[:], buffer)
	return nil
}

// Pack - turn a state diff into a byte slice
//
// varint packing as:
//   version
//   contract update count
//   per update: address, flags byte, [nonce], [class hash],
//               storage count, per entry: key, value
//   declaration count
//   per declaration: class hash, compiled class hash
func (diff *StateDiff) Pack() PackedStateDiff {

	buffer := util.ToVarint64(uint64(diff.Version))
	buffer = append(buffer, util.ToVarint64(uint64(len(diff.ContractUpdates)))...)

	for _, update := range diff.ContractUpdates {
		buffer = append(buffer, update.Address[:]...)

		flags := byte(0)
		if update.HasNonce {
			flags |= flagNonce
		}
		if update.HasClass {
			flags |= flagClassHash
		}
		buffer = append(buffer, flags)

		if update.HasNonce {
			buffer = append(buffer, util.ToVarint64(update.Nonce)...)
		}
		if update.HasClass {
			buffer = append(buffer, update.ClassHash[:]...)
		}

		buffer = append(buffer, util.ToVarint64(uint64(len(update.Storage)))...)
		for _, entry := range update.Storage {
			buffer = append(buffer, entry.Key[:]...)
			buffer = append(buffer, entry.Value[:]...)
		}
	}

	buffer = append(buffer, util.ToVarint64(uint64(len(diff.Declarations)))...)
	for _, declaration := range diff.Declarations {
		buffer = append(buffer, declaration.ClassHash[:]...)
		buffer = append(buffer, declaration.CompiledClassHash[:]...)
	}

	return buffer
}

// Unpack - turn a byte slice back into a state diff
func (record PackedStateDiff) Unpack() (*StateDiff, error) {

	diff := &StateDiff{}

	version, n := util.FromVarint64(record)
	if 0 == n || version < MinimumVersion || version > Version {
		return nil, fault.DeserializationFailed
	}
	diff.Version = uint16(version)
	record = record[n:]

	updateCount, n := util.FromVarint64(record)
	if 0 == n || updateCount > maximumContractUpdates {
		return nil, fault.DeserializationFailed
	}
	record = record[n:]

	diff.ContractUpdates = make([]ContractUpdate, updateCount)
	for i := uint64(0); i < updateCount; i += 1 {
		update := &diff.ContractUpdates[i]

		if len(record) < AddressSize+1 {
			return nil, fault.DeserializationFailed
		}
		copy(update.Address[:], record[:AddressSize])
		record = record[AddressSize:]

		flags := record[0]
		record = record[1:]
		if 0 != flags&^(flagNonce|flagClassHash) {
			return nil, fault.DeserializationFailed
		}

		if 0 != flags&flagNonce {
			update.HasNonce = true
			nonce, n := util.FromVarint64(record)
			if 0 == n {
				return nil, fault.DeserializationFailed
			}
			update.Nonce = nonce
			record = record[n:]
		}

		if 0 != flags&flagClassHash {
			update.HasClass = true
			if len(record) < blockdigest.Length {
				return nil, fault.DeserializationFailed
			}
			copy(update.ClassHash[:], record[:blockdigest.Length])
			record = record[blockdigest.Length:]
		}

		storageCount, n := util.FromVarint64(record)
		if 0 == n || storageCount > maximumStorageEntries {
			return nil, fault.DeserializationFailed
		}
		record = record[n:]

		update.Storage = make([]StorageEntry, storageCount)
		for j := uint64(0); j < storageCount; j += 1 {
			if len(record) < 2*WordSize {
				return nil, fault.DeserializationFailed
			}
			copy(update.Storage[j].Key[:], record[:WordSize])
			record = record[WordSize:]
			copy(update.Storage[j].Value[:], record[:WordSize])
			record = record[WordSize:]
		}
	}

	declarationCount, n := util.FromVarint64(record)
	if 0 == n || declarationCount > maximumDeclarations {
		return nil, fault.DeserializationFailed
	}
	record = record[n:]

	diff.Declarations = make([]Declaration, declarationCount)
	for i := uint64(0); i < declarationCount; i += 1 {
		if len(record) < 2*blockdigest.Length {
			return nil, fault.DeserializationFailed
		}
		copy(diff.Declarations[i].ClassHash[:], record[:blockdigest.Length])
		record = record[blockdigest.Length:]
		copy(diff.Declarations[i].CompiledClassHash[:], record[:blockdigest.Length])
		record = record[blockdigest.Length:]
	}

	if 0 != len(record) {
		return nil, fault.DeserializationFailed
	}

	return diff, nil
}
