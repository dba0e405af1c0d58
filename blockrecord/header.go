// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockrecord

import (
	"encoding/binary"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/fault"
)

// PackedHeader - use fixed size array to simplify validation
type PackedHeader [totalHeaderSize]byte

// currently supported header version
const (
	Version        = 1
	MinimumVersion = 1
)

// SequencerSize - bytes in a sequencer identity
const SequencerSize = 32

// Sequencer - identity of the aggregator sequencer that produced a block
type Sequencer [SequencerSize]byte

// byte sizes for the header fields
const (
	versionSize      = 2                  // header codec version
	numberSize       = 8                  // this block's height
	parentBlockSize  = blockdigest.Length // digest of the previous header
	stateRootSize    = blockdigest.Length // state commitment after this block
	timestampSize    = 8                  // seconds since 1970-01-01T00:00 UTC
	sequencerSize    = SequencerSize      // sequencer identity
	gasPriceSize     = 8                  // execution gas price
	dataGasPriceSize = 8                  // data availability gas price
	txCountSize      = 4                  // count of transactions in the body
)

// offsets of the fields
const (
	versionOffset      = 0
	numberOffset       = versionOffset + versionSize
	parentBlockOffset  = numberOffset + numberSize
	stateRootOffset    = parentBlockOffset + parentBlockSize
	timestampOffset    = stateRootOffset + stateRootSize
	sequencerOffset    = timestampOffset + timestampSize
	gasPriceOffset     = sequencerOffset + sequencerSize
	dataGasPriceOffset = gasPriceOffset + gasPriceSize
	txCountOffset      = dataGasPriceOffset + dataGasPriceSize

	// to set the size of the header array
	totalHeaderSize = txCountOffset + txCountSize
)

// Header - the unpacked header structure
type Header struct {
	Version          uint16             `json:"version"`
	Number           uint64             `json:"number,string"`
	ParentBlock      blockdigest.Digest `json:"parentBlock"`
	StateRoot        blockdigest.Digest `json:"stateRoot"`
	Timestamp        uint64             `json:"timestamp,string"`
	Sequencer        Sequencer          `json:"sequencer"`
	GasPrice         uint64             `json:"gasPrice,string"`
	DataGasPrice     uint64             `json:"dataGasPrice,string"`
	TransactionCount uint32             `json:"transactionCount"`
}

// Pack - turn a header into an array of bytes
func (header *Header) Pack() PackedHeader {
	buffer := PackedHeader{}

	binary.BigEndian.PutUint16(buffer[versionOffset:], header.Version)
	binary.BigEndian.PutUint64(buffer[numberOffset:], header.Number)
	copy(buffer[parentBlockOffset:], header.ParentBlock[:])
	copy(buffer[stateRootOffset:], header.StateRoot[:])
	binary.BigEndian.PutUint64(buffer[timestampOffset:], header.Timestamp)
	copy(buffer[sequencerOffset:], header.Sequencer[:])
	binary.BigEndian.PutUint64(buffer[gasPriceOffset:], header.GasPrice)
	binary.BigEndian.PutUint64(buffer[dataGasPriceOffset:], header.DataGasPrice)
	binary.BigEndian.PutUint32(buffer[txCountOffset:], header.TransactionCount)

	return buffer
}

// Unpack - turn a byte array back into a header
func (record PackedHeader) Unpack() (*Header, error) {

	header := &Header{}

	header.Version = binary.BigEndian.Uint16(record[versionOffset:])
	if header.Version < MinimumVersion || header.Version > Version {
		return nil, fault.DeserializationFailed
	}

	header.Number = binary.BigEndian.Uint64(record[numberOffset:])

	err := blockdigest.DigestFromBytes(&header.ParentBlock, record[parentBlockOffset:stateRootOffset])
	if nil != err {
		return nil, err
	}
	err = blockdigest.DigestFromBytes(&header.StateRoot, record[stateRootOffset:timestampOffset])
	if nil != err {
		return nil, err
	}

	header.Timestamp = binary.BigEndian.Uint64(record[timestampOffset:])
	copy(header.Sequencer[:], record[sequencerOffset:gasPriceOffset])
	header.GasPrice = binary.BigEndian.Uint64(record[gasPriceOffset:])
	header.DataGasPrice = binary.BigEndian.Uint64(record[dataGasPriceOffset:])
	header.TransactionCount = binary.BigEndian.Uint32(record[txCountOffset:])

	return header, nil
}

// UnpackHeader - unpack from an arbitrary byte slice
//
// the slice must be exactly one packed header
func UnpackHeader(buffer []byte) (*Header, error) {
	if totalHeaderSize != len(buffer) {
		return nil, fault.DeserializationFailed
	}
	packed := PackedHeader{}
	copy(packed[:], buffer)
	return packed.Unpack()
}

// Digest - digest for a packed header
func (record PackedHeader) Digest() blockdigest.Digest {
	return blockdigest.NewDigest(record[:])
}

// Digest - convenience: digest of the packed form
func (header *Header) Digest() blockdigest.Digest {
	packed := header.Pack()
	return packed.Digest()
}
