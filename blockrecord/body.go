// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockrecord

import (
	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/util"
)

// PackedBody - packed records are just a byte slice
type PackedBody []byte

// receipt execution status
const (
	StatusSucceeded = 0x00
	StatusReverted  = 0x01
)

// MaximumTransactions - limit on transactions in one block
const MaximumTransactions = 10000

// Transaction - a single transaction as relayed by the aggregator
//
// the payload is opaque to the node; execution is out of scope
type Transaction struct {
	TxDigest blockdigest.Digest `json:"txDigest"`
	Payload  []byte             `json:"payload"`
}

// Receipt - execution result for the transaction at the same index
type Receipt struct {
	TxDigest blockdigest.Digest `json:"txDigest"`
	Status   byte               `json:"status"`
	GasUsed  uint64             `json:"gasUsed,string"`
}

// Body - ordered transactions and receipts of one block
type Body struct {
	Version      uint16        `json:"version"`
	Transactions []Transaction `json:"transactions"`
	Receipts     []Receipt     `json:"receipts"`
}

// Pack - turn a body into a byte slice
//
// varint packing as:
//   version
//   transaction count
//   per transaction: digest, payload length, payload
//   per receipt:     digest, status byte, gas used
func (body *Body) Pack() (PackedBody, error) {

	if len(body.Transactions) != len(body.Receipts) {
		return nil, fault.ReceiptCountMismatch
	}

	buffer := util.ToVarint64(uint64(body.Version))
	buffer = append(buffer, util.ToVarint64(uint64(len(body.Transactions)))...)

	for _, tx := range body.Transactions {
		buffer = append(buffer, tx.TxDigest[:]...)
		buffer = append(buffer, util.ToVarint64(uint64(len(tx.Payload)))...)
		buffer = append(buffer, tx.Payload...)
	}

	for _, r := range body.Receipts {
		buffer = append(buffer, r.TxDigest[:]...)
		buffer = append(buffer, r.Status)
		buffer = append(buffer, util.ToVarint64(r.GasUsed)...)
	}

	return buffer, nil
}

// Unpack - turn a byte slice back into a body
func (record PackedBody) Unpack() (*Body, error) {

	body := &Body{}

	version, n := util.FromVarint64(record)
	if 0 == n || version < MinimumVersion || version > Version {
		return nil, fault.DeserializationFailed
	}
	body.Version = uint16(version)
	record = record[n:]

	count, n := util.FromVarint64(record)
	if 0 == n || count > MaximumTransactions {
		return nil, fault.DeserializationFailed
	}
	record = record[n:]

	body.Transactions = make([]Transaction, count)
	for i := uint64(0); i < count; i += 1 {
		tx := &body.Transactions[i]
		if err := blockdigest.DigestFromBytes(&tx.TxDigest, take(&record, blockdigest.Length)); nil != err {
			return nil, err
		}
		length, n := util.FromVarint64(record)
		if 0 == n {
			return nil, fault.DeserializationFailed
		}
		record = record[n:]
		if uint64(len(record)) < length {
			return nil, fault.DeserializationFailed
		}
		tx.Payload = append([]byte{}, record[:length]...)
		record = record[length:]
	}

	body.Receipts = make([]Receipt, count)
	for i := uint64(0); i < count; i += 1 {
		r := &body.Receipts[i]
		if err := blockdigest.DigestFromBytes(&r.TxDigest, take(&record, blockdigest.Length)); nil != err {
			return nil, err
		}
		if 0 == len(record) {
			return nil, fault.DeserializationFailed
		}
		r.Status = record[0]
		record = record[1:]
		gasUsed, n := util.FromVarint64(record)
		if 0 == n {
			return nil, fault.DeserializationFailed
		}
		r.GasUsed = gasUsed
		record = record[n:]
	}

	if 0 != len(record) {
		return nil, fault.DeserializationFailed
	}

	return body, nil
}

// take a fixed number of bytes from the front of the buffer
// returns nil if the buffer is too short
func take(buffer *PackedBody, count int) []byte {
	if len(*buffer) < count {
		return nil
	}
	result := (*buffer)[:count]
	*buffer = (*buffer)[count:]
	return result
}
