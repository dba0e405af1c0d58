// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockrecord_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/blockrecord"
)

func makeHeader(number uint64, parent blockdigest.Digest) *blockrecord.Header {
	return &blockrecord.Header{
		Version:          blockrecord.Version,
		Number:           number,
		ParentBlock:      parent,
		StateRoot:        blockdigest.NewDigest([]byte{byte(number), 0x01}),
		Timestamp:        1700000000 + number,
		Sequencer:        blockrecord.Sequencer{0x0a, 0x0b},
		GasPrice:         25_000_000_000,
		DataGasPrice:     1_000_000,
		TransactionCount: 3,
	}
}

func TestHeaderPackUnpack(t *testing.T) {

	parent := blockdigest.NewDigest([]byte("parent"))
	header := makeHeader(7, parent)

	packed := header.Pack()
	unpacked, err := packed.Unpack()
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, header, unpacked, "header round trip")

	// digest must be stable across pack cycles
	assert.Equal(t, packed.Digest(), unpacked.Digest(), "digest mismatch")
}

func TestHeaderUnpackRejectsBadVersion(t *testing.T) {

	header := makeHeader(1, blockdigest.Digest{})
	header.Version = 0

	packed := header.Pack()
	_, err := packed.Unpack()
	assert.NotNil(t, err, "version zero accepted")

	header.Version = blockrecord.Version + 1
	packed = header.Pack()
	_, err = packed.Unpack()
	assert.NotNil(t, err, "future version accepted")
}

func TestUnpackHeaderRejectsWrongSize(t *testing.T) {

	header := makeHeader(2, blockdigest.Digest{})
	packed := header.Pack()

	_, err := blockrecord.UnpackHeader(packed[:len(packed)-1])
	assert.NotNil(t, err, "short buffer accepted")

	_, err = blockrecord.UnpackHeader(append(packed[:], 0x00))
	assert.NotNil(t, err, "long buffer accepted")

	unpacked, err := blockrecord.UnpackHeader(packed[:])
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, header, unpacked, "header round trip")
}

func TestBodyPackUnpack(t *testing.T) {

	txOne := blockdigest.NewDigest([]byte("tx one"))
	txTwo := blockdigest.NewDigest([]byte("tx two"))

	body := &blockrecord.Body{
		Version: blockrecord.Version,
		Transactions: []blockrecord.Transaction{
			{TxDigest: txOne, Payload: []byte{0x01, 0x02, 0x03}},
			{TxDigest: txTwo, Payload: []byte{}},
		},
		Receipts: []blockrecord.Receipt{
			{TxDigest: txOne, Status: blockrecord.StatusSucceeded, GasUsed: 21000},
			{TxDigest: txTwo, Status: blockrecord.StatusReverted, GasUsed: 400000},
		},
	}

	packed, err := body.Pack()
	assert.Nil(t, err, "pack error")

	unpacked, err := packed.Unpack()
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, body.Version, unpacked.Version, "version")
	assert.Equal(t, len(body.Transactions), len(unpacked.Transactions), "transaction count")
	for i, tx := range body.Transactions {
		assert.Equal(t, tx.TxDigest, unpacked.Transactions[i].TxDigest, "tx digest")
		assert.Equal(t, tx.Payload, unpacked.Transactions[i].Payload, "tx payload")
	}
	assert.Equal(t, body.Receipts, unpacked.Receipts, "receipts")
}

func TestBodyPackRejectsReceiptMismatch(t *testing.T) {

	body := &blockrecord.Body{
		Version: blockrecord.Version,
		Transactions: []blockrecord.Transaction{
			{TxDigest: blockdigest.NewDigest([]byte("tx")), Payload: []byte{0x01}},
		},
		Receipts: []blockrecord.Receipt{},
	}

	_, err := body.Pack()
	assert.NotNil(t, err, "mismatched receipts accepted")
}

func TestBodyUnpackRejectsTruncated(t *testing.T) {

	body := &blockrecord.Body{
		Version: blockrecord.Version,
		Transactions: []blockrecord.Transaction{
			{TxDigest: blockdigest.NewDigest([]byte("tx")), Payload: []byte{0x01, 0x02}},
		},
		Receipts: []blockrecord.Receipt{
			{TxDigest: blockdigest.NewDigest([]byte("tx")), Status: blockrecord.StatusSucceeded, GasUsed: 1},
		},
	}

	packed, err := body.Pack()
	assert.Nil(t, err, "pack error")

	for cut := 1; cut < len(packed); cut += 7 {
		_, err := packed[:cut].Unpack()
		assert.NotNil(t, err, "truncated buffer accepted at %d", cut)
	}

	// trailing garbage is also a failure
	_, err = append(packed, 0xff).Unpack()
	assert.NotNil(t, err, "trailing bytes accepted")
}

func TestEmptyBody(t *testing.T) {

	body := &blockrecord.Body{
		Version:      blockrecord.Version,
		Transactions: []blockrecord.Transaction{},
		Receipts:     []blockrecord.Receipt{},
	}

	packed, err := body.Pack()
	assert.Nil(t, err, "pack error")

	unpacked, err := packed.Unpack()
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, 0, len(unpacked.Transactions), "transactions not empty")
	assert.Equal(t, 0, len(unpacked.Receipts), "receipts not empty")
}
