// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/blockrecord"
	"github.com/lumen-rollup/lumend/chain"
	"github.com/lumen-rollup/lumend/staterecord"
	"github.com/lumen-rollup/lumend/storage"
)

// common test setup routines

var testDirectory string

// configure for testing
func setup(t *testing.T) {
	removeFiles()

	directory, err := ioutil.TempDir("", "lumend-storage-test")
	if nil != err {
		t.Fatalf("temp directory error: %s", err)
	}
	testDirectory = directory

	_ = logger.Initialise(logger.Configuration{
		Directory: testDirectory,
		File:      "test.log",
		Size:      50000,
		Count:     10,
	})

	err = storage.Initialise(testDirectory, chain.Local, storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
}

// post test cleanup
func teardown(t *testing.T) {
	storage.Finalise()
	logger.Finalise()
	removeFiles()
}

// remove all files created by test
func removeFiles() {
	if "" != testDirectory {
		os.RemoveAll(testDirectory)
		testDirectory = ""
	}
}

// build a deterministic test header whose parent is the stored
// header's digest at height-1 (zero digest at genesis)
func testHeader(t *testing.T, height uint64, parent blockdigest.Digest) *blockrecord.Header {
	return &blockrecord.Header{
		Version:          blockrecord.Version,
		Number:           height,
		ParentBlock:      parent,
		StateRoot:        blockdigest.NewDigest([]byte{byte(height), 0x5a}),
		Timestamp:        1700000000 + height,
		Sequencer:        blockrecord.Sequencer{0x01},
		GasPrice:         1000,
		DataGasPrice:     10,
		TransactionCount: 1,
	}
}

// build a deterministic test body
func testBody(height uint64) *blockrecord.Body {
	txDigest := blockdigest.NewDigest([]byte{byte(height), 0x7f})
	return &blockrecord.Body{
		Version: blockrecord.Version,
		Transactions: []blockrecord.Transaction{
			{TxDigest: txDigest, Payload: []byte{byte(height), 0x01, 0x02}},
		},
		Receipts: []blockrecord.Receipt{
			{TxDigest: txDigest, Status: blockrecord.StatusSucceeded, GasUsed: 21000},
		},
	}
}

// build a deterministic test state diff
func testStateDiff(height uint64, declarations ...*staterecord.Class) *staterecord.StateDiff {

	address := staterecord.Address{0xc0, byte(height)}

	diff := &staterecord.StateDiff{
		Version: staterecord.Version,
		ContractUpdates: []staterecord.ContractUpdate{
			{
				Address:  address,
				HasNonce: true,
				Nonce:    height + 1,
				Storage: []staterecord.StorageEntry{
					{
						Key:   staterecord.Word{0x01},
						Value: staterecord.Word{byte(height), 0x02},
					},
				},
			},
		},
		Declarations: []staterecord.Declaration{},
	}

	for _, class := range declarations {
		diff.Declarations = append(diff.Declarations, staterecord.Declaration{
			ClassHash:         class.Hash(),
			CompiledClassHash: class.Hash(),
		})
	}

	return diff
}

// append a fully linked chain [0..height] of headers, bodies and
// state diffs in one transaction per height
func appendChain(t *testing.T, topHeight uint64) []blockdigest.Digest {

	digests := make([]blockdigest.Digest, 0, topHeight+1)
	parent := blockdigest.Digest{}

	for height := uint64(0); height <= topHeight; height += 1 {
		header := testHeader(t, height, parent)

		writer, err := storage.NewWriter()
		if nil != err {
			t.Fatalf("new writer error: %s", err)
		}

		if err := writer.AppendHeader(height, header); nil != err {
			writer.Abort()
			t.Fatalf("append header %d error: %s", height, err)
		}
		if err := writer.AppendBody(height, testBody(height)); nil != err {
			writer.Abort()
			t.Fatalf("append body %d error: %s", height, err)
		}
		if err := writer.AppendStateDiff(height, testStateDiff(height)); nil != err {
			writer.Abort()
			t.Fatalf("append state diff %d error: %s", height, err)
		}
		if err := writer.AppendClasses(height, nil); nil != err {
			writer.Abort()
			t.Fatalf("append classes %d error: %s", height, err)
		}
		if err := writer.Commit(); nil != err {
			t.Fatalf("commit %d error: %s", height, err)
		}

		packed := header.Pack()
		parent = packed.Digest()
		digests = append(digests, parent)
	}

	return digests
}
