// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	"io/ioutil"
	"os"
	"testing"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/aggregator"
	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/blockrecord"
	"github.com/lumen-rollup/lumend/chain"
	"github.com/lumen-rollup/lumend/mode"
	"github.com/lumen-rollup/lumend/staterecord"
	"github.com/lumen-rollup/lumend/storage"
)

// common test setup routines

var testDirectory string

// configure for testing
//
// stages are initialised directly without their background loops so
// tests can single-step them
func setup(t *testing.T, source aggregator.Source) {
	setupOnChain(t, source, chain.Local)
}

func setupOnChain(t *testing.T, source aggregator.Source, chainName string) {
	removeFiles()

	directory, err := ioutil.TempDir("", "lumend-syncer-test")
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

	if err := mode.Initialise(chainName); nil != err {
		t.Fatalf("mode initialise error: %s", err)
	}

	if err := storage.Initialise(testDirectory, chainName, storage.ReadWrite); nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}

	globalData.log = logger.New("syncer")
	globalData.source = source
	globalData.classCache = gocache.New(classCacheExpiry, classCacheCleanup)
	globalData.hdr.initialise("header")
	globalData.bdy.initialise("body")
	globalData.sta.initialise("state")
	globalData.cls.initialise("class")
}

// post test cleanup
func teardown(t *testing.T) {
	storage.Finalise()
	_ = mode.Finalise()
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

// a deterministic header; vary salt to fork a chain at equal heights
func makeHeader(height uint64, parent blockdigest.Digest, salt uint64) *blockrecord.Header {
	return &blockrecord.Header{
		Version:          blockrecord.Version,
		Number:           height,
		ParentBlock:      parent,
		StateRoot:        blockdigest.NewDigest([]byte{byte(height), byte(salt)}),
		Timestamp:        1700000000 + height + salt,
		Sequencer:        blockrecord.Sequencer{0x01},
		GasPrice:         1000,
		DataGasPrice:     10,
		TransactionCount: 1,
	}
}

// a one transaction body matching makeHeader's count
func makeBody(height uint64) *blockrecord.Body {
	txDigest := blockdigest.NewDigest([]byte{byte(height), 0x7f})
	return &blockrecord.Body{
		Version: blockrecord.Version,
		Transactions: []blockrecord.Transaction{
			{TxDigest: txDigest, Payload: []byte{byte(height), 0x01}},
		},
		Receipts: []blockrecord.Receipt{
			{TxDigest: txDigest, Status: blockrecord.StatusSucceeded, GasUsed: 21000},
		},
	}
}

func makeStateDiff(height uint64) *staterecord.StateDiff {
	return &staterecord.StateDiff{
		Version: staterecord.Version,
		ContractUpdates: []staterecord.ContractUpdate{
			{
				Address:  staterecord.Address{0xc0, byte(height)},
				HasNonce: true,
				Nonce:    height + 1,
			},
		},
		Declarations: []staterecord.Declaration{},
	}
}

// build a linked chain of packed headers without storing them
func makeChain(topHeight uint64, salt uint64) []blockrecord.PackedHeader {
	packed := make([]blockrecord.PackedHeader, 0, topHeight+1)
	parent := blockdigest.Digest{}

	for height := uint64(0); height <= topHeight; height += 1 {
		p := makeHeader(height, parent, salt).Pack()
		parent = p.Digest()
		packed = append(packed, p)
	}
	return packed
}

// store a fully linked chain, all stages caught up
func storeChain(t *testing.T, topHeight uint64) []blockrecord.PackedHeader {
	packed := makeChain(topHeight, 0)

	for height := uint64(0); height <= topHeight; height += 1 {
		writer, err := storage.NewWriter()
		if nil != err {
			t.Fatalf("new writer error: %s", err)
		}

		header, err := blockrecord.UnpackHeader(packed[height][:])
		if nil != err {
			t.Fatalf("unpack error: %s", err)
		}

		if err := writer.AppendHeader(height, header); nil != err {
			t.Fatalf("append header %d error: %s", height, err)
		}
		if err := writer.AppendBody(height, makeBody(height)); nil != err {
			t.Fatalf("append body %d error: %s", height, err)
		}
		if err := writer.AppendStateDiff(height, makeStateDiff(height)); nil != err {
			t.Fatalf("append state diff %d error: %s", height, err)
		}
		if err := writer.AppendClasses(height, nil); nil != err {
			t.Fatalf("append classes %d error: %s", height, err)
		}
		if err := writer.Commit(); nil != err {
			t.Fatalf("commit %d error: %s", height, err)
		}
	}
	return packed
}
