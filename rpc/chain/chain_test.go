// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/blockrecord"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/rpc/chain"
	"github.com/lumen-rollup/lumend/rpc/fixtures"
	"github.com/lumen-rollup/lumend/staterecord"
	"github.com/lumen-rollup/lumend/storage"
)

var testAddress = staterecord.Address{0xc0, 0xff, 0xee}

// store one complete block at height 0: header, a single
// transaction body, a state diff declaring one class
func storeBlock(t *testing.T) (*staterecord.Class, blockdigest.Digest) {
	class := &staterecord.Class{
		Version:    1,
		Definition: []byte("class definition"),
	}

	header := &blockrecord.Header{
		Version:          blockrecord.Version,
		Number:           0,
		StateRoot:        blockdigest.NewDigest([]byte{0x5a}),
		Timestamp:        1700000000,
		TransactionCount: 1,
	}

	body := &blockrecord.Body{
		Version: 1,
		Transactions: []blockrecord.Transaction{
			{TxDigest: blockdigest.NewDigest([]byte("tx")), Payload: []byte{0x01}},
		},
		Receipts: []blockrecord.Receipt{
			{TxDigest: blockdigest.NewDigest([]byte("tx")), Status: 1, GasUsed: 5},
		},
	}

	diff := &staterecord.StateDiff{
		Version: 1,
		ContractUpdates: []staterecord.ContractUpdate{
			{
				Address:  testAddress,
				HasNonce: true,
				Nonce:    9,
				Storage: []staterecord.StorageEntry{
					{Key: staterecord.Word{0x01}, Value: staterecord.Word{0x02}},
				},
			},
		},
		Declarations: []staterecord.Declaration{
			{ClassHash: class.Hash(), CompiledClassHash: class.Hash()},
		},
	}

	w, err := storage.NewWriter()
	if nil != err {
		t.Fatalf("writer error: %s", err)
	}
	if err = w.AppendHeader(0, header); nil != err {
		t.Fatalf("append header error: %s", err)
	}
	if err = w.AppendBody(0, body); nil != err {
		t.Fatalf("append body error: %s", err)
	}
	if err = w.AppendStateDiff(0, diff); nil != err {
		t.Fatalf("append state diff error: %s", err)
	}
	if err = w.AppendClasses(0, []*staterecord.Class{class}); nil != err {
		t.Fatalf("append classes error: %s", err)
	}
	if err = w.AppendCompiledClasses(0, []*staterecord.CompiledClass{class}); nil != err {
		t.Fatalf("append compiled classes error: %s", err)
	}
	if err = w.Commit(); nil != err {
		t.Fatalf("commit error: %s", err)
	}

	packed := header.Pack()
	return class, blockdigest.NewDigest(packed[:])
}

func TestChainQueries(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	err := fixtures.SetupStorage()
	if nil != err {
		t.Fatalf("storage setup error: %s", err)
	}
	defer fixtures.TeardownStorage()

	class, headerDigest := storeBlock(t)

	c := chain.New(logger.New(fixtures.LogCategory))

	var headerReply chain.HeaderReply
	err = c.Header(&chain.HeaderArguments{Height: 0}, &headerReply)
	assert.Nil(t, err, "wrong Header")
	assert.Equal(t, headerDigest, headerReply.Digest, "wrong header digest")
	assert.Equal(t, uint32(1), headerReply.Header.TransactionCount, "wrong transaction count")

	var bodyReply chain.BodyReply
	err = c.Body(&chain.BodyArguments{Height: 0}, &bodyReply)
	assert.Nil(t, err, "wrong Body")
	assert.Equal(t, 1, len(bodyReply.Body.Transactions), "wrong transactions")
	assert.Equal(t, []byte{0x01}, bodyReply.Body.Transactions[0].Payload, "wrong payload")

	var diffReply chain.StateDiffReply
	err = c.StateDiff(&chain.StateDiffArguments{Height: 0}, &diffReply)
	assert.Nil(t, err, "wrong StateDiff")
	assert.Equal(t, 1, len(diffReply.StateDiff.Declarations), "wrong declarations")

	var classReply chain.ClassReply
	err = c.Class(&chain.ClassArguments{Hash: class.Hash()}, &classReply)
	assert.Nil(t, err, "wrong Class")
	assert.Equal(t, class.Definition, classReply.Class.Definition, "wrong definition")
	assert.Equal(t, uint64(0), classReply.DeclaredAt, "wrong declaration height")

	var compiledReply chain.ClassReply
	err = c.CompiledClass(&chain.ClassArguments{Hash: class.Hash()}, &compiledReply)
	assert.Nil(t, err, "wrong CompiledClass")
	assert.Equal(t, class.Definition, compiledReply.Class.Definition, "wrong compiled definition")

	var nonceReply chain.NonceReply
	err = c.NonceAt(&chain.NonceArguments{Address: testAddress, Height: 0}, &nonceReply)
	assert.Nil(t, err, "wrong NonceAt")
	assert.True(t, nonceReply.Known, "missing nonce")
	assert.Equal(t, uint64(9), nonceReply.Nonce, "wrong nonce")

	var storageReply chain.StorageReply
	err = c.StorageAt(&chain.StorageArguments{
		Address: testAddress,
		Key:     staterecord.Word{0x01},
		Height:  0,
	}, &storageReply)
	assert.Nil(t, err, "wrong StorageAt")
	assert.True(t, storageReply.Known, "missing storage value")
	assert.Equal(t, staterecord.Word{0x02}, storageReply.Value, "wrong storage value")
}

func TestChainUnsyncedHeights(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	err := fixtures.SetupStorage()
	if nil != err {
		t.Fatalf("storage setup error: %s", err)
	}
	defer fixtures.TeardownStorage()

	storeBlock(t)

	c := chain.New(logger.New(fixtures.LogCategory))

	var headerReply chain.HeaderReply
	err = c.Header(&chain.HeaderArguments{Height: 1}, &headerReply)
	assert.Equal(t, fault.NotAvailableDuringSync, err, "wrong Header error")
	assert.True(t, fault.IsErrTemporary(err), "not temporary")

	var bodyReply chain.BodyReply
	err = c.Body(&chain.BodyArguments{Height: 5}, &bodyReply)
	assert.Equal(t, fault.NotAvailableDuringSync, err, "wrong Body error")

	var nonceReply chain.NonceReply
	err = c.NonceAt(&chain.NonceArguments{Address: testAddress, Height: 9}, &nonceReply)
	assert.Equal(t, fault.NotAvailableDuringSync, err, "wrong NonceAt error")
}

func TestChainUnknownClass(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	err := fixtures.SetupStorage()
	if nil != err {
		t.Fatalf("storage setup error: %s", err)
	}
	defer fixtures.TeardownStorage()

	c := chain.New(logger.New(fixtures.LogCategory))

	var classReply chain.ClassReply
	err = c.Class(&chain.ClassArguments{
		Hash: blockdigest.NewDigest([]byte("no such class")),
	}, &classReply)
	assert.Equal(t, fault.ClassNotFound, err, "wrong Class error")
}
