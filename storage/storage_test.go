// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/chain"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/staterecord"
	"github.com/lumen-rollup/lumend/storage"
)

func TestHeaderRoundTrip(t *testing.T) {
	setup(t)
	defer teardown(t)

	header := testHeader(t, 0, blockdigest.Digest{})

	writer, err := storage.NewWriter()
	require.Nil(t, err, "new writer error")
	require.Nil(t, writer.AppendHeader(0, header), "append error")
	require.Nil(t, writer.Commit(), "commit error")

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()

	stored, digest, err := reader.Header(0)
	require.Nil(t, err, "header error")
	assert.Equal(t, header, stored, "header round trip")

	packed := header.Pack()
	assert.Equal(t, packed.Digest(), digest, "digest mismatch")

	// a missing height is not found, not an error state
	_, _, err = reader.Header(1)
	assert.Equal(t, fault.BlockNotFound, err, "missing header")
}

func TestMarkerAdvance(t *testing.T) {
	setup(t)
	defer teardown(t)

	appendChain(t, 4)

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()

	assert.Equal(t, uint64(5), reader.Marker(storage.HeaderMarker), "header marker")
	assert.Equal(t, uint64(5), reader.Marker(storage.BodyMarker), "body marker")
	assert.Equal(t, uint64(5), reader.Marker(storage.StateMarker), "state marker")
	assert.Equal(t, uint64(5), reader.Marker(storage.ClassMarker), "class marker")
	assert.Equal(t, uint64(0), reader.Marker(storage.CompiledClassMarker), "compiled marker")
}

func TestAppendOutOfOrderFails(t *testing.T) {
	setup(t)
	defer teardown(t)

	appendChain(t, 2)

	writer, err := storage.NewWriter()
	require.Nil(t, err, "new writer error")
	defer writer.Abort()

	// below the marker: replay of an already committed height
	err = writer.AppendHeader(1, testHeader(t, 1, blockdigest.Digest{}))
	assert.Equal(t, fault.MarkerMismatch, err, "replay accepted")

	// above the marker: a gap
	err = writer.AppendHeader(5, testHeader(t, 5, blockdigest.Digest{}))
	assert.Equal(t, fault.MarkerMismatch, err, "gap accepted")

	// exactly at the marker succeeds
	err = writer.AppendHeader(3, testHeader(t, 3, blockdigest.Digest{}))
	assert.Nil(t, err, "append at marker")
}

func TestDependentMarkersGateAppends(t *testing.T) {
	setup(t)
	defer teardown(t)

	writer, err := storage.NewWriter()
	require.Nil(t, err, "new writer error")
	defer writer.Abort()

	// no header yet: body and state must be rejected
	err = writer.AppendBody(0, testBody(0))
	assert.Equal(t, fault.BodyBeforeHeader, err, "body before header accepted")

	err = writer.AppendStateDiff(0, testStateDiff(0))
	assert.Equal(t, fault.StateBeforeHeader, err, "state before header accepted")

	// no state diff yet: classes must be rejected
	require.Nil(t, writer.AppendHeader(0, testHeader(t, 0, blockdigest.Digest{})), "append header")
	err = writer.AppendClasses(0, nil)
	assert.Equal(t, fault.ClassBeforeState, err, "class before state accepted")

	// with header and state present all dependents succeed
	require.Nil(t, writer.AppendBody(0, testBody(0)), "append body")
	require.Nil(t, writer.AppendStateDiff(0, testStateDiff(0)), "append state diff")
	require.Nil(t, writer.AppendClasses(0, nil), "append classes")
	require.Nil(t, writer.AppendCompiledClasses(0, nil), "append compiled classes")
}

func TestSnapshotIsolation(t *testing.T) {
	setup(t)
	defer teardown(t)

	appendChain(t, 1)

	// open the snapshot before the next commit
	early, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer early.Close()

	writer, err := storage.NewWriter()
	require.Nil(t, err, "new writer error")
	require.Nil(t, writer.AppendHeader(2, testHeader(t, 2, blockdigest.Digest{})), "append error")
	require.Nil(t, writer.Commit(), "commit error")

	// the old snapshot must not observe the new commit
	assert.Equal(t, uint64(2), early.Marker(storage.HeaderMarker), "snapshot marker moved")
	assert.False(t, early.HasHeader(2), "snapshot sees later commit")

	// a fresh snapshot does
	late, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer late.Close()
	assert.Equal(t, uint64(3), late.Marker(storage.HeaderMarker), "fresh marker")
	assert.True(t, late.HasHeader(2), "fresh snapshot missing commit")
}

func TestAbortLeavesStoreUnchanged(t *testing.T) {
	setup(t)
	defer teardown(t)

	appendChain(t, 3)

	writer, err := storage.NewWriter()
	require.Nil(t, err, "new writer error")
	require.Nil(t, writer.AppendHeader(4, testHeader(t, 4, blockdigest.Digest{})), "append error")
	require.Nil(t, writer.AppendBody(4, testBody(4)), "append body error")
	writer.Abort()

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()

	assert.Equal(t, uint64(4), reader.Marker(storage.HeaderMarker), "marker after abort")
	assert.Equal(t, uint64(4), reader.Marker(storage.BodyMarker), "body marker after abort")
	assert.False(t, reader.HasHeader(4), "aborted header visible")

	// the aborted height can be appended again: crash recovery replay
	writer, err = storage.NewWriter()
	require.Nil(t, err, "new writer error")
	require.Nil(t, writer.AppendHeader(4, testHeader(t, 4, blockdigest.Digest{})), "replay append error")
	require.Nil(t, writer.Commit(), "replay commit error")
}

func TestWriterIsExclusive(t *testing.T) {
	setup(t)
	defer teardown(t)

	writer, err := storage.NewWriter()
	require.Nil(t, err, "new writer error")
	defer writer.Abort()

	_, err = storage.NewWriter()
	assert.Equal(t, fault.TransactionIsInUse, err, "second writer allowed")
}

func TestPersistenceAcrossRestart(t *testing.T) {
	setup(t)
	defer teardown(t)

	digests := appendChain(t, 2)

	// simulate a restart
	storage.Finalise()
	err := storage.Initialise(testDirectory, chain.Local, storage.ReadWrite)
	require.Nil(t, err, "reopen error")

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")

	assert.Equal(t, uint64(3), reader.Marker(storage.HeaderMarker), "marker after restart")
	_, digest, err := reader.Header(2)
	require.Nil(t, err, "header after restart")
	assert.Equal(t, digests[2], digest, "digest after restart")
	reader.Close()

	// reopening under the wrong chain must fail fast
	storage.Finalise()
	err = storage.Initialise(testDirectory, chain.Lumen, storage.ReadWrite)
	assert.Equal(t, fault.InvalidChain, err, "wrong chain accepted")

	// reopen correctly so teardown has something to close
	err = storage.Initialise(testDirectory, chain.Local, storage.ReadWrite)
	require.Nil(t, err, "final reopen error")
}

func TestBaseLayerHead(t *testing.T) {
	setup(t)
	defer teardown(t)

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	_, _, ok := reader.BaseLayerHead()
	assert.False(t, ok, "empty store has a base layer head")
	reader.Close()

	d1 := blockdigest.NewDigest([]byte("l1 one"))
	d2 := blockdigest.NewDigest([]byte("l1 two"))

	writer, err := storage.NewWriter()
	require.Nil(t, err, "new writer error")
	require.Nil(t, writer.SetBaseLayerHead(100, d1), "set head error")
	require.Nil(t, writer.Commit(), "commit error")

	// an older poll result must not rewind the head
	writer, err = storage.NewWriter()
	require.Nil(t, err, "new writer error")
	require.Nil(t, writer.SetBaseLayerHead(99, d2), "stale set error")
	require.Nil(t, writer.Commit(), "commit error")

	reader, err = storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()

	height, digest, ok := reader.BaseLayerHead()
	require.True(t, ok, "missing base layer head")
	assert.Equal(t, uint64(100), height, "head height")
	assert.Equal(t, d1, digest, "head digest")
	assert.Equal(t, uint64(101), reader.Marker(storage.BaseLayerMarker), "base layer marker")
}

func TestNonceAndStorageVersioning(t *testing.T) {
	setup(t)
	defer teardown(t)

	appendChain(t, 5)

	address := staterecord.Address{0xc0, 0x03} // written at height 3
	storageKey := staterecord.Word{0x01}

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()

	// before the write the cell does not exist
	_, ok := reader.NonceAt(address, 2)
	assert.False(t, ok, "nonce visible before write")

	// at and after the write height the value is visible
	nonce, ok := reader.NonceAt(address, 3)
	require.True(t, ok, "nonce missing at write height")
	assert.Equal(t, uint64(4), nonce, "nonce value")

	nonce, ok = reader.NonceAt(address, 5)
	require.True(t, ok, "nonce missing after write height")
	assert.Equal(t, uint64(4), nonce, "nonce value later")

	value, ok := reader.StorageAt(address, storageKey, 4)
	require.True(t, ok, "storage missing")
	assert.Equal(t, staterecord.Word{0x03, 0x02}, value, "storage value")
}

func TestFetchCursorAscending(t *testing.T) {
	setup(t)
	defer teardown(t)

	appendChain(t, 9)

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()

	cursor := reader.NewFetchCursor(storage.Pool.Headers)
	cursor.Seek(3)

	elements, err := cursor.Fetch(4)
	require.Nil(t, err, "fetch error")
	require.Equal(t, 4, len(elements), "fetch count")

	for i, element := range elements {
		assert.Equal(t, uint64(3+i), storage.HeightFromKey(element.Key), "ascending order")
	}

	// continuing the fetch resumes where it stopped
	elements, err = cursor.Fetch(10)
	require.Nil(t, err, "second fetch error")
	require.Equal(t, 3, len(elements), "second fetch count")
	assert.Equal(t, uint64(7), storage.HeightFromKey(elements[0].Key), "resume position")
}
