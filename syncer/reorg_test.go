// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-rollup/lumend/blockrecord"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/staterecord"
	"github.com/lumen-rollup/lumend/storage"
	"github.com/lumen-rollup/lumend/syncer/mocks"
)

// build a fork of the stored chain: identical up to forkPoint, then
// different headers linked from the shared prefix
func forkChain(stored []blockrecord.PackedHeader, forkPoint uint64, topHeight uint64) []blockrecord.PackedHeader {
	forked := make([]blockrecord.PackedHeader, 0, topHeight+1)
	forked = append(forked, stored[:forkPoint+1]...)

	parent := stored[forkPoint].Digest()
	for height := forkPoint + 1; height <= topHeight; height += 1 {
		p := makeHeader(height, parent, 99).Pack()
		parent = p.Digest()
		forked = append(forked, p)
	}
	return forked
}

func TestReorgRevertsToCommonAncestor(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	setup(t, source)
	defer teardown(t)

	stored := storeChain(t, 5)

	// the aggregator switched to a fork above height 3
	remote := forkChain(stored, 3, 6)
	serveHeaders(source, remote)

	var err error
	more := true
	for more && nil == err {
		more, err = globalData.hdr.step()
	}
	assert.Equal(t, fault.NotYetAvailable, err, "final error")

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()

	// headers follow the fork all the way up again
	assert.Equal(t, uint64(7), reader.Marker(storage.HeaderMarker), "header marker")
	for height := uint64(0); height <= 6; height += 1 {
		_, digest, err := reader.Header(height)
		require.Nil(t, err, "header missing after reorg")
		assert.Equal(t, remote[height].Digest(), digest, "wrong chain after reorg")
	}

	// dependent kinds were rewound to the ancestor and must refill
	assert.Equal(t, uint64(4), reader.Marker(storage.BodyMarker), "body marker")
	assert.Equal(t, uint64(4), reader.Marker(storage.StateMarker), "state marker")
	assert.Equal(t, uint64(4), reader.Marker(storage.ClassMarker), "class marker")

	// state written above the ancestor is gone
	_, ok := reader.NonceAt(staterecord.Address{0xc0, 0x05}, 6)
	assert.False(t, ok, "reverted nonce present")
	nonce, ok := reader.NonceAt(staterecord.Address{0xc0, 0x03}, 6)
	require.True(t, ok, "kept nonce missing")
	assert.Equal(t, uint64(4), nonce, "kept nonce value")
}

func TestReorgGenesisMismatchHalts(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	setup(t, source)
	defer teardown(t)

	storeChain(t, 2)

	// a completely unrelated chain, no shared genesis
	remote := makeChain(3, 7)
	serveHeaders(source, remote)

	more, err := globalData.hdr.step()
	assert.False(t, more, "more after genesis mismatch")
	assert.Equal(t, fault.GenesisMismatch, err, "mismatch not detected")

	// nothing was reverted
	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()
	assert.Equal(t, uint64(3), reader.Marker(storage.HeaderMarker), "header marker")
	assert.True(t, reader.HasHeader(2), "stored chain damaged")
}
