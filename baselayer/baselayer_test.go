// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package baselayer

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/chain"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/storage"
)

const testHash = "0x4242424242424242424242424242424242424242424242424242424242424242"

// canned L1 responses, switched per test
var testResponse string

func setup(t *testing.T) (*httptest.Server, func()) {
	directory, err := ioutil.TempDir("", "lumend-baselayer-test")
	require.Nil(t, err, "temp directory error")

	_ = logger.Initialise(logger.Configuration{
		Directory: directory,
		File:      "test.log",
		Size:      50000,
		Count:     10,
	})

	err = storage.Initialise(directory, chain.Local, storage.ReadWrite)
	require.Nil(t, err, "storage initialise error")

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, testResponse)
		},
	))

	globalData.log = logger.New("baselayer")
	globalData.client = &http.Client{Timeout: 5 * time.Second}
	globalData.endpoint = server.URL
	globalData.pollInterval = time.Second

	return server, func() {
		server.Close()
		storage.Finalise()
		logger.Finalise()
		os.RemoveAll(directory)
	}
}

func blockResponse(height uint64, hash string) string {
	return fmt.Sprintf(
		`{"jsonrpc":"2.0","id":1,"result":{"number":"0x%x","hash":%q}}`,
		height,
		hash,
	)
}

func TestPollRecordsHead(t *testing.T) {
	_, cleanup := setup(t)
	defer cleanup()

	testResponse = blockResponse(16, testHash)
	require.Nil(t, pollOnce(), "poll error")

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")

	height, digest, ok := reader.BaseLayerHead()
	require.True(t, ok, "no head recorded")
	assert.Equal(t, uint64(16), height, "head height")
	assert.Equal(t, byte(0x42), digest[0], "head digest")
	assert.Equal(t, uint64(17), reader.Marker(storage.BaseLayerMarker), "marker")
	reader.Close()

	// a later poll moves the head forward
	testResponse = blockResponse(20, testHash)
	require.Nil(t, pollOnce(), "second poll error")

	// a delayed response for an older block does not move it back
	testResponse = blockResponse(18, testHash)
	require.Nil(t, pollOnce(), "stale poll error")

	reader, err = storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()

	height, _, ok = reader.BaseLayerHead()
	require.True(t, ok, "head lost")
	assert.Equal(t, uint64(20), height, "head rewound")
}

func TestPollRejectsBadReplies(t *testing.T) {
	_, cleanup := setup(t)
	defer cleanup()

	testResponse = `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"nope"}}`
	assert.Equal(t, fault.InvalidSourceResponse, pollOnce(), "error reply accepted")

	testResponse = `{"jsonrpc":"2.0","id":1,"result":{"number":"16","hash":"xx"}}`
	assert.Equal(t, fault.InvalidSourceResponse, pollOnce(), "bad number accepted")

	testResponse = `not json at all`
	assert.NotNil(t, pollOnce(), "garbage accepted")

	reader, err := storage.NewReader()
	require.Nil(t, err, "new reader error")
	defer reader.Close()
	_, _, ok := reader.BaseLayerHead()
	assert.False(t, ok, "head recorded from bad replies")
}
