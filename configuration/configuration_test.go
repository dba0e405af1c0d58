// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/chain"
	"github.com/lumen-rollup/lumend/configuration"
	"github.com/lumen-rollup/lumend/fault"
)

const sampleConfiguration = `
local M = {}

M.data_directory = "."
M.chain = "local"
M.pidfile = "lumend.pid"

M.aggregator = {
    connect = "127.0.0.1:29167",
    domain = "nodes.lumen.example",
}

M.base_layer = {
    endpoint = "http://127.0.0.1:8545",
    poll_seconds = 5,
}

M.client_rpc = {
    maximum_connections = 50,
    bandwidth = 25000000,
    listen = {
        "127.0.0.1:2130",
    },
}

M.logging = {
    size = 1048576,
    count = 20,
    levels = {
        DEFAULT = "critical",
    },
}

return M
`

func writeConfiguration(t *testing.T, text string) (string, func()) {
	directory, err := ioutil.TempDir("", "lumend-configuration-test")
	if nil != err {
		t.Fatalf("temp directory error: %s", err)
	}
	fileName := filepath.Join(directory, "lumend.conf")
	err = ioutil.WriteFile(fileName, []byte(text), 0600)
	if nil != err {
		t.Fatalf("write configuration error: %s", err)
	}
	return fileName, func() { _ = os.RemoveAll(directory) }
}

func TestGetConfiguration(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, sampleConfiguration)
	defer cleanup()

	options, err := configuration.GetConfiguration(fileName)
	assert.Nil(t, err, "wrong GetConfiguration")

	directory := filepath.Dir(fileName)

	assert.Equal(t, chain.Local, options.Chain, "wrong chain")
	assert.Equal(t, "127.0.0.1:29167", options.Aggregator.Connect, "wrong connect")
	assert.Equal(t, "nodes.lumen.example", options.Aggregator.Domain, "wrong domain")
	assert.Equal(t, 5, options.BaseLayer.PollSeconds, "wrong poll seconds")
	assert.Equal(t, uint64(50), options.ClientRPC.MaximumConnections, "wrong connection limit")
	assert.Equal(t, 20, options.Logging.Count, "wrong log count")

	// relative paths are anchored at the data directory
	assert.Equal(t, filepath.Join(directory, "lumend.pid"), options.PidFile, "wrong pidfile")
	assert.Equal(t, filepath.Join(directory, "data"), options.Database.Directory, "wrong database directory")
	assert.Equal(t, filepath.Join(directory, "endpoints.cache"), options.Aggregator.EndpointFile, "wrong endpoint file")
	assert.Equal(t, filepath.Join(directory, "rpc.crt"), options.ClientRPC.Certificate, "wrong certificate")
	assert.Equal(t, filepath.Join(directory, "log"), options.Logging.Directory, "wrong log directory")
}

func TestGetConfigurationRejectsBadChain(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, `
local M = {}
M.data_directory = "."
M.chain = "mainnet"
M.aggregator = { connect = "127.0.0.1:29167" }
return M
`)
	defer cleanup()

	_, err := configuration.GetConfiguration(fileName)
	assert.Equal(t, fault.InvalidChain, err, "wrong error")
}

func TestGetConfigurationRequiresAggregator(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, `
local M = {}
M.data_directory = "."
M.chain = "local"
return M
`)
	defer cleanup()

	_, err := configuration.GetConfiguration(fileName)
	assert.Equal(t, fault.ConnectIsRequired, err, "wrong error")
}

func TestWatcherSignalsChange(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, sampleConfiguration)
	defer cleanup()

	logDirectory, err := ioutil.TempDir("", "lumend-watcher-log")
	if nil != err {
		t.Fatalf("temp directory error: %s", err)
	}
	defer os.RemoveAll(logDirectory)

	_ = logger.Initialise(logger.Configuration{
		Directory: logDirectory,
		File:      "test.log",
		Size:      50000,
		Count:     10,
		Levels:    map[string]string{logger.DefaultTag: "critical"},
	})
	defer logger.Finalise()

	w, err := configuration.NewWatcher(fileName, logger.New("watcher"))
	assert.Nil(t, err, "wrong NewWatcher")
	defer w.Stop()

	err = w.Start()
	assert.Nil(t, err, "wrong Start")

	err = ioutil.WriteFile(fileName, []byte(sampleConfiguration+"\n-- touched\n"), 0600)
	assert.Nil(t, err, "wrong rewrite")

	select {
	case <-w.Change():
		// expected
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}
}
