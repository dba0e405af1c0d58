// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package baselayer - track the base-layer (L1) chain head
//
// polls an L1 JSON-RPC endpoint on a fixed cadence and records the
// latest block height and hash in the store; entirely independent of
// chain synchronisation, the recorded head only ever moves forward
package baselayer

import (
	"net/http"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/background"
	"github.com/lumen-rollup/lumend/fault"
)

// Configuration - base-layer poller settings from the configuration file
type Configuration struct {
	Endpoint    string `gluamapper:"endpoint" json:"endpoint"`
	PollSeconds int    `gluamapper:"poll_seconds" json:"poll_seconds"`
}

const (
	defaultPollSeconds = 30
	requestTimeout     = 30 * time.Second
)

// globals for background process
type baseLayerData struct {
	sync.RWMutex // to allow locking

	// logger
	log *logger.L

	// connection to the L1 daemon
	client   *http.Client
	endpoint string

	// identifier for the RPC
	id uint64

	pollInterval time.Duration

	// for background
	background *background.T

	// set once during initialise
	initialised bool
}

// global data
var globalData baseLayerData

// Initialise - start the poller
func Initialise(configuration Configuration) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	if "" == configuration.Endpoint {
		return fault.MissingParameters
	}

	globalData.log = logger.New("baselayer")
	globalData.log.Info("starting…")

	pollSeconds := configuration.PollSeconds
	if pollSeconds <= 0 {
		pollSeconds = defaultPollSeconds
	}

	globalData.client = &http.Client{Timeout: requestTimeout}
	globalData.endpoint = configuration.Endpoint
	globalData.id = 0
	globalData.pollInterval = time.Duration(pollSeconds) * time.Second

	globalData.initialised = true

	// start background processes
	globalData.log.Info("start background…")

	processes := background.Processes{
		&poller{},
	}

	globalData.background = background.Start(processes, nil)

	return nil
}

// Reconfigure - apply new poller settings without a restart
//
// restarts the background process when the endpoint or cadence
// changed; a blank endpoint stops base layer tracking entirely
func Reconfigure(configuration Configuration) error {
	globalData.RLock()
	running := globalData.initialised
	sameEndpoint := configuration.Endpoint == globalData.endpoint
	samePoll := time.Duration(configuration.PollSeconds)*time.Second == globalData.pollInterval
	globalData.RUnlock()

	if running && sameEndpoint && samePoll {
		return nil
	}

	if running {
		err := Finalise()
		if nil != err {
			return err
		}
	}

	if "" == configuration.Endpoint {
		return nil
	}

	return Initialise(configuration)
}

// Finalise - stop the poller
func Finalise() error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.background.Stop()

	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}
