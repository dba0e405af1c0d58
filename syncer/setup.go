// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/aggregator"
	"github.com/lumen-rollup/lumend/background"
	"github.com/lumen-rollup/lumend/chain"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/genesis"
	"github.com/lumen-rollup/lumend/mode"
	"github.com/lumen-rollup/lumend/storage"
)

// fetched class definitions are remembered briefly so a reorg does
// not refetch classes that immediately get re-declared
const (
	classCacheExpiry  = 10 * time.Minute
	classCacheCleanup = 30 * time.Minute
)

// globals for background processes
type syncData struct {
	sync.RWMutex // to allow locking

	log *logger.L

	source aggregator.Source

	// held read-side by every stage while it works; the reorg
	// path takes the write side to pause the whole pipeline
	pause sync.RWMutex

	classCache *gocache.Cache

	hdr  headerData
	bdy  bodyData
	sta  stateData
	cls  classData

	// for background
	background *background.T

	// set once during initialise
	initialised bool
}

var globalData syncData

// Initialise - start the sync pipeline
//
// the aggregator must agree on genesis with any locally stored chain
// before any stage starts
func Initialise(source aggregator.Source) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("syncer")
	globalData.log.Info("starting…")

	globalData.source = source
	globalData.classCache = gocache.New(classCacheExpiry, classCacheCleanup)

	err := verifyGenesis(source)
	if nil != err {
		return err
	}

	mode.Set(mode.Resynchronise)

	globalData.hdr.initialise("header")
	globalData.bdy.initialise("body")
	globalData.sta.initialise("state")
	globalData.cls.initialise("class")

	globalData.initialised = true

	// start background processes
	globalData.log.Info("start background…")

	processes := background.Processes{
		&globalData.hdr,
		&globalData.bdy,
		&globalData.sta,
		&globalData.cls,
	}

	globalData.background = background.Start(processes, nil)

	return nil
}

// Finalise - stop all background processes
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

// the aggregator's genesis digest must match the pinned value for the
// current chain, and any stored genesis header must match it too
//
// the local chain carries no pinned digest so only the stored check
// applies there
func verifyGenesis(source aggregator.Source) error {
	info, err := source.Info()
	if nil != err {
		// transport failure is not fatal, the check re-runs on
		// the first reorg walk if a conflict ever arises
		globalData.log.Warnf("genesis check deferred: %s", err)
		return nil
	}

	if chain.Local != mode.ChainName() {
		pinned := genesis.DigestForChain(mode.IsTesting())
		if info.GenesisDigest != pinned {
			globalData.log.Criticalf(
				"aggregator genesis: %v  expected for chain %q: %v",
				info.GenesisDigest,
				mode.ChainName(),
				pinned,
			)
			return fault.WrongNetworkForGenesis
		}
	}

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	if !reader.HasHeader(0) {
		return nil // nothing stored yet
	}

	_, digest, err := reader.Header(0)
	if nil != err {
		return err
	}
	if digest != info.GenesisDigest {
		globalData.log.Criticalf(
			"stored genesis: %v  aggregator genesis: %v",
			digest,
			info.GenesisDigest,
		)
		return fault.GenesisMismatch
	}
	return nil
}
