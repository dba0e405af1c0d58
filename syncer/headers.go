// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/blockrecord"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/genesis"
	"github.com/lumen-rollup/lumend/mode"
	"github.com/lumen-rollup/lumend/storage"
)

// header download stage
type headerData struct {
	stageData
}

func (hdr *headerData) Run(args interface{}, shutdown <-chan struct{}) {
	hdr.run(shutdown, hdr.step)
}

func (hdr *headerData) step() (bool, error) {
	globalData.pause.RLock()
	more, diverged, err := hdr.advance()
	globalData.pause.RUnlock()

	if diverged {
		// must not hold the read side while reverting
		err = runReorg(hdr.log, globalData.source)
		return nil == err, err
	}
	return more, err
}

// append the next header if the aggregator has it
//
// diverged is set when the fetched header does not extend the stored
// chain; the caller owns the reorg
func (hdr *headerData) advance() (more bool, diverged bool, err error) {
	log := hdr.log

	height, parent, err := nextHeaderPosition()
	if nil != err {
		return false, false, err
	}

	hdr.state = stageFetching
	packed, err := globalData.source.FetchHeader(height)
	if nil != err {
		if fault.NotYetAvailable == err && mode.Is(mode.Resynchronise) {
			// caught up: the node is now serving queries
			log.Infof("synchronised at height: %d", height)
			mode.Set(mode.Normal)
		}
		return false, false, err
	}

	hdr.state = stageValidating
	header, err := blockrecord.UnpackHeader(packed)
	if nil != err {
		log.Errorf("header %d unpack error: %s", height, err)
		return false, false, fault.InvalidSourceResponse
	}
	if height != header.Number {
		log.Errorf("header height: %d  aggregator sent: %d", height, header.Number)
		return false, false, fault.InvalidSourceResponse
	}

	if header.ParentBlock != parent {
		if genesis.BlockNumber == height {
			// nothing stored yet, a genesis header simply has no parent
			log.Errorf("genesis header has parent: %v", header.ParentBlock)
			return false, false, fault.InvalidSourceResponse
		}
		log.Warnf(
			"divergence at height: %d  stored parent: %v  aggregator parent: %v",
			height,
			parent,
			header.ParentBlock,
		)
		return false, true, nil
	}

	hdr.state = stageCommitting
	writer, err := storage.NewWriter()
	if nil != err {
		return false, false, err
	}

	err = writer.AppendHeader(height, header)
	if nil != err {
		writer.Abort()
		return false, false, err
	}

	err = writer.Commit()
	if nil != err {
		return false, false, err
	}

	log.Debugf("stored header: %d", height)
	return true, false, nil
}

// the next height to append and the digest its parent must carry
func nextHeaderPosition() (uint64, blockdigest.Digest, error) {
	reader, err := storage.NewReader()
	if nil != err {
		return 0, blockdigest.Digest{}, err
	}
	defer reader.Close()

	height := reader.Marker(storage.HeaderMarker)
	if 0 == height {
		return 0, blockdigest.Digest{}, nil
	}

	_, parent, err := reader.Header(height - 1)
	if nil != err {
		return 0, blockdigest.Digest{}, err
	}
	return height, parent, nil
}
