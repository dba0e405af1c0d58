// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/aggregator"
	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/mode"
	"github.com/lumen-rollup/lumend/storage"
)

// revert the store back to the last height shared with the aggregator
//
// every stage is paused for the duration; the revert itself is one
// transaction so a crash mid-reorg leaves the old chain intact
func runReorg(log *logger.L, source aggregator.Source) error {
	globalData.pause.Lock()
	defer globalData.pause.Unlock()

	mode.Set(mode.Resynchronise)

	ancestor, err := findCommonAncestor(log, source)
	if nil != err {
		return err
	}

	writer, err := storage.NewWriter()
	if nil != err {
		return err
	}

	err = writer.RevertTo(ancestor)
	if nil != err {
		writer.Abort()
		return err
	}

	err = writer.Commit()
	if nil != err {
		return err
	}

	log.Warnf("reverted to common ancestor: %d", ancestor)
	return nil
}

// walk backwards from the stored top comparing stored digests with
// the aggregator's until they agree
//
// disagreement all the way down to the genesis header means this
// node is on the wrong network entirely
func findCommonAncestor(log *logger.L, source aggregator.Source) (uint64, error) {
	reader, err := storage.NewReader()
	if nil != err {
		return 0, err
	}
	defer reader.Close()

	top := reader.Marker(storage.HeaderMarker)
	if 0 == top {
		return 0, fault.BlockNotFound // nothing stored, nothing to revert
	}

	for height := top - 1; ; height -= 1 {
		_, stored, err := reader.Header(height)
		if nil != err {
			return 0, err
		}

		remote, err := remoteDigestOfHeight(source, height)
		if nil != err {
			return 0, err
		}

		if stored == remote {
			log.Infof("common ancestor: %d", height)
			return height, nil
		}

		log.Infof(
			"height: %d  stored: %v  aggregator: %v",
			height,
			stored,
			remote,
		)

		if 0 == height {
			log.Critical("genesis header differs from aggregator")
			return 0, fault.GenesisMismatch
		}
	}
}

func remoteDigestOfHeight(source aggregator.Source, height uint64) (blockdigest.Digest, error) {
	packed, err := source.FetchHeader(height)
	if nil != err {
		return blockdigest.Digest{}, err
	}
	return blockdigest.NewDigest(packed), nil
}
