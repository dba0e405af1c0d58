// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/staterecord"
	"github.com/lumen-rollup/lumend/storage"
)

// state diff download stage
type stateData struct {
	stageData
}

func (sta *stateData) Run(args interface{}, shutdown <-chan struct{}) {
	sta.run(shutdown, sta.step)
}

func (sta *stateData) step() (bool, error) {
	globalData.pause.RLock()
	defer globalData.pause.RUnlock()

	log := sta.log

	reader, err := storage.NewReader()
	if nil != err {
		return false, err
	}

	height := reader.Marker(storage.StateMarker)
	headerMarker := reader.Marker(storage.HeaderMarker)
	reader.Close()

	if height >= headerMarker {
		return false, nil // caught up with the header stage
	}

	sta.state = stageFetching
	packed, err := globalData.source.FetchStateDiff(height)
	if nil != err {
		return false, err
	}

	sta.state = stageValidating
	diff, err := staterecord.PackedStateDiff(packed).Unpack()
	if nil != err {
		log.Errorf("state diff %d unpack error: %s", height, err)
		return false, fault.InvalidSourceResponse
	}

	sta.state = stageCommitting
	writer, err := storage.NewWriter()
	if nil != err {
		return false, err
	}

	err = writer.AppendStateDiff(height, diff)
	if nil != err {
		writer.Abort()
		return false, err
	}

	err = writer.Commit()
	if nil != err {
		return false, err
	}

	log.Debugf("stored state diff: %d", height)
	return true, nil
}
