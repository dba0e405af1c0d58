// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	"github.com/lumen-rollup/lumend/blockrecord"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/storage"
)

// body download stage
type bodyData struct {
	stageData
}

func (bdy *bodyData) Run(args interface{}, shutdown <-chan struct{}) {
	bdy.run(shutdown, bdy.step)
}

func (bdy *bodyData) step() (bool, error) {
	globalData.pause.RLock()
	defer globalData.pause.RUnlock()

	log := bdy.log

	reader, err := storage.NewReader()
	if nil != err {
		return false, err
	}

	height := reader.Marker(storage.BodyMarker)
	if height >= reader.Marker(storage.HeaderMarker) {
		reader.Close()
		return false, nil // caught up with the header stage
	}

	header, _, err := reader.Header(height)
	reader.Close()
	if nil != err {
		return false, err
	}

	bdy.state = stageFetching
	packed, err := globalData.source.FetchBody(height)
	if nil != err {
		return false, err
	}

	bdy.state = stageValidating
	body, err := blockrecord.PackedBody(packed).Unpack()
	if nil != err {
		log.Errorf("body %d unpack error: %s", height, err)
		return false, fault.InvalidSourceResponse
	}
	if uint32(len(body.Transactions)) != header.TransactionCount {
		log.Errorf(
			"body %d has %d transactions, header expects: %d",
			height,
			len(body.Transactions),
			header.TransactionCount,
		)
		return false, fault.InvalidSourceResponse
	}

	bdy.state = stageCommitting
	writer, err := storage.NewWriter()
	if nil != err {
		return false, err
	}

	err = writer.AppendBody(height, body)
	if nil != err {
		writer.Abort()
		return false, err
	}

	err = writer.Commit()
	if nil != err {
		return false, err
	}

	log.Debugf("stored body: %d", height)
	return true, nil
}
