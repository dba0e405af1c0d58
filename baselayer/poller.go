// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package baselayer

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"strconv"
	"strings"
	"time"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/storage"
)

// background process polling the L1 head
type poller struct{}

func (p *poller) Run(args interface{}, shutdown <-chan struct{}) {
	log := globalData.log

	log.Info("starting…")

	timer := time.After(time.Second) // first poll almost immediately

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case <-timer:
			timer = time.After(globalData.pollInterval)

			err := pollOnce()
			if nil != err {
				log.Warnf("poll error: %s", err)
			}
		}
	}
	log.Info("stopped")
}

// fetch the latest L1 block and record it
//
// older heights than already recorded are silently ignored by the
// store, so races between delayed responses are harmless
func pollOnce() error {
	height, digest, err := fetchLatestBlock()
	if nil != err {
		return err
	}

	writer, err := storage.NewWriter()
	if nil != err {
		return err
	}

	err = writer.SetBaseLayerHead(height, digest)
	if nil != err {
		writer.Abort()
		return err
	}

	err = writer.Commit()
	if nil != err {
		return err
	}

	globalData.log.Debugf("base layer head: %d  %v", height, digest)
	return nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

type rpcReply struct {
	Result *struct {
		Number string `json:"number"`
		Hash   string `json:"hash"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// eth_getBlockByNumber("latest") against the configured endpoint
func fetchLatestBlock() (uint64, blockdigest.Digest, error) {

	globalData.Lock()
	globalData.id += 1
	request := rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_getBlockByNumber",
		Params:  []interface{}{"latest", false},
		ID:      globalData.id,
	}
	globalData.Unlock()

	buffer, err := json.Marshal(request)
	if nil != err {
		return 0, blockdigest.Digest{}, err
	}

	response, err := globalData.client.Post(
		globalData.endpoint,
		"application/json",
		bytes.NewReader(buffer),
	)
	if nil != err {
		return 0, blockdigest.Digest{}, err
	}
	defer response.Body.Close()

	body, err := ioutil.ReadAll(response.Body)
	if nil != err {
		return 0, blockdigest.Digest{}, err
	}

	var reply rpcReply
	err = json.Unmarshal(body, &reply)
	if nil != err {
		return 0, blockdigest.Digest{}, err
	}
	if nil != reply.Error {
		globalData.log.Errorf("rpc error %d: %s", reply.Error.Code, reply.Error.Message)
		return 0, blockdigest.Digest{}, fault.InvalidSourceResponse
	}
	if nil == reply.Result {
		return 0, blockdigest.Digest{}, fault.InvalidSourceResponse
	}

	height, err := parseHexUint64(reply.Result.Number)
	if nil != err {
		return 0, blockdigest.Digest{}, fault.InvalidSourceResponse
	}

	digest, err := parseHexDigest(reply.Result.Hash)
	if nil != err {
		return 0, blockdigest.Digest{}, fault.InvalidSourceResponse
	}

	return height, digest, nil
}

func parseHexUint64(s string) (uint64, error) {
	if !strings.HasPrefix(s, "0x") {
		return 0, fault.InvalidSourceResponse
	}
	return strconv.ParseUint(s[2:], 16, 64)
}

func parseHexDigest(s string) (blockdigest.Digest, error) {
	var digest blockdigest.Digest
	if !strings.HasPrefix(s, "0x") {
		return digest, fault.InvalidSourceResponse
	}
	err := digest.UnmarshalText([]byte(s[2:]))
	return digest, err
}
