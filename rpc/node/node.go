// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/counter"
	"github.com/lumen-rollup/lumend/mode"
	"github.com/lumen-rollup/lumend/rpc/ratelimit"
	"github.com/lumen-rollup/lumend/storage"
)

const (
	rateLimitNode = 200
	rateBurstNode = 100
)

// Node - type for RPC calls
type Node struct {
	Log     *logger.L
	Limiter *rate.Limiter
	Start   time.Time
	Version string
	counter *counter.Counter
}

// New - create the Node service
func New(log *logger.L, start time.Time, version string, counter *counter.Counter) *Node {
	return &Node{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitNode, rateBurstNode),
		Start:   start,
		Version: version,
		counter: counter,
	}
}

// ---

// InfoArguments - empty arguments for info request
type InfoArguments struct{}

// BlockInfo - the highest block held by the node
type BlockInfo struct {
	Height uint64 `json:"height,string"`
	Digest string `json:"digest"`
}

// MarkerInfo - the next expected height of every column
type MarkerInfo struct {
	Header        uint64 `json:"header,string"`
	Body          uint64 `json:"body,string"`
	State         uint64 `json:"state,string"`
	Class         uint64 `json:"class,string"`
	CompiledClass uint64 `json:"compiledClass,string"`
}

// BaseLayerInfo - the latest observed base layer block
type BaseLayerInfo struct {
	Height uint64 `json:"height,string"`
	Digest string `json:"digest"`
	Known  bool   `json:"known"`
}

// InfoReply - results from info request
type InfoReply struct {
	Chain     string        `json:"chain"`
	Mode      string        `json:"mode"`
	Block     BlockInfo     `json:"block"`
	Markers   MarkerInfo    `json:"markers"`
	BaseLayer BaseLayerInfo `json:"baseLayer"`
	RPCs      uint64        `json:"rpcs"`
	Version   string        `json:"version"`
	Uptime    string        `json:"uptime"`
}

// Info - return enough information for clients to determine node state
func (node *Node) Info(_ *InfoArguments, reply *InfoReply) error {

	if err := ratelimit.Limit(node.Limiter); nil != err {
		return err
	}

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	reply.Chain = mode.ChainName()
	reply.Mode = mode.String()

	reply.Markers = MarkerInfo{
		Header:        reader.Marker(storage.HeaderMarker),
		Body:          reader.Marker(storage.BodyMarker),
		State:         reader.Marker(storage.StateMarker),
		Class:         reader.Marker(storage.ClassMarker),
		CompiledClass: reader.Marker(storage.CompiledClassMarker),
	}

	if reply.Markers.Header > 0 {
		height := reply.Markers.Header - 1
		_, digest, err := reader.Header(height)
		if nil == err {
			reply.Block = BlockInfo{
				Height: height,
				Digest: digest.String(),
			}
		}
	}

	if height, digest, ok := reader.BaseLayerHead(); ok {
		reply.BaseLayer = BaseLayerInfo{
			Height: height,
			Digest: digest.String(),
			Known:  true,
		}
	}

	reply.RPCs = node.counter.Uint64()
	reply.Version = node.Version
	reply.Uptime = time.Since(node.Start).String()
	return nil
}
