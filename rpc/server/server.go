// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/counter"
	"github.com/lumen-rollup/lumend/rpc/chain"
	"github.com/lumen-rollup/lumend/rpc/node"
)

// Create - register all service objects
func Create(log *logger.L, version string, rpcCount *counter.Counter) *rpc.Server {

	start := time.Now().UTC()

	server := rpc.NewServer()

	_ = server.Register(node.New(log, start, version, rpcCount))
	_ = server.Register(chain.New(log))

	return server
}
