// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package genesis - the pinned genesis blocks
//
// the aggregator feed starts at height zero; the node refuses a feed
// whose genesis digest does not match the pinned value for its chain
package genesis

import (
	"github.com/lumen-rollup/lumend/blockdigest"
)

// BlockNumber - the height of the genesis block
const BlockNumber = uint64(0)

// LiveGenesisDigest - digest of the live network genesis header
var LiveGenesisDigest = blockdigest.Digest{
	0x1d, 0x8f, 0x2c, 0xab, 0x6a, 0x28, 0x3e, 0x14,
	0x90, 0x4e, 0x53, 0x7c, 0xf2, 0x3b, 0xd0, 0x61,
	0x7a, 0x96, 0x08, 0xc4, 0x4f, 0x72, 0x15, 0xde,
	0x33, 0xb8, 0xe1, 0x09, 0x57, 0x6d, 0xc0, 0x4a,
}

// TestGenesisDigest - digest of the testing network genesis header
//
// also used by the local chain
var TestGenesisDigest = blockdigest.Digest{
	0x83, 0x14, 0xf9, 0x07, 0x2f, 0xdd, 0x5a, 0xc6,
	0x21, 0x40, 0x2e, 0x9b, 0x7c, 0x01, 0x68, 0x35,
	0xd9, 0x1e, 0x43, 0xbe, 0x52, 0xa7, 0x80, 0x0f,
	0x6a, 0x94, 0x37, 0xcc, 0x10, 0xeb, 0x5d, 0x26,
}

// DigestForChain - the pinned genesis digest for a chain
func DigestForChain(testing bool) blockdigest.Digest {
	if testing {
		return TestGenesisDigest
	}
	return LiveGenesisDigest
}
