// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package aggregator

import (
	"github.com/lumen-rollup/lumend/blockdigest"
)

// Info - aggregator chain summary returned by the "I" command
type Info struct {
	Height        uint64             // height of the aggregator's latest block
	GenesisDigest blockdigest.Digest // digest of the aggregator's genesis header
}

// Source - the interface the sync stages fetch from
//
// implementations return fault.NotYetAvailable when the aggregator
// has not produced the requested item yet, and ordinary errors for
// transport failures; both are retried by the caller
type Source interface {
	Info() (*Info, error)
	FetchHeader(height uint64) ([]byte, error)
	FetchBody(height uint64) ([]byte, error)
	FetchStateDiff(height uint64) ([]byte, error)
	FetchClass(hash blockdigest.Digest) ([]byte, error)
	FetchCompiledClass(hash blockdigest.Digest) ([]byte, error)
}
