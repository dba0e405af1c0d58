// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package syncer - downloads the chain from the aggregator
//
// one background process per data kind: headers, bodies, state diffs
// and classes; each stage only appends at its own marker, so the
// dependency order (body after header, state after header, class
// after state) is enforced by the storage layer and the stages never
// coordinate directly.
//
// the header stage additionally watches for parent linkage breaks; on
// a break it pauses every stage, walks backwards to the common
// ancestor and reverts the store in one transaction before resuming.
package syncer
