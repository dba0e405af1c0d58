// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the columnar store for all chain data
//
// a single memory-mapped bbolt file holds a fixed set of named
// buckets, one per data kind.  bbolt's copy-on-write pages provide
// snapshot isolation: any number of Reader handles observe a frozen
// view of every bucket while exactly one Writer mutates fresh pages
// and commits atomically, with no separate write-ahead log.
//
// ordering is enforced by markers: one persisted next-expected-height
// counter per data kind, advanced only inside the same transaction
// that writes the data it covers.  a dependent kind's marker never
// exceeds its prerequisite's:
//
//   marker(body)     <= marker(header)
//   marker(state)    <= marker(header)
//   marker(class)    <= marker(state)
//   marker(compiled) <= marker(class)
//
// revert deletes all data strictly above a target height, in reverse
// dependency order, and rewinds the markers in the same transaction.
package storage
