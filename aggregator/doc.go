// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package aggregator - client for the central block aggregator
//
// the aggregator serves the canonical chain over a ZeroMQ REQ/REP
// socket; each request is a single-letter command frame optionally
// followed by a parameter frame:
//
//	I <chain-name>    → I <8-byte height> <32-byte genesis digest>
//	H <8-byte height> → H <packed header>
//	B <8-byte height> → B <packed body>
//	D <8-byte height> → D <packed state diff>
//	C <32-byte hash>  → C <packed class>
//	X <32-byte hash>  → X <packed compiled class>
//
// an "E" reply carries an error message; an "A" reply means the
// requested item is not yet available and the caller should retry
// after a delay
package aggregator
