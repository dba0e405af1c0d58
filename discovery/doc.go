// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package discovery - locate aggregator endpoints
//
// connect addresses are published as DNS TXT records on a well-known
// domain:
//
//	lumen=v1 a=<IPv4;IPv6> c=<CONNECT-PORT> r=<RPC-PORT>
//
// successful lookups are backed up to a local file so a node can
// restart and reconnect while DNS is unavailable
package discovery
