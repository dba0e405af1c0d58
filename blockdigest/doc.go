// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockdigest - the digest type used to identify block
// headers and content-addressed records
//
// SHA3-256 of the packed record
package blockdigest
