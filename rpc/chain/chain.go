// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/blockrecord"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/rpc/ratelimit"
	"github.com/lumen-rollup/lumend/staterecord"
	"github.com/lumen-rollup/lumend/storage"
)

const (
	rateLimitChain = 200
	rateBurstChain = 100
)

// Chain - read-only queries against the local store
//
// a height is answerable once the owning column's marker has passed
// it; anything at or above the marker has not been synchronised yet
// and is reported as a temporary error so clients can retry
type Chain struct {
	Log     *logger.L
	Limiter *rate.Limiter
}

// New - create the Chain service
func New(log *logger.L) *Chain {
	return &Chain{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitChain, rateBurstChain),
	}
}

// ---

// HeaderArguments - the height of the wanted header
type HeaderArguments struct {
	Height uint64 `json:"height,string"`
}

// HeaderReply - the header and its digest
type HeaderReply struct {
	Header *blockrecord.Header `json:"header"`
	Digest blockdigest.Digest  `json:"digest"`
}

// Header - fetch a stored header by height
func (c *Chain) Header(arguments *HeaderArguments, reply *HeaderReply) error {

	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	if arguments.Height >= reader.Marker(storage.HeaderMarker) {
		return fault.NotAvailableDuringSync
	}

	header, digest, err := reader.Header(arguments.Height)
	if nil != err {
		return err
	}
	reply.Header = header
	reply.Digest = digest
	return nil
}

// ---

// BodyArguments - the height of the wanted body
type BodyArguments struct {
	Height uint64 `json:"height,string"`
}

// BodyReply - transactions and receipts of one block
type BodyReply struct {
	Body *blockrecord.Body `json:"body"`
}

// Body - fetch a stored block body by height
func (c *Chain) Body(arguments *BodyArguments, reply *BodyReply) error {

	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	if arguments.Height >= reader.Marker(storage.BodyMarker) {
		return fault.NotAvailableDuringSync
	}

	body, err := reader.Body(arguments.Height)
	if nil != err {
		return err
	}
	reply.Body = body
	return nil
}

// ---

// StateDiffArguments - the height of the wanted state diff
type StateDiffArguments struct {
	Height uint64 `json:"height,string"`
}

// StateDiffReply - the state diff applied by one block
type StateDiffReply struct {
	StateDiff *staterecord.StateDiff `json:"stateDiff"`
}

// StateDiff - fetch a stored state diff by height
func (c *Chain) StateDiff(arguments *StateDiffArguments, reply *StateDiffReply) error {

	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	if arguments.Height >= reader.Marker(storage.StateMarker) {
		return fault.NotAvailableDuringSync
	}

	diff, err := reader.StateDiff(arguments.Height)
	if nil != err {
		return err
	}
	reply.StateDiff = diff
	return nil
}

// ---

// ClassArguments - the hash of the wanted class
type ClassArguments struct {
	Hash blockdigest.Digest `json:"hash"`
}

// ClassReply - a class definition and the height that declared it
type ClassReply struct {
	Class      *staterecord.Class `json:"class"`
	DeclaredAt uint64             `json:"declaredAt,string"`
}

// Class - fetch a class definition by hash
func (c *Chain) Class(arguments *ClassArguments, reply *ClassReply) error {

	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	class, declaredAt, err := reader.Class(arguments.Hash)
	if nil != err {
		return err
	}
	reply.Class = class
	reply.DeclaredAt = declaredAt
	return nil
}

// CompiledClass - fetch a compiled class by its compiled hash
func (c *Chain) CompiledClass(arguments *ClassArguments, reply *ClassReply) error {

	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	class, declaredAt, err := reader.CompiledClass(arguments.Hash)
	if nil != err {
		return err
	}
	reply.Class = class
	reply.DeclaredAt = declaredAt
	return nil
}

// ---

// NonceArguments - contract address and the height to evaluate at
type NonceArguments struct {
	Address staterecord.Address `json:"address"`
	Height  uint64              `json:"height,string"`
}

// NonceReply - the nonce visible at the requested height
type NonceReply struct {
	Nonce uint64 `json:"nonce,string"`
	Known bool   `json:"known"`
}

// NonceAt - the nonce of a contract as of a given height
func (c *Chain) NonceAt(arguments *NonceArguments, reply *NonceReply) error {

	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	if arguments.Height >= reader.Marker(storage.StateMarker) {
		return fault.NotAvailableDuringSync
	}

	reply.Nonce, reply.Known = reader.NonceAt(arguments.Address, arguments.Height)
	return nil
}

// ---

// StorageArguments - contract address, storage key and height
type StorageArguments struct {
	Address staterecord.Address `json:"address"`
	Key     staterecord.Word    `json:"key"`
	Height  uint64              `json:"height,string"`
}

// StorageReply - the storage value visible at the requested height
type StorageReply struct {
	Value staterecord.Word `json:"value"`
	Known bool             `json:"known"`
}

// StorageAt - one storage slot of a contract as of a given height
func (c *Chain) StorageAt(arguments *StorageArguments, reply *StorageReply) error {

	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	if arguments.Height >= reader.Marker(storage.StateMarker) {
		return fault.NotAvailableDuringSync
	}

	reply.Value, reply.Known = reader.StorageAt(arguments.Address, arguments.Key, arguments.Height)
	return nil
}
