// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/blockrecord"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/staterecord"
)

// Writer - the single write transaction
//
// appends must land in strict height order per kind: each append
// checks its height against the kind's marker and the markers of any
// prerequisite kinds.  Commit persists all appends and all marker
// advances atomically; Abort leaves the store untouched.
//
// only one Writer exists at a time; a second NewWriter while one is
// open fails rather than blocking forever on the bbolt lock.
type Writer struct {
	tx *bolt.Tx
}

// NewWriter - begin the exclusive write transaction
func NewWriter() (*Writer, error) {
	poolData.Lock()

	if !poolData.initialised {
		poolData.Unlock()
		return nil, fault.NotInitialised
	}
	if poolData.writerInUse {
		poolData.Unlock()
		return nil, fault.TransactionIsInUse
	}
	poolData.writerInUse = true
	db := poolData.db
	poolData.Unlock()

	tx, err := db.Begin(true)
	if nil != err {
		release()
		return nil, err
	}
	return &Writer{tx: tx}, nil
}

func release() {
	poolData.Lock()
	poolData.writerInUse = false
	poolData.Unlock()
}

// Commit - durably persist all changes atomically
//
// an error here is an underlying storage fault and must be treated as
// fatal by the caller: the store itself remains consistent, but the
// appends of this transaction are lost
func (w *Writer) Commit() error {
	if nil == w.tx {
		return fault.NotInitialised
	}
	err := w.tx.Commit()
	w.tx = nil
	release()
	return err
}

// Abort - discard all changes
//
// safe to call after Commit; used in defer for error paths
func (w *Writer) Abort() {
	if nil != w.tx {
		w.tx.Rollback()
		w.tx = nil
		release()
	}
}

// Marker - the next expected height for a data kind
//
// observes this transaction's own pending updates
func (w *Writer) Marker(marker Marker) uint64 {
	return getMarker(w.tx, marker)
}

// Header - read back a header inside this transaction
func (w *Writer) Header(height uint64) (*blockrecord.Header, blockdigest.Digest, error) {
	packed := Pool.Headers.get(w.tx, HeightKey(height))
	if nil == packed {
		return nil, blockdigest.Digest{}, fault.BlockNotFound
	}
	header, err := blockrecord.UnpackHeader(packed)
	if nil != err {
		return nil, blockdigest.Digest{}, err
	}
	return header, blockdigest.NewDigest(packed), nil
}

// AppendHeader - store the header at the next expected height
func (w *Writer) AppendHeader(height uint64, header *blockrecord.Header) error {

	if height != getMarker(w.tx, HeaderMarker) {
		return fault.MarkerMismatch
	}

	packed := header.Pack()
	if err := Pool.Headers.put(w.tx, HeightKey(height), packed[:]); nil != err {
		return err
	}
	return putMarker(w.tx, HeaderMarker, height+1)
}

// AppendBody - store the body at the next expected height
//
// the header for the same height must already be present
func (w *Writer) AppendBody(height uint64, body *blockrecord.Body) error {

	if height != getMarker(w.tx, BodyMarker) {
		return fault.MarkerMismatch
	}
	if height >= getMarker(w.tx, HeaderMarker) {
		return fault.BodyBeforeHeader
	}

	packed, err := body.Pack()
	if nil != err {
		return err
	}
	if err := Pool.Bodies.put(w.tx, HeightKey(height), packed); nil != err {
		return err
	}
	return putMarker(w.tx, BodyMarker, height+1)
}

// AppendStateDiff - store the state diff at the next expected height
//
// the header for the same height must already be present.  contract
// nonces and storage cells are versioned by height so that reads can
// seek the latest value at or below any height and reverts can remove
// exactly the entries above the rollback point.
func (w *Writer) AppendStateDiff(height uint64, diff *staterecord.StateDiff) error {

	if height != getMarker(w.tx, StateMarker) {
		return fault.MarkerMismatch
	}
	if height >= getMarker(w.tx, HeaderMarker) {
		return fault.StateBeforeHeader
	}

	heightKey := HeightKey(height)

	if err := Pool.StateDiffs.put(w.tx, heightKey, diff.Pack()); nil != err {
		return err
	}

	for _, update := range diff.ContractUpdates {
		if update.HasNonce {
			value := make([]byte, 8)
			binary.BigEndian.PutUint64(value, update.Nonce)
			key := versionedKey(update.Address[:], nil, height)
			if err := Pool.ContractNonces.put(w.tx, key, value); nil != err {
				return err
			}
		}
		for _, entry := range update.Storage {
			key := versionedKey(update.Address[:], entry.Key[:], height)
			if err := Pool.ContractStorage.put(w.tx, key, entry.Value[:]); nil != err {
				return err
			}
		}
	}

	return putMarker(w.tx, StateMarker, height+1)
}

// AppendClasses - store the classes declared at the next expected height
//
// the state diff for the height must already be present since it is
// the source of the declaration list.  classes are content-addressed
// and shared: one already stored (declared at an earlier height) is
// left untouched, so reverting a later height never removes it.
// only hashes actually inserted here are recorded against this height
// for use by revert.
func (w *Writer) AppendClasses(height uint64, classes []*staterecord.Class) error {

	if height != getMarker(w.tx, ClassMarker) {
		return fault.MarkerMismatch
	}
	if height >= getMarker(w.tx, StateMarker) {
		return fault.ClassBeforeState
	}

	declared := []byte{}
	for _, class := range classes {
		hash := class.Hash()
		if Pool.Classes.has(w.tx, hash[:]) {
			continue // shared with an earlier height
		}
		if err := Pool.Classes.putNB(w.tx, hash[:], height, class.Pack()); nil != err {
			return err
		}
		declared = append(declared, hash[:]...)
	}

	if 0 != len(declared) {
		if err := Pool.ClassDeclarations.put(w.tx, HeightKey(height), declared); nil != err {
			return err
		}
	}

	return putMarker(w.tx, ClassMarker, height+1)
}

// AppendCompiledClasses - store compiled classes for the next expected height
//
// trails the class marker the same way classes trail state.  compiled
// classes are keyed by their own digest, not the class hash, so the
// hashes inserted here are recorded against this height separately
// from the class declarations.
func (w *Writer) AppendCompiledClasses(height uint64, classes []*staterecord.CompiledClass) error {

	if height != getMarker(w.tx, CompiledClassMarker) {
		return fault.MarkerMismatch
	}
	if height >= getMarker(w.tx, ClassMarker) {
		return fault.CompiledBeforeClass
	}

	declared := []byte{}
	for _, class := range classes {
		hash := class.Hash()
		if Pool.CompiledClasses.has(w.tx, hash[:]) {
			continue // shared with an earlier height
		}
		if err := Pool.CompiledClasses.putNB(w.tx, hash[:], height, class.Pack()); nil != err {
			return err
		}
		declared = append(declared, hash[:]...)
	}

	if 0 != len(declared) {
		if err := Pool.CompiledDeclarations.put(w.tx, HeightKey(height), declared); nil != err {
			return err
		}
	}

	return putMarker(w.tx, CompiledClassMarker, height+1)
}

// SetBaseLayerHead - record the latest observed base-layer block
//
// the base-layer marker is monotonic: an older height than already
// recorded is ignored, never an error, since L1 polls can race
func (w *Writer) SetBaseLayerHead(height uint64, digest blockdigest.Digest) error {

	if height+1 < getMarker(w.tx, BaseLayerMarker) {
		return nil
	}

	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, height)
	if err := Pool.Metadata.put(w.tx, baseLayerHeightKey, value); nil != err {
		return err
	}
	if err := Pool.Metadata.put(w.tx, baseLayerDigestKey, digest[:]); nil != err {
		return err
	}
	return putMarker(w.tx, BaseLayerMarker, height+1)
}

// RevertTo - delete all data strictly above a height
//
// removal is in reverse dependency order so that no surviving record
// ever references a removed one: compiled classes and classes first,
// then versioned state, state diffs, bodies and finally headers.  all
// markers above height+1 are rewound to height+1 in the same
// transaction.  the base-layer marker is untouched.
func (w *Writer) RevertTo(height uint64) error {

	// classes and compiled classes declared above the target
	//
	// a class is recorded against the height that first inserted it,
	// so anything listed here is unreferenced at or below the target
	err := w.deleteDeclarations(height)
	if nil != err {
		return err
	}

	// versioned contract state: use the stored diffs to delete the
	// exact keys written above the target
	stateMarker := getMarker(w.tx, StateMarker)
	for h := stateMarker; h > height+1; h -= 1 {
		err := w.revertStateDiff(h - 1)
		if nil != err {
			return err
		}
	}

	// remaining height-keyed records
	for _, pool := range []*PoolHandle{Pool.StateDiffs, Pool.Bodies, Pool.Headers} {
		err := deleteAbove(pool.bucket(w.tx), height)
		if nil != err {
			return err
		}
	}

	// rewind all chain markers
	for marker := HeaderMarker; marker < BaseLayerMarker; marker += 1 {
		if getMarker(w.tx, marker) > height+1 {
			err := putMarker(w.tx, marker, height+1)
			if nil != err {
				return err
			}
		}
	}

	return nil
}

// delete class and compiled class records first declared above height
//
// each declarations bucket lists the hashes its append actually
// inserted, so a record shared with an earlier height is never touched
func (w *Writer) deleteDeclarations(height uint64) error {

	err := deleteDeclared(w.tx, Pool.CompiledDeclarations, Pool.CompiledClasses, height)
	if nil != err {
		return err
	}
	return deleteDeclared(w.tx, Pool.ClassDeclarations, Pool.Classes, height)
}

// remove the records listed in a declarations bucket above a height,
// then the declaration entries themselves
func deleteDeclared(tx *bolt.Tx, declarations *PoolHandle, records *PoolHandle, height uint64) error {

	bucket := declarations.bucket(tx)
	cursor := bucket.Cursor()

	deleteKeys := [][]byte{}
	for key, value := cursor.Seek(HeightKey(height + 1)); nil != key; key, value = cursor.Next() {
		for i := 0; i+blockdigest.Length <= len(value); i += blockdigest.Length {
			if err := records.remove(tx, value[i:i+blockdigest.Length]); nil != err {
				return err
			}
		}
		deleteKeys = append(deleteKeys, append([]byte{}, key...))
	}

	for _, key := range deleteKeys {
		if err := bucket.Delete(key); nil != err {
			return err
		}
	}
	return nil
}

// delete the versioned nonce and storage entries of one height
func (w *Writer) revertStateDiff(height uint64) error {

	diff, err := w.stateDiff(height)
	if nil != err {
		return err
	}

	for _, update := range diff.ContractUpdates {
		if update.HasNonce {
			key := versionedKey(update.Address[:], nil, height)
			if err := Pool.ContractNonces.remove(w.tx, key); nil != err {
				return err
			}
		}
		for _, entry := range update.Storage {
			key := versionedKey(update.Address[:], entry.Key[:], height)
			if err := Pool.ContractStorage.remove(w.tx, key); nil != err {
				return err
			}
		}
	}
	return nil
}

// read a state diff inside this transaction
func (w *Writer) stateDiff(height uint64) (*staterecord.StateDiff, error) {
	packed := Pool.StateDiffs.get(w.tx, HeightKey(height))
	if nil == packed {
		return nil, fault.BlockNotFound
	}
	return staterecord.PackedStateDiff(packed).Unpack()
}

// delete all keys strictly above a height in a height-keyed bucket
func deleteAbove(bucket *bolt.Bucket, height uint64) error {

	cursor := bucket.Cursor()

	deleteKeys := [][]byte{}
	for key, _ := cursor.Seek(HeightKey(height + 1)); nil != key; key, _ = cursor.Next() {
		deleteKeys = append(deleteKeys, append([]byte{}, key...))
	}

	for _, key := range deleteKeys {
		if err := bucket.Delete(key); nil != err {
			return err
		}
	}
	return nil
}
