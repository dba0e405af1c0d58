// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

// FetchCursor - cursor for ascending fetches over one pool
//
// bound to the Reader's snapshot; key order is byte-lexicographic
// which for height-keyed pools is ascending height order
type FetchCursor struct {
	reader  *Reader
	pool    *PoolHandle
	current []byte
}

// NewFetchCursor - create a cursor positioned at the start of a pool
func (r *Reader) NewFetchCursor(pool *PoolHandle) *FetchCursor {
	return &FetchCursor{
		reader: r,
		pool:   pool,
	}
}

// Seek - position the cursor at a height
func (cursor *FetchCursor) Seek(height uint64) *FetchCursor {
	cursor.current = HeightKey(height)
	return cursor
}

// Fetch - fetch up to count elements from the current position
//
// the elements are copies and remain valid after Close
func (cursor *FetchCursor) Fetch(count int) ([]Element, error) {
	if nil == cursor {
		return nil, nil
	}
	if count <= 0 {
		return nil, nil
	}

	c := cursor.pool.bucket(cursor.reader.tx).Cursor()

	results := make([]Element, 0, count)

	key, value := c.First()
	if nil != cursor.current {
		key, value = c.Seek(cursor.current)
	}

	for ; nil != key && len(results) < count; key, value = c.Next() {
		elementKey := make([]byte, len(key))
		copy(elementKey, key)
		elementValue := make([]byte, len(value))
		copy(elementValue, value)
		results = append(results, Element{Key: elementKey, Value: elementValue})
	}

	// remember the next start position
	if nil != key {
		next := make([]byte, len(key))
		copy(next, key)
		cursor.current = next
	} else if n := len(results); n > 0 {
		// past the end: make a key just after the last element
		last := results[n-1].Key
		next := make([]byte, len(last), len(last)+1)
		copy(next, last)
		cursor.current = append(next, 0x00)
	}

	return results, nil
}
