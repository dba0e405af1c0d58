// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/staterecord"
	"github.com/lumen-rollup/lumend/storage"
)

// class download stage
//
// classes are fetched for the declarations recorded in each stored
// state diff; the store keeps one copy per class hash, so only the
// hashes it does not have yet are fetched
type classData struct {
	stageData
}

func (cls *classData) Run(args interface{}, shutdown <-chan struct{}) {
	cls.run(shutdown, cls.step)
}

func (cls *classData) step() (bool, error) {
	globalData.pause.RLock()
	defer globalData.pause.RUnlock()

	log := cls.log

	reader, err := storage.NewReader()
	if nil != err {
		return false, err
	}

	height := reader.Marker(storage.ClassMarker)
	if height >= reader.Marker(storage.StateMarker) {
		reader.Close()
		return false, nil // caught up with the state stage
	}

	diff, err := reader.StateDiff(height)
	if nil != err {
		reader.Close()
		return false, err
	}

	cls.state = stageFetching
	classes := make([]*staterecord.Class, 0, len(diff.Declarations))
	compiled := make([]*staterecord.CompiledClass, 0, len(diff.Declarations))

	for _, declaration := range diff.Declarations {
		if !reader.HasClass(declaration.ClassHash) {
			class, err := cls.fetchClass(declaration.ClassHash)
			if nil != err {
				reader.Close()
				return false, err
			}
			classes = append(classes, class)
		}

		_, _, err := reader.CompiledClass(declaration.CompiledClassHash)
		if fault.ClassNotFound == err {
			class, err := cls.fetchCompiledClass(declaration.CompiledClassHash)
			if nil != err {
				reader.Close()
				return false, err
			}
			compiled = append(compiled, class)
		} else if nil != err {
			reader.Close()
			return false, err
		}
	}
	reader.Close()

	cls.state = stageCommitting
	writer, err := storage.NewWriter()
	if nil != err {
		return false, err
	}

	err = writer.AppendClasses(height, classes)
	if nil != err {
		writer.Abort()
		return false, err
	}

	err = writer.AppendCompiledClasses(height, compiled)
	if nil != err {
		writer.Abort()
		return false, err
	}

	err = writer.Commit()
	if nil != err {
		return false, err
	}

	log.Debugf("stored %d classes for height: %d", len(classes), height)
	return true, nil
}

// fetch one class, preferring the recently-fetched cache
func (cls *classData) fetchClass(hash blockdigest.Digest) (*staterecord.Class, error) {
	key := "c" + hash.String()

	if cached, ok := globalData.classCache.Get(key); ok {
		return cached.(*staterecord.Class), nil
	}

	packed, err := globalData.source.FetchClass(hash)
	if nil != err {
		return nil, err
	}

	class, err := staterecord.PackedClass(packed).Unpack()
	if nil != err {
		cls.log.Errorf("class %v unpack error: %s", hash, err)
		return nil, fault.InvalidSourceResponse
	}
	if hash != class.Hash() {
		cls.log.Errorf("class hash: %v  definition hashes to: %v", hash, class.Hash())
		return nil, fault.InvalidSourceResponse
	}

	globalData.classCache.Set(key, class, gocache.DefaultExpiration)
	return class, nil
}

// compiled classes share the packed form and the content addressing
func (cls *classData) fetchCompiledClass(hash blockdigest.Digest) (*staterecord.CompiledClass, error) {
	key := "x" + hash.String()

	if cached, ok := globalData.classCache.Get(key); ok {
		return cached.(*staterecord.CompiledClass), nil
	}

	packed, err := globalData.source.FetchCompiledClass(hash)
	if nil != err {
		return nil, err
	}

	class, err := staterecord.PackedClass(packed).Unpack()
	if nil != err {
		cls.log.Errorf("compiled class %v unpack error: %s", hash, err)
		return nil, fault.InvalidSourceResponse
	}
	if hash != class.Hash() {
		cls.log.Errorf("compiled class hash: %v  definition hashes to: %v", hash, class.Hash())
		return nil, fault.InvalidSourceResponse
	}

	globalData.classCache.Set(key, class, gocache.DefaultExpiration)
	return class, nil
}
