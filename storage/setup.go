// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/fault"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Headers              *PoolHandle `bucket:"headers"`
	Bodies               *PoolHandle `bucket:"bodies"`
	StateDiffs           *PoolHandle `bucket:"state-diffs"`
	Classes              *PoolHandle `bucket:"classes"`
	CompiledClasses      *PoolHandle `bucket:"compiled-classes"`
	ClassDeclarations    *PoolHandle `bucket:"class-declarations"`
	CompiledDeclarations *PoolHandle `bucket:"compiled-declarations"`
	ContractNonces       *PoolHandle `bucket:"contract-nonces"`
	ContractStorage      *PoolHandle `bucket:"contract-storage"`
	Markers              *PoolHandle `bucket:"markers"`
	Metadata             *PoolHandle `bucket:"metadata"`
}

// Pool - the set of exported pools
var Pool pools

// the single database file
const databaseFileName = "lumen-chain.db"

// pre-mapped database size, the file itself only grows as data is written
const initialMmapSize = 1 << 30

// metadata keys
var (
	versionKey = []byte("version")
	chainKey   = []byte("chain")

	baseLayerHeightKey = []byte("base-layer-height")
	baseLayerDigestKey = []byte("base-layer-digest")
)

// for database version
//
// high byte: incompatible schema changes
// low byte:  backward compatible additions
const currentSchemaVersion = 0x0101

// holds the database handle
var poolData struct {
	sync.RWMutex
	log         *logger.L
	db          *bolt.DB
	writerInUse bool
	initialised bool
}

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Initialise - open up the database connection
//
// this must be called before any pool is accessed
func Initialise(dataDirectory string, chainName string, readOnly bool) error {
	poolData.Lock()
	defer poolData.Unlock()

	if poolData.initialised {
		return fault.AlreadyInitialised
	}

	poolData.log = logger.New("storage")
	poolData.log.Info("starting…")

	if info, err := os.Stat(dataDirectory); nil != err || !info.IsDir() {
		return fault.DataDirectoryIsMissing
	}

	fileName := filepath.Join(dataDirectory, databaseFileName)

	// a large initial mmap keeps Commit from remapping the file while
	// long-lived read transactions hold the mmap lock
	db, err := bolt.Open(fileName, 0600, &bolt.Options{
		Timeout:         5 * time.Second,
		ReadOnly:        readOnly,
		InitialMmapSize: initialMmapSize,
	})
	if nil != err {
		poolData.log.Criticalf("open: %q  error: %s", fileName, err)
		if os.IsNotExist(err) || os.IsPermission(err) {
			return err
		}
		return fault.StorageCorrupted
	}

	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	assignPools()

	if readOnly {
		err = db.View(func(tx *bolt.Tx) error {
			return verifySchema(tx, chainName)
		})
	} else {
		err = db.Update(func(tx *bolt.Tx) error {
			if err := createBuckets(tx); nil != err {
				return err
			}
			return verifySchema(tx, chainName)
		})
	}
	if nil != err {
		return err
	}

	poolData.db = db
	poolData.initialised = true
	ok = true

	poolData.log.Infof("database: %q", fileName)

	return nil
}

// Finalise - close the database connection
func Finalise() {
	poolData.Lock()
	defer poolData.Unlock()

	if !poolData.initialised {
		return
	}

	poolData.log.Info("shutting down…")

	poolData.db.Close()
	poolData.db = nil
	poolData.initialised = false

	poolData.log.Info("finished")
	poolData.log.Flush()
}

// assign all pool handles from the struct tags
func assignPools() {

	// this will be a struct type
	poolType := reflect.TypeOf(Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&Pool).Elem()

	// scan each field to locate bucket names
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)
		bucketTag := fieldInfo.Tag.Get("bucket")
		if "" == bucketTag {
			fault.Panicf("storage pool: %v has no bucket tag", fieldInfo)
		}

		handle := &PoolHandle{name: []byte(bucketTag)}
		poolValue.Field(i).Set(reflect.ValueOf(handle))
	}
}

// create the fixed bucket set
func createBuckets(tx *bolt.Tx) error {

	poolType := reflect.TypeOf(Pool)
	for i := 0; i < poolType.NumField(); i += 1 {
		name := poolType.Field(i).Tag.Get("bucket")
		if _, err := tx.CreateBucketIfNotExists([]byte(name)); nil != err {
			return err
		}
	}
	return nil
}

// check the schema version and chain binding, initialising them on a
// fresh database
//
// a version ahead of this code or a chain mismatch is fatal, there is
// no automatic migration
func verifySchema(tx *bolt.Tx, chainName string) error {

	metadata := tx.Bucket(Pool.Metadata.name)
	if nil == metadata {
		// read-only open of a file that was never initialised
		return fault.StorageCorrupted
	}

	versionValue := metadata.Get(versionKey)
	chainValue := metadata.Get(chainKey)

	if nil == versionValue {
		if !tx.Writable() {
			return fault.StorageCorrupted
		}
		buffer := make([]byte, 4)
		binary.BigEndian.PutUint32(buffer, currentSchemaVersion)
		if err := metadata.Put(versionKey, buffer); nil != err {
			return err
		}
		return metadata.Put(chainKey, []byte(chainName))
	}

	if 4 != len(versionValue) {
		return fault.StorageCorrupted
	}
	version := binary.BigEndian.Uint32(versionValue)
	if version != currentSchemaVersion {
		poolData.log.Criticalf("schema version: 0x%04x  expected: 0x%04x", version, currentSchemaVersion)
		return fault.SchemaVersionMismatch
	}

	if string(chainValue) != chainName {
		poolData.log.Criticalf("database chain: %q  expected: %q", chainValue, chainName)
		return fault.InvalidChain
	}

	return nil
}

// IsInitialised - check the database is initialised
func IsInitialised() bool {
	poolData.RLock()
	defer poolData.RUnlock()
	return poolData.initialised
}
