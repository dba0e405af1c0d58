// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fixtures

import (
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/chain"
	"github.com/lumen-rollup/lumend/mode"
	"github.com/lumen-rollup/lumend/storage"
)

const (
	dir         = "testing"
	LogCategory = "testing"
)

var (
	certificateOnce sync.Once
	certificatePEM  string
	privateKeyPEM   string
)

// Certificate - a self-signed test certificate in PEM form
func Certificate() string {
	makeCertificate()
	return certificatePEM
}

// Key - the private key matching Certificate
func Key() string {
	makeCertificate()
	return privateKeyPEM
}

func makeCertificate() {
	certificateOnce.Do(func() {
		validUntil := time.Now().Add(time.Hour)
		cert, key, err := certgen.NewTLSCertPair("lumend testing", validUntil, false, nil)
		if nil != err {
			panic(fmt.Sprintf("generate test certificate: %s", err))
		}
		certificatePEM = string(cert)
		privateKeyPEM = string(key)
	})
}

func SetupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      fmt.Sprintf("%s.log", LogCategory),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

var storageDirectory string

// SetupStorage - open an empty store on the local chain
//
// requires SetupTestLogger to have run first
func SetupStorage() error {
	directory, err := ioutil.TempDir("", "lumend-rpc-test")
	if nil != err {
		return err
	}
	storageDirectory = directory

	err = mode.Initialise(chain.Local)
	if nil != err {
		return err
	}

	return storage.Initialise(storageDirectory, chain.Local, storage.ReadWrite)
}

func TeardownStorage() {
	storage.Finalise()
	_ = mode.Finalise()
	if "" != storageDirectory {
		_ = os.RemoveAll(storageDirectory)
		storageDirectory = ""
	}
}

func removeFiles() {
	err := os.RemoveAll(dir)
	if nil != err {
		fmt.Println("remove dir with error: ", err)
	}
}
