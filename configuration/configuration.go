// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/baselayer"
	"github.com/lumen-rollup/lumend/chain"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/rpc/listeners"
	"github.com/lumen-rollup/lumend/util"
)

// basic defaults (directories and files are relative to the
// "data_directory" from the configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultKeyFile         = "rpc.key"
	defaultCertificateFile = "rpc.crt"
	defaultEndpointFile    = "endpoints.cache"

	defaultDatabaseDirectory = "data"

	defaultLogDirectory = "log"
	defaultLogFile      = "lumend.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients   = 10
	defaultRPCBandwidth = 25000000 // 25Mbps
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

var defaultLogLevels = LoglevelMap{
	logger.DefaultTag: "error",
}

// DatabaseType - directory holding the block store
type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
}

// AggregatorConfiguration - where block data comes from
//
// either a fixed connect address or a DNS TXT domain to discover one;
// the endpoint file caches discovered addresses across restarts
type AggregatorConfiguration struct {
	Connect      string `gluamapper:"connect" json:"connect"`
	Domain       string `gluamapper:"domain" json:"domain"`
	EndpointFile string `gluamapper:"endpoint_file" json:"endpoint_file"`
}

// Configuration - the full configuration file data
type Configuration struct {
	DataDirectory string       `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string       `gluamapper:"pidfile" json:"pidfile"`
	Chain         string       `gluamapper:"chain" json:"chain"`
	Database      DatabaseType `gluamapper:"database" json:"database"`

	Aggregator AggregatorConfiguration    `gluamapper:"aggregator" json:"aggregator"`
	BaseLayer  baselayer.Configuration    `gluamapper:"base_layer" json:"base_layer"`
	ClientRPC  listeners.RPCConfiguration `gluamapper:"client_rpc" json:"client_rpc"`
	Logging    logger.Configuration       `gluamapper:"logging" json:"logging"`
}

// GetConfiguration - read, decode and verify the configuration
func GetConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		Chain:         chain.Lumen,

		Database: DatabaseType{
			Directory: defaultDatabaseDirectory,
		},

		Aggregator: AggregatorConfiguration{
			EndpointFile: defaultEndpointFile,
		},

		ClientRPC: listeners.RPCConfiguration{
			MaximumConnections: defaultRPCClients,
			Bandwidth:          defaultRPCBandwidth,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	options.Chain = strings.ToLower(options.Chain)
	if !chain.Valid(options.Chain) {
		return nil, fault.InvalidChain
	}

	// an aggregator must be reachable one way or the other
	if "" == options.Aggregator.Connect && "" == options.Aggregator.Domain {
		return nil, fault.ConnectIsRequired
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fault.DataDirectoryIsMissing
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fault.DataDirectoryIsMissing
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Database.Directory,
		&options.Aggregator.EndpointFile,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	return options, nil
}
