// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// lumend - a full node for the lumen rollup
//
// follows an aggregator, verifies and stores headers, bodies, state
// diffs and classes, tracks the base layer head and serves read-only
// queries over TLS JSON RPC
package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/aggregator"
	"github.com/lumen-rollup/lumend/baselayer"
	"github.com/lumen-rollup/lumend/configuration"
	"github.com/lumen-rollup/lumend/discovery"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/mode"
	"github.com/lumen-rollup/lumend/rpc"
	"github.com/lumen-rollup/lumend/storage"
	"github.com/lumen-rollup/lumend/syncer"
)

const (
	aggregatorTimeout = 30 * time.Second
)

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := configuration.GetConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)

	// catch panics in the log file
	err = fault.Initialise()
	if nil != err {
		exitwithstatus.Message("%s: fault initialise error: %s", program, err)
	}
	defer fault.Finalise()

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// set the initial system mode - before any background tasks are started
	err = mode.Initialise(theConfiguration.Chain)
	if nil != err {
		log.Criticalf("mode initialise error: %s", err)
		exitwithstatus.Message("mode initialise error: %s", err)
	}
	defer mode.Finalise()

	// general info
	log.Infof("test mode: %v", mode.IsTesting())
	log.Infof("database: %q", theConfiguration.Database.Directory)

	// start the data storage
	log.Info("initialise storage")
	if err = os.MkdirAll(theConfiguration.Database.Directory, 0700); nil != err {
		log.Criticalf("database directory error: %s", err)
		exitwithstatus.Message("database directory error: %s", err)
	}
	err = storage.Initialise(theConfiguration.Database.Directory, theConfiguration.Chain, storage.ReadWrite)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer storage.Finalise()

	// locate an aggregator
	connect := theConfiguration.Aggregator.Connect
	if "" == connect {
		lookuper := discovery.NewLookuper(logger.New("discovery"))
		endpoints, err := discovery.Sources(lookuper, theConfiguration.Aggregator.Domain, theConfiguration.Aggregator.EndpointFile)
		if nil != err {
			log.Criticalf("aggregator discovery error: %s", err)
			exitwithstatus.Message("aggregator discovery error: %s", err)
		}
		if 0 == len(endpoints) {
			log.Critical("no aggregator endpoints discovered")
			exitwithstatus.Message("no aggregator endpoints discovered")
		}
		log.Infof("discovered aggregator endpoints: %v", endpoints)
		connect = endpoints[0]
	}

	source, err := aggregator.NewClient(theConfiguration.Chain, connect, aggregatorTimeout)
	if nil != err {
		log.Criticalf("aggregator client error: %s", err)
		exitwithstatus.Message("aggregator client error: %s", err)
	}
	defer source.Close()

	// start the sync pipeline
	err = syncer.Initialise(source)
	if nil != err {
		log.Criticalf("syncer initialise error: %s", err)
		exitwithstatus.Message("syncer initialise error: %s", err)
	}
	defer syncer.Finalise()

	// base layer tracking is optional
	if "" != theConfiguration.BaseLayer.Endpoint {
		err = baselayer.Initialise(theConfiguration.BaseLayer)
		if nil != err {
			log.Criticalf("base layer initialise error: %s", err)
			exitwithstatus.Message("base layer initialise error: %s", err)
		}
		defer baselayer.Finalise()
	}

	// start up the client RPC listener
	if len(theConfiguration.ClientRPC.Listen) > 0 {
		rpcConfiguration := theConfiguration.ClientRPC
		rpcConfiguration.Certificate, err = loadPEM(rpcConfiguration.Certificate)
		if nil != err {
			log.Criticalf("certificate error: %s", err)
			exitwithstatus.Message("certificate error: %s", err)
		}
		rpcConfiguration.PrivateKey, err = loadPEM(rpcConfiguration.PrivateKey)
		if nil != err {
			log.Criticalf("private key error: %s", err)
			exitwithstatus.Message("private key error: %s", err)
		}

		err = rpc.Initialise(&rpcConfiguration, version)
		if nil != err {
			log.Criticalf("rpc initialise error: %s", err)
			exitwithstatus.Message("rpc initialise error: %s", err)
		}
		defer rpc.Finalise()
	} else {
		log.Warn("client rpc disabled: no listen addresses")
	}

	// watch the configuration file so base layer settings can be
	// changed without a restart
	watcher, err := configuration.NewWatcher(configurationFile, logger.New("watcher"))
	if nil == err {
		if err = watcher.Start(); nil == err {
			defer watcher.Stop()
			go reloadLoop(log, watcher, configurationFile)
		}
	} else {
		log.Warnf("configuration watcher error: %s", err)
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
	mode.Set(mode.Stopped)
}

// a PEM value may be inline in the configuration or name a file
func loadPEM(value string) (string, error) {
	if strings.Contains(value, "-----BEGIN") {
		return value, nil
	}
	data, err := ioutil.ReadFile(value)
	if nil != err {
		return "", err
	}
	return string(data), nil
}

// apply configuration changes that do not need a restart
func reloadLoop(log *logger.L, watcher configuration.Watcher, configurationFile string) {
	for {
		select {
		case <-watcher.Change():
			log.Info("configuration file changed")
			updated, err := configuration.GetConfiguration(configurationFile)
			if nil != err {
				log.Errorf("configuration reload error: %s", err)
				continue
			}
			err = baselayer.Reconfigure(updated.BaseLayer)
			if nil != err {
				log.Errorf("base layer reconfigure error: %s", err)
			}
		case <-watcher.Remove():
			log.Warn("configuration file removed, continuing with current settings")
			return
		}
	}
}
