// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// lumen-dump - offline inspection of a lumend block store
//
// opens the store read-only so it can run while lumend is stopped or
// against a copied data directory
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/chain"
	"github.com/lumen-rollup/lumend/storage"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {

	app := cli.NewApp()
	app.Name = "lumen-dump"
	app.Usage = "inspect a lumend block store"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "database, d",
			Value: "",
			Usage: "*directory holding the block store `DIR`",
		},
		cli.StringFlag{
			Name:  "chain, c",
			Value: chain.Lumen,
			Usage: " chain of the store `NAME` [lumen|testing|local]",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "markers",
			Usage:  "show the next expected height of every column",
			Action: runMarkers,
		},
		{
			Name:      "header",
			Usage:     "dump header(s) as JSON",
			ArgsUsage: "START [END]",
			Action:    runHeader,
		},
		{
			Name:      "classes",
			Usage:     "list the classes declared at a height",
			ArgsUsage: "HEIGHT",
			Action:    runClasses,
		},
		{
			Name:      "class",
			Usage:     "dump one class definition by hash",
			ArgsUsage: "HASH",
			Action:    runClass,
		},
		{
			Name:   "baselayer",
			Usage:  "show the recorded base layer head",
			Action: runBaseLayer,
		},
	}

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(os.Stderr, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

// open the store read-only for the duration of one command
func withReader(c *cli.Context, f func(*storage.Reader) error) error {
	database := c.GlobalString("database")
	if "" == database {
		return fmt.Errorf("missing database directory")
	}
	chainName := c.GlobalString("chain")
	if !chain.Valid(chainName) {
		return fmt.Errorf("invalid chain: %q", chainName)
	}

	// storage needs a logger channel, keep the log out of the way
	err := logger.Initialise(logger.Configuration{
		Directory: os.TempDir(),
		File:      "lumen-dump.log",
		Size:      1048576,
		Count:     2,
		Levels:    map[string]string{logger.DefaultTag: "critical"},
	})
	if nil != err {
		return err
	}
	defer logger.Finalise()

	err = storage.Initialise(database, chainName, storage.ReadOnly)
	if nil != err {
		return err
	}
	defer storage.Finalise()

	reader, err := storage.NewReader()
	if nil != err {
		return err
	}
	defer reader.Close()

	return f(reader)
}

func printJSON(out *os.File, value interface{}) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if nil != err {
		return err
	}
	fmt.Fprintf(out, "%s\n", b)
	return nil
}

func runMarkers(c *cli.Context) error {
	return withReader(c, func(reader *storage.Reader) error {
		return printJSON(os.Stdout, map[string]uint64{
			"header":        reader.Marker(storage.HeaderMarker),
			"body":          reader.Marker(storage.BodyMarker),
			"state":         reader.Marker(storage.StateMarker),
			"class":         reader.Marker(storage.ClassMarker),
			"compiledClass": reader.Marker(storage.CompiledClassMarker),
			"baseLayer":     reader.Marker(storage.BaseLayerMarker),
		})
	})
}

func runHeader(c *cli.Context) error {
	if 0 == c.NArg() {
		return fmt.Errorf("missing start height")
	}
	start, err := strconv.ParseUint(c.Args().Get(0), 10, 64)
	if nil != err {
		return fmt.Errorf("start height: %s", err)
	}
	end := start
	if c.NArg() > 1 {
		end, err = strconv.ParseUint(c.Args().Get(1), 10, 64)
		if nil != err {
			return fmt.Errorf("end height: %s", err)
		}
		if end < start {
			return fmt.Errorf("end height %d below start height %d", end, start)
		}
	}

	return withReader(c, func(reader *storage.Reader) error {
		for height := start; height <= end; height += 1 {
			header, digest, err := reader.Header(height)
			if nil != err {
				return fmt.Errorf("height %d: %s", height, err)
			}
			err = printJSON(os.Stdout, map[string]interface{}{
				"height": height,
				"digest": digest.String(),
				"header": header,
			})
			if nil != err {
				return err
			}
		}
		return nil
	})
}

func runClasses(c *cli.Context) error {
	if 0 == c.NArg() {
		return fmt.Errorf("missing height")
	}
	height, err := strconv.ParseUint(c.Args().Get(0), 10, 64)
	if nil != err {
		return fmt.Errorf("height: %s", err)
	}

	return withReader(c, func(reader *storage.Reader) error {
		diff, err := reader.StateDiff(height)
		if nil != err {
			return fmt.Errorf("height %d: %s", height, err)
		}
		return printJSON(os.Stdout, diff.Declarations)
	})
}

func runClass(c *cli.Context) error {
	if 0 == c.NArg() {
		return fmt.Errorf("missing class hash")
	}
	var hash blockdigest.Digest
	err := hash.UnmarshalText([]byte(c.Args().Get(0)))
	if nil != err {
		return fmt.Errorf("class hash: %s", err)
	}

	return withReader(c, func(reader *storage.Reader) error {
		class, declaredAt, err := reader.Class(hash)
		if nil != err {
			return err
		}
		return printJSON(os.Stdout, map[string]interface{}{
			"hash":       hash.String(),
			"declaredAt": declaredAt,
			"size":       len(class.Definition),
			"class":      class,
		})
	})
}

func runBaseLayer(c *cli.Context) error {
	return withReader(c, func(reader *storage.Reader) error {
		height, digest, ok := reader.BaseLayerHead()
		if !ok {
			fmt.Printf("no base layer head recorded\n")
			return nil
		}
		return printJSON(os.Stdout, map[string]interface{}{
			"height": height,
			"digest": digest.String(),
		})
	})
}
