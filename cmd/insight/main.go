// Copyright 2024 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// insight attributes deployed EVM bytecode to the Solidity source that
// produced it and checks storage layouts computed from the AST.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/bnb-chain/contract-insight/log"
)

var app = newApp()

// logCloser flushes the log file set up in the before hook.
var logCloser io.Closer

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "insight"
	app.Usage = "bytecode and storage insight for compiled Solidity contracts"
	app.Copyright = "Copyright 2024 The go-ethereum Authors"
	app.Flags = globalFlags
	app.Commands = []*cli.Command{
		analyzeCommand,
		storageCommand,
		disasmCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		cfg, err := makeConfig(ctx)
		if err != nil {
			return err
		}
		if logCloser, err = log.Setup(cfg.Log); err != nil {
			return err
		}
		// Size the worker pool by the container CPU quota.
		_, err = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...))
		}))
		return err
	}
	app.After = func(ctx *cli.Context) error {
		dumpMetrics()
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	}
	return app
}

// dumpMetrics logs every registered metric at debug level.
func dumpMetrics() {
	if !metrics.Enabled {
		return
	}
	metrics.DefaultRegistry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			log.Debug("Metric", "name", name, "count", m.Snapshot().Count())
		case metrics.Meter:
			ms := m.Snapshot()
			log.Debug("Metric", "name", name, "count", ms.Count(), "rate", ms.RateMean())
		case metrics.Timer:
			ts := m.Snapshot()
			log.Debug("Metric", "name", name, "count", ts.Count(), "mean", ts.Mean(), "max", ts.Max())
		}
	})
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
