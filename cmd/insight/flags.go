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

package main

import (
	"github.com/urfave/cli/v2"

	"github.com/bnb-chain/contract-insight/internal/buildinfo"
	"github.com/bnb-chain/contract-insight/internal/report"
	"github.com/bnb-chain/contract-insight/log"
)

const (
	loggingCategory  = "LOGGING AND DEBUGGING"
	metricsCategory  = "METRICS"
	artifactCategory = "ARTIFACTS"
	outputCategory   = "OUTPUT"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: loggingCategory,
	}
	verbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    log.DefaultConfig.Verbosity,
		Category: loggingCategory,
	}
	logFormatFlag = &cli.StringFlag{
		Name:     "log.format",
		Usage:    "Log format to use (terminal|logfmt|json)",
		Value:    log.DefaultConfig.Format,
		Category: loggingCategory,
	}
	logFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Write logs to a file, rotated by size",
		Category: loggingCategory,
	}
	// metrics.Enabled is switched on by scanning os.Args for this flag.
	metricsFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Collect metrics and dump them at debug level on exit",
		Category: metricsCategory,
	}

	artifactsFlag = &cli.StringFlag{
		Name:     "artifacts",
		Usage:    "Directory holding the compiler build-info files",
		Value:    defaultConfig.Artifacts,
		Category: artifactCategory,
	}
	cacheSizeFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Number of decoded build-info files kept in memory",
		Value:    buildinfo.DefaultCacheSize,
		Category: artifactCategory,
	}
	onlyFlag = &cli.StringSliceFlag{
		Name:     "only",
		Usage:    "Only process contracts whose source:Name matches one of these regular expressions",
		Category: artifactCategory,
	}
	exceptFlag = &cli.StringSliceFlag{
		Name:     "except",
		Usage:    "Skip contracts whose source:Name matches one of these regular expressions",
		Category: artifactCategory,
	}
	workersFlag = &cli.IntFlag{
		Name:     "workers",
		Usage:    "Number of contracts processed concurrently (0 = by CPU count)",
		Category: artifactCategory,
	}
	timeoutFlag = &cli.DurationFlag{
		Name:     "timeout",
		Usage:    "Stop starting new contracts after this long (0 = no limit)",
		Category: artifactCategory,
	}

	asmFlag = &cli.BoolFlag{
		Name:     "asm",
		Usage:    "Print the instructions owned by every node",
		Category: outputCategory,
	}
	gasFlag = &cli.BoolFlag{
		Name:     "gas",
		Usage:    "Print upper-bound gas estimates",
		Category: outputCategory,
	}
	allFlag = &cli.BoolFlag{
		Name:     "all",
		Usage:    "Include nodes without instructions and matching storage entries",
		Category: outputCategory,
	}
	formatFlag = &cli.StringFlag{
		Name:     "format",
		Usage:    "Storage output format (table|json|yaml)",
		Value:    report.FormatTable,
		Category: outputCategory,
	}
	hexFlag = &cli.StringFlag{
		Name:  "hex",
		Usage: "Bytecode as hex, with or without 0x prefix",
	}
	fileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "File containing the bytecode as hex",
	}

	globalFlags = []cli.Flag{
		configFileFlag,
		verbosityFlag,
		logFormatFlag,
		logFileFlag,
		metricsFlag,
	}
	selectionFlags = []cli.Flag{
		artifactsFlag,
		cacheSizeFlag,
		onlyFlag,
		exceptFlag,
		workersFlag,
		timeoutFlag,
	}
)

