// Copyright 2025 The go-propamm Authors
// This file is part of go-propamm.
//
// go-propamm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-propamm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-propamm. If not, see <http://www.gnu.org/licenses/>.

// propamm evaluates AMM pricing strategies: it loads a submission artifact,
// simulates retail and arbitrage flow against the reference normalizer, and
// reports the submission's edge.
package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/urfave/cli.v1"
)

var app = cli.NewApp()

func init() {
	app.Name = "propamm"
	app.Usage = "AMM strategy evaluation harness"
	app.Commands = []cli.Command{
		runCommand,
	}
	app.Flags = []cli.Flag{
		verbosityFlag,
	}
	app.Before = func(ctx *cli.Context) error {
		handler := log.NewTerminalHandlerWithLevel(os.Stderr,
			log.FromLegacyLevel(ctx.GlobalInt(verbosityFlag.Name)), true)
		log.SetDefault(log.NewLogger(handler))
		return nil
	}
}

var verbosityFlag = cli.IntFlag{
	Name:  "verbosity",
	Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
	Value: 3,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
