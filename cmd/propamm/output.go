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

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/propamm/go-propamm/core/sim"
)

// maxRows bounds the per-simulation table; aggregates always cover the
// whole batch.
const maxRows = 32

// printResults renders the per-seed table and the aggregate verdict.
func printResults(res *sim.BatchResult, elapsed time.Duration) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seed", "Edge", "Retail", "Arb Loss", "Volume"})
	table.SetBorder(false)

	rows := res.Results
	truncated := 0
	if len(rows) > maxRows {
		truncated = len(rows) - maxRows
		rows = rows[:maxRows]
	}
	for i := range rows {
		r := &rows[i]
		table.Append([]string{
			fmt.Sprintf("%d", r.Seed),
			fmt.Sprintf("%.4f", r.SubmissionEdge),
			fmt.Sprintf("%.4f", r.RetailEdge),
			fmt.Sprintf("%.4f", r.ArbLoss),
			fmt.Sprintf("%.2f", r.Volume),
		})
	}
	table.Render()
	if truncated > 0 {
		fmt.Printf("  ... %d more simulations omitted\n", truncated)
	}

	fmt.Printf("\n%d simulations in %s\n", res.NSims(), elapsed.Round(time.Millisecond))
	fmt.Printf("edge: mean %.4f, std %.4f, min %.4f, max %.4f\n",
		res.MeanEdge(), res.StdEdge(), res.MinEdge(), res.MaxEdge())

	verdict := color.New(color.FgGreen, color.Bold)
	if res.MeanEdge() <= 0 {
		verdict = color.New(color.FgRed, color.Bold)
	}
	verdict.Printf("submission edge: %+.4f\n", res.MeanEdge())
}
