//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Display of the resolved settings for -check.
//

package main

import (
	"fmt"
	"io"

	"github.com/cloudmanic/spotify-toot/config"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// printSettingsTable displays the loaded settings in a formatted table with
// secrets masked, highlighting anything left unset.
func printSettingsTable(w io.Writer, settings *config.Settings) {
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	cyan.Fprintln(w, "🎵 spotify-toot settings")
	fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Setting", "Value"})

	rows := settings.Summary()
	for i, row := range rows {
		value := row.Value
		if value == "" || value == "(not set)" {
			value = color.HiBlackString("(not set)")
		}

		t.AppendRow(table.Row{
			i + 1,
			color.New(color.Bold).Sprint(row.Key),
			value,
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Fprintln(w)
	green.Fprintf(w, "Config OK: %d settings\n", len(rows))
}
