// Package utils holds the shared types, defaults and small helpers of photo-stamp, plus a couple
// of 'prettier' console outputs used by the CLI.
package utils

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

var colorGreen = color.New(color.FgGreen).Add(color.Bold).SprintFunc()
var colorRed = color.New(color.FgRed).Add(color.Bold).SprintFunc()
var colorYellow = color.New(color.FgYellow).Add(color.Bold).SprintFunc()
var colorBlue = color.New(color.FgBlue).Add(color.Bold).SprintFunc()
var colorCyan = color.New(color.FgCyan).SprintFunc()
var colorMagenta = color.New(color.FgMagenta).Add(color.Bold).SprintFunc()

// Progress prints a one-line progress report for the image being processed
func Progress(w io.Writer, p TProgress) {
	str0 := fmt.Sprintf("[%d/%d]", p.Current, p.Total)
	fmt.Fprintf(w, "%s %s\n", colorMagenta(str0), colorCyan(p.CurrentFile))
}

// Success prints a success message
func Success(w io.Writer, success interface{}) {
	fmt.Fprintf(w, "%s %s\n", colorGreen(`[SUCCESS]`), colorCyan(success))
}

// PreviewTable prints one row per image with its range, position and label. Unassigned images
// are highlighted since they will receive the fallback label.
func PreviewTable(w io.Writer, entries []TPreviewEntry) {
	fmt.Fprintf(w, "%s\n", colorBlue(fmt.Sprintf("%-6s %-10s %-9s %-9s %s", "IMAGE", "RANGE", "POSITION", "LABEL", "FILE")))
	for _, e := range entries {
		label := colorGreen(fmt.Sprintf("%-9s", e.Label))
		if !e.Assigned {
			label = colorRed(fmt.Sprintf("%-9s", e.Label))
		}
		fmt.Fprintf(w, "%-6d %-10s %-9d %s %s\n", e.Index+1, e.Range, e.Position, label, e.File)
	}
}

// Pretty function disasemble a variable and display it's struct and values
func Pretty(w io.Writer, variable ...interface{}) {
	cfg := spew.ConfigState{Indent: "    ", DisablePointerAddresses: true}
	fmt.Fprintf(w, "%s", colorYellow("----------------------------------\n"))
	for _, each := range variable {
		cfg.Fdump(w, each)
	}
	fmt.Fprintf(w, "%s", colorYellow("----------------------------------\n"))
}
