package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"example.com/tokencrc/internal/checksum"
)

var (
	failLabel     = color.New(color.FgRed).SprintFunc()
	okLabel       = color.New(color.FgGreen).SprintFunc()
	storedValue   = color.New(color.FgMagenta).SprintFunc()
	computedValue = color.New(color.FgYellow).SprintFunc()
	fileLabel     = color.New(color.FgCyan).SprintFunc()
)

func printResult(w io.Writer, res checksum.Result, verbose bool) {
	status := okLabel("OK")
	if !res.Match {
		status = failLabel("failure")
	}
	fmt.Fprintf(w, "Checksum %s for checksum type %d, data area %d", status, int(res.Type), res.Area)
	if verbose || !res.Match {
		fmt.Fprintf(w, " (offset %04X stored %s computed %s)", res.Offset,
			storedValue(fmt.Sprintf("%04X", res.Stored)), computedValue(fmt.Sprintf("%04X", res.Computed)))
	}
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, path string, rep checksum.Report) {
	fails := len(rep.Failures())
	if rep.Pass {
		fmt.Fprintf(w, "%s: %s, %d checksums valid\n", fileLabel(path), okLabel("PASS"), len(rep.Results))
		return
	}
	fmt.Fprintf(w, "%s: %s, %d of %d checksums invalid\n", fileLabel(path), failLabel("FAIL"), fails, len(rep.Results))
}
