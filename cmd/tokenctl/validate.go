package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"example.com/tokencrc/internal/checksum"
	"example.com/tokencrc/internal/common"
	"example.com/tokencrc/internal/image"
	"example.com/tokencrc/internal/report"
)

type validateOptions struct {
	jsonOut string
	pdfOut  string
}

func newValidateCmd(a *app) *cobra.Command {
	var o validateOptions
	cmd := &cobra.Command{
		Use:   "validate <image>...",
		Short: "Check every checksum of one or more token images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, args, o)
		},
	}
	cmd.Flags().StringVar(&o.jsonOut, "json", "", "write a JSON report (single image only)")
	cmd.Flags().StringVar(&o.pdfOut, "pdf", "", "write a PDF report (single image only)")
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, args []string, o validateOptions) error {
	if len(args) > 1 && (o.jsonOut != "" || o.pdfOut != "") {
		return fmt.Errorf("--json and --pdf take a single image")
	}
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		rec, err := image.Load(path, a.cipher)
		if err != nil {
			return err
		}
		rep, err := a.engine.Sweep(rec, false)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, res := range rep.Results {
			printResult(out, res, a.cfg.Verbose)
		}
		printSummary(out, path, rep)
		if !rep.Pass {
			failed++
		}
		common.Logf("validate %s: pass=%t mismatches=%d", path, rep.Pass, len(rep.Failures()))
		if err := a.writeReports(path, rec, rep, o.jsonOut, o.pdfOut); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d image(s): %w", failed, errMismatch)
	}
	return nil
}

func (a *app) writeReports(path string, rec []byte, sweep checksum.Report, jsonOut, pdfOut string) error {
	if jsonOut == "" && pdfOut == "" && !a.cfg.Report.JSON && !a.cfg.Report.PDF {
		return nil
	}
	rep := report.FromSweep(filepath.Base(path), common.Sha256Hex(rec), int64(len(rec)), a.opts.Type4, sweep)
	if jsonOut == "" && a.cfg.Report.JSON {
		jsonOut = path + ".report.json"
	}
	if pdfOut == "" && a.cfg.Report.PDF {
		pdfOut = path + ".report.pdf"
	}
	if jsonOut != "" {
		if err := report.SaveJSON(rep, jsonOut); err != nil {
			return fmt.Errorf("write json report: %w", err)
		}
	}
	if pdfOut != "" {
		if err := report.SavePDF(rep, pdfOut, report.PDFOptions{QRSize: a.cfg.Report.QRSize}); err != nil {
			return fmt.Errorf("write pdf report: %w", err)
		}
	}
	return nil
}
