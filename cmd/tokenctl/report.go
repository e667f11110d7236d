package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"example.com/tokencrc/internal/report"
)

type reportOptions struct {
	in     string
	pdfOut string
	qrSize int
}

func newReportCmd(a *app) *cobra.Command {
	var o reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a saved JSON report as PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(cmd, o)
		},
	}
	cmd.Flags().StringVar(&o.in, "in", "", "JSON report produced by validate, fix or batch")
	cmd.Flags().StringVar(&o.pdfOut, "pdf", "", "PDF output (default <in> with .pdf extension)")
	cmd.Flags().IntVar(&o.qrSize, "qr-size", 0, "QR code size in pixels (default from config, 0 keeps it)")
	cmd.MarkFlagRequired("in")
	return cmd
}

func (a *app) runReport(cmd *cobra.Command, o reportOptions) error {
	rep, err := report.LoadJSON(o.in)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	out := o.pdfOut
	if out == "" {
		out = strings.TrimSuffix(o.in, ".json") + ".pdf"
	}
	size := a.cfg.Report.QRSize
	if cmd.Flags().Changed("qr-size") {
		size = o.qrSize
	}
	if err := report.SavePDF(rep, out, report.PDFOptions{QRSize: size}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, passLabel(rep.Pass))
	return nil
}

func passLabel(pass bool) string {
	if pass {
		return okLabel("PASS")
	}
	return failLabel("FAIL")
}
