package main

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"example.com/tokencrc/internal/checksum"
	"example.com/tokencrc/internal/common"
	"example.com/tokencrc/internal/image"
)

type fixOptions struct {
	out     string
	inPlace bool
	audit   string
	jsonOut string
	pdfOut  string
}

func newFixCmd(a *app) *cobra.Command {
	var o fixOptions
	cmd := &cobra.Command{
		Use:   "fix <image>",
		Short: "Regenerate every checksum, bumping both sequence numbers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFix(cmd, args[0], o)
		},
	}
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "output image (default <image>.fixed<ext>)")
	cmd.Flags().BoolVar(&o.inPlace, "in-place", false, "rewrite the image file in place")
	cmd.Flags().StringVar(&o.audit, "audit", "", "audit log output (jsonl)")
	cmd.Flags().StringVar(&o.jsonOut, "json", "", "write a JSON report")
	cmd.Flags().StringVar(&o.pdfOut, "pdf", "", "write a PDF report")
	return cmd
}

func (a *app) runFix(cmd *cobra.Command, in string, o fixOptions) error {
	if o.inPlace && o.out != "" {
		return fmt.Errorf("--out and --in-place cannot be used together")
	}
	target := o.out
	if o.inPlace {
		target = in
	} else if target == "" {
		target = fixedName(in)
	}
	auditPath := o.audit
	if auditPath == "" {
		auditPath = target + ".audit.jsonl"
		if a.cfg.Audit.Dir != "" {
			auditPath = filepath.Join(a.cfg.Audit.Dir, filepath.Base(target)+".audit.jsonl")
		}
	}

	var (
		rec   []byte
		sweep checksum.Report
		err   error
	)
	if o.inPlace {
		m, err := image.OpenMapped(in, a.cipher)
		if err != nil {
			return err
		}
		rec = m.Record()
		sweep, err = a.engine.Sweep(rec, true)
		if err != nil {
			m.Close()
			return fmt.Errorf("%s: %w", in, err)
		}
		// Copy before Close unmaps the record.
		rec = append([]byte(nil), rec...)
		if err := m.Close(); err != nil {
			return fmt.Errorf("write %s: %w", in, err)
		}
	} else {
		rec, err = image.Load(in, a.cipher)
		if err != nil {
			return err
		}
		if sweep, err = a.engine.Sweep(rec, true); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		if err := image.Save(target, rec, a.cipher); err != nil {
			return err
		}
	}

	entries := patchEntries(filepath.Base(target), sweep)
	log := common.NewPatchLog(auditPath)
	if err := log.Append(entries...); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}

	out := cmd.OutOrStdout()
	if a.cfg.Verbose {
		for _, res := range sweep.Results {
			printResult(out, res, true)
		}
	}
	fmt.Fprintf(out, "%s: regenerated %d checksums, %d field(s) changed\n", fileLabel(target), len(sweep.Results), len(entries))
	if len(entries) > 0 {
		fmt.Fprintf(out, "Audit log: %s\n", log.Path())
	}
	common.Logf("fix %s -> %s: %d patch(es)", in, target, len(entries))
	return a.writeReports(target, rec, sweep, o.jsonOut, o.pdfOut)
}

// patchEntries lists every byte range the sweep changed, in write order.
func patchEntries(file string, sweep checksum.Report) []common.PatchEntry {
	var entries []common.PatchEntry
	for _, res := range sweep.Results {
		if res.SequenceBumped() {
			e := common.NewPatchEntry(fmt.Sprintf("sequence/area%d", res.Area), int64(res.SequenceOffset),
				[]byte{res.SequenceBefore}, []byte{res.SequenceAfter})
			e.File = file
			entries = append(entries, e)
		}
		if !res.Written || res.Stored == res.Computed {
			continue
		}
		before := make([]byte, 2)
		after := make([]byte, 2)
		binary.LittleEndian.PutUint16(before, res.Stored)
		binary.LittleEndian.PutUint16(after, res.Computed)
		e := common.NewPatchEntry(fmt.Sprintf("%s/area%d", res.Type, res.Area), int64(res.Offset), before, after)
		e.File = file
		entries = append(entries, e)
	}
	return entries
}

func fixedName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".fixed" + ext
}
