package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"example.com/tokencrc/internal/common"
	"example.com/tokencrc/internal/image"
	"example.com/tokencrc/internal/report"
)

type batchOptions struct {
	outDir     string
	exts       []string
	noProgress bool
}

func newBatchCmd(a *app) *cobra.Command {
	var o batchOptions
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Validate every token image under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args[0], o)
		},
	}
	cmd.Flags().StringVar(&o.outDir, "out-dir", "", "write one JSON report per image into this directory")
	cmd.Flags().StringSliceVar(&o.exts, "ext", []string{".bin", ".dump"}, "image file extensions")
	cmd.Flags().BoolVar(&o.noProgress, "no-progress", false, "hide the progress bar")
	return cmd
}

func findImages(root string, exts []string) ([]string, error) {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[e] = true
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !want[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)
	return files, err
}

func (a *app) runBatch(cmd *cobra.Command, root string, o batchOptions) error {
	files, err := findImages(root, o.exts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found under %s", root)
	}
	if o.outDir != "" {
		if err := os.MkdirAll(o.outDir, 0o755); err != nil {
			return err
		}
	}

	metrics := common.NewMetrics()
	metrics.Start()
	bar := pb.New(len(files))
	bar.Output = cmd.ErrOrStderr()
	bar.NotPrint = o.noProgress
	bar.ShowTimeLeft = false
	bar.Start()

	var failed []string
	for _, path := range files {
		rep := a.batchOne(path)
		if rep.Error != "" {
			metrics.AddError()
			failed = append(failed, fmt.Sprintf("%s: %s", path, rep.Error))
		} else {
			metrics.AddImage(rep.Size, len(rep.Checks), rep.Mismatches())
			if !rep.Pass {
				failed = append(failed, fmt.Sprintf("%s: %d mismatch(es)", path, rep.Mismatches()))
			}
		}
		if o.outDir != "" {
			name := reportName(root, path)
			if err := report.SaveJSON(rep, filepath.Join(o.outDir, name)); err != nil {
				bar.Finish()
				return fmt.Errorf("write report for %s: %w", path, err)
			}
		}
		bar.Increment()
	}
	bar.Finish()
	metrics.Stop()

	out := cmd.OutOrStdout()
	for _, f := range failed {
		fmt.Fprintf(out, "%s %s\n", failLabel("FAIL"), f)
	}
	snap := metrics.Snapshot()
	fmt.Fprintln(out, snap.String())
	common.Logf("batch %s: %s", root, snap.String())
	if snap.Errored > 0 {
		return fmt.Errorf("%d image(s) could not be read", snap.Errored)
	}
	if snap.Failed > 0 {
		return fmt.Errorf("%d image(s): %w", snap.Failed, errMismatch)
	}
	return nil
}

func (a *app) batchOne(path string) report.Report {
	rep := report.Report{File: path, Type4Mode: string(a.opts.Type4)}
	rec, err := image.Load(path, a.cipher)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	sweep, err := a.engine.Sweep(rec, false)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	return report.FromSweep(path, common.Sha256Hex(rec), int64(len(rec)), a.opts.Type4, sweep)
}

// reportName flattens path relative to root into a report file name.
func reportName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.ReplaceAll(filepath.ToSlash(rel), "/", "_")
	return rel + ".report.json"
}
