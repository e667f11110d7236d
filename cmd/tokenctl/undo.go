package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"example.com/tokencrc/internal/common"
	"example.com/tokencrc/internal/image"
)

type undoOptions struct {
	audit string
	out   string
}

func newUndoCmd(a *app) *cobra.Command {
	var o undoOptions
	cmd := &cobra.Command{
		Use:   "undo <fixed-image>",
		Short: "Put back the checksum and sequence bytes recorded by fix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUndo(cmd, args[0], o)
		},
	}
	cmd.Flags().StringVar(&o.audit, "audit", "", "audit log written by fix (jsonl)")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "restored output image")
	cmd.MarkFlagRequired("audit")
	cmd.MarkFlagRequired("out")
	return cmd
}

// undoStats counts what rollbackFields did to a record.
type undoStats struct {
	restored int
	// drifted counts fields whose current bytes were not the ones fix wrote.
	drifted int
}

// rollbackFields writes the before bytes of entries into the decrypted
// record, newest entry first, so a sequence number bumped twice ends at its
// first value.
func rollbackFields(record []byte, entries []common.PatchEntry) (undoStats, error) {
	var st undoStats
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		before, err := entry.BeforeBytes()
		if err != nil {
			return st, fmt.Errorf("%s: decode before bytes: %w", entry.Field, err)
		}
		after, err := entry.AfterBytes()
		if err != nil {
			return st, fmt.Errorf("%s: decode after bytes: %w", entry.Field, err)
		}
		end := entry.Offset + int64(len(before))
		if entry.Offset < 0 || len(before) == 0 || end > int64(len(record)) {
			return st, fmt.Errorf("%s: field [%#x,%#x) outside %d-byte record", entry.Field, entry.Offset, end, len(record))
		}
		field := record[entry.Offset:end]
		if !bytes.Equal(field, after) {
			st.drifted++
		}
		copy(field, before)
		st.restored++
	}
	return st, nil
}

func (a *app) runUndo(cmd *cobra.Command, in string, o undoOptions) error {
	entries, err := common.ReadPatchLog(o.audit)
	if err != nil {
		return fmt.Errorf("read audit: %w", err)
	}
	if len(entries) == 0 {
		return errors.New("audit log is empty")
	}
	rec, err := image.Load(in, a.cipher)
	if err != nil {
		return err
	}
	fixedSum := common.Sha256Hex(rec)

	st, err := rollbackFields(rec, entries)
	if err != nil {
		return fmt.Errorf("%s: %w", o.audit, err)
	}
	// The pre-fix image usually failed validation; report, don't insist.
	sweep, err := a.engine.Sweep(rec, false)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	if err := image.Save(o.out, rec, a.cipher); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Restored %d field(s) from %s into %s\n", st.restored, o.audit, fileLabel(o.out))
	fmt.Fprintf(out, "Record sha256: %s -> %s\n", fixedSum, common.Sha256Hex(rec))
	if st.drifted > 0 {
		fmt.Fprintf(out, "Warning: %d field(s) changed after fix; audit values restored anyway\n", st.drifted)
	}
	for _, res := range sweep.Failures() {
		printResult(out, res, false)
	}
	printSummary(out, o.out, sweep)
	common.Logf("undo %s -> %s: %d field(s), pass=%t", in, o.out, st.restored, sweep.Pass)
	return nil
}
