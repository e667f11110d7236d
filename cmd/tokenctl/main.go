package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"example.com/tokencrc/internal/checksum"
	"example.com/tokencrc/internal/common"
	"example.com/tokencrc/internal/config"
	"example.com/tokencrc/internal/image"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// errMismatch marks a run that completed but found bad checksums. It maps
// to exit status 1; every other error maps to 2.
var errMismatch = errors.New("checksum mismatch")

type app struct {
	configPath string
	verbose    bool
	type4      string
	noColor    bool

	cfg       config.Config
	opts      checksum.Options
	engine    *checksum.Engine
	cipher    image.Cipher
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	return newAppCmd(&app{cipher: image.Plain{}})
}

func newAppCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "tokenctl",
		Short:             "Validate and regenerate token image checksums.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to configuration file (default ./"+config.DefaultFileName+" if present)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "dump every byte folded into each checksum")
	flags.StringVar(&a.type4, "type4", "", "type 4 checksum mode (default chained from config):\n"+
		"  chained  substituted block at +0x90 folded with blocks 10..13; images regenerated\n"+
		"           by fix validate cleanly afterwards\n"+
		"  header   substituted area header block only; types 3, 2 and 1 rewrite that block\n"+
		"           after type 4 is stored, so type 4 is stale after every fix")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newValidateCmd(a),
		newFixCmd(a),
		newUndoCmd(a),
		newBatchCmd(a),
		newReportCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	if flags.Changed("type4") {
		cfg.Type4Mode = a.type4
	}
	if a.noColor {
		color.NoColor = true
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	if cfg.Verbose {
		opts.Trace = cmd.OutOrStdout()
	}
	closer, err := common.SetupLogging(cfg.Logs)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.opts = opts
	a.engine = checksum.NewEngine(opts)
	a.logCloser = closer
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tokenctl version: %s (built %s)\n", version, buildDate)
			return nil
		},
		DisableFlagsInUseLine: true,
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errMismatch):
		return 1
	default:
		fmt.Fprintf(root.ErrOrStderr(), "tokenctl: %s\n", strings.TrimSpace(err.Error()))
		return 2
	}
}
