package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apparentlymart/x86-meta/grammar"
	"github.com/apparentlymart/x86-meta/wrangle"
	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	mode             grammar.Mode
	bitness          grammar.Bitness
	output           string
	filter           string
	keepOperandOrder bool

	dump    bool
	stats   bool
	explain bool

	config   string
	verbose  bool
	logLevel string
}

func main() {
	logger := logrus.New()
	cmd := newRootCommand(logger, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		logger.Fatal(err)
	}
}

func newRootCommand(logger *logrus.Logger, stdout, stderr io.Writer) *cobra.Command {
	opts := options{
		mode:     grammar.Decoder,
		bitness:  64,
		logLevel: "warning",
	}

	cmd := &cobra.Command{
		Use:   "x86-meta [flags] DEFINITION-FILE...",
		Short: "Generate ragel instruction grammars from x86 instruction definitions",
		Long: `x86-meta reads x86 instruction definition files and writes a ragel
grammar recognizing every encoding of the defined instructions, for either
the decoder or the validator.

Alternatively, --config names a TOML file describing several grammars,
which are generated concurrently.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configureLogger(logger, stderr, opts); err != nil {
				return err
			}

			if opts.config != "" {
				if len(args) > 0 {
					return fmt.Errorf("definition files cannot be given together with --config")
				}
				cfg, err := wrangle.LoadConfig(opts.config)
				if err != nil {
					return err
				}
				return cfg.Generate(context.Background(), logger)
			}

			if len(args) == 0 {
				return fmt.Errorf("at least one definition file is required")
			}
			return run(opts, args, logger, stdout, stderr)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.SetNormalizeFunc(wordSepNormalizeFunc)
	flags.Var(&opts.mode, "mode", "grammar consumer")
	flags.Var(&opts.bitness, "bitness", "processor mode")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	flags.StringVar(&opts.filter, "filter", "", "only emit instructions whose name matches this glob")
	flags.BoolVar(&opts.keepOperandOrder, "keep-operand-order", false, "number operands in definition order instead of from the last one")
	flags.BoolVar(&opts.dump, "dump", false, "dump the expanded instruction variants to stderr")
	flags.BoolVar(&opts.stats, "stats", false, "print per-file statistics to stderr")
	flags.BoolVar(&opts.explain, "explain", false, "print each record and its variants as a tree to stderr")
	flags.StringVar(&opts.config, "config", "", "generate the targets described in a TOML file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress (same as --log-level=info)")
	flags.StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level: debug, info, warning or error")

	return cmd
}

// wordSepNormalizeFunc accepts underscores in flag names, so that
// --keep_operand_order matches the configuration file key.
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func configureLogger(logger *logrus.Logger, stderr io.Writer, opts options) error {
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	if opts.verbose && level < logrus.InfoLevel {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return nil
}

func run(opts options, files []string, logger *logrus.Logger, stdout, stderr io.Writer) error {
	doc, err := wrangle.Build(wrangle.Options{
		Mode:            opts.mode,
		Bitness:         opts.bitness,
		ReverseOperands: !opts.keepOperandOrder,
		Filter:          opts.filter,
		Logger:          logger,
	}, files...)
	if err != nil {
		return err
	}

	if opts.dump {
		dumper := &spew.ConfigState{Indent: " ", DisableMethods: true}
		for _, block := range doc.Blocks {
			dumper.Fdump(stderr, block.Variants)
		}
	}
	if opts.explain {
		fmt.Fprintln(stderr, doc.Explain().String())
	}
	if opts.stats {
		doc.WriteStats(stderr)
	}

	var buf bytes.Buffer
	if err := doc.WriteGrammar(&buf); err != nil {
		return err
	}

	if opts.output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return err
	}
	logger.WithField("output", opts.output).Infof("wrote %d bytes", buf.Len())
	return nil
}
