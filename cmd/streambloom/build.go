package main

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tamirms/streambloom"
	"github.com/tamirms/streambloom/internal/config"
	"github.com/tamirms/streambloom/internal/pipeline"
)

type buildFlags struct {
	numBits           uint64
	numHashes         float64
	numItems          uint64
	falsePositiveRate float64
	hashScheme        string
	input             string
	output            string
}

func newBuildCmd(e *env) *cobra.Command {
	var fl buildFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a filter from newline-delimited items on stdin",
		Long: `Build reads one item per line and writes the serialized filter as raw
bytes. Pass --num_items to size the filter from an item count and false
positive rate; otherwise --num_bits and --num_hashes are used as given.`,
		Args: argsError(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, e, &fl)
		},
	}

	// Help shows the built-in defaults; a --config file is applied in runBuild.
	def := config.Default().Build
	flags := cmd.Flags()
	flags.Uint64VarP(&fl.numBits, "num_bits", "m", def.NumBits, "number of bits in the filter")
	flags.Float64VarP(&fl.numHashes, "num_hashes", "k", def.NumHashes, "number of hash positions per item (rounded up)")
	flags.Uint64VarP(&fl.numItems, "num_items", "n", 0, "expected number of items; sizes the filter from --false_positive_rate")
	flags.Float64VarP(&fl.falsePositiveRate, "false_positive_rate", "p", def.FalsePositiveRate, "target false positive rate when sizing from --num_items")
	flags.StringVar(&fl.hashScheme, "hash_scheme", def.HashScheme, "hash function: xxh3 or murmur3")
	flags.StringVar(&fl.input, "input", "", "read items from this file instead of stdin")
	flags.StringVar(&fl.output, "output", "", "write the filter to this file instead of stdout")
	return cmd
}

func runBuild(cmd *cobra.Command, e *env, fl *buildFlags) error {
	flags := cmd.Flags()
	cfg := e.cfg.Build
	if !flags.Changed("num_bits") {
		fl.numBits = cfg.NumBits
	}
	if !flags.Changed("num_hashes") {
		fl.numHashes = cfg.NumHashes
	}
	if !flags.Changed("false_positive_rate") {
		fl.falsePositiveRate = cfg.FalsePositiveRate
	}
	if !flags.Changed("hash_scheme") {
		fl.hashScheme = cfg.HashScheme
	}

	scheme, err := streambloom.ParseHashScheme(fl.hashScheme)
	if err != nil {
		return err
	}

	var (
		calc   streambloom.Calculation
		budget uint64
	)
	if flags.Changed("num_items") {
		if flags.Changed("num_bits") {
			return clientError.New("--num_items and --num_bits are mutually exclusive")
		}
		opts := []streambloom.CalcOption{streambloom.WithCalcHashScheme(scheme)}
		if flags.Changed("num_hashes") {
			opts = append(opts, streambloom.WithNumHashes(fl.numHashes))
		}
		calc, err = streambloom.Calculate(fl.numItems, fl.falsePositiveRate, opts...)
		budget = fl.numItems
	} else {
		if flags.Changed("false_positive_rate") {
			return clientError.New("--false_positive_rate requires --num_items")
		}
		calc, err = streambloom.FromBitsAndHashes(fl.numBits, fl.numHashes, streambloom.WithCalcHashScheme(scheme))
	}
	if err != nil {
		return err
	}
	logSizing(e.log, calc)

	f, err := streambloom.New(calc.Requested.NumBits, calc.Requested.NumHashes, streambloom.WithHashScheme(scheme))
	if err != nil {
		return err
	}

	var in io.Reader = e.stdin
	if fl.input != "" && fl.input != "-" {
		file, err := pipeline.OpenInput(fl.input)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}

	if fl.output == "" || fl.output == "-" {
		_, err = pipeline.Build(e.log, in, e.stdout, f, budget)
		return err
	}
	if _, err := pipeline.Fill(e.log, in, f, budget); err != nil {
		return err
	}
	return f.WriteFile(fl.output)
}

func logSizing(log *zap.Logger, calc streambloom.Calculation) {
	req, act := calc.Requested, calc.Actual
	log.Info("filter sizing",
		zap.Uint64("num_items", req.ItemCount),
		zap.Float64("false_positive_rate", req.FalsePositiveRate),
		zap.Uint64("num_bits", req.NumBits),
		zap.Float64("num_hashes", req.NumHashes),
		zap.Float64("bits_per_item", req.BitsPerItem),
		zap.Uint64("actual_num_bits", act.NumBits),
		zap.Uint32("actual_num_hashes", act.NumHashes),
		zap.Float64("actual_false_positive_rate", act.FalsePositiveRate),
		zap.Int("serialized_size_bytes", act.SerializedSize),
	)
}
