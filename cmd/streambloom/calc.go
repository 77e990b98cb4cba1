package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tamirms/streambloom"
	streamerrors "github.com/tamirms/streambloom/errors"
	"github.com/tamirms/streambloom/internal/config"
)

type calcFlags struct {
	falsePositiveRate float64
	numHashes         float64
	hashRatio         float64
	format            string
}

func newCalcCmd(e *env) *cobra.Command {
	var fl calcFlags
	cmd := &cobra.Command{
		Use:   "calc NUM_ITEMS",
		Short: "Compute filter size and hash count for an item count",
		Args:  argsError(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, e, &fl, args[0])
		},
	}

	def := config.Default().Calc
	flags := cmd.Flags()
	flags.Float64VarP(&fl.falsePositiveRate, "false_positive_rate", "p", def.FalsePositiveRate, "target false positive rate, in (0, 0.5]")
	flags.Float64VarP(&fl.numHashes, "num_hashes", "k", 0, "use this hash count instead of deriving it from the ratio")
	flags.Float64VarP(&fl.hashRatio, "num_hashes_to_bits_per_item_ratio", "r", def.HashRatio, "hash count as a multiple of bits per item")
	flags.StringVar(&fl.format, "format", "text", "output format: text or json")
	return cmd
}

func runCalc(cmd *cobra.Command, e *env, fl *calcFlags, numItems string) error {
	flags := cmd.Flags()
	if !flags.Changed("false_positive_rate") {
		fl.falsePositiveRate = e.cfg.Calc.FalsePositiveRate
	}
	if !flags.Changed("num_hashes_to_bits_per_item_ratio") {
		fl.hashRatio = e.cfg.Calc.HashRatio
	}

	n, err := strconv.ParseUint(numItems, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: num_items %q is not an integer", streamerrors.ErrInvalidArgument, numItems)
	}

	var hint streambloom.CalcOption
	switch {
	case flags.Changed("num_hashes") && flags.Changed("num_hashes_to_bits_per_item_ratio"):
		return streamerrors.ErrConflictingHashHints
	case flags.Changed("num_hashes"):
		hint = streambloom.WithNumHashes(fl.numHashes)
	default:
		hint = streambloom.WithHashRatio(fl.hashRatio)
	}

	calc, err := streambloom.Calculate(n, fl.falsePositiveRate, hint)
	if err != nil {
		return err
	}

	switch fl.format {
	case "json":
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(calc)
	case "text":
		return writeCalcText(e.stdout, calc)
	default:
		return clientError.New("unknown --format %q", fl.format)
	}
}

func writeCalcText(w io.Writer, calc streambloom.Calculation) error {
	req, act := calc.Requested, calc.Actual
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		key   string
		value any
	}{
		{"num_items", req.ItemCount},
		{"false_positive_rate", req.FalsePositiveRate},
		{"num_bits", req.NumBits},
		{"bits_per_item", req.BitsPerItem},
		{"num_hashes", req.NumHashes},
		{"num_hashes_to_bits_per_item_ratio", req.HashRatio},
		{"actual_num_bits", act.NumBits},
		{"actual_num_hashes", act.NumHashes},
		{"actual_false_positive_rate", act.FalsePositiveRate},
		{"serialized_size_bytes", act.SerializedSize},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%v\n", row.key, row.value)
	}
	return tw.Flush()
}
