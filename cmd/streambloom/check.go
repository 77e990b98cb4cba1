package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tamirms/streambloom"
	"github.com/tamirms/streambloom/internal/pipeline"
)

func newCheckCmd(e *env) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "check ITEM...",
		Short: "Test items against a serialized filter read from stdin",
		Long: `Check prints one line per ITEM, in argument order: "1" if the item may
be in the set, "0" if it is definitely not.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" || input == "-" {
				return pipeline.Check(e.stdin, e.stdout, args)
			}
			f, err := streambloom.Open(input)
			if err != nil {
				return err
			}
			e.log.Debug("filter loaded",
				zap.String("path", input),
				zap.Uint64("num_bits", f.NumBits()),
				zap.Uint32("num_hashes", f.NumHashes()),
				zap.Stringer("hash_scheme", f.Scheme()))
			return pipeline.CheckFilter(f, e.stdout, args)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "read the filter from this file instead of stdin")
	return cmd
}
