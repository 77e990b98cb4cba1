// Streambloom builds, queries and sizes Bloom filters from the command line.
//
// Usage:
//
//	streambloom calc 100000 -p 0.001
//	cat items.txt | streambloom build -n 100000 -p 0.001 > items.blm
//	streambloom check apple banana < items.blm
//
// Exit status is 0 on success, 2 for invalid arguments or a malformed
// filter, and 1 for any other failure.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	streamerrors "github.com/tamirms/streambloom/errors"
	"github.com/tamirms/streambloom/internal/config"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitClientError = 2
)

// clientError marks failures caused by the caller's input.
var clientError = errs.Class("client error")

// env is what every subcommand needs from the root command.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool

	cfg config.Config
	log *zap.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	root := newRootCmd(e)
	root.SetArgs(args)

	err := root.Execute()
	if e.log != nil {
		_ = e.log.Sync()
	}
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	if isClientError(err) {
		return exitClientError
	}
	return exitFailure
}

func isClientError(err error) bool {
	return clientError.Has(err) ||
		errors.Is(err, streamerrors.ErrInvalidArgument) ||
		errors.Is(err, streamerrors.ErrMalformedBlob)
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "streambloom",
		Short:         "Build, check and size Bloom filters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(e.configPath)
			if err != nil {
				return clientError.Wrap(err)
			}
			e.cfg = cfg
			e.log = newLogger(e.stderr, e.verbose)
			return nil
		},
	}
	root.SetIn(e.stdin)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clientError.Wrap(err)
	})

	root.PersistentFlags().StringVar(&e.configPath, "config", "", "YAML file overriding built-in defaults")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "log debug details to stderr")

	root.AddCommand(newBuildCmd(e), newCheckCmd(e), newCalcCmd(e))
	root.SetGlobalNormalizationFunc(normalizeFlagName)
	return root
}

// normalizeFlagName accepts dashed spellings and the fp_rate alias.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ReplaceAll(name, "-", "_")
	if name == "fp_rate" {
		name = "false_positive_rate"
	}
	return pflag.NormalizedName(name)
}

// newLogger returns a console logger on w. Output never touches stdout,
// which may carry a binary filter.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// argsError wraps a cobra positional-args validator so violations count as
// client errors.
func argsError(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return clientError.Wrap(err)
		}
		return nil
	}
}
