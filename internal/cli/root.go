// Package cli implements the instructctl commands.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/internal/config"
	"github.com/goliatone/go-instructform/internal/logging"
	"github.com/goliatone/go-instructform/pkg/prompt"
	"github.com/goliatone/go-instructform/pkg/submission"
)

// ValidFormats lists the output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and the state built from them.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string

	Config *config.Config
	Logger *zap.Logger

	// newDriver and submitter replace the terminal and the HTTP client in
	// tests.
	newDriver func(out io.Writer) prompt.Driver
	submitter submission.Submitter
}

// NewRootCommand builds instructctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "instructctl",
		Short:         "Fill, check and submit eviction-services instructions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return commandError(fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return commandError("load config", err)
			}
			opts.Config = cfg

			logger, err := logging.New(logging.Verbose(cfg.Logging, opts.Verbose))
			if err != nil {
				return commandError("init logger", err)
			}
			opts.Logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "instruct.yaml", "config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewFillCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))

	return cmd
}

func (o *RootOptions) printer(cmd *cobra.Command) printer {
	return printer{format: o.Format, out: cmd.OutOrStdout()}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
