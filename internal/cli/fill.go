package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/prompt"
)

type fillOptions struct {
	output   string
	sections []string
}

// NewFillCommand walks the form interactively and saves a draft.
func NewFillCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &fillOptions{}
	cmd := &cobra.Command{
		Use:   "fill [draft.yaml]",
		Short: "Fill in an instruction interactively",
		Long: `Ask for every visible field in turn and save the answers as a draft.
When the draft already exists its values are offered as defaults. Progress
is saved even when the session is aborted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := ""
			if len(args) == 1 {
				draft = args[0]
			}
			return runFill(rootOpts, opts, cmd, draft)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "where to save the draft (defaults to the input draft or instruction.yaml)")
	cmd.Flags().StringSliceVar(&opts.sections, "section", nil, "only ask for these sections")
	return cmd
}

func runFill(rootOpts *RootOptions, opts *fillOptions, cmd *cobra.Command, draft string) error {
	state := form.New()
	if draft != "" {
		if _, err := os.Stat(draft); err == nil {
			loaded, err := loadForm(rootOpts, draft)
			if err != nil {
				return err
			}
			state = loaded
		}
	}

	output := opts.output
	switch {
	case output != "":
	case draft != "":
		output = draft
	default:
		output = "instruction.yaml"
	}

	newDriver := rootOpts.newDriver
	if newDriver == nil {
		newDriver = func(out io.Writer) prompt.Driver { return prompt.NewSurveyDriver(out) }
	}
	filler, err := prompt.New(
		prompt.WithDriver(newDriver(cmd.ErrOrStderr())),
		prompt.WithSections(opts.sections...),
		prompt.WithLogger(rootOpts.Logger),
	)
	if err != nil {
		return commandError("prepare prompts", err)
	}

	fillErr := filler.Fill(cmd.Context(), state)
	if fillErr != nil && !errors.Is(fillErr, prompt.ErrAborted) {
		return commandError("fill", fillErr)
	}

	if err := saveDraft(state, output); err != nil {
		return err
	}
	rootOpts.Logger.Debug("draft saved", zap.String("path", output), zap.Bool("aborted", fillErr != nil))

	if fillErr != nil {
		return failure(fmt.Sprintf("aborted, progress saved to %s", output), nil)
	}
	return rootOpts.printer(cmd).ok(fmt.Sprintf("draft saved to %s", output), map[string]any{"draft": output})
}

func saveDraft(state *form.State, path string) error {
	data, err := form.MarshalDraft(state.Draft())
	if err != nil {
		return commandError("encode draft", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return commandError("create draft directory", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return commandError("write draft", err)
	}
	return nil
}
