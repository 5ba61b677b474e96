package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/registry"
	"github.com/goliatone/go-instructform/pkg/validation"
)

// NewValidateCommand checks a draft without submitting it.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <draft.yaml>",
		Short: "Check a draft instruction",
		Long: `Load a draft instruction and report every field that would block
submission, including the configured attachment policy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args[0])
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command, path string) error {
	out := opts.printer(cmd)

	state, err := loadForm(opts, path)
	if err != nil {
		return err
	}
	reg, err := registry.Default()
	if err != nil {
		return commandError("load registry", err)
	}

	errs, err := validation.Check(reg, state.Snapshot())
	if err != nil {
		return commandError("evaluate rules", err)
	}

	alert := ""
	if perr := opts.Config.Attachments.Check(state.Attachments()); perr != nil {
		var incomplete *attachments.IncompleteAttachmentError
		if errors.As(perr, &incomplete) {
			alert = fmt.Sprintf("Please attach at least %d file(s) before submitting.", incomplete.Required)
		} else {
			alert = perr.Error()
		}
	}

	if errs.OK() && alert == "" {
		return out.ok(fmt.Sprintf("%s is ready to submit", path), map[string]any{"valid": true})
	}
	opts.Logger.Debug("draft is incomplete", zap.String("draft", path), zap.Strings("fields", errs.Keys()))
	if err := out.fail(alert, errs); err != nil {
		return err
	}
	return failure(fmt.Sprintf("%s is not ready: %d field(s) need attention", path, len(errs)), nil)
}

// loadForm builds form state from a draft file. An empty path gives an
// empty form.
func loadForm(opts *RootOptions, path string) (*form.State, error) {
	if path == "" {
		return form.New(), nil
	}
	d, err := form.LoadDraft(path)
	if err != nil {
		return nil, commandError("read draft", err)
	}
	state, err := form.FromDraft(d, opts.Config.SignatureSurface())
	if err != nil {
		return nil, commandError("load draft", err)
	}
	return state, nil
}
