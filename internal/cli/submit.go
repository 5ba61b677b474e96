package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-instructform/pkg/registry"
	"github.com/goliatone/go-instructform/pkg/submission"
	"github.com/goliatone/go-instructform/pkg/submission/httpsubmit"
)

type submitOptions struct {
	endpoint string
	timeout  time.Duration
	dryRun   bool
}

// NewSubmitCommand submits a draft to the intake backend.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit <draft.yaml>",
		Short: "Submit a draft instruction",
		Long: `Validate a draft instruction and post it with its attachments to the
intake backend. With --dry-run the payload is printed instead of sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd.Context(), rootOpts, opts, cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "intake base URL (overrides config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "request timeout (overrides config)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the payload without sending it")
	return cmd
}

func runSubmit(ctx context.Context, rootOpts *RootOptions, opts *submitOptions, cmd *cobra.Command, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := rootOpts.printer(cmd)
	cfg := rootOpts.Config

	state, err := loadForm(rootOpts, path)
	if err != nil {
		return err
	}
	reg, err := registry.Default()
	if err != nil {
		return commandError("load registry", err)
	}

	submitter := rootOpts.submitter
	switch {
	case opts.dryRun:
		submitter = submission.SubmitterFunc(func(_ context.Context, p submission.Payload) error {
			return out.json(p)
		})
	case submitter == nil:
		endpoint := strings.TrimSpace(opts.endpoint)
		if endpoint == "" {
			endpoint = cfg.Submit.Endpoint
		}
		timeout := opts.timeout
		if timeout <= 0 {
			timeout = cfg.SubmitTimeout()
		}
		submitter = httpsubmit.New(endpoint,
			httpsubmit.WithTimeout(timeout),
			httpsubmit.WithRegistry(reg),
			httpsubmit.WithLogger(rootOpts.Logger),
		)
	}

	orch, err := submission.New(state, submitter,
		submission.WithRegistry(reg),
		submission.WithAttachmentPolicy(cfg.Attachments),
		submission.WithLogger(rootOpts.Logger),
	)
	if err != nil {
		return commandError("prepare submission", err)
	}

	payload, err := orch.Submit(ctx)
	if err == nil {
		if opts.dryRun {
			return nil
		}
		return out.ok(fmt.Sprintf("submitted %s as %s", path, payload.SubmissionID), map[string]any{
			"submission_id": payload.SubmissionID,
			"submitted_at":  payload.SubmittedAt,
		})
	}

	var (
		invalid  *submission.ValidationError
		rejected *submission.SubmissionRejected
	)
	switch {
	case errors.As(err, &invalid):
		if perr := out.fail("", invalid.Errors); perr != nil {
			return perr
		}
		return failure(fmt.Sprintf("%s is not ready: %d field(s) need attention", path, len(invalid.Errors)), nil)
	case errors.As(err, &rejected):
		if perr := out.fail(rejected.Message, rejected.Fields); perr != nil {
			return perr
		}
		return failure("submission refused", err)
	}

	if alerts := state.Alerts(); len(alerts) > 0 {
		if perr := out.fail(alerts[0], nil); perr != nil {
			return perr
		}
		return failure("submission blocked", err)
	}
	return commandError("submit", err)
}

