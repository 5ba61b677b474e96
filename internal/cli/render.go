package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-instructform/pkg/render/html"
)

type renderOptions struct {
	action string
	csrf   string
	output string
}

// NewRenderCommand renders a draft as an HTML form.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render [draft.yaml]",
		Short: "Render an instruction as an HTML form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := ""
			if len(args) == 1 {
				draft = args[0]
			}
			return runRender(rootOpts, opts, cmd, draft)
		},
	}
	cmd.Flags().StringVar(&opts.action, "action", "/api/instructions", "form action URL")
	cmd.Flags().StringVar(&opts.csrf, "csrf", "", "CSRF token to embed as _csrf")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "output file (stdout if empty)")
	return cmd
}

func runRender(rootOpts *RootOptions, opts *renderOptions, cmd *cobra.Command, draft string) error {
	state, err := loadForm(rootOpts, draft)
	if err != nil {
		return err
	}
	renderer, err := html.New(html.WithLogger(rootOpts.Logger))
	if err != nil {
		return commandError("prepare renderer", err)
	}

	req := html.Request{Action: opts.action, Method: "post"}
	if opts.csrf != "" {
		req.Hidden = append(req.Hidden, html.CSRFToken("_csrf", opts.csrf))
	}

	if opts.output == "" {
		if _, err := renderer.Render(state, req, cmd.OutOrStdout()); err != nil {
			return commandError("render", err)
		}
		return nil
	}

	markup, err := renderer.Render(state, req)
	if err != nil {
		return commandError("render", err)
	}
	if err := os.WriteFile(opts.output, []byte(markup), 0o644); err != nil {
		return commandError("write output", err)
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "Form written to %s\n", opts.output)
	return err
}
