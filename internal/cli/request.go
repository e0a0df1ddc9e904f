package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
)

const defaultActor = "admin-cli"

type requestOp func(l *customrequest.Lifecycle, ctx context.Context, id, actorID string) (*customrequest.CustomRequest, error)

func newRequestCmd(a *app) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Drive custom requests through fulfillment",
	}
	cmd.PersistentFlags().StringVar(&actor, "actor", defaultActor, "Recorded as updated_by")

	transition := func(use, short string, op requestOp) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := a.get(cmd.Context())
				if err != nil {
					return err
				}
				r, err := op(b.Requests, cmd.Context(), args[0], actor)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r)
			},
		}
	}

	var samples []string
	attach := &cobra.Command{
		Use:   "attach ID",
		Short: "Attach a sample batch, replacing the previous one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			r, err := b.Requests.AttachSamples(cmd.Context(), args[0], actor, samples)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
	attach.Flags().StringSliceVar(&samples, "sample", nil, "Sample image reference, repeatable")
	_ = attach.MarkFlagRequired("sample")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print a custom request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			r, err := b.Requests.Find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}

	cmd.AddCommand(
		attach,
		show,
		transition("start", "Mark a pending request as picked up", (*customrequest.Lifecycle).StartWork),
		transition("complete", "Close a request as fulfilled", (*customrequest.Lifecycle).MarkCompleted),
		transition("cancel", "Cancel a request", (*customrequest.Lifecycle).Cancel),
	)
	return cmd
}

func flagError(name string, err error) error {
	return fmt.Errorf("invalid --%s: %w", name, err)
}
