package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/txflow/internal/cli/render"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// NewSendersCmd creates the senders command
func NewSendersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "senders",
		Short: "List senders configured in txflow.toml",
		Long: `List all senders configured in the [senders] section of txflow.toml
together with the address each one executes from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListSenders.Run(cmd.Context(), usecase.ListSendersParams{})
			if err != nil {
				return err
			}

			return render.NewSendersRenderer(cmd.OutOrStdout()).RenderSendersList(result)
		},
	}

	return cmd
}
