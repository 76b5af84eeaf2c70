package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/txflow/internal/cli/render"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List networks configured in txflow.toml",
		Long: `List all networks configured in the [networks] section of txflow.toml.

This command shows all available networks and attempts to fetch the chain ID
of those that do not configure one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Get app from context
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			// Run use case
			params := usecase.ListNetworksParams{}
			result, err := app.ListNetworks.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			// Render output
			renderer := render.NewNetworksRenderer(cmd.OutOrStdout())
			return renderer.RenderNetworksList(result)
		},
	}

	return cmd
}
