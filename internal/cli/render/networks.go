package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{
		out: out,
	}
}

// RenderNetworksList renders a table of the configured networks
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in txflow.toml [networks]")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"Name", "Chain ID", "RPC", "Explorer", "Safe Service"})

	for _, network := range result.Networks {
		if network.Error != nil {
			t.AppendRow(table.Row{network.Name, "", color.New(color.FgRed).Sprintf("error: %v", network.Error), "", ""})
			continue
		}
		t.AppendRow(table.Row{
			network.Name,
			chainID(network),
			network.RPCURL,
			orDash(network.ExplorerURL),
			orDash(network.SafeServiceURL),
		})
	}
	t.Render()

	return nil
}

func chainID(network usecase.NetworkStatus) string {
	if network.ChainIDDiscovered {
		return fmt.Sprintf("%d %s", network.ChainID, color.New(color.Faint).Sprint("(from node)"))
	}
	return fmt.Sprintf("%d", network.ChainID)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
