package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// SendersRenderer renders sender lists
type SendersRenderer struct {
	out io.Writer
}

// NewSendersRenderer creates a new senders renderer
func NewSendersRenderer(out io.Writer) *SendersRenderer {
	return &SendersRenderer{out: out}
}

// RenderSendersList renders a table of the configured senders
func (r *SendersRenderer) RenderSendersList(result *usecase.ListSendersResult) error {
	if len(result.Senders) == 0 {
		fmt.Fprintln(r.out, "No senders configured in txflow.toml [senders]")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"Name", "Type", "Address"})

	for _, sender := range result.Senders {
		address := sender.Address
		if sender.Error != nil {
			address = color.New(color.FgRed).Sprintf("error: %v", sender.Error)
		}
		t.AppendRow(table.Row{sender.Name, senderType(sender), address})
	}
	t.Render()

	return nil
}

func senderType(sender usecase.SenderStatus) string {
	switch sender.Type {
	case domain.SenderTypeSafe:
		return color.New(color.FgMagenta).Sprint("safe")
	case domain.SenderTypePrivateKey:
		return color.New(color.FgCyan).Sprint("private key")
	default:
		return string(sender.Type)
	}
}
