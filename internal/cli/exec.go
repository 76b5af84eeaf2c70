package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/txflow/internal/adapters/batch"
	"github.com/trebuchet-org/txflow/internal/adapters/progress"
	"github.com/trebuchet-org/txflow/internal/app"
	"github.com/trebuchet-org/txflow/internal/cli/render"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// NewExecCmd creates the exec command
func NewExecCmd() *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "exec <batch.yaml>",
		Short: "Execute a batch of transactions",
		Long: `Execute the transactions described in a batch file, in order.

With a private key sender every transaction is signed, broadcast and
confirmed before the next one is sent. With a Safe sender the batch is
proposed to the Safe Transaction Service for the other owners to sign.

When a transaction fails or is rejected, txflow offers to retry from
that transaction. Transactions already confirmed are not sent again.

Batch file example:
  headline: Configure vault
  messages:
    success: Vault configured
  transactions:
    - title: Approve USDC
      to: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
      signature: approve(address,uint256)
      args: ["0x2222222222222222222222222222222222222222", "1000000"]
      applyGasBuffer: true
    - title: Fund sender
      to: "${sender}"
      value: 0.01 ether

Examples:
  # Execute on sepolia with the default sender
  txflow exec batch.yaml --network sepolia

  # Propose through a Safe sender and write a report
  txflow exec batch.yaml -n base --sender ops-safe --report out/report.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if app.Config.Network == nil {
				return fmt.Errorf("no network selected, --network flag is required")
			}

			file, err := batch.Load(args[0])
			if err != nil {
				return err
			}

			if err := selectSender(cmd.Context(), app); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runBatch(ctx, cmd.OutOrStdout(), app, file, batch.NewReportWriter(reportPath), app.Prompter.ConfirmRetry)
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Write a JSON report of the executed batch to this path")
	// Read through viper together with the global flags
	cmd.Flags().BoolP("yes", "y", false, "Sign every transaction without asking for confirmation")
	cmd.Flags().String("settle-delay", "", "Minimum time spent building the batch (e.g. 600ms)")

	return cmd
}

// selectSender asks for a sender when none was given and no default is configured
func selectSender(ctx context.Context, app *app.App) error {
	if app.Config.SenderName != "" {
		return nil
	}
	if _, err := app.Senders.ResolveSender(ctx, ""); err == nil {
		return nil
	}

	names := app.Senders.GetSenders(ctx)
	if len(names) < 2 {
		// Let the wallet snapshot report the configuration error
		return nil
	}

	name, err := app.Prompter.SelectSender(names)
	if err != nil {
		return err
	}
	app.Config.SenderName = name
	return nil
}

// confirmRetryFunc asks whether to retry from the named transaction
type confirmRetryFunc func(title string) (bool, error)

// runBatch executes the batch and offers to retry from the failed transaction
// until it completes or the operator gives up.
func runBatch(
	ctx context.Context,
	out io.Writer,
	app *app.App,
	file *batch.File,
	report *batch.ReportWriter,
	confirmRetry confirmRetryFunc,
) error {
	renderer := progress.NewTimelineRenderer(out, !app.Config.NonInteractive)
	host := &cliHost{}
	flow := usecase.NewTransact(app.Engine, batch.Payload(file, report), host, renderer)

	if file.Headline != "" {
		color.New(color.Bold).Fprintln(out, file.Headline)
	}
	if file.Description != "" {
		fmt.Fprintln(out, color.New(color.Faint).Sprint(file.Description))
	}

	err := flow.Execute(ctx, 0)
	for err != nil && ctx.Err() == nil {
		state := flow.State()
		if !state.CanRetry() {
			break
		}

		retry, perr := confirmRetry(resumeTitle(state, flow.ResumeIndex(), file.Headline))
		if perr != nil {
			err = errors.Join(err, perr)
			break
		}
		if !retry {
			break
		}
		err = flow.Retry(ctx)
	}

	if err != nil {
		flow.Timeline().SetShowError(true)
	}
	fmt.Fprintln(out)
	progress.RenderSummary(out, "", flow.State())
	fmt.Fprintln(out)

	if err != nil {
		if file.Messages.Failure != "" {
			fmt.Fprintln(out, render.FormatError(file.Messages.Failure))
		}
		return err
	}
	if host.result.Success {
		fmt.Fprintln(out, render.FormatSuccess(successMessage(file, flow.State())))
	}
	return nil
}

func resumeTitle(state usecase.State, index int, fallback string) string {
	if index >= 0 && index < len(state.Items) {
		return state.Items[index].Title
	}
	if fallback != "" {
		return fallback
	}
	return "the beginning"
}

func successMessage(file *batch.File, state usecase.State) string {
	if file.Messages.Success != "" {
		return file.Messages.Success
	}
	for _, item := range state.Items {
		if item.Status == domain.StatusSubmittedToSafe {
			return "Batch submitted to the Safe for approval"
		}
	}
	return fmt.Sprintf("%d transactions confirmed", len(state.Items))
}

// cliHost records the flow's completion for the command
type cliHost struct {
	result domain.Result
}

func (h *cliHost) SetCloseable(bool)             {}
func (h *cliHost) Complete(result domain.Result) { h.result = result }
func (h *cliHost) StartOver()                    {}
