package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// TimelineRenderer prints timeline changes as they happen. The item waiting
// on the chain gets a spinner; every other status change prints one line.
type TimelineRenderer struct {
	out     io.Writer
	spinner *spinner.Spinner

	mu      sync.Mutex
	printed map[string]string // item id -> last printed status+message
}

// NewTimelineRenderer creates a renderer writing to out. A spinner is only
// shown when withSpinner is set (interactive terminals).
func NewTimelineRenderer(out io.Writer, withSpinner bool) *TimelineRenderer {
	r := &TimelineRenderer{
		out:     out,
		printed: make(map[string]string),
	}
	if withSpinner {
		r.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		r.spinner.HideCursor = false
	}
	return r
}

// OnTimeline renders the difference between state and what was printed before
func (r *TimelineRenderer) OnTimeline(state usecase.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !state.Initialized {
		return
	}

	for i, item := range state.Items {
		key := string(item.Status) + "|" + item.Message
		if r.printed[item.ID] == key {
			continue
		}
		r.printed[item.ID] = key

		switch item.Status {
		case domain.StatusAwaitingPrevious:
			// quiet until it is this item's turn
		case domain.StatusPending, domain.StatusFinalizing:
			r.spin(fmt.Sprintf("%s %s", item.Title, color.New(color.Faint).Sprint(item.Message)))
		default:
			r.stopSpinner()
			fmt.Fprintln(r.out, formatItem(i, item))
		}
	}

	if state.Completed || state.Err != nil {
		r.stopSpinner()
	}
}

// Reset forgets what was printed so the next snapshot is rendered in full
func (r *TimelineRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	r.printed = make(map[string]string)
}

func (r *TimelineRenderer) spin(suffix string) {
	if r.spinner == nil {
		return
	}
	r.spinner.Suffix = " " + suffix
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

func (r *TimelineRenderer) stopSpinner() {
	if r.spinner != nil && r.spinner.Active() {
		r.spinner.Stop()
	}
}

func formatItem(index int, item domain.TimelineItem) string {
	icon, c := statusStyle(item.Status)
	line := fmt.Sprintf("%s %d. %s %s", c.Sprint(icon), index+1, item.Title, c.Sprint(item.Message))
	if item.ExplorerURL != "" {
		line += " " + color.New(color.FgBlue).Sprint(item.ExplorerURL)
	}
	return line
}

func statusStyle(status domain.TimelineStatus) (string, *color.Color) {
	switch status {
	case domain.StatusConfirmed, domain.StatusSubmittedToSafe:
		return "✓", color.New(color.FgGreen)
	case domain.StatusFailed, domain.StatusRejected:
		return "✗", color.New(color.FgRed)
	case domain.StatusCancelled:
		return "⊘", color.New(color.FgYellow)
	case domain.StatusAwaitingSignature, domain.StatusRetrying:
		return "●", color.New(color.FgYellow)
	case domain.StatusPending, domain.StatusFinalizing:
		return "◌", color.New(color.FgCyan)
	default:
		return "○", color.New(color.FgWhite, color.Faint)
	}
}

// StatusLabel turns a status into a title-cased label ("submittedToSafe" -> "Submitted To Safe")
func StatusLabel(status domain.TimelineStatus) string {
	var words strings.Builder
	for i, r := range string(status) {
		if i > 0 && unicode.IsUpper(r) {
			words.WriteRune(' ')
		}
		words.WriteRune(r)
	}
	return cases.Title(language.English).String(words.String())
}

// RenderSummary writes a table of every item's final status
func RenderSummary(out io.Writer, headline string, state usecase.State) {
	if headline != "" {
		color.New(color.Bold).Fprintln(out, headline)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"#", "Transaction", "Status", "Link"})
	for i, item := range state.Items {
		_, c := statusStyle(item.Status)
		t.AppendRow(table.Row{i + 1, item.Title, c.Sprint(StatusLabel(item.Status)), item.ExplorerURL})
	}
	t.Render()

	if state.ShowError && state.Err != nil {
		color.New(color.FgRed).Fprintf(out, "Error: %v\n", state.Err)
	}
}

var _ usecase.TimelineObserver = (*TimelineRenderer)(nil)
