package interactive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/txflow/internal/config"
)

// Prompter asks the operator questions on the terminal
type Prompter struct {
	config  *config.RuntimeConfig
	confirm func(label string) error
	selectf func(label string, items []string) (int, error)
}

// NewPrompter creates a new prompter
func NewPrompter(cfg *config.RuntimeConfig) *Prompter {
	return &Prompter{config: cfg, confirm: runConfirm, selectf: runSelect}
}

// ConfirmRetry asks whether to retry the batch from the named transaction.
// Non-interactive sessions never retry.
func (p *Prompter) ConfirmRetry(title string) (bool, error) {
	if p.config.NonInteractive {
		return false, nil
	}

	err := p.confirm(fmt.Sprintf("Retry from %s", color.New(color.FgCyan, color.Bold).Sprint(title)))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	case errors.Is(err, promptui.ErrInterrupt):
		return false, fmt.Errorf("retry prompt interrupted: %w", err)
	default:
		return false, fmt.Errorf("retry prompt failed: %w", err)
	}
}

// SelectSender asks the operator to pick one of the configured senders
func (p *Prompter) SelectSender(names []string) (string, error) {
	// In non-interactive mode, we can't select
	if p.config.NonInteractive {
		return "", fmt.Errorf("interactive selection not available in non-interactive mode")
	}

	if len(names) == 0 {
		return "", fmt.Errorf("no senders configured")
	}

	// If only one option, return it directly
	if len(names) == 1 {
		return names[0], nil
	}

	index, err := p.selectf("Select sender", names)
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return names[index], nil
}

func runConfirm(label string) error {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err
}

func runSelect(label string, items []string) (int, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             label,
		Items:             items,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: len(items) > 10,
		Searcher:          createFuzzySearchFunc(items),
	}

	index, _, err := promptSelect.Run()
	return index, err
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		// Convert to lowercase for case-insensitive search
		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		// First try simple substring match
		if strings.Contains(item, input) {
			return true
		}

		// Then try fuzzy match
		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}
