package interactive

import (
	"errors"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/txflow/internal/config"
)

func TestConfirmRetry(t *testing.T) {
	tests := []struct {
		name      string
		nonInter  bool
		answer    error
		wantRetry bool
		wantErr   bool
	}{
		{name: "accepted", wantRetry: true},
		{name: "declined", answer: promptui.ErrAbort},
		{name: "interrupted", answer: promptui.ErrInterrupt, wantErr: true},
		{name: "broken terminal", answer: errors.New("EOF"), wantErr: true},
		{name: "non-interactive", nonInter: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asked := false
			p := NewPrompter(&config.RuntimeConfig{NonInteractive: tt.nonInter})
			p.confirm = func(label string) error {
				asked = true
				assert.Contains(t, label, "Deposit")
				return tt.answer
			}

			retry, err := p.ConfirmRetry("Deposit")
			assert.Equal(t, tt.wantRetry, retry)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, !tt.nonInter, asked)
		})
	}
}

func TestSelectSender(t *testing.T) {
	p := NewPrompter(&config.RuntimeConfig{})
	p.selectf = func(label string, items []string) (int, error) { return 1, nil }

	name, err := p.SelectSender([]string{"deployer", "treasury"})
	require.NoError(t, err)
	assert.Equal(t, "treasury", name)

	name, err = p.SelectSender([]string{"only"})
	require.NoError(t, err)
	assert.Equal(t, "only", name)

	_, err = p.SelectSender(nil)
	assert.Error(t, err)

	_, err = NewPrompter(&config.RuntimeConfig{NonInteractive: true}).SelectSender([]string{"a", "b"})
	assert.ErrorContains(t, err, "non-interactive")
}

func TestFuzzySearch(t *testing.T) {
	search := createFuzzySearchFunc([]string{"deployer", "treasury-safe"})
	assert.True(t, search("", 0))
	assert.True(t, search("DEP", 0))
	assert.True(t, search("trsf", 1))
	assert.False(t, search("xyz", 1))
}
