package batch

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/trebuchet-org/txflow/internal/domain"
)

// SenderPlaceholder is replaced with the executing address in `to` and `args`
const SenderPlaceholder = "${sender}"

// File is a batch definition loaded from YAML
type File struct {
	Headline     string            `yaml:"headline"`
	Description  string            `yaml:"description"`
	Icon         string            `yaml:"icon"`
	Messages     MessagesSpec      `yaml:"messages"`
	Transactions []TransactionSpec `yaml:"transactions"`
}

// MessagesSpec holds the completion messages shown to the operator
type MessagesSpec struct {
	Success string `yaml:"success"`
	Failure string `yaml:"failure"`
}

// TransactionSpec describes one transaction of the batch. Exactly one of
// Data and Signature may be set; neither means an empty call.
type TransactionSpec struct {
	Title          string `yaml:"title"`
	To             string `yaml:"to"`
	Data           string `yaml:"data"`
	Signature      string `yaml:"signature"`
	Args           []any  `yaml:"args"`
	Value          string `yaml:"value"`
	GasLimit       uint64 `yaml:"gasLimit"`
	ApplyGasBuffer bool   `yaml:"applyGasBuffer"`
}

// Load reads and validates a batch file
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a batch definition
func Parse(raw []byte) (*File, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	var file File
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks titles and dry-runs the encoding of every transaction
func (f *File) Validate() error {
	if len(f.Transactions) == 0 {
		return fmt.Errorf("batch has no transactions")
	}

	for i, tx := range f.Transactions {
		if strings.TrimSpace(tx.Title) == "" {
			return fmt.Errorf("transaction %d: title is required", i)
		}
	}

	if dups := lo.FindDuplicatesBy(f.Transactions, func(tx TransactionSpec) string { return tx.Title }); len(dups) > 0 {
		return fmt.Errorf("duplicate transaction title %q", dups[0].Title)
	}

	for _, tx := range f.Transactions {
		if _, err := tx.Build(common.Address{}); err != nil {
			return err
		}
	}
	return nil
}

// Wrappers builds the transaction list for the executing sender
func (f *File) Wrappers(sender common.Address) ([]domain.TransactionWrapper, error) {
	wrappers := make([]domain.TransactionWrapper, 0, len(f.Transactions))
	for _, tx := range f.Transactions {
		w, err := tx.Build(sender)
		if err != nil {
			return nil, err
		}
		wrappers = append(wrappers, w)
	}
	return wrappers, nil
}

// Build resolves placeholders and encodes the call data
func (s TransactionSpec) Build(sender common.Address) (domain.TransactionWrapper, error) {
	fail := func(format string, args ...any) (domain.TransactionWrapper, error) {
		return domain.TransactionWrapper{}, fmt.Errorf("transaction %q: %s", s.Title, fmt.Sprintf(format, args...))
	}

	to := replaceSender(s.To, sender)
	if !common.IsHexAddress(to) {
		return fail("invalid to address %q", s.To)
	}

	var data []byte
	switch {
	case s.Data != "" && s.Signature != "":
		return fail("data and signature are mutually exclusive")
	case s.Data != "":
		decoded, err := hexutil.Decode(s.Data)
		if err != nil {
			return fail("invalid data: %v", err)
		}
		data = decoded
	case s.Signature != "":
		encoded, err := EncodeCall(s.Signature, substituteArgs(s.Args, sender))
		if err != nil {
			return fail("%v", err)
		}
		data = encoded
	case len(s.Args) > 0:
		return fail("args require a signature")
	}

	value, err := ParseValue(s.Value)
	if err != nil {
		return fail("%v", err)
	}

	return domain.TransactionWrapper{
		Title: s.Title,
		Transaction: domain.TxRequest{
			To:       common.HexToAddress(to),
			Data:     data,
			Value:    value,
			GasLimit: s.GasLimit,
		},
		ApplyGasBuffer: s.ApplyGasBuffer,
	}, nil
}

func replaceSender(s string, sender common.Address) string {
	return strings.ReplaceAll(s, SenderPlaceholder, sender.Hex())
}

// substituteArgs replaces the sender placeholder in string args and nested lists
func substituteArgs(args []any, sender common.Address) []any {
	return lo.Map(args, func(arg any, _ int) any {
		switch v := arg.(type) {
		case string:
			return replaceSender(v, sender)
		case []any:
			return substituteArgs(v, sender)
		default:
			return arg
		}
	})
}
