package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/trebuchet-org/txflow/internal/domain"
)

// Report is the JSON document written after a batch completes
type Report struct {
	Headline     string         `json:"headline"`
	Network      string         `json:"network"`
	ChainID      uint64         `json:"chainId"`
	Sender       common.Address `json:"sender"`
	Mode         string         `json:"mode"`
	Transactions []ReportTx     `json:"transactions,omitempty"`
	Safe         *ReportSafe    `json:"safe,omitempty"`
	CompletedAt  time.Time      `json:"completedAt"`
}

// ReportTx is one confirmed transaction
type ReportTx struct {
	Title       string      `json:"title"`
	Hash        common.Hash `json:"hash"`
	BlockNumber uint64      `json:"blockNumber"`
	GasUsed     uint64      `json:"gasUsed"`
	Status      uint64      `json:"status"`
}

// ReportSafe describes the proposal handed to the Safe
type ReportSafe struct {
	Title      string      `json:"title"`
	Safe       string      `json:"safe"`
	SafeTxHash common.Hash `json:"safeTxHash"`
	Nonce      uint64      `json:"nonce"`
	ServiceURL string      `json:"serviceUrl"`
}

// ReportWriter writes completion reports. An empty path disables writing.
type ReportWriter struct {
	path string
	now  func() time.Time
}

// NewReportWriter creates a writer for path
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path, now: time.Now}
}

func (w *ReportWriter) newReport(file *File, c Context, mode string) *Report {
	return &Report{
		Headline:    file.Headline,
		Network:     c.Network.Name,
		ChainID:     c.Network.ChainID,
		Sender:      c.Sender,
		Mode:        mode,
		CompletedAt: w.now().UTC(),
	}
}

// WriteReceipts records the confirmed transactions of a direct-signing run
func (w *ReportWriter) WriteReceipts(file *File, c Context, receipts []*types.Receipt) error {
	report := w.newReport(file, c, "eoa")
	for i, receipt := range receipts {
		if receipt == nil {
			continue
		}
		tx := ReportTx{
			Hash:    receipt.TxHash,
			GasUsed: receipt.GasUsed,
			Status:  receipt.Status,
		}
		if i < len(file.Transactions) {
			tx.Title = file.Transactions[i].Title
		}
		if receipt.BlockNumber != nil {
			tx.BlockNumber = receipt.BlockNumber.Uint64()
		}
		report.Transactions = append(report.Transactions, tx)
	}
	return w.write(report)
}

// WriteSafe records the proposal of a Safe run
func (w *ReportWriter) WriteSafe(file *File, c Context, submission domain.SafeSubmission) error {
	report := w.newReport(file, c, "safe")
	report.Safe = &ReportSafe{
		Title:      file.Transactions[0].Title,
		Safe:       submission.Safe.Hex(),
		SafeTxHash: submission.SafeTxHash,
		Nonce:      submission.Nonce,
		ServiceURL: submission.ServiceURL,
	}
	return w.write(report)
}

func (w *ReportWriter) write(report *Report) error {
	if w.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(w.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
