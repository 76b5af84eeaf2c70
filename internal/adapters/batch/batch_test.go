package batch

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

var sender = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

const sampleBatch = `
headline: Configure vault
description: Approve and deposit
icon: "🏦"
messages:
  success: Vault configured
  failure: Vault setup failed
transactions:
  - title: Approve USDC
    to: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
    signature: approve(address,uint256)
    args: ["0x3D33783D1fd1B6D849d299aD2E711f844fC16d2F", "1000000"]
    applyGasBuffer: true
  - title: Fund self
    to: ${sender}
    value: 0.5 ether
  - title: Raw call
    to: "0x3D33783D1fd1B6D849d299aD2E711f844fC16d2F"
    data: "0xd0e30db0"
    gasLimit: 90000
`

func TestParse(t *testing.T) {
	file, err := Parse([]byte(sampleBatch))
	require.NoError(t, err)
	assert.Equal(t, "Configure vault", file.Headline)
	assert.Equal(t, "Vault configured", file.Messages.Success)
	require.Len(t, file.Transactions, 3)

	wrappers, err := file.Wrappers(sender)
	require.NoError(t, err)
	require.Len(t, wrappers, 3)

	approve := wrappers[0]
	assert.Equal(t, "Approve USDC", approve.Title)
	assert.True(t, approve.ApplyGasBuffer)
	assert.Equal(t, common.FromHex("0x095ea7b3"), approve.Transaction.Data[:4])
	assert.Len(t, approve.Transaction.Data, 4+64)
	assert.Nil(t, approve.Transaction.Value)

	fund := wrappers[1]
	assert.Equal(t, sender, fund.Transaction.To)
	assert.Equal(t, "500000000000000000", fund.Transaction.Value.String())
	assert.Empty(t, fund.Transaction.Data)

	raw := wrappers[2]
	assert.Equal(t, common.FromHex("0xd0e30db0"), raw.Transaction.Data)
	assert.Equal(t, uint64(90000), raw.Transaction.GasLimit)
	assert.False(t, raw.ApplyGasBuffer)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "empty", yaml: "headline: x\n", wantErr: "no transactions"},
		{name: "unknown field", yaml: "transactions:\n  - title: a\n    to: \"0x3D33783D1fd1B6D849d299aD2E711f844fC16d2F\"\n    gas: 1\n", wantErr: "field gas not found"},
		{name: "missing title", yaml: "transactions:\n  - to: \"0x3D33783D1fd1B6D849d299aD2E711f844fC16d2F\"\n", wantErr: "title is required"},
		{name: "duplicate titles", yaml: "transactions:\n  - title: a\n    to: ${sender}\n  - title: a\n    to: ${sender}\n", wantErr: `duplicate transaction title "a"`},
		{name: "bad address", yaml: "transactions:\n  - title: a\n    to: vault\n", wantErr: `invalid to address "vault"`},
		{name: "data and signature", yaml: "transactions:\n  - title: a\n    to: ${sender}\n    data: \"0x00\"\n    signature: f()\n", wantErr: "mutually exclusive"},
		{name: "args without signature", yaml: "transactions:\n  - title: a\n    to: ${sender}\n    args: [1]\n", wantErr: "args require a signature"},
		{name: "arg count", yaml: "transactions:\n  - title: a\n    to: ${sender}\n    signature: f(uint256)\n", wantErr: "expects 1 args, got 0"},
		{name: "bad value", yaml: "transactions:\n  - title: a\n    to: ${sender}\n    value: 1 finney\n", wantErr: "unknown unit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "", want: ""},
		{raw: "1000", want: "1000"},
		{raw: "0.5 ether", want: "500000000000000000"},
		{raw: "2 gwei", want: "2000000000"},
		{raw: "1.5 GWEI", want: "1500000000"},
		{raw: "7 wei", want: "7"},
		{raw: "1.5", wantErr: true},
		{raw: "-1 ether", wantErr: true},
		{raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseValue(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEncodeCall(t *testing.T) {
	t.Run("matches manual encoding", func(t *testing.T) {
		data, err := EncodeCall("transfer(address, uint256)", []any{sender.Hex(), 42})
		require.NoError(t, err)

		want := append([]byte{}, crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]...)
		want = append(want, common.LeftPadBytes(sender.Bytes(), 32)...)
		want = append(want, common.LeftPadBytes(big.NewInt(42).Bytes(), 32)...)
		assert.Equal(t, want, data)
	})

	t.Run("no arguments", func(t *testing.T) {
		data, err := EncodeCall("deposit()", nil)
		require.NoError(t, err)
		assert.Equal(t, common.FromHex("0xd0e30db0"), data)
	})

	t.Run("small ints, bools, fixed bytes and arrays", func(t *testing.T) {
		data, err := EncodeCall("configure(uint8,bool,bytes32,address[],string)", []any{
			7, true, "0x01", []any{sender.Hex(), sender.Hex()}, "vault",
		})
		require.NoError(t, err)
		assert.Equal(t, byte(7), data[4+31])
		assert.Equal(t, byte(1), data[4+63])
		assert.Equal(t, byte(1), data[4+64])
	})

	t.Run("errors", func(t *testing.T) {
		_, err := EncodeCall("transfer", nil)
		assert.ErrorContains(t, err, "invalid function signature")

		_, err = EncodeCall("f((uint256,address))", []any{[]any{1, sender.Hex()}})
		assert.ErrorContains(t, err, "tuple arguments are not supported")

		_, err = EncodeCall("f(uint8)", []any{256})
		assert.ErrorContains(t, err, "overflows uint8")

		_, err = EncodeCall("f(uint256)", []any{"-1"})
		assert.ErrorContains(t, err, "negative value")

		_, err = EncodeCall("f(address)", []any{"vault"})
		assert.ErrorContains(t, err, "invalid address")

		_, err = EncodeCall("f(uint256[2])", []any{[]any{1}})
		assert.ErrorContains(t, err, "expected 2 items")
	})
}

func TestPayloadHooks(t *testing.T) {
	file, err := Parse([]byte(sampleBatch))
	require.NoError(t, err)

	reportPath := filepath.Join(t.TempDir(), "report.json")
	writer := NewReportWriter(reportPath)
	writer.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	payload, err := Payload(file, writer)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Configure vault", payload.Headline)
	assert.Equal(t, "Vault setup failed", payload.Messages.Failure)

	network := domain.Network{ChainID: 11155111, Name: "sepolia"}
	c, err := payload.Before(context.Background(), usecase.ExecutionContext{Address: sender, Network: network})
	require.NoError(t, err)

	wrappers, err := payload.Transactions(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, sender, wrappers[1].Transaction.To)

	receipts := []*types.Receipt{
		{TxHash: common.HexToHash("0x01"), BlockNumber: big.NewInt(10), GasUsed: 46000, Status: 1},
		{TxHash: common.HexToHash("0x02"), BlockNumber: big.NewInt(11), GasUsed: 21000, Status: 1},
		{TxHash: common.HexToHash("0x03"), BlockNumber: big.NewInt(12), GasUsed: 30000, Status: 1},
	}
	require.NoError(t, payload.After(context.Background(), receipts, c))

	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "eoa", report.Mode)
	assert.Equal(t, "sepolia", report.Network)
	assert.Equal(t, sender, report.Sender)
	require.Len(t, report.Transactions, 3)
	assert.Equal(t, "Fund self", report.Transactions[1].Title)
	assert.Equal(t, uint64(11), report.Transactions[1].BlockNumber)
	assert.Nil(t, report.Safe)

	submission := domain.SafeSubmission{
		Safe:       common.HexToAddress("0x3D33783D1fd1B6D849d299aD2E711f844fC16d2F"),
		SafeTxHash: common.HexToHash("0xabc"),
		Nonce:      6,
		ServiceURL: "https://safe.internal/api/v1/multisig-transactions/0xabc/",
	}
	require.NoError(t, payload.AfterSafe(context.Background(), submission, c))
	raw, err = os.ReadFile(reportPath)
	require.NoError(t, err)
	report = Report{}
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "safe", report.Mode)
	require.NotNil(t, report.Safe)
	assert.Equal(t, "Approve USDC", report.Safe.Title)
	assert.Equal(t, uint64(6), report.Safe.Nonce)
	assert.Empty(t, report.Transactions)
}

func TestReportWriter_Disabled(t *testing.T) {
	file, err := Parse([]byte(sampleBatch))
	require.NoError(t, err)
	assert.NoError(t, NewReportWriter("").WriteReceipts(file, Context{}, nil))
}
