package explorer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestBaseURLForChain(t *testing.T) {
	assert.Equal(t, "https://etherscan.io", BaseURLForChain(1))
	assert.Equal(t, "https://sepolia.etherscan.io", BaseURLForChain(11155111))
	assert.Equal(t, "https://basescan.org", BaseURLForChain(8453))
	assert.Empty(t, BaseURLForChain(31337))
}

func TestResolver(t *testing.T) {
	hash := common.HexToHash("0x01")
	r := NewResolver(map[string]string{
		"mainnet": "https://eth.blockscout.com/",
		"devnet":  "https://explorer.devnet.example",
		"anvil":   "",
	})

	tests := []struct {
		name    string
		network string
		want    string
	}{
		{name: "override", network: "mainnet", want: "https://eth.blockscout.com/tx/" + hash.Hex()},
		{name: "custom network", network: "devnet", want: "https://explorer.devnet.example/tx/" + hash.Hex()},
		{name: "known chain", network: "sepolia", want: "https://sepolia.etherscan.io/tx/" + hash.Hex()},
		{name: "no explorer", network: "anvil", want: ""},
		{name: "unknown", network: "nowhere", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.TxURL(tt.network, hash))
		})
	}

	addr := common.HexToAddress("0x3D33783D1fd1B6D849d299aD2E711f844fC16d2F")
	assert.Equal(t, "https://explorer.devnet.example/address/"+addr.Hex(), r.AddressURL("devnet", addr))
}
