package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/tokenapi/types"
)

func TestBalance_PreservesAmount(t *testing.T) {
	body := `{"block_num":21000000,"contract":"0xA","amount":"123456789012345678901234567890","value":1.5,"price_usd":null,"network_id":"mainnet"}`

	var b Balance
	require.NoError(t, json.Unmarshal([]byte(body), &b))

	assert.Equal(t, "123456789012345678901234567890", b.Amount)
	assert.True(t, b.Value.Equal(decimal.RequireFromString("1.5")))
	assert.False(t, b.PriceUSD.Valid)

	amount, err := b.AmountDecimal()
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", amount.String())
}

func TestSolanaMint_StringOrObject(t *testing.T) {
	tests := []struct {
		name string
		body string
		want SolanaMint
	}{
		{name: "string", body: `"So11111111111111111111111111111111111111112"`, want: SolanaMint{Address: "So11111111111111111111111111111111111111112"}},
		{name: "object", body: `{"address":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","symbol":"USDC","decimals":6}`, want: SolanaMint{Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Symbol: "USDC", Decimals: 6}},
		{name: "null", body: `null`, want: SolanaMint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m SolanaMint
			require.NoError(t, json.Unmarshal([]byte(tt.body), &m))
			assert.Equal(t, tt.want, m)
		})
	}

	var m SolanaMint
	assert.Error(t, json.Unmarshal([]byte(`42`), &m))
}

func TestSolanaSwap_Decode(t *testing.T) {
	body := `{
		"block_num": 300000000,
		"timestamp": 1700000000,
		"signature": "sig",
		"program_id": "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8",
		"user": "user",
		"amm": "amm",
		"input_mint": "So11111111111111111111111111111111111111112",
		"input_amount": 1000000000,
		"output_mint": {"address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "symbol": "USDC", "decimals": 6},
		"output_amount": 150250000
	}`

	var s SolanaSwap
	require.NoError(t, json.Unmarshal([]byte(body), &s))

	assert.Equal(t, "So11111111111111111111111111111111111111112", s.InputMint.Address)
	assert.Equal(t, "USDC", s.OutputMint.Symbol)
	assert.Equal(t, "1000000000", s.InputAmount.String())
	assert.Equal(t, "150250000", s.OutputAmount.String())
}

func TestNFTActivity_Fields(t *testing.T) {
	body := `{"@type":"MINT","block_num":1,"timestamp":"2024-01-01 00:00:00","tx_hash":"0x1","contract":"0xC","from":"0x0","to":"0xB","token_id":"7","amount":1}`

	var a NFTActivity
	require.NoError(t, json.Unmarshal([]byte(body), &a))

	assert.Equal(t, types.ActivityMint, a.Kind())
	assert.Equal(t, "0x0", a.From)
	assert.Equal(t, "7", a.TokenID)

	a.Type = "AIRDROP"
	assert.Equal(t, types.ActivityType(""), a.Kind())
}

func TestToken_CirculatingSupplyStringOrNumber(t *testing.T) {
	var fromString, fromNumber Token
	require.NoError(t, json.Unmarshal([]byte(`{"contract":"0xA","circulating_supply":"1000.5"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"contract":"0xA","circulating_supply":1000.5}`), &fromNumber))

	assert.True(t, fromString.CirculatingSupply.Equal(fromNumber.CirculatingSupply))
}
