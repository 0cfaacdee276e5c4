package price

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yourorg/tokenapi/model"
	"github.com/yourorg/tokenapi/types"
)

func TestEVMSource_Price(t *testing.T) {
	src := currencies[types.CurrencyETH].source.(evmSource)
	weth := model.SwapToken{Address: mainnetWETH, Symbol: "WETH", Decimals: 18}
	usdc := model.SwapToken{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Decimals: 6}

	tests := []struct {
		name string
		swap model.Swap
		want float64
		ok   bool
	}{
		{
			name: "token is token1",
			swap: model.Swap{Token0: usdc, Token1: weth, Amount0: "-3500000000", Amount1: "1000000000000000000"},
			want: 3500, ok: true,
		},
		{
			name: "token is token0",
			swap: model.Swap{Token0: weth, Token1: usdc, Amount0: "-500000000000000000", Amount1: "1750000000"},
			want: 3500, ok: true,
		},
		{
			name: "decimals missing from record",
			swap: model.Swap{Token0: model.SwapToken{Address: "0xusdc"}, Token1: model.SwapToken{Address: mainnetWETH}, Amount0: "3500000000", Amount1: "-1000000000000000000"},
			want: 3500, ok: true,
		},
		{
			name: "other pair",
			swap: model.Swap{Token0: usdc, Token1: model.SwapToken{Address: "0xdead"}, Amount0: "1", Amount1: "1"},
		},
		{
			name: "zero amount",
			swap: model.Swap{Token0: usdc, Token1: weth, Amount0: "0", Amount1: "1000000000000000000"},
		},
		{
			name: "garbage amount",
			swap: model.Swap{Token0: usdc, Token1: weth, Amount0: "lots", Amount1: "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := src.price(tt.swap)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestSVMSource_Price(t *testing.T) {
	src := currencies[types.CurrencySOL].source.(svmSource)

	sell := model.SolanaSwap{
		InputMint:    model.SolanaMint{Address: solanaWSOLMint},
		InputAmount:  decimal.New(2, 9),
		OutputMint:   model.SolanaMint{Address: solanaUSDCMint},
		OutputAmount: decimal.New(300, 6),
	}
	p, ok := src.price(sell)
	assert.True(t, ok)
	assert.InDelta(t, 150, p, 1e-9)

	buy := model.SolanaSwap{
		InputMint:    model.SolanaMint{Address: solanaUSDCMint},
		InputAmount:  decimal.New(75, 6),
		OutputMint:   model.SolanaMint{Address: solanaWSOLMint},
		OutputAmount: decimal.New(5, 8),
	}
	p, ok = src.price(buy)
	assert.True(t, ok)
	assert.InDelta(t, 150, p, 1e-9)

	_, ok = src.price(model.SolanaSwap{
		InputMint:    model.SolanaMint{Address: solanaWSOLMint},
		InputAmount:  decimal.New(1, 9),
		OutputMint:   model.SolanaMint{Address: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"},
		OutputAmount: decimal.New(1, 12),
	})
	assert.False(t, ok)
}

func TestAttemptParams(t *testing.T) {
	for attempt, want := range map[int][2]int{1: {100, 15}, 2: {200, 30}, 3: {400, 60}} {
		trades, window := attemptParams(attempt)
		assert.Equal(t, want[0], trades)
		assert.Equal(t, want[1], int(window.Minutes()))
	}
}
