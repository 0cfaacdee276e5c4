package price

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/tokenapi"
	"github.com/yourorg/tokenapi/model"
	"github.com/yourorg/tokenapi/types"
)

// Token addresses used to price native assets against USDC
const (
	mainnetWETHUSDCPool = "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"
	mainnetWETH         = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"

	maticWPOLUSDCPool = "0xA374094527e1673A86dE625aa59517c5dE346d32"
	maticWPOL         = "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"

	solanaWSOLMint = "So11111111111111111111111111111111111111112"
	solanaUSDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// source turns recent trades into USD price samples
type source interface {
	samples(ctx context.Context, o *Oracle, trades int, since time.Time) ([]float64, error)
}

// bounds is the plausible USD range of a currency
type bounds struct {
	min, max float64
}

type currencyConfig struct {
	source source
	bounds bounds
}

var currencies = map[types.Currency]currencyConfig{
	types.CurrencyETH: {
		source: evmSource{
			network:       types.NetworkMainnet,
			pool:          mainnetWETHUSDCPool,
			token:         mainnetWETH,
			tokenDecimals: 18,
			quoteDecimals: 6,
		},
		bounds: bounds{min: 100, max: 100_000},
	},
	types.CurrencyPOL: {
		source: evmSource{
			network:       types.NetworkMatic,
			pool:          maticWPOLUSDCPool,
			token:         maticWPOL,
			tokenDecimals: 18,
			quoteDecimals: 6,
		},
		bounds: bounds{min: 0.01, max: 100},
	},
	types.CurrencySOL: {
		source: svmSource{
			program:       types.SwapRaydium,
			mint:          solanaWSOLMint,
			quoteMint:     solanaUSDCMint,
			mintDecimals:  9,
			quoteDecimals: 6,
		},
		bounds: bounds{min: 1, max: 10_000},
	},
}

// evmSource prices token from the swaps of a Uniswap v3 pool against a USD stablecoin
type evmSource struct {
	network       types.NetworkID
	pool          string
	token         string
	tokenDecimals int32
	quoteDecimals int32
}

func (s evmSource) samples(ctx context.Context, o *Oracle, trades int, since time.Time) ([]float64, error) {
	swaps, err := o.evm.Swaps(ctx, tokenapi.SwapsOptions{
		Pool:       s.pool,
		Protocol:   types.ProtocolUniswapV3,
		Network:    s.network,
		TimeRange:  tokenapi.TimeRange{Start: since},
		Pagination: tokenapi.Pagination{Limit: trades},
	})
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, len(swaps))
	for _, sw := range swaps {
		if p, ok := s.price(sw); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s evmSource) price(sw model.Swap) (float64, bool) {
	var (
		tokenAmt, quoteAmt string
		tokenDec, quoteDec int
	)
	switch {
	case strings.EqualFold(sw.Token0.Address, s.token):
		tokenAmt, quoteAmt = sw.Amount0, sw.Amount1
		tokenDec, quoteDec = sw.Token0.Decimals, sw.Token1.Decimals
	case strings.EqualFold(sw.Token1.Address, s.token):
		tokenAmt, quoteAmt = sw.Amount1, sw.Amount0
		tokenDec, quoteDec = sw.Token1.Decimals, sw.Token0.Decimals
	default:
		return 0, false
	}
	if tokenDec == 0 {
		tokenDec = int(s.tokenDecimals)
	}
	if quoteDec == 0 {
		quoteDec = int(s.quoteDecimals)
	}

	t, err := decimal.NewFromString(tokenAmt)
	if err != nil {
		return 0, false
	}
	q, err := decimal.NewFromString(quoteAmt)
	if err != nil {
		return 0, false
	}
	return ratio(q.Abs(), int32(quoteDec), t.Abs(), int32(tokenDec))
}

// svmSource prices mint from swaps of a Solana DEX program in both directions
type svmSource struct {
	program       types.SwapProgram
	mint          string
	quoteMint     string
	mintDecimals  int32
	quoteDecimals int32
}

func (s svmSource) samples(ctx context.Context, o *Oracle, trades int, since time.Time) ([]float64, error) {
	var sells, buys []model.SolanaSwap

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sells, err = o.svm.Swaps(gctx, s.program, s.options(s.mint, s.quoteMint, trades, since))
		return err
	})
	g.Go(func() error {
		var err error
		buys, err = o.svm.Swaps(gctx, s.program, s.options(s.quoteMint, s.mint, trades, since))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]float64, 0, len(sells)+len(buys))
	for _, sw := range append(sells, buys...) {
		if p, ok := s.price(sw); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s svmSource) options(in, out string, trades int, since time.Time) tokenapi.SVMSwapsOptions {
	return tokenapi.SVMSwapsOptions{
		InputMint:  in,
		OutputMint: out,
		TimeRange:  tokenapi.TimeRange{Start: since},
		Pagination: tokenapi.Pagination{Limit: trades},
	}
}

// price reads raw base unit amounts
func (s svmSource) price(sw model.SolanaSwap) (float64, bool) {
	switch {
	case sw.InputMint.Address == s.mint && sw.OutputMint.Address == s.quoteMint:
		return ratio(sw.OutputAmount.Abs(), s.quoteDecimals, sw.InputAmount.Abs(), s.mintDecimals)
	case sw.InputMint.Address == s.quoteMint && sw.OutputMint.Address == s.mint:
		return ratio(sw.InputAmount.Abs(), s.quoteDecimals, sw.OutputAmount.Abs(), s.mintDecimals)
	}
	return 0, false
}

// ratio is (quote / 10^quoteDec) / (token / 10^tokenDec)
func ratio(quote decimal.Decimal, quoteDec int32, token decimal.Decimal, tokenDec int32) (float64, bool) {
	if token.IsZero() || quote.IsZero() {
		return 0, false
	}
	p, _ := quote.Shift(-quoteDec).Div(token.Shift(-tokenDec)).Float64()
	return p, p > 0
}
