package tokenapi

import (
	"context"

	"github.com/yourorg/tokenapi/internal/fetch"
	"github.com/yourorg/tokenapi/internal/validation"
	"github.com/yourorg/tokenapi/model"
	"github.com/yourorg/tokenapi/types"
)

// SVM groups the endpoints for Solana
type SVM struct {
	c *core
}

// SVMBalancesOptions filters SPL token balances. Set at least one of
// TokenAccount or Mint to keep the result small.
type SVMBalancesOptions struct {
	TokenAccount string
	Mint         string
	Program      types.SolanaProgram
	Network      types.SolanaNetworkID
	Pagination
}

type SVMTransfersOptions struct {
	Signature   string
	Program     types.SolanaProgram
	Mint        string
	Authority   string
	Source      string
	Destination string
	Network     types.SolanaNetworkID
	TimeRange
	Ordering
	Pagination
}

// SVMSwapsOptions filters the swaps of one DEX program
type SVMSwapsOptions struct {
	AMM        string
	AMMPool    string
	User       string
	InputMint  string
	OutputMint string
	Signature  string
	Network    types.SolanaNetworkID
	TimeRange
	Ordering
	Pagination
}

func solanaNetwork(n types.SolanaNetworkID) types.SolanaNetworkID {
	if n == "" {
		return types.SolanaMainnet
	}
	return n
}

// Balances returns SPL token account balances
func (s *SVM) Balances(ctx context.Context, opts SVMBalancesOptions) ([]model.SolanaBalance, error) {
	network := solanaNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)

	invalid := validation.First(
		validation.OptionalSolanaAddress("token_account", opts.TokenAccount),
		validation.OptionalSolanaAddress("mint", opts.Mint),
		validation.OptionalEnum("program_id", opts.Program),
		validation.Enum("network", network),
		pagingErr(limit, page),
	)

	q := query{}.
		str("token_account", opts.TokenAccount).
		str("mint", opts.Mint).
		str("program_id", string(opts.Program)).
		page(string(network), limit, page)

	return list[model.SolanaBalance](ctx, s.c, fetch.SVMBalances, q.values(), invalid)
}

// Transfers returns SPL token transfers
func (s *SVM) Transfers(ctx context.Context, opts SVMTransfersOptions) ([]model.SolanaTransfer, error) {
	network := solanaNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)
	order := opts.Ordering.resolve()

	invalid := validation.First(
		validation.SolanaSignature("signature", opts.Signature),
		validation.OptionalEnum("program_id", opts.Program),
		validation.OptionalSolanaAddress("mint", opts.Mint),
		validation.OptionalSolanaAddress("authority", opts.Authority),
		validation.OptionalSolanaAddress("source", opts.Source),
		validation.OptionalSolanaAddress("destination", opts.Destination),
		validation.Enum("network", network),
		validation.TimeRange(opts.Start, opts.End),
		orderErr(order),
		pagingErr(limit, page),
	)

	q := query{}.
		str("signature", opts.Signature).
		str("program_id", string(opts.Program)).
		str("mint", opts.Mint).
		str("authority", opts.Authority).
		str("source", opts.Source).
		str("destination", opts.Destination).
		timeRange(opts.TimeRange).
		order(order).
		page(string(network), limit, page)

	return list[model.SolanaTransfer](ctx, s.c, fetch.SVMTransfers, q.values(), invalid)
}

// Swaps returns swaps executed by program. Amounts are raw base units.
func (s *SVM) Swaps(ctx context.Context, program types.SwapProgram, opts SVMSwapsOptions) ([]model.SolanaSwap, error) {
	network := solanaNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)
	order := opts.Ordering.resolve()

	invalid := validation.First(
		validation.Enum("program_id", program),
		validation.OptionalSolanaAddress("amm", opts.AMM),
		validation.OptionalSolanaAddress("amm_pool", opts.AMMPool),
		validation.OptionalSolanaAddress("user", opts.User),
		validation.OptionalSolanaAddress("input_mint", opts.InputMint),
		validation.OptionalSolanaAddress("output_mint", opts.OutputMint),
		validation.SolanaSignature("signature", opts.Signature),
		validation.Enum("network", network),
		validation.TimeRange(opts.Start, opts.End),
		orderErr(order),
		pagingErr(limit, page),
	)

	q := query{}.
		str("program_id", string(program)).
		str("amm", opts.AMM).
		str("amm_pool", opts.AMMPool).
		str("user", opts.User).
		str("input_mint", opts.InputMint).
		str("output_mint", opts.OutputMint).
		str("signature", opts.Signature).
		timeRange(opts.TimeRange).
		order(order).
		page(string(network), limit, page)

	return list[model.SolanaSwap](ctx, s.c, fetch.SVMSwaps, q.values(), invalid)
}
