package tokenapi

import (
	"context"
	"strings"
	"time"

	"github.com/yourorg/tokenapi/internal/fetch"
	"github.com/yourorg/tokenapi/internal/validation"
	"github.com/yourorg/tokenapi/model"
	"github.com/yourorg/tokenapi/types"
)

// EVM groups the endpoints for EVM networks
type EVM struct {
	NFTs *NFTs

	c *core
}

// BalancesOptions filters EVM balances
type BalancesOptions struct {
	// Contract restricts the result to one token
	Contract string
	Network  types.NetworkID
	Pagination
}

// HistoricalBalancesOptions filters balance history
type HistoricalBalancesOptions struct {
	Contracts []string
	// Interval defaults to 1h
	Interval types.Interval
	Network  types.NetworkID
	TimeRange
	Pagination
}

// LookupOptions selects the network of a single-record lookup
type LookupOptions struct {
	Network types.NetworkID
}

// HoldersOptions pages through the holders of a token or NFT collection
type HoldersOptions struct {
	Network types.NetworkID
	Pagination
}

// TransfersOptions filters ERC-20 transfers. All filters are optional.
type TransfersOptions struct {
	From          string
	To            string
	Contract      string
	TransactionID string
	Network       types.NetworkID
	TimeRange
	Ordering
	Pagination
}

// SwapsOptions filters DEX swaps. All filters are optional.
type SwapsOptions struct {
	Pool          string
	Caller        string
	Sender        string
	Recipient     string
	Protocol      types.Protocol
	TransactionID string
	Network       types.NetworkID
	TimeRange
	Ordering
	Pagination
}

// PoolsOptions filters liquidity pools. All filters are optional.
type PoolsOptions struct {
	Pool     string
	Factory  string
	Token    string
	Symbol   string
	Protocol types.Protocol
	Network  types.NetworkID
	Pagination
}

// HistoryOptions selects an OHLC series. Without TimeRange.Start the series
// starts Days days before now. Days defaults to 1 and Limit to 24.
type HistoryOptions struct {
	Interval types.Interval
	Days     int
	Network  types.NetworkID
	TimeRange
	Pagination
}

func (c *core) evmNetwork(n types.NetworkID) types.NetworkID {
	if n == "" {
		return c.network
	}
	return n
}

// Balances returns the token balances held by address
func (e *EVM) Balances(ctx context.Context, address string, opts BalancesOptions) ([]model.Balance, error) {
	network := e.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)

	invalid := validation.First(
		validation.EVMAddress("address", address),
		validation.OptionalEVMAddress("contract", opts.Contract),
		validation.Enum("network", network),
		pagingErr(limit, page),
	)

	q := query{}.
		str("address", address).
		str("contract", opts.Contract).
		page(string(network), limit, page)

	return list[model.Balance](ctx, e.c, fetch.EVMBalances, q.values(), invalid)
}

// HistoricalBalances returns OHLC buckets of the balances held by address
func (e *EVM) HistoricalBalances(ctx context.Context, address string, opts HistoricalBalancesOptions) ([]model.HistoricalBalance, error) {
	network := e.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)
	interval := opts.Interval
	if interval == "" {
		interval = types.Interval1h
	}

	errs := []error{
		validation.EVMAddress("address", address),
		validation.Enum("interval", interval),
		validation.Enum("network", network),
		validation.TimeRange(opts.Start, opts.End),
		pagingErr(limit, page),
	}
	for _, contract := range opts.Contracts {
		errs = append(errs, validation.EVMAddress("contracts", contract))
	}

	q := query{}.
		str("address", address).
		str("contracts", strings.Join(opts.Contracts, ",")).
		str(fetch.KeyInterval, string(interval)).
		timeRange(opts.TimeRange).
		page(string(network), limit, page)

	return list[model.HistoricalBalance](ctx, e.c, fetch.EVMHistoricalBalances, q.values(), validation.First(errs...))
}

// TokenInfo returns contract metadata, or nil when the service has none
func (e *EVM) TokenInfo(ctx context.Context, contract string, opts LookupOptions) (*model.Token, error) {
	network := e.c.evmNetwork(opts.Network)

	invalid := validation.First(
		validation.EVMAddress("contract", contract),
		validation.Enum("network", network),
	)

	q := query{}.str("contract", contract).str(fetch.KeyNetwork, string(network))
	return first[model.Token](ctx, e.c, fetch.EVMTokens, q.values(), invalid)
}

// TokenHolders returns the largest holders of an ERC-20 contract
func (e *EVM) TokenHolders(ctx context.Context, contract string, opts HoldersOptions) ([]model.TokenHolder, error) {
	network := e.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)

	invalid := validation.First(
		validation.EVMAddress("contract", contract),
		validation.Enum("network", network),
		pagingErr(limit, page),
	)

	q := query{}.str("contract", contract).page(string(network), limit, page)
	return list[model.TokenHolder](ctx, e.c, fetch.EVMHolders, q.values(), invalid)
}

// Transfers returns ERC-20 transfer events
func (e *EVM) Transfers(ctx context.Context, opts TransfersOptions) ([]model.Transfer, error) {
	network := e.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)
	order := opts.Ordering.resolve()

	invalid := validation.First(
		validation.OptionalEVMAddress("from", opts.From),
		validation.OptionalEVMAddress("to", opts.To),
		validation.OptionalEVMAddress("contract", opts.Contract),
		validation.TxHash("transaction_id", opts.TransactionID),
		validation.Enum("network", network),
		validation.TimeRange(opts.Start, opts.End),
		orderErr(order),
		pagingErr(limit, page),
	)

	q := query{}.
		str("from", opts.From).
		str("to", opts.To).
		str("contract", opts.Contract).
		str("transaction_id", opts.TransactionID).
		timeRange(opts.TimeRange).
		order(order).
		page(string(network), limit, page)

	return list[model.Transfer](ctx, e.c, fetch.EVMTransfers, q.values(), invalid)
}

// Swaps returns DEX swaps
func (e *EVM) Swaps(ctx context.Context, opts SwapsOptions) ([]model.Swap, error) {
	network := e.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)
	order := opts.Ordering.resolve()

	invalid := validation.First(
		validation.OptionalEVMAddress("pool", opts.Pool),
		validation.OptionalEVMAddress("caller", opts.Caller),
		validation.OptionalEVMAddress("sender", opts.Sender),
		validation.OptionalEVMAddress("recipient", opts.Recipient),
		validation.OptionalEnum("protocol", opts.Protocol),
		validation.TxHash("transaction_id", opts.TransactionID),
		validation.Enum("network", network),
		validation.TimeRange(opts.Start, opts.End),
		orderErr(order),
		pagingErr(limit, page),
	)

	q := query{}.
		str("pool", opts.Pool).
		str("caller", opts.Caller).
		str("sender", opts.Sender).
		str("recipient", opts.Recipient).
		str("protocol", string(opts.Protocol)).
		str("transaction_id", opts.TransactionID).
		timeRange(opts.TimeRange).
		order(order).
		page(string(network), limit, page)

	return list[model.Swap](ctx, e.c, fetch.EVMSwaps, q.values(), invalid)
}

// Pools returns DEX liquidity pools
func (e *EVM) Pools(ctx context.Context, opts PoolsOptions) ([]model.Pool, error) {
	network := e.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)

	invalid := validation.First(
		validation.OptionalEVMAddress("pool", opts.Pool),
		validation.OptionalEVMAddress("factory", opts.Factory),
		validation.OptionalEVMAddress("token", opts.Token),
		validation.OptionalEnum("protocol", opts.Protocol),
		validation.Enum("network", network),
		pagingErr(limit, page),
	)

	q := query{}.
		str("pool", opts.Pool).
		str("factory", opts.Factory).
		str("token", opts.Token).
		str("symbol", opts.Symbol).
		str("protocol", string(opts.Protocol)).
		page(string(network), limit, page)

	return list[model.Pool](ctx, e.c, fetch.EVMPools, q.values(), invalid)
}

// PriceHistory returns OHLC candles of a token's USD price
func (e *EVM) PriceHistory(ctx context.Context, token string, opts HistoryOptions) ([]model.OHLC, error) {
	return e.history(ctx, fetch.EVMPriceOHLC, "token", token, opts)
}

// PoolHistory returns OHLC candles of a pool's price
func (e *EVM) PoolHistory(ctx context.Context, pool string, opts HistoryOptions) ([]model.OHLC, error) {
	return e.history(ctx, fetch.EVMPoolOHLC, "pool", pool, opts)
}

func (e *EVM) history(ctx context.Context, ep fetch.Endpoint, key, address string, opts HistoryOptions) ([]model.OHLC, error) {
	network := e.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultHistoryLimit)
	interval := opts.Interval
	if interval == "" {
		interval = types.Interval1h
	}
	days := opts.Days
	if days == 0 {
		days = DefaultHistoryDays
	}

	// Without a start the window spans days back from End, or from now
	window := opts.TimeRange
	if window.Start.IsZero() {
		end := window.End
		if end.IsZero() {
			end = e.c.now()
		}
		window.Start = end.Add(-time.Duration(days) * 24 * time.Hour)
	}

	invalid := validation.First(
		validation.EVMAddress(key, address),
		validation.Enum("interval", interval),
		validation.Positive("days", days),
		validation.Enum("network", network),
		validation.TimeRange(window.Start, window.End),
		pagingErr(limit, page),
	)

	q := query{}.
		str(key, address).
		str(fetch.KeyInterval, string(interval)).
		timeRange(window).
		page(string(network), limit, page)

	return list[model.OHLC](ctx, e.c, ep, q.values(), invalid)
}
