package tokenapi

import (
	"context"

	"github.com/yourorg/tokenapi/internal/fetch"
	"github.com/yourorg/tokenapi/internal/validation"
	"github.com/yourorg/tokenapi/model"
	"github.com/yourorg/tokenapi/types"
)

// NFTs groups the NFT endpoints for EVM networks
type NFTs struct {
	c *core
}

type OwnershipsOptions struct {
	// TokenStandard defaults to any standard
	TokenStandard types.TokenStandard
	Network       types.NetworkID
	Pagination
}

// ActivitiesOptions filters the activity feed of a collection
type ActivitiesOptions struct {
	// Any matches either side of a transfer
	Any     string
	From    string
	To      string
	Network types.NetworkID
	TimeRange
	Ordering
	Pagination
}

// SalesOptions filters marketplace sales. All filters are optional.
type SalesOptions struct {
	Token     string
	TokenID   string
	Any       string
	Offerer   string
	Recipient string
	Network   types.NetworkID
	TimeRange
	Ordering
	Pagination
}

// Ownerships returns the NFTs held by address
func (n *NFTs) Ownerships(ctx context.Context, address string, opts OwnershipsOptions) ([]model.NFTOwnership, error) {
	network := n.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)

	invalid := validation.First(
		validation.EVMAddress("address", address),
		validation.Enum("token_standard", opts.TokenStandard),
		validation.Enum("network", network),
		pagingErr(limit, page),
	)

	q := query{}.
		str("address", address).
		str("token_standard", string(opts.TokenStandard)).
		page(string(network), limit, page)

	return list[model.NFTOwnership](ctx, n.c, fetch.NFTOwnerships, q.values(), invalid)
}

// Collection returns collection metadata, or nil when the service has none
func (n *NFTs) Collection(ctx context.Context, contract string, opts LookupOptions) (*model.NFTCollection, error) {
	network := n.c.evmNetwork(opts.Network)

	invalid := validation.First(
		validation.EVMAddress("contract", contract),
		validation.Enum("network", network),
	)

	q := query{}.str("contract", contract).str(fetch.KeyNetwork, string(network))
	return first[model.NFTCollection](ctx, n.c, fetch.NFTCollections, q.values(), invalid)
}

// Item returns a single token, or nil when the service has none
func (n *NFTs) Item(ctx context.Context, contract, tokenID string, opts LookupOptions) (*model.NFTItem, error) {
	network := n.c.evmNetwork(opts.Network)

	invalid := validation.First(
		validation.EVMAddress("contract", contract),
		validation.TokenID("token_id", tokenID),
		validation.Enum("network", network),
	)

	q := query{}.
		str("contract", contract).
		str("token_id", tokenID).
		str(fetch.KeyNetwork, string(network))

	return first[model.NFTItem](ctx, n.c, fetch.NFTItems, q.values(), invalid)
}

// Activities returns transfers, mints and burns of a collection
func (n *NFTs) Activities(ctx context.Context, contract string, opts ActivitiesOptions) ([]model.NFTActivity, error) {
	network := n.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)
	order := opts.Ordering.resolve()

	invalid := validation.First(
		validation.EVMAddress("contract", contract),
		validation.OptionalEVMAddress("any", opts.Any),
		validation.OptionalEVMAddress("from", opts.From),
		validation.OptionalEVMAddress("to", opts.To),
		validation.Enum("network", network),
		validation.TimeRange(opts.Start, opts.End),
		orderErr(order),
		pagingErr(limit, page),
	)

	q := query{}.
		str("contract", contract).
		str("any", opts.Any).
		str("from", opts.From).
		str("to", opts.To).
		timeRange(opts.TimeRange).
		order(order).
		page(string(network), limit, page)

	return list[model.NFTActivity](ctx, n.c, fetch.NFTActivities, q.values(), invalid)
}

// Holders returns the addresses holding tokens of a collection
func (n *NFTs) Holders(ctx context.Context, contract string, opts HoldersOptions) ([]model.NFTHolder, error) {
	network := n.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)

	invalid := validation.First(
		validation.EVMAddress("contract", contract),
		validation.Enum("network", network),
		pagingErr(limit, page),
	)

	q := query{}.str("contract", contract).page(string(network), limit, page)
	return list[model.NFTHolder](ctx, n.c, fetch.NFTHolders, q.values(), invalid)
}

// Sales returns marketplace sales
func (n *NFTs) Sales(ctx context.Context, opts SalesOptions) ([]model.NFTSale, error) {
	network := n.c.evmNetwork(opts.Network)
	limit, page := opts.Pagination.resolve(DefaultLimit)
	order := opts.Ordering.resolve()

	var tokenIDErr error
	if opts.TokenID != "" {
		tokenIDErr = validation.TokenID("token_id", opts.TokenID)
	}

	invalid := validation.First(
		validation.OptionalEVMAddress("token", opts.Token),
		tokenIDErr,
		validation.OptionalEVMAddress("any", opts.Any),
		validation.OptionalEVMAddress("offerer", opts.Offerer),
		validation.OptionalEVMAddress("recipient", opts.Recipient),
		validation.Enum("network", network),
		validation.TimeRange(opts.Start, opts.End),
		orderErr(order),
		pagingErr(limit, page),
	)

	q := query{}.
		str("token", opts.Token).
		str("token_id", opts.TokenID).
		str("any", opts.Any).
		str("offerer", opts.Offerer).
		str("recipient", opts.Recipient).
		timeRange(opts.TimeRange).
		order(order).
		page(string(network), limit, page)

	return list[model.NFTSale](ctx, n.c, fetch.NFTSales, q.values(), invalid)
}
