// Package model defines the records returned by the Token API.
//
// Raw token amounts are kept as strings exactly as the service sends them.
// Prices and converted values are decimals so no float rounding happens on decode.
package model

import (
	"github.com/shopspring/decimal"
)

// Balance is an ERC-20 or native balance held by an EVM address.
type Balance struct {
	BlockNum  uint64              `json:"block_num"`
	Datetime  string              `json:"datetime,omitempty"`
	Contract  string              `json:"contract"`
	Amount    string              `json:"amount"`
	Value     decimal.Decimal     `json:"value"`
	NetworkID string              `json:"network_id,omitempty"`
	Symbol    string              `json:"symbol,omitempty"`
	Name      string              `json:"name,omitempty"`
	Decimals  int                 `json:"decimals,omitempty"`
	PriceUSD  decimal.NullDecimal `json:"price_usd"`
	ValueUSD  decimal.NullDecimal `json:"value_usd"`
	LowLiquid bool                `json:"low_liquidity,omitempty"`
}

// AmountDecimal parses the raw amount.
func (b Balance) AmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(b.Amount)
}

// HistoricalBalance is one OHLC bucket of an address balance.
type HistoricalBalance struct {
	Datetime string          `json:"datetime"`
	Contract string          `json:"contract"`
	Name     string          `json:"name,omitempty"`
	Symbol   string          `json:"symbol,omitempty"`
	Decimals string          `json:"decimals,omitempty"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
}

// Transfer is an EVM token transfer event.
type Transfer struct {
	BlockNum      uint64          `json:"block_num"`
	Datetime      string          `json:"datetime,omitempty"`
	Timestamp     int64           `json:"timestamp"`
	TransactionID string          `json:"transaction_id"`
	Contract      string          `json:"contract"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Amount        string          `json:"amount,omitempty"`
	Value         decimal.Decimal `json:"value"`
	Decimals      int             `json:"decimals,omitempty"`
	Symbol        string          `json:"symbol,omitempty"`
	NetworkID     string          `json:"network_id,omitempty"`
}

// TokenIcon points to the token artwork.
type TokenIcon struct {
	Web3Icon string `json:"web3icon"`
}

// Token is ERC-20 contract metadata.
type Token struct {
	BlockNum          uint64              `json:"block_num"`
	Datetime          string              `json:"datetime,omitempty"`
	Contract          string              `json:"contract"`
	CirculatingSupply decimal.Decimal     `json:"circulating_supply"`
	Holders           int64               `json:"holders"`
	NetworkID         string              `json:"network_id,omitempty"`
	Icon              *TokenIcon          `json:"icon,omitempty"`
	Symbol            string              `json:"symbol,omitempty"`
	Name              string              `json:"name,omitempty"`
	Decimals          int                 `json:"decimals,omitempty"`
	PriceUSD          decimal.NullDecimal `json:"price_usd"`
	MarketCap         decimal.NullDecimal `json:"market_cap"`
	LowLiquid         bool                `json:"low_liquidity,omitempty"`
}

// TokenHolder is one holder of an ERC-20 contract.
type TokenHolder struct {
	BlockNum  uint64              `json:"block_num"`
	Datetime  string              `json:"datetime,omitempty"`
	Address   string              `json:"address"`
	Amount    string              `json:"amount"`
	Value     decimal.Decimal     `json:"value"`
	NetworkID string              `json:"network_id,omitempty"`
	Symbol    string              `json:"symbol,omitempty"`
	Decimals  int                 `json:"decimals,omitempty"`
	PriceUSD  decimal.NullDecimal `json:"price_usd"`
	ValueUSD  decimal.NullDecimal `json:"value_usd"`
	LowLiquid bool                `json:"low_liquidity,omitempty"`
}

// SwapToken describes one side of a pool.
type SwapToken struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Swap is a DEX swap on an EVM network.
type Swap struct {
	BlockNum      uint64          `json:"block_num"`
	Datetime      string          `json:"datetime,omitempty"`
	Timestamp     int64           `json:"timestamp"`
	NetworkID     string          `json:"network_id,omitempty"`
	TransactionID string          `json:"transaction_id"`
	Caller        string          `json:"caller"`
	Sender        string          `json:"sender"`
	Recipient     string          `json:"recipient,omitempty"`
	Factory       string          `json:"factory"`
	Pool          string          `json:"pool"`
	Token0        SwapToken       `json:"token0"`
	Token1        SwapToken       `json:"token1"`
	Amount0       string          `json:"amount0"`
	Amount1       string          `json:"amount1"`
	Price0        decimal.Decimal `json:"price0"`
	Price1        decimal.Decimal `json:"price1"`
	Value0        decimal.Decimal `json:"value0"`
	Value1        decimal.Decimal `json:"value1"`
	Fee           string          `json:"fee,omitempty"`
	Protocol      string          `json:"protocol"`
}

// Pool is a DEX liquidity pool.
type Pool struct {
	BlockNum      uint64          `json:"block_num"`
	Datetime      string          `json:"datetime,omitempty"`
	NetworkID     string          `json:"network_id,omitempty"`
	TransactionID string          `json:"transaction_id"`
	Factory       string          `json:"factory"`
	Pool          string          `json:"pool"`
	Token0        SwapToken       `json:"token0"`
	Token1        SwapToken       `json:"token1"`
	Fee           decimal.Decimal `json:"fee"`
	Protocol      string          `json:"protocol"`
}

// OHLC is one candle of a token or pool price series.
type OHLC struct {
	Datetime     string          `json:"datetime"`
	Ticker       string          `json:"ticker,omitempty"`
	Open         decimal.Decimal `json:"open"`
	High         decimal.Decimal `json:"high"`
	Low          decimal.Decimal `json:"low"`
	Close        decimal.Decimal `json:"close"`
	Volume       decimal.Decimal `json:"volume"`
	UAW          int64           `json:"uaw"`
	Transactions int64           `json:"transactions"`
}

// Statistics is the query cost block some responses carry.
type Statistics struct {
	Elapsed   float64 `json:"elapsed"`
	RowsRead  float64 `json:"rows_read"`
	BytesRead float64 `json:"bytes_read"`
}
