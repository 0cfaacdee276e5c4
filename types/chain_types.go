// Package types contains the closed enumerations accepted by the Token API.
package types

import (
	"slices"
	"strings"
)

// NetworkID identifies an EVM network supported by the Token API
type NetworkID string

// Supported EVM networks
const (
	NetworkArbitrumOne NetworkID = "arbitrum-one"
	NetworkAvalanche   NetworkID = "avalanche"
	NetworkBase        NetworkID = "base"
	NetworkBSC         NetworkID = "bsc"
	NetworkMainnet     NetworkID = "mainnet"
	NetworkMatic       NetworkID = "matic"
	NetworkOptimism    NetworkID = "optimism"
	NetworkUnichain    NetworkID = "unichain"
)

var networkIDs = []NetworkID{
	NetworkArbitrumOne,
	NetworkAvalanche,
	NetworkBase,
	NetworkBSC,
	NetworkMainnet,
	NetworkMatic,
	NetworkOptimism,
	NetworkUnichain,
}

// NetworkIDs returns every supported EVM network
func NetworkIDs() []NetworkID { return slices.Clone(networkIDs) }

// Valid reports whether n is a supported EVM network
func (n NetworkID) Valid() bool { return slices.Contains(networkIDs, n) }

func (n NetworkID) String() string { return string(n) }

// SolanaNetworkID identifies an SVM network
type SolanaNetworkID string

const SolanaMainnet SolanaNetworkID = "solana"

// SolanaNetworkIDs returns every supported SVM network
func SolanaNetworkIDs() []SolanaNetworkID { return []SolanaNetworkID{SolanaMainnet} }

func (n SolanaNetworkID) Valid() bool { return n == SolanaMainnet }

func (n SolanaNetworkID) String() string { return string(n) }

// TokenStandard filters NFT ownerships. The zero value matches any standard.
type TokenStandard string

const (
	TokenStandardAny     TokenStandard = ""
	TokenStandardERC721  TokenStandard = "ERC721"
	TokenStandardERC1155 TokenStandard = "ERC1155"
)

func (s TokenStandard) Valid() bool {
	switch s {
	case TokenStandardAny, TokenStandardERC721, TokenStandardERC1155:
		return true
	}
	return false
}

// ActivityType is the kind of an NFT activity record
type ActivityType string

const (
	ActivityTransfer ActivityType = "TRANSFER"
	ActivityMint     ActivityType = "MINT"
	ActivityBurn     ActivityType = "BURN"
)

func (a ActivityType) Valid() bool {
	switch a {
	case ActivityTransfer, ActivityMint, ActivityBurn:
		return true
	}
	return false
}

// OrderDirection sorts list endpoints
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

func (d OrderDirection) Valid() bool { return d == OrderAsc || d == OrderDesc }

// OrderBy selects the sort field of list endpoints
type OrderBy string

const (
	OrderByTimestamp OrderBy = "timestamp"
	OrderByValue     OrderBy = "value"
)

func (o OrderBy) Valid() bool { return o == OrderByTimestamp || o == OrderByValue }

// Interval is the bucket width of OHLC and historical balance series
type Interval string

const (
	Interval1h Interval = "1h"
	Interval4h Interval = "4h"
	Interval1d Interval = "1d"
	Interval1w Interval = "1w"
)

var intervals = []Interval{Interval1h, Interval4h, Interval1d, Interval1w}

// Intervals returns every supported interval
func Intervals() []Interval { return slices.Clone(intervals) }

func (i Interval) Valid() bool { return slices.Contains(intervals, i) }

// Protocol identifies an EVM DEX protocol
type Protocol string

const (
	ProtocolUniswapV2 Protocol = "uniswap_v2"
	ProtocolUniswapV3 Protocol = "uniswap_v3"
)

// Protocols returns every supported DEX protocol
func Protocols() []Protocol { return []Protocol{ProtocolUniswapV2, ProtocolUniswapV3} }

func (p Protocol) Valid() bool { return p == ProtocolUniswapV2 || p == ProtocolUniswapV3 }

// SolanaProgram is an SPL token program id
type SolanaProgram string

const (
	ProgramToken2022 SolanaProgram = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	ProgramToken     SolanaProgram = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

func (p SolanaProgram) Valid() bool { return p == ProgramToken2022 || p == ProgramToken }

// SwapProgram is a Solana DEX program id
type SwapProgram string

const (
	SwapRaydium     SwapProgram = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	SwapPumpFunCore SwapProgram = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	SwapPumpFunAMM  SwapProgram = "pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA"
	SwapJupiterV4   SwapProgram = "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB"
	SwapJupiterV6   SwapProgram = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
)

var swapPrograms = []SwapProgram{
	SwapRaydium,
	SwapPumpFunCore,
	SwapPumpFunAMM,
	SwapJupiterV4,
	SwapJupiterV6,
}

// SwapPrograms returns every supported Solana swap program
func SwapPrograms() []SwapProgram { return slices.Clone(swapPrograms) }

func (p SwapProgram) Valid() bool { return slices.Contains(swapPrograms, p) }

// Currency is a native asset the price oracle can quote in USD
type Currency string

const (
	CurrencyETH Currency = "ETH"
	CurrencySOL Currency = "SOL"
	CurrencyPOL Currency = "POL"
)

// Currencies returns every currency the oracle supports
func Currencies() []Currency { return []Currency{CurrencyETH, CurrencySOL, CurrencyPOL} }

func (c Currency) Valid() bool {
	return c == CurrencyETH || c == CurrencySOL || c == CurrencyPOL
}

// ParseCurrency matches s against the supported currencies ignoring case
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}
