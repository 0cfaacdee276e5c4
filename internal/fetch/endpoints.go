package fetch

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/yourorg/tokenapi/internal/validation"
)

// Query keys shared by most endpoints
const (
	KeyNetwork        = "network_id"
	KeyLimit          = "limit"
	KeyPage           = "page"
	KeyStartTime      = "startTime"
	KeyEndTime        = "endTime"
	KeyOrderBy        = "orderBy"
	KeyOrderDirection = "orderDirection"
	KeyInterval       = "interval"
)

var (
	paging   = []string{KeyNetwork, KeyLimit, KeyPage}
	window   = []string{KeyStartTime, KeyEndTime}
	ordering = []string{KeyOrderBy, KeyOrderDirection}
)

// Endpoint describes one remote operation: its path and the query keys it accepts.
type Endpoint struct {
	Name     string
	Path     string
	Required []string
	Optional []string
}

func keys(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// EVM endpoints
var (
	EVMBalances = Endpoint{
		Name:     "evm_balances",
		Path:     "/balances/evm",
		Required: []string{"address"},
		Optional: keys([]string{"contract"}, paging),
	}
	EVMHistoricalBalances = Endpoint{
		Name:     "evm_historical_balances",
		Path:     "/historical/balances/evm",
		Required: []string{"address"},
		Optional: keys([]string{"contracts", KeyInterval}, window, paging),
	}
	EVMTokens = Endpoint{
		Name:     "evm_tokens",
		Path:     "/tokens/evm",
		Required: []string{"contract"},
		Optional: []string{KeyNetwork},
	}
	EVMHolders = Endpoint{
		Name:     "evm_holders",
		Path:     "/holders/evm",
		Required: []string{"contract"},
		Optional: paging,
	}
	EVMTransfers = Endpoint{
		Name:     "evm_transfers",
		Path:     "/transfers/evm",
		Optional: keys([]string{"from", "to", "contract", "transaction_id"}, window, ordering, paging),
	}
	EVMSwaps = Endpoint{
		Name:     "evm_swaps",
		Path:     "/swaps/evm",
		Optional: keys([]string{"pool", "caller", "sender", "recipient", "protocol", "transaction_id"}, window, ordering, paging),
	}
	EVMPools = Endpoint{
		Name:     "evm_pools",
		Path:     "/pools/evm",
		Optional: keys([]string{"pool", "factory", "token", "symbol", "protocol"}, paging),
	}
	EVMPriceOHLC = Endpoint{
		Name:     "evm_ohlc_prices",
		Path:     "/ohlc/prices/evm",
		Required: []string{"token"},
		Optional: keys([]string{KeyInterval}, window, paging),
	}
	EVMPoolOHLC = Endpoint{
		Name:     "evm_ohlc_pools",
		Path:     "/ohlc/pools/evm",
		Required: []string{"pool"},
		Optional: keys([]string{KeyInterval}, window, paging),
	}
)

// NFT endpoints
var (
	NFTOwnerships = Endpoint{
		Name:     "nft_ownerships",
		Path:     "/nft/ownerships/evm",
		Required: []string{"address"},
		Optional: keys([]string{"token_standard"}, paging),
	}
	NFTCollections = Endpoint{
		Name:     "nft_collections",
		Path:     "/nft/collections/evm",
		Required: []string{"contract"},
		Optional: []string{KeyNetwork},
	}
	NFTItems = Endpoint{
		Name:     "nft_items",
		Path:     "/nft/items/evm",
		Required: []string{"contract", "token_id"},
		Optional: []string{KeyNetwork},
	}
	NFTActivities = Endpoint{
		Name:     "nft_activities",
		Path:     "/nft/activities/evm",
		Required: []string{"contract"},
		Optional: keys([]string{"any", "from", "to"}, window, ordering, paging),
	}
	NFTHolders = Endpoint{
		Name:     "nft_holders",
		Path:     "/nft/holders/evm",
		Required: []string{"contract"},
		Optional: paging,
	}
	NFTSales = Endpoint{
		Name:     "nft_sales",
		Path:     "/nft/sales/evm",
		Optional: keys([]string{"token", "token_id", "any", "offerer", "recipient"}, window, ordering, paging),
	}
)

// SVM endpoints
var (
	SVMBalances = Endpoint{
		Name:     "svm_balances",
		Path:     "/balances/svm",
		Optional: keys([]string{"token_account", "mint", "program_id"}, paging),
	}
	SVMTransfers = Endpoint{
		Name:     "svm_transfers",
		Path:     "/transfers/svm",
		Optional: keys([]string{"signature", "program_id", "mint", "authority", "source", "destination"}, window, ordering, paging),
	}
	SVMSwaps = Endpoint{
		Name:     "svm_swaps",
		Path:     "/swaps/svm",
		Required: []string{"program_id"},
		Optional: keys([]string{"amm", "amm_pool", "user", "input_mint", "output_mint", "signature"}, window, ordering, paging),
	}
)

// Monitoring endpoints
var (
	Health   = Endpoint{Name: "health", Path: "/health"}
	Version  = Endpoint{Name: "version", Path: "/version"}
	Networks = Endpoint{Name: "networks", Path: "/networks"}
)

// Accepts reports whether key is declared by the endpoint
func (e Endpoint) Accepts(key string) bool {
	return slices.Contains(e.Required, key) || slices.Contains(e.Optional, key)
}

// Query checks params against the descriptor and returns the encoded query.
// A missing required key or an undeclared key is an input error.
func (e Endpoint) Query(params url.Values) (string, error) {
	for _, k := range e.Required {
		if params.Get(k) == "" {
			return "", &validation.Error{Field: k, Value: "", Reason: "required by " + e.Name}
		}
	}
	for k := range params {
		if !e.Accepts(k) {
			return "", &validation.Error{Field: k, Value: params.Get(k), Reason: fmt.Sprintf("not accepted by %s", e.Name)}
		}
	}
	return params.Encode(), nil
}

// URL joins the base URL, path and query
func (e Endpoint) URL(baseURL string, params url.Values) (string, error) {
	q, err := e.Query(params)
	if err != nil {
		return "", err
	}
	u := baseURL + e.Path
	if q != "" {
		u += "?" + q
	}
	return u, nil
}
