package model

import (
	"github.com/shopspring/decimal"

	"github.com/yourorg/tokenapi/types"
)

type NFTAttribute struct {
	TraitType   string `json:"trait_type"`
	Value       string `json:"value"`
	DisplayType string `json:"display_type,omitempty"`
}

// NFTOwnership is one token held by an address.
type NFTOwnership struct {
	TokenID       string `json:"token_id"`
	TokenStandard string `json:"token_standard"`
	Contract      string `json:"contract"`
	Owner         string `json:"owner"`
	NetworkID     string `json:"network_id,omitempty"`
	Symbol        string `json:"symbol,omitempty"`
	URI           string `json:"uri,omitempty"`
	Name          string `json:"name,omitempty"`
	Image         string `json:"image,omitempty"`
	Description   string `json:"description,omitempty"`
}

// NFTCollection is collection level metadata.
type NFTCollection struct {
	Contract          string          `json:"contract"`
	ContractCreation  string          `json:"contract_creation,omitempty"`
	ContractCreator   string          `json:"contract_creator,omitempty"`
	Name              string          `json:"name,omitempty"`
	Symbol            string          `json:"symbol,omitempty"`
	Owners            int64           `json:"owners"`
	TotalSupply       decimal.Decimal `json:"total_supply"`
	TotalUniqueSupply decimal.Decimal `json:"total_unique_supply"`
	TotalTransfers    int64           `json:"total_transfers"`
	NetworkID         string          `json:"network_id,omitempty"`
}

// NFTItem is a single token with its metadata.
type NFTItem struct {
	TokenID       string         `json:"token_id"`
	TokenStandard string         `json:"token_standard"`
	Contract      string         `json:"contract"`
	Owner         string         `json:"owner"`
	NetworkID     string         `json:"network_id,omitempty"`
	URI           string         `json:"uri,omitempty"`
	Name          string         `json:"name,omitempty"`
	Image         string         `json:"image,omitempty"`
	Description   string         `json:"description,omitempty"`
	Attributes    []NFTAttribute `json:"attributes,omitempty"`
}

// NFTActivity is a transfer, mint or burn of an NFT.
type NFTActivity struct {
	Type          string          `json:"@type"`
	BlockNum      uint64          `json:"block_num"`
	BlockHash     string          `json:"block_hash,omitempty"`
	Timestamp     string          `json:"timestamp"`
	TxHash        string          `json:"tx_hash"`
	Contract      string          `json:"contract"`
	Symbol        string          `json:"symbol,omitempty"`
	Name          string          `json:"name,omitempty"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	TokenID       string          `json:"token_id"`
	Amount        decimal.Decimal `json:"amount"`
	TransferType  string          `json:"transfer_type,omitempty"`
	TokenStandard string          `json:"token_standard,omitempty"`
}

// Kind returns the activity type, or "" when the service sent an unknown one
func (a NFTActivity) Kind() types.ActivityType {
	if k := types.ActivityType(a.Type); k.Valid() {
		return k
	}
	return ""
}

type NFTHolder struct {
	TokenStandard string          `json:"token_standard"`
	Address       string          `json:"address"`
	Quantity      int64           `json:"quantity"`
	UniqueTokens  int64           `json:"unique_tokens"`
	Percentage    decimal.Decimal `json:"percentage"`
	NetworkID     string          `json:"network_id,omitempty"`
}

// NFTSale is a marketplace sale.
type NFTSale struct {
	Timestamp    string          `json:"timestamp"`
	BlockNum     uint64          `json:"block_num"`
	TxHash       string          `json:"tx_hash"`
	Token        string          `json:"token"`
	TokenID      string          `json:"token_id"`
	Symbol       string          `json:"symbol,omitempty"`
	Name         string          `json:"name,omitempty"`
	Offerer      string          `json:"offerer"`
	Recipient    string          `json:"recipient"`
	SaleAmount   decimal.Decimal `json:"sale_amount"`
	SaleCurrency string          `json:"sale_currency"`
}
