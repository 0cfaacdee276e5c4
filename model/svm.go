package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// SolanaBalance is an SPL token account balance.
type SolanaBalance struct {
	BlockNum     uint64          `json:"block_num"`
	Datetime     string          `json:"datetime,omitempty"`
	Timestamp    int64           `json:"timestamp"`
	ProgramID    string          `json:"program_id"`
	TokenAccount string          `json:"token_account"`
	Mint         string          `json:"mint"`
	Amount       string          `json:"amount"`
	Value        decimal.Decimal `json:"value"`
	Decimals     int             `json:"decimals"`
	NetworkID    string          `json:"network_id,omitempty"`
}

// SolanaTransfer is an SPL token transfer.
type SolanaTransfer struct {
	BlockNum    uint64          `json:"block_num"`
	Datetime    string          `json:"datetime,omitempty"`
	Timestamp   int64           `json:"timestamp"`
	Signature   string          `json:"signature"`
	ProgramID   string          `json:"program_id"`
	Mint        string          `json:"mint"`
	Authority   string          `json:"authority"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Amount      string          `json:"amount"`
	Value       decimal.Decimal `json:"value"`
	Decimals    int             `json:"decimals,omitempty"`
	NetworkID   string          `json:"network_id,omitempty"`
}

// SolanaMint is a swap leg mint. The service sends either a bare address
// string or an object with symbol and decimals.
type SolanaMint struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals int    `json:"decimals,omitempty"`
}

func (m *SolanaMint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &m.Address)
	}
	type plain SolanaMint
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("solana mint: %w", err)
	}
	*m = SolanaMint(p)
	return nil
}

// SolanaSwap is a swap executed by a Solana DEX program. Input and output
// amounts are raw base units of the respective mint.
type SolanaSwap struct {
	BlockNum         uint64          `json:"block_num"`
	Datetime         string          `json:"datetime,omitempty"`
	Timestamp        int64           `json:"timestamp"`
	TransactionIndex int64           `json:"transaction_index,omitempty"`
	InstructionIndex int64           `json:"instruction_index,omitempty"`
	Signature        string          `json:"signature"`
	ProgramID        string          `json:"program_id"`
	ProgramName      string          `json:"program_name,omitempty"`
	User             string          `json:"user"`
	AMM              string          `json:"amm"`
	AMMName          string          `json:"amm_name,omitempty"`
	AMMPool          string          `json:"amm_pool,omitempty"`
	InputMint        SolanaMint      `json:"input_mint"`
	InputAmount      decimal.Decimal `json:"input_amount"`
	OutputMint       SolanaMint      `json:"output_mint"`
	OutputAmount     decimal.Decimal `json:"output_amount"`
	NetworkID        string          `json:"network_id,omitempty"`
}
