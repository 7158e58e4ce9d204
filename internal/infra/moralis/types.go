package moralis

import "encoding/json"

// metadataItem is one entry of the /erc20/metadata response. Decimals
// arrives as a JSON string on some chains and a number on others.
type metadataItem struct {
	Name     string      `json:"name"`
	Symbol   string      `json:"symbol"`
	Decimals json.Number `json:"decimals"`
}

// priceResponse is the /erc20/{address}/price response.
type priceResponse struct {
	USDPrice json.Number `json:"usdPrice"`
}

// balanceItem is one entry of the /{wallet}/erc20 response.
type balanceItem struct {
	TokenAddress string `json:"token_address"`
	Balance      string `json:"balance"`
}

// transferItem is one ERC-20 transfer from the wallet transfers endpoint.
// Index-ish fields use json.Number so both string and numeric encodings
// survive decoding.
type transferItem struct {
	ToAddress        string      `json:"to_address"`
	Value            string      `json:"value"`
	TransactionHash  string      `json:"transaction_hash"`
	LogIndex         json.Number `json:"log_index"`
	BlockNumber      json.Number `json:"block_number"`
	TransactionIndex json.Number `json:"transaction_index"`
}

// identity returns the deduplication key for a transfer, preferring
// (tx_hash, log_index), then (tx_hash, block:txindex). Events carrying
// neither are not deduplicable and ok is false.
func (t transferItem) identity() (key string, ok bool) {
	if t.TransactionHash == "" {
		return "", false
	}
	if t.LogIndex != "" {
		return t.TransactionHash + "#" + string(t.LogIndex), true
	}
	if t.BlockNumber != "" && t.TransactionIndex != "" {
		return t.TransactionHash + "#" + string(t.BlockNumber) + ":" + string(t.TransactionIndex), true
	}
	return "", false
}

// transfersPage is one page of the wallet transfers endpoint. The cursor is
// opaque; an empty cursor ends pagination.
type transfersPage struct {
	Cursor string         `json:"cursor"`
	Result []transferItem `json:"result"`
}
