package models

// SUICoinType is the native gas coin type
const SUICoinType = "0x2::sui::SUI"

// Coin is a single coin object owned by an address
type Coin struct {
	CoinType     string `json:"coin_type"`
	CoinObjectID string `json:"coin_object_id"`
	Version      string `json:"version"`
	Digest       string `json:"digest"`
	Balance      uint64 `json:"balance"`
}

// Balance is the aggregate balance of one coin type
type Balance struct {
	CoinType        string `json:"coin_type"`
	CoinObjectCount int    `json:"coin_object_count"`
	TotalBalance    uint64 `json:"total_balance"`
}

// CoinList is the response body for coin listings
type CoinList struct {
	Coins        []Coin `json:"coins"`
	TotalBalance uint64 `json:"total_balance"`
	Formatted    string `json:"formatted"`
}
