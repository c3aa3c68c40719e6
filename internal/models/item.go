package models

import "time"

// Item is a minted NFT
type Item struct {
	ObjectID     string            `json:"object_id"`
	CollectionID string            `json:"collection_id,omitempty"`
	Owner        string            `json:"owner,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	ImageURL     string            `json:"image_url"`
	Creator      string            `json:"creator"`
	Attributes   map[string]string `json:"attributes"` // Dynamic fields attached after mint
	Digest       string            `json:"digest,omitempty"`
	MintedAt     time.Time         `json:"minted_at,omitempty"`
}

// ItemList is a page of items
type ItemList struct {
	Items      []Item `json:"items"`
	TotalCount int    `json:"total_count"`
}
