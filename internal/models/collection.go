package models

import (
	"time"
)

// Collection is the shared on-chain record tracking aggregate mint state
type Collection struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Creator       string    `json:"creator"`
	CurrentSupply uint64    `json:"current_supply"`
	MaxSupply     uint64    `json:"max_supply"`
	Price         uint64    `json:"price"` // MIST
	IsActive      bool      `json:"is_active"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// CollectionView is a collection plus the values a frontend renders directly
type CollectionView struct {
	Collection
	PriceSUI      string  `json:"price_sui"`
	Progress      float64 `json:"progress"`
	TimeRemaining string  `json:"time_remaining"`
	Eligible      bool    `json:"eligible"`
	Reason        string  `json:"reason,omitempty"`
	Now           int64   `json:"now_ms"`
}

// AdminCap is the capability object that authorizes privileged collection calls
type AdminCap struct {
	ObjectID string `json:"object_id"`
	Owner    string `json:"owner"`
}

// Counter is the shared counter object from the workshop's first contract
type Counter struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Value uint64 `json:"value"`
}
