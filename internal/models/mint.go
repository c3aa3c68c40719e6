package models

import (
	"time"
)

// MintStatus tracks a mint through upload, signing and confirmation
type MintStatus string

const (
	MintPending   MintStatus = "pending"
	MintUploaded  MintStatus = "uploaded"
	MintPrepared  MintStatus = "prepared"
	MintSubmitted MintStatus = "submitted"
	MintConfirmed MintStatus = "confirmed"
	MintFailed    MintStatus = "failed"
)

// Mint is the local record of one mint attempt
type Mint struct {
	ID          string            `json:"id"`
	Network     string            `json:"network"`
	Sender      string            `json:"sender"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes"`
	ImageCID    string            `json:"image_cid,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	TxBytes     string            `json:"tx_bytes,omitempty"`
	Digest      string            `json:"digest,omitempty"`
	ObjectID    string            `json:"object_id,omitempty"`
	Status      MintStatus        `json:"status"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// MintUpdate is a partial update of a mint record
type MintUpdate struct {
	Status   *MintStatus `json:"status,omitempty"`
	ImageCID *string     `json:"image_cid,omitempty"`
	ImageURL *string     `json:"image_url,omitempty"`
	TxBytes  *string     `json:"tx_bytes,omitempty"`
	Digest   *string     `json:"digest,omitempty"`
	ObjectID *string     `json:"object_id,omitempty"`
	Error    *string     `json:"error,omitempty"`
}

// Receipt is returned once a mint is confirmed on chain
type Receipt struct {
	MintID      string `json:"mint_id"`
	Digest      string `json:"digest"`
	ObjectID    string `json:"object_id"`
	ImageURL    string `json:"image_url"`
	ImageCID    string `json:"image_cid"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

// PreparedMint carries unsigned transaction bytes for an external wallet
type PreparedMint struct {
	MintID      string `json:"mint_id"`
	TxBytes     string `json:"tx_bytes"`
	ImageURL    string `json:"image_url"`
	Sender      string `json:"sender"`
	Price       uint64 `json:"price"`        // MIST
	PaymentCoin string `json:"payment_coin"` // passed whole to mint
	Change      uint64 `json:"change"`       // MIST the contract splits off and returns
}
