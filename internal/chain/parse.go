package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mr-tron/base58"

	"github.com/meur/mintforge/internal/models"
)

// ErrBadField is returned when a Move field is missing or has an unexpected shape
var ErrBadField = errors.New("unexpected field value")

// ErrBadDigest is returned for strings that are not base58 32-byte digests
var ErrBadDigest = errors.New("invalid transaction digest")

// ValidateDigest checks that d is a base58-encoded 32-byte digest
func ValidateDigest(d string) error {
	b, err := base58.Decode(d)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadDigest, err)
	}
	if len(b) != 32 {
		return fmt.Errorf("%w: %d bytes", ErrBadDigest, len(b))
	}
	return nil
}

func fieldString(fields map[string]any, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s missing", ErrBadField, key)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case map[string]any:
		// Url and UID are wrapped structs.
		if inner, ok := s["url"].(string); ok {
			return inner, nil
		}
		if inner, ok := s["id"].(string); ok {
			return inner, nil
		}
	}
	return "", fmt.Errorf("%w: %s is %T", ErrBadField, key, v)
}

func fieldUint(fields map[string]any, key string) (uint64, error) {
	v, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s missing", ErrBadField, key)
	}
	return toUint(key, v)
}

func toUint(key string, v any) (uint64, error) {
	switch n := v.(type) {
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrBadField, key, err)
		}
		return u, nil
	case float64:
		if n < 0 {
			return 0, fmt.Errorf("%w: %s is negative", ErrBadField, key)
		}
		return uint64(n), nil
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrBadField, key, err)
		}
		return u, nil
	}
	return 0, fmt.Errorf("%w: %s is %T", ErrBadField, key, v)
}

func fieldBool(fields map[string]any, key string) (bool, error) {
	v, ok := fields[key].(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is not a bool", ErrBadField, key)
	}
	return v, nil
}

func millis(ms uint64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

func content(obj *ObjectData) (map[string]any, error) {
	if obj == nil || obj.Content == nil || obj.Content.Fields == nil {
		return nil, fmt.Errorf("%w: object has no move content", ErrBadField)
	}
	return obj.Content.Fields, nil
}

// ParseCollection reshapes a collection object's field bag
func ParseCollection(obj *ObjectData) (*models.Collection, error) {
	f, err := content(obj)
	if err != nil {
		return nil, err
	}
	c := &models.Collection{ID: obj.ObjectID}
	if c.Name, err = fieldString(f, "name"); err != nil {
		return nil, err
	}
	if c.Description, err = fieldString(f, "description"); err != nil {
		return nil, err
	}
	if c.Creator, err = fieldString(f, "creator"); err != nil {
		return nil, err
	}
	if c.CurrentSupply, err = fieldUint(f, "current_supply"); err != nil {
		return nil, err
	}
	if c.MaxSupply, err = fieldUint(f, "max_supply"); err != nil {
		return nil, err
	}
	if c.Price, err = fieldUint(f, "price"); err != nil {
		return nil, err
	}
	if c.IsActive, err = fieldBool(f, "is_active"); err != nil {
		return nil, err
	}
	start, err := fieldUint(f, "start_time")
	if err != nil {
		return nil, err
	}
	end, err := fieldUint(f, "end_time")
	if err != nil {
		return nil, err
	}
	c.StartTime, c.EndTime = millis(start), millis(end)
	return c, nil
}

// ParseItem reshapes an NFT object; attributes are filled separately
func ParseItem(obj *ObjectData) (*models.Item, error) {
	f, err := content(obj)
	if err != nil {
		return nil, err
	}
	item := &models.Item{
		ObjectID:   obj.ObjectID,
		Owner:      obj.Owner.AddressOwner,
		Attributes: map[string]string{},
	}
	if item.Name, err = fieldString(f, "name"); err != nil {
		return nil, err
	}
	if item.Description, err = fieldString(f, "description"); err != nil {
		return nil, err
	}
	if item.ImageURL, err = fieldString(f, "image_url"); err != nil {
		return nil, err
	}
	if item.Creator, err = fieldString(f, "creator"); err != nil {
		return nil, err
	}
	if cid, err := fieldString(f, "collection_id"); err == nil {
		item.CollectionID = cid
	}
	return item, nil
}

// ParseCounter reads the workshop counter object
func ParseCounter(obj *ObjectData) (*models.Counter, error) {
	f, err := content(obj)
	if err != nil {
		return nil, err
	}
	c := &models.Counter{ID: obj.ObjectID}
	if c.Owner, err = fieldString(f, "owner"); err != nil {
		return nil, err
	}
	if c.Value, err = fieldUint(f, "value"); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseCoin converts a coin page entry
func ParseCoin(c CoinData) (models.Coin, error) {
	bal, err := toUint("balance", c.Balance)
	if err != nil {
		return models.Coin{}, err
	}
	return models.Coin{
		CoinType:     c.CoinType,
		CoinObjectID: c.CoinObjectID,
		Version:      c.Version,
		Digest:       c.Digest,
		Balance:      bal,
	}, nil
}

// ParseMintEvent extracts the item id and minter from an NFTMinted event
func ParseMintEvent(e Event) (objectID, minter string, err error) {
	if objectID, err = fieldString(e.ParsedJSON, "object_id"); err != nil {
		return "", "", err
	}
	if minter, err = fieldString(e.ParsedJSON, "minter"); err != nil {
		minter = e.Sender
	}
	return objectID, minter, nil
}
