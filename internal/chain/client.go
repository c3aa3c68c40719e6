package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/models"
)

// ClockObjectID is the shared system clock
const ClockObjectID = "0x6"

const pageLimit = 50

var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrTransactionFailed = errors.New("transaction failed")
)

// Client wraps the node's read and transaction endpoints
type Client struct {
	rpc    *RPC
	logger *zap.Logger
}

// NewClient creates a client for the node at endpoint
func NewClient(endpoint string, opts ...Option) *Client {
	rpc := NewRPC(endpoint, opts...)
	return &Client{rpc: rpc, logger: rpc.logger}
}

// RPC exposes the raw transport
func (c *Client) RPC() *RPC {
	return c.rpc
}

var objectOptions = map[string]bool{
	"showType":    true,
	"showOwner":   true,
	"showContent": true,
}

// --- Objects ---

// GetObject fetches one object with its type, owner and content
func (c *Client) GetObject(ctx context.Context, id string) (*ObjectData, error) {
	var resp ObjectResponse
	if err := c.rpc.Call(ctx, "sui_getObject", &resp, id, objectOptions); err != nil {
		return nil, err
	}
	if resp.Error != nil || resp.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return resp.Data, nil
}

// GetCollection fetches the shared collection object
func (c *Client) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	obj, err := c.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}
	return ParseCollection(obj)
}

// GetCounter fetches a counter object
func (c *Client) GetCounter(ctx context.Context, id string) (*models.Counter, error) {
	obj, err := c.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}
	return ParseCounter(obj)
}

// GetClock reads the chain's shared clock
func (c *Client) GetClock(ctx context.Context) (time.Time, error) {
	obj, err := c.GetObject(ctx, ClockObjectID)
	if err != nil {
		return time.Time{}, err
	}
	f, err := content(obj)
	if err != nil {
		return time.Time{}, err
	}
	ms, err := fieldUint(f, "timestamp_ms")
	if err != nil {
		return time.Time{}, err
	}
	return millis(ms), nil
}

// GetOwnedObjects returns one page of objects of structType owned by owner
func (c *Client) GetOwnedObjects(ctx context.Context, owner, structType string, cursor *string, limit int) (*ObjectsPage, error) {
	query := map[string]any{
		"filter":  map[string]string{"StructType": structType},
		"options": objectOptions,
	}
	var page ObjectsPage
	if err := c.rpc.Call(ctx, "suix_getOwnedObjects", &page, owner, query, cursor, limit); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListOwnedObjects walks every page of owned objects of structType
func (c *Client) ListOwnedObjects(ctx context.Context, owner, structType string) ([]ObjectData, error) {
	var out []ObjectData
	var cursor *string
	for {
		page, err := c.GetOwnedObjects(ctx, owner, structType, cursor, pageLimit)
		if err != nil {
			return nil, err
		}
		for _, o := range page.Data {
			if o.Data != nil {
				out = append(out, *o.Data)
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

// ListOwnedItems returns the NFTs of itemType owned by owner
func (c *Client) ListOwnedItems(ctx context.Context, owner, itemType string) ([]models.Item, error) {
	objs, err := c.ListOwnedObjects(ctx, owner, itemType)
	if err != nil {
		return nil, err
	}
	items := make([]models.Item, 0, len(objs))
	for i := range objs {
		item, err := ParseItem(&objs[i])
		if err != nil {
			c.logger.Warn("chain.item.skipped", zap.String("object_id", objs[i].ObjectID), zap.Error(err))
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

// FindOwnedObject returns the id of the first object of structType owned by owner
func (c *Client) FindOwnedObject(ctx context.Context, owner, structType string) (string, error) {
	page, err := c.GetOwnedObjects(ctx, owner, structType, nil, 1)
	if err != nil {
		return "", err
	}
	for _, o := range page.Data {
		if o.Data != nil {
			return o.Data.ObjectID, nil
		}
	}
	return "", fmt.Errorf("%w: no %s owned by %s", ErrObjectNotFound, structType, owner)
}

// --- Dynamic fields ---

// GetDynamicFields lists every dynamic field of parentID
func (c *Client) GetDynamicFields(ctx context.Context, parentID string) ([]DynamicFieldInfo, error) {
	var out []DynamicFieldInfo
	var cursor *string
	for {
		var page DynamicFieldsPage
		if err := c.rpc.Call(ctx, "suix_getDynamicFields", &page, parentID, cursor, pageLimit); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

// GetDynamicFieldObject fetches the field object stored under name
func (c *Client) GetDynamicFieldObject(ctx context.Context, parentID string, name DynamicFieldName) (*ObjectData, error) {
	var resp ObjectResponse
	if err := c.rpc.Call(ctx, "suix_getDynamicFieldObject", &resp, parentID, name); err != nil {
		return nil, err
	}
	if resp.Error != nil || resp.Data == nil {
		return nil, fmt.Errorf("%w: dynamic field %v of %s", ErrObjectNotFound, name.Value, parentID)
	}
	return resp.Data, nil
}

// GetAttributes reads the string-keyed dynamic fields attached to an item
func (c *Client) GetAttributes(ctx context.Context, objectID string) (map[string]string, error) {
	fields, err := c.GetDynamicFields(ctx, objectID)
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]string, len(fields))
	for _, df := range fields {
		key, ok := df.Name.Value.(string)
		if !ok {
			continue
		}
		obj, err := c.GetDynamicFieldObject(ctx, objectID, df.Name)
		if err != nil {
			return nil, err
		}
		f, err := content(obj)
		if err != nil {
			return nil, err
		}
		val, err := fieldString(f, "value")
		if err != nil {
			return nil, err
		}
		attrs[key] = val
	}
	return attrs, nil
}

// GetItem fetches an NFT together with its attributes
func (c *Client) GetItem(ctx context.Context, objectID string) (*models.Item, error) {
	obj, err := c.GetObject(ctx, objectID)
	if err != nil {
		return nil, err
	}
	item, err := ParseItem(obj)
	if err != nil {
		return nil, err
	}
	attrs, err := c.GetAttributes(ctx, objectID)
	if err != nil {
		return nil, err
	}
	item.Attributes = attrs
	return item, nil
}

// --- Coins ---

// GetCoins lists every coin of coinType owned by owner
func (c *Client) GetCoins(ctx context.Context, owner, coinType string) ([]models.Coin, error) {
	var out []models.Coin
	var cursor *string
	for {
		var page CoinsPage
		if err := c.rpc.Call(ctx, "suix_getCoins", &page, owner, coinType, cursor, pageLimit); err != nil {
			return nil, err
		}
		for _, cd := range page.Data {
			coin, err := ParseCoin(cd)
			if err != nil {
				return nil, err
			}
			out = append(out, coin)
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

// GetBalance returns the aggregate balance of coinType for owner
func (c *Client) GetBalance(ctx context.Context, owner, coinType string) (*models.Balance, error) {
	var resp BalanceResponse
	if err := c.rpc.Call(ctx, "suix_getBalance", &resp, owner, coinType); err != nil {
		return nil, err
	}
	total, err := toUint("totalBalance", resp.TotalBalance)
	if err != nil {
		return nil, err
	}
	return &models.Balance{
		CoinType:        resp.CoinType,
		CoinObjectCount: resp.CoinObjectCount,
		TotalBalance:    total,
	}, nil
}

// --- Transactions ---

// MoveCall asks the node to build an entry-function call and returns base64 tx bytes
func (c *Client) MoveCall(ctx context.Context, req MoveCallRequest) (string, error) {
	typeArgs := req.TypeArguments
	if typeArgs == nil {
		typeArgs = []string{}
	}
	args := req.Arguments
	if args == nil {
		args = []any{}
	}
	var gas any
	if req.Gas != "" {
		gas = req.Gas
	}

	var tb TransactionBytes
	err := c.rpc.Call(ctx, "unsafe_moveCall", &tb,
		req.Signer, req.PackageID, req.Module, req.Function,
		typeArgs, args, gas, strconv.FormatUint(req.GasBudget, 10), nil)
	if err != nil {
		return "", fmt.Errorf("building %s::%s: %w", req.Module, req.Function, err)
	}
	return tb.TxBytes, nil
}

var txOptions = map[string]bool{
	"showEffects":       true,
	"showEvents":        true,
	"showObjectChanges": true,
}

// ExecuteTransaction submits signed tx bytes
func (c *Client) ExecuteTransaction(ctx context.Context, txBytes string, signatures []string) (*TransactionResponse, error) {
	var resp TransactionResponse
	err := c.rpc.Call(ctx, "sui_executeTransactionBlock", &resp, txBytes, signatures, txOptions, "WaitForEffectsCert")
	if err != nil {
		return nil, err
	}
	if resp.Effects != nil && !resp.Succeeded() {
		return &resp, fmt.Errorf("%w: %s", ErrTransactionFailed, resp.Effects.Status.Error)
	}
	return &resp, nil
}

// GetTransaction fetches a transaction by digest
func (c *Client) GetTransaction(ctx context.Context, digest string) (*TransactionResponse, error) {
	var resp TransactionResponse
	if err := c.rpc.Call(ctx, "sui_getTransactionBlock", &resp, digest, txOptions); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WaitForTransaction polls until digest is known to the node, then checks its status
func (c *Client) WaitForTransaction(ctx context.Context, digest string, interval time.Duration) (*TransactionResponse, error) {
	if err := ValidateDigest(digest); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		resp, err := c.GetTransaction(ctx, digest)
		if err == nil {
			if !resp.Succeeded() {
				msg := "no effects"
				if resp.Effects != nil {
					msg = resp.Effects.Status.Error
				}
				return resp, fmt.Errorf("%w: %s", ErrTransactionFailed, msg)
			}
			return resp, nil
		}
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			return nil, err
		}
		// Not indexed yet.
		c.logger.Debug("chain.tx.pending", zap.String("digest", digest))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", digest, ctx.Err())
		case <-ticker.C:
		}
	}
}

// --- Events ---

// QueryEvents returns one page of events of eventType in ascending order
func (c *Client) QueryEvents(ctx context.Context, eventType string, cursor *EventID, limit int) (*EventsPage, error) {
	filter := map[string]string{"MoveEventType": eventType}
	var page EventsPage
	if err := c.rpc.Call(ctx, "suix_queryEvents", &page, filter, cursor, limit, false); err != nil {
		return nil, err
	}
	return &page, nil
}
