package mint

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/meur/mintforge/internal/chain"
	"github.com/meur/mintforge/internal/config"
	"github.com/meur/mintforge/internal/models"
	"github.com/meur/mintforge/internal/pinning"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

var testNetwork = &config.NetworkConfig{
	Name:         "testnet",
	RPCURL:       "http://node",
	PackageID:    "0xpkg",
	CollectionID: "0xcol",
	CounterID:    "0xcounter",
	ExplorerURL:  "https://explorer/testnet",
}

var testMintConfig = config.MintConfig{
	Module:         "workshop_nft",
	CounterModule:  "counter",
	GasBudget:      50_000_000,
	MaxImageBytes:  1 << 20,
	ConfirmTimeout: time.Second,
	PollInterval:   time.Millisecond,
}

type fakeChain struct {
	mu         sync.Mutex
	collection models.Collection
	now        time.Time
	coins      []models.Coin
	owned      map[string]string
	counter    models.Counter
	calls      []chain.MoveCallRequest
	executed   []string
	execErr    error
	waitErr    error
	created    []chain.ObjectChange
}

func newFakeChain() *fakeChain {
	start := time.UnixMilli(1_700_000_000_000).UTC()
	return &fakeChain{
		collection: models.Collection{
			ID:            "0xcol",
			Name:          "Workshop",
			CurrentSupply: 1,
			MaxSupply:     10,
			Price:         1_000_000_000,
			IsActive:      true,
			StartTime:     start,
			EndTime:       start.Add(48 * time.Hour),
		},
		now: start.Add(time.Hour),
		coins: []models.Coin{
			{CoinType: models.SUICoinType, CoinObjectID: "0xcoinA", Balance: 2_000_000_000},
			{CoinType: models.SUICoinType, CoinObjectID: "0xcoinB", Balance: 100_000_000},
		},
		owned: map[string]string{},
		created: []chain.ObjectChange{
			{Type: "created", ObjectType: "0xpkg::workshop_nft::WorkshopNFT", ObjectID: "0xnft"},
		},
	}
}

func (f *fakeChain) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	c := f.collection
	return &c, nil
}

func (f *fakeChain) GetClock(ctx context.Context) (time.Time, error) {
	return f.now, nil
}

func (f *fakeChain) GetCoins(ctx context.Context, owner, coinType string) ([]models.Coin, error) {
	return f.coins, nil
}

func (f *fakeChain) GetCounter(ctx context.Context, id string) (*models.Counter, error) {
	c := f.counter
	c.ID = id
	return &c, nil
}

func (f *fakeChain) FindOwnedObject(ctx context.Context, owner, structType string) (string, error) {
	if id, ok := f.owned[structType]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", chain.ErrObjectNotFound, structType)
}

func (f *fakeChain) MoveCall(ctx context.Context, req chain.MoveCallRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return base64.StdEncoding.EncodeToString([]byte("tx:" + req.Function)), nil
}

func (f *fakeChain) ExecuteTransaction(ctx context.Context, txBytes string, signatures []string) (*chain.TransactionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.execErr != nil {
		return nil, f.execErr
	}
	f.executed = append(f.executed, txBytes)
	f.counter.Value++
	return &chain.TransactionResponse{Digest: fmt.Sprintf("digest-%d", len(f.executed))}, nil
}

func (f *fakeChain) WaitForTransaction(ctx context.Context, digest string, interval time.Duration) (*chain.TransactionResponse, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return &chain.TransactionResponse{
		Digest:        digest,
		Effects:       &chain.Effects{Status: chain.ExecutionStatus{Status: "success"}},
		ObjectChanges: f.created,
	}, nil
}

type fakePinner struct {
	err    error
	pinned []string
}

func (p *fakePinner) PinFile(ctx context.Context, filename string, r io.Reader) (*pinning.PinResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	b, _ := io.ReadAll(r)
	p.pinned = append(p.pinned, filename)
	return &pinning.PinResult{CID: "QmTestCID", Size: int64(len(b))}, nil
}

func (p *fakePinner) GatewayURL(cid string) string {
	return "https://gw/ipfs/" + cid
}

type memRecorder struct {
	mu      sync.Mutex
	mints   map[string]*models.Mint
	history map[string][]models.MintStatus
}

func newMemRecorder() *memRecorder {
	return &memRecorder{mints: map[string]*models.Mint{}, history: map[string][]models.MintStatus{}}
}

func (r *memRecorder) CreateMint(m *models.Mint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.mints[m.ID] = &cp
	r.history[m.ID] = append(r.history[m.ID], m.Status)
	return nil
}

func (r *memRecorder) GetMint(id string) (*models.Mint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mints[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *memRecorder) UpdateMint(id string, u *models.MintUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mints[id]
	if !ok {
		return errors.New("no such mint")
	}
	if u.Status != nil {
		m.Status = *u.Status
		r.history[id] = append(r.history[id], *u.Status)
	}
	if u.ImageCID != nil {
		m.ImageCID = *u.ImageCID
	}
	if u.ImageURL != nil {
		m.ImageURL = *u.ImageURL
	}
	if u.TxBytes != nil {
		m.TxBytes = *u.TxBytes
	}
	if u.Digest != nil {
		m.Digest = *u.Digest
	}
	if u.ObjectID != nil {
		m.ObjectID = *u.ObjectID
	}
	if u.Error != nil {
		m.Error = *u.Error
	}
	return nil
}

func (r *memRecorder) only() *models.Mint {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mints {
		cp := *m
		return &cp
	}
	return nil
}

func validForm() *Form {
	return &Form{
		Name:        "Workshop Badge",
		Description: "Earned by finishing the workshop",
		Attributes:  []Attribute{{Key: "track", Value: "move"}, {Key: "level", Value: "1"}},
		Image:       &Image{Filename: "badge.png", Data: pngHeader},
	}
}
