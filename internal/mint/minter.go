// Package mint runs the mint flow: validate, pin, build, sign, execute, confirm.
package mint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/chain"
	"github.com/meur/mintforge/internal/config"
	"github.com/meur/mintforge/internal/events"
	"github.com/meur/mintforge/internal/metrics"
	"github.com/meur/mintforge/internal/models"
	"github.com/meur/mintforge/internal/pinning"
	"github.com/meur/mintforge/internal/wallet"
)

// Chain is the subset of the node client the minter needs
type Chain interface {
	GetCollection(ctx context.Context, id string) (*models.Collection, error)
	GetClock(ctx context.Context) (time.Time, error)
	GetCoins(ctx context.Context, owner, coinType string) ([]models.Coin, error)
	GetCounter(ctx context.Context, id string) (*models.Counter, error)
	FindOwnedObject(ctx context.Context, owner, structType string) (string, error)
	MoveCall(ctx context.Context, req chain.MoveCallRequest) (string, error)
	ExecuteTransaction(ctx context.Context, txBytes string, signatures []string) (*chain.TransactionResponse, error)
	WaitForTransaction(ctx context.Context, digest string, interval time.Duration) (*chain.TransactionResponse, error)
}

// Pinner stores images and returns their retrieval URL
type Pinner interface {
	PinFile(ctx context.Context, filename string, r io.Reader) (*pinning.PinResult, error)
	GatewayURL(cid string) string
}

// Signer signs transaction bytes for one address
type Signer interface {
	Address() string
	SignTransaction(txBytes string) (string, error)
}

// Recorder persists mint records
type Recorder interface {
	CreateMint(m *models.Mint) error
	GetMint(id string) (*models.Mint, error)
	UpdateMint(id string, update *models.MintUpdate) error
}

// Minter drives mints against one network deployment
type Minter struct {
	chain     Chain
	pinner    Pinner
	store     Recorder
	network   *config.NetworkConfig
	cfg       config.MintConfig
	validator *Validator
	bus       *events.Bus
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Minter)

func WithBus(b *events.Bus) Option {
	return func(m *Minter) { m.bus = b }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Minter) { m.metrics = mt }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Minter) { m.logger = l }
}

// WithClock overrides the wall clock used for record timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Minter) { m.now = now }
}

// New creates a minter
func New(c Chain, p Pinner, store Recorder, network *config.NetworkConfig, cfg config.MintConfig, opts ...Option) *Minter {
	m := &Minter{
		chain:     c,
		pinner:    p,
		store:     store,
		network:   network,
		cfg:       cfg,
		validator: NewValidator(cfg.MaxImageBytes),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Validator exposes the form validator
func (m *Minter) Validator() *Validator {
	return m.validator
}

// CallOption customizes one Submit or Mint call
type CallOption func(*call)

type call struct {
	onSuccess []func(models.Receipt)
}

// OnSuccess registers a callback run once the mint is confirmed
func OnSuccess(fn func(models.Receipt)) CallOption {
	return func(c *call) { c.onSuccess = append(c.onSuccess, fn) }
}

// Prepare validates the form, checks the collection and balance, pins the image
// and builds the unsigned mint transaction for sender.
func (m *Minter) Prepare(ctx context.Context, form *Form, sender string) (*models.PreparedMint, error) {
	sender = strings.ToLower(sender)
	if err := m.validator.Validate(form); err != nil {
		return nil, err
	}
	if err := m.network.RequireCollection(); err != nil {
		return nil, err
	}

	col, err := m.chain.GetCollection(ctx, m.network.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}
	now, err := m.chain.GetClock(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading chain clock: %w", err)
	}
	if e := CheckEligibility(col, now); !e.Eligible {
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, e.Reason)
	}

	coins, err := m.chain.GetCoins(ctx, sender, models.SUICoinType)
	if err != nil {
		return nil, fmt.Errorf("loading coins: %w", err)
	}
	payment, gas, err := SelectCoins(coins, col.Price, m.cfg.GasBudget)
	if err != nil {
		return nil, err
	}

	created := m.now().UTC()
	rec := &models.Mint{
		ID:          uuid.NewString(),
		Network:     m.network.Name,
		Sender:      sender,
		Name:        form.Name,
		Description: form.Description,
		Attributes:  form.AttributeMap(),
		Status:      models.MintPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if err := m.store.CreateMint(rec); err != nil {
		return nil, fmt.Errorf("recording mint: %w", err)
	}
	log := m.logger.With(zap.String("mint_id", rec.ID), zap.String("sender", sender))
	log.Info("mint.pending", zap.String("name", rec.Name))

	pin, err := m.pinner.PinFile(ctx, form.Image.Filename, bytes.NewReader(form.Image.Data))
	if err != nil {
		return nil, m.fail(rec, fmt.Errorf("pinning image: %w", err))
	}
	rec.ImageCID = pin.CID
	rec.ImageURL = m.pinner.GatewayURL(pin.CID)
	if err := m.update(rec, models.MintUploaded, &models.MintUpdate{ImageCID: &rec.ImageCID, ImageURL: &rec.ImageURL}); err != nil {
		return nil, err
	}
	log.Info("mint.uploaded", zap.String("cid", rec.ImageCID))

	keys, values := form.attributeVectors()
	txBytes, err := m.chain.MoveCall(ctx, chain.MoveCallRequest{
		Signer:    sender,
		PackageID: m.network.PackageID,
		Module:    m.cfg.Module,
		Function:  "mint",
		Arguments: []any{
			m.network.CollectionID,
			rec.Name,
			rec.Description,
			rec.ImageURL,
			keys,
			values,
			payment.CoinObjectID,
			chain.ClockObjectID,
		},
		Gas:       gas.CoinObjectID,
		GasBudget: m.cfg.GasBudget,
	})
	if err != nil {
		return nil, m.fail(rec, err)
	}
	rec.TxBytes = txBytes
	if err := m.update(rec, models.MintPrepared, &models.MintUpdate{TxBytes: &rec.TxBytes}); err != nil {
		return nil, err
	}
	log.Info("mint.prepared")

	return &models.PreparedMint{
		MintID:      rec.ID,
		TxBytes:     txBytes,
		ImageURL:    rec.ImageURL,
		Sender:      sender,
		Price:       col.Price,
		PaymentCoin: payment.CoinObjectID,
		Change:      payment.Balance - col.Price,
	}, nil
}

// Submit executes a prepared mint with the wallet's signature and waits for confirmation
func (m *Minter) Submit(ctx context.Context, mintID, signature string, opts ...CallOption) (*models.Receipt, error) {
	var c call
	for _, opt := range opts {
		opt(&c)
	}

	rec, err := m.store.GetMint(mintID)
	if err != nil {
		return nil, fmt.Errorf("loading mint: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrMintNotFound, mintID)
	}
	if rec.Status != models.MintPrepared {
		return nil, fmt.Errorf("%w: status is %s", ErrMintState, rec.Status)
	}
	// Other schemes are left to the node to verify.
	signer, err := wallet.VerifyTransaction(rec.TxBytes, signature)
	switch {
	case errors.Is(err, wallet.ErrUnsupportedKey):
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrSignerMismatch, err)
	case signer != rec.Sender:
		return nil, fmt.Errorf("%w: signed by %s", ErrSignerMismatch, signer)
	}

	resp, err := m.chain.ExecuteTransaction(ctx, rec.TxBytes, []string{signature})
	if err != nil {
		return nil, m.fail(rec, err)
	}
	rec.Digest = resp.Digest
	if err := m.update(rec, models.MintSubmitted, &models.MintUpdate{Digest: &rec.Digest}); err != nil {
		return nil, err
	}

	waitCtx := ctx
	if m.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, m.cfg.ConfirmTimeout)
		defer cancel()
	}
	confirmed, err := m.chain.WaitForTransaction(waitCtx, rec.Digest, m.cfg.PollInterval)
	if errors.Is(err, chain.ErrTransactionFailed) {
		return nil, m.fail(rec, err)
	}
	if err != nil {
		// Outcome unknown: the transaction may still land, so keep it submitted with its digest.
		m.logger.Warn("mint.confirm_unknown",
			zap.String("mint_id", rec.ID),
			zap.String("digest", rec.Digest),
			zap.Error(err))
		return nil, err
	}

	rec.ObjectID, _ = confirmed.CreatedObject(m.network.ItemType(m.cfg.Module))
	if err := m.update(rec, models.MintConfirmed, &models.MintUpdate{ObjectID: &rec.ObjectID}); err != nil {
		return nil, err
	}

	receipt := models.Receipt{
		MintID:      rec.ID,
		Digest:      rec.Digest,
		ObjectID:    rec.ObjectID,
		ImageURL:    rec.ImageURL,
		ImageCID:    rec.ImageCID,
		ExplorerURL: m.network.TxURL(rec.Digest),
	}
	m.metrics.ObserveMint(string(models.MintConfirmed), m.now().Sub(rec.CreatedAt))
	m.logger.Info("mint.confirmed",
		zap.String("mint_id", rec.ID),
		zap.String("digest", rec.Digest),
		zap.String("object_id", rec.ObjectID))

	m.bus.PublishMintConfirmed(events.MintConfirmed{Mint: *rec, Receipt: receipt})
	for _, fn := range c.onSuccess {
		fn(receipt)
	}
	return &receipt, nil
}

// Mint runs Prepare and Submit with a local signer
func (m *Minter) Mint(ctx context.Context, form *Form, signer Signer, opts ...CallOption) (*models.Receipt, error) {
	prepared, err := m.Prepare(ctx, form, signer.Address())
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignTransaction(prepared.TxBytes)
	if err != nil {
		rec, getErr := m.store.GetMint(prepared.MintID)
		if getErr == nil && rec != nil {
			return nil, m.fail(rec, fmt.Errorf("signing: %w", err))
		}
		return nil, fmt.Errorf("signing: %w", err)
	}
	return m.Submit(ctx, prepared.MintID, sig, opts...)
}

func (m *Minter) update(rec *models.Mint, status models.MintStatus, u *models.MintUpdate) error {
	u.Status = &status
	if err := m.store.UpdateMint(rec.ID, u); err != nil {
		return fmt.Errorf("updating mint %s: %w", rec.ID, err)
	}
	rec.Status = status
	rec.UpdatedAt = m.now().UTC()
	return nil
}

// fail marks rec failed and returns err unchanged
func (m *Minter) fail(rec *models.Mint, err error) error {
	status := models.MintFailed
	msg := err.Error()
	if uerr := m.store.UpdateMint(rec.ID, &models.MintUpdate{Status: &status, Error: &msg}); uerr != nil {
		m.logger.Error("mint.record.failed", zap.String("mint_id", rec.ID), zap.Error(uerr))
	}
	rec.Status = status
	rec.Error = msg

	m.metrics.ObserveMint(string(models.MintFailed), m.now().Sub(rec.CreatedAt))
	m.logger.Warn("mint.failed", zap.String("mint_id", rec.ID), zap.Error(err))
	m.bus.PublishMintFailed(events.MintFailed{Mint: *rec, Err: err})
	return err
}

// SelectCoins picks a payment coin covering price and a different coin covering gas.
// The total balance must cover price plus the gas budget. An exact-price coin is
// preferred so the payment carries no change.
func SelectCoins(coins []models.Coin, price, gasBudget uint64) (payment, gas models.Coin, err error) {
	var total uint64
	for _, c := range coins {
		total = addSaturating(total, c.Balance)
	}
	// All SUI in existence fits in a u64, so a saturated need can never be paid.
	if need := addSaturating(price, gasBudget); total < need || need == math.MaxUint64 {
		return payment, gas, fmt.Errorf("%w: have %d MIST, need %d + %d", ErrInsufficientBalance, total, price, gasBudget)
	}
	if len(coins) < 2 {
		return payment, gas, ErrNeedGasCoin
	}

	sorted := append([]models.Coin(nil), coins...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Balance < sorted[j].Balance })

	// smallest coin that pays, largest other coin for gas
	for i, p := range sorted {
		if p.Balance < price {
			continue
		}
		for j := len(sorted) - 1; j >= 0; j-- {
			if j != i && sorted[j].Balance >= gasBudget {
				return p, sorted[j], nil
			}
		}
	}
	return payment, gas, ErrNeedGasCoin
}

func addSaturating(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// --- Admin ---

// SetActive opens or closes the collection
func (m *Minter) SetActive(ctx context.Context, signer Signer, active bool) (*chain.TransactionResponse, error) {
	return m.adminCall(ctx, signer, "set_active", active)
}

// UpdatePrice changes the mint price in MIST
func (m *Minter) UpdatePrice(ctx context.Context, signer Signer, price uint64) (*chain.TransactionResponse, error) {
	return m.adminCall(ctx, signer, "update_price", strconv.FormatUint(price, 10))
}

// AdminCap locates the capability object held by owner
func (m *Minter) AdminCap(ctx context.Context, owner string) (*models.AdminCap, error) {
	id, err := m.chain.FindOwnedObject(ctx, owner, m.network.AdminCapType(m.cfg.Module))
	if errors.Is(err, chain.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMissingCapability, owner)
	}
	if err != nil {
		return nil, err
	}
	return &models.AdminCap{ObjectID: id, Owner: owner}, nil
}

func (m *Minter) adminCall(ctx context.Context, signer Signer, function string, arg any) (*chain.TransactionResponse, error) {
	if err := m.network.RequireCollection(); err != nil {
		return nil, err
	}
	adminCap, err := m.AdminCap(ctx, signer.Address())
	if err != nil {
		return nil, err
	}
	resp, err := m.execute(ctx, signer, chain.MoveCallRequest{
		Module:    m.cfg.Module,
		Function:  function,
		Arguments: []any{adminCap.ObjectID, m.network.CollectionID, arg},
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("mint.admin", zap.String("call", function), zap.Any("arg", arg), zap.String("digest", resp.Digest))
	return resp, nil
}

// --- Counter ---

// CreateCounter creates a counter owned by signer and returns its object id
func (m *Minter) CreateCounter(ctx context.Context, signer Signer) (string, error) {
	resp, err := m.execute(ctx, signer, chain.MoveCallRequest{
		Module:   m.cfg.CounterModule,
		Function: "create",
	})
	if err != nil {
		return "", err
	}
	id, ok := resp.CreatedObject(m.network.CounterType(m.cfg.CounterModule))
	if !ok {
		return "", fmt.Errorf("transaction %s created no counter", resp.Digest)
	}
	return id, nil
}

// IncrementCounter bumps the counter and returns its new state
func (m *Minter) IncrementCounter(ctx context.Context, signer Signer, counterID string) (*models.Counter, error) {
	if counterID == "" {
		counterID = m.network.CounterID
	}
	if _, err := m.execute(ctx, signer, chain.MoveCallRequest{
		Module:    m.cfg.CounterModule,
		Function:  "increment",
		Arguments: []any{counterID},
	}); err != nil {
		return nil, err
	}
	return m.chain.GetCounter(ctx, counterID)
}

// Counter reads a counter, defaulting to the configured one
func (m *Minter) Counter(ctx context.Context, counterID string) (*models.Counter, error) {
	if counterID == "" {
		counterID = m.network.CounterID
	}
	if counterID == "" {
		return nil, errors.New("no counter id given or configured")
	}
	return m.chain.GetCounter(ctx, counterID)
}

// execute builds, signs, submits and confirms a call without a mint record
func (m *Minter) execute(ctx context.Context, signer Signer, req chain.MoveCallRequest) (*chain.TransactionResponse, error) {
	req.Signer = signer.Address()
	req.PackageID = m.network.PackageID
	req.GasBudget = m.cfg.GasBudget

	txBytes, err := m.chain.MoveCall(ctx, req)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignTransaction(txBytes)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	resp, err := m.chain.ExecuteTransaction(ctx, txBytes, []string{sig})
	if err != nil {
		return nil, err
	}
	if m.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.ConfirmTimeout)
		defer cancel()
	}
	return m.chain.WaitForTransaction(ctx, resp.Digest, m.cfg.PollInterval)
}
