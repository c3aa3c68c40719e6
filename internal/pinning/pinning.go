package pinning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/config"
	"github.com/meur/mintforge/internal/metrics"
)

var (
	ErrNoCredentials = errors.New("pinning credentials are not configured")
	ErrBadCID        = errors.New("pinning service returned an invalid CID")
)

// APIError is a non-2xx reply from the pinning service
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pinning service returned HTTP %d: %s", e.Status, e.Body)
}

// PinResult describes a pinned file
type PinResult struct {
	CID       string    `json:"cid"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Client uploads files to a Pinata-compatible pinning service
type Client struct {
	http     *resty.Client
	endpoint string
	gateway  string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRestyClient replaces the underlying HTTP client
func WithRestyClient(r *resty.Client) Option {
	return func(c *Client) { c.http = r }
}

// New creates a client from the pinning config. Either a JWT or an
// API key/secret pair must be set.
func New(cfg config.PinningConfig, opts ...Option) (*Client, error) {
	if cfg.JWT == "" && (cfg.APIKey == "" || cfg.APISecret == "") {
		return nil, ErrNoCredentials
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	c := &Client{
		http:     resty.New(),
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		gateway:  strings.TrimRight(cfg.Gateway, "/"),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http.SetTimeout(timeout)
	if cfg.JWT != "" {
		c.http.SetAuthToken(cfg.JWT)
	} else {
		c.http.SetHeader("pinata_api_key", cfg.APIKey)
		c.http.SetHeader("pinata_secret_api_key", cfg.APISecret)
	}
	return c, nil
}

// PinFile uploads the content of r under filename and returns its CID
func (c *Client) PinFile(ctx context.Context, filename string, r io.Reader) (*PinResult, error) {
	var out pinResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, r).
		SetMultipartFormData(map[string]string{
			"pinataMetadata": fmt.Sprintf(`{"name":%q}`, filename),
		}).
		SetResult(&out).
		ForceContentType("application/json").
		Post(c.endpoint + "/pinning/pinFileToIPFS")
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", filename, err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Body: strings.TrimSpace(string(resp.Body()))}
	}

	parsed, err := cid.Decode(out.IpfsHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadCID, out.IpfsHash, err)
	}

	res := &PinResult{CID: parsed.String(), Size: out.PinSize}
	if ts, err := time.Parse(time.RFC3339Nano, out.Timestamp); err == nil {
		res.Timestamp = ts
	}
	c.metrics.AddPinnedBytes(out.PinSize)
	c.logger.Info("pinning.pinned",
		zap.String("file", filename),
		zap.String("cid", res.CID),
		zap.Int64("size", res.Size))
	return res, nil
}

// GatewayURL is the retrieval URL of a pinned CID
func (c *Client) GatewayURL(id string) string {
	return c.gateway + "/" + id
}

// Disabled stands in when no credentials are configured; every upload fails
type Disabled struct {
	Gateway string
}

func (d Disabled) PinFile(ctx context.Context, filename string, r io.Reader) (*PinResult, error) {
	return nil, ErrNoCredentials
}

func (d Disabled) GatewayURL(id string) string {
	return strings.TrimRight(d.Gateway, "/") + "/" + id
}
