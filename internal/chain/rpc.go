// Package chain talks to a Sui full node over JSON-RPC.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/meur/mintforge/internal/metrics"
)

// RPCError is an error object returned by the node
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPC is a JSON-RPC 2.0 client over HTTP
type RPC struct {
	endpoint   string
	httpClient *http.Client
	idCounter  uint64
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures an RPC client
type Option func(*RPC)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(r *RPC) { r.httpClient = c }
}

// WithLogger sets the logger used for per-call debug output
func WithLogger(l *zap.Logger) Option {
	return func(r *RPC) { r.logger = l }
}

// WithMetrics records call counts and latency
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *RPC) { r.metrics = m }
}

// NewHTTPClient builds an HTTP client with dial, TLS and header timeouts
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
		},
	}
}

// NewRPC creates a client for endpoint
func NewRPC(endpoint string, opts ...Option) *RPC {
	r := &RPC{
		endpoint:   endpoint,
		httpClient: NewHTTPClient(30 * time.Second),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Endpoint returns the node URL
func (r *RPC) Endpoint() string {
	return r.endpoint
}

// Call invokes method and decodes the result into out (which may be nil)
func (r *RPC) Call(ctx context.Context, method string, out any, params ...any) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveRPC(method, err, time.Since(start))
		if err != nil {
			r.logger.Debug("rpc.call.failed", zap.String("method", method), zap.Error(err))
		}
	}()

	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&r.idCounter, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: node returned HTTP %d: %s", method, resp.StatusCode, truncate(data, 200))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("unmarshaling %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}

	r.logger.Debug("rpc.call", zap.String("method", method), zap.Duration("took", time.Since(start)))
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
