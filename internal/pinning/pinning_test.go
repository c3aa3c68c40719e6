package pinning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meur/mintforge/internal/config"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func newTestClient(t *testing.T, cfg config.PinningConfig, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.Endpoint = srv.URL
	cfg.Gateway = "https://gw.example/ipfs/"
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(config.PinningConfig{Endpoint: "http://x"})
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = New(config.PinningConfig{Endpoint: "http://x", APIKey: "k"})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestPinFileWithJWT(t *testing.T) {
	var gotAuth, gotFile, gotName string
	c := newTestClient(t, config.PinningConfig{JWT: "token"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		gotFile, gotName = string(b), hdr.Filename
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"IpfsHash":  testCID,
			"PinSize":   4,
			"Timestamp": "2025-06-01T10:00:00.000Z",
		})
	})

	res, err := c.PinFile(context.Background(), "badge.png", strings.NewReader("\x89PNG"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "\x89PNG", gotFile)
	assert.Equal(t, "badge.png", gotName)
	assert.Equal(t, testCID, res.CID)
	assert.Equal(t, int64(4), res.Size)
	assert.Equal(t, 2025, res.Timestamp.Year())
	assert.Equal(t, "https://gw.example/ipfs/"+testCID, c.GatewayURL(res.CID))
}

func TestPinFileWithAPIKey(t *testing.T) {
	c := newTestClient(t, config.PinningConfig{APIKey: "k", APISecret: "s"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("pinata_api_key"))
		assert.Equal(t, "s", r.Header.Get("pinata_secret_api_key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"IpfsHash": testCID, "PinSize": 1})
	})

	_, err := c.PinFile(context.Background(), "a.png", strings.NewReader("x"))
	require.NoError(t, err)
}

func TestPinFileAPIError(t *testing.T) {
	c := newTestClient(t, config.PinningConfig{JWT: "bad"}, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	})

	_, err := c.PinFile(context.Background(), "a.png", strings.NewReader("x"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "invalid key")
}

func TestPinFileRejectsBadCID(t *testing.T) {
	c := newTestClient(t, config.PinningConfig{JWT: "t"}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"IpfsHash": "not-a-cid"})
	})

	_, err := c.PinFile(context.Background(), "a.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBadCID)
}
