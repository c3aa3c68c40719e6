package chain

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers JSON-RPC calls from a per-method handler table
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]func(params []json.RawMessage) (any, *RPCError)
	calls    []rpcCall
}

func newFakeNode(t *testing.T) (*fakeNode, *Client) {
	t.Helper()
	n := &fakeNode{handlers: map[string]func([]json.RawMessage) (any, *RPCError){}}
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)
	return n, NewClient(srv.URL)
}

func (n *fakeNode) on(method string, fn func(params []json.RawMessage) (any, *RPCError)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = fn
}

func (n *fakeNode) result(method string, v any) {
	n.on(method, func([]json.RawMessage) (any, *RPCError) { return v, nil })
}

func (n *fakeNode) called(method string) []rpcCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []rpcCall
	for _, c := range n.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var call rpcCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n.mu.Lock()
	n.calls = append(n.calls, call)
	fn := n.handlers[call.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": 1}
	if fn == nil {
		resp["error"] = RPCError{Code: -32601, Message: "method not found"}
	} else if res, rpcErr := fn(call.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = res
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func collectionObject(id string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"objectId": id,
			"version":  "12",
			"digest":   "d",
			"type":     "0xpkg::workshop_nft::Collection",
			"owner":    map[string]any{"Shared": map[string]any{"initial_shared_version": 3}},
			"content": map[string]any{
				"dataType": "moveObject",
				"type":     "0xpkg::workshop_nft::Collection",
				"fields": map[string]any{
					"id":             map[string]any{"id": id},
					"name":           "Workshop",
					"description":    "Workshop collection",
					"creator":        "0xcreator",
					"current_supply": "4",
					"max_supply":     "100",
					"price":          "1000000000",
					"is_active":      true,
					"start_time":     "1700000000000",
					"end_time":       "1800000000000",
				},
			},
		},
	}
}

func itemObject(id, owner string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"objectId": id,
			"version":  "5",
			"digest":   "d",
			"type":     "0xpkg::workshop_nft::WorkshopNFT",
			"owner":    map[string]any{"AddressOwner": owner},
			"content": map[string]any{
				"dataType": "moveObject",
				"type":     "0xpkg::workshop_nft::WorkshopNFT",
				"fields": map[string]any{
					"id":          map[string]any{"id": id},
					"name":        "Badge " + id,
					"description": "A workshop badge",
					"image_url":   "https://gw/ipfs/cid",
					"creator":     owner,
				},
			},
		},
	}
}
