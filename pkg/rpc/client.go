package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/mining"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/utxo"
)

// Client is a thin HTTP client over a Server's endpoints, for tooling and
// tests that would otherwise reimplement request plumbing by hand.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client against baseURL (e.g. "http://127.0.0.1:8332").
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) get(path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if query != nil {
		u += "?" + query.Encode()
	}
	resp, err := c.http.Get(u)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) post(path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 300 {
		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("rpc: %s", e.Error)
		}
		return fmt.Errorf("rpc: unexpected status %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Info fetches the node's chain summary.
func (c *Client) Info() (*infoResponse, error) {
	var out infoResponse
	if err := c.get("/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tip fetches the current chain tip block.
func (c *Client) Tip() (*types.Block, error) {
	var out types.Block
	if err := c.get("/tip", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BlockByIndex fetches a committed block by height.
func (c *Client) BlockByIndex(index uint64) (*types.Block, error) {
	var out types.Block
	q := url.Values{"index": {fmt.Sprintf("%d", index)}}
	if err := c.get("/block", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitTransaction has the node build, sign and submit a transaction that
// spends senderPrivateHex's own UTXOs to pay recipient amount. The private
// key never leaves this call except over the wire to the node that signs
// with it.
func (c *Client) SubmitTransaction(senderPrivateHex, recipient string, amount int64) (string, error) {
	var out submitTxResponse
	req := submitTxRequest{SenderPrivateHex: senderPrivateHex, Recipient: recipient, Amount: amount}
	if err := c.post("/submit_tx", req, &out); err != nil {
		return "", err
	}
	return out.Txid, nil
}

// Pending fetches a snapshot of every mempool transaction.
func (c *Client) Pending() ([]*types.Transaction, error) {
	var out pendingResponse
	if err := c.get("/pending", nil, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// Work fetches a mining template paying miner.
func (c *Client) Work(miner string) (*mining.Template, error) {
	var out mining.Template
	q := url.Values{"miner": {miner}}
	if err := c.get("/work", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitBlock submits a fully mined block.
func (c *Client) SubmitBlock(block *types.Block) error {
	return c.post("/submit_block", submitBlockRequest{Block: block}, nil)
}

// NewWallet requests a freshly generated key pair. The server does not
// retain it; the caller is solely responsible for the returned private key.
func (c *Client) NewWallet() (*walletResponse, error) {
	var out walletResponse
	if err := c.post("/new_wallet", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Derive recovers the public key and address for a hex-encoded private key.
func (c *Client) Derive(privateKeyHex string) (*walletResponse, error) {
	var out walletResponse
	q := url.Values{"private_key_hex": {privateKeyHex}}
	if err := c.get("/derive", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance fetches the confirmed balance of an address and the number of
// unspent outputs backing it.
func (c *Client) Balance(address string) (balance int64, utxoCount int, err error) {
	var out balanceResponse
	q := url.Values{"address": {address}}
	if err := c.get("/balance", q, &out); err != nil {
		return 0, 0, err
	}
	return out.Balance, out.UTXOCount, nil
}

// UTXOs fetches every unspent output paying an address.
func (c *Client) UTXOs(address string) ([]utxo.UTXO, error) {
	var out utxosResponse
	q := url.Values{"address": {address}}
	if err := c.get("/utxos", q, &out); err != nil {
		return nil, err
	}
	return out.UTXOs, nil
}

// MinerStats fetches per-recipient block and reward totals for every
// coinbase committed to the chain, plus this node's local hash count.
func (c *Client) MinerStats() (*minerStatsResponse, error) {
	var out minerStatsResponse
	if err := c.get("/miner_stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
