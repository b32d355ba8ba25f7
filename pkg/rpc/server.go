// Package rpc serves the node's JSON-over-HTTP control surface: chain
// inspection, transaction and block submission, mining work templates, and
// ephemeral key generation. It holds no wallet state of its own; every key
// operation works on material the caller supplies or that is generated and
// returned on the spot.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/keys"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/ledger"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/mining"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/monitoring"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/utxo"
)

// Broadcaster relays admitted blocks and transactions to the gossip
// network. The network Node satisfies this; a nil Broadcaster is valid
// and simply skips relaying (useful for a single, isolated node).
type Broadcaster interface {
	BroadcastBlock(*types.Block)
	BroadcastTransaction(*types.Transaction)
}

// Server exposes the ledger over HTTP.
type Server struct {
	ledger *ledger.Ledger
	miner  *mining.MinerStats
	bcast  Broadcaster
	log    *monitoring.Logger

	http *http.Server
}

// NewServer builds an RPC server over l. miner may be nil (miner_stats
// reports a zero hash count); bcast may be nil (submissions are accepted but not
// relayed).
func NewServer(l *ledger.Ledger, miner *mining.MinerStats, bcast Broadcaster, log *monitoring.Logger) *Server {
	return &Server{ledger: l, miner: miner, bcast: bcast, log: log}
}

// Handler builds the request multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/tip", s.handleTip)
	mux.HandleFunc("/block", s.handleBlockByIndex)
	mux.HandleFunc("/submit_tx", s.handleSubmitTx)
	mux.HandleFunc("/pending", s.handlePending)
	mux.HandleFunc("/work", s.handleWork)
	mux.HandleFunc("/submit_block", s.handleSubmitBlock)
	mux.HandleFunc("/new_wallet", s.handleNewWallet)
	mux.HandleFunc("/derive", s.handleDerive)
	mux.HandleFunc("/balance", s.handleBalance)
	mux.HandleFunc("/utxos", s.handleUTXOs)
	mux.HandleFunc("/miner_stats", s.handleMinerStats)
	return mux
}

// Start begins serving on addr in the background.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("rpc server: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type infoResponse struct {
	Height            uint64 `json:"height"`
	Tip               string `json:"tip"`
	Difficulty        int    `json:"difficulty"`
	Reward            int64  `json:"reward"`
	CirculatingSupply int64  `json:"circulating_supply"`
	PendingCount      int    `json:"pending_count"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Height:            s.ledger.Height(),
		Tip:               s.ledger.Tip(),
		Difficulty:        s.ledger.Difficulty(),
		Reward:            s.ledger.Reward(),
		CirculatingSupply: s.ledger.CirculatingSupply(),
		PendingCount:      s.ledger.PendingCount(),
	})
}

func (s *Server) handleTip(w http.ResponseWriter, r *http.Request) {
	height := s.ledger.Height()
	if height == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("chain has no blocks"))
		return
	}
	block, err := s.ledger.GetBlockByIndex(height - 1)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleBlockByIndex(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(r.URL.Query().Get("index"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid or missing index: %w", err))
		return
	}
	block, err := s.ledger.GetBlockByIndex(index)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

type submitTxRequest struct {
	SenderPrivateHex string `json:"sender_private_hex"`
	Recipient        string `json:"recipient"`
	Amount           int64  `json:"amount"`
}

type submitTxResponse struct {
	Txid string `json:"txid"`
}

// handleSubmitTx builds and signs a transaction spending the sender's own
// UTXOs, then submits it: the caller never hands over an already-built
// transaction, only the private key, recipient and amount.
func (s *Server) handleSubmitTx(w http.ResponseWriter, r *http.Request) {
	var req submitTxRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.SenderPrivateHex == "" || req.Recipient == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("sender_private_hex and recipient are required"))
		return
	}

	senderPriv, err := keys.DeriveFromPrivateHex(req.SenderPrivateHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tx, err := s.ledger.CreateTransaction(senderPriv, req.Recipient, req.Amount, time.Now().Unix())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.ledger.SubmitTransaction(tx); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if s.bcast != nil {
		s.bcast.BroadcastTransaction(tx)
	}
	writeJSON(w, http.StatusOK, submitTxResponse{Txid: tx.Txid})
}

type pendingResponse struct {
	Transactions []*types.Transaction `json:"transactions"`
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pendingResponse{Transactions: s.ledger.Pending()})
}

func (s *Server) handleWork(w http.ResponseWriter, r *http.Request) {
	miner := r.URL.Query().Get("miner")
	if miner == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("miner address is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.GetWork(miner))
}

type submitBlockRequest struct {
	Block *types.Block `json:"block"`
}

func (s *Server) handleSubmitBlock(w http.ResponseWriter, r *http.Request) {
	var req submitBlockRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Block == nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("block is required"))
		return
	}
	if err := s.ledger.SubmitBlock(req.Block); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if s.bcast != nil {
		s.bcast.BroadcastBlock(req.Block)
	}
	if s.miner != nil {
		s.miner.RecordBlock()
	}
	writeJSON(w, http.StatusOK, req.Block)
}

type walletResponse struct {
	PrivateKeyHex string `json:"private_key_hex"`
	PublicKeyHex  string `json:"public_key_hex"`
	Address       string `json:"address"`
}

func (s *Server) handleNewWallet(w http.ResponseWriter, r *http.Request) {
	priv, err := keys.GenerateKeyPair()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{
		PrivateKeyHex: priv.Hex(),
		PublicKeyHex:  priv.PublicKey().Hex(),
		Address:       priv.PublicKey().Address(),
	})
}

type deriveRequest struct {
	PrivateKeyHex string `json:"private_key_hex"`
}

func (s *Server) handleDerive(w http.ResponseWriter, r *http.Request) {
	privHex := r.URL.Query().Get("private_key_hex")
	if privHex == "" && r.Method == http.MethodPost {
		var req deriveRequest
		if err := readJSON(r, &req); err == nil {
			privHex = req.PrivateKeyHex
		}
	}
	if privHex == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("private_key_hex is required"))
		return
	}
	priv, err := keys.DeriveFromPrivateHex(privHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{
		PrivateKeyHex: priv.Hex(),
		PublicKeyHex:  priv.PublicKey().Hex(),
		Address:       priv.PublicKey().Address(),
	})
}

type balanceResponse struct {
	Address   string `json:"address"`
	Balance   int64  `json:"balance"`
	UTXOCount int    `json:"utxo_count"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("address")
	if addr == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("address is required"))
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Address:   addr,
		Balance:   s.ledger.Balance(addr),
		UTXOCount: len(s.ledger.UTXOs(addr)),
	})
}

type utxosResponse struct {
	Address string      `json:"address"`
	UTXOs   []utxo.UTXO `json:"utxos"`
}

func (s *Server) handleUTXOs(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("address")
	if addr == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("address is required"))
		return
	}
	writeJSON(w, http.StatusOK, utxosResponse{Address: addr, UTXOs: s.ledger.UTXOs(addr)})
}

type minerStatsResponse struct {
	Miners         []ledger.MinerEntry `json:"miners"`
	HashesComputed int64               `json:"hashes_computed"`
	Difficulty     int                 `json:"difficulty"`
	Reward         int64               `json:"reward"`
}

// handleMinerStats reports, per coinbase recipient address, how many
// blocks it has been credited and the cumulative reward paid to it. This
// is the per-recipient ledger view; hashes_computed is this node's own
// local search effort and is unrelated to any particular recipient.
func (s *Server) handleMinerStats(w http.ResponseWriter, r *http.Request) {
	miners, err := s.ledger.MinerStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	var hashesComputed int64
	if s.miner != nil {
		_, hashesComputed = s.miner.Snapshot()
	}
	writeJSON(w, http.StatusOK, minerStatsResponse{
		Miners:         miners,
		HashesComputed: hashesComputed,
		Difficulty:     s.ledger.Difficulty(),
		Reward:         s.ledger.Reward(),
	})
}

func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is required")
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":"encode response: %s"}`, err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
