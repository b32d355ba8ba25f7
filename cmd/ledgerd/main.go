// Command ledgerd runs a full ledger node: durable storage, the consensus
// core, the P2P gossip surface, the JSON RPC surface, and (optionally) an
// auto-mining loop, wired together and shut down on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/canonical"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/config"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/ledger"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/metrics"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/mining"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/monitoring"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/network"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/rpc"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/storage"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

// node wires every long-lived component together and governs their
// combined lifecycle.
type node struct {
	cfg *config.NodeConfig
	log *monitoring.Logger

	store     *storage.ChainStore
	chain     *ledger.Ledger
	rpcSrv    *rpc.Server
	p2pSrv    *network.Server
	miner     *mining.MinerStats
	metrics   *metrics.Registry
	metricSrv *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// metricsFor builds a metrics registry for cfg. The registry is always
// created (the ledger unconditionally records into it); whether it is
// actually exposed over HTTP is gated by cfg.EnableMonitoring.
func metricsFor(cfg *config.NodeConfig) *metrics.Registry {
	return metrics.New()
}

func main() {
	configPath := flag.String("config", "", "path to a node configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	n, err := newNode(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize node: %v\n", err)
		os.Exit(1)
	}

	n.log.Info("=== ledgerd starting ===")
	n.log.Info(cfg.String())

	if err := n.start(); err != nil {
		n.log.Fatalf("start node: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	n.log.Info("shutdown signal received, stopping node...")
	n.stop()
	n.log.Info("node stopped gracefully")
}

func newNode(cfg *config.NodeConfig) (*node, error) {
	ctx, cancel := context.WithCancel(context.Background())

	log := monitoring.NewLogger(parseLogLevel(cfg.LogLevel))

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open chain store: %w", err)
	}

	reg := metricsFor(cfg)

	chain, err := ledger.Open(store, cfg.GenesisDifficulty, cfg.FounderAddress, nil, reg, log)
	if err != nil {
		store.Close()
		cancel()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	p2pSrv := network.NewServer(cfg, chain, log)
	miner := &mining.MinerStats{}
	rpcSrv := rpc.NewServer(chain, miner, p2pSrv.Node(), log)

	return &node{
		cfg:     cfg,
		log:     log,
		store:   store,
		chain:   chain,
		rpcSrv:  rpcSrv,
		p2pSrv:  p2pSrv,
		miner:   miner,
		metrics: reg,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// startMetricsServer exposes the node's Prometheus registry over HTTP.
// Failures are logged, not fatal: monitoring is an operational aid, not a
// consensus dependency.
func (n *node) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", n.metrics.Handler())
	n.metricSrv = &http.Server{Addr: n.cfg.MetricsAddress(), Handler: mux}
	go func() {
		if err := n.metricSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.log.Errorf("metrics server: %v", err)
		}
	}()
	n.log.Infof("metrics listening on %s", n.cfg.MetricsAddress())
}

func (n *node) start() error {
	if err := n.p2pSrv.Start(); err != nil {
		return fmt.Errorf("start p2p server: %w", err)
	}
	n.log.Infof("p2p listening on %s", n.cfg.P2PAddress())

	if err := n.rpcSrv.Start(n.cfg.RPCAddress()); err != nil {
		return fmt.Errorf("start rpc server: %w", err)
	}
	n.log.Infof("rpc listening on %s", n.cfg.RPCAddress())

	if n.cfg.EnableMonitoring {
		n.startMetricsServer()
	}

	if n.cfg.MiningEnabled && n.cfg.AutoMine {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.autoMineLoop()
		}()
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.statusLoop()
	}()

	return nil
}

func (n *node) stop() {
	n.cancel()
	n.p2pSrv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.rpcSrv.Stop(ctx); err != nil {
		n.log.Warnf("rpc server shutdown: %v", err)
	}
	if n.metricSrv != nil {
		if err := n.metricSrv.Shutdown(ctx); err != nil {
			n.log.Warnf("metrics server shutdown: %v", err)
		}
	}

	n.wg.Wait()

	if err := n.store.Close(); err != nil {
		n.log.Warnf("close chain store: %v", err)
	}
}

// autoMineLoop builds a work template from the mempool, searches for a
// valid nonce, and submits the result through the same admission path any
// external miner's submit_block call would use.
func (n *node) autoMineLoop() {
	n.log.Infof("auto-mining started (interval %v)", n.cfg.MineInterval)
	ticker := time.NewTicker(n.cfg.MineInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			if err := n.mineOnce(); err != nil {
				n.log.Warnf("mine block: %v", err)
			}
		}
	}
}

func (n *node) mineOnce() error {
	tmpl := n.chain.GetWork(n.cfg.MinerAddress)

	coinbase := mining.BuildCoinbase(tmpl.Height, tmpl.Reward, tmpl.Fees, tmpl.MinerAddress)
	txid, err := canonical.TxID(&coinbase)
	if err != nil {
		return fmt.Errorf("coinbase txid: %w", err)
	}
	coinbase.Txid = txid

	header, transactions, err := mining.Assemble(tmpl, coinbase, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("assemble block: %w", err)
	}

	solved, hash, err := mining.Solve(n.ctx, header, 100000, func(s mining.Stats) {
		n.miner.RecordAttempts(100000)
		n.metrics.HashesComputed.Add(100000)
	})
	if err != nil {
		return fmt.Errorf("solve proof of work: %w", err)
	}

	block := &types.Block{BlockHeader: solved, Hash: hash, Transactions: transactions}
	if err := n.chain.SubmitBlock(block); err != nil {
		return fmt.Errorf("submit mined block: %w", err)
	}

	n.miner.RecordBlock()
	n.metrics.BlocksMined.Inc()
	n.p2pSrv.Node().BroadcastBlock(block)
	n.log.Infof("mined block %d: %s (nonce %d)", block.Index, block.Hash, block.Nonce)
	return nil
}

func (n *node) statusLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.log.Infof("status: height=%d tip=%s pending=%d",
				n.chain.Height(), n.chain.Tip(), n.chain.PendingCount())
		}
	}
}

func parseLogLevel(level string) monitoring.LogLevel {
	switch level {
	case "debug":
		return monitoring.DEBUG
	case "warn":
		return monitoring.WARN
	case "error":
		return monitoring.ERROR
	default:
		return monitoring.INFO
	}
}
