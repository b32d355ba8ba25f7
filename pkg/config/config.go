// Package config loads node configuration from defaults, a file, and
// environment variables, in that order of increasing precedence, via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// NodeConfig holds all configuration for a ledger node.
type NodeConfig struct {
	// Node Identity
	NodeID string

	// Network Configuration
	Network      string   // mainnet, testnet, regtest
	RPCPort      int      // RPC server port
	P2PPort      int      // P2P gossip port
	InitialPeers []string // List of initial peer addresses

	// Storage
	DataDir string // Data directory path

	// Consensus
	GenesisDifficulty int    // Leading hex zeros required of a block hash
	FounderAddress    string // Address credited the founder allocation at genesis

	// Mining Configuration
	MiningEnabled bool          // Enable mining
	MinerAddress  string        // Address to receive mining rewards
	AutoMine      bool          // Automatically mine blocks
	MineInterval  time.Duration // Interval between auto-mining attempts

	// Logging
	LogLevel string // debug, info, warn, error

	// Monitoring
	EnableMonitoring bool // Enable Prometheus metrics endpoint
	MetricsPort      int  // Port the metrics endpoint listens on
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *NodeConfig {
	return &NodeConfig{
		NodeID:            "ledger-node",
		Network:           "regtest",
		RPCPort:           8332,
		P2PPort:           8333,
		DataDir:           "./data/node",
		GenesisDifficulty: 2,
		FounderAddress:    "",
		MiningEnabled:     false,
		MinerAddress:      "",
		AutoMine:          false,
		MineInterval:      10 * time.Second,
		LogLevel:          "info",
		InitialPeers:      []string{},
		EnableMonitoring:  false,
		MetricsPort:       9090,
	}
}

// Load reads configuration from configPath (if non-empty), then from
// environment variables prefixed LEDGER_, with environment variables taking
// precedence. An empty configPath skips the file and leaves defaults and
// environment variables; a configPath that cannot be read is an error.
func Load(configPath string) (*NodeConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	cfg := &NodeConfig{
		NodeID:            v.GetString("node_id"),
		Network:           v.GetString("network"),
		RPCPort:           v.GetInt("rpc_port"),
		P2PPort:           v.GetInt("p2p_port"),
		InitialPeers:      v.GetStringSlice("initial_peers"),
		DataDir:           v.GetString("data_dir"),
		GenesisDifficulty: v.GetInt("genesis_difficulty"),
		FounderAddress:    v.GetString("founder_address"),
		MiningEnabled:     v.GetBool("mining_enabled"),
		MinerAddress:      v.GetString("miner_address"),
		AutoMine:          v.GetBool("auto_mine"),
		MineInterval:      v.GetDuration("mine_interval"),
		LogLevel:          v.GetString("log_level"),
		EnableMonitoring:  v.GetBool("enable_monitoring"),
		MetricsPort:       v.GetInt("metrics_port"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("node_id", d.NodeID)
	v.SetDefault("network", d.Network)
	v.SetDefault("rpc_port", d.RPCPort)
	v.SetDefault("p2p_port", d.P2PPort)
	v.SetDefault("initial_peers", d.InitialPeers)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("genesis_difficulty", d.GenesisDifficulty)
	v.SetDefault("founder_address", d.FounderAddress)
	v.SetDefault("mining_enabled", d.MiningEnabled)
	v.SetDefault("miner_address", d.MinerAddress)
	v.SetDefault("auto_mine", d.AutoMine)
	v.SetDefault("mine_interval", d.MineInterval)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("enable_monitoring", d.EnableMonitoring)
	v.SetDefault("metrics_port", d.MetricsPort)
}

// Validate checks if the configuration is internally consistent.
func (c *NodeConfig) Validate() error {
	validNetworks := map[string]bool{"mainnet": true, "testnet": true, "regtest": true}
	if !validNetworks[c.Network] {
		return fmt.Errorf("invalid network: %s (must be mainnet, testnet, or regtest)", c.Network)
	}

	if c.RPCPort < 1 || c.RPCPort > 65535 {
		return fmt.Errorf("invalid RPC port: %d", c.RPCPort)
	}
	if c.P2PPort < 1 || c.P2PPort > 65535 {
		return fmt.Errorf("invalid P2P port: %d", c.P2PPort)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.GenesisDifficulty < 0 {
		return fmt.Errorf("genesis difficulty cannot be negative: %d", c.GenesisDifficulty)
	}

	if c.MiningEnabled && c.MinerAddress == "" {
		return fmt.Errorf("miner address required when mining is enabled")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// String returns a human-readable summary of the configuration.
func (c *NodeConfig) String() string {
	return fmt.Sprintf(`Ledger Node Configuration:
  Node ID:            %s
  Network:            %s
  RPC Port:           %d
  P2P Port:           %d
  Data Directory:     %s
  Genesis Difficulty: %d
  Founder Address:    %s
  Mining Enabled:     %v
  Miner Address:      %s
  Auto Mine:          %v
  Mine Interval:      %v
  Log Level:          %s
  Initial Peers:      %v
  Enable Monitoring:  %v
  Metrics Port:       %d`,
		c.NodeID, c.Network, c.RPCPort, c.P2PPort, c.DataDir,
		c.GenesisDifficulty, c.FounderAddress,
		c.MiningEnabled, c.MinerAddress, c.AutoMine, c.MineInterval,
		c.LogLevel, c.InitialPeers, c.EnableMonitoring, c.MetricsPort,
	)
}

// RPCAddress returns the RPC listen address.
func (c *NodeConfig) RPCAddress() string {
	return fmt.Sprintf(":%d", c.RPCPort)
}

// P2PAddress returns the P2P listen address.
func (c *NodeConfig) P2PAddress() string {
	return fmt.Sprintf(":%d", c.P2PPort)
}

// MetricsAddress returns the Prometheus metrics listen address.
func (c *NodeConfig) MetricsAddress() string {
	return fmt.Sprintf(":%d", c.MetricsPort)
}
