package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ConfigFileName = ".evmwallet.json"
	DataDirName    = ".evmwallet"
	EnvPrefix      = "EVMWALLET"
)

// ErrNoBackup is returned when a restore finds no backup file.
var ErrNoBackup = errors.New("no backup files found")

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// DefaultRPCURLs are the public Sepolia endpoints tried in order.
var DefaultRPCURLs = []string{
	"wss://ethereum-sepolia-rpc.publicnode.com",
	"https://eth-sepolia.g.alchemy.com/v2/demo",
	"https://sepolia.gateway.tenderly.co",
}

// StoreConfig selects where the wallet credential is persisted.
type StoreConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path,omitempty"`
}

// Config holds the network and application settings.
type Config struct {
	NetworkName           string      `json:"network_name"`
	ChainID               int64       `json:"chain_id"`
	Symbol                string      `json:"symbol"`
	ExplorerURL           string      `json:"explorer_url,omitempty"`
	RPCURLs               []string    `json:"rpc_urls"`
	PollIntervalSeconds   int         `json:"poll_interval_seconds"`
	ReceiptPollSeconds    int         `json:"receipt_poll_seconds"`
	AttemptTimeoutSeconds int         `json:"attempt_timeout_seconds"`
	WaitTimeoutSeconds    int         `json:"wait_timeout_seconds"`
	Confirmations         int         `json:"confirmations"`
	BalanceDecimals       int         `json:"balance_decimals"`
	Store                 StoreConfig `json:"store"`
	LogLevel              string      `json:"log_level,omitempty"`
	LogFile               string      `json:"log_file,omitempty"`
}

// Default returns the Sepolia configuration.
func Default() Config {
	urls := make([]string, len(DefaultRPCURLs))
	copy(urls, DefaultRPCURLs)
	return Config{
		NetworkName:           "Sepolia",
		ChainID:               11155111,
		Symbol:                "ETH",
		ExplorerURL:           "https://sepolia.etherscan.io",
		RPCURLs:               urls,
		PollIntervalSeconds:   30,
		ReceiptPollSeconds:    15,
		AttemptTimeoutSeconds: 10,
		WaitTimeoutSeconds:    120,
		Confirmations:         1,
		BalanceDecimals:       4,
		Store:                 StoreConfig{Backend: StoreFile},
		LogLevel:              "info",
	}
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) ReceiptInterval() time.Duration {
	return time.Duration(c.ReceiptPollSeconds) * time.Second
}

func (c Config) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSeconds) * time.Second
}

func (c Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}

// Problems lists every structural error in the configuration.
func (c Config) Problems() []string {
	var out []string
	if strings.TrimSpace(c.NetworkName) == "" {
		out = append(out, "Network has no name.")
	}
	n := 0
	for _, u := range c.RPCURLs {
		if strings.TrimSpace(u) != "" {
			n++
		}
	}
	if n == 0 {
		out = append(out, fmt.Sprintf("Network '%s' has no RPC URLs.", c.NetworkName))
	}
	if c.PollIntervalSeconds <= 0 {
		out = append(out, "poll_interval_seconds must be positive.")
	}
	if c.ReceiptPollSeconds <= 0 {
		out = append(out, "receipt_poll_seconds must be positive.")
	}
	if c.Confirmations < 1 {
		out = append(out, "confirmations must be at least 1.")
	}
	switch c.Store.Backend {
	case StoreFile, StoreSQLite:
	default:
		out = append(out, fmt.Sprintf("Unknown store backend '%s'.", c.Store.Backend))
	}
	return out
}

// Validate returns the first structural error, if any.
func (c Config) Validate() error {
	if p := c.Problems(); len(p) > 0 {
		return fmt.Errorf("validation failed: %s", p[0])
	}
	return nil
}

// StorePath returns the configured store path or the backend's default.
func (c Config) StorePath() (string, error) {
	return c.Store.ResolvedPath()
}

// ResolvedPath returns Path or the backend's default file under the data
// directory.
func (s StoreConfig) ResolvedPath() (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if s.Backend == StoreSQLite {
		return filepath.Join(dir, "wallet.db"), nil
	}
	return filepath.Join(dir, "wallet.json"), nil
}

// DataDir is the per-user directory holding the wallet and logs.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DataDirName), nil
}

// DefaultLogFile is where the TUI writes logs when none is configured.
func DefaultLogFile() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "evmwallet.log"), nil
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadConfigFromFile reads path. A missing file yields the defaults.
func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}

// LoadConfig decodes a configuration, filling absent fields with defaults.
func LoadConfig(r io.Reader) (Config, error) {
	var raw struct {
		NetworkName           *string      `json:"network_name"`
		ChainID               *int64       `json:"chain_id"`
		Symbol                *string      `json:"symbol"`
		ExplorerURL           *string      `json:"explorer_url"`
		RPCURLs               []string     `json:"rpc_urls"`
		PollIntervalSeconds   *int         `json:"poll_interval_seconds"`
		ReceiptPollSeconds    *int         `json:"receipt_poll_seconds"`
		AttemptTimeoutSeconds *int         `json:"attempt_timeout_seconds"`
		WaitTimeoutSeconds    *int         `json:"wait_timeout_seconds"`
		Confirmations         *int         `json:"confirmations"`
		BalanceDecimals       *int         `json:"balance_decimals"`
		Store                 *StoreConfig `json:"store"`
		LogLevel              *string      `json:"log_level"`
		LogFile               *string      `json:"log_file"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if raw.NetworkName != nil {
		cfg.NetworkName = *raw.NetworkName
	}
	if raw.ChainID != nil {
		cfg.ChainID = *raw.ChainID
	}
	if raw.Symbol != nil {
		cfg.Symbol = *raw.Symbol
	}
	if raw.ExplorerURL != nil {
		cfg.ExplorerURL = *raw.ExplorerURL
	}
	if raw.RPCURLs != nil {
		cfg.RPCURLs = raw.RPCURLs
	}
	if raw.PollIntervalSeconds != nil {
		cfg.PollIntervalSeconds = *raw.PollIntervalSeconds
	}
	if raw.ReceiptPollSeconds != nil {
		cfg.ReceiptPollSeconds = *raw.ReceiptPollSeconds
	}
	if raw.AttemptTimeoutSeconds != nil {
		cfg.AttemptTimeoutSeconds = *raw.AttemptTimeoutSeconds
	}
	if raw.WaitTimeoutSeconds != nil {
		cfg.WaitTimeoutSeconds = *raw.WaitTimeoutSeconds
	}
	if raw.Confirmations != nil {
		cfg.Confirmations = *raw.Confirmations
	}
	if raw.BalanceDecimals != nil {
		cfg.BalanceDecimals = *raw.BalanceDecimals
	}
	if raw.Store != nil {
		if raw.Store.Backend != "" {
			cfg.Store.Backend = raw.Store.Backend
		}
		cfg.Store.Path = raw.Store.Path
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFile != nil {
		cfg.LogFile = *raw.LogFile
	}
	return cfg, nil
}

// SaveConfig validates cfg, backs up the existing file and atomically
// replaces it.
func SaveConfig(cfg Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Backups lists the timestamped backups SaveConfig left next to path,
// oldest first.
func Backups(path string) ([]string, error) {
	matches, err := filepath.Glob(path + ".*.bak")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// RestoreLastBackup puts the newest backup of path back in place and returns
// the backup it used. A backup that no longer decodes is refused.
func RestoreLastBackup(path string) (string, error) {
	backups, err := Backups(path)
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", ErrNoBackup
	}
	latest := backups[len(backups)-1]

	data, err := os.ReadFile(latest)
	if err != nil {
		return "", fmt.Errorf("read backup: %w", err)
	}
	if _, err := LoadConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("backup %s: %w", latest, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", err
	}
	return latest, nil
}

// NewViper returns a viper instance reading EVMWALLET_* environment
// variables. Flags are bound onto it by the command layer.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Overlay applies environment and flag values from v on top of cfg.
func Overlay(cfg *Config, v *viper.Viper) {
	if v.IsSet("network_name") {
		cfg.NetworkName = v.GetString("network_name")
	}
	if v.IsSet("chain_id") {
		cfg.ChainID = v.GetInt64("chain_id")
	}
	if v.IsSet("symbol") {
		cfg.Symbol = v.GetString("symbol")
	}
	if v.IsSet("explorer_url") {
		cfg.ExplorerURL = v.GetString("explorer_url")
	}
	if v.IsSet("rpc_urls") {
		cfg.RPCURLs = splitList(v.GetString("rpc_urls"))
	}
	if v.IsSet("poll_interval_seconds") {
		cfg.PollIntervalSeconds = v.GetInt("poll_interval_seconds")
	}
	if v.IsSet("receipt_poll_seconds") {
		cfg.ReceiptPollSeconds = v.GetInt("receipt_poll_seconds")
	}
	if v.IsSet("confirmations") {
		cfg.Confirmations = v.GetInt("confirmations")
	}
	if s := v.GetString("store_backend"); s != "" {
		cfg.Store.Backend = s
	}
	if s := v.GetString("store_path"); s != "" {
		cfg.Store.Path = s
	}
	if s := v.GetString("log_level"); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString("log_file"); s != "" {
		cfg.LogFile = s
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
