package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"evmwallet/pkg/config"
	"evmwallet/pkg/endpoint"
	"evmwallet/pkg/logging"
	"evmwallet/pkg/rpc"
	"evmwallet/pkg/session"
	"evmwallet/pkg/store"

	"github.com/rs/zerolog/log"
)

var errAborted = errors.New("aborted")

// app is everything a command needs once the configuration is loaded.
type app struct {
	cfg     config.Config
	cfgPath string
	pool    *endpoint.Pool
	client  *rpc.Client
	store   store.WalletStore
	session *session.Session
	logs    io.Closer
}

// loadConfig reads the config file and applies env and flag overrides.
func (o *rootOptions) loadConfig() (config.Config, string, error) {
	path, err := config.GetConfigPath(o.configPath)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine config path: %w", err)
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config from %s: %w", path, err)
	}
	config.Overlay(&cfg, o.v)
	return cfg, path, nil
}

// setupLogging sends logs to a file when the terminal belongs to the UI and
// to the console otherwise.
func setupLogging(cfg config.Config, toFile bool) (io.Closer, error) {
	opts := logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, PrettyPrintConsole: true}
	if toFile && opts.File == "" {
		f, err := config.DefaultLogFile()
		if err != nil {
			return nil, err
		}
		opts.File = f
	}
	return logging.Setup(opts)
}

func newClient(cfg config.Config) (*endpoint.Pool, *rpc.Client, error) {
	pool, err := endpoint.NewPool(cfg.RPCURLs)
	if err != nil {
		return nil, nil, err
	}
	client := rpc.NewClient(pool, rpc.Config{
		ChainID:        cfg.ChainID,
		AttemptTimeout: cfg.AttemptTimeout(),
		WaitTimeout:    cfg.WaitTimeout(),
		PollInterval:   cfg.ReceiptInterval(),
	})
	return pool, client, nil
}

// newApp wires config, logging, the endpoint pool, the chain client, the
// store and the session, then loads any persisted wallet.
func (o *rootOptions) newApp(ctx context.Context, logToFile bool) (*app, error) {
	cfg, path, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	logs, err := setupLogging(cfg, logToFile)
	if err != nil {
		return nil, err
	}

	pool, client, err := newClient(cfg)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	sess := session.New(client, st, session.Options{
		Network:         cfg.NetworkName,
		ChainID:         cfg.ChainID,
		Symbol:          cfg.Symbol,
		PollInterval:    cfg.PollInterval(),
		ReceiptInterval: cfg.ReceiptInterval(),
	})

	a := &app{
		cfg:     cfg,
		cfgPath: path,
		pool:    pool,
		client:  client,
		store:   st,
		session: sess,
		logs:    logs,
	}
	if _, err := sess.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	log.Debug().
		Str("config", path).
		Str("network", cfg.NetworkName).
		Int("endpoints", pool.Len()).
		Str("store", cfg.Store.Backend).
		Msg("Wallet application ready")
	return a, nil
}

func (a *app) requireWallet() error {
	if !a.session.HasWallet() {
		return fmt.Errorf("%w: run `evmwallet new` or `evmwallet import` first", session.ErrNoWallet)
	}
	return nil
}

// Close stops background work and releases the store and log file.
func (a *app) Close() {
	a.session.Stop()
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close wallet store")
		}
	}
	_ = a.logs.Close()
}

// confirm asks a yes/no question on out and reads the answer from in.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
