package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"evmwallet/pkg/keys"
	"evmwallet/pkg/metrics"
	"evmwallet/pkg/models"
	"evmwallet/pkg/units"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
)

// TransferGasLimit is the gas limit of a plain value transfer.
const TransferGasLimit uint64 = 21000

var (
	ErrInvalidRecipient      = errors.New("invalid recipient address")
	ErrInvalidAddress        = errors.New("invalid account address")
	ErrInvalidAmount         = units.ErrInvalidAmount
	ErrAllEndpointsExhausted = errors.New("all RPC endpoints failed")
)

// ExhaustedError is returned when every endpoint in the pool failed once.
type ExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %v after %d attempts: %v", e.Op, ErrAllEndpointsExhausted, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrAllEndpointsExhausted, e.Last}
}

// Backend is the part of *ethclient.Client the wallet uses.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Dialer opens a Backend for one endpoint URL.
type Dialer func(ctx context.Context, url string) (Backend, error)

// DialEthClient dials an endpoint with go-ethereum's ethclient.
func DialEthClient(ctx context.Context, url string) (Backend, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EndpointPool hands out the current endpoint and rotates on failure.
type EndpointPool interface {
	Current() string
	Rotate()
	Len() int
}

// Config tunes the chain client.
type Config struct {
	// ChainID used for signing. Zero means ask the endpoint.
	ChainID        int64
	AttemptTimeout time.Duration
	WaitTimeout    time.Duration
	PollInterval   time.Duration
}

func (c Config) withDefaults() Config {
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 10 * time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 2 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 4 * time.Second
	}
	return c
}

// SendResult describes a transfer accepted by a node.
type SendResult struct {
	Hash  string `json:"hash"`
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

// Client runs chain operations against one endpoint at a time, moving to the
// next endpoint of the pool when an attempt fails.
type Client struct {
	pool EndpointPool
	dial Dialer
	cfg  Config
}

func NewClient(pool EndpointPool, cfg Config) *Client {
	return &Client{
		pool: pool,
		dial: DialEthClient,
		cfg:  cfg.withDefaults(),
	}
}

// SetDialer allows overriding how endpoints are dialed (useful for testing).
func (c *Client) SetDialer(d Dialer) {
	c.dial = d
}

// withFallback makes at most one attempt per endpoint, starting at the pool's
// current cursor and rotating after every failure.
func withFallback[T any](ctx context.Context, c *Client, op string, fn func(ctx context.Context, b Backend) (T, error)) (T, error) {
	var zero T
	var lastErr error
	attempts := 0
	for i := 0; i < c.pool.Len(); i++ {
		url := c.pool.Current()
		attempts++
		res, err := attempt(ctx, c, url, fn)
		if err == nil {
			metrics.RPCAttempts.WithLabelValues(op, url, "ok").Inc()
			return res, nil
		}
		metrics.RPCAttempts.WithLabelValues(op, url, "error").Inc()
		lastErr = err
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		c.pool.Rotate()
		metrics.RPCRotations.Inc()
		log.Warn().
			Str("op", op).
			Str("failed", url).
			Str("next", c.pool.Current()).
			Err(err).
			Msg("RPC attempt failed, rotating endpoint")
	}
	metrics.RPCExhausted.WithLabelValues(op).Inc()
	return zero, &ExhaustedError{Op: op, Attempts: attempts, Last: lastErr}
}

func attempt[T any](ctx context.Context, c *Client, url string, fn func(ctx context.Context, b Backend) (T, error)) (T, error) {
	var zero T
	actx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	b, err := c.dial(actx, url)
	if err != nil {
		return zero, fmt.Errorf("dial %s: %w", url, err)
	}
	defer b.Close()
	return fn(actx, b)
}

// FetchBalance returns the balance of address in ether.
func (c *Client) FetchBalance(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	account := common.HexToAddress(address)
	return withFallback(ctx, c, "fetch_balance", func(ctx context.Context, b Backend) (string, error) {
		wei, err := b.BalanceAt(ctx, account, nil)
		if err != nil {
			return "", err
		}
		return units.FormatEther(wei), nil
	})
}

// FetchFeeData returns the node's gas price, tip cap and derived fee cap.
func (c *Client) FetchFeeData(ctx context.Context) (models.FeeData, error) {
	return withFallback(ctx, c, "fetch_fee_data", feeData)
}

func feeData(ctx context.Context, b Backend) (models.FeeData, error) {
	gasPrice, err := b.SuggestGasPrice(ctx)
	if err != nil {
		return models.FeeData{}, err
	}
	tip, err := b.SuggestGasTipCap(ctx)
	if err != nil {
		return models.FeeData{}, err
	}
	head, err := b.HeaderByNumber(ctx, nil)
	if err != nil {
		return models.FeeData{}, err
	}

	// maxFee = 2 * baseFee + tip, falling back to the legacy gas price on
	// pre-London chains.
	maxFee := new(big.Int).Set(gasPrice)
	if head.BaseFee != nil {
		maxFee = new(big.Int).Mul(head.BaseFee, big.NewInt(2))
		maxFee.Add(maxFee, tip)
	}
	return models.FeeData{
		GasPrice:             gasPrice,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
	}, nil
}

// SendTransaction signs and submits a value transfer from cred to the
// recipient. Recipient and amount are validated before any endpoint is
// contacted.
func (c *Client) SendTransaction(ctx context.Context, cred keys.Credential, to, amount string) (SendResult, error) {
	to = strings.TrimSpace(to)
	if !IsValidAddress(to) {
		return SendResult{}, ErrInvalidRecipient
	}
	value, err := units.ParseEther(amount)
	if err != nil {
		return SendResult{}, err
	}
	key, err := cred.PrivateKeyECDSA()
	if err != nil {
		return SendResult{}, err
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	toAddr := common.HexToAddress(to)

	res, err := withFallback(ctx, c, "send_transaction", func(ctx context.Context, b Backend) (SendResult, error) {
		chainID, err := c.chainID(ctx, b)
		if err != nil {
			return SendResult{}, err
		}
		nonce, err := b.PendingNonceAt(ctx, from)
		if err != nil {
			return SendResult{}, err
		}
		fees, err := feeData(ctx, b)
		if err != nil {
			return SendResult{}, err
		}

		tx := types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: fees.MaxPriorityFeePerGas,
			GasFeeCap: fees.MaxFeePerGas,
			Gas:       TransferGasLimit,
			To:        &toAddr,
			Value:     value,
		})
		signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
		if err != nil {
			return SendResult{}, err
		}
		if err := b.SendTransaction(ctx, signed); err != nil && !isAlreadyKnown(err) {
			return SendResult{}, err
		}
		return SendResult{
			Hash:  signed.Hash().Hex(),
			From:  from.Hex(),
			To:    toAddr.Hex(),
			Value: strings.TrimSpace(amount),
		}, nil
	})
	if err != nil {
		return SendResult{}, err
	}
	metrics.TransactionsSubmitted.Inc()
	log.Info().Str("hash", res.Hash).Str("from", res.From).Str("to", res.To).Str("value", res.Value).Msg("Transaction sent")
	return res, nil
}

func (c *Client) chainID(ctx context.Context, b Backend) (*big.Int, error) {
	if c.cfg.ChainID != 0 {
		return big.NewInt(c.cfg.ChainID), nil
	}
	return b.ChainID(ctx)
}

// FetchReceipt returns the receipt for hash, or nil when the transaction has
// not been mined yet.
func (c *Client) FetchReceipt(ctx context.Context, hash string) (*types.Receipt, error) {
	txHash := common.HexToHash(hash)
	return withFallback(ctx, c, "fetch_receipt", func(ctx context.Context, b Backend) (*types.Receipt, error) {
		receipt, err := b.TransactionReceipt(ctx, txHash)
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return receipt, err
	})
}

// BlockNumber returns the latest block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return withFallback(ctx, c, "block_number", func(ctx context.Context, b Backend) (uint64, error) {
		return b.BlockNumber(ctx)
	})
}

// WaitForConfirmation blocks until hash has the requested number of
// confirmations. It returns nil when the wait times out or fails, so callers
// can treat "no receipt yet" as a normal outcome.
func (c *Client) WaitForConfirmation(ctx context.Context, hash string, confirmations int) *types.Receipt {
	if confirmations < 1 {
		confirmations = 1
	}
	wctx, cancel := context.WithTimeout(ctx, c.cfg.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.FetchReceipt(wctx, hash)
		if err != nil {
			log.Error().Err(err).Str("hash", hash).Msg("Error waiting for transaction")
			return nil
		}
		if receipt != nil && receipt.BlockNumber != nil {
			if confirmations == 1 {
				return receipt
			}
			head, err := c.BlockNumber(wctx)
			if err != nil {
				log.Error().Err(err).Str("hash", hash).Msg("Error waiting for transaction")
				return nil
			}
			if head+1 >= receipt.BlockNumber.Uint64()+uint64(confirmations) {
				return receipt
			}
		}

		select {
		case <-wctx.Done():
			log.Debug().Str("hash", hash).Msg("Stopped waiting for transaction")
			return nil
		case <-ticker.C:
		}
	}
}

// IsValidAddress accepts 20-byte hex addresses. Mixed-case input must carry a
// valid EIP-55 checksum.
func IsValidAddress(addr string) bool {
	if !common.IsHexAddress(addr) {
		return false
	}
	raw := addr
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
	}
	if raw == strings.ToLower(raw) || raw == strings.ToUpper(raw) {
		return true
	}
	return common.HexToAddress(addr).Hex()[2:] == raw
}

func isAlreadyKnown(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction")
}
