// Package session holds the wallet's application state: the loaded
// credential, its balance and transaction ledger, and the background loop
// that keeps them current.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"evmwallet/pkg/keys"
	"evmwallet/pkg/ledger"
	"evmwallet/pkg/metrics"
	"evmwallet/pkg/models"
	"evmwallet/pkg/rpc"
	"evmwallet/pkg/store"
	"evmwallet/pkg/units"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoWallet            = errors.New("no wallet loaded")
	ErrWalletExists        = errors.New("a wallet is already loaded, log out first")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = rpc.ErrInvalidAmount
)

const maxBalanceHistory = 100

// ChainClient is the part of the chain client the session uses.
type ChainClient interface {
	FetchBalance(ctx context.Context, address string) (string, error)
	SendTransaction(ctx context.Context, cred keys.Credential, to, amount string) (rpc.SendResult, error)
	FetchReceipt(ctx context.Context, hash string) (*types.Receipt, error)
	FetchFeeData(ctx context.Context) (models.FeeData, error)
}

// Options describes the network and polling cadence.
type Options struct {
	Network         string
	ChainID         int64
	Symbol          string
	PollInterval    time.Duration
	ReceiptInterval time.Duration
}

// State is a point-in-time copy of the session. It never carries key
// material.
type State struct {
	HasWallet      bool                  `json:"has_wallet"`
	Address        string                `json:"address,omitempty"`
	Network        string                `json:"network"`
	ChainID        int64                 `json:"chain_id"`
	Symbol         string                `json:"symbol"`
	Balance        string                `json:"balance"`
	Loading        bool                  `json:"loading"`
	LastError      string                `json:"last_error,omitempty"`
	FeeData        *models.FeeData       `json:"fee_data,omitempty"`
	Transactions   []models.Transaction  `json:"transactions"`
	BalanceHistory []models.BalancePoint `json:"balance_history"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// Session owns the credential and everything derived from it.
type Session struct {
	client  ChainClient
	store   store.WalletStore
	history store.HistoryStore
	ledger  *ledger.Ledger
	opts    Options

	mu             sync.RWMutex
	cred           *keys.Credential
	balance        string
	loading        bool
	lastErr        string
	fees           *models.FeeData
	balanceHistory []models.BalancePoint
	updatedAt      time.Time

	subMu       sync.RWMutex
	subscribers []Subscriber

	pollMu     sync.Mutex
	baseCtx    context.Context
	running    bool
	cancelPoll context.CancelFunc
}

// New creates a session. The transaction history is persisted when st also
// implements store.HistoryStore.
func New(client ChainClient, st store.WalletStore, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.ReceiptInterval <= 0 {
		opts.ReceiptInterval = 15 * time.Second
	}
	s := &Session{
		client:  client,
		store:   st,
		ledger:  ledger.New(),
		opts:    opts,
		balance: "0",
	}
	if hs, ok := st.(store.HistoryStore); ok {
		s.history = hs
	}
	return s
}

// Load reads the persisted credential once. It reports whether a wallet was
// found.
func (s *Session) Load(ctx context.Context) (bool, error) {
	cred, err := s.store.Load()
	if err != nil {
		s.setError(err)
		return false, err
	}
	if cred == nil {
		return false, nil
	}

	if s.history != nil {
		txs, err := s.history.LoadHistory()
		if err != nil {
			log.Warn().Err(err).Msg("Could not load transaction history")
		} else {
			s.ledger.Restore(txs)
		}
	}

	s.mu.Lock()
	s.cred = cred
	s.balance = "0"
	s.mu.Unlock()

	log.Info().Object("wallet", cred).Msg("Wallet loaded")
	s.notify(Event{Type: EventWalletChanged, Data: cred.Address})
	s.startPoller()
	return true, nil
}

// CreateWallet generates, persists and loads a new credential. The caller
// receives the credential so the key can be shown to the user once.
func (s *Session) CreateWallet() (keys.Credential, error) {
	if s.HasWallet() {
		return keys.Credential{}, ErrWalletExists
	}
	return s.adopt(keys.CreateNew())
}

// ImportWallet parses, persists and loads an existing private key.
func (s *Session) ImportWallet(raw string) (keys.Credential, error) {
	if s.HasWallet() {
		return keys.Credential{}, ErrWalletExists
	}
	cred, err := keys.ImportFromKey(raw)
	if err != nil {
		return keys.Credential{}, err
	}
	return s.adopt(cred)
}

func (s *Session) adopt(cred keys.Credential) (keys.Credential, error) {
	if err := s.store.Save(cred); err != nil {
		return keys.Credential{}, err
	}

	s.mu.Lock()
	c := cred
	s.cred = &c
	s.balance = "0"
	s.lastErr = ""
	s.mu.Unlock()

	log.Info().Object("wallet", cred).Msg("Wallet stored")
	s.notify(Event{Type: EventWalletChanged, Data: cred.Address})
	s.startPoller()
	return cred, nil
}

// Logout removes the persisted credential and resets all wallet state. When
// removal fails nothing in memory changes.
func (s *Session) Logout() error {
	if err := s.store.Remove(); err != nil {
		return err
	}
	s.stopPoller()

	s.mu.Lock()
	s.cred = nil
	s.balance = "0"
	s.loading = false
	s.lastErr = ""
	s.fees = nil
	s.balanceHistory = nil
	s.updatedAt = time.Time{}
	s.mu.Unlock()

	s.ledger.Clear()
	if s.history != nil {
		if err := s.history.ClearHistory(); err != nil {
			log.Warn().Err(err).Msg("Could not clear transaction history")
		}
	}

	log.Info().Msg("Wallet removed")
	s.notify(Event{Type: EventWalletChanged, Data: ""})
	return nil
}

// RefreshBalance fetches the balance on user request. Failures are returned
// and recorded as the last error.
func (s *Session) RefreshBalance(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	err := s.refreshBalance(ctx)

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, ErrNoWallet) {
		s.setError(err)
	}
	return err
}

func (s *Session) refreshBalance(ctx context.Context) error {
	addr := s.Address()
	if addr == "" {
		return ErrNoWallet
	}
	bal, err := s.client.FetchBalance(ctx, addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.cred == nil || s.cred.Address != addr {
		// The wallet changed while the call was in flight.
		s.mu.Unlock()
		return nil
	}
	now := time.Now()
	s.balance = bal
	s.updatedAt = now
	s.balanceHistory = append(s.balanceHistory, models.BalancePoint{Timestamp: now, Value: units.ToFloat(bal)})
	if len(s.balanceHistory) > maxBalanceHistory {
		s.balanceHistory = s.balanceHistory[len(s.balanceHistory)-maxBalanceHistory:]
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventBalanceUpdated, Data: bal})
	return nil
}

// RefreshFees fetches the node's current fee data. A result that arrives
// after the wallet was logged out or replaced is dropped.
func (s *Session) RefreshFees(ctx context.Context) error {
	addr := s.Address()
	if addr == "" {
		return ErrNoWallet
	}
	fees, err := s.client.FetchFeeData(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.cred == nil || s.cred.Address != addr {
		s.mu.Unlock()
		return nil
	}
	s.fees = &fees
	s.mu.Unlock()
	s.notify(Event{Type: EventFeesUpdated, Data: fees})
	return nil
}

// Send validates the transfer against local state, submits it and records it
// as pending. Validation failures never reach the chain client.
func (s *Session) Send(ctx context.Context, to, amount string) (models.Transaction, error) {
	s.mu.RLock()
	var cred keys.Credential
	hasWallet := s.cred != nil
	if hasWallet {
		cred = *s.cred
	}
	balance := s.balance
	s.mu.RUnlock()

	if !hasWallet {
		return models.Transaction{}, ErrNoWallet
	}
	if strings.TrimSpace(to) == "" {
		return models.Transaction{}, rpc.ErrInvalidRecipient
	}
	amt, err := units.ParseAmount(amount)
	if err != nil {
		return models.Transaction{}, ErrInvalidAmount
	}
	if units.Exceeds(amt, balance) {
		return models.Transaction{}, ErrInsufficientBalance
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	res, err := s.client.SendTransaction(ctx, cred, strings.TrimSpace(to), strings.TrimSpace(amount))
	if err != nil {
		s.setError(err)
		return models.Transaction{}, err
	}

	tx := models.Transaction{
		Hash:      res.Hash,
		From:      res.From,
		To:        res.To,
		Value:     res.Value,
		Timestamp: time.Now(),
		Status:    models.StatusPending,
	}

	if s.Address() != cred.Address {
		log.Warn().Str("hash", tx.Hash).Msg("Wallet changed during send, transaction not recorded")
		return tx, nil
	}
	s.ledger.Append(tx)
	s.persistHistory()
	s.notify(Event{Type: EventTransactionsUpdated, Data: s.ledger.List()})

	if err := s.refreshBalance(ctx); err != nil {
		log.Warn().Err(err).Msg("Balance refresh after send failed")
	}
	return tx, nil
}

// Reconcile checks every pending transaction for a receipt. A successful
// receipt confirms the record, a reverted one fails it, and a missing one
// leaves it pending.
func (s *Session) Reconcile(ctx context.Context) error {
	pending := s.ledger.Pending()
	if len(pending) == 0 {
		return nil
	}

	var errs []error
	changed := false
	for _, tx := range pending {
		receipt, err := s.client.FetchReceipt(ctx, tx.Hash)
		if err != nil {
			log.Warn().Err(err).Str("hash", tx.Hash).Msg("Receipt lookup failed")
			errs = append(errs, err)
			continue
		}
		if receipt == nil {
			continue
		}
		status := models.StatusFailed
		if receipt.Status == types.ReceiptStatusSuccessful {
			status = models.StatusConfirmed
		}
		ok := s.ledger.Update(tx.Hash, func(t *models.Transaction) {
			t.Status = status
			if receipt.BlockNumber != nil {
				t.BlockNumber = receipt.BlockNumber.Uint64()
			}
			t.GasUsed = receipt.GasUsed
		})
		if ok {
			changed = true
			metrics.TransactionStatus.WithLabelValues(string(status)).Inc()
			log.Info().Str("hash", tx.Hash).Str("status", string(status)).Msg("Transaction settled")
		}
	}

	if changed {
		s.persistHistory()
		s.notify(Event{Type: EventTransactionsUpdated, Data: s.ledger.List()})
	}
	return errors.Join(errs...)
}

func (s *Session) persistHistory() {
	if s.history == nil {
		return
	}
	if err := s.history.SaveHistory(s.ledger.List()); err != nil {
		log.Warn().Err(err).Msg("Could not persist transaction history")
	}
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.notify(Event{Type: EventError, Data: err.Error()})
}

// HasWallet reports whether a credential is loaded.
func (s *Session) HasWallet() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred != nil
}

// Address returns the loaded wallet's address, or "" when none is loaded.
func (s *Session) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return ""
	}
	return s.cred.Address
}

func (s *Session) Balance() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// Transactions returns the ledger, newest first.
func (s *Session) Transactions() []models.Transaction {
	return s.ledger.List()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		HasWallet:    s.cred != nil,
		Network:      s.opts.Network,
		ChainID:      s.opts.ChainID,
		Symbol:       s.opts.Symbol,
		Balance:      s.balance,
		Loading:      s.loading,
		LastError:    s.lastErr,
		Transactions: s.ledger.List(),
		UpdatedAt:    s.updatedAt,
	}
	if s.cred != nil {
		st.Address = s.cred.Address
	}
	if s.fees != nil {
		f := *s.fees
		st.FeeData = &f
	}
	st.BalanceHistory = make([]models.BalancePoint, len(s.balanceHistory))
	copy(st.BalanceHistory, s.balanceHistory)
	return st
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (s *Session) Subscribe() Subscriber {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	ch := make(Subscriber, 100)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Session) Unsubscribe(ch Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (s *Session) notify(event Event) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, sub := range s.subscribers {
		select {
		case sub <- event:
		default:
			// Slow subscribers miss events; they can always Snapshot.
		}
	}
}
