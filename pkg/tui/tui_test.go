package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"evmwallet/pkg/keys"
	"evmwallet/pkg/models"
	"evmwallet/pkg/rpc"
	"evmwallet/pkg/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey       = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress   = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	testRecipient = "0x000000000000000000000000000000000000dEaD"
)

type fakeWallet struct {
	mu        sync.Mutex
	state     session.State
	sendErr   error
	logoutErr error
	sent      []string
	refreshes int
}

func newFakeWallet(has bool) *fakeWallet {
	st := session.State{Network: "Sepolia", ChainID: 11155111, Symbol: "ETH", Balance: "0"}
	if has {
		st.HasWallet = true
		st.Address = testAddress
		st.Balance = "1.5"
	}
	return &fakeWallet{state: st}
}

func (f *fakeWallet) Snapshot() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeWallet) Subscribe() session.Subscriber { return make(session.Subscriber, 1) }

func (f *fakeWallet) Unsubscribe(session.Subscriber) {}

func (f *fakeWallet) CreateWallet() (keys.Credential, error) {
	cred := keys.CreateNew()
	f.mu.Lock()
	f.state.HasWallet = true
	f.state.Address = cred.Address
	f.mu.Unlock()
	return cred, nil
}

func (f *fakeWallet) ImportWallet(raw string) (keys.Credential, error) {
	cred, err := keys.ImportFromKey(raw)
	if err != nil {
		return keys.Credential{}, err
	}
	f.mu.Lock()
	f.state.HasWallet = true
	f.state.Address = cred.Address
	f.mu.Unlock()
	return cred, nil
}

func (f *fakeWallet) Send(_ context.Context, to, amount string) (models.Transaction, error) {
	if f.sendErr != nil {
		return models.Transaction{}, f.sendErr
	}
	tx := models.Transaction{Hash: "0xabc123abc123abc123", From: testAddress, To: to, Value: amount, Status: models.StatusPending}
	f.mu.Lock()
	f.sent = append(f.sent, to+":"+amount)
	f.state.Transactions = append([]models.Transaction{tx}, f.state.Transactions...)
	f.mu.Unlock()
	return tx, nil
}

func (f *fakeWallet) RefreshBalance(context.Context) error {
	f.mu.Lock()
	f.refreshes++
	f.mu.Unlock()
	return nil
}

func (f *fakeWallet) Reconcile(context.Context) error { return nil }

func (f *fakeWallet) Logout() error {
	if f.logoutErr != nil {
		return f.logoutErr
	}
	f.mu.Lock()
	f.state = session.State{Network: f.state.Network, Symbol: f.state.Symbol, Balance: "0"}
	f.mu.Unlock()
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(model)
	require.True(t, ok)
	return out
}

func TestInitialScreen(t *testing.T) {
	m := initialModel(context.Background(), newFakeWallet(false), Options{})
	assert.Equal(t, screenSetup, m.screen)
	assert.Equal(t, 4, m.opts.BalanceDecimals)

	m = initialModel(context.Background(), newFakeWallet(true), Options{BalanceDecimals: 2})
	assert.Equal(t, screenMain, m.screen)
	assert.Equal(t, "1.50", m.displayBalance())
}

func TestCreateWalletShowsKeyOnce(t *testing.T) {
	w := newFakeWallet(false)
	m := initialModel(context.Background(), w, Options{})

	m, cmd := m.handleKey(runes("n"))
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	msg := cmd()
	ready, ok := msg.(walletReadyMsg)
	require.True(t, ok)
	require.NoError(t, ready.err)

	m = update(t, m, msg)
	assert.Equal(t, screenShowKey, m.screen)
	assert.Equal(t, ready.cred.PrivateKey, m.newKey)
	assert.Contains(t, m.View(), ready.cred.PrivateKey)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, screenMain, m.screen)
	assert.Empty(t, m.newKey)
	assert.NotContains(t, m.View(), ready.cred.PrivateKey)
}

func TestImportWallet(t *testing.T) {
	t.Run("valid key goes straight to main", func(t *testing.T) {
		m := initialModel(context.Background(), newFakeWallet(false), Options{})
		m = update(t, m, runes("i"))
		require.Equal(t, screenImport, m.screen)

		m.importInput.SetValue(testKey)
		m, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)

		m = update(t, m, cmd())
		assert.Equal(t, screenMain, m.screen)
		assert.Equal(t, testAddress, m.state.Address)
		assert.Empty(t, m.importInput.Value())
		assert.Empty(t, m.newKey)
	})

	t.Run("bad key stays on import screen", func(t *testing.T) {
		m := initialModel(context.Background(), newFakeWallet(false), Options{})
		m = update(t, m, runes("i"))
		m.importInput.SetValue("not-a-key")
		m, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)

		m = update(t, m, cmd())
		assert.Equal(t, screenImport, m.screen)
		assert.True(t, m.statusIsErr)
		assert.Equal(t, "Invalid private key format", m.statusMessage)
	})

	t.Run("esc returns to setup", func(t *testing.T) {
		m := initialModel(context.Background(), newFakeWallet(false), Options{})
		m = update(t, m, runes("i"))
		m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, screenSetup, m.screen)
	})
}

func TestValidateSendInputs(t *testing.T) {
	tests := []struct {
		name    string
		to      string
		amount  string
		balance string
		want    error
	}{
		{"ok", testRecipient, "0.5", "1.5", nil},
		{"empty recipient", "  ", "0.5", "1.5", errEmptyRecipient},
		{"bad recipient", "0x123", "0.5", "1.5", rpc.ErrInvalidRecipient},
		{"bad amount", testRecipient, "abc", "1.5", session.ErrInvalidAmount},
		{"zero amount", testRecipient, "0", "1.5", session.ErrInvalidAmount},
		{"too much", testRecipient, "2", "1.5", session.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSendInputs(tt.to, tt.amount, tt.balance)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFriendlyError(t *testing.T) {
	assert.Equal(t, "Insufficient balance", friendlyError(session.ErrInsufficientBalance))
	assert.Equal(t, "Invalid recipient address", friendlyError(rpc.ErrInvalidRecipient))
	assert.Equal(t, "All RPC endpoints failed, try again later",
		friendlyError(errors.Join(rpc.ErrAllEndpointsExhausted, errors.New("boom"))))
	assert.Equal(t, "boom", friendlyError(errors.New("boom")))
}

func TestSendFlow(t *testing.T) {
	w := newFakeWallet(true)
	m := initialModel(context.Background(), w, Options{})

	m = update(t, m, runes("2"))
	require.Equal(t, tabSend, m.tab)
	require.True(t, m.editingSend)

	m.sendInputs[0].SetValue(testRecipient)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, m.sendFocus)

	m.sendInputs[1].SetValue("0.25")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.confirmingSend)
	assert.Contains(t, m.View(), "Send 0.25 ETH")

	m, cmd := m.handleKey(runes("y"))
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.False(t, m.confirmingSend)

	m = update(t, m, cmd())
	assert.False(t, m.busy)
	assert.Equal(t, tabHistory, m.tab)
	assert.Equal(t, []string{testRecipient + ":0.25"}, w.sent)
	require.Len(t, m.state.Transactions, 1)
	assert.Empty(t, m.sendInputs[0].Value())
}

func TestSendRejectedBeforeConfirm(t *testing.T) {
	m := initialModel(context.Background(), newFakeWallet(true), Options{})
	m = update(t, m, runes("2"))
	m.sendInputs[0].SetValue(testRecipient)
	m.sendInputs[1].SetValue("9")
	m.sendFocus = 1

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.confirmingSend)
	assert.Equal(t, "Insufficient balance", m.statusMessage)
}

func TestSendFailureKeepsForm(t *testing.T) {
	w := newFakeWallet(true)
	w.sendErr = rpc.ErrAllEndpointsExhausted
	m := initialModel(context.Background(), w, Options{})
	m.tab = tabSend
	m.sendInputs[0].SetValue(testRecipient)
	m.sendInputs[1].SetValue("0.1")

	m = update(t, m, m.sendCmd(testRecipient, "0.1")())
	assert.True(t, m.statusIsErr)
	assert.Contains(t, m.statusMessage, "All RPC endpoints failed")
	assert.Equal(t, testRecipient, m.sendInputs[0].Value())
	assert.Equal(t, tabSend, m.tab)
}

func TestLogoutFlow(t *testing.T) {
	w := newFakeWallet(true)
	m := initialModel(context.Background(), w, Options{})

	m = update(t, m, runes("L"))
	require.True(t, m.confirmingLogout)

	m = update(t, m, runes("n"))
	assert.False(t, m.confirmingLogout)
	assert.Equal(t, screenMain, m.screen)

	m = update(t, m, runes("L"))
	m, cmd := m.handleKey(runes("y"))
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	assert.Equal(t, screenSetup, m.screen)
	assert.False(t, m.state.HasWallet)
}

func TestLogoutFailureStaysOnMain(t *testing.T) {
	w := newFakeWallet(true)
	w.logoutErr = errors.New("disk full")
	m := initialModel(context.Background(), w, Options{})
	m.confirmingLogout = true

	m = update(t, m, m.logoutCmd()())
	assert.Equal(t, screenMain, m.screen)
	assert.True(t, m.statusIsErr)
	assert.True(t, m.state.HasWallet)
}

func TestSessionEventReturnsToSetup(t *testing.T) {
	w := newFakeWallet(true)
	m := initialModel(context.Background(), w, Options{})
	require.NoError(t, w.Logout())

	m = update(t, m, session.Event{Type: session.EventWalletChanged})
	assert.Equal(t, screenSetup, m.screen)
}

func TestHistoryNavigation(t *testing.T) {
	w := newFakeWallet(true)
	w.state.Transactions = []models.Transaction{
		{Hash: "0x01", To: testRecipient, Value: "0.1", Status: models.StatusPending},
		{Hash: "0x02", To: testRecipient, Value: "0.2", Status: models.StatusConfirmed, BlockNumber: 42},
	}

	var opened string
	origBrowse := browse
	browse = func(url string) error { opened = url; return nil }
	defer func() { browse = origBrowse }()

	m := initialModel(context.Background(), w, Options{ExplorerURL: "https://sepolia.etherscan.io"})
	m = update(t, m, runes("3"))
	m = update(t, m, runes("j"))
	assert.Equal(t, 1, m.txListIdx)
	m = update(t, m, runes("j"))
	assert.Equal(t, 1, m.txListIdx)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.showTxDetail)
	assert.Contains(t, m.View(), "Block:     42")

	m = update(t, m, runes("o"))
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0x02", opened)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showTxDetail)
	m = update(t, m, runes("k"))
	assert.Equal(t, 0, m.txListIdx)
}

func TestCopyAddress(t *testing.T) {
	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	defer func() { copyToClipboard = orig }()

	m := initialModel(context.Background(), newFakeWallet(true), Options{})
	m = update(t, m, runes("c"))
	assert.Equal(t, testAddress, copied)
	assert.Equal(t, "Address copied to clipboard!", m.statusMessage)
}

func TestWalletViewRendersGraph(t *testing.T) {
	w := newFakeWallet(true)
	w.state.BalanceHistory = []models.BalancePoint{{Value: 1}, {Value: 1.5}, {Value: 1.2}}
	m := initialModel(context.Background(), w, Options{})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	view := m.View()
	assert.Contains(t, view, "Balance history (ETH)")
	assert.Contains(t, view, testAddress)
	assert.False(t, strings.Contains(view, testKey))
}
