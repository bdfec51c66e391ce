package tui

import (
	"errors"
	"strings"
	"time"

	"evmwallet/pkg/keys"
	"evmwallet/pkg/models"
	"evmwallet/pkg/rpc"
	"evmwallet/pkg/session"
	"evmwallet/pkg/units"

	tea "github.com/charmbracelet/bubbletea"
)

var errEmptyRecipient = errors.New("recipient address is required")

func listenForSession(sub session.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m model) createWalletCmd() tea.Cmd {
	w := m.wallet
	return func() tea.Msg {
		cred, err := w.CreateWallet()
		return walletReadyMsg{cred: cred, err: err}
	}
}

func (m model) importWalletCmd(raw string) tea.Cmd {
	w := m.wallet
	return func() tea.Msg {
		cred, err := w.ImportWallet(raw)
		return walletReadyMsg{cred: cred, imported: true, err: err}
	}
}

func (m model) sendCmd(to, amount string) tea.Cmd {
	w, ctx := m.wallet, m.ctx
	return func() tea.Msg {
		tx, err := w.Send(ctx, to, amount)
		return sendResultMsg{tx: tx, err: err}
	}
}

func (m model) refreshCmd() tea.Cmd {
	w, ctx := m.wallet, m.ctx
	return func() tea.Msg {
		return refreshDoneMsg{err: w.RefreshBalance(ctx)}
	}
}

func (m model) reconcileCmd() tea.Cmd {
	w, ctx := m.wallet, m.ctx
	return func() tea.Msg {
		return reconcileDoneMsg{err: w.Reconcile(ctx)}
	}
}

func (m model) logoutCmd() tea.Cmd {
	w := m.wallet
	return func() tea.Msg {
		return logoutDoneMsg{err: w.Logout()}
	}
}

// validateSendInputs mirrors the session checks so the confirm dialog only
// opens for a plausible transfer.
func validateSendInputs(to, amount, balance string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errEmptyRecipient
	}
	if !rpc.IsValidAddress(to) {
		return rpc.ErrInvalidRecipient
	}
	amt, err := units.ParseAmount(amount)
	if err != nil {
		return session.ErrInvalidAmount
	}
	if units.Exceeds(amt, balance) {
		return session.ErrInsufficientBalance
	}
	return nil
}

// friendlyError turns known errors into short status lines.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, errEmptyRecipient):
		return "Please enter recipient address"
	case errors.Is(err, keys.ErrInvalidKeyFormat):
		return "Invalid private key format"
	case errors.Is(err, rpc.ErrInvalidRecipient):
		return "Invalid recipient address"
	case errors.Is(err, session.ErrInvalidAmount):
		return "Please enter a valid amount"
	case errors.Is(err, session.ErrInsufficientBalance):
		return "Insufficient balance"
	case errors.Is(err, rpc.ErrAllEndpointsExhausted):
		return "All RPC endpoints failed, try again later"
	}
	return err.Error()
}

func (m model) selectedTx() (models.Transaction, bool) {
	txs := m.state.Transactions
	if m.txListIdx < 0 || m.txListIdx >= len(txs) {
		return models.Transaction{}, false
	}
	return txs[m.txListIdx], true
}

func (m model) displayBalance() string {
	return units.Display(m.state.Balance, int32(m.opts.BalanceDecimals))
}

func balanceSeries(points []models.BalancePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func statusBadge(s models.TxStatus) string {
	switch s {
	case models.StatusConfirmed:
		return infoStyle.Render("✔ confirmed")
	case models.StatusFailed:
		return errStyle.Render("✖ failed")
	default:
		return warnStyle.Render("… pending")
	}
}

func (m *model) resetSendForm() {
	for i := range m.sendInputs {
		m.sendInputs[i].SetValue("")
		m.sendInputs[i].Blur()
	}
	m.sendFocus = 0
	m.editingSend = false
	m.confirmingSend = false
}

func (m *model) focusSend() tea.Cmd {
	m.editingSend = true
	for i := range m.sendInputs {
		m.sendInputs[i].Blur()
	}
	return m.sendInputs[m.sendFocus].Focus()
}

func (m *model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMessage = msg
	m.statusIsErr = isErr
	return clearStatusAfter(4 * time.Second)
}
