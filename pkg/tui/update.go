package tui

import (
	"fmt"
	"strings"

	"evmwallet/pkg/session"
	"evmwallet/pkg/utils"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case clearStatusMsg:
		m.statusMessage = ""
		m.statusIsErr = false

	case session.Event:
		cmds = append(cmds, listenForSession(m.sub))
		m.state = m.wallet.Snapshot()
		if msg.Type == session.EventWalletChanged && !m.state.HasWallet && m.screen == screenMain {
			m.screen = screenSetup
			m.tab = tabWallet
			m.showTxDetail = false
		}
		if m.txListIdx >= len(m.state.Transactions) {
			m.txListIdx = 0
		}

	case walletReadyMsg:
		m.busy = false
		if msg.err != nil {
			cmds = append(cmds, m.setStatus(friendlyError(msg.err), true))
			break
		}
		m.state = m.wallet.Snapshot()
		m.importInput.SetValue("")
		m.importInput.Blur()
		if msg.imported {
			m.screen = screenMain
			cmds = append(cmds, m.setStatus("Wallet imported", false))
		} else {
			m.newKey = msg.cred.PrivateKey
			m.newAddress = msg.cred.Address
			m.screen = screenShowKey
		}

	case sendResultMsg:
		m.busy = false
		if msg.err != nil {
			cmds = append(cmds, m.setStatus("Transaction failed: "+friendlyError(msg.err), true))
			break
		}
		m.resetSendForm()
		m.state = m.wallet.Snapshot()
		m.tab = tabHistory
		m.txListIdx = 0
		cmds = append(cmds, m.setStatus("Transaction sent: "+utils.ShortAddress(msg.tx.Hash), false))

	case refreshDoneMsg:
		m.busy = false
		m.state = m.wallet.Snapshot()
		if msg.err != nil {
			cmds = append(cmds, m.setStatus("Refresh failed: "+friendlyError(msg.err), true))
		} else {
			cmds = append(cmds, m.setStatus("Balance updated", false))
		}

	case reconcileDoneMsg:
		m.busy = false
		m.state = m.wallet.Snapshot()
		if msg.err != nil {
			cmds = append(cmds, m.setStatus("Some receipts could not be fetched", true))
		} else {
			cmds = append(cmds, m.setStatus("Transaction statuses updated", false))
		}

	case logoutDoneMsg:
		m.busy = false
		m.confirmingLogout = false
		if msg.err != nil {
			cmds = append(cmds, m.setStatus("Logout failed: "+msg.err.Error(), true))
			break
		}
		m.state = m.wallet.Snapshot()
		m.screen = screenSetup
		m.tab = tabWallet
		m.showTxDetail = false
		m.txListIdx = 0
		m.resetSendForm()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.screen {
	case screenSetup:
		return m.handleSetupKey(msg)
	case screenImport:
		return m.handleImportKey(msg)
	case screenShowKey:
		return m.handleShowKeyKey(msg)
	}
	return m.handleMainKey(msg)
}

func (m model) handleSetupKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "n":
		m.busy = true
		return m, m.createWalletCmd()
	case "i":
		m.screen = screenImport
		m.importInput.SetValue("")
		return m, m.importInput.Focus()
	}
	return m, nil
}

func (m model) handleImportKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.importInput.SetValue("")
		m.importInput.Blur()
		m.screen = screenSetup
		return m, nil
	case "enter":
		raw := strings.TrimSpace(m.importInput.Value())
		if raw == "" {
			return m, m.setStatus("Please enter a private key", true)
		}
		m.busy = true
		return m, m.importWalletCmd(raw)
	}
	var cmd tea.Cmd
	m.importInput, cmd = m.importInput.Update(msg)
	return m, cmd
}

func (m model) handleShowKeyKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.newKey = ""
		m.newAddress = ""
		m.screen = screenMain
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m model) handleMainKey(msg tea.KeyMsg) (model, tea.Cmd) {
	key := msg.String()

	if m.confirmingLogout {
		switch key {
		case "y", "Y":
			m.busy = true
			return m, m.logoutCmd()
		case "n", "N", "esc":
			m.confirmingLogout = false
		}
		return m, nil
	}

	if m.confirmingSend {
		switch key {
		case "y", "Y":
			m.confirmingSend = false
			m.busy = true
			to := strings.TrimSpace(m.sendInputs[0].Value())
			amount := strings.TrimSpace(m.sendInputs[1].Value())
			return m, m.sendCmd(to, amount)
		case "n", "N", "esc":
			m.confirmingSend = false
			return m, m.focusSend()
		}
		return m, nil
	}

	if m.showTxDetail {
		switch key {
		case "q", "esc", "enter":
			m.showTxDetail = false
		case "o":
			return m, m.openSelectedTx()
		}
		return m, nil
	}

	if m.tab == tabSend && m.editingSend {
		return m.handleSendInput(msg)
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "1":
		m.tab = tabWallet
	case "2":
		m.tab = tabSend
		return m, m.focusSend()
	case "3":
		m.tab = tabHistory
	case "tab":
		m.tab = (m.tab + 1) % tab(len(tabNames))
		if m.tab == tabSend {
			return m, m.focusSend()
		}
	case "shift+tab":
		m.tab = (m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames))
		if m.tab == tabSend {
			return m, m.focusSend()
		}
	case "r":
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.refreshCmd()
	case "c":
		if err := copyToClipboard(m.state.Address); err != nil {
			return m, m.setStatus("Failed to copy to clipboard", true)
		}
		return m, m.setStatus("Address copied to clipboard!", false)
	case "L":
		m.confirmingLogout = true
	}

	switch m.tab {
	case tabSend:
		if key == "enter" || key == "e" {
			return m, m.focusSend()
		}
	case tabHistory:
		return m.handleHistoryKey(key)
	}
	return m, nil
}

func (m model) handleSendInput(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.editingSend = false
		for i := range m.sendInputs {
			m.sendInputs[i].Blur()
		}
		return m, nil
	case "up", "shift+tab":
		m.sendFocus = (m.sendFocus + len(m.sendInputs) - 1) % len(m.sendInputs)
		return m, m.focusSend()
	case "down", "tab":
		m.sendFocus = (m.sendFocus + 1) % len(m.sendInputs)
		return m, m.focusSend()
	case "enter":
		if m.sendFocus == 0 {
			m.sendFocus = 1
			return m, m.focusSend()
		}
		to := m.sendInputs[0].Value()
		amount := m.sendInputs[1].Value()
		if err := validateSendInputs(to, amount, m.state.Balance); err != nil {
			return m, m.setStatus(friendlyError(err), true)
		}
		m.confirmingSend = true
		for i := range m.sendInputs {
			m.sendInputs[i].Blur()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.sendInputs[m.sendFocus], cmd = m.sendInputs[m.sendFocus].Update(msg)
	return m, cmd
}

func (m model) handleHistoryKey(key string) (model, tea.Cmd) {
	n := len(m.state.Transactions)
	switch key {
	case "up", "k":
		if m.txListIdx > 0 {
			m.txListIdx--
		}
	case "down", "j":
		if m.txListIdx < n-1 {
			m.txListIdx++
		}
	case "enter":
		if n > 0 {
			m.showTxDetail = true
		}
	case "o":
		return m, m.openSelectedTx()
	case "R":
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.reconcileCmd()
	}
	return m, nil
}

func (m *model) openSelectedTx() tea.Cmd {
	tx, ok := m.selectedTx()
	if !ok {
		return nil
	}
	url := utils.ExplorerTxURL(m.opts.ExplorerURL, tx.Hash)
	if url == "" {
		return m.setStatus("No explorer configured", true)
	}
	if err := browse(url); err != nil {
		return m.setStatus(fmt.Sprintf("Failed to open browser: %v", err), true)
	}
	return m.setStatus("Opened in browser", false)
}
