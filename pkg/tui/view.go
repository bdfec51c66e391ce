package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"evmwallet/pkg/units"
	"evmwallet/pkg/utils"
)

func (m model) View() string {
	switch m.screen {
	case screenSetup:
		return m.viewSetup()
	case screenImport:
		return m.viewImport()
	case screenShowKey:
		return m.viewShowKey()
	}

	if m.confirmingLogout {
		return m.place(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render("Logout"),
			"\n",
			"Are you sure you want to logout?",
			warnStyle.Render("Make sure you have saved your private key!"),
			"\n",
			subtleStyle.Render("(y) Yes • (n) No"),
		)))
	}

	if m.confirmingSend {
		to := strings.TrimSpace(m.sendInputs[0].Value())
		amount := strings.TrimSpace(m.sendInputs[1].Value())
		return m.place(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render("Confirm Transaction"),
			"\n",
			fmt.Sprintf("Send %s %s to %s?", amount, m.state.Symbol, utils.ShortAddress(to)),
			"\n",
			subtleStyle.Render("(y) Send • (n) Cancel"),
		)))
	}

	if m.showTxDetail {
		return m.viewTxDetail()
	}

	var body string
	switch m.tab {
	case tabWallet:
		body = m.viewWallet()
	case tabSend:
		body = m.viewSend()
	case tabHistory:
		body = m.viewHistory()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		m.viewTabs(),
		"",
		body,
		"",
		m.viewStatus(),
		m.viewFooter(),
	)
}

func (m model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m model) viewSetup() string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("EVM Wallet"),
		"\n",
		fmt.Sprintf("%s testnet wallet", m.state.Network),
		"\n",
		fmt.Sprintf("%s Create new wallet", keyStyle.Render("(n)")),
		fmt.Sprintf("%s Import private key", keyStyle.Render("(i)")),
		"\n",
		m.viewStatus(),
		subtleStyle.Render("q: quit"),
	)
	if m.busy {
		body = lipgloss.JoinVertical(lipgloss.Center, body, m.spinner.View()+" Working...")
	}
	return m.place(boxStyle.Render(body))
}

func (m model) viewImport() string {
	return m.place(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Import Wallet"),
		"\n",
		"Paste your private key (with or without 0x):",
		m.importInput.View(),
		"\n",
		m.viewStatus(),
		subtleStyle.Render("Enter to import • Esc to cancel"),
	)))
}

func (m model) viewShowKey() string {
	return m.place(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Wallet Created"),
		"\n",
		"Address:",
		infoStyle.Render(m.newAddress),
		"\n",
		"Private key:",
		keyStyle.Render(m.newKey),
		"\n",
		warnStyle.Render("Save this key now. It will not be shown again."),
		"\n",
		subtleStyle.Render("Enter to continue"),
	)))
}

func (m model) viewHeader() string {
	balance := fmt.Sprintf("%s %s", m.displayBalance(), m.state.Symbol)
	if m.busy || m.state.Loading {
		balance = m.spinner.View() + " " + balance
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render(m.state.Network),
		" ",
		infoStyle.Render(balance),
		"  ",
		subtleStyle.Render(utils.ShortAddress(m.state.Address)),
	)
}

func (m model) viewTabs() string {
	var tabs []string
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m model) viewWallet() string {
	lines := []string{
		fmt.Sprintf("Network:   %s (chain %d)", m.state.Network, m.state.ChainID),
		fmt.Sprintf("Address:   %s", m.state.Address),
		fmt.Sprintf("Balance:   %s %s", m.displayBalance(), m.state.Symbol),
	}
	if f := m.state.FeeData; f != nil {
		lines = append(lines,
			fmt.Sprintf("Gas price: %s Gwei", units.FormatGwei(f.GasPrice)),
			fmt.Sprintf("Max fee:   %s Gwei (tip %s)", units.FormatGwei(f.MaxFeePerGas), units.FormatGwei(f.MaxPriorityFeePerGas)),
		)
	}
	if !m.state.UpdatedAt.IsZero() {
		lines = append(lines, subtleStyle.Render("Updated "+m.state.UpdatedAt.Format("15:04:05")))
	}
	if m.state.LastError != "" {
		lines = append(lines, errStyle.Render("Last error: "+utils.TruncateString(m.state.LastError, 70)))
	}
	info := boxStyle.Render(strings.Join(lines, "\n"))

	series := balanceSeries(m.state.BalanceHistory)
	var graph string
	if len(series) > 1 {
		width := m.width - 12
		if width < 20 {
			width = 40
		}
		graph = asciigraph.Plot(series,
			asciigraph.Height(8),
			asciigraph.Width(width),
			asciigraph.Caption(fmt.Sprintf("Balance history (%s)", m.state.Symbol)),
		)
	} else {
		graph = subtleStyle.Render("Not enough data to draw graph.")
	}

	return lipgloss.JoinVertical(lipgloss.Left, info, "", graph)
}

func (m model) viewSend() string {
	labels := []string{"Recipient", "Amount (" + m.state.Symbol + ")"}
	var rows []string
	for i, label := range labels {
		rows = append(rows, fmt.Sprintf("%-14s %s", label, m.sendInputs[i].View()))
	}
	rows = append(rows, "", subtleStyle.Render(fmt.Sprintf("Available: %s %s", m.displayBalance(), m.state.Symbol)))
	if m.busy {
		rows = append(rows, m.spinner.View()+" Sending...")
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		tableHeaderStyle.Render("Send "+m.state.Symbol),
		"",
		strings.Join(rows, "\n"),
	))
}

func (m model) viewHistory() string {
	txs := m.state.Transactions
	if len(txs) == 0 {
		return boxStyle.Render("No transactions yet.")
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("  %-22s %-22s %-14s %s", "Hash", "To", "Value", "Status"))
	var rows []string
	for i, tx := range txs {
		cursor := "  "
		if i == m.txListIdx {
			cursor = "> "
		}
		rows = append(rows, fmt.Sprintf("%s%-22s %-22s %-14s %s",
			cursor,
			utils.ShortAddress(tx.Hash),
			utils.ShortAddress(tx.To),
			utils.TruncateString(tx.Value, 14),
			statusBadge(tx.Status),
		))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(rows, "\n")))
}

func (m model) viewTxDetail() string {
	tx, ok := m.selectedTx()
	if !ok {
		return "No transaction selected."
	}

	lines := []string{
		fmt.Sprintf("Hash:      %s", tx.Hash),
		fmt.Sprintf("Status:    %s", statusBadge(tx.Status)),
		fmt.Sprintf("From:      %s", tx.From),
		fmt.Sprintf("To:        %s", tx.To),
		fmt.Sprintf("Value:     %s %s", tx.Value, m.state.Symbol),
		fmt.Sprintf("Sent:      %s", tx.Timestamp.Format("2006-01-02 15:04:05")),
	}
	if tx.BlockNumber > 0 {
		lines = append(lines,
			fmt.Sprintf("Block:     %d", tx.BlockNumber),
			fmt.Sprintf("Gas used:  %d", tx.GasUsed),
		)
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Transaction Details"), "\n", strings.Join(lines, "\n")))
	footer := subtleStyle.Render("o: open in browser • q/esc: back")
	return m.place(lipgloss.JoinVertical(lipgloss.Center, content, "\n", m.viewStatus(), footer))
}

func (m model) viewStatus() string {
	if m.statusMessage == "" {
		return ""
	}
	if m.statusIsErr {
		return errStyle.Render(m.statusMessage)
	}
	return infoStyle.Render(m.statusMessage)
}

func (m model) viewFooter() string {
	common := "1-3/tab: switch • r: refresh • c: copy address • L: logout • q: quit"
	switch m.tab {
	case tabSend:
		if m.editingSend {
			return subtleStyle.Render("↑/↓: field • enter: next/confirm • esc: stop editing")
		}
		return subtleStyle.Render("enter: edit • " + common)
	case tabHistory:
		return subtleStyle.Render("↑/↓: select • enter: details • o: explorer • R: check status • " + common)
	}
	return subtleStyle.Render(common)
}
