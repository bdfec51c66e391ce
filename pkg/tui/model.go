package tui

import (
	"context"

	"evmwallet/pkg/keys"
	"evmwallet/pkg/models"
	"evmwallet/pkg/session"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Wallet is the session surface the TUI drives.
type Wallet interface {
	Snapshot() session.State
	Subscribe() session.Subscriber
	Unsubscribe(session.Subscriber)
	CreateWallet() (keys.Credential, error)
	ImportWallet(raw string) (keys.Credential, error)
	Send(ctx context.Context, to, amount string) (models.Transaction, error)
	RefreshBalance(ctx context.Context) error
	Reconcile(ctx context.Context) error
	Logout() error
}

// Options carries display settings.
type Options struct {
	ExplorerURL     string
	BalanceDecimals int
	Version         string
}

type screen int

const (
	screenSetup screen = iota
	screenImport
	screenShowKey
	screenMain
)

type tab int

const (
	tabWallet tab = iota
	tabSend
	tabHistory
)

var tabNames = []string{"Wallet", "Send", "History"}

// --- Messages ---

type clearStatusMsg struct{}

type walletReadyMsg struct {
	cred     keys.Credential
	imported bool
	err      error
}

type sendResultMsg struct {
	tx  models.Transaction
	err error
}

type refreshDoneMsg struct{ err error }

type reconcileDoneMsg struct{ err error }

type logoutDoneMsg struct{ err error }

// --- Model ---

type model struct {
	ctx    context.Context
	wallet Wallet
	sub    session.Subscriber
	opts   Options

	screen screen
	tab    tab
	state  session.State
	width  int
	height int

	spinner       spinner.Model
	busy          bool
	statusMessage string
	statusIsErr   bool

	importInput textinput.Model
	// newKey holds a freshly generated key until the user leaves the
	// show-key screen. It is never logged.
	newKey     string
	newAddress string

	sendInputs       []textinput.Model
	sendFocus        int
	editingSend      bool
	confirmingSend   bool
	confirmingLogout bool

	txListIdx    int
	showTxDetail bool
}

func initialModel(ctx context.Context, w Wallet, opts Options) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ii := textinput.New()
	ii.Placeholder = "0x... private key"
	ii.EchoMode = textinput.EchoPassword
	ii.EchoCharacter = '•'
	ii.Width = 66

	sis := make([]textinput.Model, 2)
	for i := range sis {
		sis[i] = textinput.New()
	}
	sis[0].Placeholder = "0x... recipient"
	sis[0].Width = 44
	sis[1].Placeholder = "0.0"
	sis[1].Width = 20

	if opts.BalanceDecimals <= 0 {
		opts.BalanceDecimals = 4
	}

	m := model{
		ctx:         ctx,
		wallet:      w,
		sub:         w.Subscribe(),
		opts:        opts,
		state:       w.Snapshot(),
		spinner:     s,
		importInput: ii,
		sendInputs:  sis,
	}
	if m.state.HasWallet {
		m.screen = screenMain
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForSession(m.sub),
		m.spinner.Tick,
	)
}
