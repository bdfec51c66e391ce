package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"evmwallet/pkg/config"
	"evmwallet/pkg/models"
	"evmwallet/pkg/rpc"
	"evmwallet/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEndpoints map[string]models.RPCResult

func (f fakeEndpoints) ProbeEndpoint(_ context.Context, url string) models.RPCResult {
	res, ok := f[url]
	if !ok {
		return models.RPCResult{URL: url, Status: "error", Error: "connection refused"}
	}
	res.URL = url
	return res
}

func okResult(id int64) models.RPCResult {
	return models.RPCResult{Status: "ok", ChainID: id, Latency: 12 * time.Millisecond}
}

func checkConfig(urls ...string) config.Config {
	cfg := config.Default()
	cfg.RPCURLs = urls
	return cfg
}

func TestRunCheckVerified(t *testing.T) {
	cfg := checkConfig("https://a", "https://b")
	var out bytes.Buffer

	report, err := runCheck(context.Background(), &out, fakeEndpoints{
		"https://a": okResult(11155111),
		"https://b": okResult(11155111),
	}, &cfg, "cfg.json", checkOptions{})
	require.NoError(t, err)

	assert.True(t, report.ValidStructure)
	assert.Equal(t, 2, report.EndpointCount)
	assert.False(t, report.ConfigUpdated)
	assert.False(t, report.Chain.Inconsistent)
	assert.Equal(t, int64(11155111), report.Chain.ObservedChainID)
	assert.Equal(t, 2, strings.Count(out.String(), "Verified"))
}

func TestRunCheckWritesObservedChainID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	cfg := checkConfig("https://a")
	cfg.ChainID = 0

	report, err := runCheck(context.Background(), &bytes.Buffer{}, fakeEndpoints{"https://a": okResult(11155111)}, &cfg, path, checkOptions{})
	require.NoError(t, err)
	assert.True(t, report.ConfigUpdated)
	assert.True(t, report.Chain.ChainIDUpdated)
	assert.Empty(t, report.SaveError)

	saved, err := config.LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), saved.ChainID)
}

func TestRunCheckDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	cfg := checkConfig("https://a")
	cfg.ChainID = 0

	report, err := runCheck(context.Background(), &bytes.Buffer{}, fakeEndpoints{"https://a": okResult(5)}, &cfg, path, checkOptions{dryRun: true})
	require.NoError(t, err)
	assert.True(t, report.ConfigUpdated)
	assert.True(t, report.DryRun)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCheckMismatchAndInconsistent(t *testing.T) {
	cfg := checkConfig("https://a", "https://b", "https://c")
	var out bytes.Buffer

	report, err := runCheck(context.Background(), &out, fakeEndpoints{
		"https://a": okResult(11155111),
		"https://b": okResult(1),
	}, &cfg, "cfg.json", checkOptions{})
	require.NoError(t, err)

	assert.True(t, report.Chain.Inconsistent)
	require.Len(t, report.Chain.RPCs, 3)
	assert.Equal(t, "Mismatch! Expected 11155111", report.Chain.RPCs[1].Error)
	assert.Equal(t, "error", report.Chain.RPCs[2].Status)
	assert.Contains(t, out.String(), "Inconsistent RPCs detected")
}

func TestRunCheckFailures(t *testing.T) {
	t.Run("no endpoints", func(t *testing.T) {
		cfg := checkConfig()
		var out bytes.Buffer
		report, err := runCheck(context.Background(), &out, nil, &cfg, "cfg.json", checkOptions{json: true})
		assert.ErrorIs(t, err, errCheckFailed)
		assert.False(t, report.ValidStructure)

		var decoded models.CheckReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.NotEmpty(t, decoded.StructureErrors)
	})

	t.Run("every endpoint down", func(t *testing.T) {
		cfg := checkConfig("https://a", "https://b")
		_, err := runCheck(context.Background(), &bytes.Buffer{}, fakeEndpoints{}, &cfg, "cfg.json", checkOptions{})
		assert.ErrorIs(t, err, errCheckFailed)
	})
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		got := confirm(strings.NewReader(tt.input), &bytes.Buffer{}, "Continue?")
		if got != tt.want {
			t.Errorf("confirm(%q) = %v; want %v", tt.input, got, tt.want)
		}
	}
}

func TestReadKey(t *testing.T) {
	key, err := readKey(strings.NewReader("\n  0xabc  \nnext\n"))
	require.NoError(t, err)
	assert.Equal(t, "0xabc", key)

	_, err = readKey(strings.NewReader("\n\n"))
	assert.ErrorIs(t, err, errNoKey)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var privateKeyLine = regexp.MustCompile(`Private key: (0x[0-9a-f]{64})`)
var addressLine = regexp.MustCompile(`Address:\s+(0x[0-9a-fA-F]{40})`)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return filepath.Join(home, "evmwallet.json")
}

func TestWalletLifecycleCommands(t *testing.T) {
	cfgPath := isolate(t)

	out, err := execute(t, "", "--config", cfgPath, "new")
	require.NoError(t, err)
	keyMatch := privateKeyLine.FindStringSubmatch(out)
	require.Len(t, keyMatch, 2)
	addrMatch := addressLine.FindStringSubmatch(out)
	require.Len(t, addrMatch, 2)
	assert.Contains(t, out, "It will not be shown again")

	_, err = execute(t, "", "--config", cfgPath, "new")
	assert.ErrorIs(t, err, session.ErrWalletExists)

	out, err = execute(t, "", "--config", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions yet.")
	assert.Contains(t, out, "sqlite store backend")

	_, err = execute(t, "n\n", "--config", cfgPath, "logout")
	assert.ErrorIs(t, err, errAborted)

	out, err = execute(t, "", "--config", cfgPath, "logout", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = execute(t, "", "--config", cfgPath, "history")
	assert.ErrorIs(t, err, session.ErrNoWallet)

	out, err = execute(t, keyMatch[1]+"\n", "--config", cfgPath, "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, addrMatch[1])
	assert.NotContains(t, out, keyMatch[1])
}

func TestImportRejectsBadKey(t *testing.T) {
	cfgPath := isolate(t)
	_, err := execute(t, "", "--config", cfgPath, "import", "nothex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid private key")
}

func TestSQLiteBackendFromEnv(t *testing.T) {
	cfgPath := isolate(t)
	storePath := filepath.Join(t.TempDir(), "wallet.db")
	t.Setenv("EVMWALLET_STORE_BACKEND", config.StoreSQLite)

	_, err := execute(t, "", "--config", cfgPath, "--store-path", storePath, "new")
	require.NoError(t, err)
	_, err = os.Stat(storePath)
	require.NoError(t, err)

	out, err := execute(t, "", "--config", cfgPath, "--store-path", storePath, "history", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestCommandsRequireWallet(t *testing.T) {
	cfgPath := isolate(t)
	for _, args := range [][]string{
		{"balance"},
		{"send", "0x000000000000000000000000000000000000dEaD", "0.1", "--yes"},
		{"logout", "--yes"},
	} {
		_, err := execute(t, "", append([]string{"--config", cfgPath}, args...)...)
		if !errors.Is(err, session.ErrNoWallet) {
			t.Errorf("%v: err = %v; want ErrNoWallet", args, err)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "evmwallet version test\n", out)
}

func TestSendRejectsBadInputWithoutNetwork(t *testing.T) {
	cfgPath := isolate(t)
	_, err := execute(t, "", "--config", cfgPath, "new")
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		to     string
		amount string
		want   error
	}{
		{"non numeric amount", "0x000000000000000000000000000000000000dEaD", "abc", session.ErrInvalidAmount},
		{"zero amount", "0x000000000000000000000000000000000000dEaD", "0", session.ErrInvalidAmount},
		{"malformed recipient", "0xnotanaddress", "0.1", rpc.ErrInvalidRecipient},
		{"blank recipient", " ", "0.1", rpc.ErrInvalidRecipient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", "--config", cfgPath, "--rpc-urls", srv.URL, "send", tt.to, tt.amount, "--yes")
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, rpc.ErrAllEndpointsExhausted)
		})
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestHistoryTable(t *testing.T) {
	out := historyTable([]models.Transaction{{
		Hash:      "0xfeed",
		To:        "0x000000000000000000000000000000000000dEaD",
		Value:     "0.25",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Status:    models.StatusPending,
	}}, "ETH")

	for _, want := range []string{"TIME", "HASH", "STATUS", "0xfeed", "0.25 ETH", "pending"} {
		assert.Contains(t, out, want)
	}
	// Top border, header, separator, one row, bottom border.
	assert.Len(t, strings.Split(out, "\n"), 5)
}

func TestConfigRestoreCommand(t *testing.T) {
	cfgPath := isolate(t)

	_, err := execute(t, "", "--config", cfgPath, "config", "restore", "--yes")
	assert.ErrorIs(t, err, config.ErrNoBackup)

	first := config.Default()
	first.Confirmations = 2
	require.NoError(t, config.SaveConfig(first, cfgPath))
	second := first
	second.Confirmations = 9
	require.NoError(t, config.SaveConfig(second, cfgPath))

	_, err = execute(t, "n\n", "--config", cfgPath, "config", "restore")
	assert.ErrorIs(t, err, errAborted)

	out, err := execute(t, "", "--config", cfgPath, "config", "restore", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration restored from "+cfgPath+".")

	restored, err := config.LoadConfigFromFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Confirmations)

	out, err = execute(t, "", "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"confirmations": 2`)
}
