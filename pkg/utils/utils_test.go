package utils

import (
	"testing"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "he..."},
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"", 5, ""},
		{"abc", 2, "ab"},
		{"abc", 3, "abc"},
	}

	for _, tt := range tests {
		result := TruncateString(tt.input, tt.length)
		if result != tt.expected {
			t.Errorf("TruncateString(%q, %d) = %q; want %q", tt.input, tt.length, result, tt.expected)
		}
	}
}

func TestShortAddress(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", "0xAb5801a7...259aeC9B"},
		{"0x1234", "0x1234"},
		{"", ""},
	}

	for _, tt := range tests {
		result := ShortAddress(tt.input)
		if result != tt.expected {
			t.Errorf("ShortAddress(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}

func TestAddCommas(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"123", "123"},
		{"1234", "1,234"},
		{"123456", "123,456"},
		{"1234567", "1,234,567"},
		{"1234.56", "1,234.56"},
		{"-1234", "-1,234"},
		{"", ""},
	}

	for _, tt := range tests {
		result := AddCommas(tt.input)
		if result != tt.expected {
			t.Errorf("AddCommas(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}

func TestExplorerTxURL(t *testing.T) {
	tests := []struct {
		explorer string
		hash     string
		expected string
	}{
		{"https://sepolia.etherscan.io", "0xabc", "https://sepolia.etherscan.io/tx/0xabc"},
		{"https://sepolia.etherscan.io/", "0xabc", "https://sepolia.etherscan.io/tx/0xabc"},
		{"", "0xabc", ""},
	}

	for _, tt := range tests {
		result := ExplorerTxURL(tt.explorer, tt.hash)
		if result != tt.expected {
			t.Errorf("ExplorerTxURL(%q, %q) = %q; want %q", tt.explorer, tt.hash, result, tt.expected)
		}
	}
}

func TestExplorerAddressURL(t *testing.T) {
	if got := ExplorerAddressURL("https://sepolia.etherscan.io/", "0xabc"); got != "https://sepolia.etherscan.io/address/0xabc" {
		t.Errorf("ExplorerAddressURL = %q", got)
	}
	if got := ExplorerAddressURL("", "0xabc"); got != "" {
		t.Errorf("ExplorerAddressURL with empty explorer = %q; want empty", got)
	}
}
