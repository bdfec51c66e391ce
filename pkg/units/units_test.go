package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		input     string
		expected  string
		expectErr bool
	}{
		{"1", "1000000000000000000", false},
		{"1.5", "1500000000000000000", false},
		{" 0.000000000000000001 ", "1", false},
		{"0.0000000000000000001", "", true},
		{"0", "", true},
		{"-1", "", true},
		{"abc", "", true},
		{"", "", true},
		{"1.2.3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			wei, err := ParseEther(tt.input)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, wei.String())
		})
	}
}

func TestFormatEther(t *testing.T) {
	v, _ := new(big.Int).SetString("22B1C8C1227A0000", 16)
	assert.Equal(t, "2.5", FormatEther(v))
	assert.Equal(t, "0", FormatEther(big.NewInt(0)))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
}

func TestFormatGwei(t *testing.T) {
	assert.Equal(t, "20.00", FormatGwei(big.NewInt(20000000000)))
	assert.Equal(t, "1.50", FormatGwei(big.NewInt(1500000000)))
	assert.Equal(t, "N/A", FormatGwei(nil))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "1,234.500000", Display("1234.5", 6))
	assert.Equal(t, "0.000000", Display("0", 6))
	assert.Equal(t, "garbage", Display("garbage", 6))
}

func TestExceeds(t *testing.T) {
	amount, err := ParseAmount("1.5")
	require.NoError(t, err)

	assert.True(t, Exceeds(amount, "1.0"))
	assert.False(t, Exceeds(amount, "1.5"))
	assert.False(t, Exceeds(amount, "2"))
	assert.True(t, Exceeds(amount, ""))
}
