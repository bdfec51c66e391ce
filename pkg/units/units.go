// Package units converts between wei and human readable ether amounts.
package units

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"evmwallet/pkg/utils"
)

const etherDecimals = 18

var ErrInvalidAmount = errors.New("invalid amount")

// ParseEther parses a positive decimal ether amount into wei.
func ParseEther(amount string) (*big.Int, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	wei := d.Shift(etherDecimals)
	if !wei.IsInteger() {
		return nil, ErrInvalidAmount
	}
	return wei.BigInt(), nil
}

// ParseAmount parses a positive decimal amount.
func ParseAmount(amount string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatEther renders a wei amount as an ether decimal string without
// trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}

// FormatGwei renders a wei amount in gwei with two decimals.
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "N/A"
	}
	return decimal.NewFromBigInt(wei, -9).StringFixed(2)
}

// Display renders a decimal amount string with fixed places and thousands
// separators. Unparseable input is returned unchanged.
func Display(amount string, places int32) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return utils.AddCommas(d.StringFixed(places))
}

// ToFloat converts a decimal amount string for charting. Unparseable input is 0.
func ToFloat(amount string) float64 {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// Exceeds reports whether amount is strictly greater than balance. An
// unparseable balance is treated as zero.
func Exceeds(amount decimal.Decimal, balance string) bool {
	b, err := decimal.NewFromString(balance)
	if err != nil {
		b = decimal.Zero
	}
	return amount.GreaterThan(b)
}
