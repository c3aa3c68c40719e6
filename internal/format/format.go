// Package format holds the presentation helpers shared by the API and the CLI.
package format

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// MistPerSUI is the number of MIST in one SUI
const MistPerSUI = 1_000_000_000

const suiDecimals = 9

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrTooPrecise     = errors.New("amount has more than 9 decimal places")
	ErrAmountOverflow = errors.New("amount does not fit in u64")
)

// FormatSUI renders an amount of MIST as SUI with two decimal places
func FormatSUI(mist uint64) string {
	return mistDecimal(mist).StringFixed(2)
}

// FormatSUIExact renders an amount of MIST as SUI without rounding
func FormatSUIExact(mist uint64) string {
	return mistDecimal(mist).String()
}

func mistDecimal(mist uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(mist), -suiDecimals)
}

// ParseSUI converts a decimal SUI string into MIST
func ParseSUI(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	mist := d.Shift(suiDecimals)
	if !mist.Equal(mist.Truncate(0)) {
		return 0, ErrTooPrecise
	}
	bi := mist.BigInt()
	if !bi.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return bi.Uint64(), nil
}

// FormatTimeRemaining renders the time left until end, or "Ended" once end has passed
func FormatTimeRemaining(end, now time.Time) string {
	if !end.After(now) {
		return "Ended"
	}
	d := end.Sub(now)
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
}

// SupplyProgress returns current/max as a percentage clamped to [0, 100]
func SupplyProgress(current, max uint64) float64 {
	if max == 0 {
		return 0
	}
	p := float64(current) / float64(max) * 100
	p = math.Round(p*100) / 100
	if p > 100 {
		return 100
	}
	return p
}

// ShortAddress truncates an address to its head and tail
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
