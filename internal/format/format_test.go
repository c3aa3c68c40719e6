package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSUI(t *testing.T) {
	tests := []struct {
		mist uint64
		want string
	}{
		{1_000_000_000, "1.00"},
		{0, "0.00"},
		{1_500_000_000, "1.50"},
		{10_000_000, "0.01"},
		{123_456_789_000, "123.46"},
		{^uint64(0), "18446744073.71"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSUI(tt.mist), "mist=%d", tt.mist)
	}
}

func TestFormatSUIExact(t *testing.T) {
	assert.Equal(t, "0.000000001", FormatSUIExact(1))
	assert.Equal(t, "2", FormatSUIExact(2*MistPerSUI))
}

func TestParseSUI(t *testing.T) {
	mist, err := ParseSUI("1.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), mist)

	mist, err = ParseSUI("0.000000001")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), mist)

	_, err = ParseSUI("-1")
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ParseSUI("0.0000000001")
	assert.ErrorIs(t, err, ErrTooPrecise)

	_, err = ParseSUI("99999999999999")
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = ParseSUI("abc")
	assert.Error(t, err)
}

func TestFormatTimeRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Ended", FormatTimeRemaining(now, now))
	assert.Equal(t, "Ended", FormatTimeRemaining(now.Add(-time.Second), now))
	assert.Equal(t, "2d 3h 4m", FormatTimeRemaining(now.Add(51*time.Hour+4*time.Minute+30*time.Second), now))
	assert.Equal(t, "3h 0m 5s", FormatTimeRemaining(now.Add(3*time.Hour+5*time.Second), now))
	assert.Equal(t, "0m 1s", FormatTimeRemaining(now.Add(time.Second), now))
}

func TestSupplyProgress(t *testing.T) {
	assert.Equal(t, 0.0, SupplyProgress(5, 0))
	assert.Equal(t, 50.0, SupplyProgress(50, 100))
	assert.Equal(t, 33.33, SupplyProgress(1, 3))
	assert.Equal(t, 100.0, SupplyProgress(12, 10))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x1234...cdef", ShortAddress("0x1234567890abcdef"))
	assert.Equal(t, "0x12", ShortAddress("0x12"))
}
