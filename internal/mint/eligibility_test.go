package mint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meur/mintforge/internal/models"
)

func TestCheckEligibility(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	base := models.Collection{IsActive: true, StartTime: start, EndTime: end, CurrentSupply: 5, MaxSupply: 10}

	tests := []struct {
		name   string
		mutate func(c *models.Collection)
		now    time.Time
		want   Eligibility
	}{
		{"open", nil, start.Add(time.Hour), Eligibility{Eligible: true}},
		{"exactly at start", nil, start, Eligibility{Eligible: true}},
		{"exactly at end", nil, end, Eligibility{Eligible: true}},
		{"before start", nil, start.Add(-time.Millisecond), Eligibility{Reason: ReasonNotStarted}},
		{"after end", nil, end.Add(time.Millisecond), Eligibility{Reason: ReasonEnded}},
		{"inactive", func(c *models.Collection) { c.IsActive = false }, start.Add(time.Hour), Eligibility{Reason: ReasonInactive}},
		{"one left", func(c *models.Collection) { c.CurrentSupply = 9 }, start.Add(time.Hour), Eligibility{Eligible: true}},
		{"sold out", func(c *models.Collection) { c.CurrentSupply = 10 }, start.Add(time.Hour), Eligibility{Reason: ReasonSoldOut}},
		{"zero max", func(c *models.Collection) { c.CurrentSupply, c.MaxSupply = 0, 0 }, start.Add(time.Hour), Eligibility{Reason: ReasonSoldOut}},
		{"inactive wins over ended", func(c *models.Collection) { c.IsActive = false }, end.Add(time.Hour), Eligibility{Reason: ReasonInactive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			assert.Equal(t, tt.want, CheckEligibility(&c, tt.now))
			assert.Equal(t, tt.want.Eligible, CanMint(&c, tt.now))
		})
	}
}

func TestView(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := &models.Collection{
		IsActive:      true,
		StartTime:     start,
		EndTime:       start.Add(50 * time.Hour),
		CurrentSupply: 25,
		MaxSupply:     100,
		Price:         1_500_000_000,
	}
	v := View(c, start.Add(time.Hour))
	assert.Equal(t, "1.50", v.PriceSUI)
	assert.Equal(t, 25.0, v.Progress)
	assert.Equal(t, "2d 1h 0m", v.TimeRemaining)
	assert.True(t, v.Eligible)
	assert.Empty(t, v.Reason)

	v = View(c, start.Add(51*time.Hour))
	assert.Equal(t, "Ended", v.TimeRemaining)
	assert.Equal(t, "ended", v.Reason)
}
