package mint

import (
	"time"

	"github.com/meur/mintforge/internal/format"
	"github.com/meur/mintforge/internal/models"
)

// Reason explains why a collection cannot be minted from
type Reason string

const (
	ReasonInactive   Reason = "inactive"
	ReasonNotStarted Reason = "not_started"
	ReasonEnded      Reason = "ended"
	ReasonSoldOut    Reason = "sold_out"
)

// Eligibility is the outcome of CheckEligibility
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   Reason `json:"reason,omitempty"`
}

// CheckEligibility applies the mint window: active, start <= now <= end, supply left
func CheckEligibility(c *models.Collection, now time.Time) Eligibility {
	switch {
	case !c.IsActive:
		return Eligibility{Reason: ReasonInactive}
	case now.Before(c.StartTime):
		return Eligibility{Reason: ReasonNotStarted}
	case now.After(c.EndTime):
		return Eligibility{Reason: ReasonEnded}
	case c.CurrentSupply >= c.MaxSupply:
		return Eligibility{Reason: ReasonSoldOut}
	}
	return Eligibility{Eligible: true}
}

// CanMint reports whether a mint would currently be accepted
func CanMint(c *models.Collection, now time.Time) bool {
	return CheckEligibility(c, now).Eligible
}

// View derives the values a frontend renders for c at now
func View(c *models.Collection, now time.Time) models.CollectionView {
	e := CheckEligibility(c, now)
	return models.CollectionView{
		Collection:    *c,
		PriceSUI:      format.FormatSUI(c.Price),
		Progress:      format.SupplyProgress(c.CurrentSupply, c.MaxSupply),
		TimeRemaining: format.FormatTimeRemaining(c.EndTime, now),
		Eligible:      e.Eligible,
		Reason:        string(e.Reason),
		Now:           now.UnixMilli(),
	}
}
