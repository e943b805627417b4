// Package scoring maps activity statistics to a risk tier and capability flags.
// Everything here is pure: no I/O, no cache access, deterministic for a given input.
package scoring

import (
	"math"

	"github.com/eve-telescope/telescope-app/internal/domain/model"
	"github.com/eve-telescope/telescope-app/internal/domain/types"
)

// Score weights and tier thresholds.
const (
	weightSolo   = 0.5
	weightDanger = 0.3
	weightGang   = -0.1
	weightKD     = 5.0
	maxKD        = 10.0

	activeHighKills = 50
	activeHighBonus = 20.0
	activeLowKills  = 20
	activeLowBonus  = 10.0

	thresholdExtreme  = 80.0
	thresholdHigh     = 60.0
	thresholdModerate = 40.0
	thresholdLow      = 20.0

	soloMinKills = 10
	soloMinRatio = 0.3
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithGroupSets replaces the ship group category sets.
func WithGroupSets(sets GroupSets) Option {
	return func(e *Engine) {
		e.groups = sets
	}
}

// Engine computes tiers and flags.
type Engine struct {
	groups GroupSets
}

// NewEngine creates an engine with the default ship group sets.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{groups: DefaultGroupSets()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the weighted danger score. It does not check for signal.
func Score(stats *model.ActivityStats) float64 {
	if stats == nil {
		return 0
	}

	var score float64
	if stats.ShipsDestroyed > 1 {
		score += 10 * math.Log10(float64(stats.ShipsDestroyed))
	}
	score += weightSolo * float64(stats.SoloKills)
	score += weightDanger * stats.DangerRatio
	score += weightGang * stats.GangRatio
	score += weightKD * math.Min(stats.KDRatio(), maxKD)

	switch {
	case stats.ActivePvPKills > activeHighKills:
		score += activeHighBonus
	case stats.ActivePvPKills > activeLowKills:
		score += activeLowBonus
	}
	return score
}

// Tier classifies stats. Missing stats or no kills and no losses is UNKNOWN.
func (e *Engine) Tier(stats *model.ActivityStats) types.RiskTier {
	if !stats.HasSignal() {
		return types.TierUnknown
	}

	score := Score(stats)
	switch {
	case score >= thresholdExtreme:
		return types.TierExtreme
	case score >= thresholdHigh:
		return types.TierHigh
	case score >= thresholdModerate:
		return types.TierModerate
	case score >= thresholdLow:
		return types.TierLow
	default:
		return types.TierMinimal
	}
}

// Flags derives capability flags. Missing stats yield no flags.
func (e *Engine) Flags(stats *model.ActivityStats) model.RiskFlags {
	var f model.RiskFlags
	if stats == nil {
		return f
	}

	for _, ship := range stats.TopShips {
		if ship.Kills < 1 {
			continue
		}
		f.Recon = f.Recon || e.groups.Recon.Has(ship.GroupID)
		f.BlackOps = f.BlackOps || e.groups.BlackOps.Has(ship.GroupID)
		f.Cyno = f.Cyno || e.groups.Cyno.Has(ship.GroupID)
		f.Capital = f.Capital || e.groups.Capital.Has(ship.GroupID)
		f.Super = f.Super || e.groups.Super.Has(ship.GroupID)
	}

	if stats.ShipsDestroyed > soloMinKills &&
		float64(stats.SoloKills)/float64(stats.ShipsDestroyed) > soloMinRatio {
		f.Solo = true
	}
	return f
}

var defaultEngine = NewEngine() //nolint:gochecknoglobals // stateless default

// Tier classifies stats with the default ship group sets.
func Tier(stats *model.ActivityStats) types.RiskTier {
	return defaultEngine.Tier(stats)
}

// Flags derives flags with the default ship group sets.
func Flags(stats *model.ActivityStats) model.RiskFlags {
	return defaultEngine.Flags(stats)
}
