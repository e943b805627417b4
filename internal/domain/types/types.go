// Package types contains common types used across the application
package types

import (
	"strings"
)

// RiskTier is the discrete danger classification of a pilot.
// The zero value is TierUnknown.
type RiskTier int

const (
	TierUnknown RiskTier = iota
	TierMinimal
	TierLow
	TierModerate
	TierHigh
	TierExtreme
)

// rankOther is the sort rank of every tier without signal.
const rankOther = 5

// tierRank is the result ordering, most dangerous first.
var tierRank = map[RiskTier]int{ //nolint:gochecknoglobals // static table
	TierExtreme:  0,
	TierHigh:     1,
	TierModerate: 2,
	TierLow:      3,
	TierMinimal:  4,
}

var tierNames = map[RiskTier]string{ //nolint:gochecknoglobals // static table
	TierUnknown:  "UNKNOWN",
	TierMinimal:  "MINIMAL",
	TierLow:      "LOW",
	TierModerate: "MODERATE",
	TierHigh:     "HIGH",
	TierExtreme:  "EXTREME",
}

// Rank returns the sort position of t: EXTREME(0) through MINIMAL(4), anything else 5.
func (t RiskTier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return rankOther
}

// IsThreat reports whether t is HIGH or EXTREME.
func (t RiskTier) IsThreat() bool {
	return t == TierHigh || t == TierExtreme
}

func (t RiskTier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return tierNames[TierUnknown]
}

// ParseRiskTier maps a tier name to its value. Matching is case-insensitive;
// unrecognized names yield TierUnknown and false.
func ParseRiskTier(s string) (RiskTier, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range tierNames {
		if name == s {
			return t, true
		}
	}
	return TierUnknown, false
}

// MarshalText encodes the tier as its upper-case name.
func (t RiskTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name. Unknown names decode to TierUnknown.
func (t *RiskTier) UnmarshalText(b []byte) error {
	*t, _ = ParseRiskTier(string(b))
	return nil
}
