// Package model contains domain models passed between layers.
package model

import (
	"github.com/eve-telescope/telescope-app/internal/domain/types"
)

// UnknownName is used when a provider returns no usable name.
const UnknownName = "Unknown"

// Identity maps a display name to its numeric character id.
type Identity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProfileRecord is the public identity of a pilot with up to two levels of
// affiliation. An empty affiliation name means absent or failed enrichment.
type ProfileRecord struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	CorporationID     int64  `json:"corporation_id,omitempty"`
	CorporationName   string `json:"corporation_name,omitempty"`
	CorporationTicker string `json:"corporation_ticker,omitempty"`
	AllianceID        int64  `json:"alliance_id,omitempty"`
	AllianceName      string `json:"alliance_name,omitempty"`
	AllianceTicker    string `json:"alliance_ticker,omitempty"`
}

// PilotRecord is the unit returned for every requested name.
type PilotRecord struct {
	Profile  ProfileRecord  `json:"profile"`
	Activity *ActivityStats `json:"activity,omitempty"`
	RiskTier types.RiskTier `json:"risk_tier"`
	Flags    RiskFlags      `json:"flags"`
	Error    string         `json:"error,omitempty"`
}

// NewPlaceholder builds the record returned for a name that could not be
// resolved or fetched. It keeps the requested name and carries reason.
func NewPlaceholder(id int64, name, reason string) PilotRecord {
	return PilotRecord{
		Profile:  ProfileRecord{ID: id, Name: name},
		RiskTier: types.TierUnknown,
		Error:    reason,
	}
}

// Failed reports whether the record is a placeholder.
func (p PilotRecord) Failed() bool {
	return p.Error != ""
}
