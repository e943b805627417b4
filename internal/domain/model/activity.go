package model

const (
	// HeatmapDays and HeatmapHours are the fixed heatmap dimensions.
	HeatmapDays  = 7
	HeatmapHours = 24

	// TopListLimit caps the top ship and top system lists.
	TopListLimit = 5
)

// ShipStats is one entry of a pilot's most used ship types.
type ShipStats struct {
	ShipTypeID int64  `json:"ship_type_id"`
	ShipName   string `json:"ship_name"`
	GroupID    int64  `json:"group_id"`
	GroupName  string `json:"group_name"`
	Kills      int64  `json:"kills"`
	Losses     int64  `json:"losses"`
}

// SystemStats is one entry of a pilot's most active solar systems.
type SystemStats struct {
	SolarSystemID   int64  `json:"solar_system_id"`
	SolarSystemName string `json:"solar_system_name"`
	Kills           int64  `json:"kills"`
}

// Heatmap counts activity by day of week (row) and hour of day (column).
// Max is the declared maximum used to normalize cells for display.
type Heatmap struct {
	Days [HeatmapDays][HeatmapHours]int64 `json:"days"`
	Max  int64                            `json:"max"`
}

// Intensity returns the cell normalized to [0,1] by Max.
func (h Heatmap) Intensity(day, hour int) float64 {
	if day < 0 || day >= HeatmapDays || hour < 0 || hour >= HeatmapHours || h.Max <= 0 {
		return 0
	}
	return float64(h.Days[day][hour]) / float64(h.Max)
}

// ActivityStats aggregates a pilot's combat history. Absent upstream fields
// stay at their zero value.
type ActivityStats struct {
	ShipsDestroyed  int64         `json:"ships_destroyed"`
	ShipsLost       int64         `json:"ships_lost"`
	IskDestroyed    float64       `json:"isk_destroyed"`
	IskLost         float64       `json:"isk_lost"`
	SoloKills       int64         `json:"solo_kills"`
	SoloLosses      int64         `json:"solo_losses"`
	DangerRatio     float64       `json:"danger_ratio"`
	GangRatio       float64       `json:"gang_ratio"`
	AvgAttackers    float64       `json:"avg_attackers"`
	PointsDestroyed int64         `json:"points_destroyed"`
	ActivePvPKills  int64         `json:"active_pvp_kills"`
	TopShips        []ShipStats   `json:"top_ships"`
	TopSystems      []SystemStats `json:"top_systems"`
	Activity        Heatmap       `json:"activity"`
}

// HasSignal reports whether any kill or loss was recorded.
func (s *ActivityStats) HasSignal() bool {
	return s != nil && (s.ShipsDestroyed != 0 || s.ShipsLost != 0)
}

// KDRatio is destroyed/lost, or destroyed when nothing was lost.
func (s *ActivityStats) KDRatio() float64 {
	if s == nil {
		return 0
	}
	if s.ShipsLost > 0 {
		return float64(s.ShipsDestroyed) / float64(s.ShipsLost)
	}
	return float64(s.ShipsDestroyed)
}

// PointsPerKill is the average killmail point value, zero without kills.
func (s *ActivityStats) PointsPerKill() float64 {
	if s == nil || s.ShipsDestroyed <= 0 {
		return 0
	}
	return float64(s.PointsDestroyed) / float64(s.ShipsDestroyed)
}
