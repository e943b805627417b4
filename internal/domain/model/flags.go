package model

// RiskFlags are capability indicators derived from activity stats.
type RiskFlags struct {
	Cyno     bool `json:"is_cyno"`
	Recon    bool `json:"is_recon"`
	BlackOps bool `json:"is_blops"`
	Capital  bool `json:"is_capital"`
	Super    bool `json:"is_super"`
	Solo     bool `json:"is_solo"`
}

// Labels returns display labels in a fixed order. SUPER replaces CAPITAL.
func (f RiskFlags) Labels() []string {
	labels := make([]string, 0, 5)
	switch {
	case f.Super:
		labels = append(labels, "SUPER")
	case f.Capital:
		labels = append(labels, "CAPITAL")
	}
	if f.BlackOps {
		labels = append(labels, "BLACK OPS")
	}
	if f.Recon {
		labels = append(labels, "RECON")
	}
	if f.Cyno {
		labels = append(labels, "CYNO")
	}
	if f.Solo {
		labels = append(labels, "SOLO")
	}
	return labels
}

// Any reports whether at least one flag is set.
func (f RiskFlags) Any() bool {
	return f != RiskFlags{}
}
