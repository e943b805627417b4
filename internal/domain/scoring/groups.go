package scoring

// GroupSet is a set of ship group ids.
type GroupSet map[int64]struct{}

// NewGroupSet builds a set from ids.
func NewGroupSet(ids ...int64) GroupSet {
	s := make(GroupSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s GroupSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Ship group ids from the EVE static data export.
const (
	GroupTitan             int64 = 30
	GroupDreadnought       int64 = 485
	GroupCarrier           int64 = 547
	GroupSupercarrier      int64 = 659
	GroupCovertOps         int64 = 830
	GroupForceRecon        int64 = 833
	GroupCapitalIndustrial int64 = 883
	GroupBlackOps          int64 = 898
	GroupCombatRecon       int64 = 906
	GroupBlockadeRunner    int64 = 1202
	GroupForceAuxiliary    int64 = 1538
	GroupLancerDreadnought int64 = 4594
)

// GroupSets holds the category sets used for flags.
type GroupSets struct {
	Recon    GroupSet
	BlackOps GroupSet
	Cyno     GroupSet
	Capital  GroupSet
	Super    GroupSet
}

// DefaultGroupSets returns the standard categories.
func DefaultGroupSets() GroupSets {
	return GroupSets{
		Recon:    NewGroupSet(GroupForceRecon, GroupCombatRecon),
		BlackOps: NewGroupSet(GroupBlackOps),
		Cyno:     NewGroupSet(GroupCovertOps, GroupForceRecon, GroupBlackOps, GroupBlockadeRunner),
		Capital: NewGroupSet(GroupDreadnought, GroupCarrier, GroupCapitalIndustrial,
			GroupForceAuxiliary, GroupLancerDreadnought),
		Super: NewGroupSet(GroupTitan, GroupSupercarrier),
	}
}
