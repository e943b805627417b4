package scoring_test

import (
	"testing"

	"github.com/eve-telescope/telescope-app/internal/domain/model"
	scoring "github.com/eve-telescope/telescope-app/internal/domain/scoring"
	"github.com/eve-telescope/telescope-app/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTier(t *testing.T) {
	Convey("Given activity stats", t, func() {
		Convey("When there are no stats", func() {
			Convey("Then the tier is UNKNOWN", func() {
				So(scoring.Tier(nil), ShouldEqual, types.TierUnknown)
			})
		})

		Convey("When nothing was destroyed or lost", func() {
			stats := &model.ActivityStats{SoloKills: 500, DangerRatio: 100, ActivePvPKills: 99}

			Convey("Then the tier is UNKNOWN regardless of other fields", func() {
				So(scoring.Tier(stats), ShouldEqual, types.TierUnknown)
			})
		})

		Convey("When 100 kills against 1 loss", func() {
			stats := &model.ActivityStats{ShipsDestroyed: 100, ShipsLost: 1}

			Convey("Then the score is 70 and the tier HIGH", func() {
				So(scoring.Score(stats), ShouldAlmostEqual, 70, 1e-9)
				So(scoring.Tier(stats), ShouldEqual, types.TierHigh)
			})

			Convey("And heavy recent activity pushes it to EXTREME", func() {
				stats.ActivePvPKills = 51
				So(scoring.Score(stats), ShouldAlmostEqual, 90, 1e-9)
				So(scoring.Tier(stats), ShouldEqual, types.TierExtreme)
			})
		})

		Convey("When the kill/death ratio is modest", func() {
			stats := &model.ActivityStats{ShipsDestroyed: 10, ShipsLost: 2}

			Convey("Then moderate recent activity adds ten points", func() {
				So(scoring.Score(stats), ShouldAlmostEqual, 35, 1e-9)
				stats.ActivePvPKills = 21
				So(scoring.Score(stats), ShouldAlmostEqual, 45, 1e-9)
				So(scoring.Tier(stats), ShouldEqual, types.TierModerate)
			})

			Convey("Then exactly 20 recent kills adds nothing", func() {
				stats.ActivePvPKills = 20
				So(scoring.Score(stats), ShouldAlmostEqual, 35, 1e-9)
				So(scoring.Tier(stats), ShouldEqual, types.TierLow)
			})
		})

		Convey("When the score lands exactly on a threshold", func() {
			stats := &model.ActivityStats{ShipsDestroyed: 1, SoloKills: 30}

			Convey("Then the higher tier applies", func() {
				So(scoring.Score(stats), ShouldEqual, 20.0)
				So(scoring.Tier(stats), ShouldEqual, types.TierLow)
			})
		})

		Convey("When the pilot mostly dies", func() {
			stats := &model.ActivityStats{ShipsDestroyed: 1, ShipsLost: 5}

			Convey("Then the tier is MINIMAL", func() {
				So(scoring.Tier(stats), ShouldEqual, types.TierMinimal)
			})
		})

		Convey("When the kill/death ratio is huge", func() {
			stats := &model.ActivityStats{ShipsDestroyed: 1000, ShipsLost: 1, GangRatio: 100}

			Convey("Then it is capped at ten and gang ratio subtracts", func() {
				So(scoring.Score(stats), ShouldAlmostEqual, 30+50-10, 1e-9)
			})
		})
	})
}

func TestFlags(t *testing.T) {
	Convey("Given top ship lists", t, func() {
		Convey("When the stats are missing", func() {
			So(scoring.Flags(nil), ShouldResemble, model.RiskFlags{})
		})

		Convey("When a force recon has kills", func() {
			stats := &model.ActivityStats{TopShips: []model.ShipStats{
				{ShipTypeID: 11957, GroupID: scoring.GroupForceRecon, Kills: 3},
			}}
			f := scoring.Flags(stats)

			Convey("Then it is both recon and cyno", func() {
				So(f.Recon, ShouldBeTrue)
				So(f.Cyno, ShouldBeTrue)
				So(f.BlackOps, ShouldBeFalse)
				So(f.Capital, ShouldBeFalse)
			})
		})

		Convey("When a flagged ship has no kills", func() {
			stats := &model.ActivityStats{TopShips: []model.ShipStats{
				{ShipTypeID: 22852, GroupID: scoring.GroupBlackOps, Kills: 0, Losses: 4},
			}}

			Convey("Then no flag is set", func() {
				So(scoring.Flags(stats).Any(), ShouldBeFalse)
			})
		})

		Convey("When capital and super hulls have kills", func() {
			stats := &model.ActivityStats{TopShips: []model.ShipStats{
				{GroupID: scoring.GroupCarrier, Kills: 1},
				{GroupID: scoring.GroupTitan, Kills: 2},
				{GroupID: scoring.GroupBlockadeRunner, Kills: 1},
			}}
			f := scoring.Flags(stats)

			Convey("Then capital, super and cyno are set", func() {
				So(f.Capital, ShouldBeTrue)
				So(f.Super, ShouldBeTrue)
				So(f.Cyno, ShouldBeTrue)
				So(f.Recon, ShouldBeFalse)
			})
		})

		Convey("When checking the solo operator flag", func() {
			Convey("Then more than 10 kills with over 30% solo sets it", func() {
				So(scoring.Flags(&model.ActivityStats{ShipsDestroyed: 11, SoloKills: 4}).Solo, ShouldBeTrue)
			})
			Convey("Then exactly 10 kills does not", func() {
				So(scoring.Flags(&model.ActivityStats{ShipsDestroyed: 10, SoloKills: 10}).Solo, ShouldBeFalse)
			})
			Convey("Then exactly 30% does not", func() {
				So(scoring.Flags(&model.ActivityStats{ShipsDestroyed: 20, SoloKills: 6}).Solo, ShouldBeFalse)
			})
		})
	})
}

func TestEngineOptions(t *testing.T) {
	Convey("Given an engine with custom group sets", t, func() {
		sets := scoring.DefaultGroupSets()
		sets.Recon = scoring.NewGroupSet(999)
		engine := scoring.NewEngine(scoring.WithGroupSets(sets))

		Convey("Then flags follow the custom sets", func() {
			stats := &model.ActivityStats{TopShips: []model.ShipStats{{GroupID: 999, Kills: 1}}}
			So(engine.Flags(stats).Recon, ShouldBeTrue)
			So(scoring.Flags(stats).Recon, ShouldBeFalse)
		})
	})
}
