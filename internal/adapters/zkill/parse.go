package zkill

import (
	"errors"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/eve-telescope/telescope-app/internal/domain/model"
)

// Top list type tags.
const (
	listShipType    = "shipType"
	listSolarSystem = "solarSystem"
)

var errInvalidJSON = errors.New("invalid json")

// integer reads an integral JSON number. Missing keys, other types and
// fractional numbers read as zero.
func integer(r gjson.Result) (int64, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	v, err := strconv.ParseInt(r.Raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func intAt(r gjson.Result, path string) int64 {
	v, _ := integer(r.Get(path))
	return v
}

func floatAt(r gjson.Result, path string) float64 {
	v := r.Get(path)
	if v.Type != gjson.Number {
		return 0
	}
	return v.Float()
}

func strAt(r gjson.Result, path, fallback string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return fallback
	}
	return v.Str
}

// Parse decodes a zKillboard stats document. Only structurally invalid JSON
// is an error; a root that is not an object yields zero stats.
func Parse(body []byte) (model.ActivityStats, error) {
	if !gjson.ValidBytes(body) {
		return model.ActivityStats{}, errInvalidJSON
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return model.ActivityStats{}, nil
	}

	stats := model.ActivityStats{
		ShipsDestroyed:  intAt(doc, "shipsDestroyed"),
		ShipsLost:       intAt(doc, "shipsLost"),
		IskDestroyed:    floatAt(doc, "iskDestroyed"),
		IskLost:         floatAt(doc, "iskLost"),
		SoloKills:       intAt(doc, "soloKills"),
		SoloLosses:      intAt(doc, "soloLosses"),
		DangerRatio:     floatAt(doc, "dangerRatio"),
		GangRatio:       floatAt(doc, "gangRatio"),
		AvgAttackers:    floatAt(doc, "avgGangSize"),
		PointsDestroyed: intAt(doc, "pointsDestroyed"),
		ActivePvPKills:  intAt(doc, "activepvp.kills.count"),
		TopShips:        topShips(doc),
		TopSystems:      topSystems(doc),
		Activity:        heatmap(doc.Get("activity")),
	}
	return stats, nil
}

// eachTopEntry calls fn for every object entry of the top lists tagged kind
// until fn returns false.
func eachTopEntry(doc gjson.Result, kind string, fn func(entry gjson.Result) bool) {
	lists := doc.Get("topLists")
	if !lists.IsArray() {
		return
	}
	lists.ForEach(func(_, list gjson.Result) bool {
		if !list.IsObject() || strAt(list, "type", "") != kind {
			return true
		}
		more := true
		list.Get("values").ForEach(func(_, entry gjson.Result) bool {
			if entry.IsObject() {
				more = fn(entry)
			}
			return more
		})
		return more
	})
}

func topShips(doc gjson.Result) []model.ShipStats {
	ships := make([]model.ShipStats, 0, model.TopListLimit)
	eachTopEntry(doc, listShipType, func(e gjson.Result) bool {
		id := intAt(e, "shipTypeID")
		if id <= 0 {
			return true
		}
		ships = append(ships, model.ShipStats{
			ShipTypeID: id,
			ShipName:   strAt(e, "shipName", model.UnknownName),
			GroupID:    intAt(e, "groupID"),
			GroupName:  strAt(e, "groupName", ""),
			Kills:      intAt(e, "kills"),
			Losses:     intAt(e, "losses"),
		})
		return len(ships) < model.TopListLimit
	})
	return ships
}

func topSystems(doc gjson.Result) []model.SystemStats {
	systems := make([]model.SystemStats, 0, model.TopListLimit)
	eachTopEntry(doc, listSolarSystem, func(e gjson.Result) bool {
		id := intAt(e, "solarSystemID")
		if id <= 0 {
			return true
		}
		systems = append(systems, model.SystemStats{
			SolarSystemID:   id,
			SolarSystemName: strAt(e, "solarSystemName", model.UnknownName),
			Kills:           intAt(e, "kills"),
		})
		return len(systems) < model.TopListLimit
	})
	return systems
}

// heatmap reads day keys "0".."6" and hour keys "0".."23". Days may be
// objects keyed by hour or arrays indexed by hour; other keys are ignored.
// A present activity object normalizes by 1 unless max is an integer.
func heatmap(activity gjson.Result) model.Heatmap {
	var h model.Heatmap
	if !activity.IsObject() {
		return h
	}

	h.Max = 1
	if v, ok := integer(activity.Get("max")); ok {
		h.Max = v
	}

	for day := 0; day < model.HeatmapDays; day++ {
		hours := activity.Get(strconv.Itoa(day))
		if !hours.IsObject() && !hours.IsArray() {
			continue
		}
		for hour := 0; hour < model.HeatmapHours; hour++ {
			h.Days[day][hour] = intAt(hours, strconv.Itoa(hour))
		}
	}
	return h
}
