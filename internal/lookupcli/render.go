package lookupcli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/eve-telescope/telescope-app/internal/domain/model"
)

var tableHeader = []string{"Tier", "Pilot", "Corp", "Alliance", "Kills", "Losses", "K/D", "ISK Destroyed", "Flags"} //nolint:gochecknoglobals // static header

// RenderTable writes records as an aligned table in the order given.
func RenderTable(w io.Writer, records []model.PilotRecord) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(tableHeader)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetHeaderLine(true)

	for _, r := range records {
		table.Append(row(r))
	}
	table.Render()
}

// RenderJSON writes records as indented JSON.
func RenderJSON(w io.Writer, resp Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

func row(r model.PilotRecord) []string {
	p := r.Profile
	out := []string{r.RiskTier.String(), p.Name, ticker(p.CorporationTicker), ticker(p.AllianceTicker)}

	if r.Failed() {
		return append(out, "-", "-", "-", "-", r.Error)
	}
	a := r.Activity
	if a == nil {
		return append(out, "-", "-", "-", "-", strings.Join(r.Flags.Labels(), " "))
	}
	return append(out,
		humanize.Comma(a.ShipsDestroyed),
		humanize.Comma(a.ShipsLost),
		kd(a),
		FormatISK(a.IskDestroyed),
		strings.Join(r.Flags.Labels(), " "),
	)
}

func ticker(t string) string {
	if t == "" {
		return "-"
	}
	return "[" + t + "]"
}

func kd(a *model.ActivityStats) string {
	if a.ShipsLost == 0 && a.ShipsDestroyed > 0 {
		return "inf"
	}
	return fmt.Sprintf("%.1f", a.KDRatio())
}

// FormatISK abbreviates an ISK amount: 950, 12K, 3.4M, 1.2B, 5.0T.
func FormatISK(v float64) string {
	if v < 1e3 {
		return fmt.Sprintf("%.0f", math.Max(v, 0))
	}
	n, prefix := humanize.ComputeSI(v)
	switch prefix {
	case "k":
		return fmt.Sprintf("%.0fK", n)
	case "G":
		prefix = "B"
	}
	return fmt.Sprintf("%.1f%s", n, prefix)
}
