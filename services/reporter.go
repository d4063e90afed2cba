package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"purehill-revenue/models"
)

// PrintRateReport formats the report for a terminal. Values that could not be computed print as N/A.
func PrintRateReport(w io.Writer, report *models.RateReport, topN int) {
	border := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center("COMPETITIVE RATE INTELLIGENCE", 60))
	fmt.Fprintf(w, "╚%s╝\n", border)

	fmt.Fprintf(w, "\n SNAPSHOT\n%s\n", thin)
	fmt.Fprintf(w, "  Snapshot        : %s\n", orNA(report.SnapshotID))
	fmt.Fprintf(w, "  Built at        : %s\n", report.BuiltAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Tracked hotel   : %s\n", report.TrackedHotel)
	fmt.Fprintf(w, "  Rows kept       : %d / %d\n", report.Stats.Kept, report.Stats.Total)
	reasons := make([]string, 0, len(report.Stats.Dropped))
	for reason, n := range report.Stats.Dropped {
		if n > 0 {
			reasons = append(reasons, string(reason))
		}
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  Dropped %-16s: %d\n", reason, report.Stats.Dropped[models.DropReason(reason)])
	}

	m := report.Market
	fmt.Fprintf(w, "\n MARKET POSITION\n%s\n", thin)
	fmt.Fprintf(w, "  Tracked average     : %s\n", money(m.TrackedAvg))
	fmt.Fprintf(w, "  Competitor average  : %s\n", money(m.CompetitorAvg))
	fmt.Fprintf(w, "  Penetration index   : %s %s\n", number(m.PenetrationIndex), bandLabel(m.Band))
	fmt.Fprintf(w, "  Price std           : %s\n", money(m.PriceStd))
	fmt.Fprintf(w, "  Stability score     : %s\n", number(m.StabilityScore))
	fmt.Fprintf(w, "  Premium gap         : %s\n", money(m.PremiumGap))

	if len(report.MinPrices) > 0 {
		fmt.Fprintf(w, "\n MINIMUM PRICE MATRIX\n%s\n", thin)
		for _, c := range report.MinPrices {
			fmt.Fprintf(w, "  %-22s %s  %12s  %s / %s\n",
				truncate(c.HotelName, 22), c.StayDate.Format("2006-01-02"), won(c.Price), c.Channel, c.RoomType)
		}
	}

	fmt.Fprintf(w, "\n RATE PARITY\n%s\n", thin)
	switch {
	case report.Parity.NoReferenceData:
		fmt.Fprintf(w, "  No reference data for the tracked hotel\n")
	case len(report.Parity.Violations) == 0:
		fmt.Fprintf(w, "  No parity violations\n")
	default:
		top := report.Parity.Top(topN)
		fmt.Fprintf(w, "  %d violations, top %d:\n", len(report.Parity.Violations), len(top))
		for i, v := range top {
			fmt.Fprintf(w, "  %d. %s %-18s %-12s -%s\n",
				i+1, v.StayDate.Format("2006-01-02"), truncate(v.RoomType, 18), truncate(v.Channel, 12), won(v.Gap))
		}
	}

	fmt.Fprintf(w, "\n LAST-MINUTE DISCOUNTING\n%s\n", thin)
	if len(report.LeadTime.Flagged) == 0 {
		fmt.Fprintf(w, "  No competitor dumping detected\n")
	}
	for _, s := range report.LeadTime.Signals {
		if s.Flagged {
			fmt.Fprintf(w, "  %-28s recent %s vs baseline %s (%.1f%%)\n",
				truncate(s.HotelName, 28), wonFloat(s.RecentAvg), wonFloat(s.BaselineAvg), s.Ratio*100)
		}
	}

	if len(report.CompetitorMins) > 0 {
		fmt.Fprintf(w, "\n COMPETITOR MINIMUMS\n%s\n", thin)
		if report.TrackedMin != nil {
			fmt.Fprintf(w, "  %-35s %12s\n", "(tracked) "+truncate(report.TrackedHotel, 25), won(*report.TrackedMin))
		}
		for _, c := range report.CompetitorMins {
			fmt.Fprintf(w, "  %-35s %12s\n", truncate(c.HotelName, 35), won(c.MinPrice))
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", border)
}

// PrintRankSimulation prints a one-line rank projection
func PrintRankSimulation(w io.Writer, sim *models.RankSimulation) {
	delta := groupThousands(sim.Delta.StringFixed(0))
	if sim.Delta.IsPositive() {
		delta = "+" + delta
	}
	fmt.Fprintf(w, " Rank simulation: %s %s => %s, rank %d of %d (score %.1f)\n",
		won(sim.TrackedMin), delta, won(sim.SimulatedPrice), sim.Rank, sim.Total, sim.Score)
}

func won(d decimal.Decimal) string {
	return groupThousands(d.StringFixed(0)) + "원"
}

func wonFloat(f float64) string {
	return won(decimal.NewFromFloat(f))
}

func money(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return wonFloat(*v)
}

func number(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v)
}

func bandLabel(band string) string {
	if band == "" {
		return ""
	}
	return "(" + band + ")"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
