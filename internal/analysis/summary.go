package analysis

import "strings"

// Summarize builds the display string shown on dashboards: the one-sentence
// take, up to two market signals, the first competitor's name and the first
// moat risk. With nothing but the one-sentence field populated it returns that
// sentence unmodified.
func Summarize(res *Result) string {
	parts := []string{res.OneSentence}

	for i, signal := range res.MarketSignals {
		if i == 2 {
			break
		}
		parts = append(parts, signal)
	}

	if len(res.Competitors) > 0 && res.Competitors[0].Name != "" {
		parts = append(parts, "Competitor to watch: "+res.Competitors[0].Name)
	}

	if len(res.MoatRisks) > 0 && res.MoatRisks[0] != "" {
		parts = append(parts, "Risk: "+res.MoatRisks[0])
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}
