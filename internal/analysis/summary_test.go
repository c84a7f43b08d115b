package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeOnlyOneSentence(t *testing.T) {
	res := &Result{OneSentence: "A marketplace for vintage synthesizers."}
	assert.Equal(t, "A marketplace for vintage synthesizers.", Summarize(res))
}

func TestSummarizeIncludesSignalsCompetitorAndRisk(t *testing.T) {
	res := &Result{
		OneSentence:   "A marketplace for vintage synthesizers.",
		MarketSignals: []string{"Reverb listings up 40% YoY", "Active subreddit of 300k", "Third signal ignored"},
		Competitors:   []Competitor{{Name: "Reverb", Note: "incumbent"}, {Name: "eBay"}},
		MoatRisks:     []string{"No supply lock-in", "Second risk ignored"},
	}

	out := Summarize(res)
	assert.Contains(t, out, "A marketplace for vintage synthesizers.")
	assert.Contains(t, out, "Reverb listings up 40% YoY")
	assert.Contains(t, out, "Active subreddit of 300k")
	assert.NotContains(t, out, "Third signal ignored")
	assert.Contains(t, out, "Reverb")
	assert.NotContains(t, out, "eBay")
	assert.Contains(t, out, "No supply lock-in")
	assert.NotContains(t, out, "Second risk ignored")
}

func TestSummarizeSkipsEmptyCompetitorName(t *testing.T) {
	res := &Result{
		OneSentence: "An idea.",
		Competitors: []Competitor{{Name: ""}},
	}
	assert.Equal(t, "An idea.", Summarize(res))
}
