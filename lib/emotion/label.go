// Package emotion turns classifier output into stored diary analysis and
// aggregates stored analysis into mood scores and monthly statistics.
package emotion

import (
	"math"
	"strings"
)

type Label string

const (
	Angry   Label = "Angry"
	Fear    Label = "Fear"
	Happy   Label = "Happy"
	Tender  Label = "Tender"
	Sad     Label = "Sad"
	Neutral Label = "Neutral"
)

// DefaultImageKey is the emoji shown for Neutral and for fallback analysis.
const DefaultImageKey = "default.png"

// RawLabels are the labels a classifier can predict, in chart order.
var RawLabels = []Label{Angry, Fear, Happy, Tender, Sad}

// Labels is every label an entry can carry. Neutral only comes from the
// confidence override.
var Labels = []Label{Angry, Fear, Happy, Tender, Sad, Neutral}

func (l Label) IsRaw() bool {
	for _, r := range RawLabels {
		if l == r {
			return true
		}
	}
	return false
}

func (l Label) Valid() bool {
	return l == Neutral || l.IsRaw()
}

func (l Label) ImageKey() string {
	if !l.IsRaw() {
		return DefaultImageKey
	}
	return strings.ToLower(string(l)) + ".png"
}

// ParseLabel matches s against the known labels ignoring case.
func ParseLabel(s string) (Label, bool) {
	for _, l := range Labels {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, true
		}
	}
	return "", false
}

// Distribution maps each raw label to its probability.
type Distribution map[Label]float64

func ZeroDistribution() Distribution {
	d := make(Distribution, len(RawLabels))
	for _, l := range RawLabels {
		d[l] = 0
	}
	return d
}

// Complete returns a copy holding exactly the raw labels, missing ones set
// to 0. It reports false if any value is not a probability.
func (d Distribution) Complete() (Distribution, bool) {
	out := ZeroDistribution()
	for l, p := range d {
		if !l.IsRaw() {
			continue
		}
		if math.IsNaN(p) || p < 0 || p > 1 {
			return ZeroDistribution(), false
		}
		out[l] = p
	}
	return out, true
}

// Get returns the probability of l, 0 when absent.
func (d Distribution) Get(l Label) float64 {
	if d == nil {
		return 0
	}
	return d[l]
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
