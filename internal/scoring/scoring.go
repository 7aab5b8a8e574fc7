// Package scoring holds the score scale and the recommendation rule shared by
// prompt rendering and verdict post-processing.
package scoring

import (
	"fmt"
	"math"
	"strings"
)

const (
	Min     = 1.0
	Max     = 10.0
	Default = 5.0

	DefaultStrongFit = 7.0
	DefaultUncertain = 5.0
)

// Recommendation is one of the three localized verdict strings.
type Recommendation string

const (
	StrongFit Recommendation = "Sterk geschikt / uitnodigen voor gesprek"
	Uncertain Recommendation = "Twijfelgeval / meer informatie nodig"
	NoFit     Recommendation = "Niet passend op dit moment"
)

// Recommendations lists every recommendation from best to worst.
var Recommendations = []Recommendation{StrongFit, Uncertain, NoFit}

var labels = map[int]string{
	1:  "volstrekt ongeschikt",
	2:  "zeer zwak",
	3:  "zwak",
	4:  "onvoldoende",
	5:  "twijfelachtig",
	6:  "redelijk",
	7:  "goed",
	8:  "zeer goed",
	9:  "uitstekend",
	10: "uitzonderlijk",
}

// Thresholds configures the recommendation rule.
type Thresholds struct {
	StrongFit float64 `mapstructure:"strong-fit"`
	Uncertain float64 `mapstructure:"uncertain"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{StrongFit: DefaultStrongFit, Uncertain: DefaultUncertain}
}

// Normalize fills missing values and keeps uncertain <= strong fit.
func (t Thresholds) Normalize() Thresholds {
	if t.StrongFit <= 0 {
		t.StrongFit = DefaultStrongFit
	}
	if t.Uncertain <= 0 {
		t.Uncertain = DefaultUncertain
	}
	if t.Uncertain > t.StrongFit {
		t.Uncertain = t.StrongFit
	}
	return t
}

// Recommend derives the recommendation from a score.
func (t Thresholds) Recommend(score float64) Recommendation {
	switch {
	case score >= t.StrongFit:
		return StrongFit
	case score >= t.Uncertain:
		return Uncertain
	default:
		return NoFit
	}
}

// Clamp bounds score to [Min, Max]. The second value reports whether the
// input was changed. NaN collapses to Default.
func Clamp(score float64) (float64, bool) {
	switch {
	case math.IsNaN(score):
		return Default, true
	case score < Min:
		return Min, true
	case score > Max:
		return Max, true
	default:
		return score, false
	}
}

// Mean returns the clamped arithmetic mean of scores, or Default for none.
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return Default
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean, _ := Clamp(sum / float64(len(scores)))
	return mean
}

// Label returns the localized label for the integer part of a score.
func Label(score float64) string {
	clamped, _ := Clamp(score)
	return labels[int(math.Round(clamped))]
}

// Format renders a score as "X.Y/10".
func Format(score float64) string {
	return fmt.Sprintf("%.1f/10", score)
}

// ParseRecommendation matches free text against the known recommendations.
// It accepts the full string or its leading keyword.
func ParseRecommendation(text string) (Recommendation, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return "", false
	}
	for _, r := range Recommendations {
		if normalized == strings.ToLower(string(r)) {
			return r, true
		}
	}
	switch {
	case strings.HasPrefix(normalized, "sterk geschikt"):
		return StrongFit, true
	case strings.HasPrefix(normalized, "twijfelgeval"):
		return Uncertain, true
	case strings.HasPrefix(normalized, "niet passend"):
		return NoFit, true
	}
	return "", false
}

// ScaleText renders the scale and the threshold rule for prompts.
func (t Thresholds) ScaleText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scoreschaal %.0f tot %.0f (decimalen toegestaan):\n", Min, Max)
	for i := int(Min); i <= int(Max); i++ {
		fmt.Fprintf(&b, "- %d: %s\n", i, labels[i])
	}
	b.WriteString("Aanbevelingsregels (verplicht, afgeleid van de score):\n")
	fmt.Fprintf(&b, "- score >= %.1f: %q\n", t.StrongFit, StrongFit)
	fmt.Fprintf(&b, "- score >= %.1f: %q\n", t.Uncertain, Uncertain)
	fmt.Fprintf(&b, "- lager: %q\n", NoFit)
	return b.String()
}
