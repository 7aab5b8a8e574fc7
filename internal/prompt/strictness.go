package prompt

import (
	"fmt"
	"strings"
)

// Strictness shapes the tone of a verdict. It never moves the thresholds.
type Strictness string

const (
	StrictnessLenient Strictness = "lenient"
	StrictnessMedium  Strictness = "medium"
	StrictnessStrict  Strictness = "strict"
	StrictnessSevere  Strictness = "severe"
)

var strictnessText = map[Strictness]string{
	StrictnessLenient: "Beoordeel mild: geef de kandidaat bij twijfel het voordeel en weeg potentieel mee.",
	StrictnessMedium:  "Beoordeel gebalanceerd: weeg sterke punten en tekortkomingen even zwaar.",
	StrictnessStrict:  "Beoordeel streng: ontbrekende kerneisen wegen zwaar en claims zonder onderbouwing tellen niet.",
	StrictnessSevere:  "Beoordeel zeer streng: alleen aantoonbaar bewijs in het CV telt en elke ontbrekende eis kost punten.",
}

// ParseStrictness accepts an empty value as "no selector".
func ParseStrictness(s string) (Strictness, error) {
	v := Strictness(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return "", nil
	}
	if _, ok := strictnessText[v]; !ok {
		return "", fmt.Errorf("unknown strictness %q (want lenient, medium, strict or severe)", s)
	}
	return v, nil
}

// Directive returns the line injected into a persona directive, or "".
func (s Strictness) Directive() string {
	text, ok := strictnessText[s]
	if !ok {
		return ""
	}
	return fmt.Sprintf("Strengheid: %s. %s", s, text)
}
