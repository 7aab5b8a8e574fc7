package prompt

import (
	"fmt"
	"strings"

	"github.com/spigell/recruit-panel/internal/scoring"
	"github.com/spigell/recruit-panel/internal/utils"
)

const overviewExcerptChars = 160

// Overview is one persona's line in the combined-analysis request.
type Overview struct {
	Persona        string
	Score          float64
	Recommendation scoring.Recommendation
	Strengths      string
}

// Combined builds the secondary call that turns persona verdicts into prose.
// The recommendation is fixed by the caller; the model only explains it.
func (a *Assembler) Combined(items []Overview, mean float64, rec scoring.Recommendation) (string, string) {
	system := fmt.Sprintf(`Je bent een ervaren recruitmentadviseur en vat de oordelen van een beoordelingspanel samen.
Schrijf 2 tot 4 zinnen in het Nederlands, zonder opsommingstekens en zonder JSON.
De gemiddelde score is %s. De aanbeveling staat vast op %q en mag niet worden gewijzigd.
Sluit af met exact: "Aanbeveling: %s"`, scoring.Format(mean), rec, rec)

	var b strings.Builder
	b.WriteString("Oordelen van het panel:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s: %s, %s", item.Persona, scoring.Format(item.Score), item.Recommendation)
		if s := strings.TrimSpace(item.Strengths); s != "" {
			fmt.Fprintf(&b, ". Sterk: %s", utils.TruncateForLog(s, overviewExcerptChars))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Gemiddelde score: %s\nVastgestelde aanbeveling: %s", scoring.Format(mean), rec)

	return system, capMessage(b.String(), a.limits.UserMessageChars)
}

// CombinedFallback is used when the secondary call fails.
func CombinedFallback(count int, mean float64, rec scoring.Recommendation) string {
	return fmt.Sprintf("Op basis van %d beoordelingen is de gemiddelde score %s (%s). Aanbeveling: %s.",
		count, scoring.Format(mean), scoring.Label(mean), rec)
}
