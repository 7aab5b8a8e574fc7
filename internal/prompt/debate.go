package prompt

import (
	"fmt"
	"strings"

	"github.com/spigell/recruit-panel/internal/recruitment"
)

// Final verdicts the moderator may give at the end of a debate.
const (
	VerdictReject  = "Afwijzen"
	VerdictSuited  = "Geschikt"
	VerdictUnclear = "Verdere evaluatie nodig"
)

// Verdicts lists the final verdicts.
var Verdicts = []string{VerdictReject, VerdictSuited, VerdictUnclear}

// Focus returns the debate focus for a persona category.
func Focus(c recruitment.Category) string {
	switch c {
	case recruitment.CategoryTechnical, recruitment.CategoryHiring:
		return "Richt je op technische vaardigheden, relevante ervaring en eerdere functies."
	case recruitment.CategoryFinance:
		return "Richt je op salarisverwachting, beschikbaarheid en de kosten van deze aanstelling."
	case recruitment.CategoryHR, recruitment.CategoryAgency:
		return "Richt je op motivatie, communicatie en woonplaats of reisafstand."
	default:
		return "Richt je op de algehele geschiktheid voor de functie."
	}
}

// DebatePersona is the system directive for a persona during a debate.
func (a *Assembler) DebatePersona(p recruitment.Persona, systemPrompt string, s Subject) string {
	var b strings.Builder
	if role := strings.TrimSpace(effectivePrompt(EvaluationInput{Persona: p, SystemPrompt: systemPrompt})); role != "" {
		b.WriteString(role)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, `Je neemt als %s deel aan een panelgesprek over een kandidaat.
Spreek in de ik-vorm, in 1 tot 3 zinnen, in het Nederlands, en reageer waar mogelijk op de anderen.
Geef geen scores en gebruik geen kopjes zoals "Evaluatie:", "Sterke punten:" of "Aandachtspunten:".
Begin je antwoord niet met je eigen naam.
%s`, p.Label(), Focus(p.Category))

	if criteria := cleanList(p.PersonalCriteria); len(criteria) > 0 {
		fmt.Fprintf(&b, "\nJouw persoonlijke aandachtspunten: %s.", strings.Join(criteria, "; "))
	}

	b.WriteString("\n\n")
	b.WriteString(a.evidence(s, p.Category))
	return b.String()
}

// Moderator is the system directive for the moderator. final selects the
// closing summary variant.
func (a *Assembler) Moderator(s Subject, final bool) string {
	var b strings.Builder
	b.WriteString("Je bent de moderator van een panelgesprek over een kandidaat")
	if s.Candidate != nil && s.Candidate.Name != "" {
		fmt.Fprintf(&b, " (%s)", s.Candidate.Name)
	}
	if s.Job != nil && s.Job.Title != "" {
		fmt.Fprintf(&b, " voor de functie %q", s.Job.Title)
	}
	b.WriteString(".\nJe geeft zelf geen scores en je spreekt in het Nederlands.\n")

	if final {
		fmt.Fprintf(&b, `Vat het gesprek samen in hooguit twee zinnen en sluit af met een eindoordeel in de vorm
"Eindoordeel: <oordeel>", waarbij <oordeel> exact een van de volgende is: %s.`, strings.Join(Verdicts, ", "))
	} else {
		b.WriteString("Antwoord met één of twee zinnen: een scherpe, open vraag die het gesprek verdiept.")
	}
	return b.String()
}
