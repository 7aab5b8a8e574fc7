package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/recruit-panel/internal/recruitment"
	"github.com/spigell/recruit-panel/internal/scoring"
)

// Assembler builds prompts. It holds configuration only.
type Assembler struct {
	thresholds scoring.Thresholds
	limits     Limits
}

func NewAssembler(thresholds scoring.Thresholds, limits Limits) *Assembler {
	return &Assembler{thresholds: thresholds.Normalize(), limits: limits.Normalize()}
}

func (a *Assembler) Thresholds() scoring.Thresholds { return a.thresholds }

func (a *Assembler) Limits() Limits { return a.limits }

// Subject is the evidence every persona works from.
type Subject struct {
	Candidate   *recruitment.Candidate
	Job         *recruitment.Job
	CompanyNote string
}

// EvaluationInput describes one persona call.
type EvaluationInput struct {
	Persona recruitment.Persona
	// SystemPrompt overrides Persona.SystemPrompt when set.
	SystemPrompt string
	Subject      Subject
	Strictness   Strictness
}

// Evaluation returns the system directive and user message for one persona.
func (a *Assembler) Evaluation(in EvaluationInput) (string, string) {
	return a.evaluationDirective(in), a.evidence(in.Subject, in.Persona.Category)
}

func (a *Assembler) evaluationDirective(in EvaluationInput) string {
	var b strings.Builder

	if role := strings.TrimSpace(effectivePrompt(in)); role != "" {
		b.WriteString(role)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Je beoordeelt als %s een kandidaat", in.Persona.Label())
	if job := in.Subject.Job; job != nil && job.Title != "" {
		fmt.Fprintf(&b, " voor de functie %q", job.Title)
		if job.Company != "" {
			fmt.Fprintf(&b, " bij %s", job.Company)
		}
	}
	b.WriteString(". Baseer je oordeel alleen op het aangeleverde bewijs.\n")

	if directive := in.Strictness.Directive(); directive != "" {
		b.WriteString(directive)
		b.WriteString("\n")
	}

	if criteria := cleanList(in.Persona.PersonalCriteria); len(criteria) > 0 {
		b.WriteString("Jouw persoonlijke aandachtspunten:\n")
		for _, c := range criteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	b.WriteString("\n")
	b.WriteString(a.thresholds.ScaleText())
	b.WriteString("\nAntwoord UITSLUITEND met één JSON-object, zonder tekst of codeblok eromheen:\n")
	b.WriteString(verdictSchema)
	return b.String()
}

const verdictSchema = `{
  "score": <getal van 1 tot 10, decimalen toegestaan>,
  "strengths": "<sterke punten>",
  "weaknesses": "<aandachtspunten>",
  "analysis": "<korte onderbouwing>",
  "recommendation": "<exact een van de drie aanbevelingen hierboven>",
  "big_hits": "<optioneel: grootste pluspunt>",
  "big_misses": "<optioneel: grootste minpunt>"
}`

func effectivePrompt(in EvaluationInput) string {
	if p := strings.TrimSpace(in.SystemPrompt); p != "" {
		return p
	}
	return in.Persona.SystemPrompt
}

// evidence renders the user message: job, projected profile, resume,
// motivation and company note, each cut to its budget, then the whole message
// capped.
func (a *Assembler) evidence(s Subject, category recruitment.Category) string {
	var b strings.Builder

	if job := s.Job; job != nil {
		fmt.Fprintf(&b, "VACATURE: %s", strings.TrimSpace(job.Title))
		if job.Company != "" {
			fmt.Fprintf(&b, " bij %s", job.Company)
		}
		b.WriteString("\n")
		if job.Location != "" {
			fmt.Fprintf(&b, "Locatie: %s\n", job.Location)
		}
		if salary := job.SalaryRange(); salary != "" {
			fmt.Fprintf(&b, "Salaris: %s\n", salary)
		}
		if desc := strings.TrimSpace(job.Description); desc != "" {
			fmt.Fprintf(&b, "Omschrijving: %s\n", section(desc, a.limits.JobDescriptionChars))
		}
		if req := strings.TrimSpace(job.Requirements); req != "" {
			fmt.Fprintf(&b, "Eisen: %s\n", section(req, a.limits.JobDescriptionChars))
		}
		if weighted := WeightedRequirements(job.WeightedRequirements); weighted != "" {
			fmt.Fprintf(&b, "Gewogen eisen: %s\n", weighted)
		}
		b.WriteString("\n")
	}

	if c := s.Candidate; c != nil {
		b.WriteString("KANDIDAAT")
		if c.Name != "" {
			fmt.Fprintf(&b, ": %s", c.Name)
		}
		b.WriteString("\n")
		if profile := renderProfile(Project(c, category)); profile != "" {
			b.WriteString("Relevante profielgegevens:\n")
			b.WriteString(profile)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "CV:\n%s\n", section(strings.TrimSpace(c.ResumeText), a.limits.ResumeChars))
		if letter := strings.TrimSpace(c.MotivationLetter); letter != "" {
			fmt.Fprintf(&b, "\nMotivatiebrief:\n%s\n", section(letter, a.limits.MotivationChars))
		}
	}

	if note := strings.TrimSpace(s.CompanyNote); note != "" {
		fmt.Fprintf(&b, "\nNOTITIE VAN HET BUREAU (aanvullende context, geen vaststaand feit):\n%s\n",
			section(note, a.limits.CompanyNoteChars))
	}

	return capMessage(strings.TrimSpace(b.String()), a.limits.UserMessageChars)
}

// WeightedRequirements renders "skill (gewicht w)" pairs, heaviest first.
func WeightedRequirements(weights map[string]float64) string {
	if len(weights) == 0 {
		return ""
	}
	skills := make([]string, 0, len(weights))
	for skill := range weights {
		if strings.TrimSpace(skill) != "" {
			skills = append(skills, skill)
		}
	}
	sort.Slice(skills, func(i, j int) bool {
		if weights[skills[i]] != weights[skills[j]] {
			return weights[skills[i]] > weights[skills[j]]
		}
		return skills[i] < skills[j]
	})

	parts := make([]string, 0, len(skills))
	for _, skill := range skills {
		parts = append(parts, fmt.Sprintf("%s (gewicht %s)", skill, strconv.FormatFloat(weights[skill], 'f', -1, 64)))
	}
	return strings.Join(parts, ", ")
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
