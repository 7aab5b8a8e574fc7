package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spigell/recruit-panel/internal/recruitment"
	"github.com/spigell/recruit-panel/internal/scoring"
)

func testSubject() Subject {
	return Subject{
		Candidate: &recruitment.Candidate{
			ID:              "c1",
			Name:            "Sanne de Vries",
			ResumeText:      "Backend ontwikkelaar met zes jaar ervaring in Go en Kubernetes bij diverse scale-ups.",
			YearsExperience: 6,
			Skills:          []string{"Go", "Kubernetes"},
			Profile: recruitment.Profile{
				Certifications:     []string{"CKA"},
				SalaryExpectation:  "€5.000 bruto",
				NoticePeriod:       "1 maand",
				AvailabilityHours:  36,
				MotivationReason:   "Wil meer eigenaarschap",
				CommunicationLevel: 14,
				Location:           "Utrecht",
			},
		},
		Job: &recruitment.Job{
			ID:                   "j1",
			Title:                "Senior Go Developer",
			Company:              "Acme",
			Description:          "Bouw aan ons betalingsplatform.",
			Requirements:         "Go, Postgres",
			SalaryMin:            4500,
			SalaryMax:            6000,
			WeightedRequirements: map[string]float64{"Go": 3, "Postgres": 1.5, "AWS": 1.5},
		},
		CompanyNote: "Kandidaat is per direct beschikbaar.",
	}
}

func TestEvaluationProjectsProfileByCategory(t *testing.T) {
	t.Parallel()

	a := NewAssembler(scoring.DefaultThresholds(), DefaultLimits())

	tests := []struct {
		name     string
		category recruitment.Category
		want     []string
		reject   []string
	}{
		{
			name:     "technical",
			category: recruitment.CategoryTechnical,
			want:     []string{"Jaren ervaring: 6", "Vaardigheden: Go, Kubernetes", "Certificeringen: CKA"},
			reject:   []string{"Salarisindicatie", "Woonplaats"},
		},
		{
			name:     "finance",
			category: recruitment.CategoryFinance,
			want:     []string{"Salarisindicatie: €5.000 bruto", "Opzegtermijn: 1 maand", "Beschikbaarheid (uur per week): 36"},
			reject:   []string{"Certificeringen", "Jaren ervaring"},
		},
		{
			name:     "hr",
			category: recruitment.CategoryHR,
			want:     []string{"Motivatie: Wil meer eigenaarschap", "Woonplaats: Utrecht", "Communicatieniveau (1-10): 10"},
			reject:   []string{"Certificeringen", "Salarisindicatie"},
		},
		{
			name:     "general",
			category: recruitment.CategoryGeneral,
			reject:   []string{"Relevante profielgegevens"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, user := a.Evaluation(EvaluationInput{
				Persona: recruitment.Persona{Name: "p", Category: tt.category},
				Subject: testSubject(),
			})
			for _, w := range tt.want {
				if !strings.Contains(user, w) {
					t.Fatalf("expected user message to contain %q:\n%s", w, user)
				}
			}
			for _, r := range tt.reject {
				if strings.Contains(user, r) {
					t.Fatalf("expected user message not to contain %q:\n%s", r, user)
				}
			}
		})
	}
}

func TestEvaluationDirective(t *testing.T) {
	t.Parallel()

	a := NewAssembler(scoring.DefaultThresholds(), DefaultLimits())
	system, user := a.Evaluation(EvaluationInput{
		Persona: recruitment.Persona{
			Name:             "finance_director",
			SystemPrompt:     "opgeslagen prompt",
			PersonalCriteria: []string{"Kostenbewust", " "},
			Category:         recruitment.CategoryFinance,
		},
		SystemPrompt: "Je bent de financieel directeur.",
		Subject:      testSubject(),
		Strictness:   StrictnessSevere,
	})

	for _, want := range []string{
		"Je bent de financieel directeur.",
		"Je beoordeelt als Finance Director",
		`"Senior Go Developer" bij Acme`,
		"Strengheid: severe.",
		"- Kostenbewust",
		string(scoring.StrongFit),
		`"recommendation"`,
	} {
		if !strings.Contains(system, want) {
			t.Fatalf("expected directive to contain %q:\n%s", want, system)
		}
	}
	if strings.Contains(system, "opgeslagen prompt") {
		t.Fatalf("expected override to replace the stored prompt")
	}

	for _, want := range []string{"Salaris: €4500 - €6000", "Gewogen eisen: Go (gewicht 3), AWS (gewicht 1.5), Postgres (gewicht 1.5)", "NOTITIE VAN HET BUREAU"} {
		if !strings.Contains(user, want) {
			t.Fatalf("expected user message to contain %q:\n%s", want, user)
		}
	}
}

func TestEvaluationTruncation(t *testing.T) {
	t.Parallel()

	limits := Limits{ResumeChars: 100, CompanyNoteChars: 10, UserMessageChars: 400}
	a := NewAssembler(scoring.DefaultThresholds(), limits)

	s := testSubject()
	s.Candidate.ResumeText = strings.Repeat("r", 500)
	s.CompanyNote = strings.Repeat("n", 50)

	_, user := a.Evaluation(EvaluationInput{Persona: recruitment.Persona{Name: "p"}, Subject: s})
	if !strings.Contains(user, strings.Repeat("r", 100)+SectionMarker) || strings.Contains(user, strings.Repeat("r", 101)) {
		t.Fatalf("expected resume to be cut to 100 chars:\n%s", user)
	}
	if !strings.HasSuffix(user, MessageMarker) && !strings.Contains(user, strings.Repeat("n", 10)+SectionMarker) {
		t.Fatalf("expected company note to be cut:\n%s", user)
	}

	s.Candidate.ResumeText = strings.Repeat("x", 5000)
	a = NewAssembler(scoring.DefaultThresholds(), Limits{ResumeChars: 10000, UserMessageChars: 3000})
	_, user = a.Evaluation(EvaluationInput{Persona: recruitment.Persona{Name: "p"}, Subject: s})
	if !strings.HasSuffix(user, MessageMarker) {
		t.Fatalf("expected overall cap marker")
	}
	if got := utf8.RuneCountInString(user); got != 3000+utf8.RuneCountInString(MessageMarker) {
		t.Fatalf("expected capped message length, got %d", got)
	}
}

func TestParseStrictness(t *testing.T) {
	t.Parallel()

	if s, err := ParseStrictness(" Strict "); err != nil || s != StrictnessStrict {
		t.Fatalf("unexpected parse result %q %v", s, err)
	}
	if s, err := ParseStrictness(""); err != nil || s.Directive() != "" {
		t.Fatalf("expected empty strictness to render nothing, got %q %v", s, err)
	}
	if _, err := ParseStrictness("brutal"); err == nil {
		t.Fatalf("expected error for unknown strictness")
	}
}

func TestCombined(t *testing.T) {
	t.Parallel()

	a := NewAssembler(scoring.DefaultThresholds(), DefaultLimits())
	system, user := a.Combined([]Overview{
		{Persona: "Hiring Manager", Score: 8, Recommendation: scoring.StrongFit, Strengths: "Sterke Go-ervaring"},
		{Persona: "Finance Director", Score: 6, Recommendation: scoring.Uncertain},
	}, 7, scoring.StrongFit)

	if !strings.Contains(system, "7.0/10") || !strings.Contains(system, "Aanbeveling: "+string(scoring.StrongFit)) {
		t.Fatalf("unexpected combined directive:\n%s", system)
	}
	if !strings.Contains(user, "- Hiring Manager: 8.0/10") || !strings.Contains(user, "Sterk: Sterke Go-ervaring") {
		t.Fatalf("unexpected combined overview:\n%s", user)
	}

	fallback := CombinedFallback(2, 7, scoring.StrongFit)
	if fallback != "Op basis van 2 beoordelingen is de gemiddelde score 7.0/10 (goed). Aanbeveling: Sterk geschikt / uitnodigen voor gesprek." {
		t.Fatalf("unexpected fallback: %q", fallback)
	}
}

func TestDebateDirectives(t *testing.T) {
	t.Parallel()

	a := NewAssembler(scoring.DefaultThresholds(), DefaultLimits())
	persona := a.DebatePersona(recruitment.Persona{Name: "cfo", DisplayName: "CFO", Category: recruitment.CategoryFinance}, "", testSubject())
	if !strings.Contains(persona, "Je neemt als CFO deel") || !strings.Contains(persona, Focus(recruitment.CategoryFinance)) {
		t.Fatalf("unexpected persona directive:\n%s", persona)
	}

	final := a.Moderator(testSubject(), true)
	for _, v := range Verdicts {
		if !strings.Contains(final, v) {
			t.Fatalf("expected final moderator directive to list %q", v)
		}
	}
	if strings.Contains(a.Moderator(testSubject(), false), "Eindoordeel") {
		t.Fatalf("intermediate moderator directive must not ask for a verdict")
	}
}
