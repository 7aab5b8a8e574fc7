package evaluation

import (
	"bytes"
	"encoding/json"

	"github.com/spigell/recruit-panel/internal/recruitment"
	"github.com/spigell/recruit-panel/internal/scoring"
)

// NotAvailable fills verdict text fields the model left out.
const NotAvailable = "Niet beschikbaar"

// NoEvaluations is the combined analysis when every persona failed.
const NoEvaluations = "Geen evaluaties beschikbaar"

type Verdict struct {
	Score              float64                `json:"score"`
	Strengths          string                 `json:"strengths"`
	Weaknesses         string                 `json:"weaknesses"`
	Analysis           string                 `json:"analysis"`
	BigHits            string                 `json:"big_hits,omitempty"`
	BigMisses          string                 `json:"big_misses,omitempty"`
	Recommendation     scoring.Recommendation `json:"recommendation"`
	PersonaDisplayName string                 `json:"persona_display_name"`
	PersonaName        string                 `json:"persona_name"`
}

// Outcome is either a Verdict or an error reason for one persona.
type Outcome struct {
	Persona string
	Display string
	Verdict *Verdict
	Error   string
}

func (o Outcome) OK() bool { return o.Verdict != nil }

func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Verdict != nil {
		return json.Marshal(o.Verdict)
	}
	return json.Marshal(struct {
		Error              string `json:"error"`
		PersonaDisplayName string `json:"persona_display_name"`
		PersonaName        string `json:"persona_name"`
	}{o.Error, o.Display, o.Persona})
}

// Evaluations keeps outcomes in request order and encodes as a JSON object
// keyed by persona name.
type Evaluations []Outcome

func (e Evaluations) Get(persona string) (Outcome, bool) {
	for _, o := range e {
		if o.Persona == persona {
			return o, true
		}
	}
	return Outcome{}, false
}

func (e Evaluations) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, o := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, o.Persona, o); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PersonaPrompts is the ordered name -> prompt mapping echoed in results.
type PersonaPrompts []recruitment.PersonaPrompt

func (p PersonaPrompts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pp := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, pp.Name, pp.Prompt); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

type Result struct {
	Evaluations            Evaluations            `json:"evaluations"`
	PersonaCount           int                    `json:"persona_count"`
	CombinedAnalysis       string                 `json:"combined_analysis"`
	CombinedRecommendation scoring.Recommendation `json:"combined_recommendation"`
	CombinedScore          float64                `json:"combined_score"`
	PersonaPrompts         PersonaPrompts         `json:"persona_prompts"`
}

// Succeeded returns the verdicts that parsed, in request order.
func (r *Result) Succeeded() []*Verdict {
	var out []*Verdict
	for _, o := range r.Evaluations {
		if o.OK() {
			out = append(out, o.Verdict)
		}
	}
	return out
}
