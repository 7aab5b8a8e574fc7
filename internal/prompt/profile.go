package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/recruit-panel/internal/recruitment"
)

// ProfileLine is one rendered profile attribute.
type ProfileLine struct {
	Label string
	Value string
}

var fieldLabels = map[recruitment.Field]string{
	recruitment.FieldYearsExperience:    "Jaren ervaring",
	recruitment.FieldSkillTags:          "Vaardigheden",
	recruitment.FieldPriorTitles:        "Eerdere functies",
	recruitment.FieldCertifications:     "Certificeringen",
	recruitment.FieldEducationLevel:     "Opleidingsniveau",
	recruitment.FieldTestResults:        "Testresultaten",
	recruitment.FieldSalaryExpectation:  "Salarisindicatie",
	recruitment.FieldAvailability:       "Beschikbaarheid (uur per week)",
	recruitment.FieldNoticePeriod:       "Opzegtermijn",
	recruitment.FieldMotivationReason:   "Motivatie",
	recruitment.FieldCommunicationLevel: "Communicatieniveau (1-10)",
	recruitment.FieldLocation:           "Woonplaats",
	recruitment.FieldSource:             "Bron",
	recruitment.FieldAge:                "Leeftijd",
}

// Project renders the part of the candidate profile a persona category may
// see. Empty attributes are skipped.
func Project(c *recruitment.Candidate, category recruitment.Category) []ProfileLine {
	if c == nil {
		return nil
	}

	var lines []ProfileLine
	for _, field := range recruitment.FieldsFor(category) {
		value := fieldValue(c, field)
		if value == "" {
			continue
		}
		lines = append(lines, ProfileLine{Label: fieldLabels[field], Value: value})
	}
	return lines
}

func fieldValue(c *recruitment.Candidate, field recruitment.Field) string {
	p := c.Profile
	switch field {
	case recruitment.FieldYearsExperience:
		if c.YearsExperience > 0 {
			return strconv.FormatFloat(c.YearsExperience, 'f', -1, 64)
		}
	case recruitment.FieldSkillTags:
		if len(p.SkillTags) > 0 {
			return joinList(p.SkillTags)
		}
		return joinList(c.Skills)
	case recruitment.FieldPriorTitles:
		return joinList(p.PriorTitles)
	case recruitment.FieldCertifications:
		return joinList(p.Certifications)
	case recruitment.FieldEducationLevel:
		return strings.TrimSpace(p.EducationLevel)
	case recruitment.FieldTestResults:
		return joinList(p.TestResults)
	case recruitment.FieldSalaryExpectation:
		return strings.TrimSpace(p.SalaryExpectation)
	case recruitment.FieldAvailability:
		if p.AvailabilityHours > 0 {
			return strconv.Itoa(p.AvailabilityHours)
		}
	case recruitment.FieldNoticePeriod:
		return strings.TrimSpace(p.NoticePeriod)
	case recruitment.FieldMotivationReason:
		return strings.TrimSpace(p.MotivationReason)
	case recruitment.FieldCommunicationLevel:
		if p.CommunicationLevel > 0 {
			return strconv.Itoa(clampLevel(p.CommunicationLevel))
		}
	case recruitment.FieldLocation:
		return strings.TrimSpace(p.Location)
	case recruitment.FieldSource:
		return strings.TrimSpace(p.Source)
	case recruitment.FieldAge:
		if p.Age > 0 {
			return strconv.Itoa(p.Age)
		}
	}
	return ""
}

// clampLevel keeps score-scale profile fields inside 1..10.
func clampLevel(v int) int {
	return min(max(v, 1), 10)
}

func joinList(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return strings.Join(cleaned, ", ")
}

func renderProfile(lines []ProfileLine) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&b, "- %s: %s\n", line.Label, line.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}
