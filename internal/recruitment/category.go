package recruitment

import (
	"fmt"
	"strings"
)

// Category selects which part of the candidate profile a persona sees and
// which topics it focuses on during a debate.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryHiring    Category = "hiring"
	CategoryFinance   Category = "finance"
	CategoryHR        Category = "hr"
	CategoryAgency    Category = "agency"
	CategoryGeneral   Category = "general"
)

// Field names a projectable profile attribute.
type Field string

const (
	FieldYearsExperience    Field = "years_experience"
	FieldSkillTags          Field = "skill_tags"
	FieldPriorTitles        Field = "prior_titles"
	FieldCertifications     Field = "certifications"
	FieldEducationLevel     Field = "education_level"
	FieldTestResults        Field = "test_results"
	FieldSalaryExpectation  Field = "salary_expectation"
	FieldAvailability       Field = "availability_per_week"
	FieldNoticePeriod       Field = "notice_period"
	FieldMotivationReason   Field = "motivation_reason"
	FieldCommunicationLevel Field = "communication_level"
	FieldLocation           Field = "location"
	FieldSource             Field = "source"
	FieldAge                Field = "age"
)

var (
	technicalFields = []Field{FieldYearsExperience, FieldSkillTags, FieldPriorTitles, FieldCertifications, FieldEducationLevel, FieldTestResults}
	financeFields   = []Field{FieldSalaryExpectation, FieldAvailability, FieldNoticePeriod}
	peopleFields    = []Field{FieldMotivationReason, FieldCommunicationLevel, FieldLocation, FieldAvailability, FieldNoticePeriod, FieldSource, FieldAge}
)

// FieldsFor returns the profile fields a category may see, in render order.
func FieldsFor(c Category) []Field {
	switch c {
	case CategoryTechnical, CategoryHiring:
		return technicalFields
	case CategoryFinance:
		return financeFields
	case CategoryHR, CategoryAgency:
		return peopleFields
	default:
		return nil
	}
}

// ParseCategory accepts a category name; empty input yields CategoryGeneral.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "":
		return CategoryGeneral, nil
	case CategoryTechnical, CategoryHiring, CategoryFinance, CategoryHR, CategoryAgency, CategoryGeneral:
		return c, nil
	}
	return "", fmt.Errorf("unknown persona category %q", s)
}

// categoryKeywords is ordered from specific to generic: a "finance_manager" is a
// finance persona, a bare "team_lead" a hiring one.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryFinance, []string{"financ", "cfo", "controller"}},
	{CategoryHR, []string{"hr", "people", "talent"}},
	{CategoryAgency, []string{"agency", "bureau", "recruiter"}},
	{CategoryTechnical, []string{"tech", "engineer", "cto", "developer"}},
	{CategoryHiring, []string{"hiring"}},
	{CategoryHiring, []string{"manager", "lead"}},
}

// InferCategory guesses a category from the words of a persona name. It is used once when
// a catalog record omits the category; nothing else sniffs names.
func InferCategory(name string) Category {
	tokens := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			for _, tok := range tokens {
				if strings.HasPrefix(tok, kw) {
					return entry.category
				}
			}
		}
	}
	return CategoryGeneral
}
