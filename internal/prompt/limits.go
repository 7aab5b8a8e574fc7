// Package prompt renders the system directives and user messages sent to the
// model. Score scale and recommendation rules come from package scoring so
// prompts and post-processing never disagree.
package prompt

import (
	"github.com/spigell/recruit-panel/internal/utils"
)

const (
	// SectionMarker is appended to a free-text section that was cut.
	SectionMarker = " … [ingekort]"
	// MessageMarker is appended when the whole user message was cut.
	MessageMarker = "\n[Prompt truncated …]"
)

// Limits are per-section character budgets.
type Limits struct {
	ResumeChars         int `mapstructure:"resume-chars"`
	MotivationChars     int `mapstructure:"motivation-chars"`
	JobDescriptionChars int `mapstructure:"job-description-chars"`
	CompanyNoteChars    int `mapstructure:"company-note-chars"`
	UserMessageChars    int `mapstructure:"user-message-chars"`
}

func DefaultLimits() Limits {
	return Limits{
		ResumeChars:         1800,
		MotivationChars:     600,
		JobDescriptionChars: 700,
		CompanyNoteChars:    400,
		UserMessageChars:    3000,
	}
}

// Normalize replaces non-positive budgets with defaults.
func (l Limits) Normalize() Limits {
	d := DefaultLimits()
	if l.ResumeChars <= 0 {
		l.ResumeChars = d.ResumeChars
	}
	if l.MotivationChars <= 0 {
		l.MotivationChars = d.MotivationChars
	}
	if l.JobDescriptionChars <= 0 {
		l.JobDescriptionChars = d.JobDescriptionChars
	}
	if l.CompanyNoteChars <= 0 {
		l.CompanyNoteChars = d.CompanyNoteChars
	}
	if l.UserMessageChars <= 0 {
		l.UserMessageChars = d.UserMessageChars
	}
	return l
}

func section(s string, limit int) string {
	return utils.TruncateWithMarker(s, limit, SectionMarker)
}

// capMessage keeps the head of a user message within the overall budget.
func capMessage(s string, limit int) string {
	return utils.TruncateWithMarker(s, limit, MessageMarker)
}
