// Package recruitment describes the records the evaluation core reads:
// candidates, job postings and personas.
package recruitment

import (
	"fmt"
	"strings"
	"unicode"
)

type Stage string

const (
	StageIntroduced      Stage = "introduced"
	StageReview          Stage = "review"
	StageFirstInterview  Stage = "first_interview"
	StageSecondInterview Stage = "second_interview"
	StageOffer           Stage = "offer"
	StageComplete        Stage = "complete"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusOnHold   Status = "on_hold"
	StatusRejected Status = "rejected"
	StatusAccepted Status = "accepted"
)

// Valid reports whether the stage is one of the pipeline stages.
func (s Stage) Valid() bool {
	switch s {
	case StageIntroduced, StageReview, StageFirstInterview, StageSecondInterview, StageOffer, StageComplete:
		return true
	}
	return false
}

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusRejected, StatusAccepted:
		return true
	}
	return false
}

// Profile is the structured part of a candidate record.
type Profile struct {
	Age                int      `json:"age,omitempty" mapstructure:"age"`
	Location           string   `json:"location,omitempty" mapstructure:"location"`
	EducationLevel     string   `json:"education_level,omitempty" mapstructure:"education_level"`
	CommunicationLevel int      `json:"communication_level,omitempty" mapstructure:"communication_level"`
	AvailabilityHours  int      `json:"availability_per_week,omitempty" mapstructure:"availability_per_week"`
	NoticePeriod       string   `json:"notice_period,omitempty" mapstructure:"notice_period"`
	SalaryExpectation  string   `json:"salary_expectation,omitempty" mapstructure:"salary_expectation"`
	SkillTags          []string `json:"skill_tags,omitempty" mapstructure:"skill_tags"`
	PriorTitles        []string `json:"prior_titles,omitempty" mapstructure:"prior_titles"`
	Certifications     []string `json:"certifications,omitempty" mapstructure:"certifications"`
	TestResults        []string `json:"test_results,omitempty" mapstructure:"test_results"`
	MotivationReason   string   `json:"motivation_reason,omitempty" mapstructure:"motivation_reason"`
	Source             string   `json:"source,omitempty" mapstructure:"source"`
}

type Candidate struct {
	ID                 string   `json:"id" mapstructure:"id"`
	Name               string   `json:"name" mapstructure:"name"`
	ResumeText         string   `json:"resume_text" mapstructure:"resume_text"`
	ResumeFile         string   `json:"resume_file,omitempty" mapstructure:"resume_file"`
	MotivationLetter   string   `json:"motivation_letter,omitempty" mapstructure:"motivation_letter"`
	Skills             []string `json:"skills,omitempty" mapstructure:"skills"`
	YearsExperience    float64  `json:"years_experience,omitempty" mapstructure:"years_experience"`
	Profile            Profile  `json:"profile" mapstructure:"profile"`
	Stage              Stage    `json:"stage,omitempty" mapstructure:"stage"`
	Status             Status   `json:"status,omitempty" mapstructure:"status"`
	JobID              string   `json:"job_id,omitempty" mapstructure:"job_id"`
	PreferentialJobIDs []string `json:"preferential_job_ids,omitempty" mapstructure:"preferential_job_ids"`
	SubmittedBy        string   `json:"submitted_by,omitempty" mapstructure:"submitted_by"`
}

// PrimaryJob returns the job used when a request names none: the candidate's
// own job, else the first preferential job.
func (c *Candidate) PrimaryJob() (string, bool) {
	if c == nil {
		return "", false
	}
	if id := strings.TrimSpace(c.JobID); id != "" {
		return id, true
	}
	for _, id := range c.PreferentialJobIDs {
		if id = strings.TrimSpace(id); id != "" {
			return id, true
		}
	}
	return "", false
}

type Job struct {
	ID                   string             `json:"id" mapstructure:"id"`
	Title                string             `json:"title" mapstructure:"title"`
	Company              string             `json:"company" mapstructure:"company"`
	Description          string             `json:"description" mapstructure:"description"`
	Requirements         string             `json:"requirements" mapstructure:"requirements"`
	Location             string             `json:"location,omitempty" mapstructure:"location"`
	SalaryMin            float64            `json:"salary_min,omitempty" mapstructure:"salary_min"`
	SalaryMax            float64            `json:"salary_max,omitempty" mapstructure:"salary_max"`
	WeightedRequirements map[string]float64 `json:"weighted_requirements,omitempty" mapstructure:"weighted_requirements"`
	TenantID             string             `json:"tenant_id,omitempty" mapstructure:"tenant_id"`
}

// SalaryRange renders the salary bounds, or "" when neither is set.
func (j *Job) SalaryRange() string {
	switch {
	case j.SalaryMin > 0 && j.SalaryMax > 0:
		return fmt.Sprintf("€%.0f - €%.0f", j.SalaryMin, j.SalaryMax)
	case j.SalaryMin > 0:
		return fmt.Sprintf("vanaf €%.0f", j.SalaryMin)
	case j.SalaryMax > 0:
		return fmt.Sprintf("tot €%.0f", j.SalaryMax)
	}
	return ""
}

type Persona struct {
	Name             string   `json:"name" mapstructure:"name"`
	DisplayName      string   `json:"display_name" mapstructure:"display_name"`
	SystemPrompt     string   `json:"system_prompt" mapstructure:"system_prompt"`
	PersonalCriteria []string `json:"personal_criteria,omitempty" mapstructure:"personal_criteria"`
	Category         Category `json:"category" mapstructure:"category"`
	TenantID         string   `json:"tenant_id,omitempty" mapstructure:"tenant_id"`
	Active           bool     `json:"active" mapstructure:"active"`
}

// Label returns the display name, falling back to a humanized internal name.
func (p Persona) Label() string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	return Humanize(p.Name)
}

// Humanize turns "hiring_manager" into "Hiring Manager".
func Humanize(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, p := range parts {
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

// PersonaPrompt binds a persona name to the system prompt used for one request.
type PersonaPrompt struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}
