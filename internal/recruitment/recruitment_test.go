package recruitment

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestValidateResume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "empty", text: "   ", wantErr: true},
		{name: "49 characters", text: strings.Repeat("a", 49), wantErr: true},
		{name: "50 characters", text: strings.Repeat("a", 50)},
		{name: "50 characters with padding", text: "  " + strings.Repeat("é", 50) + "\n"},
		{name: "pdf bytes", text: "%PDF-1.7\n" + strings.Repeat("x", 60), wantErr: true},
		{name: "control bytes", text: strings.Repeat("\x01\x02\x03ab", 20), wantErr: true},
		{name: "invalid utf8", text: strings.Repeat("\xff\xfeab", 30), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateResume(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidResume) {
					t.Fatalf("expected ErrInvalidResume, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPrimaryJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate *Candidate
		expect    string
		ok        bool
	}{
		{name: "nil", candidate: nil},
		{name: "own job", candidate: &Candidate{JobID: "j1", PreferentialJobIDs: []string{"j2"}}, expect: "j1", ok: true},
		{name: "first preferential", candidate: &Candidate{PreferentialJobIDs: []string{" ", "j2", "j3"}}, expect: "j2", ok: true},
		{name: "none", candidate: &Candidate{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.candidate.PrimaryJob()
			if got != tt.expect || ok != tt.ok {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tt.expect, tt.ok, got, ok)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want Category
	}{
		{"finance_director", CategoryFinance},
		{"finance_manager", CategoryFinance},
		{"tech_lead", CategoryTechnical},
		{"hiring_manager", CategoryHiring},
		{"team_lead", CategoryHiring},
		{"hr_manager", CategoryHR},
		{"people_lead", CategoryHR},
		{"agency_lead", CategoryAgency},
		{"bureau_recruiter", CategoryAgency},
		{"ceo", CategoryGeneral},
	}
	for _, tt := range tests {
		if got := InferCategory(tt.name); got != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}

	if fields := FieldsFor(InferCategory("finance_manager")); !slices.Contains(fields, FieldSalaryExpectation) {
		t.Fatalf("expected finance projection with salary, got %v", fields)
	}

	if c, err := ParseCategory(""); err != nil || c != CategoryGeneral {
		t.Fatalf("expected general for empty input, got %q %v", c, err)
	}
	if _, err := ParseCategory("marketing"); err == nil {
		t.Fatalf("expected error for unknown category")
	}

	if fields := FieldsFor(CategoryFinance); len(fields) != 3 {
		t.Fatalf("expected 3 finance fields, got %v", fields)
	}
	if FieldsFor(CategoryGeneral) != nil {
		t.Fatalf("expected empty projection for general personas")
	}
}

func TestLabels(t *testing.T) {
	t.Parallel()

	if got := (Persona{Name: "hiring_manager"}).Label(); got != "Hiring Manager" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (Persona{Name: "x", DisplayName: "Technisch Lead"}).Label(); got != "Technisch Lead" {
		t.Fatalf("unexpected label %q", got)
	}
	if !StageOffer.Valid() || Stage("hired").Valid() || !StatusOnHold.Valid() || Status("gone").Valid() {
		t.Fatalf("unexpected stage/status validation")
	}
	if got := (&Job{SalaryMax: 5000}).SalaryRange(); got != "tot €5000" {
		t.Fatalf("unexpected salary range %q", got)
	}
}
