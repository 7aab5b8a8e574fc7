package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spigell/recruit-panel/internal/panel"
	"github.com/spigell/recruit-panel/internal/recruitment"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

const (
	PromptDone   = "Klaar"
	PromptCancel = "Annuleren"
)

var errCancelled = errors.New("persona selection cancelled")

func addSubjectFlags(cmd *cobra.Command) {
	cmd.Flags().String("job", "", "job id (default is the candidate's own job)")
	cmd.Flags().String("tenant", "", "tenant whose personas are used next to the global ones")
	cmd.Flags().StringSliceP("persona", "p", nil, "persona name, may be repeated; asks interactively when unset")
	cmd.Flags().StringToString("prompt", nil, "override a persona's system prompt, e.g. --prompt cto='Je bent ...'")
	cmd.Flags().String("note", "", "company note from the agency")
	cmd.Flags().StringP("export", "o", "", "write the result to an xlsx workbook")
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return strings.TrimSpace(v)
}

func subjectFromFlags(cmd *cobra.Command, a *application) (panel.Subject, error) {
	personas, _ := cmd.Flags().GetStringSlice("persona")
	prompts, _ := cmd.Flags().GetStringToString("prompt")
	tenant := flagString(cmd, "tenant")

	if len(personas) == 0 {
		picked, err := pickPersonas(a.catalog.Personas(tenant))
		if err != nil {
			return panel.Subject{}, err
		}
		personas = picked
	}

	return panel.Subject{
		JobID:       flagString(cmd, "job"),
		Tenant:      tenant,
		Personas:    personas,
		Prompts:     prompts,
		CompanyNote: flagString(cmd, "note"),
	}, nil
}

// pickPersonas asks for personas one by one until the user is done.
func pickPersonas(available []recruitment.Persona) ([]string, error) {
	if len(available) == 0 {
		return nil, panel.ErrNoPersonas
	}

	var picked []string
	for {
		items := make([]string, 0, len(available)+2)
		names := make(map[string]string, len(available))
		for _, p := range available {
			if slices.Contains(picked, p.Name) {
				continue
			}
			label := fmt.Sprintf("%s (%s)", p.Label(), p.Name)
			names[label] = p.Name
			items = append(items, label)
		}
		if len(picked) > 0 {
			items = append(items, PromptDone)
		}

		selector := promptui.Select{
			Label: fmt.Sprintf("Kies een persona (%d gekozen)", len(picked)),
			Items: append(items, PromptCancel),
		}

		_, selected, err := selector.Run()
		if err != nil {
			return nil, err
		}

		switch selected {
		case PromptDone:
			return picked, nil
		case PromptCancel:
			return nil, errCancelled
		default:
			picked = append(picked, names[selected])
			if len(picked) == len(available) {
				return picked, nil
			}
		}
	}
}

// resultJobID is the job a run used: the flag, else the candidate's own.
func resultJobID(flag string, cand *recruitment.Candidate) string {
	if flag != "" || cand == nil {
		return flag
	}
	id, _ := cand.PrimaryJob()
	return id
}

// exportPath adds the candidate id to the file name when several
// candidates are exported in one run.
func exportPath(path, candidateID string, total int) string {
	if total <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + candidateID + ext
}
