// Package export writes evaluation and debate results to xlsx workbooks.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spigell/recruit-panel/internal/debate"
	"github.com/spigell/recruit-panel/internal/evaluation"
	"github.com/spigell/recruit-panel/internal/recruitment"
	"github.com/spigell/recruit-panel/internal/scoring"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Samenvatting"
	personasSheet   = "Beoordelingen"
	transcriptSheet = "Gesprek"
	timingSheet     = "Tijden"
)

// Subject names the candidate and job on the summary sheet.
type Subject struct {
	Candidate *recruitment.Candidate
	Job       *recruitment.Job
}

type styles struct {
	header int
	label  int
	wrap   int
	fits   map[scoring.Recommendation]int
}

func newStyles(f *excelize.File) (*styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	s := &styles{fits: make(map[scoring.Recommendation]int)}
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return nil, err
	}
	if s.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return nil, err
	}
	if s.wrap, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	}); err != nil {
		return nil, err
	}

	colors := map[scoring.Recommendation]string{
		scoring.StrongFit: "C6EFCE",
		scoring.Uncertain: "FFEB9C",
		scoring.NoFit:     "FFC7CE",
	}
	for rec, color := range colors {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
			Border:    border,
		})
		if err != nil {
			return nil, err
		}
		s.fits[rec] = id
	}
	return s, nil
}

// WriteEvaluation writes a summary sheet and one row per persona.
func WriteEvaluation(path string, subject Subject, result *evaluation.Result) error {
	if result == nil {
		return fmt.Errorf("no evaluation to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	rows := [][2]any{
		{"Gecombineerde score", scoring.Format(result.CombinedScore)},
		{"Aanbeveling", string(result.CombinedRecommendation)},
		{"Aantal persona's", result.PersonaCount},
		{"Geslaagde beoordelingen", len(result.Succeeded())},
		{"Analyse", result.CombinedAnalysis},
	}
	if err := writeSummary(f, st, subject, rows); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if _, err := f.NewSheet(personasSheet); err != nil {
		return err
	}
	headers := []string{"Persona", "Score", "Aanbeveling", "Sterke punten", "Zwakke punten", "Analyse", "Fout"}
	if err := writeHeader(f, personasSheet, st, headers, []float64{22, 10, 34, 40, 40, 60, 30}); err != nil {
		return err
	}
	for i, o := range result.Evaluations {
		row := i + 2
		values := []any{o.Display, "", "", "", "", "", o.Error}
		style := st.wrap
		if v := o.Verdict; v != nil {
			values = []any{o.Display, scoring.Format(v.Score), string(v.Recommendation), v.Strengths, v.Weaknesses, v.Analysis, ""}
			style = st.fits[v.Recommendation]
		}
		if err := writeRow(f, personasSheet, row, values, style); err != nil {
			return err
		}
	}
	freezeHeader(f, personasSheet)

	return save(f, path)
}

// WriteDebate writes a summary sheet, the transcript and the timing steps.
func WriteDebate(path string, subject Subject, result *debate.Result) error {
	if result == nil {
		return fmt.Errorf("no debate to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	rows := [][2]any{
		{"Eindoordeel", result.FinalVerdict},
		{"Panel", strings.Join(result.Personas, ", ")},
		{"Berichten", len(result.Transcript)},
		{"Totale duur (s)", result.Timing.Total},
	}
	if err := writeSummary(f, st, subject, rows); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if _, err := f.NewSheet(transcriptSheet); err != nil {
		return err
	}
	if err := writeHeader(f, transcriptSheet, st, []string{"#", "Rol", "Bericht"}, []float64{6, 22, 100}); err != nil {
		return err
	}
	for i, e := range result.Transcript {
		if err := writeRow(f, transcriptSheet, i+2, []any{i + 1, e.Role, e.Content}, st.wrap); err != nil {
			return err
		}
	}
	freezeHeader(f, transcriptSheet)

	if _, err := f.NewSheet(timingSheet); err != nil {
		return err
	}
	if err := writeHeader(f, timingSheet, st, []string{"Stap", "Deelnemers", "Duur (s)", "Parallel", "Tijdstip"}, []float64{24, 50, 12, 10, 26}); err != nil {
		return err
	}
	for i, s := range result.Timing.Steps {
		agents := s.Agent
		if s.Parallel {
			agents = strings.Join(s.Agents, ", ")
		}
		parallel := "nee"
		if s.Parallel {
			parallel = "ja"
		}
		values := []any{s.Step, agents, s.Duration, parallel, s.Timestamp.Format("2006-01-02 15:04:05.000")}
		if err := writeRow(f, timingSheet, i+2, values, st.wrap); err != nil {
			return err
		}
	}
	freezeHeader(f, timingSheet)

	return save(f, path)
}

func writeSummary(f *excelize.File, st *styles, subject Subject, rows [][2]any) error {
	if err := f.SetColWidth(summarySheet, "A", "A", 26); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 80); err != nil {
		return err
	}

	var lead [][2]any
	if c := subject.Candidate; c != nil {
		lead = append(lead, [2]any{"Kandidaat", c.Name})
	}
	if j := subject.Job; j != nil {
		lead = append(lead, [2]any{"Functie", j.Title}, [2]any{"Bedrijf", j.Company})
	}

	for i, kv := range append(lead, rows...) {
		row := i + 1
		label, _ := excelize.CoordinatesToCellName(1, row)
		value, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(summarySheet, label, kv[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, label, label, st.label); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, value, kv[1]); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, value, value, st.wrap); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, st *styles, headers []string, widths []float64) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, st.header); err != nil {
			return err
		}
		if col < len(widths) {
			name, _ := excelize.ColumnNumberToName(col + 1)
			if err := f.SetColWidth(sheet, name, name, widths[col]); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	first, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, first, &values); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(values), row)
	return f.SetCellStyle(sheet, first, last, style)
}

func freezeHeader(f *excelize.File, sheet string) {
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func save(f *excelize.File, path string) error {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	if err := f.SaveAs(filepath.Clean(path)); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
