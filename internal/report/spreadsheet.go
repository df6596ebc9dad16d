package report

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheet writes rows to one worksheet and keeps the first error.
type sheet struct {
	f    *excelize.File
	name string
	row  int
	bold int
	err  error
}

func (s *sheet) header(cols ...any) {
	s.append(cols...)
	if s.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(cols), s.row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(s.name, fmt.Sprintf("A%d", s.row), last, s.bold)
}

func (s *sheet) append(values ...any) {
	if s.err != nil {
		return
	}
	s.row++
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			s.err = err
			return
		}
		if err := s.f.SetCellValue(s.name, cell, v); err != nil {
			s.err = err
			return
		}
	}
}

func (s *sheet) widths(widths ...float64) {
	for i, w := range widths {
		if s.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			s.err = err
			return
		}
		s.err = s.f.SetColWidth(s.name, col, col, w)
	}
}

// WriteSpreadsheet exports the document's data as an XLSX workbook with one
// sheet per report section.
func WriteSpreadsheet(doc *Document, w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("failed to close workbook", "error", err)
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	newSheet := func(name string) (*sheet, error) {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		return &sheet{f: f, name: name, bold: bold}, nil
	}

	if err := f.SetSheetName("Sheet1", "General Information"); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	general := &sheet{f: f, name: "General Information", bold: bold}
	general.header("Field", "Value")
	general.append("Institution", doc.Header.Institution)
	general.append("School", doc.Header.School)
	general.append("Department", doc.Header.Department)
	for _, fld := range doc.General {
		general.append(fld.Label, fld.Value)
	}
	for _, b := range doc.Synopsis {
		general.append(b.Title, strings.Join(b.Paragraphs, "\n\n"))
	}
	general.append("Generated On", doc.GeneratedOn)
	general.widths(28, 80)

	speakers, err := newSheet("Speakers")
	if err != nil {
		return err
	}
	speakers.header("#", "Name", "Designation", "Presentation Title", "Contact", "Profile")
	for _, s := range doc.Speakers {
		speakers.append(s.Index, s.Name, s.Designation, s.PresentationTitle, s.Contact, strings.Join(s.Profile, "\n\n"))
	}
	speakers.widths(5, 28, 36, 36, 28, 60)

	participants, err := newSheet("Participants")
	if err != nil {
		return err
	}
	participants.header("Participant Type", "Count")
	for _, p := range doc.Participants {
		participants.append(p.Label, p.Count)
	}
	participants.append("Total", doc.TotalParticipants)
	participants.widths(24, 10)

	preparers, err := newSheet("Report Prepared By")
	if err != nil {
		return err
	}
	preparers.header("Name", "Designation", "Signature")
	for _, p := range doc.Preparers {
		signed := "No"
		if p.Signature != nil {
			signed = "Yes"
		}
		preparers.append(p.Name, p.Designation, signed)
	}
	preparers.widths(28, 32, 12)

	photos, err := newSheet("Activity Photos")
	if err != nil {
		return err
	}
	photos.header("#", "Type", "Caption")
	for _, p := range doc.Photos {
		photos.append(p.Index, p.TypeLabel, p.Caption)
	}
	photos.widths(5, 18, 60)

	for _, s := range []*sheet{general, speakers, participants, preparers, photos} {
		if s.err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", s.name, s.err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
