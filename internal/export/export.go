// Package export renders a happening's registrations as a flat table, either
// as CSV text or as an .xlsx workbook.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
)

const sheetName = "Påmeldte"

// Header returns the column names. Question columns come from the first
// registrant only; later registrants with other questions are not reflected.
// With testing set the submit date column is left out.
func Header(regs []model.Registration, testing bool) []string {
	header := []string{"email", "firstName", "lastName", "degree", "degreeYear"}
	if !testing {
		header = append(header, "submitDate")
	}
	header = append(header, "waitList")
	if len(regs) > 0 {
		for _, a := range regs[0].Answers {
			header = append(header, strings.ReplaceAll(a.Question, ",", " "))
		}
	}
	return header
}

// Row returns one registrant's cells in header order.
func Row(reg model.Registration, testing bool) []string {
	row := []string{reg.Email, reg.FirstName, reg.LastName, string(reg.Degree), strconv.Itoa(reg.DegreeYear)}
	if !testing {
		row = append(row, formatSubmitDate(reg.SubmitDate))
	}
	row = append(row, strconv.FormatBool(reg.WaitList))
	for _, a := range reg.Answers {
		row = append(row, a.Answer)
	}
	return row
}

func formatSubmitDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// CSV renders the registrations as comma-joined lines separated by "\n",
// without a trailing newline. No registrations yields "".
//
// Cells are joined as-is with no quoting; downstream consumers depend on
// this exact layout.
func CSV(regs []model.Registration, testing bool) string {
	if len(regs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(Header(regs, testing), ","))
	for _, reg := range regs {
		b.WriteByte('\n')
		b.WriteString(strings.Join(Row(reg, testing), ","))
	}
	return b.String()
}

// XLSX renders the same table as CSV into a single-sheet workbook.
func XLSX(regs []model.Registration, testing bool) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	if len(regs) > 0 {
		header := Header(regs, testing)
		if err := setRow(f, 1, header); err != nil {
			return nil, err
		}

		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, fmt.Errorf("create header style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := f.SetCellStyle(sheetName, "A1", last, style); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}

		for i, reg := range regs {
			if err := setRow(f, i+2, Row(reg, testing)); err != nil {
				return nil, err
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
