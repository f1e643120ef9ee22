// Package excelsvc reads and writes student rosters as xlsx workbooks.
package excelsvc

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/student"
)

const sheetName = "Sheet1"

// StudentColumns is the header row of student workbooks.
var StudentColumns = []string{"studentNumber", "firstName", "lastName", "email", "birthDate"}

var (
	requiredColumns = []string{"studentNumber", "firstName", "lastName"}
	dateLayouts     = []string{core.DateLayout, "02.01.2006", "02/01/2006"}
)

// ReadStudents parses the first sheet of an xlsx workbook. Columns are matched by header name in
// any order; blank rows are skipped. Rows that cannot be parsed carry their error in ImportRow.Err.
func ReadStudents(r io.Reader) ([]student.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "file", Error: "not a valid xlsx workbook"})
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "file", Error: "the workbook has no sheets"})
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	if len(rows) == 0 {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "file", Error: "the sheet is empty"})
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []core.FieldError
	for _, name := range requiredColumns {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			missing = append(missing, core.FieldError{Field: "columns." + name, Error: "missing column"})
		}
	}
	if len(missing) > 0 {
		return nil, core.NewValidationError(nil, missing...)
	}

	cell := func(row []string, name string) string {
		i, ok := cols[strings.ToLower(name)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]student.ImportRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		ir := student.ImportRow{Row: i + 2}
		ir.Student = student.NewStudent{
			StudentNumber: cell(row, "studentNumber"),
			FirstName:     cell(row, "firstName"),
			LastName:      cell(row, "lastName"),
		}
		if email := cell(row, "email"); email != "" {
			ir.Student.Email = null.StringFrom(email)
		}
		if bd := cell(row, "birthDate"); bd != "" {
			d, err := parseDate(bd)
			if err != nil {
				ir.Err = fmt.Errorf("birthDate: %q is not a date", bd)
			} else {
				ir.Student.BirthDate = &d
			}
		}
		out = append(out, ir)
	}
	return out, nil
}

func parseDate(s string) (core.Date, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return core.NewDate(t), nil
		}
	}
	return core.Date{}, err
}

// WriteStudents writes students as an xlsx workbook with a StudentColumns header row.
func WriteStudents(w io.Writer, students []student.Student) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(StudentColumns))
	for i, c := range StudentColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err := f.SetCellStyle(sheetName, "A1", "E1", bold); err != nil {
		return errors.Wrap(err, "styling header")
	}

	for i, s := range students {
		birthDate := ""
		if s.BirthDate != nil {
			birthDate = s.BirthDate.String()
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		row := []interface{}{s.StudentNumber, s.FirstName, s.LastName, s.Email.String, birthDate}
		if err := f.SetSheetRow(sheetName, cellName, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "E", 20); err != nil {
		return errors.Wrap(err, "sizing columns")
	}
	return errors.Wrap(f.Write(w), "writing workbook")
}
