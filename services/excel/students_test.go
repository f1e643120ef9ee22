package excelsvc

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/student"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheetName, cell, &row))
	}
	buf := new(bytes.Buffer)
	require.NoError(t, f.Write(buf))
	return buf
}

func TestRoundTrip(t *testing.T) {
	bd := core.NewDate(time.Date(2010, 4, 23, 0, 0, 0, 0, time.UTC))
	students := []student.Student{
		{StudentNumber: "S-1", FirstName: "Ayşe", LastName: "Kaya", Email: null.StringFrom("ayse@okul.test"), BirthDate: &bd},
		{StudentNumber: "S-2", FirstName: "Mehmet", LastName: "Öz"},
	}
	buf := new(bytes.Buffer)
	require.NoError(t, WriteStudents(buf, students))

	rows, err := ReadStudents(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Row)
	assert.NoError(t, rows[0].Err)
	assert.Equal(t, "S-1", rows[0].Student.StudentNumber)
	assert.Equal(t, null.StringFrom("ayse@okul.test"), rows[0].Student.Email)
	require.NotNil(t, rows[0].Student.BirthDate)
	assert.Equal(t, "2010-04-23", rows[0].Student.BirthDate.String())

	assert.Equal(t, 3, rows[1].Row)
	assert.False(t, rows[1].Student.Email.Valid)
	assert.Nil(t, rows[1].Student.BirthDate)
}

func TestReadStudents(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"LastName", "firstname", "studentNumber", "birthDate"},
		[]interface{}{"Kaya", "Ayşe", "S-1", "23.04.2010"},
		[]interface{}{"", "", "", ""},
		[]interface{}{"Öz", "Mehmet", "S-2", "someday"},
	)
	rows, err := ReadStudents(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.NoError(t, rows[0].Err)
	assert.Equal(t, "Kaya", rows[0].Student.LastName)
	assert.Equal(t, "2010-04-23", rows[0].Student.BirthDate.String())

	assert.Equal(t, 4, rows[1].Row)
	require.Error(t, rows[1].Err)
	assert.Contains(t, rows[1].Err.Error(), "birthDate")
}

func TestReadStudentsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input *bytes.Buffer
		field string
	}{
		{"not a workbook", bytes.NewBufferString("plain text"), "file"},
		{"missing columns", workbook(t, []interface{}{"studentNumber", "firstName"}), "columns.lastName"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadStudents(tc.input)
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)
			assert.True(t, strings.HasPrefix(verr.Fields[0].Field, tc.field))
		})
	}
}
