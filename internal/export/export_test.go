package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
)

func fixture() []model.Registration {
	submitted := time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)
	return []model.Registration{
		{
			Email: "a@echo.uib.no", FirstName: "Ada", LastName: "Lovelace",
			Degree: model.DTEK, DegreeYear: 2, SubmitDate: &submitted,
			Answers: []model.Answer{
				{Question: "Allergies, if any?", Answer: "None"},
				{Question: "T-shirt size", Answer: "M"},
			},
		},
		{
			Email: "b@echo.uib.no", FirstName: "Alan", LastName: "Turing",
			Degree: model.INF, DegreeYear: 4, SubmitDate: &submitted, WaitList: true,
			Answers: []model.Answer{{Question: "Something else", Answer: "Yes"}},
		},
	}
}

func TestCSVEmpty(t *testing.T) {
	assert.Equal(t, "", CSV(nil, false))
	assert.Equal(t, "", CSV([]model.Registration{}, true))
}

func TestCSVTesting(t *testing.T) {
	want := "email,firstName,lastName,degree,degreeYear,waitList,Allergies  if any?,T-shirt size\n" +
		"a@echo.uib.no,Ada,Lovelace,DTEK,2,false,None,M\n" +
		"b@echo.uib.no,Alan,Turing,INF,4,true,Yes"
	assert.Equal(t, want, CSV(fixture(), true))
}

func TestCSVWithSubmitDate(t *testing.T) {
	regs := fixture()[:1]
	regs[0].Answers = nil

	want := "email,firstName,lastName,degree,degreeYear,submitDate,waitList\n" +
		"a@echo.uib.no,Ada,Lovelace,DTEK,2,2026-03-01T12:00:01Z,false"
	assert.Equal(t, want, CSV(regs, false))
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(fixture(), true)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header(fixture(), true), rows[0])
	assert.Equal(t, []string{"a@echo.uib.no", "Ada", "Lovelace", "DTEK", "2", "false", "None", "M"}, rows[1])
	assert.Equal(t, []string{"b@echo.uib.no", "Alan", "Turing", "INF", "4", "true", "Yes"}, rows[2])
}

func TestXLSXEmpty(t *testing.T) {
	data, err := XLSX(nil, false)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
