package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/contracts-service/internal/model"
)

func sampleReport() model.ExportReport {
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	signed := day.Add(24 * time.Hour)
	site := "Agence Lyon"
	return model.ExportReport{
		GeneratedAt: day,
		Contracts: []model.Contract{
			{
				ID:             uuid.New(),
				ContractNumber: 1,
				ClientName:     "Acme",
				TotalHours:     10,
				UsedHours:      14,
				CreatedDate:    day,
				Status:         model.ContractStatusExpired,
				ContractType:   model.ContractTypeSigned,
				SignedDate:     &signed,
				Interventions: []model.Intervention{
					{Date: day, Description: "Fix", HoursUsed: 14, Technician: "Julie", IsBillable: true, Location: &site},
					{Date: day, Description: "Call", HoursUsed: 1, Technician: "Marc"},
				},
			},
			{
				ID:             uuid.New(),
				ContractNumber: 2,
				ClientName:     "Globex",
				TotalHours:     20,
				CreatedDate:    day,
				Status:         model.ContractStatusActive,
				ContractType:   model.ContractTypeQuote,
			},
		},
	}
}

func TestGenerate_Sheets(t *testing.T) {
	content, err := NewGenerator().Generate(sampleReport())
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{contractsSheet, interventionsSheet}, file.GetSheetList())

	cell := func(sheet, axis string) string {
		v, err := file.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "2", cell(contractsSheet, "B2"))
	assert.Equal(t, "30.00", cell(contractsSheet, "B3"))
	assert.Equal(t, "14.00", cell(contractsSheet, "B4"))
	assert.Equal(t, "Client", cell(contractsSheet, "B6"))
	assert.Equal(t, "Acme", cell(contractsSheet, "B7"))
	assert.Equal(t, "Signé", cell(contractsSheet, "C7"))
	assert.Equal(t, "Épuisé", cell(contractsSheet, "D7"))
	assert.Equal(t, "-4", cell(contractsSheet, "G7"))
	assert.Equal(t, "2026-03-03", cell(contractsSheet, "I7"))
	assert.Equal(t, "Devis", cell(contractsSheet, "C8"))
	assert.Equal(t, "", cell(contractsSheet, "I8"))

	assert.Equal(t, "Description", cell(interventionsSheet, "D1"))
	assert.Equal(t, "Fix", cell(interventionsSheet, "D2"))
	assert.Equal(t, "Oui", cell(interventionsSheet, "G2"))
	assert.Equal(t, "Agence Lyon", cell(interventionsSheet, "H2"))
	assert.Equal(t, "Non", cell(interventionsSheet, "G3"))
	assert.Equal(t, "", cell(interventionsSheet, "A4"))
}

func TestGenerate_EmptyReport(t *testing.T) {
	content, err := NewGenerator().Generate(model.ExportReport{GeneratedAt: time.Now()})
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows(interventionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Bientôt épuisé", statusLabel(model.ContractStatusNearExpiry))
	assert.Equal(t, "Actif", statusLabel(model.ContractStatusActive))
	assert.Equal(t, "custom", statusLabel("custom"))
	assert.Equal(t, "Devis", contractTypeLabel(model.ContractTypeQuote))
}
