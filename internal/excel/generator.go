package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/contracts-service/internal/model"
)

const (
	contractsSheet     = "Contrats"
	interventionsSheet = "Interventions"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.ExportReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", contractsSheet); err != nil {
		return nil, err
	}
	if err := g.writeContracts(file, contractsSheet, report); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(interventionsSheet); err != nil {
		return nil, err
	}
	if err := g.writeInterventions(file, interventionsSheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeContracts(file *excelize.File, sheet string, report model.ExportReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	totalHours, usedHours := report.TotalHours()
	set("A1", "Export du")
	set("B1", formatDateTime(report.GeneratedAt))
	set("A2", "Contrats")
	set("B2", len(report.Contracts))
	set("A3", "Heures vendues")
	set("B3", formatHours(totalHours))
	set("A4", "Heures consommées")
	set("B4", formatHours(usedHours))

	tableRow := 6
	headers := []string{
		"N°",
		"Client",
		"Type",
		"Statut",
		"Heures totales",
		"Heures utilisées",
		"Heures restantes",
		"Créé le",
		"Signé le",
		"Archivé",
		"Notes internes",
	}
	if err := writeHeader(file, sheet, tableRow, headers); err != nil {
		return err
	}

	for i, c := range report.Contracts {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), c.ContractNumber)
		set(fmt.Sprintf("B%d", row), c.ClientName)
		set(fmt.Sprintf("C%d", row), contractTypeLabel(c.ContractType))
		set(fmt.Sprintf("D%d", row), statusLabel(c.Status))
		set(fmt.Sprintf("E%d", row), c.TotalHours)
		set(fmt.Sprintf("F%d", row), c.UsedHours)
		set(fmt.Sprintf("G%d", row), c.RemainingHours())
		set(fmt.Sprintf("H%d", row), formatDate(c.CreatedDate))
		set(fmt.Sprintf("I%d", row), formatDatePtr(c.SignedDate))
		set(fmt.Sprintf("J%d", row), yesNo(c.IsArchived))
		set(fmt.Sprintf("K%d", row), c.InternalNotes)
	}

	_ = file.SetColWidth(sheet, "A", "A", 18)
	_ = file.SetColWidth(sheet, "B", "B", 36)
	_ = file.SetColWidth(sheet, "C", "D", 14)
	_ = file.SetColWidth(sheet, "E", "G", 16)
	_ = file.SetColWidth(sheet, "H", "J", 12)
	_ = file.SetColWidth(sheet, "K", "K", 48)
	return nil
}

func (g *Generator) writeInterventions(file *excelize.File, sheet string, report model.ExportReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"N° contrat",
		"Client",
		"Date",
		"Description",
		"Technicien",
		"Heures",
		"Facturable",
		"Lieu",
	}
	if err := writeHeader(file, sheet, 1, headers); err != nil {
		return err
	}

	row := 2
	for _, c := range report.Contracts {
		for _, iv := range c.Interventions {
			set(fmt.Sprintf("A%d", row), c.ContractNumber)
			set(fmt.Sprintf("B%d", row), c.ClientName)
			set(fmt.Sprintf("C%d", row), formatDate(iv.Date))
			set(fmt.Sprintf("D%d", row), iv.Description)
			set(fmt.Sprintf("E%d", row), iv.Technician)
			set(fmt.Sprintf("F%d", row), iv.HoursUsed)
			set(fmt.Sprintf("G%d", row), yesNo(iv.IsBillable))
			set(fmt.Sprintf("H%d", row), formatString(iv.Location))
			row++
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 12)
	_ = file.SetColWidth(sheet, "B", "B", 32)
	_ = file.SetColWidth(sheet, "C", "C", 12)
	_ = file.SetColWidth(sheet, "D", "D", 48)
	_ = file.SetColWidth(sheet, "E", "E", 20)
	_ = file.SetColWidth(sheet, "F", "G", 12)
	_ = file.SetColWidth(sheet, "H", "H", 24)
	return nil
}

func writeHeader(file *excelize.File, sheet string, row int, headers []string) error {
	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		_ = file.SetCellValue(sheet, cell, header)
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	return file.SetCellStyle(sheet, first, last, style)
}

func contractTypeLabel(t model.ContractType) string {
	switch t {
	case model.ContractTypeSigned:
		return "Signé"
	case model.ContractTypeQuote:
		return "Devis"
	default:
		return string(t)
	}
}

func statusLabel(s model.ContractStatus) string {
	switch s {
	case model.ContractStatusActive:
		return "Actif"
	case model.ContractStatusNearExpiry:
		return "Bientôt épuisé"
	case model.ContractStatusExpired:
		return "Épuisé"
	default:
		return string(s)
	}
}

func yesNo(v bool) string {
	if v {
		return "Oui"
	}
	return "Non"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatHours(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
