package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/contracts-service/internal/model"
)

// Generator renders contract statements with the core Helvetica font. Text
// goes through a cp1252 translator so French accents survive.
type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(doc model.ContractStatement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	c := doc.Contract

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Relevé du contrat n° %d", c.ContractNumber)), "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Édité le %s", formatDate(doc.GeneratedAt))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, tr("Client"), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	lines := []string{
		c.ClientName,
		fmt.Sprintf("Type : %s", contractTypeLabel(c.ContractType)),
		fmt.Sprintf("Créé le : %s", formatDate(c.CreatedDate)),
		fmt.Sprintf("Signé le : %s", formatDatePtr(c.SignedDate)),
	}
	if c.IsArchived {
		lines = append(lines, fmt.Sprintf("Archivé le : %s", formatDatePtr(c.ArchivedAt)))
	}
	for _, line := range lines {
		pdf.MultiCell(0, 6, tr(line), "", "L", false)
	}
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, tr("Heures"), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Forfait : %s h", formatHours(c.TotalHours))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Consommées : %s h", formatHours(c.UsedHours))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Restantes : %s h", formatHours(c.RemainingHours()))), "", 1, "L", false, 0, "")
	if over := c.Overage(); over > 0 {
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("Dépassement de %s h, reporté au renouvellement.", formatHours(over))), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, tr("Interventions"), "", 1, "L", false, 0, "")

	headers := []string{"Date", "Description", "Technicien", "Heures", "Fact."}
	colWidths := []float64{24, 86, 36, 18, 16}
	drawTableRow(pdf, g.fontName, tr, headers, colWidths, true)

	if len(c.Interventions) == 0 {
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 8, tr("Aucune intervention"), "1", 1, "C", false, 0, "")
	}
	for _, iv := range c.Interventions {
		row := []string{
			formatDate(iv.Date),
			truncate(iv.Description, 52),
			truncate(iv.Technician, 20),
			formatHours(iv.HoursUsed),
			yesNo(iv.IsBillable),
		}
		drawTableRow(pdf, g.fontName, tr, row, colWidths, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func contractTypeLabel(t model.ContractType) string {
	if t == model.ContractTypeSigned {
		return "signé"
	}
	return "devis"
}

func yesNo(v bool) string {
	if v {
		return "oui"
	}
	return "non"
}

func truncate(value string, max int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "…"
}

func formatHours(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02/01/2006")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return formatDate(*t)
}
