package model

import "time"

// ExportReport is the dataset rendered by the spreadsheet export.
type ExportReport struct {
	GeneratedAt     time.Time
	IncludeArchived bool
	Contracts       []Contract
}

func (r ExportReport) TotalHours() (total, used float64) {
	for _, c := range r.Contracts {
		total += c.TotalHours
		used += c.UsedHours
	}
	return total, used
}

func (r ExportReport) InterventionCount() int {
	count := 0
	for _, c := range r.Contracts {
		count += len(c.Interventions)
	}
	return count
}

// ContractStatement is the dataset rendered by the PDF statement.
type ContractStatement struct {
	Contract    Contract
	GeneratedAt time.Time
}
