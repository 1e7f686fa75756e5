package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nurpe/contracts-service/internal/model"
)

type ExcelGenerator interface {
	Generate(report model.ExportReport) ([]byte, error)
}

type PDFGenerator interface {
	Generate(statement model.ContractStatement) ([]byte, error)
}

type ExportSource interface {
	ListContractsWithInterventions(ctx context.Context, includeArchived bool) ([]model.Contract, error)
	GetContractWithInterventions(ctx context.Context, id uuid.UUID) (*model.Contract, error)
}

// ExportService renders read-only snapshots of the ledger.
type ExportService struct {
	source ExportSource
	excel  ExcelGenerator
	pdf    PDFGenerator
	clock  Clock
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func NewExportService(source ExportSource, excel ExcelGenerator, pdf PDFGenerator, clock Clock) *ExportService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ExportService{
		source: source,
		excel:  excel,
		pdf:    pdf,
		clock:  clock,
	}
}

func (s *ExportService) Workbook(ctx context.Context, includeArchived bool) (*ExportResult, error) {
	contracts, err := s.source.ListContractsWithInterventions(ctx, includeArchived)
	if err != nil {
		return nil, err
	}

	report := model.ExportReport{
		GeneratedAt:     s.clock.Now(),
		IncludeArchived: includeArchived,
		Contracts:       contracts,
	}
	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return &ExportResult{
		FileName: fmt.Sprintf("contrats-%s.xlsx", report.GeneratedAt.Format("20060102")),
		Content:  content,
	}, nil
}

func (s *ExportService) Statement(ctx context.Context, contractID uuid.UUID) (*ExportResult, error) {
	contract, err := s.source.GetContractWithInterventions(ctx, contractID)
	if err != nil {
		return nil, storeErr(err)
	}

	content, err := s.pdf.Generate(model.ContractStatement{
		Contract:    *contract,
		GeneratedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return &ExportResult{
		FileName: fmt.Sprintf("contrat-%d.pdf", contract.ContractNumber),
		Content:  content,
	}, nil
}
