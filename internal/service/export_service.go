package service

import (
	"context"
	"fmt"

	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/internal/logger"
	"github.com/locvowork/poa_management/apigateway/pkg/poaexcel"
)

type ExportFile struct {
	Name    string
	Content []byte
}

type ExportService interface {
	Export(ctx context.Context, poaID string) (*ExportFile, error)
}

type exportService struct {
	repo      domain.POARepository
	generator *poaexcel.Generator
}

func NewExportService(repo domain.POARepository, generator *poaexcel.Generator) ExportService {
	if generator == nil {
		generator = poaexcel.NewGenerator()
	}
	return &exportService{repo: repo, generator: generator}
}

func (s *exportService) Export(ctx context.Context, poaID string) (*ExportFile, error) {
	poa, err := s.repo.GetPOA(ctx, poaID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ExportRecords(ctx, poa.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load export records: %w", err)
	}

	empty := len(records) == 0
	if empty {
		records = []poaexcel.TaskRecord{{POAYear: poa.Year, ProjectCode: poa.ProjectCode}}
	}

	content, err := s.generator.Generate(records, empty)
	if err != nil {
		return nil, fmt.Errorf("failed to generate workbook: %w", err)
	}

	logger.InfoLog(ctx, "exported poa %s with %d tasks", poa.Code, len(records))
	return &ExportFile{
		Name:    ExportFileName(poa.Year, poa.ProjectCode),
		Content: content,
	}, nil
}

func ExportFileName(year, projectCode string) string {
	return fmt.Sprintf("POA_%s_%s.xlsx", year, projectCode)
}
