package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/pkg/poaexcel"
)

// Project type codes included in each report category.
var reportProjectTypes = map[string][]string{
	"Investigacion": {"PIIF", "PIS", "PIGR", "PIM"},
	"Vinculacion":   {"PVIF"},
	"Transferencia": {"PTT"},
}

type ReportService interface {
	Rows(ctx context.Context, year, projectType string) ([]poaexcel.ReportRow, error)
	Write(w io.Writer, rows []poaexcel.ReportRow) error
}

type reportService struct {
	repo domain.POARepository
	now  func() time.Time
}

func NewReportService(repo domain.POARepository) ReportService {
	return &reportService{repo: repo, now: time.Now}
}

func (s *reportService) Rows(ctx context.Context, year, projectType string) ([]poaexcel.ReportRow, error) {
	codes, ok := reportProjectTypes[strings.TrimSpace(projectType)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidProjectType, projectType)
	}
	rows, err := s.repo.ReportRows(ctx, strings.TrimSpace(year), codes)
	if err != nil {
		return nil, fmt.Errorf("failed to load report rows: %w", err)
	}
	if rows == nil {
		rows = []poaexcel.ReportRow{}
	}
	return rows, nil
}

func (s *reportService) Write(w io.Writer, rows []poaexcel.ReportRow) error {
	return poaexcel.WriteReport(w, rows, s.now())
}
