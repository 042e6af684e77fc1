package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/internal/logger"
)

const logDateLayout = "2006-01-02"

type UploadLogService interface {
	// List returns the logs between two optional YYYY-MM-DD dates, newest
	// first. The end date is inclusive.
	List(ctx context.Context, from, to string) ([]domain.UploadLog, error)
	Get(ctx context.Context, id string) (*domain.UploadLog, error)
	// Count returns how many uploads were recorded against a POA.
	Count(ctx context.Context, poaID string) (int, error)
}

type uploadLogService struct {
	store domain.UploadLogStore
}

func NewUploadLogService(store domain.UploadLogStore) UploadLogService {
	return &uploadLogService{store: store}
}

func (s *uploadLogService) List(ctx context.Context, from, to string) ([]domain.UploadLog, error) {
	start, ok := parseLogDate(from)
	if !ok {
		logger.WarnLog(ctx, "invalid fecha_inicio %q", from)
		return []domain.UploadLog{}, nil
	}
	end, ok := parseLogDate(to)
	if !ok {
		logger.WarnLog(ctx, "invalid fecha_fin %q", to)
		return []domain.UploadLog{}, nil
	}
	if !end.IsZero() {
		end = end.Add(24*time.Hour - time.Second)
	}

	logs, err := s.store.ListUploadLogs(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload logs: %w", err)
	}
	if logs == nil {
		logs = []domain.UploadLog{}
	}
	return logs, nil
}

func (s *uploadLogService) Get(ctx context.Context, id string) (*domain.UploadLog, error) {
	return s.store.GetUploadLog(ctx, id)
}

func (s *uploadLogService) Count(ctx context.Context, poaID string) (int, error) {
	n, err := s.store.CountUploadLogs(ctx, poaID)
	if err != nil {
		return 0, fmt.Errorf("failed to count upload logs: %w", err)
	}
	return n, nil
}

// parseLogDate reads a date as midnight in domain.LocalZone. An empty value
// is the zero time.
func parseLogDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation(logDateLayout, s, domain.LocalZone)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
