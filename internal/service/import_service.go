package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/internal/logger"
	"github.com/locvowork/poa_management/apigateway/pkg/poaexcel"
)

const (
	replaceLogMessage = "Se eliminaron las actividades, sus tareas y programaciones mensuales asociadas debido a que el usuario decidió reemplazar los datos del POA con un nuevo archivo."
	loadLogMessage    = "Se cargaron %d actividades y sus tareas asociadas desde el archivo %s."

	MessageConfirmReplace = "El POA ya tiene actividades asociadas. ¿Deseas eliminarlas?"
	MessageImported       = "Actividades y tareas creadas exitosamente"
)

type ImportRequest struct {
	POAID    string
	FileName string
	Sheet    string
	Content  []byte
	Confirm  bool
	User     string
}

type ImportResult struct {
	Message              string `json:"message"`
	RequiresConfirmation bool   `json:"requires_confirmation,omitempty"`
	Activities           int    `json:"actividades,omitempty"`
	Tasks                int    `json:"tareas,omitempty"`
}

type ImportService interface {
	Import(ctx context.Context, req ImportRequest) (*ImportResult, error)
}

type importService struct {
	repo domain.POARepository
	logs domain.UploadLogStore
	now  func() time.Time
}

func NewImportService(repo domain.POARepository, logs domain.UploadLogStore) ImportService {
	return &importService{repo: repo, logs: logs, now: time.Now}
}

func (s *importService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if !supportedWorkbook(req.FileName) {
		return nil, domain.ErrUnsupportedFile
	}

	poa, err := s.repo.GetPOA(ctx, req.POAID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithFields(ctx, map[string]interface{}{"poa_id": poa.ID, "file": req.FileName, "sheet": req.Sheet})

	existing, err := s.repo.HasActivities(ctx, poa.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing activities: %w", err)
	}

	parsed, err := poaexcel.Parse(req.Content, req.Sheet)
	if err != nil {
		logger.WarnLog(ctx, "rejected workbook: %v", err)
		return nil, err
	}

	if existing && !req.Confirm {
		return &ImportResult{Message: MessageConfirmReplace, RequiresConfirmation: true}, nil
	}

	if err := s.repo.ReplaceActivities(ctx, poa.ID, parsed.Activities); err != nil {
		return nil, fmt.Errorf("failed to store activities: %w", err)
	}

	if existing {
		s.record(ctx, poa, req, replaceLogMessage)
	}
	s.record(ctx, poa, req, fmt.Sprintf(loadLogMessage, len(parsed.Activities), req.FileName))

	logger.InfoLog(ctx, "imported %d activities and %d tasks", len(parsed.Activities), parsed.TaskCount())
	return &ImportResult{
		Message:    MessageImported,
		Activities: len(parsed.Activities),
		Tasks:      parsed.TaskCount(),
	}, nil
}

// record writes an upload log. The import already succeeded, so a failure
// here is only logged.
func (s *importService) record(ctx context.Context, poa *domain.POA, req ImportRequest, message string) {
	entry := &domain.UploadLog{
		POAID:       poa.ID,
		POACode:     poa.Code,
		ProjectName: poa.ProjectTitle,
		User:        req.User,
		LoadedAt:    s.now().In(domain.LocalZone),
		Message:     message,
		FileName:    req.FileName,
		Sheet:       req.Sheet,
	}
	if err := s.logs.SaveUploadLog(ctx, entry); err != nil {
		logger.ErrorLog(ctx, "failed to save upload log: %v", err)
	}
}

func supportedWorkbook(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xls", ".xlsx":
		return true
	}
	return false
}
