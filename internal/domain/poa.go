package domain

import (
	"context"
	"errors"
	"time"

	"github.com/locvowork/poa_management/apigateway/pkg/poaexcel"
)

var (
	ErrPOANotFound        = errors.New("poa not found")
	ErrUnsupportedFile    = errors.New("only .xls and .xlsx files are accepted")
	ErrBudgetItemNotFound = errors.New("budget item not found")
	ErrInvalidProjectType = errors.New("invalid project type")
	ErrUploadLogNotFound  = errors.New("upload log not found")
)

// LocalZone is the institution's clock. Upload logs are stamped and
// filtered in it.
var LocalZone = time.FixedZone("UTC-5", -5*60*60)

// POA is the yearly operating plan of a project.
type POA struct {
	ID           string `json:"id_poa"`
	Code         string `json:"codigo_poa"`
	Year         string `json:"anio_ejecucion"`
	ProjectCode  string `json:"codigo_proyecto"`
	ProjectTitle string `json:"proyecto_nombre"`
}

// UploadLog records one change made to a POA from an uploaded workbook.
type UploadLog struct {
	ID          string    `json:"id_log"`
	POAID       string    `json:"id_poa"`
	POACode     string    `json:"codigo_poa"`
	ProjectName string    `json:"proyecto"`
	User        string    `json:"usuario"`
	LoadedAt    time.Time `json:"fecha_carga"`
	Message     string    `json:"mensaje"`
	FileName    string    `json:"nombre_archivo"`
	Sheet       string    `json:"hoja"`
}

type POARepository interface {
	GetPOA(ctx context.Context, id string) (*POA, error)
	HasActivities(ctx context.Context, poaID string) (bool, error)
	// ReplaceActivities deletes the POA's activities, tasks and monthly
	// programming and inserts the parsed ones in a single transaction.
	ReplaceActivities(ctx context.Context, poaID string, activities []poaexcel.ParsedActivity) error
	ExportRecords(ctx context.Context, poaID string) ([]poaexcel.TaskRecord, error)
	ReportRows(ctx context.Context, year string, projectTypeCodes []string) ([]poaexcel.ReportRow, error)
}

// UploadLogStore persists upload logs. Zero bounds are open. Returned
// LoadedAt values are in LocalZone.
type UploadLogStore interface {
	SaveUploadLog(ctx context.Context, log *UploadLog) error
	GetUploadLog(ctx context.Context, id string) (*UploadLog, error)
	ListUploadLogs(ctx context.Context, from, to time.Time) ([]UploadLog, error)
	CountUploadLogs(ctx context.Context, poaID string) (int, error)
}
