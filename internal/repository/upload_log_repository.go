package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/pkg/googlecloud"
)

type uploadLogRepository struct {
	db *sql.DB
}

// NewUploadLogRepository keeps upload logs in the log_carga_excel table.
func NewUploadLogRepository(db *sql.DB) domain.UploadLogStore {
	return &uploadLogRepository{db: db}
}

func (r *uploadLogRepository) SaveUploadLog(ctx context.Context, log *domain.UploadLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO log_carga_excel (id_log, id_poa, codigo_poa, proyecto_nombre, usuario, fecha_carga, mensaje, nombre_archivo, hoja)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.ID, log.POAID, log.POACode, log.ProjectName, log.User, log.LoadedAt.In(domain.LocalZone), log.Message, log.FileName, log.Sheet)
	if err != nil {
		return fmt.Errorf("insert upload log: %w", err)
	}
	return nil
}

const uploadLogColumns = `id_log, id_poa, codigo_poa, proyecto_nombre, usuario, fecha_carga, mensaje, nombre_archivo, hoja`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUploadLog(row rowScanner) (domain.UploadLog, error) {
	var l domain.UploadLog
	err := row.Scan(&l.ID, &l.POAID, &l.POACode, &l.ProjectName, &l.User, &l.LoadedAt,
		&l.Message, &l.FileName, &l.Sheet)
	l.LoadedAt = localWallClock(l.LoadedAt)
	return l, err
}

// localWallClock reads a TIMESTAMP column value, which holds LocalZone wall
// time without an offset.
func localWallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), domain.LocalZone)
}

func (r *uploadLogRepository) GetUploadLog(ctx context.Context, id string) (*domain.UploadLog, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUploadLogNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+uploadLogColumns+` FROM log_carga_excel WHERE id_log = $1`, id)
	l, err := scanUploadLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUploadLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload log %s: %w", id, err)
	}
	return &l, nil
}

func (r *uploadLogRepository) CountUploadLogs(ctx context.Context, poaID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_carga_excel WHERE id_poa = $1`, poaID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count upload logs of poa %s: %w", poaID, err)
	}
	return n, nil
}

func (r *uploadLogRepository) ListUploadLogs(ctx context.Context, from, to time.Time) ([]domain.UploadLog, error) {
	where, args := logRangeClause(from, to)
	query := `
		SELECT ` + uploadLogColumns + `
		FROM log_carga_excel` + where + `
		ORDER BY fecha_carga DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query upload logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.UploadLog{}
	for rows.Next() {
		l, err := scanUploadLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// logRangeClause builds the WHERE clause for the non-zero bounds.
func logRangeClause(from, to time.Time) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if !from.IsZero() {
		args = append(args, from)
		conds = append(conds, fmt.Sprintf("fecha_carga >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to)
		conds = append(conds, fmt.Sprintf("fecha_carga <= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

type datastoreUploadLogStore struct {
	client *googlecloud.Client
}

// NewDatastoreUploadLogStore keeps upload logs in Cloud Datastore.
func NewDatastoreUploadLogStore(client *googlecloud.Client) domain.UploadLogStore {
	return &datastoreUploadLogStore{client: client}
}

func (s *datastoreUploadLogStore) SaveUploadLog(ctx context.Context, log *domain.UploadLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	entity := toUploadLogEntity(log)
	if err := s.client.SaveUploadLog(ctx, &entity); err != nil {
		return fmt.Errorf("save upload log: %w", err)
	}
	return nil
}

func (s *datastoreUploadLogStore) GetUploadLog(ctx context.Context, id string) (*domain.UploadLog, error) {
	entity, err := s.client.GetUploadLog(ctx, id)
	if googlecloud.IsNotFoundError(err) {
		return nil, domain.ErrUploadLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload log %s: %w", id, err)
	}
	l := fromUploadLogEntity(*entity)
	return &l, nil
}

func (s *datastoreUploadLogStore) CountUploadLogs(ctx context.Context, poaID string) (int, error) {
	n, err := s.client.CountUploadLogs(ctx, poaID)
	if err != nil {
		return 0, fmt.Errorf("count upload logs of poa %s: %w", poaID, err)
	}
	return n, nil
}

func (s *datastoreUploadLogStore) ListUploadLogs(ctx context.Context, from, to time.Time) ([]domain.UploadLog, error) {
	entities, err := s.client.ListUploadLogs(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list upload logs: %w", err)
	}
	logs := make([]domain.UploadLog, 0, len(entities))
	for _, e := range entities {
		logs = append(logs, fromUploadLogEntity(e))
	}
	return logs, nil
}

func toUploadLogEntity(l *domain.UploadLog) googlecloud.UploadLogEntity {
	return googlecloud.UploadLogEntity{
		ID:          l.ID,
		POAID:       l.POAID,
		POACode:     l.POACode,
		ProjectName: l.ProjectName,
		User:        l.User,
		LoadedAt:    l.LoadedAt,
		Message:     l.Message,
		FileName:    l.FileName,
		Sheet:       l.Sheet,
	}
}

func fromUploadLogEntity(e googlecloud.UploadLogEntity) domain.UploadLog {
	return domain.UploadLog{
		ID:          e.ID,
		POAID:       e.POAID,
		POACode:     e.POACode,
		ProjectName: e.ProjectName,
		User:        e.User,
		LoadedAt:    e.LoadedAt.In(domain.LocalZone),
		Message:     e.Message,
		FileName:    e.FileName,
		Sheet:       e.Sheet,
	}
}
