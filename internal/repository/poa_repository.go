package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/pkg/poaexcel"
)

type poaRepository struct {
	db *sql.DB
}

func NewPOARepository(db *sql.DB) domain.POARepository {
	return &poaRepository{db: db}
}

func (r *poaRepository) GetPOA(ctx context.Context, id string) (*domain.POA, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrPOANotFound
	}

	const query = `
		SELECT p.id_poa, p.codigo_poa, p.anio_ejecucion, pr.codigo_proyecto, pr.titulo
		FROM poa p
		JOIN proyecto pr ON pr.id_proyecto = p.id_proyecto
		WHERE p.id_poa = $1`

	var poa domain.POA
	err := r.db.QueryRowContext(ctx, query, id).Scan(&poa.ID, &poa.Code, &poa.Year, &poa.ProjectCode, &poa.ProjectTitle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPOANotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get poa %s: %w", id, err)
	}
	return &poa, nil
}

func (r *poaRepository) HasActivities(ctx context.Context, poaID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM actividad WHERE id_poa = $1)`, poaID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check activities of poa %s: %w", poaID, err)
	}
	return exists, nil
}

func (r *poaRepository) ReplaceActivities(ctx context.Context, poaID string, activities []poaexcel.ParsedActivity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM actividad WHERE id_poa = $1`, poaID); err != nil {
		return fmt.Errorf("delete activities: %w", err)
	}

	items := make(map[string]string)
	for _, act := range activities {
		actID := uuid.New().String()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO actividad (id_actividad, id_poa, numero_actividad, descripcion_actividad, total_por_actividad, saldo_actividad)
			VALUES ($1, $2, $3, $4, $5, $5)`,
			actID, poaID, act.Number, act.Description, act.Total)
		if err != nil {
			return fmt.Errorf("insert activity %d: %w", act.Number, err)
		}

		for i, task := range act.Tasks {
			itemID, err := lookupBudgetItem(ctx, tx, items, task.BudgetItem)
			if err != nil {
				return err
			}

			taskID := uuid.New().String()
			_, err = tx.ExecContext(ctx, `
				INSERT INTO tarea (id_tarea, id_actividad, id_item_presupuestario, orden, nombre, detalle_descripcion,
				                   cantidad, precio_unitario, total, saldo_disponible)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
				taskID, actID, itemID, i+1, task.Name, task.Detail, task.Quantity, task.UnitPrice, task.Total)
			if err != nil {
				return fmt.Errorf("insert task %q: %w", task.Name, err)
			}

			months, err := storageMonths(task.Programming)
			if err != nil {
				return fmt.Errorf("task %q: %w", task.Name, err)
			}
			for month, value := range months {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO programacion_mensual (id_programacion, id_tarea, mes, valor)
					VALUES ($1, $2, $3, $4)`,
					uuid.New().String(), taskID, month, value)
				if err != nil {
					return fmt.Errorf("insert monthly programming %s of task %q: %w", month, task.Name, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activities: %w", err)
	}
	return nil
}

func lookupBudgetItem(ctx context.Context, tx *sql.Tx, cache map[string]string, code string) (string, error) {
	if id, ok := cache[code]; ok {
		return id, nil
	}
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id_item_presupuestario FROM item_presupuestario WHERE codigo = $1 LIMIT 1`, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", domain.ErrBudgetItemNotFound, code)
	}
	if err != nil {
		return "", fmt.Errorf("lookup budget item %s: %w", code, err)
	}
	cache[code] = id
	return id, nil
}

// storageMonths converts header date keys to MM-YYYY, dropping the row sum.
func storageMonths(programming map[string]float64) (map[string]float64, error) {
	months := make(map[string]float64, len(programming))
	for key, value := range programming {
		if key == poaexcel.SumanKey {
			continue
		}
		month, err := poaexcel.NormalizeMonthKey(key)
		if err != nil {
			return nil, err
		}
		months[month] += value
	}
	return months, nil
}

const taskColumns = `
	po.anio_ejecucion, pr.codigo_proyecto, a.numero_actividad, a.descripcion_actividad,
	t.id_tarea, t.nombre, t.detalle_descripcion, ip.codigo, t.cantidad, t.precio_unitario, t.total`

const taskJoins = `
	FROM tarea t
	JOIN actividad a ON a.id_actividad = t.id_actividad
	JOIN poa po ON po.id_poa = a.id_poa
	JOIN proyecto pr ON pr.id_proyecto = po.id_proyecto
	JOIN item_presupuestario ip ON ip.id_item_presupuestario = t.id_item_presupuestario`

func (r *poaRepository) ExportRecords(ctx context.Context, poaID string) ([]poaexcel.TaskRecord, error) {
	query := `SELECT` + taskColumns + taskJoins + `
		WHERE a.id_poa = $1
		ORDER BY a.numero_actividad, t.orden`

	rows, err := r.db.QueryContext(ctx, query, poaID)
	if err != nil {
		return nil, fmt.Errorf("query export records: %w", err)
	}
	defer rows.Close()

	var (
		records []poaexcel.TaskRecord
		taskIDs []string
	)
	for rows.Next() {
		var (
			rec    poaexcel.TaskRecord
			taskID string
		)
		if err := rows.Scan(&rec.POAYear, &rec.ProjectCode, &rec.ActivityNumber, &rec.ActivityDescription,
			&taskID, &rec.Name, &rec.Detail, &rec.BudgetItem, &rec.Quantity, &rec.UnitPrice, &rec.Total); err != nil {
			return nil, fmt.Errorf("scan export record: %w", err)
		}
		records = append(records, rec)
		taskIDs = append(taskIDs, taskID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	monthly, err := r.monthlyByTask(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].MonthlyProgramming = monthly[taskIDs[i]]
	}
	return records, nil
}

func (r *poaRepository) ReportRows(ctx context.Context, year string, projectTypeCodes []string) ([]poaexcel.ReportRow, error) {
	query := `SELECT` + taskColumns + `, tp.codigo_tipo, pr.presupuesto_aprobado` + taskJoins + `
		JOIN tipo_proyecto tp ON tp.id_tipo_proyecto = pr.id_tipo_proyecto
		WHERE po.anio_ejecucion = $1 AND tp.codigo_tipo = ANY($2)
		ORDER BY pr.codigo_proyecto, a.numero_actividad, t.orden`

	rows, err := r.db.QueryContext(ctx, query, year, pq.Array(projectTypeCodes))
	if err != nil {
		return nil, fmt.Errorf("query report rows: %w", err)
	}
	defer rows.Close()

	var (
		report  []poaexcel.ReportRow
		taskIDs []string
	)
	for rows.Next() {
		var (
			row            poaexcel.ReportRow
			taskID         string
			activityNumber int
			activityDesc   string
		)
		if err := rows.Scan(&row.POAYear, &row.ProjectCode, &activityNumber, &activityDesc,
			&taskID, &row.Name, &row.Detail, &row.BudgetItem, &row.Quantity, &row.UnitPrice, &row.Total,
			&row.ProjectType, &row.ApprovedBudget); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		report = append(report, row)
		taskIDs = append(taskIDs, taskID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	monthly, err := r.monthlyByTask(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	for i := range report {
		report[i].MonthlyProgramming = monthly[taskIDs[i]]
	}
	return report, nil
}

// monthlyByTask loads the programming of the given tasks keyed by month name.
func (r *poaRepository) monthlyByTask(ctx context.Context, taskIDs []string) (map[string]map[string]float64, error) {
	result := make(map[string]map[string]float64, len(taskIDs))
	if len(taskIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id_tarea, mes, valor FROM programacion_mensual WHERE id_tarea = ANY($1)`, pq.Array(taskIDs))
	if err != nil {
		return nil, fmt.Errorf("query monthly programming: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			taskID, month string
			value         float64
		)
		if err := rows.Scan(&taskID, &month, &value); err != nil {
			return nil, fmt.Errorf("scan monthly programming: %w", err)
		}
		addMonthly(result, taskID, month, value)
	}
	return result, rows.Err()
}

// addMonthly files a stored MM-YYYY value under its month name, rounded to
// cents. Unknown keys are skipped.
func addMonthly(result map[string]map[string]float64, taskID, storageKey string, value float64) {
	name, err := poaexcel.MonthNameFromStorageKey(storageKey)
	if err != nil {
		return
	}
	if result[taskID] == nil {
		result[taskID] = make(map[string]float64, 12)
	}
	result[taskID][name] = round2(result[taskID][name] + value)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
