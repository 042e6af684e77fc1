package repository

import (
	"testing"
	"time"

	"github.com/locvowork/poa_management/apigateway/internal/domain"
	"github.com/locvowork/poa_management/apigateway/pkg/poaexcel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageMonths(t *testing.T) {
	months, err := storageMonths(map[string]float64{
		"2025-01-01":      100,
		"2025-02-01":      50.5,
		poaexcel.SumanKey: 150.5,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"01-2025": 100, "02-2025": 50.5}, months)

	_, err = storageMonths(map[string]float64{"not a date": 1})
	assert.Error(t, err)
}

func TestAddMonthly(t *testing.T) {
	result := map[string]map[string]float64{}
	addMonthly(result, "t1", "03-2025", 10.126)
	addMonthly(result, "t1", "04-2025", 20)
	addMonthly(result, "t1", "garbage", 99)
	addMonthly(result, "t2", "12-2025", 1.1)

	assert.Equal(t, map[string]float64{"marzo": 10.13, "abril": 20}, result["t1"])
	assert.Equal(t, map[string]float64{"diciembre": 1.1}, result["t2"])
}

func TestLogRangeClause(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name     string
		from, to time.Time
		clause   string
		args     int
	}{
		{"open", time.Time{}, time.Time{}, "", 0},
		{"from only", from, time.Time{}, "fecha_carga >= $1", 1},
		{"to only", time.Time{}, to, "fecha_carga <= $1", 1},
		{"both", from, to, "fecha_carga >= $1 AND fecha_carga <= $2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := logRangeClause(tt.from, tt.to)
			assert.Contains(t, clause, tt.clause)
			assert.Len(t, args, tt.args)
		})
	}
}

func TestUploadLogEntityMapping(t *testing.T) {
	log := &domain.UploadLog{
		ID:          "id-1",
		POAID:       "poa-1",
		POACode:     "POA-2025-01",
		ProjectName: "Proyecto",
		User:        "ana",
		LoadedAt:    time.Date(2025, 3, 4, 10, 0, 0, 0, domain.LocalZone),
		Message:     "cargado",
		FileName:    "poa.xlsx",
		Sheet:       "POA 2025",
	}
	assert.Equal(t, *log, fromUploadLogEntity(toUploadLogEntity(log)))

	// Datastore hands instants back in UTC.
	entity := toUploadLogEntity(log)
	entity.LoadedAt = entity.LoadedAt.UTC()
	got := fromUploadLogEntity(entity)
	assert.Equal(t, domain.LocalZone, got.LoadedAt.Location())
	assert.Equal(t, 10, got.LoadedAt.Hour())
	assert.True(t, log.LoadedAt.Equal(got.LoadedAt))
}

func TestLocalWallClock(t *testing.T) {
	// lib/pq returns TIMESTAMP columns as UTC with the stored wall time.
	stored := time.Date(2025, 3, 4, 21, 15, 30, 0, time.UTC)
	got := localWallClock(stored)

	assert.Equal(t, domain.LocalZone, got.Location())
	assert.Equal(t, "2025-03-04 21:15:30", got.Format("2006-01-02 15:04:05"))
	assert.Equal(t, time.Date(2025, 3, 5, 2, 15, 30, 0, time.UTC), got.UTC())
}
