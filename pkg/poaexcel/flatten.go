package poaexcel

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizeMonthKey turns a header date key ("2025-03-01") into the storage
// form "03-2025".
func NormalizeMonthKey(key string) (string, error) {
	t, ok := ParseDateLike(key)
	if !ok {
		return "", fmt.Errorf("invalid month key %q", key)
	}
	return t.Format("01-2006"), nil
}

// MonthNameFromStorageKey maps "03-2025" to "marzo".
func MonthNameFromStorageKey(key string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(key), "-", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid storage month key %q", key)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 1 || m > 12 {
		return "", fmt.Errorf("invalid storage month key %q", key)
	}
	return MonthName(time.Month(m)), nil
}

// Flatten converts a parsed sheet into export records for a POA, keying
// the monthly programming by month name. The suman key is dropped.
func Flatten(result *ParseResult, year, projectCode string) []TaskRecord {
	var records []TaskRecord
	if result == nil {
		return records
	}
	for _, act := range result.Activities {
		for _, task := range act.Tasks {
			monthly := make(map[string]float64, 12)
			for key, v := range task.Programming {
				if key == SumanKey {
					continue
				}
				t, ok := ParseDateLike(key)
				if !ok {
					continue
				}
				monthly[MonthName(t.Month())] += v
			}
			records = append(records, TaskRecord{
				POAYear:             year,
				ProjectCode:         projectCode,
				ActivityNumber:      act.Number,
				ActivityDescription: act.Description,
				Name:                task.Name,
				Detail:              task.Detail,
				BudgetItem:          task.BudgetItem,
				Quantity:            task.Quantity,
				UnitPrice:           task.UnitPrice,
				Total:               task.Total,
				MonthlyProgramming:  monthly,
			})
		}
	}
	return records
}
