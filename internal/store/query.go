package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit    = 50
	maxLimit        = 500
	defaultLogLimit = 30
)

const baseTasksSelect = `SELECT id, name, owner, keywords, status,
	last_checked_at, created_at, updated_at
FROM tasks`

// ToSQL builds the filtered, newest-first task query and its positional
// parameters.
func (q *TaskQuery) ToSQL() (string, []any) {
	var conditions []string
	var args []any
	paramIdx := 1

	if q.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", paramIdx))
		args = append(args, string(*q.Status))
		paramIdx++
	}

	if q.Owner != nil {
		conditions = append(conditions, fmt.Sprintf("owner = $%d", paramIdx))
		args = append(args, *q.Owner)
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	return fmt.Sprintf(
		"%s%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		baseTasksSelect, whereClause, q.limit(), max(q.Offset, 0),
	), args
}

func (q *TaskQuery) limit() int {
	switch {
	case q.Limit <= 0:
		return defaultLimit
	case q.Limit > maxLimit:
		return maxLimit
	default:
		return q.Limit
	}
}

func logLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLogLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}
