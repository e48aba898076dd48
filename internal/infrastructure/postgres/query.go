package postgres

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

var sortColumns = map[string]string{
	repository.SortDescription: "description",
	repository.SortCompleted:   "completed",
	repository.SortCreatedAt:   "created_at",
	repository.SortUpdatedAt:   "updated_at",
}

// orderClause only ever emits whitelisted column names.
func orderClause(q repository.TaskQuery) string {
	col, ok := sortColumns[q.SortField]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id ASC", col, dir)
}

// taskListSQL builds the owner-scoped list statement and its arguments.
func taskListSQL(owner uuid.UUID, q repository.TaskQuery) (string, []any) {
	var b strings.Builder
	args := []any{owner}
	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner = $1`)
	if q.Completed != nil {
		args = append(args, *q.Completed)
		fmt.Fprintf(&b, " AND completed = $%d", len(args))
	}
	b.WriteString(" ")
	b.WriteString(orderClause(q))
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}
