package application

import (
	"slices"
	"strconv"
	"strings"

	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

// MaxTaskLimit caps the page size a client may request.
const MaxTaskLimit = 1000

// ParseTaskQuery turns raw query-string values into a TaskQuery. Values that
// do not parse are ignored rather than rejected.
//
//	completed: "true" / "false" (anything strconv.ParseBool accepts)
//	sortBy:    field[:desc], field one of repository.SortableTaskFields
//	limit:     non-negative integer, 0 = no limit
//	skip:      non-negative integer
func ParseTaskQuery(completed, sortBy, limit, skip string) repository.TaskQuery {
	var q repository.TaskQuery
	if b, err := strconv.ParseBool(completed); err == nil {
		q.Completed = &b
	}
	if sortBy != "" {
		field, dir, _ := strings.Cut(sortBy, ":")
		if slices.Contains(repository.SortableTaskFields, field) {
			q.SortField = field
			q.SortDesc = dir == "desc"
		}
	}
	q.Limit = min(parseCount(limit), MaxTaskLimit)
	q.Skip = parseCount(skip)
	return q
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
