package search

import (
	"strconv"

	"github.com/kailas-cloud/worklens/internal/domain"
	"github.com/kailas-cloud/worklens/internal/domain/filter"
)

// buildExpression translates structured filters into storage pre-filter
// conditions applied identically to both rankings.
func buildExpression(f domain.SearchFilters) filter.Expression {
	expr := filter.NewExpression()

	expr = andMatch(expr, fieldSourceType, string(f.SourceType))
	expr = andMatch(expr, fieldOrganization, f.Organization)
	expr = andMatch(expr, fieldProject, f.Project)
	expr = andMatch(expr, fieldRepo, f.RepoName)
	expr = andMatchAny(expr, fieldStatus, f.Status)
	expr = andMatchAny(expr, fieldItemType, f.ItemType)
	expr = andMatch(expr, fieldAuthorID, f.Author)
	expr = andMatch(expr, fieldAssignedID, f.AssignedTo)

	if len(f.Priority) > 0 {
		values := make([]string, len(f.Priority))
		for i, p := range f.Priority {
			values[i] = strconv.Itoa(p)
		}
		expr = andMatchAny(expr, fieldPriority, values)
	}

	if f.IsDraft != nil {
		expr = andMatch(expr, fieldIsDraft, boolField(*f.IsDraft))
	}

	if !f.CreatedAfter.IsZero() {
		expr = andRange(expr, fieldCreatedAt, filter.GTE(float64(f.CreatedAfter.Unix())))
	}
	if !f.CreatedBefore.IsZero() {
		expr = andRange(expr, fieldCreatedAt, filter.LT(float64(f.CreatedBefore.Unix())))
	}
	if !f.UpdatedAfter.IsZero() {
		expr = andRange(expr, fieldUpdatedAt, filter.GTE(float64(f.UpdatedAfter.Unix())))
	}

	return expr
}

func andMatch(expr filter.Expression, key, value string) filter.Expression {
	if value == "" {
		return expr
	}
	cond, err := filter.NewMatch(key, value)
	if err != nil {
		return expr
	}
	return expr.And(cond)
}

func andMatchAny(expr filter.Expression, key string, values []string) filter.Expression {
	if len(values) == 0 {
		return expr
	}
	cond, err := filter.NewMatch(key, values...)
	if err != nil {
		return expr
	}
	return expr.And(cond)
}

func andRange(expr filter.Expression, key string, r filter.Range) filter.Expression {
	cond, err := filter.NewRange(key, r)
	if err != nil {
		return expr
	}
	return expr.And(cond)
}
