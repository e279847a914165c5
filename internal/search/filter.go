// Package search filters case lists. It is a filter, not a sort: result
// order is input order, and ranking is out of scope.
package search

import (
	"strings"

	"casetrack-backend/internal/cases"
)

// Cases returns the cases whose client name, case number, or court name
// contains the query, case-insensitively. An empty query matches all cases.
func Cases(list []cases.Case, query string) []cases.Case {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}

	out := make([]cases.Case, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.ClientName), q) ||
			strings.Contains(strings.ToLower(c.CaseNumber), q) ||
			strings.Contains(strings.ToLower(c.CourtName), q) {
			out = append(out, c)
		}
	}
	return out
}
