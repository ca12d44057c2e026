package relational

import (
	"context"
	"encoding/json"
	"strings"
)

// TypeCount is the number of entities of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// CountByType aggregates entities per type, most common first.
func (r *Repo) CountByType(ctx context.Context) ([]TypeCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT type, COUNT(*) AS n
		FROM entities
		GROUP BY type
		ORDER BY n DESC, type ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// EntityMatch is a search hit.
type EntityMatch struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Observations []string `json:"observations"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching text literally anywhere.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
}

// SearchEntities finds entities whose name, type or one of the observations
// contains text, case-insensitively. The text is matched literally.
func (r *Repo) SearchEntities(ctx context.Context, text string, limit int) ([]EntityMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // Safety limit
	}
	pattern := containsPattern(text)

	rows, err := r.db.QueryContext(ctx, `
		SELECT name, type, observations
		FROM entities
		WHERE lower(name) LIKE ? ESCAPE '\'
		   OR lower(type) LIKE ? ESCAPE '\'
		   OR lower(search_text) LIKE ? ESCAPE '\'
		ORDER BY ord
		LIMIT ?
	`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntityMatch
	for rows.Next() {
		var m EntityMatch
		var raw string
		if err := rows.Scan(&m.Name, &m.Type, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &m.Observations); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
