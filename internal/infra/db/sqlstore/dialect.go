package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	Name string
	// Numbered rewrites ? placeholders to $1, $2, ...
	Numbered bool
	// InlineIndexes declares indexes inside CREATE TABLE instead of CREATE INDEX IF NOT EXISTS.
	InlineIndexes bool
	// LikeEscape is appended to LIKE predicates when the driver has no default escape character.
	LikeEscape string
	// Upsert renders the conflict clause updating cols when the primary key exists.
	Upsert func(cols []string) string
}

// OnDuplicateKey is the MySQL upsert clause.
func OnDuplicateKey(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + "=VALUES(" + c + ")"
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(parts, ", ")
}

// OnConflictID is the PostgreSQL and SQLite upsert clause.
func OnConflictID(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " = EXCLUDED." + c
	}
	return "ON CONFLICT (id) DO UPDATE SET " + strings.Join(parts, ", ")
}

func (d Dialect) rebind(q string) string {
	if !d.Numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

func (d Dialect) like() string {
	return " LIKE ?" + d.LikeEscape
}
