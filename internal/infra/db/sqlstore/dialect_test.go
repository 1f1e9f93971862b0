package sqlstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	d := Dialect{Numbered: true}
	assert.Equal(t, "a=$1 AND b=$2 LIMIT $3", d.rebind("a=? AND b=? LIMIT ?"))
	assert.Equal(t, "a=?", Dialect{}.rebind("a=?"))
}

func TestUpsertClauses(t *testing.T) {
	assert.Equal(t, "ON DUPLICATE KEY UPDATE a=VALUES(a), b=VALUES(b)", OnDuplicateKey([]string{"a", "b"}))
	assert.Equal(t, "ON CONFLICT (id) DO UPDATE SET a = EXCLUDED.a", OnConflictID([]string{"a"}))
}

func TestStatementsPerDialect(t *testing.T) {
	inline := Statements(Dialect{InlineIndexes: true})
	assert.Len(t, inline, len(tables))
	assert.Contains(t, inline[0], "INDEX idx_analyses_tenant_time (tenant_id, triggered_at)")

	separate := Statements(Dialect{})
	assert.Len(t, separate, 2*len(tables))
	found := false
	for _, s := range separate {
		if strings.HasPrefix(s, "CREATE INDEX IF NOT EXISTS idx_issues_analysis") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `100\%\_a\\b`, escapeLikePattern(`100%_a\b`))
	assert.Equal(t, "-", stringOrDash("  "))
}
