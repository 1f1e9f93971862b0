package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type table struct {
	name    string
	columns []string
	indexes map[string]string
}

var tables = []table{
	{
		name: "analyses",
		columns: []string{
			"id VARCHAR(64) NOT NULL PRIMARY KEY",
			"tenant_id VARCHAR(128) NOT NULL",
			"source VARCHAR(1024) NOT NULL",
			"branch VARCHAR(255) NOT NULL DEFAULT ''",
			"commit_sha VARCHAR(64) NOT NULL DEFAULT ''",
			"status VARCHAR(16) NOT NULL",
			"triggered_at BIGINT NOT NULL",
			"duration_ms BIGINT NOT NULL DEFAULT 0",
			"critical INTEGER NOT NULL DEFAULT 0",
			"high INTEGER NOT NULL DEFAULT 0",
			"medium INTEGER NOT NULL DEFAULT 0",
			"low INTEGER NOT NULL DEFAULT 0",
			"info INTEGER NOT NULL DEFAULT 0",
			"findings_total INTEGER NOT NULL DEFAULT 0",
			"health_score DOUBLE PRECISION NOT NULL DEFAULT 0",
			"health_grade VARCHAR(2) NOT NULL DEFAULT ''",
			"files INTEGER NOT NULL DEFAULT 0",
			"loc INTEGER NOT NULL DEFAULT 0",
			"symbols INTEGER NOT NULL DEFAULT 0",
			"dead_code INTEGER NOT NULL DEFAULT 0",
			"artifact_url TEXT",
			"sarif_key VARCHAR(512) NOT NULL DEFAULT ''",
			"snapshot_key VARCHAR(512) NOT NULL DEFAULT ''",
			"error_message TEXT",
			"metadata TEXT",
		},
		indexes: map[string]string{"idx_analyses_tenant_time": "tenant_id, triggered_at"},
	},
	{
		name: "analysis_issues",
		columns: []string{
			"id VARCHAR(64) NOT NULL PRIMARY KEY",
			"tenant_id VARCHAR(128) NOT NULL",
			"analysis_id VARCHAR(64) NOT NULL",
			"rule_id VARCHAR(64) NOT NULL",
			"category VARCHAR(32) NOT NULL",
			"severity VARCHAR(16) NOT NULL",
			"severity_rank INTEGER NOT NULL",
			"message TEXT",
			"file_path VARCHAR(1024) NOT NULL DEFAULT ''",
			"line_start INTEGER NOT NULL DEFAULT 0",
			"col_start INTEGER NOT NULL DEFAULT 0",
			"line_end INTEGER NOT NULL DEFAULT 0",
			"col_end INTEGER NOT NULL DEFAULT 0",
			"symbol VARCHAR(1024) NOT NULL DEFAULT ''",
			"created_at BIGINT NOT NULL",
		},
		indexes: map[string]string{"idx_issues_analysis": "tenant_id, analysis_id"},
	},
	{
		name: "analysis_insights",
		columns: []string{
			"id VARCHAR(64) NOT NULL PRIMARY KEY",
			"tenant_id VARCHAR(128) NOT NULL",
			"analysis_id VARCHAR(64) NOT NULL",
			"provider VARCHAR(32) NOT NULL",
			"result_json TEXT",
			"created_at BIGINT NOT NULL",
		},
		indexes: map[string]string{"idx_insights_analysis": "tenant_id, analysis_id"},
	},
}

// Statements returns the DDL creating every table in dialect d.
func Statements(d Dialect) []string {
	var out []string
	for _, t := range tables {
		cols := append([]string(nil), t.columns...)
		var extra []string
		for name, on := range t.indexes {
			if d.InlineIndexes {
				cols = append(cols, fmt.Sprintf("INDEX %s (%s)", name, on))
				continue
			}
			extra = append(extra, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, t.name, on))
		}
		out = append(out, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", t.name, strings.Join(cols, ",\n  ")))
		out = append(out, extra...)
	}
	return out
}

// Migrate creates the schema when missing.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range Statements(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", d.Name, err)
		}
	}
	return nil
}
