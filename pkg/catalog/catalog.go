// auditcfg/pkg/catalog/catalog.go

package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"rgehrsitz/auditcfg/pkg/config"
	"rgehrsitz/auditcfg/pkg/logging"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pgaudit_settings (
		section TEXT NOT NULL,
		key     TEXT NOT NULL,
		value   TEXT NOT NULL,
		PRIMARY KEY (section, key)
	)`,
	`CREATE TABLE IF NOT EXISTS pgaudit_rules (
		rule_position INTEGER NOT NULL,
		rule_name     TEXT    NOT NULL,
		format        TEXT    NOT NULL DEFAULT '',
		field         TEXT    NOT NULL,
		value_type    TEXT    NOT NULL,
		equal         BOOLEAN NOT NULL,
		string_values TEXT[],
		bitmap        BIGINT,
		time_ranges   TEXT[],
		PRIMARY KEY (rule_position, field)
	)`,
}

// Catalog mirrors the published snapshot into PostgreSQL tables so that
// operators can inspect the active audit policy with SQL.
type Catalog struct {
	db *sql.DB
}

func New(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

// Open connects with the postgres driver.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, logging.NewError(logging.ErrorTypeCatalog, "failed to open catalog database", err, nil)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, logging.NewError(logging.ErrorTypeCatalog, "failed to reach catalog database", err, nil)
	}
	return New(db), nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return logging.NewError(logging.ErrorTypeCatalog, "failed to migrate catalog", err, nil)
		}
	}
	return nil
}

// Sync replaces the catalog contents with snap in one transaction. Only
// declared rule fields get a row.
func (c *Catalog) Sync(ctx context.Context, snap *config.Snapshot) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return logging.NewError(logging.ErrorTypeCatalog, "failed to begin catalog sync", err, nil)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pgaudit_settings`); err != nil {
		return syncError(err, "clear settings")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pgaudit_rules`); err != nil {
		return syncError(err, "clear rules")
	}

	for _, s := range settingRows(snap) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pgaudit_settings(section, key, value) VALUES ($1, $2, $3)`,
			s.section, s.key, s.value); err != nil {
			return syncError(err, "insert setting "+s.key)
		}
	}

	rows := 0
	for pos, rule := range snap.Rules {
		for _, f := range rule.Fields {
			if !f.IsSet() {
				continue
			}
			var bitmap sql.NullInt64
			if f.Type == config.TypeBitmap {
				bitmap = sql.NullInt64{Int64: int64(f.Bitmap), Valid: true}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pgaudit_rules(rule_position, rule_name, format, field, value_type, equal, string_values, bitmap, time_ranges)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				pos, rule.Name, rule.Format, f.Name, f.Type.String(), f.Equal,
				pq.Array(f.Strings), bitmap, pq.Array(rangeStrings(f.Ranges)),
			); err != nil {
				return syncError(err, fmt.Sprintf("insert rule %s field %s", rule.Name, f.Name))
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return syncError(err, "commit")
	}
	logging.Logger.Info().Int("rules", len(snap.Rules)).Int("rows", rows).Msg("Synced audit catalog")
	return nil
}

func syncError(err error, step string) error {
	return logging.NewError(logging.ErrorTypeCatalog, "catalog sync failed: "+step, err, nil)
}

type settingRow struct {
	section, key, value string
}

func settingRows(snap *config.Snapshot) []settingRow {
	out := snap.Output
	opt := snap.Option
	return []settingRow{
		{"output", "logger", out.Logger},
		{"output", "level", out.Level},
		{"output", "pathlog", out.Pathlog},
		{"output", "facility", out.Facility},
		{"output", "priority", out.Priority},
		{"output", "ident", out.Ident},
		{"output", "option", out.Option},
		{"option", "role", opt.Role},
		{"option", "log_catalog", fmt.Sprint(opt.LogCatalog)},
		{"option", "log_parameter", fmt.Sprint(opt.LogParameter)},
		{"option", "log_statement_once", fmt.Sprint(opt.LogStatementOnce)},
		{"option", "log_for_test", fmt.Sprint(opt.LogForTest)},
		{"option", "log_level", opt.LogLevel.String()},
	}
}

func rangeStrings(ranges []config.TimeRange) []string {
	if len(ranges) == 0 {
		return nil
	}
	out := make([]string, len(ranges))
	for i, r := range ranges {
		out[i] = r.Begin.String() + "-" + r.End.String()
	}
	return out
}
