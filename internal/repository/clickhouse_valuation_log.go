package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ReValue/internal/domain/models"
	domrepo "ReValue/internal/domain/repository"
	pkgch "ReValue/pkg/clickhouse"
	applogger "ReValue/pkg/logger"
)

const valuationColumns = `id, item_id, created_at, category, raw_category, brand, usage_pattern,
        build_quality, condition, original_price, used_duration, user_lifespan,
        expiry_years, price, source, fingerprint`

// sqlDB is the subset of *sql.DB the valuation log needs.
type sqlDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PingContext(ctx context.Context) error
}

// CHValuationLog is the append-only valuation audit table in ClickHouse.
type CHValuationLog struct {
	db    sqlDB
	table string
	l     *applogger.Logger
}

func NewCHValuationLog(ch *pkgch.Client, table string, l *applogger.Logger) *CHValuationLog {
	return newCHValuationLog(ch.DB(), qualifiedTable(ch.Database(), table), l)
}

func newCHValuationLog(db sqlDB, table string, l *applogger.Logger) *CHValuationLog {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHValuationLog{db: db, table: table, l: l}
}

// SchemaStatements returns the DDL for the audit table.
func (s *CHValuationLog) SchemaStatements(ttlDays int) []string {
	ttl := ""
	if ttlDays > 0 {
		ttl = fmt.Sprintf("\n        TTL toDateTime(created_at) + INTERVAL %d DAY", ttlDays)
	}
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id             String,
            item_id        String,
            created_at     DateTime64(3, 'UTC'),
            category       LowCardinality(String),
            raw_category   String,
            brand          LowCardinality(String),
            usage_pattern  LowCardinality(String),
            build_quality  UInt8,
            condition      UInt8,
            original_price Float64,
            used_duration  Float64,
            user_lifespan  Float64,
            expiry_years   Float64,
            price          Float64,
            source         LowCardinality(String),
            fingerprint    String
        )
        ENGINE = MergeTree
        ORDER BY (category, created_at)%s
    `, s.table, ttl)}
}

func (s *CHValuationLog) Store(ctx context.Context, v *models.Valuation) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, valuationColumns)
	a := v.Attributes
	_, err := s.db.ExecContext(ctx, q,
		v.ID,
		v.ItemID,
		v.CreatedAt.UTC(),
		a.Category.String(),
		a.RawCategory,
		a.Brand,
		a.UsagePattern.String(),
		clampUint8(a.BuildQuality),
		clampUint8(a.Condition),
		a.OriginalPrice,
		a.UsedDuration,
		a.UserLifespan,
		a.ExpiryYears,
		v.Price,
		v.Source,
		v.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("store valuation %s: %w", v.ID, err)
	}
	return nil
}

func (s *CHValuationLog) Recent(ctx context.Context, category string, since time.Time, limit int) ([]models.Valuation, error) {
	start := time.Now()
	q, args := s.recentQuery(category, since, limit)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse recent_valuations query error",
			applogger.String("table", s.table),
			applogger.String("category", category),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("recent valuations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Valuation, 0, max(limit, 0))
	for rows.Next() {
		var (
			v                  models.Valuation
			cat, usage         string
			buildQuality, cond uint8
		)
		if err := rows.Scan(
			&v.ID, &v.ItemID, &v.CreatedAt, &cat, &v.Attributes.RawCategory,
			&v.Attributes.Brand, &usage, &buildQuality, &cond,
			&v.Attributes.OriginalPrice, &v.Attributes.UsedDuration, &v.Attributes.UserLifespan,
			&v.Attributes.ExpiryYears, &v.Price, &v.Source, &v.Fingerprint,
		); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		v.Attributes.Category = models.ParseCategory(cat)
		v.Attributes.UsagePattern = models.ParseUsagePattern(usage)
		v.Attributes.RawUsage = usage
		v.Attributes.BuildQuality = int(buildQuality)
		v.Attributes.Condition = int(cond)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse recent_valuations ok",
		applogger.String("table", s.table),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHValuationLog) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHValuationLog) recentQuery(category string, since time.Time, limit int) (string, []any) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE created_at >= ?", valuationColumns, s.table)
	args := []any{since.UTC()}
	if category != "" {
		q += " AND category = ?"
		args = append(args, models.ParseCategory(category).String())
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)
	return q, args
}

func qualifiedTable(database, table string) string {
	if database == "" {
		return table
	}
	return database + "." + table
}

func clampUint8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

var _ domrepo.ValuationLog = (*CHValuationLog)(nil)
