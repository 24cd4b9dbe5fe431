package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertWeekScoreSQL = `INSERT INTO week_scores (
        year,
        week,
        week_start,
        open_price,
        close_price,
        price_score,
        bullish_bearish_score,
        positioning_delta_score,
        storage_score,
        inventory_delta_score,
        total_score
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    )
    ON CONFLICT (year, week) DO UPDATE
    SET
        week_start              = EXCLUDED.week_start,
        open_price              = EXCLUDED.open_price,
        close_price             = EXCLUDED.close_price,
        price_score             = EXCLUDED.price_score,
        bullish_bearish_score   = EXCLUDED.bullish_bearish_score,
        positioning_delta_score = EXCLUDED.positioning_delta_score,
        storage_score           = EXCLUDED.storage_score,
        inventory_delta_score   = EXCLUDED.inventory_delta_score,
        total_score             = EXCLUDED.total_score;`

	weekScoreColumnsSQL = `year,
        week,
        week_start,
        open_price,
        close_price,
        price_score,
        bullish_bearish_score,
        positioning_delta_score,
        storage_score,
        inventory_delta_score,
        total_score,
        created_at`

	listScoresBetweenSQL = `SELECT ` + weekScoreColumnsSQL + `
    FROM week_scores
    WHERE (year * 52 + week) >= ($1 * 52 + $2)
      AND (year * 52 + week) <= ($3 * 52 + $4)
    ORDER BY year, week;`

	listRecentScoresSQL = `SELECT ` + weekScoreColumnsSQL + `
    FROM week_scores
    ORDER BY year DESC, week DESC
    LIMIT $1;`

	countScoresSQL = `SELECT COUNT(*) FROM week_scores;`

	insertAlertSQL = `INSERT INTO alerts (
        year,
        week,
        total_score,
        threshold,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    ON CONFLICT (year, week) DO UPDATE
    SET total_score = EXCLUDED.total_score,
        threshold   = EXCLUDED.threshold,
        channels    = EXCLUDED.channels
    RETURNING id, year, week, total_score, threshold, channels, created_at;`

	latestAlertSQL = `SELECT id, year, week, total_score, threshold, channels, created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT 1;`

	listRecentAlertsSQL = `SELECT id, year, week, total_score, threshold, channels, created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// WeekScoreStore defines operations for merged weekly score persistence.
type WeekScoreStore interface {
	UpsertWeekScore(ctx context.Context, score WeekScore) error
	ListScoresBetween(ctx context.Context, fromYear, fromWeek, toYear, toWeek int) ([]WeekScore, error)
	ListRecentScores(ctx context.Context, limit int) ([]WeekScore, error)
	CountScores(ctx context.Context) (int64, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	LatestAlert(ctx context.Context) (*AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to weekly scores and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// unlock is best effort; the session release drops the lock anyway
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertWeekScore persists or updates one merged weekly observation.
func (s *Store) UpsertWeekScore(ctx context.Context, score WeekScore) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertWeekScoreSQL,
		score.Year,
		score.Week,
		score.WeekStart,
		nullDecimalArg(score.Open),
		nullDecimalArg(score.Close),
		nullDecimalArg(score.PriceScore),
		nullDecimalArg(score.BullishBearishScore),
		nullDecimalArg(score.PositioningDelta),
		nullDecimalArg(score.StorageScore),
		nullDecimalArg(score.InventoryDelta),
		score.TotalScore.String(),
	)
	if execErr != nil {
		return fmt.Errorf("upsert week score %d-W%02d: %w", score.Year, score.Week, execErr)
	}
	return nil
}

// ListScoresBetween lists scores within an inclusive week-key window.
func (s *Store) ListScoresBetween(ctx context.Context, fromYear, fromWeek, toYear, toWeek int) ([]WeekScore, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listScoresBetweenSQL, fromYear, fromWeek, toYear, toWeek)
	if queryErr != nil {
		return nil, fmt.Errorf("list scores between: %w", queryErr)
	}
	defer rows.Close()

	return collectWeekScores(rows)
}

// ListRecentScores lists the most recent weeks, newest first.
func (s *Store) ListRecentScores(ctx context.Context, limit int) ([]WeekScore, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentScoresSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent scores: %w", queryErr)
	}
	defer rows.Close()

	return collectWeekScores(rows)
}

// CountScores counts stored weeks.
func (s *Store) CountScores(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countScoresSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count scores: %w", scanErr)
	}
	return count, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.Year,
		alert.Week,
		alert.TotalScore.String(),
		alert.Threshold.String(),
		alert.Channels,
	)

	rec, scanErr := scanAlert(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// LatestAlert returns the most recently emitted alert, or nil when none exist.
func (s *Store) LatestAlert(ctx context.Context) (*AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rec, scanErr := scanAlert(pool.QueryRow(ctx, latestAlertSQL))
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return nil, nil
	}
	if scanErr != nil {
		return nil, fmt.Errorf("latest alert: %w", scanErr)
	}
	return &rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func nullDecimalArg(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func collectWeekScores(rows pgx.Rows) ([]WeekScore, error) {
	scores := make([]WeekScore, 0)
	for rows.Next() {
		score, scanErr := scanWeekScore(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		scores = append(scores, score)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return scores, nil
}

func scanWeekScore(rows pgx.Rows) (WeekScore, error) {
	var (
		score    WeekScore
		open     sql.NullString
		close    sql.NullString
		price    sql.NullString
		bullBear sql.NullString
		posDelta sql.NullString
		stor     sql.NullString
		invDelta sql.NullString
		total    string
	)

	if err := rows.Scan(
		&score.Year,
		&score.Week,
		&score.WeekStart,
		&open,
		&close,
		&price,
		&bullBear,
		&posDelta,
		&stor,
		&invDelta,
		&total,
		&score.CreatedAt,
	); err != nil {
		return WeekScore{}, err
	}

	var err error
	if score.Open, err = parseNullDecimal(open, "open_price"); err != nil {
		return WeekScore{}, err
	}
	if score.Close, err = parseNullDecimal(close, "close_price"); err != nil {
		return WeekScore{}, err
	}
	if score.PriceScore, err = parseNullDecimal(price, "price_score"); err != nil {
		return WeekScore{}, err
	}
	if score.BullishBearishScore, err = parseNullDecimal(bullBear, "bullish_bearish_score"); err != nil {
		return WeekScore{}, err
	}
	if score.PositioningDelta, err = parseNullDecimal(posDelta, "positioning_delta_score"); err != nil {
		return WeekScore{}, err
	}
	if score.StorageScore, err = parseNullDecimal(stor, "storage_score"); err != nil {
		return WeekScore{}, err
	}
	if score.InventoryDelta, err = parseNullDecimal(invDelta, "inventory_delta_score"); err != nil {
		return WeekScore{}, err
	}
	if score.TotalScore, err = decimal.NewFromString(total); err != nil {
		return WeekScore{}, fmt.Errorf("parse total_score: %w", err)
	}

	return score, nil
}

func parseNullDecimal(v sql.NullString, field string) (decimal.NullDecimal, error) {
	if !v.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse %s: %w", field, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (AlertRecord, error) {
	var (
		rec       AlertRecord
		total     string
		threshold string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Year,
		&rec.Week,
		&total,
		&threshold,
		&rec.Channels,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	var err error
	if rec.TotalScore, err = decimal.NewFromString(total); err != nil {
		return AlertRecord{}, fmt.Errorf("parse total_score: %w", err)
	}
	if rec.Threshold, err = decimal.NewFromString(threshold); err != nil {
		return AlertRecord{}, fmt.Errorf("parse threshold: %w", err)
	}
	return rec, nil
}
