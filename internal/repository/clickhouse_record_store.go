package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AgriPulse/internal/domain/models"
	drepo "AgriPulse/internal/domain/repository"
	"AgriPulse/pkg/util"
)

// ClickHouseRecordStore persists raw market transactions and serves
// volume-weighted daily history straight from SQL.
type ClickHouseRecordStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseRecordStore(db *sql.DB, table string) drepo.RecordStore {
	if table == "" {
		table = "farm_trans_raw"
	}
	return &ClickHouseRecordStore{db: db, table: table}
}

func (s *ClickHouseRecordStore) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		trade_date Date,
		crop_name  String,
		market     String,
		avg_price  Float64,
		volume     Float64,
		ingested_at DateTime DEFAULT now()
	) ENGINE = MergeTree()
	ORDER BY (market, crop_name, trade_date)`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *ClickHouseRecordStore) StoreBatch(ctx context.Context, records []models.TransRecord) error {
	if len(records) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, r := range records[start:end] {
			key, err := util.NormalizeROCKey(r.TradeDate)
			if err != nil {
				continue
			}
			day, err := util.ParseROCKey(key)
			if err != nil {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, day, r.CropName, r.MarketName, r.AvgPrice, r.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (trade_date, crop_name, market, avg_price, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store batch: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseRecordStore) DailyHistory(ctx context.Context, crop, market string, from, to time.Time) ([]models.DailyPrice, error) {
	q := fmt.Sprintf(`SELECT
		trade_date,
		sum(avg_price * volume) / sum(volume) AS price,
		sum(volume) AS volume
	FROM %s
	WHERE positionUTF8(crop_name, ?) > 0
	  AND market = ?
	  AND trade_date >= ? AND trade_date <= ?
	  AND avg_price > 0 AND volume > 0
	GROUP BY trade_date
	ORDER BY trade_date`, s.table)

	rows, err := s.db.QueryContext(ctx, q, crop, market, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily history: %w", err)
	}
	defer rows.Close()

	var series []models.DailyPrice
	for rows.Next() {
		var day time.Time
		var p models.DailyPrice
		if err := rows.Scan(&day, &p.Price, &p.Volume); err != nil {
			return nil, err
		}
		p.Date = util.ROCKey(day)
		series = append(series, p)
	}
	return series, rows.Err()
}

func (s *ClickHouseRecordStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseRecordStore) Close() error {
	return nil // connection lifecycle owned by pkg/clickhouse
}
