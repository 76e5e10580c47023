package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"PredictLens/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS comparison_metrics (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			run_id       TEXT NOT NULL,
			model        TEXT NOT NULL,
			mae          REAL,
			rmse         REAL,
			mape_pct     REAL,
			observations INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comparison_ts ON comparison_metrics(timestamp)`,

		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			run_id         TEXT NOT NULL,
			ticker         TEXT NOT NULL,
			horizon        INTEGER,
			train_size     INTEGER,
			test_size      INTEGER,
			slope          REAL,
			intercept      REAL,
			mae            REAL,
			rmse           REAL,
			mape_pct       REAL,
			r2             REAL,
			baseline_mae   REAL,
			last_close     REAL,
			final_forecast REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_ticker_ts ON forecast_runs(ticker, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps an absent value to SQL NULL.
func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (r *SQLiteRecorder) RecordComparison(metrics []model.MetricSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	now := r.now().Unix()
	runID := uuid.NewString()
	for _, m := range metrics {
		if _, err := tx.Exec(`INSERT INTO comparison_metrics
			(timestamp, run_id, model, mae, rmse, mape_pct, observations)
			VALUES (?,?,?,?,?,?,?)`,
			now, runID, m.Source, nullable(m.MAE), nullable(m.RMSE), nullable(m.MAPE), m.Observations,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", m.Source, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordForecast(res *model.ForecastResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var final float64
	if n := len(res.Forecast); n > 0 {
		final = res.Forecast[n-1].Price
	}
	ts := res.GeneratedAt
	if ts.IsZero() {
		ts = r.now()
	}
	runID := res.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	_, err := r.db.Exec(`INSERT INTO forecast_runs
		(timestamp, run_id, ticker, horizon, train_size, test_size, slope, intercept,
		 mae, rmse, mape_pct, r2, baseline_mae, last_close, final_forecast)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.Unix(), runID, res.Ticker, res.Horizon, res.TrainSize, res.TestSize, res.Slope, res.Intercept,
		res.Test.MAE, res.Test.RMSE, nullable(res.Test.MAPE), res.Test.R2,
		nullable(res.BaselineMAE), res.Summary.LastClose, final,
	)
	return err
}

// RecentForecasts returns the latest runs for ticker, newest first.
func (r *SQLiteRecorder) RecentForecasts(ticker string, limit int) ([]ForecastRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, run_id, ticker, horizon, train_size, test_size, slope, intercept,
		mae, rmse, mape_pct, r2, baseline_mae, last_close, final_forecast
		FROM forecast_runs WHERE ticker = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query forecast runs: %w", err)
	}
	defer rows.Close()

	var out []ForecastRun
	for rows.Next() {
		var run ForecastRun
		var ts int64
		var mape, baseline sql.NullFloat64
		if err := rows.Scan(&run.ID, &ts, &run.RunID, &run.Ticker, &run.Horizon, &run.TrainSize, &run.TestSize,
			&run.Slope, &run.Intercept, &run.MAE, &run.RMSE, &mape, &run.R2, &baseline,
			&run.LastClose, &run.FinalForecast); err != nil {
			return nil, fmt.Errorf("scan forecast run: %w", err)
		}
		run.Timestamp = time.Unix(ts, 0).UTC()
		if mape.Valid {
			run.MAPE = &mape.Float64
		}
		if baseline.Valid {
			run.BaselineMAE = &baseline.Float64
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
