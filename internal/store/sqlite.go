package store

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"gujian/internal/model"
)

// SQLiteStore persists bars, quote ticks, and digests to a SQLite
// database. It is the server-side equivalent of the dashboard's old
// browser-local chart cache.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboard reads don't block scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_bars (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume INTEGER,
			PRIMARY KEY (symbol, date)
		)`,

		`CREATE TABLE IF NOT EXISTS quotes_log (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			ts     INTEGER NOT NULL,
			price  REAL,
			volume INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_symbol_ts ON quotes_log(symbol, ts)`,

		`CREATE TABLE IF NOT EXISTS news_digests (
			id         TEXT PRIMARY KEY,
			symbol     TEXT NOT NULL,
			summary    TEXT,
			sentiment  TEXT,
			score      REAL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_digests_symbol_ts ON news_digests(symbol, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// nullable maps non-finite prices to NULL; the driver cannot bind NaN.
func nullable(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (s *SQLiteStore) UpsertDailyBars(symbol string, bars []model.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO daily_bars
		(symbol, date, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(symbol, b.Date.Format("2006-01-02"),
			nullable(b.Open), nullable(b.High), nullable(b.Low), nullable(b.Close), b.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert bar %s: %w", b.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) DailyBars(symbol string, from time.Time) ([]model.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT date, open, high, low, close, volume
		FROM daily_bars WHERE symbol = ? AND date >= ? ORDER BY date ASC`,
		symbol, from.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var (
			date       string
			o, h, l, c sql.NullFloat64
			vol        int64
		)
		if err := rows.Scan(&date, &o, &h, &l, &c, &vol); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		bars = append(bars, model.Bar{
			Date:   d,
			Open:   orNaN(o),
			High:   orNaN(h),
			Low:    orNaN(l),
			Close:  orNaN(c),
			Volume: vol,
		})
	}
	return bars, rows.Err()
}

func (s *SQLiteStore) LogQuote(q model.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := q.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO quotes_log (symbol, ts, price, volume) VALUES (?,?,?,?)`,
		q.Symbol, ts.Unix(), nullable(q.Price), q.Volume)
	return err
}

func (s *SQLiteStore) PruneQuoteLog(before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM quotes_log WHERE ts < ?`, before.Unix())
	if err != nil {
		return fmt.Errorf("prune quote log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Printf("[INFO] pruned %d quote log rows", n)
	}
	return nil
}

func (s *SQLiteStore) SaveDigest(d *model.NewsDigest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR REPLACE INTO news_digests
		(id, symbol, summary, sentiment, score, created_at) VALUES (?,?,?,?,?,?)`,
		d.ID, d.Symbol, d.Summary, d.Sentiment, d.Score, d.GeneratedAt.Unix())
	return err
}

func (s *SQLiteStore) LatestDigest(symbol string) (*model.NewsDigest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, symbol, summary, sentiment, score, created_at
		FROM news_digests WHERE symbol = ? ORDER BY created_at DESC LIMIT 1`, symbol)

	var d model.NewsDigest
	var ts int64
	if err := row.Scan(&d.ID, &d.Symbol, &d.Summary, &d.Sentiment, &d.Score, &ts); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query digest: %w", err)
	}
	d.GeneratedAt = time.Unix(ts, 0)
	return &d, nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
