package twse

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"time"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"gujian/internal/model"
)

// DefaultHistoryURL is the TWSE daily-trading report endpoint.
// It serves one calendar month of daily bars per request.
const DefaultHistoryURL = "https://www.twse.com.tw/exchangeReport/STOCK_DAY"

// HistoryClient fetches daily OHLCV history from TWSE (listed stocks)
// and TPEx (OTC stocks).
type HistoryClient struct {
	BaseURL string
	TPExURL string
	Client  *http.Client
	Limiter *rate.Limiter

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewHistoryClient creates a history client with optional proxy support.
func NewHistoryClient(baseURL, tpexURL, proxyURL string, limiter *rate.Limiter) *HistoryClient {
	if baseURL == "" {
		baseURL = DefaultHistoryURL
	}
	if tpexURL == "" {
		tpexURL = DefaultTPExURL
	}
	return &HistoryClient{
		BaseURL: baseURL,
		TPExURL: tpexURL,
		Client:  newHTTPClient(proxyURL),
		Limiter: limiter,
		now:     time.Now,
	}
}

// DailyBars assembles up to months calendar months of daily bars for
// one instrument by walking month-by-month backwards from the current
// month. Months the exchange has no data for (new listings, far past)
// are skipped with a warning. Bars return ascending by date.
func (c *HistoryClient) DailyBars(ctx context.Context, symbol, market string, months int) ([]model.Bar, error) {
	if months < 1 {
		months = 1
	}
	cur := c.now().In(taipei)
	cur = time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, taipei)

	var bars []model.Bar
	for i := 0; i < months; i++ {
		month := cur.AddDate(0, -i, 0)
		var (
			mb  []model.Bar
			err error
		)
		if market == "otc" {
			mb, err = c.tpexMonth(ctx, symbol, month)
		} else {
			mb, err = c.twseMonth(ctx, symbol, month)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[WARN] history %s %s: %v", symbol, month.Format("2006-01"), err)
			continue
		}
		bars = append(bars, mb...)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// stockDayResponse is the STOCK_DAY JSON shape. Each data row is
// [ROC date, shares, amount, open, high, low, close, change, txns],
// all string-encoded with comma grouping.
type stockDayResponse struct {
	Stat string     `json:"stat"`
	Data [][]string `json:"data"`
}

func (c *HistoryClient) twseMonth(ctx context.Context, symbol string, month time.Time) ([]model.Bar, error) {
	bars, err := c.twseMonthJSON(ctx, symbol, month)
	if err == nil {
		return bars, nil
	}
	// The JSON endpoint intermittently serves truncated payloads under
	// load; the Big5-encoded CSV variant is the stable fallback.
	csvBars, csvErr := c.twseMonthCSV(ctx, symbol, month)
	if csvErr != nil {
		return nil, fmt.Errorf("json: %w; csv fallback: %w", err, csvErr)
	}
	return csvBars, nil
}

func (c *HistoryClient) twseMonthJSON(ctx context.Context, symbol string, month time.Time) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s?response=json&date=%s&stockNo=%s", c.BaseURL, month.Format("20060102"), symbol)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var payload stockDayResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode month: %w", err)
	}
	if payload.Stat != "OK" {
		return nil, fmt.Errorf("stock_day stat: %s", payload.Stat)
	}
	return parseDayRows(payload.Data, 1, false)
}

func (c *HistoryClient) twseMonthCSV(ctx context.Context, symbol string, month time.Time) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s?response=csv&date=%s&stockNo=%s", c.BaseURL, month.Format("20060102"), symbol)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	// The CSV report is Big5-encoded with title and footer lines mixed
	// into the records.
	r := csv.NewReader(transform.NewReader(body, traditionalchinese.Big5.NewDecoder()))
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) < 7 {
			continue
		}
		if _, err := ParseROCDate(rec[0]); err != nil {
			continue // title, header, or footer line
		}
		rows = append(rows, rec)
	}
	return parseDayRows(rows, 1, false)
}

func (c *HistoryClient) get(ctx context.Context, endpoint string) (io.ReadCloser, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch history: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// parseDayRows converts exchange report rows into bars. sharesCol is
// the volume column index; kilo scales thousand-share volumes (TPEx)
// back to shares. Rows with malformed dates are dropped; malformed
// prices flow through as NaN and surface as null indicator points.
func parseDayRows(rows [][]string, sharesCol int, kilo bool) ([]model.Bar, error) {
	bars := make([]model.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		date, err := ParseROCDate(row[0])
		if err != nil {
			continue
		}
		var b model.Bar
		b.Date = date
		b.Open, _ = parsePrice(row[3])
		b.High, _ = parsePrice(row[4])
		b.Low, _ = parsePrice(row[5])
		b.Close, _ = parsePrice(row[6])
		b.Volume, _ = parseShares(row[sharesCol])
		if kilo {
			b.Volume *= 1000
		}
		bars = append(bars, b)
	}
	return bars, nil
}
