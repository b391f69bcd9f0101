package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"gujian/internal/model"
)

// DefaultQuoteURL is the TWSE MIS real-time quote endpoint. It serves
// both listed (tse_) and TPEx (otc_) instruments.
const DefaultQuoteURL = "https://mis.twse.com.tw/stock/api/getStockInfo.jsp"

// QuoteClient polls the MIS endpoint for real-time quotes.
type QuoteClient struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewQuoteClient creates a quote client with optional proxy support.
// The limiter is shared with the history client so the combined
// request rate stays under the exchange's throttle.
func NewQuoteClient(baseURL, proxyURL string, limiter *rate.Limiter) *QuoteClient {
	if baseURL == "" {
		baseURL = DefaultQuoteURL
	}
	return &QuoteClient{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL),
		Limiter: limiter,
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// misQuote is one msgArray entry. Every field arrives string-encoded.
type misQuote struct {
	Code      string `json:"c"`
	Name      string `json:"n"`
	Last      string `json:"z"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	PrevClose string `json:"y"`
	Volume    string `json:"v"`
	TimeMS    string `json:"tlong"`
}

type misResponse struct {
	MsgArray []misQuote `json:"msgArray"`
	RtCode   string     `json:"rtcode"`
	RtMsg    string     `json:"rtmessage"`
}

// Quotes fetches current quotes for the given stocks in one request.
func (c *QuoteClient) Quotes(ctx context.Context, stocks []model.StockInfo) ([]model.Quote, error) {
	if len(stocks) == 0 {
		return nil, nil
	}
	keys := make([]string, len(stocks))
	for i, st := range stocks {
		market := st.Market
		if market == "" {
			market = "tse"
		}
		keys[i] = fmt.Sprintf("%s_%s.tw", market, st.Symbol)
	}

	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s?ex_ch=%s&json=1&delay=0", c.BaseURL, url.QueryEscape(strings.Join(keys, "|")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch quotes: status %d, body: %s", resp.StatusCode, string(body))
	}

	var payload misResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}
	if payload.RtCode != "" && payload.RtCode != "0000" {
		return nil, fmt.Errorf("mis api error %s: %s", payload.RtCode, payload.RtMsg)
	}

	quotes := make([]model.Quote, 0, len(payload.MsgArray))
	for _, m := range payload.MsgArray {
		quotes = append(quotes, m.toQuote())
	}
	return quotes, nil
}

func (m misQuote) toQuote() model.Quote {
	q := model.Quote{Symbol: m.Code, Name: m.Name}
	q.Price, _ = parsePrice(m.Last)
	q.Open, _ = parsePrice(m.Open)
	q.High, _ = parsePrice(m.High)
	q.Low, _ = parsePrice(m.Low)
	q.PrevClose, _ = parsePrice(m.PrevClose)
	q.Volume, _ = parseShares(m.Volume)
	// Pre-open and halted instruments report "-" for the last price;
	// fall back to the previous close so consumers still get a number.
	if math.IsNaN(q.Price) && !math.IsNaN(q.PrevClose) {
		q.Price = q.PrevClose
	}
	if ms, err := strconv.ParseInt(m.TimeMS, 10, 64); err == nil && ms > 0 {
		q.Time = time.UnixMilli(ms).In(taipei)
	}
	return q
}
