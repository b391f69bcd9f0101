package twse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"gujian/internal/model"
)

const misFixture = `{
	"rtcode": "0000",
	"rtmessage": "OK",
	"msgArray": [
		{
			"c": "2330", "n": "台積電",
			"z": "1,085.00", "o": "1,080.00", "h": "1,090.00", "l": "1,075.00",
			"y": "1,070.00", "v": "25,123", "tlong": "1756442700000"
		},
		{
			"c": "6488", "n": "環球晶",
			"z": "-", "o": "-", "h": "-", "l": "-",
			"y": "485.00", "v": "0", "tlong": "0"
		}
	]
}`

func TestQuotes_ParsesMsgArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(misFixture))
	}))
	defer srv.Close()

	c := NewQuoteClient(srv.URL, "", rate.NewLimiter(rate.Inf, 1))
	quotes, err := c.Quotes(context.Background(), []model.StockInfo{
		{Symbol: "2330", Market: "tse"},
		{Symbol: "6488", Market: "otc"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}

	q := quotes[0]
	if q.Symbol != "2330" || q.Name != "台積電" {
		t.Errorf("identity mismatch: %+v", q)
	}
	if q.Price != 1085 || q.Open != 1080 || q.High != 1090 || q.Low != 1075 || q.PrevClose != 1070 {
		t.Errorf("price fields mismatch: %+v", q)
	}
	if q.Volume != 25123 {
		t.Errorf("volume: got %d, want 25123", q.Volume)
	}
	if q.Time.IsZero() {
		t.Error("tlong should parse into a timestamp")
	}

	// Pre-open "-" last price falls back to the previous close.
	if quotes[1].Price != 485 {
		t.Errorf("placeholder price should fall back to prev close, got %v", quotes[1].Price)
	}
}

func TestQuotes_BuildsExChKeys(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("ex_ch")
		w.Write([]byte(`{"rtcode": "0000", "msgArray": []}`))
	}))
	defer srv.Close()

	c := NewQuoteClient(srv.URL, "", rate.NewLimiter(rate.Inf, 1))
	_, err := c.Quotes(context.Background(), []model.StockInfo{
		{Symbol: "2330", Market: "tse"},
		{Symbol: "6488", Market: "otc"},
		{Symbol: "2317"}, // empty market defaults to tse
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "tse_2330.tw|otc_6488.tw|tse_2317.tw"
	if got != want {
		t.Errorf("ex_ch: got %q, want %q", got, want)
	}
}

func TestQuotes_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rtcode": "5001", "rtmessage": "查無資料"}`))
	}))
	defer srv.Close()

	c := NewQuoteClient(srv.URL, "", rate.NewLimiter(rate.Inf, 1))
	if _, err := c.Quotes(context.Background(), []model.StockInfo{{Symbol: "9999"}}); err == nil {
		t.Error("expected error for non-zero rtcode")
	}
}

func TestQuotes_EmptyWatchlist(t *testing.T) {
	c := NewQuoteClient("http://127.0.0.1:0", "", rate.NewLimiter(rate.Inf, 1))
	quotes, err := c.Quotes(context.Background(), nil)
	if err != nil || quotes != nil {
		t.Errorf("empty watchlist should be a no-op, got %v, %v", quotes, err)
	}
}
