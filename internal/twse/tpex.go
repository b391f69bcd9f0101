package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gujian/internal/model"
)

// DefaultTPExURL is the TPEx daily-trading report endpoint for OTC
// stocks, one calendar month per request.
const DefaultTPExURL = "https://www.tpex.org.tw/web/stock/aftertrading/daily_trading_info/st43_result.php"

// st43Response is the TPEx report shape. Rows mirror STOCK_DAY columns
// except volume arrives in thousands of shares.
type st43Response struct {
	AaData [][]string `json:"aaData"`
}

func (c *HistoryClient) tpexMonth(ctx context.Context, symbol string, month time.Time) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s?l=zh-tw&d=%s&stkno=%s", c.TPExURL, rocMonth(month), symbol)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var payload st43Response
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tpex month: %w", err)
	}
	if len(payload.AaData) == 0 {
		return nil, fmt.Errorf("tpex: no data for %s", rocMonth(month))
	}
	return parseDayRows(payload.AaData, 1, true)
}
