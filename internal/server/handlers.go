package server

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gujian/internal/indicator"
	"gujian/internal/model"
	"gujian/internal/news"
)

const defaultHistoryMonths = 6

func (s *Server) listStocks(c *gin.Context) {
	stocks := s.watchlist()
	quotes, err := s.collector.Quotes(c.Request.Context(), stocks)
	if err != nil {
		log.Printf("[WARN] list stocks quotes: %v", err)
		// Degrade to the bare watchlist; the dashboard shows dashes.
		quotes = nil
	}
	bySymbol := make(map[string]model.Quote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Symbol] = q
	}

	type entry struct {
		model.StockInfo
		Quote *model.Quote `json:"quote,omitempty"`
	}
	out := make([]entry, len(stocks))
	for i, st := range stocks {
		out[i].StockInfo = st
		if q, ok := bySymbol[st.Symbol]; ok {
			out[i].Quote = &q
		}
	}
	c.JSON(http.StatusOK, gin.H{"stocks": out})
}

func (s *Server) getQuote(c *gin.Context) {
	stock, ok := s.findStock(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "symbol not in watchlist"})
		return
	}
	quotes, err := s.collector.Quotes(c.Request.Context(), []model.StockInfo{stock})
	if err != nil || len(quotes) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "quote unavailable"})
		return
	}
	c.JSON(http.StatusOK, quotes[0])
}

// getHistory serves bars newest-first. freq selects daily, weekly, or
// monthly granularity; fields=close keeps the legacy close-only shape.
func (s *Server) getHistory(c *gin.Context) {
	stock, ok := s.findStock(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "symbol not in watchlist"})
		return
	}
	months := intQuery(c, "months", defaultHistoryMonths)
	freq := c.DefaultQuery("freq", "daily")
	fields := c.DefaultQuery("fields", "ohlcv")

	bars, err := s.collector.History(c.Request.Context(), stock, months)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	series := indicator.NewSeries(newestFirst(bars))
	start := time.Now()
	switch {
	case freq == "weekly" && fields == "close":
		series = series.WeeklyCloseOnly()
	case freq == "weekly":
		series = series.Weekly()
	case freq == "monthly" && fields == "close":
		series = series.MonthlyCloseOnly()
	case freq == "monthly":
		series = series.Monthly()
	case freq == "daily":
		if fields == "close" {
			c.JSON(http.StatusOK, gin.H{"symbol": stock.Symbol, "freq": freq, "bars": closesOf(series.Bars())})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "freq must be daily, weekly, or monthly"})
		return
	}
	if freq != "daily" {
		s.metrics.IndicatorDur.WithLabelValues(freq).Observe(time.Since(start).Seconds())
	}

	c.JSON(http.StatusOK, gin.H{"symbol": stock.Symbol, "freq": freq, "bars": series.Bars()})
}

// getIndicators serves MA/RSI/MACD series computed over the same bars
// it returns, everything newest-first with JSON nulls for gaps.
func (s *Server) getIndicators(c *gin.Context) {
	stock, ok := s.findStock(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "symbol not in watchlist"})
		return
	}
	months := intQuery(c, "months", defaultHistoryMonths)

	bars, err := s.collector.History(c.Request.Context(), stock, months)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	series := indicator.NewSeries(newestFirst(bars))

	out := gin.H{"symbol": stock.Symbol, "bars": series.Bars()}

	if spec := c.DefaultQuery("ma", "5,10,20,60"); spec != "" {
		ma := make(map[string][]model.IndicatorPoint)
		for _, p := range parsePeriods(spec) {
			start := time.Now()
			ma[strconv.Itoa(p)] = series.SMA(p)
			s.metrics.IndicatorDur.WithLabelValues("ma").Observe(time.Since(start).Seconds())
		}
		out["ma"] = ma
	}
	if spec := c.DefaultQuery("rsi", strconv.Itoa(indicator.DefaultRSIPeriod)); spec != "" {
		if p := parsePeriods(spec); len(p) > 0 {
			start := time.Now()
			out["rsi"] = series.RSI(p[0])
			s.metrics.IndicatorDur.WithLabelValues("rsi").Observe(time.Since(start).Seconds())
		}
	}
	if spec := c.DefaultQuery("macd", "12,26,9"); spec != "" {
		p := parsePeriods(spec)
		fast, slow, signal := indicator.DefaultMACDFast, indicator.DefaultMACDSlow, indicator.DefaultMACDSignal
		if len(p) == 3 {
			fast, slow, signal = p[0], p[1], p[2]
		}
		start := time.Now()
		out["macd"] = series.MACD(fast, slow, signal)
		s.metrics.IndicatorDur.WithLabelValues("macd").Observe(time.Since(start).Seconds())
	}

	c.JSON(http.StatusOK, out)
}

func (s *Server) getNews(c *gin.Context) {
	stock, ok := s.findStock(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "symbol not in watchlist"})
		return
	}
	items, err := s.news.Fetch(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol": stock.Symbol,
		"items":  news.FilterBySymbol(items, stock.Symbol, stock.Name),
	})
}

func (s *Server) getDigest(c *gin.Context) {
	s.serveDigest(c, false)
}

func (s *Server) refreshDigest(c *gin.Context) {
	s.serveDigest(c, true)
}

func (s *Server) serveDigest(c *gin.Context, force bool) {
	stock, ok := s.findStock(c.Param("symbol"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "symbol not in watchlist"})
		return
	}
	items, err := s.news.Fetch(c.Request.Context())
	if err != nil {
		log.Printf("[WARN] digest news fetch %s: %v", stock.Symbol, err)
	}
	filtered := news.FilterBySymbol(items, stock.Symbol, stock.Name)

	var d *model.NewsDigest
	if force {
		d = s.digests.Rebuild(c.Request.Context(), stock.Symbol, stock.Name, filtered)
	} else {
		d = s.digests.Digest(c.Request.Context(), stock.Symbol, stock.Name, filtered)
	}
	c.JSON(http.StatusOK, d)
}

func intQuery(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func parsePeriods(spec string) []int {
	var out []int
	for _, part := range strings.Split(spec, ",") {
		if p, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && p > 0 {
			out = append(out, p)
		}
	}
	return out
}

// newestFirst flips the collector's ascending bars into the
// dashboard's newest-first convention.
func newestFirst(bars []model.Bar) []model.Bar {
	out := make([]model.Bar, len(bars))
	for i, b := range bars {
		out[len(bars)-1-i] = b
	}
	return out
}

func closesOf(bars []model.Bar) []model.Bar {
	out := make([]model.Bar, len(bars))
	for i, b := range bars {
		c := b.Close
		out[i] = model.Bar{Date: b.Date, Open: c, High: c, Low: c, Close: c}
	}
	return out
}
