// Package server is the HTTP and WebSocket surface consumed by the
// browser dashboard. It serves quotes, bar history, indicator series,
// and news digests as JSON, all in the dashboard's newest-first
// convention, plus a live quote stream.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gujian/internal/metrics"
	"gujian/internal/model"
)

// HistoryProvider supplies bars and quotes (implemented by fetch.Collector).
type HistoryProvider interface {
	History(ctx context.Context, stock model.StockInfo, months int) ([]model.Bar, error)
	Quotes(ctx context.Context, stocks []model.StockInfo) ([]model.Quote, error)
}

// NewsProvider supplies raw headlines (implemented by news.Fetcher).
type NewsProvider interface {
	Fetch(ctx context.Context) ([]model.NewsItem, error)
}

// DigestProvider supplies LLM digests (implemented by ai.Summarizer).
type DigestProvider interface {
	Digest(ctx context.Context, symbol, name string, items []model.NewsItem) *model.NewsDigest
	Rebuild(ctx context.Context, symbol, name string, items []model.NewsItem) *model.NewsDigest
}

// Server wires the gin router to the data providers.
type Server struct {
	collector HistoryProvider
	news      NewsProvider
	digests   DigestProvider
	hub       *Hub
	metrics   *metrics.Metrics
	watchlist func() []model.StockInfo

	engine *gin.Engine
	srv    *http.Server
}

// New builds the router. watchlist is a function so config hot reload
// takes effect without restarting the server.
func New(addr string, col HistoryProvider, np NewsProvider, dp DigestProvider, hub *Hub, m *metrics.Metrics, watchlist func() []model.StockInfo) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware())

	s := &Server{
		collector: col,
		news:      np,
		digests:   dp,
		hub:       hub,
		metrics:   m,
		watchlist: watchlist,
		engine:    engine,
		srv: &http.Server{
			Addr:    addr,
			Handler: engine,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api/v1")
	api.GET("/stocks", s.listStocks)
	api.GET("/stocks/:symbol/quote", s.getQuote)
	api.GET("/stocks/:symbol/history", s.getHistory)
	api.GET("/stocks/:symbol/indicators", s.getIndicators)
	api.GET("/stocks/:symbol/news", s.getNews)
	api.GET("/stocks/:symbol/digest", s.getDigest)
	api.POST("/stocks/:symbol/digest/refresh", s.refreshDigest)

	s.engine.GET("/ws/quotes", func(c *gin.Context) {
		s.hub.HandleWS(c.Writer, c.Request)
	})
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
	})
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// corsMiddleware lets the browser dashboard call from its own origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] http server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] http server: %v", err)
		}
	}()
}

// Shutdown drains connections and closes the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.srv.Shutdown(ctx)
}

func (s *Server) findStock(symbol string) (model.StockInfo, bool) {
	for _, st := range s.watchlist() {
		if st.Symbol == symbol {
			return st, true
		}
	}
	return model.StockInfo{}, false
}
