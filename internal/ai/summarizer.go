package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gujian/internal/metrics"
	"gujian/internal/model"
	"gujian/internal/store"
)

// Summarizer turns filtered headlines into a cached NewsDigest via the
// LLM. Digests are cached in memory with a TTL and written through to
// the store so repeated dashboard loads don't re-bill the API.
type Summarizer struct {
	client  Client
	store   store.Store
	ttl     time.Duration
	Metrics *metrics.Metrics // optional

	mu    sync.RWMutex
	cache map[string]*model.NewsDigest
}

// NewSummarizer creates a summarizer with the given cache TTL.
func NewSummarizer(client Client, st store.Store, ttl time.Duration) *Summarizer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Summarizer{
		client: client,
		store:  st,
		ttl:    ttl,
		cache:  make(map[string]*model.NewsDigest),
	}
}

// digestJSON is the strict shape the prompt asks the model for.
type digestJSON struct {
	Summary   string  `json:"summary"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

// Digest returns the digest for one stock, serving the cache while it
// is fresh. LLM or parsing failures degrade to an "unknown" digest
// rather than an error so the quote and indicator paths stay alive.
func (s *Summarizer) Digest(ctx context.Context, symbol, name string, items []model.NewsItem) *model.NewsDigest {
	if d := s.cached(symbol); d != nil {
		return d
	}
	return s.Rebuild(ctx, symbol, name, items)
}

// Rebuild always calls the LLM, replacing any cached digest. Used by
// the forced refresh endpoint and the morning digest job.
func (s *Summarizer) Rebuild(ctx context.Context, symbol, name string, items []model.NewsItem) *model.NewsDigest {
	d := &model.NewsDigest{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Sentiment:   "unknown",
		Items:       items,
		GeneratedAt: time.Now(),
	}

	if len(items) > 0 && s.client != nil {
		start := time.Now()
		raw, err := s.client.GenerateContent(ctx, buildPrompt(symbol, name, items))
		if s.Metrics != nil {
			s.Metrics.LLMCalls.Inc()
			s.Metrics.LLMDur.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			log.Printf("[WARN] digest %s: llm call: %v", symbol, err)
		} else {
			var parsed digestJSON
			if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
				log.Printf("[WARN] digest %s: parse llm json: %v (response: %s)", symbol, err, raw)
			} else {
				d.Summary = parsed.Summary
				d.Sentiment = normalizeSentiment(parsed.Sentiment)
				d.Score = clampScore(parsed.Score)
			}
		}
	}

	s.mu.Lock()
	s.cache[symbol] = d
	s.mu.Unlock()

	if err := s.store.SaveDigest(d); err != nil {
		log.Printf("[WARN] persist digest %s: %v", symbol, err)
	}
	return d
}

func (s *Summarizer) cached(symbol string) *model.NewsDigest {
	s.mu.RLock()
	d := s.cache[symbol]
	s.mu.RUnlock()
	if d != nil && time.Since(d.GeneratedAt) < s.ttl {
		return d
	}
	if d != nil {
		return nil
	}
	// Cold cache: a persisted digest still within TTL survives restarts.
	stored, err := s.store.LatestDigest(symbol)
	if err != nil || stored == nil || time.Since(stored.GeneratedAt) >= s.ttl {
		return nil
	}
	s.mu.Lock()
	s.cache[symbol] = stored
	s.mu.Unlock()
	return stored
}

func buildPrompt(symbol, name string, items []model.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "你是台股新聞分析師。以下是 %s (%s) 的近期新聞標題：\n", name, symbol)
	for i, it := range items {
		if i >= 20 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", it.Title)
	}
	b.WriteString("\n請以繁體中文總結這些新聞對該股的影響，並判斷整體情緒。" +
		`只回傳 JSON，格式：{"summary": "...", "sentiment": "positive|neutral|negative", "score": -1.0~1.0}`)
	return b.String()
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "neutral", "negative":
		return strings.ToLower(strings.TrimSpace(s))
	default:
		return "unknown"
	}
}

func clampScore(f float64) float64 {
	if f < -1 {
		return -1
	}
	if f > 1 {
		return 1
	}
	return f
}
