package model

import "time"

// NewsItem is one headline pulled from an RSS feed.
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

// NewsDigest is an LLM-generated summary of recent headlines for one stock.
type NewsDigest struct {
	ID          string     `json:"id"`
	Symbol      string     `json:"symbol"`
	Summary     string     `json:"summary"`
	Sentiment   string     `json:"sentiment"` // positive / neutral / negative / unknown
	Score       float64    `json:"score"`     // -1.0 ~ 1.0
	Items       []NewsItem `json:"items"`
	GeneratedAt time.Time  `json:"generated_at"`
}
