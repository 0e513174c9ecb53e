package nvd

import (
	"context"
	"time"
)

// Record is one CVE record reduced to the fields the bot presents.
type Record struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"` // CVSS v3 base severity, empty when the feed omits it
	Score       float64 `json:"score,omitempty"`
	Published   string  `json:"published,omitempty"`
}

// Service is the query surface the command handlers consume.
type Service interface {
	GetByID(ctx context.Context, id string) (Record, error)
	SearchByKeyword(ctx context.Context, keyword string) ([]Record, error)
	GetByDateRange(ctx context.Context, start, end time.Time, limit int) ([]Record, error)
}
