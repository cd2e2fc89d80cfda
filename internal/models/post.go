package models

import "time"

type Post struct {
	ID        ID       `json:"id"`
	UserID    *ID      `json:"user_id"`
	Title     string   `json:"title"`
	Image     *string  `json:"image"`
	Price     *float64 `json:"price"`
	StartDate *string  `json:"startDate"`
	EndDate   *string  `json:"endDate"`
}

// Start parses StartDate; nil when absent or malformed.
func (p *Post) Start() *time.Time { return ParseTimestampPtr(p.StartDate) }

// End parses EndDate; nil when absent or malformed.
func (p *Post) End() *time.Time { return ParseTimestampPtr(p.EndDate) }

// UnitPrice returns the per-person price, zero when unknown.
func (p *Post) UnitPrice() float64 {
	if p == nil || p.Price == nil {
		return 0
	}
	return *p.Price
}
